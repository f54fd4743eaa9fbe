// Package location resolves free-text place names to coordinates.
//
// Resolution order, first hit wins: IATA airport code, exact city match,
// country-alias rewrite, fuzzy match above a threshold. Anything else yields
// the model.Unresolved sentinel. Resolve never fails.
package location

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/okian/stipend/internal/domain/geo"
	"github.com/okian/stipend/internal/domain/model"
	"github.com/okian/stipend/pkg/logger"
	"github.com/okian/stipend/pkg/metrics"
)

const (
	defaultThreshold = 0.6
	cityWeight       = 0.7
	countryWeight    = 0.3
)

var airportCode = regexp.MustCompile(`^[A-Z]{3}$`)

// Directory supplies the reference cities and airports. Cities are matched in
// the order returned, which decides fuzzy ties.
type Directory interface {
	Cities(ctx context.Context) ([]model.City, error)
	Airports(ctx context.Context) ([]model.Airport, error)
}

// Resolver maps location text to coordinates. Results are memoized per input.
type Resolver struct {
	dir       Directory
	threshold float64
	log       logger.Logger

	loadMu sync.Mutex
	idx    *index

	memoMu sync.RWMutex
	memo   map[string]memoEntry
}

type memoEntry struct {
	match model.LocationMatch
	ok    bool
}

// New creates a Resolver over dir.
func New(dir Directory, opts ...Option) *Resolver {
	r := &Resolver{
		dir:       dir,
		threshold: defaultThreshold,
		log:       logger.Nop(),
		memo:      make(map[string]memoEntry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the coordinates for input, or model.Unresolved.
func (r *Resolver) Resolve(ctx context.Context, input string) model.Coordinates {
	m, _ := r.Match(ctx, input)
	return m.Coordinates
}

// Match returns the full match for input. ok is false when input resolved to the sentinel.
func (r *Resolver) Match(ctx context.Context, input string) (model.LocationMatch, bool) {
	r.memoMu.RLock()
	e, hit := r.memo[input]
	r.memoMu.RUnlock()
	if hit {
		return e.match, e.ok
	}

	idx, err := r.index(ctx)
	if err != nil {
		r.log.Error(ctx, "reference locations unavailable", logger.String("input", input), logger.Error(err))
		metrics.RecordErrorByComponent("location", "directory")
		return unresolved(input), false
	}

	m, ok := r.match(ctx, idx, input)
	if ok {
		metrics.RecordLocationMatch(string(m.Method))
	} else {
		metrics.RecordUnresolvedLocation()
	}

	r.memoMu.Lock()
	r.memo[input] = memoEntry{match: m, ok: ok}
	r.memoMu.Unlock()
	return m, ok
}

// AirportFor returns the IATA code serving input: the code itself when input
// is a known airport code, else the airport nearest to the resolved city.
func (r *Resolver) AirportFor(ctx context.Context, input string) (string, bool) {
	m, ok := r.Match(ctx, input)
	if !ok {
		return "", false
	}
	if m.Method == model.MatchAirport {
		return strings.TrimSpace(input), true
	}
	a, _, ok := r.NearestAirport(ctx, m.Coordinates)
	if !ok {
		return "", false
	}
	return a.Code, true
}

// NearestAirport returns the reference airport closest to c and its distance in km.
func (r *Resolver) NearestAirport(ctx context.Context, c model.Coordinates) (model.Airport, float64, bool) {
	if c.IsUnresolved() {
		return model.Airport{}, 0, false
	}
	idx, err := r.index(ctx)
	if err != nil || len(idx.airportList) == 0 {
		return model.Airport{}, 0, false
	}
	best := -1
	bestKm := math.Inf(1)
	for i, a := range idx.airportList {
		if d := geo.Haversine(c, a.Coordinates); d < bestKm {
			best, bestKm = i, d
		}
	}
	return idx.airportList[best], bestKm, true
}

func (r *Resolver) match(ctx context.Context, idx *index, input string) (model.LocationMatch, bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return unresolved(input), false
	}

	if airportCode.MatchString(trimmed) {
		if a, ok := idx.airports[trimmed]; ok {
			name := a.City
			if name == "" {
				name = a.Code
			}
			return model.LocationMatch{Input: input, Name: name, Coordinates: a.Coordinates, Similarity: 1, Method: model.MatchAirport}, true
		}
	}

	if i, ok := idx.exact(trimmed); ok {
		return idx.found(input, i, 1, model.MatchExact), true
	}

	key := normKey(trimmed)
	if i, ok := idx.alias(key); ok {
		return idx.found(input, i, 1, model.MatchAlias), true
	}

	best, score := idx.fuzzy(key)
	if best >= 0 && score >= r.threshold {
		return idx.found(input, best, score, model.MatchFuzzy), true
	}

	fields := []logger.Field{logger.String("input", input), logger.Float64("threshold", r.threshold)}
	if best >= 0 {
		fields = append(fields, logger.String("best_candidate", idx.cities[best].Name), logger.Float64("score", score))
	}
	r.log.Warn(ctx, "location unresolved, using sentinel coordinates", fields...)
	return unresolved(input), false
}

func (r *Resolver) index(ctx context.Context) (*index, error) {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()
	if r.idx != nil {
		return r.idx, nil
	}
	cities, err := r.dir.Cities(ctx)
	if err != nil {
		return nil, err
	}
	airports, err := r.dir.Airports(ctx)
	if err != nil {
		return nil, err
	}
	r.idx = buildIndex(cities, airports)
	return r.idx, nil
}

func unresolved(input string) model.LocationMatch {
	return model.LocationMatch{Input: input, Coordinates: model.Unresolved, Method: model.MatchNone}
}

// normKey is the case- and accent-insensitive form used for lookups.
func normKey(s string) string { return fold(geo.Normalize(s)) }

type candidate struct {
	city        string
	code        string
	countryName string
}

type index struct {
	cities      []model.City
	candidates  []candidate
	byName      map[string]int
	byCity      map[string]int
	byNorm      map[string]int
	byNormCity  map[string]int
	airports    map[string]model.Airport
	airportList []model.Airport
}

func buildIndex(cities []model.City, airports []model.Airport) *index {
	idx := &index{
		cities:     cities,
		candidates: make([]candidate, len(cities)),
		byName:     make(map[string]int, len(cities)),
		byCity:     make(map[string]int, len(cities)),
		byNorm:     make(map[string]int, len(cities)),
		byNormCity: make(map[string]int, len(cities)),
		airports:   make(map[string]model.Airport, len(airports)),
	}
	for i, c := range cities {
		city := c.City
		if city == "" {
			city, _ = splitLast(c.Name)
		}
		code := c.CountryCode
		if code == "" {
			_, code = splitLast(c.Name)
		}
		idx.candidates[i] = candidate{
			city:        normKey(city),
			code:        strings.ToLower(code),
			countryName: normKey(c.CountryName),
		}
		putFirst(idx.byName, c.Name, i)
		putFirst(idx.byCity, city, i)
		putFirst(idx.byNorm, normKey(c.Name), i)
		putFirst(idx.byNormCity, normKey(city), i)
	}
	for _, a := range airports {
		idx.airports[a.Code] = a
	}
	idx.airportList = append(idx.airportList, airports...)
	sort.Slice(idx.airportList, func(i, j int) bool { return idx.airportList[i].Code < idx.airportList[j].Code })
	return idx
}

func putFirst(m map[string]int, key string, i int) {
	if key == "" {
		return
	}
	if _, taken := m[key]; !taken {
		m[key] = i
	}
}

func (idx *index) found(input string, i int, similarity float64, method model.MatchMethod) model.LocationMatch {
	c := idx.cities[i]
	return model.LocationMatch{Input: input, Name: c.Name, Coordinates: c.Coordinates, Similarity: similarity, Method: method}
}

// exact tries the canonical name and the bare city, case-sensitive first.
func (idx *index) exact(trimmed string) (int, bool) {
	if i, ok := idx.byName[trimmed]; ok {
		return i, true
	}
	if i, ok := idx.byCity[trimmed]; ok {
		return i, true
	}
	key := normKey(trimmed)
	if i, ok := idx.byNorm[key]; ok {
		return i, true
	}
	if i, ok := idx.byNormCity[key]; ok {
		return i, true
	}
	return 0, false
}

// alias rewrites the country fragments of key, last fragment first, and retries exact lookup.
func (idx *index) alias(key string) (int, bool) {
	parts := strings.Split(key, ", ")
	if len(parts) < 2 {
		return 0, false
	}
	city := parts[0]
	for p := len(parts) - 1; p >= 1; p-- {
		for _, code := range countryCodes(parts[p]) {
			if i, ok := idx.byNorm[city+", "+strings.ToLower(code)]; ok {
				return i, true
			}
		}
	}
	return 0, false
}

// fuzzy scores every city in table order and returns the first maximum.
func (idx *index) fuzzy(key string) (int, float64) {
	qCity, qCountry := splitLast(key)
	qCode := qCountry
	if codes := countryCodes(qCountry); len(codes) > 0 {
		qCode = strings.ToLower(codes[0])
	}

	best, bestScore := -1, -1.0
	for i, c := range idx.candidates {
		score := Similarity(qCity, c.city)
		if qCountry != "" && (c.code != "" || c.countryName != "") {
			countrySim := Similarity(qCode, c.code)
			if c.countryName != "" {
				countrySim = max(countrySim, Similarity(qCountry, c.countryName))
			}
			score = cityWeight*score + countryWeight*countrySim
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return -1, 0
	}
	return best, bestScore
}
