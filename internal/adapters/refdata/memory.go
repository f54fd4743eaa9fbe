package refdata

import (
	"context"
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/okian/stipend/internal/domain/model"
)

//go:embed seed.yaml
var seedYAML []byte

// Dataset is the document shape of a reference seed file.
type Dataset struct {
	Cities       []model.City              `yaml:"cities"`
	Airports     []model.Airport           `yaml:"airports"`
	CostOfLiving map[string]float64        `yaml:"cost_of_living"`
	TaxiRates    map[string]model.TaxiRate `yaml:"taxi_rates"`
	Conferences  []model.Conference        `yaml:"conferences"`
}

// ParseDataset decodes and checks a YAML seed document.
func ParseDataset(data []byte) (Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return Dataset{}, fmt.Errorf("%w: %w", ErrSeed, err)
	}
	seen := make(map[string]struct{}, len(ds.Cities))
	for _, c := range ds.Cities {
		if c.Name == "" {
			return Dataset{}, fmt.Errorf("%w: city without name", ErrSeed)
		}
		if _, dup := seen[c.Name]; dup {
			return Dataset{}, fmt.Errorf("%w: duplicate city %q", ErrSeed, c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	for _, a := range ds.Airports {
		if len(a.Code) != 3 {
			return Dataset{}, fmt.Errorf("%w: airport code %q", ErrSeed, a.Code)
		}
	}
	return ds, nil
}

// DefaultDataset returns the dataset compiled into the binary.
func DefaultDataset() Dataset {
	ds, err := ParseDataset(seedYAML)
	if err != nil {
		panic(err)
	}
	return ds
}

// MemoryStore is an in-process Store over a Dataset.
type MemoryStore struct {
	mu     sync.RWMutex
	ds     Dataset
	coords map[string]model.Coordinates
	closed bool
}

// NewMemoryStore builds a store over ds.
func NewMemoryStore(ds Dataset) *MemoryStore {
	coords := make(map[string]model.Coordinates, len(ds.Cities))
	for _, c := range ds.Cities {
		coords[c.Name] = c.Coordinates
	}
	if ds.CostOfLiving == nil {
		ds.CostOfLiving = map[string]float64{}
	}
	if ds.TaxiRates == nil {
		ds.TaxiRates = map[string]model.TaxiRate{}
	}
	return &MemoryStore{ds: ds, coords: coords}
}

// NewSeededStore builds a store over the embedded dataset.
func NewSeededStore() *MemoryStore { return NewMemoryStore(DefaultDataset()) }

func (s *MemoryStore) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Cities returns cities in dataset order.
func (s *MemoryStore) Cities(ctx context.Context) ([]model.City, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	return append([]model.City(nil), s.ds.Cities...), nil
}

// CityCoordinates looks up a city by canonical name.
func (s *MemoryStore) CityCoordinates(ctx context.Context, name string) (model.Coordinates, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return model.Unresolved, false, err
	}
	c, ok := s.coords[name]
	return c, ok, nil
}

// Airports returns airports in dataset order.
func (s *MemoryStore) Airports(ctx context.Context) ([]model.Airport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	return append([]model.Airport(nil), s.ds.Airports...), nil
}

// CostOfLiving returns the raw index for city.
func (s *MemoryStore) CostOfLiving(ctx context.Context, city string) (float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return 0, false, err
	}
	v, ok := s.ds.CostOfLiving[city]
	return v, ok, nil
}

// TaxiRates returns local transport pricing for city.
func (s *MemoryStore) TaxiRates(ctx context.Context, city string) (model.TaxiRate, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return model.TaxiRate{}, false, err
	}
	r, ok := s.ds.TaxiRates[city]
	return r, ok, nil
}

// Conferences returns conferences ordered by start date.
func (s *MemoryStore) Conferences(ctx context.Context) ([]model.Conference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	out := append([]model.Conference(nil), s.ds.Conferences...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// Close marks the store closed. Later calls fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
