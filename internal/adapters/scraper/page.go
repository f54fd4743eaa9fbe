package scraper

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"github.com/okian/stipend/internal/domain/flightprice"
)

var (
	priceRe          = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	prefixedDollarRe = regexp.MustCompile(`([A-Za-z]{1,3})\$`)
	currencyCodeRe   = regexp.MustCompile(`\b[A-Z]{3}\b`)
	currencyWordRe   = regexp.MustCompile(`(?i)\b(?:euros?|pounds?|yen|won|yuan|rupees?|francs?|pesos?|reais|lira|kronor|krone)\b`)
)

// foreignCodes are ISO 4217 codes that mark a price as not in U.S. dollars.
var foreignCodes = map[string]bool{
	"EUR": true, "GBP": true, "JPY": true, "KRW": true, "CNY": true, "INR": true,
	"CAD": true, "AUD": true, "NZD": true, "HKD": true, "SGD": true, "CHF": true,
	"MXN": true, "BRL": true, "TRY": true, "SEK": true, "NOK": true, "DKK": true,
	"PLN": true, "THB": true, "AED": true, "ZAR": true, "TWD": true, "ILS": true,
}

// InUSD reports whether price text carries no currency marker other than a
// plain or US-prefixed dollar sign. "C$ 120", "€99" and "1,250 KRW" are rejected.
func InUSD(text string) bool {
	for _, r := range text {
		if r != '$' && unicode.Is(unicode.Sc, r) {
			return false
		}
	}
	for _, m := range prefixedDollarRe.FindAllStringSubmatch(text, -1) {
		if !strings.EqualFold(m[1], "US") {
			return false
		}
	}
	for _, code := range currencyCodeRe.FindAllString(text, -1) {
		if foreignCodes[code] {
			return false
		}
	}
	return !currencyWordRe.MatchString(text)
}

// ParsePrice reads the first amount in text such as "$1,234" or "US$ 980.50".
func ParsePrice(text string) (float64, bool) {
	m := priceRe.FindString(text)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// ExtractFares parses fares out of rendered results HTML. Fares inside the top
// section are flagged Top. Unparseable entries and fares in another currency
// are skipped; a page whose only fares are foreign reports ErrCurrency.
func ExtractFares(html string, sel Selectors) ([]flightprice.Fare, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}

	var fares []flightprice.Fare
	foreign := 0
	doc.Find(sel.Fare).Each(func(_ int, s *goquery.Selection) {
		text := s.AttrOr("aria-label", "")
		if text == "" {
			text = s.Text()
		}
		if !InUSD(text) || !InUSD(s.Text()) {
			foreign++
			return
		}
		price, ok := ParsePrice(text)
		if !ok {
			return
		}
		top := sel.Top != "" && s.Closest(sel.Top).Length() > 0
		fares = append(fares, flightprice.Fare{Price: price, Top: top})
	})
	if len(fares) == 0 {
		if foreign > 0 {
			return nil, fmt.Errorf("%w: %d fares in another currency", ErrCurrency, foreign)
		}
		return nil, ErrNoResults
	}
	return fares, nil
}

// CheckCurrency confirms the page's currency marker shows code. A page without
// the marker fails; an empty Currency selector skips the check.
func CheckCurrency(html string, sel Selectors, code string) error {
	if sel.Currency == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("parse results page: %w", err)
	}
	marker := doc.Find(sel.Currency).First()
	if marker.Length() == 0 {
		return fmt.Errorf("%w: no currency marker on page", ErrCurrency)
	}
	shown := strings.TrimSpace(marker.AttrOr("data-currency", marker.Text()))
	if strings.Contains(strings.ToUpper(shown), strings.ToUpper(code)) {
		return nil
	}
	if strings.EqualFold(code, "USD") && strings.Contains(shown, "$") && InUSD(shown) {
		return nil
	}
	return fmt.Errorf("%w: page shows %q, want %s", ErrCurrency, shown, code)
}

// SearchURL fills a search URL template. The placeholders {origin},
// {destination}, {outbound} and {inbound} are replaced with escaped values.
func SearchURL(tmpl string, q flightprice.Query) (string, error) {
	r := strings.NewReplacer(
		"{origin}", url.QueryEscape(q.Origin),
		"{destination}", url.QueryEscape(q.Destination),
		"{outbound}", q.Outbound.Format(flightprice.DateLayout),
		"{inbound}", q.Inbound.Format(flightprice.DateLayout),
	)
	raw := r.Replace(tmpl)
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrSearchURL, tmpl)
	}
	return u.String(), nil
}

// withCurrency sets the curr query parameter on a results URL.
func withCurrency(raw, code string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	v := u.Query()
	v.Set("curr", code)
	u.RawQuery = v.Encode()
	return u.String(), nil
}
