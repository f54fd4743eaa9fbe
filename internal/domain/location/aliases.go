package location

import "strings"

// countryAliases maps lower-cased country spellings, informal names, and
// U.S. state codes and names to ISO 3166-1 alpha-2 codes.
var countryAliases = map[string]string{
	"uk":                       "GB",
	"u.k.":                     "GB",
	"united kingdom":           "GB",
	"great britain":            "GB",
	"britain":                  "GB",
	"england":                  "GB",
	"scotland":                 "GB",
	"wales":                    "GB",
	"korea":                    "KR",
	"south korea":              "KR",
	"republic of korea":        "KR",
	"usa":                      "US",
	"u.s.":                     "US",
	"u.s.a.":                   "US",
	"united states":            "US",
	"united states of america": "US",
	"america":                  "US",
	"uae":                      "AE",
	"united arab emirates":     "AE",
	"japan":                    "JP",
	"china":                    "CN",
	"prc":                      "CN",
	"hong kong":                "HK",
	"taiwan":                   "TW",
	"singapore":                "SG",
	"thailand":                 "TH",
	"vietnam":                  "VN",
	"viet nam":                 "VN",
	"indonesia":                "ID",
	"philippines":              "PH",
	"malaysia":                 "MY",
	"india":                    "IN",
	"australia":                "AU",
	"new zealand":              "NZ",
	"canada":                   "CA",
	"mexico":                   "MX",
	"brazil":                   "BR",
	"argentina":                "AR",
	"chile":                    "CL",
	"colombia":                 "CO",
	"germany":                  "DE",
	"deutschland":              "DE",
	"france":                   "FR",
	"spain":                    "ES",
	"españa":                   "ES",
	"portugal":                 "PT",
	"italy":                    "IT",
	"netherlands":              "NL",
	"the netherlands":          "NL",
	"holland":                  "NL",
	"belgium":                  "BE",
	"switzerland":              "CH",
	"austria":                  "AT",
	"czech republic":           "CZ",
	"czechia":                  "CZ",
	"poland":                   "PL",
	"denmark":                  "DK",
	"sweden":                   "SE",
	"norway":                   "NO",
	"finland":                  "FI",
	"ireland":                  "IE",
	"greece":                   "GR",
	"turkey":                   "TR",
	"türkiye":                  "TR",
	"israel":                   "IL",
	"egypt":                    "EG",
	"south africa":             "ZA",
	"nigeria":                  "NG",
	"kenya":                    "KE",
	"estonia":                  "EE",
	"serbia":                   "RS",
	"montenegro":               "ME",
}

// usStates holds two-letter codes and names of U.S. states and DC, all mapping to US.
var usStates = []string{
	"al", "alabama", "ak", "alaska", "az", "arizona", "ar", "arkansas",
	"ca", "california", "co", "colorado", "ct", "connecticut", "de", "delaware",
	"dc", "district of columbia", "fl", "florida", "ga", "georgia", "hi", "hawaii",
	"id", "idaho", "il", "illinois", "in", "indiana", "ia", "iowa",
	"ks", "kansas", "ky", "kentucky", "la", "louisiana", "me", "maine",
	"md", "maryland", "ma", "massachusetts", "mi", "michigan", "mn", "minnesota",
	"ms", "mississippi", "mo", "missouri", "mt", "montana", "ne", "nebraska",
	"nv", "nevada", "nh", "new hampshire", "nj", "new jersey", "nm", "new mexico",
	"ny", "new york", "nc", "north carolina", "nd", "north dakota", "oh", "ohio",
	"ok", "oklahoma", "or", "oregon", "pa", "pennsylvania", "ri", "rhode island",
	"sc", "south carolina", "sd", "south dakota", "tn", "tennessee", "tx", "texas",
	"ut", "utah", "vt", "vermont", "va", "virginia", "wa", "washington",
	"wv", "west virginia", "wi", "wisconsin", "wy", "wyoming",
}

func init() { //nolint:gochecknoinits // folds state names into the alias table once
	// Lookups are accent-folded, so the keys must be too.
	for k, code := range countryAliases {
		if f := fold(k); f != k {
			delete(countryAliases, k)
			countryAliases[f] = code
		}
	}
	for _, s := range usStates {
		if _, taken := countryAliases[s]; !taken {
			countryAliases[s] = "US"
		}
	}
}

// countryCodes rewrites a country fragment to candidate ISO codes: the alias
// target first, then the fragment itself when it is already two letters.
func countryCodes(fragment string) []string {
	f := fold(strings.ToLower(strings.TrimSpace(fragment)))
	var codes []string
	if code, ok := countryAliases[f]; ok {
		codes = append(codes, code)
	}
	if raw := strings.ToUpper(f); len(raw) == 2 && (len(codes) == 0 || codes[0] != raw) {
		codes = append(codes, raw)
	}
	return codes
}
