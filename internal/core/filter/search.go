package filter

import (
	"regexp"
	"strings"

	"github.com/samirrijal/crashlens/internal/core/domain"
)

type keywordRule struct {
	value    string
	keywords []string
}

// Rules are matched as substrings of the lower-cased query, first hit wins.
var (
	boroughRules = []keywordRule{
		{"Brooklyn", []string{"brooklyn", "bk", "bklyn", "kings"}},
		{"Queens", []string{"queens", "qn", "qns"}},
		{"Manhattan", []string{"manhattan", "mhtn", "nyc", "new york city", "man"}},
		{"Bronx", []string{"bronx", "bx"}},
		{"Staten Island", []string{"staten island", "staten", "si", "staten is", "richmond"}},
	}

	injuryRules = []keywordRule{
		{domain.InjuryInjured, []string{"injured", "injury", "injuries", "hurt"}},
		{domain.InjuryKilled, []string{"killed", "fatal", "fatality", "death", "dead"}},
		{domain.InjuryNone, []string{"no injury", "uninjured"}},
	}

	vehicleRules = []keywordRule{
		{"Station Wagon/Sport Utility Vehicle", []string{"station wagon", "sport utility", "suv"}},
		{"Pick-up Truck", []string{"pickup truck", "pickup"}},
		{"Sedan", []string{"sedan", "car"}},
		{"Van", []string{"van"}},
		{"Taxi", []string{"taxi"}},
		{"Motorcycle", []string{"motorcycle", "bike"}},
		{"Bus", []string{"bus"}},
		{"Truck", []string{"truck"}},
		{"Bicycle", []string{"bicycle"}},
		{"Pedestrian", []string{"pedestrian"}},
	}

	factorRules = []keywordRule{
		{"Unsafe Speed", []string{"unsafe speed", "speeding", "speed", "too fast"}},
		{"Failure To Yield Right-Of-Way", []string{"failure to yield", "yield", "right of way"}},
		{"Driver Inattention/Distraction", []string{"driver inattention", "inattention", "distraction", "distracted", "phone"}},
		{"Following Too Closely", []string{"following too closely", "tailgating", "tailgate"}},
		{"Backing Unsafely", []string{"backing unsafely", "backing", "reverse"}},
	}

	yearPattern = regexp.MustCompile(`20\d{2}`)
)

func firstMatch(text string, rules []keywordRule) string {
	for _, rule := range rules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.value
			}
		}
	}
	return ""
}

// ParseSearch turns a query such as "Brooklyn 2021 pedestrian crashes" into
// single-value filters. Search is left empty; unmatched words are ignored.
func ParseSearch(text string) domain.Filters {
	var f domain.Filters
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return f
	}

	if v := firstMatch(text, boroughRules); v != "" {
		f.Borough = domain.StringList{v}
	}
	if y := yearPattern.FindString(text); y != "" {
		f.Year = domain.StringList{y}
	}
	if v := firstMatch(text, injuryRules); v != "" {
		f.InjuryType = domain.StringList{v}
	}
	if v := firstMatch(text, vehicleRules); v != "" {
		f.VehicleType = domain.StringList{v}
	}
	if v := firstMatch(text, factorRules); v != "" {
		f.ContributingFactor = domain.StringList{v}
	}
	return f
}

// MergeSearch fills every filter the dropdowns leave empty from the parsed
// search query. The search text is kept so it also runs as a text match.
func MergeSearch(dropdown domain.Filters) domain.Filters {
	merged := dropdown
	merged.Search = strings.TrimSpace(dropdown.Search)
	if merged.Search == "" {
		return merged
	}

	parsed := ParseSearch(merged.Search)
	for _, key := range domain.FilterKeys {
		if len(dropdown.List(key)) > 0 {
			continue
		}
		if v := parsed.List(key); len(v) > 0 {
			merged.SetList(key, v)
		}
	}
	return merged
}
