// Package cities maintains location intelligence: the built-in city
// profile table and AI-backed enrichment for cities outside it.
package cities

import (
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/homemetric/valuation-cli/internal/model"
)

// builtinCities holds the known Indian cities. Crime indexes are
// normalized NCRB figures on a 1-10 scale (higher = more crime); price
// multipliers are relative cost-of-living factors against the national
// baseline.
var builtinCities = []cityEntry{
	// Tier 1 metros
	{"Delhi", 7.8, 1.30},
	{"Mumbai", 6.5, 1.45},
	{"Bangalore", 4.2, 1.25},
	{"Chennai", 4.5, 1.10},
	{"Kolkata", 5.8, 1.00},
	{"Hyderabad", 4.0, 1.05},

	// Tier 2 major cities
	{"Pune", 3.5, 0.92},
	{"Ahmedabad", 5.2, 0.85},
	{"Jaipur", 5.5, 0.80},
	{"Lucknow", 6.0, 0.75},
	{"Surat", 3.8, 0.82},
	{"Kanpur", 6.5, 0.68},
	{"Nagpur", 4.8, 0.75},
	{"Indore", 4.0, 0.78},
	{"Thane", 5.0, 1.15},
	{"Bhopal", 5.5, 0.72},
	{"Visakhapatnam", 3.5, 0.76},
	{"Patna", 6.8, 0.65},
	{"Vadodara", 4.0, 0.78},
	{"Ghaziabad", 6.2, 0.88},
	{"Ludhiana", 5.0, 0.74},
	{"Agra", 5.8, 0.66},
	{"Nashik", 4.2, 0.76},
	{"Faridabad", 6.5, 0.85},
	{"Meerut", 6.0, 0.68},
	{"Rajkot", 3.5, 0.74},
	{"Varanasi", 5.5, 0.68},
	{"Srinagar", 7.0, 0.70},

	// Additional major cities
	{"Coimbatore", 3.2, 0.80},
	{"Chandigarh", 3.8, 0.95},
	{"Noida", 5.5, 0.98},
	{"Gurgaon", 5.8, 1.12},
	{"Kochi", 3.0, 0.88},
	{"Mangalore", 2.8, 0.78},
	{"Mysore", 3.5, 0.75},
	{"Trivandrum", 3.2, 0.78},
	{"Madurai", 4.0, 0.70},
	{"Jodhpur", 4.5, 0.70},
	{"Udaipur", 3.5, 0.74},
	{"Dehradun", 4.2, 0.78},
	{"Amritsar", 5.0, 0.72},
	{"Ranchi", 5.5, 0.68},
	{"Bhubaneswar", 4.0, 0.75},
	{"Guwahati", 4.8, 0.72},
	{"Raipur", 4.5, 0.68},
	{"Vijayawada", 4.2, 0.74},
	{"Tiruchirappalli", 3.8, 0.68},
	{"Salem", 4.0, 0.65},
	{"Guntur", 4.5, 0.66},
	{"Nellore", 4.0, 0.62},
	{"Tirupati", 3.2, 0.68},
	{"Shimla", 2.5, 0.82},
	{"Pondicherry", 3.0, 0.78},
	{"Goa", 3.5, 1.05},
	{"Jammu", 5.5, 0.70},
	{"Jalandhar", 4.8, 0.70},
	{"Belgaum", 4.0, 0.64},
	{"Hubli", 4.2, 0.66},
	{"Vellore", 3.5, 0.64},
	{"Aurangabad", 4.8, 0.70},
	{"Solapur", 4.5, 0.62},
	{"Aligarh", 5.5, 0.60},
	{"Bareilly", 5.2, 0.62},
	{"Moradabad", 5.8, 0.60},
	{"Gorakhpur", 5.5, 0.62},
	{"Allahabad", 5.5, 0.66},
	{"Jabalpur", 5.0, 0.64},
	{"Gwalior", 5.2, 0.64},
	{"Dhanbad", 5.8, 0.62},
	{"Jamshedpur", 4.5, 0.68},
	{"Bokaro", 5.0, 0.62},
	{"Asansol", 5.5, 0.62},
	{"Durgapur", 4.8, 0.64},
	{"Siliguri", 5.0, 0.66},
	{"Cuttack", 4.5, 0.66},
}

type cityEntry struct {
	name       string
	crimeIndex float64
	multiplier float64
}

// Table is an immutable lookup of city profiles keyed by canonical name.
type Table struct {
	profiles map[string]model.CityProfile
}

var titleCaser = cases.Title(language.English)

// Canonical normalizes a user-supplied city name to its table key.
func Canonical(name string) string {
	return titleCaser.String(strings.ToLower(strings.TrimSpace(name)))
}

// DefaultTable returns the built-in city table.
func DefaultTable() *Table {
	t := &Table{profiles: make(map[string]model.CityProfile, len(builtinCities))}
	for _, e := range builtinCities {
		t.profiles[e.name] = model.CityProfile{
			City:            e.name,
			CrimeIndex:      e.crimeIndex,
			SafetyScore:     10 - e.crimeIndex,
			PriceMultiplier: e.multiplier,
		}
	}
	return t
}

// tableFile is the YAML shape of an external city table.
type tableFile struct {
	Cities []struct {
		City            string  `yaml:"city"`
		CrimeIndex      float64 `yaml:"crime_index"`
		SafetyScore     float64 `yaml:"safety_score"`
		PriceMultiplier float64 `yaml:"price_multiplier"`
	} `yaml:"cities"`
}

// LoadTable reads a city table from a YAML file. Entries missing a
// safety score derive it as 10 minus the crime index; entries missing a
// price multiplier default to 1.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "cities: read table %s", path)
	}

	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrapf(err, "cities: parse table %s", path)
	}
	if len(file.Cities) == 0 {
		return nil, eris.Errorf("cities: table %s has no cities", path)
	}

	t := &Table{profiles: make(map[string]model.CityProfile, len(file.Cities))}
	for _, c := range file.Cities {
		if c.City == "" {
			return nil, eris.Errorf("cities: table %s has an unnamed city", path)
		}
		if c.CrimeIndex < 0 || c.CrimeIndex > 10 {
			return nil, eris.Errorf("cities: city %q crime index %.1f out of range [0, 10]", c.City, c.CrimeIndex)
		}
		name := Canonical(c.City)
		profile := model.CityProfile{
			City:            name,
			CrimeIndex:      c.CrimeIndex,
			SafetyScore:     c.SafetyScore,
			PriceMultiplier: c.PriceMultiplier,
		}
		if profile.SafetyScore == 0 {
			profile.SafetyScore = 10 - profile.CrimeIndex
		}
		if profile.PriceMultiplier == 0 {
			profile.PriceMultiplier = 1.0
		}
		t.profiles[name] = profile
	}
	return t, nil
}

// Lookup returns the profile for a city, canonicalizing the name first.
func (t *Table) Lookup(city string) (model.CityProfile, bool) {
	p, ok := t.profiles[Canonical(city)]
	return p, ok
}

// List returns all profiles sorted by city name.
func (t *Table) List() []model.CityProfile {
	out := make([]model.CityProfile, 0, len(t.profiles))
	for _, p := range t.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].City < out[j].City })
	return out
}

// Len returns the number of known cities.
func (t *Table) Len() int { return len(t.profiles) }
