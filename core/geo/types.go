package geo

import (
	"regexp"
	"sort"
)

// Kind is the machine name of a geography type.
type Kind string

const (
	City             Kind = "city"
	State            Kind = "state"
	StateFIPS        Kind = "state_fips"
	StateCountyFIPS  Kind = "state_county_fips"
	Zip5             Kind = "zip_5"
	Zip9             Kind = "zip_9"
	County           Kind = "county"
	SchoolDistrict   Kind = "school_district"
	CongressDistrict Kind = "congress_district"
	CensusTract      Kind = "census_tract"
	CensusBlockGroup Kind = "census_block_group"
	CensusBlock      Kind = "census_block"
)

// Strategy selects how the values of a Kind are checked locally.
type Strategy int

const (
	// NoValidation always passes.
	NoValidation Strategy = iota
	// PatternMatch requires a whole-string regular expression match.
	PatternMatch
	// GazetteerMembership requires membership in a loaded reference set.
	GazetteerMembership
	// DirectoryLookup requires resolution through the state directory.
	DirectoryLookup
)

// Type describes one geography kind. Values are immutable after init.
type Type struct {
	// Kind is the unique machine name.
	Kind Kind `json:"machine_name"`
	// Name is the short display name used to annotate added headers.
	Name string `json:"name"`
	// Description is the long human readable name.
	Description string `json:"human_name"`
	// Example shows how a value is expected to be formatted.
	Example string `json:"formatting_example"`
	// Noun is used in validation messages ("zip codes").
	Noun string `json:"-"`

	Validation Strategy       `json:"-"`
	Pattern    *regexp.Regexp `json:"-"`
	Fallback   *regexp.Regexp `json:"-"` // used for gazetteer kinds when no set is loaded
}

// HasValidator reports whether values of this type are checked locally.
func (t Type) HasValidator() bool {
	return t.Validation != NoValidation
}

var congressDistrictPattern = regexp.MustCompile(`(?i)^(congressional\s+district\s+)?(\d{1,2}|at[\s-]large)(\s*,\s*[a-z .]+)?$`)

var types = map[Kind]Type{
	City: {
		Kind:        City,
		Name:        "City",
		Description: "City or U.S. Census Place",
		Example:     "Chicago, IL",
		Noun:        "cities",
	},
	State: {
		Kind:        State,
		Name:        "State",
		Description: "U.S. State",
		Example:     "Illinois, IL or Ill.",
		Noun:        "states",
		Validation:  DirectoryLookup,
	},
	StateFIPS: {
		Kind:        StateFIPS,
		Name:        "State FIPS",
		Description: "U.S. State FIPS code",
		Example:     "17",
		Noun:        "state FIPS codes",
		Validation:  DirectoryLookup,
	},
	StateCountyFIPS: {
		Kind:        StateCountyFIPS,
		Name:        "State + County FIPS",
		Description: "U.S. State + County FIPS code",
		Example:     "17031",
		Noun:        "state + county FIPS codes",
		Validation:  GazetteerMembership,
		Fallback:    regexp.MustCompile(`^\d{5}$`),
	},
	Zip5: {
		Kind:        Zip5,
		Name:        "Zip Code",
		Description: "5-digit Zip Code",
		Example:     "60601",
		Noun:        "5-digit zip codes",
		Validation:  PatternMatch,
		Pattern:     regexp.MustCompile(`^\d{5}$`),
	},
	Zip9: {
		Kind:        Zip9,
		Name:        "Zip+4",
		Description: "9-digit Zip Code",
		Example:     "60601-1234",
		Noun:        "9-digit zip codes",
		Validation:  PatternMatch,
		Pattern:     regexp.MustCompile(`^\d{5}-?\d{4}$`),
	},
	County: {
		Kind:        County,
		Name:        "County",
		Description: "County",
		Example:     "Cook County",
		Noun:        "counties",
		Validation:  GazetteerMembership,
	},
	SchoolDistrict: {
		Kind:        SchoolDistrict,
		Name:        "School District",
		Description: "School District",
		Example:     "City of Chicago School District 299",
		Noun:        "school districts",
		Validation:  GazetteerMembership,
	},
	CongressDistrict: {
		Kind:        CongressDistrict,
		Name:        "Congressional District",
		Description: "U.S. Congressional District",
		Example:     "Congressional District 7, IL",
		Noun:        "congressional districts",
		Validation:  PatternMatch,
		Pattern:     congressDistrictPattern,
	},
	CensusTract: {
		Kind:        CensusTract,
		Name:        "Census Tract",
		Description: "U.S. Census Tract",
		Example:     "17031839100",
		Noun:        "census tract FIPS codes",
		Validation:  PatternMatch,
		Pattern:     regexp.MustCompile(`^\d{11}$`),
	},
	CensusBlockGroup: {
		Kind:        CensusBlockGroup,
		Name:        "Census Block Group",
		Description: "U.S. Census Block Group",
		Example:     "170318391001",
		Noun:        "census block group FIPS codes",
		Validation:  PatternMatch,
		Pattern:     regexp.MustCompile(`^\d{12}$`),
	},
	CensusBlock: {
		Kind:        CensusBlock,
		Name:        "Census Block",
		Description: "U.S. Census Block",
		Example:     "170318391001000",
		Noun:        "census block FIPS codes",
		Validation:  PatternMatch,
		Pattern:     regexp.MustCompile(`^\d{15}$`),
	},
}

// LookupType returns the Type registered for a machine name.
func LookupType(kind Kind) (Type, bool) {
	t, ok := types[kind]
	return t, ok
}

// Types returns every supported geography type sorted by machine name.
func Types() []Type {
	out := make([]Type, 0, len(types))
	for _, t := range types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}
