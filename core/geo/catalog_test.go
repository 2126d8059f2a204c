package geo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Validate(t *testing.T) {
	gaz := NewGazetteer(map[Kind][]string{
		County:         {"Cook County", "Lake", "DuPage County"},
		SchoolDistrict: {"City of Chicago School District 299"},
	})
	catalog := NewCatalog(gaz, nil)

	tests := []struct {
		name    string
		kind    Kind
		values  []string
		wantOK  bool
		wantMsg string
	}{
		{name: "zip5 valid", kind: Zip5, values: []string{"60601", "10001"}, wantOK: true},
		{name: "zip5 blanks ignored", kind: Zip5, values: []string{"", "  ", "60601"}, wantOK: true},
		{
			name:    "zip5 collects every failure",
			kind:    Zip5,
			values:  []string{"6060", "60601", "abcde", "6060"},
			wantMsg: "The following values are not valid 5-digit zip codes: 6060, abcde",
		},
		{name: "zip9 with dash", kind: Zip9, values: []string{"60601-1234", "606011234"}, wantOK: true},
		{name: "tract", kind: CensusTract, values: []string{"17031839100"}, wantOK: true},
		{name: "tract too short", kind: CensusTract, values: []string{"1703183910"}, wantMsg: "The following values are not valid census tract FIPS codes: 1703183910"},
		{name: "block group", kind: CensusBlockGroup, values: []string{"170318391001"}, wantOK: true},
		{name: "block", kind: CensusBlock, values: []string{"170318391001000"}, wantOK: true},
		{name: "congress phrase", kind: CongressDistrict, values: []string{"Congressional District 7, IL", "7", "at-large"}, wantOK: true},
		{name: "congress garbage", kind: CongressDistrict, values: []string{"District of Columbia"}, wantMsg: "The following values are not valid congressional districts: District of Columbia"},
		{name: "county ignores token and case", kind: County, values: []string{"cook", "LAKE COUNTY", "DuPage"}, wantOK: true},
		{name: "county unknown", kind: County, values: []string{"Cook", "Gotham County"}, wantMsg: "The following values are not valid counties: Gotham County"},
		{name: "school district", kind: SchoolDistrict, values: []string{"city of chicago school district 299"}, wantOK: true},
		{name: "state forms", kind: State, values: []string{"Illinois", "IL", "Ill.", "ill", "il"}, wantOK: true},
		{name: "state unknown", kind: State, values: []string{"Illinois", "Atlantis"}, wantMsg: "The following values are not valid states: Atlantis"},
		{name: "state fips", kind: StateFIPS, values: []string{"17", "6"}, wantOK: true},
		{name: "city has no validator", kind: City, values: []string{"anything at all"}, wantOK: true},
		{name: "state county fips fallback", kind: StateCountyFIPS, values: []string{"17031"}, wantOK: true},
		{name: "state county fips fallback rejects", kind: StateCountyFIPS, values: []string{"1703"}, wantMsg: "The following values are not valid state + county FIPS codes: 1703"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, msg := catalog.Validate(tt.kind, tt.values)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestCatalog_GazetteerKindWithoutSetPasses(t *testing.T) {
	catalog := NewCatalog(nil, nil)

	ok, msg := catalog.Validate(County, []string{"Nowhere County"})
	assert.True(t, ok)
	assert.Empty(t, msg)
}

func TestCatalog_ValidateValuesError(t *testing.T) {
	catalog := NewCatalog(nil, nil)

	err := catalog.ValidateValues(Zip5, []string{"x1", "60601", "x2"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidGeography))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, Zip5, verr.Kind)
	assert.Equal(t, []string{"x1", "x2"}, verr.Values)

	err = catalog.ValidateValues(Kind("planet"), []string{"Mars"})
	assert.ErrorIs(t, err, ErrInvalidGeography)
}

func TestTypes_SortedAndComplete(t *testing.T) {
	all := Types()
	require.Len(t, all, 12)
	for i := 1; i < len(all); i++ {
		assert.Less(t, string(all[i-1].Kind), string(all[i].Kind))
	}
	for _, typ := range all {
		assert.NotEmpty(t, typ.Name, typ.Kind)
		assert.NotEmpty(t, typ.Example, typ.Kind)
	}

	city, ok := LookupType(City)
	require.True(t, ok)
	assert.False(t, city.HasValidator())
}
