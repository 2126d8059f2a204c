package usaspending

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"geomancer/core/geo"
	"geomancer/core/mancer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const summaryXML = `<?xml version="1.0"?>
<usaspendingSearchResults xmlns="http://www.usaspending.gov/schemas/">
  <data>
    <record>
      <totals>
        <total_obligatedAmount>1500.5</total_obligatedAmount>
        <number_of_transactions>3</number_of_transactions>
      </totals>
      <top_known_congressional_districts ranked_by="dollars">
        <congressional_district rank="1" total_obligatedAmount="900">IL07</congressional_district>
      </top_known_congressional_districts>
    </record>
  </data>
</usaspendingSearchResults>`

func newTestMancer(t *testing.T, h http.HandlerFunc) mancer.Mancer {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	m, err := New(mancer.Options{BaseURL: srv.URL})
	require.NoError(t, err)
	return m
}

func TestGeoLookup(t *testing.T) {
	m, err := New(mancer.Options{})
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		term string
		kind geo.Kind
		want string
	}{
		{"Illinois", geo.State, "IL"},
		{"Ill.", geo.State, "IL"},
		{"Narnia", geo.State, "Narnia"},
		{"IL 7", geo.CongressDistrict, "IL07"},
		{"Congressional District 12, New York", geo.CongressDistrict, "NY12"},
		{"Congressional District At-Large, WY", geo.CongressDistrict, "WY00"},
		{"501", geo.Zip5, "00501"},
		{"Chicago", geo.City, "Chicago"},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			res, err := m.GeoLookup(ctx, tt.term, tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.GeoID)
		})
	}
}

func TestSearch(t *testing.T) {
	m := newTestMancer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fpds/fpds.php", r.URL.Path)
		assert.Equal(t, "s", r.URL.Query().Get("detail"))
		switch r.URL.Query().Get("stateCode") {
		case "IL":
			fmt.Fprint(w, summaryXML)
		default:
			fmt.Fprint(w, `<usaspendingSearchResults><data><record/></data></usaspendingSearchResults>`)
		}
	})

	res, err := m.Search(context.Background(), []mancer.GeoID{
		{Kind: geo.State, ID: "IL"},
		{Kind: geo.State, ID: "WY"},
		{Kind: geo.City, ID: "Chicago"},
	}, []string{"fpds"})
	require.NoError(t, err)

	// two totals plus ten padded ranks, each with an amount
	require.Len(t, res.Header, 22)
	assert.Equal(t, "Top Known Congressional Districts Rank 01", res.Header[0])
	assert.Contains(t, res.Header, "Totals Total Obligatedamount")
	assert.Contains(t, res.Header, "Top Known Congressional Districts Rank 01 Total Obligatedamount")

	require.Contains(t, res.Rows, "IL")
	assert.NotContains(t, res.Rows, "WY")
	assert.NotContains(t, res.Rows, "Chicago")

	row := map[string]any{}
	for i, h := range res.Header {
		row[h] = res.Rows["IL"][i]
	}
	assert.Equal(t, "1500.5", row["Totals Total Obligatedamount"])
	assert.Equal(t, "IL07", row["Top Known Congressional Districts Rank 01"])
	assert.Equal(t, "900", row["Top Known Congressional Districts Rank 01 Total Obligatedamount"])
	assert.Nil(t, row["Top Known Congressional Districts Rank 02"])
}

func TestSearch_ServerError(t *testing.T) {
	m := newTestMancer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	})
	_, err := m.Search(context.Background(), []mancer.GeoID{{Kind: geo.State, ID: "IL"}}, []string{"faads"})
	assert.ErrorIs(t, err, mancer.ErrMancer)
	assert.ErrorContains(t, err, "message: maintenance")
}
