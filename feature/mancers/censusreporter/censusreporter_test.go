package censusreporter

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"geomancer/core/geo"
	"geomancer/core/mancer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const showResponse = `{
  "tables": {
    "B01003": {
      "title": "Total Population",
      "columns": {"B01003001": {"name": "Total", "indent": 0}}
    },
    "B01002": {
      "title": "Median Age by Sex",
      "columns": {
        "B01002001": {"name": "Median age", "indent": 0},
        "B01002002": {"name": "Male", "indent": 1},
        "B01002000": {"name": "Header", "indent": null}
      }
    }
  },
  "data": {
    "16000US1714000": {
      "B01003": {"estimate": {"B01003001": 2712608}, "error": {"B01003001": 0}},
      "B01002": {"estimate": {"B01002001": 34.2, "B01002002": 33.1}, "error": {"B01002001": 0.1, "B01002002": 0.2}}
    }
  }
}`

func newTestMancer(t *testing.T, h http.HandlerFunc) *Mancer {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	m, err := New(mancer.Options{BaseURL: srv.URL, Cache: mancer.NewMetadataCache(time.Minute)})
	require.NoError(t, err)
	return m.(*Mancer)
}

func TestGeoLookup(t *testing.T) {
	m := newTestMancer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geo/search", r.URL.Path)
		switch r.URL.Query().Get("q") {
		case "Chicago IL":
			assert.Equal(t, "160,170,060", r.URL.Query().Get("sumlevs"))
			fmt.Fprint(w, `{"results": [{"full_geoid": "16000US1714000", "full_name": "Chicago, IL"}, {"full_geoid": "other"}]}`)
		case "00501":
			fmt.Fprint(w, `{"results": [{"full_geoid": "86000US00501"}]}`)
		default:
			fmt.Fprint(w, `{"results": []}`)
		}
	})
	ctx := context.Background()

	res, err := m.GeoLookup(ctx, "Chicago, IL", geo.City)
	require.NoError(t, err)
	assert.Equal(t, mancer.LookupResult{Term: "Chicago IL", GeoID: "16000US1714000"}, res)

	res, err = m.GeoLookup(ctx, "501", geo.Zip5)
	require.NoError(t, err)
	assert.Equal(t, "86000US00501", res.GeoID)

	res, err = m.GeoLookup(ctx, "Atlantis", geo.City)
	require.NoError(t, err)
	assert.False(t, res.Matched())
}

func TestGeoLookup_APIError(t *testing.T) {
	m := newTestMancer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": "bad sumlevs"}`)
	})

	_, err := m.GeoLookup(context.Background(), "Chicago", geo.City)
	require.ErrorIs(t, err, mancer.ErrMancer)
	var merr *mancer.Error
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, http.StatusBadRequest, merr.StatusCode)
	assert.Contains(t, merr.Body, "bad sumlevs")
}

func TestSearch(t *testing.T) {
	m := newTestMancer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/show/latest", r.URL.Path)
		assert.Equal(t, "B01003,B01002", r.URL.Query().Get("table_ids"))
		assert.Equal(t, "16000US1714000,16000US0000000", r.URL.Query().Get("geo_ids"))
		fmt.Fprint(w, showResponse)
	})

	res, err := m.Search(context.Background(), []mancer.GeoID{
		{Kind: geo.City, ID: "16000US1714000"},
		{Kind: geo.City, ID: "16000US0000000"},
	}, []string{"B01003", "B01002"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Total Population, Total",
		"Total Population, Total (error margin)",
		"Median Age by Sex, Median age",
		"Median Age by Sex, Median age (error margin)",
		"Median Age by Sex, Male",
		"Median Age by Sex, Male (error margin)",
	}, res.Header)
	assert.Equal(t, []any{2712608.0, 0.0, 34.2, 0.1, 33.1, 0.2}, res.Rows["16000US1714000"])
	assert.NotContains(t, res.Rows, "16000US0000000")
}

func TestSearch_DuplicateDetailNames(t *testing.T) {
	m := newTestMancer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
  "tables": {
    "B15002": {
      "title": "Educational Attainment",
      "columns": {
        "B15002001": {"name": "Total:", "indent": 0},
        "B15002002": {"name": "Male:", "indent": 1},
        "B15002003": {"name": "No schooling completed", "indent": 2},
        "B15002019": {"name": "Female:", "indent": 1},
        "B15002020": {"name": "No schooling completed", "indent": 2}
      }
    }
  },
  "data": {
    "04000US17": {"B15002": {
      "estimate": {"B15002001": 300, "B15002002": 100, "B15002003": 10, "B15002019": 200, "B15002020": 20},
      "error": {"B15002001": 3, "B15002002": 1, "B15002003": 0.1, "B15002019": 2, "B15002020": 0.2}
    }}
  }
}`)
	})

	res, err := m.Search(context.Background(), []mancer.GeoID{{Kind: geo.State, ID: "04000US17"}}, []string{"B15002"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Educational Attainment, Total:",
		"Educational Attainment, Total: (error margin)",
		"Educational Attainment, Male:",
		"Educational Attainment, Male: (error margin)",
		"Educational Attainment, Male: No schooling completed",
		"Educational Attainment, Male: No schooling completed (error margin)",
		"Educational Attainment, Female:",
		"Educational Attainment, Female: (error margin)",
		"Educational Attainment, Female: No schooling completed",
		"Educational Attainment, Female: No schooling completed (error margin)",
	}, res.Header)
	row := res.Rows["04000US17"]
	require.Len(t, row, len(res.Header))
	assert.Equal(t, 20.0, row[8])
	assert.Equal(t, 0.2, row[9])
}

func TestDetailColumns_MetadataMatchesSearch(t *testing.T) {
	zero, one := 0, 1
	fromTable := map[string]column{
		"X001": {Title: "Total", Indent: &zero},
		"X002": {Title: "Under 5", Indent: &one},
		"X003": {Title: "Under 5", Indent: &one},
	}
	fromData := map[string]column{
		"X001": {Name: "Total", Indent: &zero},
		"X002": {Name: "Under 5", Indent: &one},
		"X003": {Name: "Under 5", Indent: &one},
	}

	ids, names := detailColumns("Age", fromTable)
	_, searchNames := detailColumns("Age", fromData)
	assert.Equal(t, []string{"X001", "X002", "X003"}, ids)
	assert.Equal(t, []string{"Age, Total", "Age, Total: Under 5", "Age, Total: Under 5 (X003)"}, names)
	assert.Equal(t, names, searchNames)
}

func TestSearch_Chunks(t *testing.T) {
	var calls atomic.Int32
	m := newTestMancer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		ids := strings.Split(r.URL.Query().Get("geo_ids"), ",")
		assert.LessOrEqual(t, len(ids), batchSize)
		fmt.Fprint(w, `{"tables": {"B01003": {"title": "Total Population", "columns": {"B01003001": {"name": "Total", "indent": 0}}}}, "data": {}}`)
	})

	ids := make([]mancer.GeoID, 250)
	for i := range ids {
		ids[i] = mancer.GeoID{Kind: geo.Zip5, ID: fmt.Sprintf("86000US%05d", i)}
	}
	res, err := m.Search(context.Background(), ids, []string{"B01003"})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Len(t, res.Header, 2)
	assert.Empty(t, res.Rows)
}

func TestMetadata_CachesTables(t *testing.T) {
	var calls atomic.Int32
	m := newTestMancer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		id := strings.TrimPrefix(r.URL.Path, "/table/")
		fmt.Fprintf(w, `{"table_id": %q, "table_title": "Title %s", "columns": {"%s001": {"column_title": "Total", "indent": 0}}}`, id, id, id)
	})
	ctx := context.Background()

	meta, err := m.Metadata(ctx)
	require.NoError(t, err)
	require.Len(t, meta.Tables, len(TableIDs))
	first := meta.Tables[0]
	assert.Equal(t, "B01003", first.TableID)
	assert.Equal(t, "Title B01003", first.HumanName)
	assert.Equal(t, []string{"Title B01003, Total", "Title B01003, Total (error margin)"}, first.Columns)
	assert.Equal(t, 2, first.Count)
	assert.True(t, first.Supports(geo.County))

	_, err = m.Metadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(len(TableIDs)), calls.Load())
}
