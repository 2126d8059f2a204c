// Package censusreporter adapts the Census Reporter API (American Community
// Survey tables) to the mancer contract.
package censusreporter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"geomancer/core/geo"
	"geomancer/core/mancer"

	"go.uber.org/zap"
)

const (
	ID             = "census_reporter"
	Name           = "Census Reporter"
	DefaultBaseURL = "https://api.censusreporter.org/1.0"
	InfoURL        = "https://censusreporter.org"

	// batchSize is the most geoids /data/show accepts per request.
	batchSize = 100
)

// TableIDs lists the ACS tables offered.
var TableIDs = []string{
	"B01003", "B19013", "B19301", "B02001", "B01002",
	"B15002", "B25077", "B26001", "B11009", "B05006",
}

// sumlevs restricts /geo/search to the ACS summary levels of each kind.
var sumlevs = map[geo.Kind]string{
	geo.City:             "160,170,060",
	geo.State:            "040",
	geo.StateFIPS:        "040",
	geo.StateCountyFIPS:  "050",
	geo.Zip5:             "850,860",
	geo.Zip9:             "850,860",
	geo.County:           "050",
	geo.SchoolDistrict:   "950,960,970",
	geo.CongressDistrict: "500",
	geo.CensusTract:      "140",
	geo.CensusBlockGroup: "150",
	geo.CensusBlock:      "101",
}

// Entry registers the adapter.
func Entry() mancer.Entry {
	return mancer.Entry{ID: ID, Name: Name, TableIDs: TableIDs, New: New}
}

// Mancer talks to Census Reporter.
type Mancer struct {
	client  *http.Client
	baseURL string
	cache   *mancer.MetadataCache
	log     *zap.Logger
}

// New creates the adapter. No credential is needed.
func New(opts mancer.Options) (mancer.Mancer, error) {
	m := &Mancer{
		client:  opts.HTTPClient,
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		cache:   opts.Cache,
		log:     opts.Logger,
	}
	if m.client == nil {
		m.client = http.DefaultClient
	}
	if m.baseURL == "" {
		m.baseURL = DefaultBaseURL
	}
	if m.log == nil {
		m.log = zap.NewNop()
	}
	return m, nil
}

// ID implements mancer.Mancer.
func (m *Mancer) ID() string { return ID }

// BatchSize implements mancer.Batcher.
func (m *Mancer) BatchSize() int { return batchSize }

type column struct {
	Name   string `json:"name"`
	Title  string `json:"column_title"`
	Indent *int   `json:"indent"`
}

type tableInfo struct {
	ID      string            `json:"table_id"`
	Title   string            `json:"table_title"`
	Columns map[string]column `json:"columns"`
}

// Metadata implements mancer.Mancer. Table titles and columns come from
// /table/{id}; each table is cached on its own.
func (m *Mancer) Metadata(ctx context.Context) (*mancer.Metadata, error) {
	kinds := make([]geo.Kind, 0, len(sumlevs))
	for k := range sumlevs {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	meta := &mancer.Metadata{
		ID:          ID,
		Name:        Name,
		Description: "Demographic data from the American Community Survey.",
		URL:         InfoURL,
	}
	for _, id := range TableIDs {
		info, err := m.table(ctx, id)
		if err != nil {
			return nil, err
		}
		var cols []string
		_, names := detailColumns(info.Title, info.Columns)
		for _, name := range names {
			cols = append(cols, name, name+" (error margin)")
		}
		meta.Tables = append(meta.Tables, mancer.TableDescriptor{
			TableID:    id,
			HumanName:  info.Title,
			SourceName: Name,
			SourceURL:  fmt.Sprintf("%s/tables/%s/", InfoURL, id),
			GeoTypes:   kinds,
			Columns:    cols,
			Count:      len(cols),
		})
	}
	return meta, nil
}

func (m *Mancer) table(ctx context.Context, id string) (*tableInfo, error) {
	v, err := m.cache.GetOrLoad(ctx, ID+":table:"+id, func(ctx context.Context) (any, error) {
		var info tableInfo
		if err := mancer.GetJSON(ctx, m.client, ID, m.baseURL+"/table/"+url.PathEscape(id), &info); err != nil {
			return nil, err
		}
		return &info, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*tableInfo), nil
}

type searchResponse struct {
	Results []struct {
		FullGeoID string `json:"full_geoid"`
		FullName  string `json:"full_name"`
	} `json:"results"`
}

// GeoLookup implements mancer.Mancer. The first search hit wins.
func (m *Mancer) GeoLookup(ctx context.Context, term string, kind geo.Kind) (mancer.LookupResult, error) {
	q := mancer.StripPunctuation(term)
	params := url.Values{}
	if lvl, ok := sumlevs[kind]; ok {
		params.Set("sumlevs", lvl)
	}
	if kind == geo.Zip5 {
		q = mancer.ZeroPad(q, 5)
	}
	params.Set("q", q)

	var resp searchResponse
	if err := mancer.GetJSON(ctx, m.client, ID, m.baseURL+"/geo/search?"+params.Encode(), &resp); err != nil {
		return mancer.LookupResult{}, err
	}
	out := mancer.LookupResult{Term: q}
	if len(resp.Results) > 0 {
		out.GeoID = resp.Results[0].FullGeoID
	}
	return out, nil
}

type dataResponse struct {
	Tables map[string]struct {
		Title   string            `json:"title"`
		Columns map[string]column `json:"columns"`
	} `json:"tables"`
	Data map[string]map[string]struct {
		Estimate map[string]any `json:"estimate"`
		Error    map[string]any `json:"error"`
	} `json:"data"`
}

// Search implements mancer.Mancer. Every detail column yields an estimate
// and an error margin column. Geoids absent from the response are omitted.
func (m *Mancer) Search(ctx context.Context, ids []mancer.GeoID, tableIDs []string) (*mancer.SearchResult, error) {
	result := mancer.NewSearchResult()
	headerDone := false

	for start := 0; start < len(ids); start += batchSize {
		end := min(start+batchSize, len(ids))
		chunk := ids[start:end]

		geoIDs := make([]string, len(chunk))
		for i, g := range chunk {
			geoIDs[i] = g.ID
		}
		params := url.Values{}
		params.Set("table_ids", strings.Join(tableIDs, ","))
		params.Set("geo_ids", strings.Join(geoIDs, ","))

		var resp dataResponse
		if err := mancer.GetJSON(ctx, m.client, ID, m.baseURL+"/data/show/latest?"+params.Encode(), &resp); err != nil {
			return nil, err
		}

		for _, tableID := range tableIDs {
			info, ok := resp.Tables[tableID]
			if !ok {
				return nil, &mancer.Error{Mancer: ID, Message: fmt.Sprintf("table %s missing from response", tableID)}
			}
			if headerDone {
				continue
			}
			_, names := detailColumns(info.Title, info.Columns)
			for _, name := range names {
				result.Header = append(result.Header, name, name+" (error margin)")
			}
		}
		headerDone = true

		for _, geoID := range geoIDs {
			tables, ok := resp.Data[geoID]
			if !ok {
				m.log.Debug("Geoid missing from response", zap.String("geoid", geoID))
				continue
			}
			var row []any
			for _, tableID := range tableIDs {
				values := tables[tableID]
				for _, detail := range detailIDs(resp.Tables[tableID].Columns) {
					row = append(row, values.Estimate[detail], values.Error[detail])
				}
			}
			result.Rows[geoID] = row
		}
	}
	return result, nil
}

// label is the display name of a column. /data/show carries name, /table
// carries column_title.
func (c column) label() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Title
}

// detailColumns returns the detail column ids and their header names. A
// label shared by several details is prefixed with its nearest parent
// ("Female: No schooling completed"), and the column id is appended if that
// is still ambiguous. Every detail gets a name.
func detailColumns(tableTitle string, cols map[string]column) ([]string, []string) {
	all := make([]string, 0, len(cols))
	for id := range cols {
		all = append(all, id)
	}
	sort.Strings(all)

	counts := make(map[string]int)
	for _, id := range all {
		if cols[id].Indent != nil {
			counts[cols[id].label()]++
		}
	}

	var ids, names []string
	used := make(map[string]struct{})
	for i, id := range all {
		c := cols[id]
		if c.Indent == nil {
			continue
		}
		label := c.label()
		if counts[label] > 1 {
			if parent := parentLabel(cols, all[:i], *c.Indent); parent != "" {
				label = parent + ": " + label
			}
		}
		name := tableTitle + ", " + label
		if _, dup := used[name]; dup {
			name += " (" + id + ")"
		}
		used[name] = struct{}{}
		ids = append(ids, id)
		names = append(names, name)
	}
	return ids, names
}

// parentLabel walks back from a column to the nearest one with a smaller
// indent.
func parentLabel(cols map[string]column, before []string, indent int) string {
	for i := len(before) - 1; i >= 0; i-- {
		c := cols[before[i]]
		if c.Indent != nil && *c.Indent < indent {
			return strings.TrimSuffix(strings.TrimSpace(c.label()), ":")
		}
	}
	return ""
}

// detailIDs returns the ids of indented columns in column id order.
func detailIDs(cols map[string]column) []string {
	var out []string
	for id, c := range cols {
		if c.Indent != nil {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
