// Package bea adapts the Bureau of Economic Analysis regional data API to
// the mancer contract.
package bea

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"geomancer/core/geo"
	"geomancer/core/mancer"
	"geomancer/core/utils"

	"go.uber.org/zap"
)

const (
	ID             = "bureau_economic_analysis"
	Name           = "Bureau of Economic Analysis"
	DefaultBaseURL = "https://apps.bea.gov/api/data"

	dataYear = "2013"
)

type table struct {
	id          string
	humanName   string
	description string
	column      string
}

var tables = []table{
	{"GDP_SP", "Nominal GDP", "2013 Gross Domestic Product (GDP) (state annual product)", "2013 GDP (millions)"},
	{"RGDP_SP", "Real GDP", "2013 Real GDP (state annual product)", "2013 Real GDP (millions of chained 2009 dollars)"},
	{"PCRGDP_SP", "Real GDP - Per Capita", "2013 Per capita Real GDP (state annual product)", "2013 Per Capita Real GDP (chained 2009 dollars)"},
	{"TPI_SI", "Personal Income - Total", "2013 Total Personal Income (state annual income)", "2013 Total Personal Income (thousands of dollars)"},
	{"PCPI_SI", "Personal Income - Per Capita", "2013 Per Capita personal income (state annual income)", "2013 Per Capita Personal Income (dollars)"},
}

// TableIDs lists the regional key codes offered.
var TableIDs = func() []string {
	out := make([]string, len(tables))
	for i, t := range tables {
		out[i] = t.id
	}
	return out
}()

// Entry registers the adapter. An API key is required.
func Entry() mancer.Entry {
	return mancer.Entry{ID: ID, Name: Name, KeyRequired: true, TableIDs: TableIDs, New: New}
}

// Mancer talks to the BEA API.
type Mancer struct {
	client  *http.Client
	apiKey  string
	baseURL string
	states  *geo.StateDirectory
	log     *zap.Logger
}

// New creates the adapter.
func New(opts mancer.Options) (mancer.Mancer, error) {
	if opts.APIKey == "" {
		return nil, mancer.NewCredentialError(ID, Name)
	}
	m := &Mancer{
		client:  opts.HTTPClient,
		apiKey:  opts.APIKey,
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		states:  geo.States(),
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

// Metadata implements mancer.Mancer.
func (m *Mancer) Metadata(context.Context) (*mancer.Metadata, error) {
	out := &mancer.Metadata{
		ID:          ID,
		Name:        Name,
		Description: "GDP & Personal Income Data (2013) from the Bureau of Economic Analysis",
		URL:         "https://www.bea.gov",
	}
	for _, t := range tables {
		out.Tables = append(out.Tables, mancer.TableDescriptor{
			TableID:     t.id,
			HumanName:   t.humanName,
			Description: t.description,
			SourceName:  Name,
			SourceURL:   "https://www.bea.gov/data/by-place-states-territories",
			GeoTypes:    []geo.Kind{geo.State},
			Columns:     []string{t.column},
			Count:       1,
		})
	}
	return out, nil
}

// GeoLookup implements mancer.Mancer. States resolve to their full name,
// which is how BEA labels rows.
func (m *Mancer) GeoLookup(_ context.Context, term string, kind geo.Kind) (mancer.LookupResult, error) {
	term = strings.TrimSpace(mancer.StripPunctuation(term))
	out := mancer.LookupResult{Term: term, GeoID: term}
	if kind == geo.State {
		if st, ok := m.states.Lookup(term); ok {
			out.GeoID = st.Name
		}
	}
	return out, nil
}

type dataResponse struct {
	BEAAPI struct {
		Results struct {
			Data []struct {
				GeoFips   string `json:"GeoFips"`
				GeoName   string `json:"GeoName"`
				DataValue string `json:"DataValue"`
			} `json:"Data"`
			Error *struct {
				Code        string `json:"APIErrorCode"`
				Description string `json:"APIErrorDescription"`
			} `json:"Error"`
		} `json:"Results"`
	} `json:"BEAAPI"`
}

// Search implements mancer.Mancer. One request is made per key code; rows
// are matched by GeoName. Geoids absent from every table are omitted.
func (m *Mancer) Search(ctx context.Context, ids []mancer.GeoID, tableIDs []string) (*mancer.SearchResult, error) {
	byID := make(map[string]table, len(tables))
	for _, t := range tables {
		byID[t.id] = t
	}

	result := mancer.NewSearchResult()
	rows := make(map[string][]any)
	found := make(map[string]bool)
	for _, g := range ids {
		if g.Kind == geo.State {
			rows[g.ID] = make([]any, len(tableIDs))
		}
	}

	for i, tableID := range tableIDs {
		t, ok := byID[tableID]
		if !ok {
			return nil, &mancer.Error{Mancer: ID, Message: fmt.Sprintf("unknown table %q", tableID)}
		}
		result.Header = append(result.Header, t.column)

		values, err := m.fetch(ctx, tableID)
		if err != nil {
			return nil, err
		}
		for geoID, row := range rows {
			if v, ok := values[geoID]; ok {
				row[i] = utils.ParseNumber(v)
				found[geoID] = true
			}
		}
	}

	for geoID, row := range rows {
		if found[geoID] {
			result.Rows[geoID] = row
		}
	}
	return result, nil
}

// fetch returns GeoName -> DataValue for one key code.
func (m *Mancer) fetch(ctx context.Context, keyCode string) (map[string]string, error) {
	q := url.Values{}
	q.Set("UserID", m.apiKey)
	q.Set("method", "GetData")
	q.Set("datasetname", "RegionalData")
	q.Set("KeyCode", keyCode)
	q.Set("Year", dataYear)
	q.Set("ResultFormat", "json")

	var resp dataResponse
	if err := mancer.GetJSON(ctx, m.client, ID, m.baseURL+"/?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	if e := resp.BEAAPI.Results.Error; e != nil {
		return nil, &mancer.Error{Mancer: ID, Message: "BEA API returned an error", Body: e.Description}
	}

	out := make(map[string]string, len(resp.BEAAPI.Results.Data))
	for _, d := range resp.BEAAPI.Results.Data {
		out[d.GeoName] = d.DataValue
	}
	return out, nil
}
