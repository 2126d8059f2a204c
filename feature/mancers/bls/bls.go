// Package bls adapts the Bureau of Labor Statistics public API to the mancer
// contract: Occupational Employment Statistics wage percentiles and the
// Quarterly Census of Employment and Wages annual state summary.
package bls

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"geomancer/core/geo"
	"geomancer/core/mancer"
	"geomancer/core/utils"

	"go.uber.org/zap"
)

const (
	ID   = "bureau_labor_statistics"
	Name = "Bureau of Labor Statistics"

	DefaultAPIURL  = "https://api.bls.gov/publicAPI/v2/timeseries/data/"
	DefaultQCEWURL = "https://data.bls.gov/cew/data/api"

	oesYear  = "2014"
	qcewYear = "2013"

	// seriesPerRequest is the v2 API cap on series ids per query.
	seriesPerRequest = 50
)

// TableIDs lists the datasets offered.
var TableIDs = []string{"oes", "qcew"}

type series struct {
	code  string
	title string
}

var oesSeries = []series{
	{"12", oesYear + " Annual Wages - 25th Percentile"},
	{"13", oesYear + " Annual Wages - Median"},
	{"14", oesYear + " Annual Wages - 75th Percentile"},
}

var qcewColumns = []series{
	{"annual_avg_estabs_count", qcewYear + " Annual Average of 4 Quarterly Establishment Counts"},
	{"annual_avg_emplvl", qcewYear + " Annual Average of Monthly Employment Levels"},
	{"total_annual_wages", qcewYear + " Total Annual Wages (Sum of 4 quarterly total wage levels)"},
	{"taxable_annual_wages", qcewYear + " Taxable Annual Wages (Sum of the 4 quarterly taxable wage totals)"},
	{"annual_contributions", qcewYear + " Annual Contributions (Sum of the 4 quarterly contribution totals)"},
	{"annual_avg_wkly_wage", qcewYear + " Average Weekly Wage (based on the 12-monthly employment levels and total annual wage levels)"},
	{"avg_annual_pay", qcewYear + " Average Annual Pay (based on employment and wage levels)"},
}

// Entry registers the adapter. An API key is required.
func Entry() mancer.Entry {
	return mancer.Entry{ID: ID, Name: Name, KeyRequired: true, TableIDs: TableIDs, New: New}
}

// Mancer talks to the BLS API.
type Mancer struct {
	client  *http.Client
	apiKey  string
	apiURL  string
	qcewURL string
	states  *geo.StateDirectory
	log     *zap.Logger

	// oes holds series code -> state FIPS -> value, fetched once for all
	// states.
	oesMu sync.Mutex
	oes   map[string]map[string]string
}

// New creates the adapter. A BaseURL override serves both the timeseries API
// and the QCEW files.
func New(opts mancer.Options) (mancer.Mancer, error) {
	if opts.APIKey == "" {
		return nil, mancer.NewCredentialError(ID, Name)
	}
	m := &Mancer{
		client:  opts.HTTPClient,
		apiKey:  opts.APIKey,
		apiURL:  DefaultAPIURL,
		qcewURL: DefaultQCEWURL,
		states:  geo.States(),
		log:     opts.Logger,
	}
	if base := strings.TrimSuffix(opts.BaseURL, "/"); base != "" {
		m.apiURL = base + "/publicAPI/v2/timeseries/data/"
		m.qcewURL = base + "/cew/data/api"
	}
	if m.client == nil {
		m.client = http.DefaultClient
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
	kinds := []geo.Kind{geo.State, geo.StateFIPS}
	return &mancer.Metadata{
		ID:          ID,
		Name:        Name,
		Description: "Data from the Bureau of Labor Statistics",
		URL:         "https://www.bls.gov/",
		Tables: []mancer.TableDescriptor{
			{
				TableID:     "oes",
				HumanName:   "Occupational Employment Statistics",
				Description: "Occupational Employment Statistics",
				SourceName:  Name,
				SourceURL:   "https://www.bls.gov/oes/",
				GeoTypes:    kinds,
				Columns:     titles(oesSeries),
				Count:       len(oesSeries),
			},
			{
				TableID:     "qcew",
				HumanName:   "Quarterly Census of Employment & Wages",
				Description: "Quarterly Census of Employment & Wages",
				SourceName:  Name,
				SourceURL:   "https://www.bls.gov/cew/",
				GeoTypes:    kinds,
				Columns:     titles(qcewColumns),
				Count:       len(qcewColumns),
			},
		},
	}, nil
}

func titles(s []series) []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = c.title
	}
	return out
}

// GeoLookup implements mancer.Mancer. States resolve to their two-digit
// FIPS code; unknown states do not match.
func (m *Mancer) GeoLookup(_ context.Context, term string, kind geo.Kind) (mancer.LookupResult, error) {
	term = strings.TrimSpace(mancer.StripPunctuation(term))
	out := mancer.LookupResult{Term: term}
	switch kind {
	case geo.State, geo.StateFIPS:
		if st, ok := m.states.Lookup(term); ok {
			out.GeoID = st.FIPS
		}
	default:
		out.GeoID = term
	}
	return out, nil
}

// Search implements mancer.Mancer. Only state identifiers carry data.
func (m *Mancer) Search(ctx context.Context, ids []mancer.GeoID, tableIDs []string) (*mancer.SearchResult, error) {
	result := mancer.NewSearchResult()
	var states []string
	for _, g := range ids {
		if _, dup := result.Rows[g.ID]; dup {
			continue
		}
		if g.Kind == geo.State || g.Kind == geo.StateFIPS {
			states = append(states, g.ID)
			result.Rows[g.ID] = nil
		}
	}

	for _, tableID := range tableIDs {
		switch tableID {
		case "oes":
			data, err := m.loadOES(ctx)
			if err != nil {
				return nil, err
			}
			for _, s := range oesSeries {
				result.Header = append(result.Header, s.title)
				for _, fips := range states {
					var v any
					if raw, ok := data[s.code][fips]; ok {
						v = utils.ParseNumber(raw)
					}
					result.Rows[fips] = append(result.Rows[fips], v)
				}
			}
		case "qcew":
			result.Header = append(result.Header, titles(qcewColumns)...)
			for _, fips := range states {
				values, err := m.qcewSummary(ctx, fips)
				if err != nil {
					return nil, err
				}
				result.Rows[fips] = append(result.Rows[fips], values...)
			}
		default:
			return nil, &mancer.Error{Mancer: ID, Message: fmt.Sprintf("unknown table %q", tableID)}
		}
	}
	return result, nil
}

// seriesID builds an OES statewide, all industries, all occupations series
// id, e.g. OEUS170000000000000000013.
func seriesID(fips, code string) string {
	return "OEUS" + fips + "00000" + "000000" + "000000" + code
}

type timeseriesRequest struct {
	SeriesID        []string `json:"seriesid"`
	StartYear       string   `json:"startyear"`
	EndYear         string   `json:"endyear"`
	RegistrationKey string   `json:"registrationkey"`
}

type timeseriesResponse struct {
	Status  string   `json:"status"`
	Message []string `json:"message"`
	Results struct {
		Series []struct {
			SeriesID string `json:"seriesID"`
			Data     []struct {
				Year  string `json:"year"`
				Value string `json:"value"`
			} `json:"data"`
		} `json:"series"`
	} `json:"Results"`
}

// loadOES fetches every state's wage percentiles once per adapter. Failures
// are not remembered.
func (m *Mancer) loadOES(ctx context.Context) (map[string]map[string]string, error) {
	m.oesMu.Lock()
	defer m.oesMu.Unlock()
	if m.oes != nil {
		return m.oes, nil
	}

	var ids []string
	for _, st := range m.states.All() {
		if st.FIPS == "" {
			continue
		}
		for _, s := range oesSeries {
			ids = append(ids, seriesID(st.FIPS, s.code))
		}
	}

	data := make(map[string]map[string]string, len(oesSeries))
	for _, s := range oesSeries {
		data[s.code] = make(map[string]string)
	}
	for start := 0; start < len(ids); start += seriesPerRequest {
		resp, err := m.timeseries(ctx, ids[start:min(start+seriesPerRequest, len(ids))])
		if err != nil {
			return nil, err
		}
		for _, s := range resp.Results.Series {
			if len(s.SeriesID) < 6 || len(s.Data) == 0 {
				continue
			}
			code := s.SeriesID[len(s.SeriesID)-2:]
			if _, ok := data[code]; ok {
				data[code][s.SeriesID[4:6]] = s.Data[0].Value
			}
		}
	}
	m.oes = data
	m.log.Debug("OES data loaded", zap.Int("series", len(ids)))
	return data, nil
}

func (m *Mancer) timeseries(ctx context.Context, ids []string) (*timeseriesResponse, error) {
	body, err := json.Marshal(timeseriesRequest{SeriesID: ids, StartYear: oesYear, EndYear: oesYear, RegistrationKey: m.apiKey})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, mancer.NewError(ID, "invalid request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	raw, err := mancer.Fetch(ctx, m.client, ID, req)
	if err != nil {
		return nil, err
	}
	var resp timeseriesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &mancer.Error{Mancer: ID, Message: "invalid JSON response", Err: err}
	}
	if resp.Status != "REQUEST_SUCCEEDED" {
		return nil, &mancer.Error{Mancer: ID, Message: "BLS API returned an error", Body: strings.Join(resp.Message, "; ")}
	}
	return &resp, nil
}

// qcewSummary reads the all-industries, all-ownerships row of a state's
// annual area file.
func (m *Mancer) qcewSummary(ctx context.Context, fips string) ([]any, error) {
	endpoint := fmt.Sprintf("%s/%s/a/area/%s000.csv", m.qcewURL, qcewYear, fips)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, mancer.NewError(ID, "invalid request", err)
	}
	raw, err := mancer.Fetch(ctx, m.client, ID, req)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(raw))
	header, err := r.Read()
	if err != nil {
		return nil, &mancer.Error{Mancer: ID, Message: "invalid QCEW file", Err: err}
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	industry, okI := index["industry_code"]
	own, okO := index["own_code"]
	if !okI || !okO {
		return nil, &mancer.Error{Mancer: ID, Message: "QCEW file lacks industry_code or own_code"}
	}

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &mancer.Error{Mancer: ID, Message: "invalid QCEW file", Err: err}
		}
		if strings.Trim(rec[industry], `" `) != "10" || strings.Trim(rec[own], `" `) != "0" {
			continue
		}
		out := make([]any, len(qcewColumns))
		for i, c := range qcewColumns {
			if j, ok := index[c.code]; ok && j < len(rec) {
				out[i] = utils.ParseNumber(rec[j])
			}
		}
		return out, nil
	}
	return make([]any, len(qcewColumns)), nil
}
