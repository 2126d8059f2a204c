// Package usaspending adapts the USASpending.gov award summaries (federal
// contracts, assistance and sub-awards) to the mancer contract.
package usaspending

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"geomancer/core/geo"
	"geomancer/core/mancer"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	ID             = "usa_spending"
	Name           = "USASpending.gov"
	DefaultBaseURL = "https://www.usaspending.gov"

	// rankDepth is the number of rank slots every ranked element is padded to.
	rankDepth = 10
)

// TableIDs lists the award summaries offered.
var TableIDs = []string{"fpds", "faads", "fsrs"}

// tableParams maps a table and geography kind to its query parameter.
var tableParams = map[string]map[geo.Kind]string{
	"fpds": {
		geo.State:            "stateCode",
		geo.Zip5:             "placeOfPerformanceZIPCode",
		geo.CongressDistrict: "pop_cd",
	},
	"faads": {
		geo.State:  "principal_place_state_code",
		geo.City:   "principal_place_cc",
		geo.County: "principal_place_cc",
	},
	"fsrs": {
		geo.State:            "subawardee_pop_state",
		geo.Zip5:             "subawardee_pop_zip",
		geo.CongressDistrict: "subawardee_pop_cd",
	},
}

var tables = []mancer.TableDescriptor{
	{TableID: "fpds", HumanName: "Federal Contracts", GeoTypes: []geo.Kind{geo.State, geo.Zip5, geo.CongressDistrict}},
	{TableID: "faads", HumanName: "Federal Assistance", GeoTypes: []geo.Kind{geo.State, geo.City, geo.County}},
	{TableID: "fsrs", HumanName: "Federal sub-awards", GeoTypes: []geo.Kind{geo.State, geo.Zip5, geo.CongressDistrict}},
}

// Entry registers the adapter.
func Entry() mancer.Entry {
	return mancer.Entry{ID: ID, Name: Name, TableIDs: TableIDs, New: New}
}

// Mancer talks to USASpending.gov.
type Mancer struct {
	client  *http.Client
	baseURL string
	states  *geo.StateDirectory
	log     *zap.Logger
}

// New creates the adapter. No credential is needed.
func New(opts mancer.Options) (mancer.Mancer, error) {
	m := &Mancer{
		client:  opts.HTTPClient,
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
		Description: "Data from the U.S. Office of Management and Budget on federal contracts awarded.",
		URL:         DefaultBaseURL,
	}
	for _, t := range tables {
		t.SourceName = Name
		t.SourceURL = DefaultBaseURL + "/data"
		t.Count = 1
		out.Tables = append(out.Tables, t)
	}
	return out, nil
}

var districtPhrase = regexp.MustCompile(`(?i)^congressional\s+district\s+(\d{1,2}|at[\s-]large)\s*,\s*(.+)$`)

// GeoLookup implements mancer.Mancer. States become postal abbreviations,
// districts become "IL07"; everything else is zero padded to five digits.
func (m *Mancer) GeoLookup(_ context.Context, term string, kind geo.Kind) (mancer.LookupResult, error) {
	term = strings.TrimSpace(term)
	out := mancer.LookupResult{Term: term}
	switch kind {
	case geo.State:
		out.GeoID = m.stateAbbr(term)
	case geo.CongressDistrict:
		out.GeoID = m.district(term)
	default:
		out.GeoID = mancer.ZeroPad(term, 5)
	}
	return out, nil
}

func (m *Mancer) stateAbbr(term string) string {
	if st, ok := m.states.Lookup(term); ok {
		return st.Abbr
	}
	return term
}

func (m *Mancer) district(term string) string {
	var state, number string
	if parts := districtPhrase.FindStringSubmatch(term); parts != nil {
		number, state = parts[1], parts[2]
	} else if fields := strings.Fields(strings.ReplaceAll(term, "-", " ")); len(fields) > 1 {
		state, number = strings.Join(fields[:len(fields)-1], " "), fields[len(fields)-1]
	} else {
		return term
	}
	if !isDigits(number) {
		number = "0"
	}
	return m.stateAbbr(state) + mancer.ZeroPad(number, 2)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// node is a generic XML element.
type node struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Text    string     `xml:",chardata"`
	Nodes   []node     `xml:",any"`
}

func (n node) child(local string) (node, bool) {
	for _, c := range n.Nodes {
		if c.XMLName.Local == local {
			return c, true
		}
	}
	return node{}, false
}

func (n node) attr(local string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// Search implements mancer.Mancer. One summary is fetched per geoid and
// table; ranked elements are flattened into "<table>_rank_NN_<attr>" keys,
// padded to ten ranks. Headers are the union of keys in sorted order.
func (m *Mancer) Search(ctx context.Context, ids []mancer.GeoID, tableIDs []string) (*mancer.SearchResult, error) {
	records := make(map[string]map[string]any, len(ids))
	keys := make(map[string]struct{})

	for _, g := range ids {
		record := make(map[string]any)
		for _, tableID := range tableIDs {
			param, ok := tableParams[tableID][g.Kind]
			if !ok {
				continue
			}
			q := url.Values{}
			q.Set(param, g.ID)
			q.Set("detail", "s")
			endpoint := fmt.Sprintf("%s/%s/%s.php?%s", m.baseURL, tableID, tableID, q.Encode())

			var root node
			if err := mancer.GetXML(ctx, m.client, ID, endpoint, &root); err != nil {
				return nil, err
			}
			flatten(root, record)
		}
		if len(record) == 0 {
			continue
		}
		for k := range record {
			keys[k] = struct{}{}
		}
		records[g.ID] = record
	}

	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	title := cases.Title(language.English)
	result := mancer.NewSearchResult()
	for _, k := range sorted {
		result.Header = append(result.Header, title.String(strings.ReplaceAll(k, "_", " ")))
	}
	for geoID, record := range records {
		row := make([]any, len(sorted))
		for i, k := range sorted {
			row[i] = record[k]
		}
		result.Rows[geoID] = row
	}
	return result, nil
}

// flatten copies data/record/* of one summary document into record.
func flatten(root node, record map[string]any) {
	data, ok := root.child("data")
	if !ok {
		return
	}
	rec, ok := data.child("record")
	if !ok {
		return
	}
	for _, t := range rec.Nodes {
		table := t.XMLName.Local
		if _, ranked := t.attr("ranked_by"); ranked {
			for i := 1; i <= rankDepth; i++ {
				rank := fmt.Sprintf("%s_rank_%02d", table, i)
				record[rank] = nil
				record[rank+"_total_obligatedAmount"] = nil
			}
		}
		for _, col := range t.Nodes {
			value := strings.TrimSpace(col.Text)
			if len(col.Attrs) == 0 {
				record[table+"_"+col.XMLName.Local] = value
				continue
			}
			rank, _ := col.attr("rank")
			for _, a := range col.Attrs {
				switch a.Name.Local {
				case "rank", "year":
					record[fmt.Sprintf("%s_%s_%s", table, a.Name.Local, mancer.ZeroPad(a.Value, 2))] = value
				case "total_obligatedAmount", "id", "name":
					record[fmt.Sprintf("%s_rank_%s_%s", table, mancer.ZeroPad(rank, 2), a.Name.Local)] = a.Value
				}
			}
		}
	}
}
