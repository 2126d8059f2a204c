package mancer

import (
	"context"

	"geomancer/core/geo"
)

// TableDescriptor describes one table an adapter can append.
type TableDescriptor struct {
	TableID     string     `json:"table_id"`
	HumanName   string     `json:"human_name"`
	Description string     `json:"description"`
	SourceName  string     `json:"source_name"`
	SourceURL   string     `json:"source_url"`
	GeoTypes    []geo.Kind `json:"geo_types"`
	Columns     []string   `json:"columns"`
	Count       int        `json:"count"`
}

// Supports reports whether the table accepts the given geography kind.
func (t TableDescriptor) Supports(kind geo.Kind) bool {
	for _, k := range t.GeoTypes {
		if k == kind {
			return true
		}
	}
	return false
}

// Metadata is the self-description of one adapter.
type Metadata struct {
	ID          string            `json:"machine_name"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	URL         string            `json:"info_url"`
	Tables      []TableDescriptor `json:"data_types"`
}

// LookupResult is the outcome of one GeoLookup call. An empty GeoID means
// the term did not resolve.
type LookupResult struct {
	Term  string
	GeoID string
}

// Matched reports whether the lookup produced an identifier.
func (r LookupResult) Matched() bool {
	return r.GeoID != ""
}

// GeoID is one identifier handed to Search with the kind it resolved as.
type GeoID struct {
	Kind geo.Kind
	ID   string
}

// SearchResult holds the values returned by Search. Every slice in Rows is
// zippable with Header.
type SearchResult struct {
	Header []string
	Rows   map[string][]any
}

// NewSearchResult returns an empty result with the given header.
func NewSearchResult(header ...string) *SearchResult {
	return &SearchResult{Header: header, Rows: make(map[string][]any)}
}

// Mancer is a source adapter.
type Mancer interface {
	// ID returns the registry id (e.g. "census_reporter").
	ID() string

	// Metadata returns the adapter description and its tables.
	Metadata(ctx context.Context) (*Metadata, error)

	// GeoLookup resolves one formatted geography string.
	GeoLookup(ctx context.Context, term string, kind geo.Kind) (LookupResult, error)

	// Search fetches the values of tableIDs for every identifier.
	Search(ctx context.Context, ids []GeoID, tableIDs []string) (*SearchResult, error)
}

// Batcher is implemented by adapters that accept at most BatchSize
// identifiers per Search call.
type Batcher interface {
	BatchSize() int
}

// EchoLookup provides the default GeoLookup: the term is its own identifier.
type EchoLookup struct{}

// GeoLookup returns the trimmed term as the identifier.
func (EchoLookup) GeoLookup(_ context.Context, term string, _ geo.Kind) (LookupResult, error) {
	return LookupResult{Term: term, GeoID: term}, nil
}
