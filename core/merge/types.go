package merge

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"geomancer/core/geo"
)

var (
	// ErrNoGeographiesMatched is returned when no row resolved to an
	// identifier in any adapter.
	ErrNoGeographiesMatched = errors.New("No geographies matched")

	// ErrNoDataColumns is returned when none of the requested columns can be
	// served by a constructed adapter.
	ErrNoDataColumns = errors.New("no data columns available")
)

// FieldSpec is the wire shape of one field definition:
// {"10;2": {"type": "city;state", "append_columns": ["total_pop"]}}.
type FieldSpec struct {
	Type          string   `json:"type"`
	AppendColumns []string `json:"append_columns"`
}

// FieldDefinition maps source column indexes to a geography combination and
// the data columns to append.
type FieldDefinition struct {
	// Columns holds one 0-based source column index per combination kind, in
	// raw order.
	Columns       []int
	Combination   *geo.Combination
	AppendColumns []string
}

// ParseFieldDefinitions parses the wire shape. Exactly one entry is
// accepted; the key lists ";"-separated column indexes.
func ParseFieldDefinitions(defs map[string]FieldSpec) (*FieldDefinition, error) {
	if len(defs) != 1 {
		keys := make([]string, 0, len(defs))
		for k := range defs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("exactly one geography field is required, got %d (%s)", len(defs), strings.Join(keys, ", "))
	}
	for key, spec := range defs {
		return ParseFieldDefinition(key, spec)
	}
	return nil, nil
}

// ParseFieldDefinition parses one column key and its FieldSpec.
func ParseFieldDefinition(key string, spec FieldSpec) (*FieldDefinition, error) {
	combination, err := geo.ParseCombination(spec.Type)
	if err != nil {
		return nil, err
	}

	var columns []int
	for _, part := range strings.Split(key, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx, err := strconv.Atoi(part)
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("invalid column index %q", part)
		}
		columns = append(columns, idx)
	}
	if len(columns) != len(combination.Kinds) {
		return nil, &geo.CombinationError{
			Key:     spec.Type,
			Message: fmt.Sprintf("geography %s needs %d column(s), got %d", spec.Type, len(combination.Kinds), len(columns)),
		}
	}

	var appendColumns []string
	for _, c := range spec.AppendColumns {
		if c = strings.TrimSpace(c); c != "" {
			appendColumns = append(appendColumns, c)
		}
	}
	if len(appendColumns) == 0 {
		return nil, errors.New("at least one data column must be selected")
	}

	return &FieldDefinition{Columns: columns, Combination: combination, AppendColumns: appendColumns}, nil
}

// Input is one merge job.
type Input struct {
	Header   []string
	Rows     [][]string
	Field    FieldDefinition
	Filename string
}

// Table is the merged result handed to the output writer. Original cells are
// strings; appended cells keep the type the adapter returned and blanks are
// "".
type Table struct {
	Header []string
	Rows   [][]any
}

// Width returns the header width.
func (t *Table) Width() int {
	return len(t.Header)
}

// Summary is the JSON-serializable outcome of a job.
//
// NumMatches counts rows that received data from at least one adapter's
// search. A row whose geography resolved to a geoid that no search returned
// counts toward NumMissing, as do blank and unresolved rows.
// NumMatches+NumMissing always equals NumRows.
type Summary struct {
	DownloadURL     string   `json:"download_url"`
	GeographyColumn string   `json:"geography_column_label"`
	NumRows         int      `json:"num_rows"`
	NumMatches      int      `json:"num_matches"`
	NumMissing      int      `json:"num_missing"`
	ColsAdded       []string `json:"cols_added"`
	Errors          []string `json:"errors"`
}
