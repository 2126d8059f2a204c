package geo

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// MaxColumns is the largest number of source columns a geography may span.
const MaxColumns = 2

// ErrUnsupportedCombination is matched by every CombinationError.
var ErrUnsupportedCombination = errors.New("unsupported geography combination")

// CombinationError reports a type combination outside the allow-list.
type CombinationError struct {
	Key     string
	Message string
}

// Error implements the error interface.
func (e *CombinationError) Error() string {
	return e.Message
}

// Is implements errors.Is support. A CombinationError is also a validation
// failure.
func (e *CombinationError) Is(target error) bool {
	return target == ErrUnsupportedCombination || target == ErrInvalidGeography
}

// template describes how one allowed set of kinds is presented.
type template struct {
	resolves Kind
	format   string
}

// templates is keyed by the sorted, ";"-joined kinds of a combination.
var templates = map[string]template{
	"city;state":              {resolves: City, format: "{city}, {state}"},
	"county;state":            {resolves: County, format: "{county} County, {state}"},
	"congress_district;state": {resolves: CongressDistrict, format: "Congressional District {congress_district}, {state}"},
	"school_district;state":   {resolves: SchoolDistrict, format: "{school_district}, {state}"},
}

// Combination is an allowed, ordered list of one or two kinds plus the
// template that renders their values as one geography string.
type Combination struct {
	// Kinds lists the geography kind of each source column in raw order.
	Kinds []Kind
	// Resolves is the kind adapters receive for the formatted string.
	Resolves Kind
	format   string
}

// ParseCombination parses a ";"-separated list of kinds such as
// "county;state" and checks it against the allow-list.
func ParseCombination(key string) (*Combination, error) {
	var kinds []Kind
	for _, part := range strings.Split(key, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kind := Kind(part)
		if _, ok := LookupType(kind); !ok {
			return nil, &CombinationError{Key: key, Message: fmt.Sprintf("%q is not a supported geography type", part)}
		}
		kinds = append(kinds, kind)
	}
	return NewCombination(kinds...)
}

// NewCombination validates kinds against the allow-list.
func NewCombination(kinds ...Kind) (*Combination, error) {
	key := joinKinds(kinds)
	switch {
	case len(kinds) == 0:
		return nil, &CombinationError{Key: key, Message: "no geography type selected"}
	case len(kinds) > MaxColumns:
		return nil, &CombinationError{Key: key, Message: fmt.Sprintf("We can only merge geographic information from %d columns", MaxColumns)}
	case len(kinds) == 1:
		if _, ok := LookupType(kinds[0]); !ok {
			return nil, &CombinationError{Key: key, Message: fmt.Sprintf("%q is not a supported geography type", kinds[0])}
		}
		return &Combination{Kinds: kinds, Resolves: kinds[0], format: "{" + string(kinds[0]) + "}"}, nil
	}

	sorted := append([]Kind(nil), kinds...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	tpl, ok := templates[joinKinds(sorted)]
	if !ok {
		return nil, &CombinationError{
			Key:     key,
			Message: fmt.Sprintf("The geographic combination of %s and %s does not work", displayName(kinds[0]), displayName(kinds[1])),
		}
	}
	return &Combination{Kinds: append([]Kind(nil), kinds...), Resolves: tpl.resolves, format: tpl.format}, nil
}

// Key returns the raw-order ";"-joined machine names.
func (c *Combination) Key() string {
	return joinKinds(c.Kinds)
}

// Type returns the Type of the resolving kind.
func (c *Combination) Type() Type {
	t, _ := LookupType(c.Resolves)
	return t
}

// DisplayName is the label appended to added column headers.
func (c *Combination) DisplayName() string {
	return c.Type().Name
}

// Format renders the raw values of one row, given in raw column order. It
// returns "" when any component is blank; such rows are never looked up.
func (c *Combination) Format(values []string) string {
	if len(values) != len(c.Kinds) {
		return ""
	}
	out := c.format
	for i, kind := range c.Kinds {
		v := strings.TrimSpace(values[i])
		if kind == County {
			v = StripCountyToken(v)
		}
		if v == "" {
			return ""
		}
		out = strings.ReplaceAll(out, "{"+string(kind)+"}", v)
	}
	return strings.TrimSpace(out)
}

// Resolver binds a combination to the source column indexes of a table.
type Resolver struct {
	combination *Combination
	columns     []int
}

// NewResolver checks that one column index is given per kind.
func NewResolver(c *Combination, columns []int) (*Resolver, error) {
	if c == nil {
		return nil, &CombinationError{Message: "no geography type selected"}
	}
	if len(columns) != len(c.Kinds) {
		return nil, &CombinationError{
			Key:     c.Key(),
			Message: fmt.Sprintf("geography %s needs %d column(s), got %d", c.Key(), len(c.Kinds), len(columns)),
		}
	}
	for _, idx := range columns {
		if idx < 0 {
			return nil, &CombinationError{Key: c.Key(), Message: fmt.Sprintf("invalid column index %d", idx)}
		}
	}
	return &Resolver{combination: c, columns: append([]int(nil), columns...)}, nil
}

// Combination returns the bound combination.
func (r *Resolver) Combination() *Combination {
	return r.combination
}

// Columns returns the bound column indexes in raw order.
func (r *Resolver) Columns() []int {
	return append([]int(nil), r.columns...)
}

// Resolve formats the geography string of one row. Missing cells count as
// blank.
func (r *Resolver) Resolve(row []string) string {
	values := make([]string, len(r.columns))
	for i, idx := range r.columns {
		if idx < len(row) {
			values[i] = row[idx]
		}
	}
	return r.combination.Format(values)
}

// ColumnValues collects the raw values of the i-th bound column across rows.
func (r *Resolver) ColumnValues(i int, rows [][]string) []string {
	idx := r.columns[i]
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if idx < len(row) {
			out = append(out, row[idx])
		}
	}
	return out
}

func joinKinds(kinds []Kind) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, ";")
}

func displayName(kind Kind) string {
	if t, ok := LookupType(kind); ok {
		return t.Name
	}
	return string(kind)
}
