package geo

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/goccy/go-yaml"
)

var countyToken = regexp.MustCompile(`(?i)\bcounty\b`)

// Gazetteer holds the finite reference sets used by GazetteerMembership
// kinds. It is built once at startup and read-only afterwards.
type Gazetteer struct {
	sets map[Kind]map[string]struct{}
}

// NewGazetteer builds a gazetteer from raw reference values per kind.
func NewGazetteer(entries map[Kind][]string) *Gazetteer {
	g := &Gazetteer{sets: make(map[Kind]map[string]struct{}, len(entries))}
	for kind, values := range entries {
		set := make(map[string]struct{}, len(values))
		for _, v := range values {
			if n := NormalizeReference(kind, v); n != "" {
				set[n] = struct{}{}
			}
		}
		if len(set) > 0 {
			g.sets[kind] = set
		}
	}
	return g
}

// LoadGazetteerFile reads a YAML document mapping kind machine names to
// lists of reference values.
func LoadGazetteerFile(path string) (*Gazetteer, error) {
	entries, err := ReadGazetteerFile(path)
	if err != nil {
		return nil, err
	}
	return NewGazetteer(entries), nil
}

// ReadGazetteerFile returns the raw reference values of a gazetteer file.
func ReadGazetteerFile(path string) (map[Kind][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read gazetteer %s: %w", path, err)
	}
	raw := map[string][]string{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse gazetteer %s: %w", path, err)
	}
	entries := make(map[Kind][]string, len(raw))
	for k, v := range raw {
		kind := Kind(k)
		if _, ok := LookupType(kind); !ok {
			return nil, fmt.Errorf("gazetteer %s: unknown geography type %q", path, k)
		}
		entries[kind] = v
	}
	return entries, nil
}

// Loaded reports whether a reference set exists for the kind.
func (g *Gazetteer) Loaded(kind Kind) bool {
	if g == nil {
		return false
	}
	_, ok := g.sets[kind]
	return ok
}

// Contains reports whether value belongs to the reference set of kind.
func (g *Gazetteer) Contains(kind Kind, value string) bool {
	if g == nil {
		return false
	}
	set, ok := g.sets[kind]
	if !ok {
		return false
	}
	_, ok = set[NormalizeReference(kind, value)]
	return ok
}

// Size returns the number of reference values loaded for kind.
func (g *Gazetteer) Size(kind Kind) int {
	if g == nil {
		return 0
	}
	return len(g.sets[kind])
}

// NormalizeReference lower-cases a value, collapses whitespace and, for
// counties, drops the "county" token.
func NormalizeReference(kind Kind, value string) string {
	if kind == County {
		value = StripCountyToken(value)
	}
	return strings.Join(strings.Fields(strings.ToLower(value)), " ")
}

// StripCountyToken removes every case-insensitive "county" word.
func StripCountyToken(value string) string {
	return strings.Join(strings.Fields(countyToken.ReplaceAllString(value, " ")), " ")
}
