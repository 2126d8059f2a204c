package geo

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
)

//go:embed data/states.yaml
var statesYAML []byte

// StateInfo is one entry of the canonical state directory.
type StateInfo struct {
	Name string `yaml:"name" json:"name"`
	Abbr string `yaml:"abbr" json:"abbr"`
	FIPS string `yaml:"fips" json:"fips"`
	AP   string `yaml:"ap" json:"ap"`
}

// StateDirectory resolves free-text state references.
type StateDirectory struct {
	states []StateInfo
	index  map[string]int
}

// NewStateDirectory builds a directory from the given entries.
func NewStateDirectory(states []StateInfo) *StateDirectory {
	d := &StateDirectory{states: states, index: make(map[string]int, len(states)*5)}
	for i, s := range states {
		for _, key := range []string{s.Name, s.Abbr, s.FIPS, s.AP, stripDots(s.AP)} {
			if k := normalizeState(key); k != "" {
				d.index[k] = i
			}
		}
	}
	return d
}

// LoadStateDirectory parses the embedded state table.
func LoadStateDirectory() (*StateDirectory, error) {
	var states []StateInfo
	if err := yaml.Unmarshal(statesYAML, &states); err != nil {
		return nil, fmt.Errorf("failed to parse state directory: %w", err)
	}
	return NewStateDirectory(states), nil
}

var defaultStates *StateDirectory

func init() {
	d, err := LoadStateDirectory()
	if err != nil {
		panic(err)
	}
	defaultStates = d
}

// States returns the embedded state directory.
func States() *StateDirectory {
	return defaultStates
}

// Lookup resolves a state by name, postal abbreviation, AP abbreviation or
// FIPS code. Matching is case-insensitive.
func (d *StateDirectory) Lookup(term string) (StateInfo, bool) {
	k := normalizeState(term)
	if k == "" {
		return StateInfo{}, false
	}
	if len(k) == 1 && k[0] >= '0' && k[0] <= '9' {
		k = "0" + k
	}
	i, ok := d.index[k]
	if !ok {
		if i, ok = d.index[stripDots(k)]; !ok {
			return StateInfo{}, false
		}
	}
	return d.states[i], true
}

// All returns every state in directory order.
func (d *StateDirectory) All() []StateInfo {
	out := make([]StateInfo, len(d.states))
	copy(out, d.states)
	return out
}

func normalizeState(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func stripDots(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), " ", "")
}
