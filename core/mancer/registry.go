package mancer

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Options carries what a Factory needs to construct an adapter.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Cache      *MetadataCache
	Logger     *zap.Logger
}

// Factory constructs an adapter. It returns a *ConfigurationError when the
// adapter cannot run with the given options.
type Factory func(opts Options) (Mancer, error)

// Entry is one statically registered adapter.
type Entry struct {
	ID          string
	Name        string
	KeyRequired bool
	TableIDs    []string
	New         Factory
}

// Registry maps adapter ids to their constructors. Registration order is
// the roster order.
type Registry struct {
	entries []Entry
	byID    map[string]int
	tables  map[string]string
}

// NewRegistry creates a registry from entries.
func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{byID: make(map[string]int), tables: make(map[string]string)}
	for _, e := range entries {
		if err := r.Register(e); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds an entry. Ids and table ids must be unique.
func (r *Registry) Register(e Entry) error {
	if e.ID == "" || e.New == nil {
		return fmt.Errorf("mancer entry %q: id and factory are required", e.ID)
	}
	if _, dup := r.byID[e.ID]; dup {
		return fmt.Errorf("mancer %q already registered", e.ID)
	}
	for _, table := range e.TableIDs {
		if owner, dup := r.tables[table]; dup {
			return fmt.Errorf("table %q of mancer %q already owned by %q", table, e.ID, owner)
		}
	}
	r.byID[e.ID] = len(r.entries)
	r.entries = append(r.entries, e)
	for _, table := range e.TableIDs {
		r.tables[table] = e.ID
	}
	return nil
}

// Entries returns the registered entries in registration order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Lookup returns the entry registered under id.
func (r *Registry) Lookup(id string) (Entry, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Owner returns the adapter id owning a table id.
func (r *Registry) Owner(tableID string) (string, bool) {
	id, ok := r.tables[tableID]
	return id, ok
}

// Build constructs every registered adapter. opts is keyed by adapter id;
// missing keys get zero Options plus the shared defaults.
func (r *Registry) Build(opts map[string]Options, shared Options) *Roster {
	roster := &Roster{
		registry: r,
		mancers:  make(map[string]Mancer, len(r.entries)),
		failed:   make(map[string]*ConfigurationError),
	}
	for _, e := range r.entries {
		o := opts[e.ID]
		if o.HTTPClient == nil {
			o.HTTPClient = shared.HTTPClient
		}
		if o.Cache == nil {
			o.Cache = shared.Cache
		}
		if o.Logger == nil {
			o.Logger = shared.Logger
		}
		if o.Logger == nil {
			o.Logger = zap.NewNop()
		}
		if e.KeyRequired && o.APIKey == "" {
			roster.failed[e.ID] = NewCredentialError(e.ID, e.Name)
			continue
		}
		m, err := e.New(o)
		if err != nil {
			var cerr *ConfigurationError
			if !errors.As(err, &cerr) {
				cerr = &ConfigurationError{Mancer: e.ID, Message: "failed to construct", Err: err}
			}
			roster.failed[e.ID] = cerr
			continue
		}
		roster.mancers[e.ID] = m
	}
	return roster
}

// Roster is the set of adapters constructed for one job.
type Roster struct {
	registry *Registry
	mancers  map[string]Mancer
	failed   map[string]*ConfigurationError
}

// NewRoster builds a roster directly from constructed adapters, one entry
// each, owning the given tables. It is meant for tests and one-off tools.
func NewRoster(tables map[string][]string, mancers ...Mancer) (*Roster, error) {
	entries := make([]Entry, 0, len(mancers))
	for _, m := range mancers {
		m := m
		entries = append(entries, Entry{
			ID:       m.ID(),
			Name:     m.ID(),
			TableIDs: tables[m.ID()],
			New:      func(Options) (Mancer, error) { return m, nil },
		})
	}
	reg, err := NewRegistry(entries...)
	if err != nil {
		return nil, err
	}
	return reg.Build(nil, Options{}), nil
}

// Mancer returns the constructed adapter for id.
func (r *Roster) Mancer(id string) (Mancer, bool) {
	m, ok := r.mancers[id]
	return m, ok
}

// Mancers returns the constructed adapters in registration order.
func (r *Roster) Mancers() []Mancer {
	out := make([]Mancer, 0, len(r.mancers))
	for _, e := range r.registry.entries {
		if m, ok := r.mancers[e.ID]; ok {
			out = append(out, m)
		}
	}
	return out
}

// Failures returns the construction errors in registration order.
func (r *Roster) Failures() []*ConfigurationError {
	out := make([]*ConfigurationError, 0, len(r.failed))
	for _, e := range r.registry.entries {
		if f, ok := r.failed[e.ID]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Assignment is the set of table ids one constructed adapter must search.
type Assignment struct {
	Mancer   Mancer
	TableIDs []string
}

// Partition groups requested table ids by their owning adapter. Columns of
// adapters that failed to construct, and unknown columns, are returned as
// warnings. Assignments follow registration order; table ids keep request
// order and are deduplicated.
func (r *Roster) Partition(tableIDs []string) ([]Assignment, []string) {
	var warnings []string
	byMancer := make(map[string][]string)
	seen := make(map[string]struct{})
	warned := make(map[string]struct{})

	for _, table := range tableIDs {
		if _, dup := seen[table]; dup {
			continue
		}
		seen[table] = struct{}{}

		owner, ok := r.registry.Owner(table)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("Unknown data column %q was skipped", table))
			continue
		}
		if f, failed := r.failed[owner]; failed {
			if _, done := warned[owner]; !done {
				warnings = append(warnings, f.Error())
				warned[owner] = struct{}{}
			}
			continue
		}
		byMancer[owner] = append(byMancer[owner], table)
	}

	var out []Assignment
	for _, e := range r.registry.entries {
		if tables, ok := byMancer[e.ID]; ok {
			out = append(out, Assignment{Mancer: r.mancers[e.ID], TableIDs: tables})
		}
	}
	return out, warnings
}
