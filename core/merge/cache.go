package merge

import "geomancer/core/mancer"

type lookupKey struct {
	mancer string
	term   string
}

// ResolutionCache deduplicates geography lookups within one job. It maps
// (adapter, geography string) to the lookup outcome and, per adapter, each
// identifier to the rows that resolved to it. It is never shared between
// jobs.
type ResolutionCache struct {
	lookups map[lookupKey]mancer.LookupResult
	rows    map[string]map[string][]int
	order   map[string][]string
	rowIDs  map[string]map[int]string
}

// NewResolutionCache returns an empty cache.
func NewResolutionCache() *ResolutionCache {
	return &ResolutionCache{
		lookups: make(map[lookupKey]mancer.LookupResult),
		rows:    make(map[string]map[string][]int),
		order:   make(map[string][]string),
		rowIDs:  make(map[string]map[int]string),
	}
}

// Lookup returns a cached lookup outcome, matched or not.
func (c *ResolutionCache) Lookup(mancerID, term string) (mancer.LookupResult, bool) {
	res, ok := c.lookups[lookupKey{mancer: mancerID, term: term}]
	return res, ok
}

// Store records a lookup outcome.
func (c *ResolutionCache) Store(mancerID, term string, res mancer.LookupResult) {
	c.lookups[lookupKey{mancer: mancerID, term: term}] = res
}

// Assign records that row resolved to geoid for the adapter.
func (c *ResolutionCache) Assign(mancerID, geoid string, row int) {
	byID, ok := c.rows[mancerID]
	if !ok {
		byID = make(map[string][]int)
		c.rows[mancerID] = byID
		c.rowIDs[mancerID] = make(map[int]string)
	}
	if _, seen := byID[geoid]; !seen {
		c.order[mancerID] = append(c.order[mancerID], geoid)
	}
	byID[geoid] = append(byID[geoid], row)
	c.rowIDs[mancerID][row] = geoid
}

// GeoIDs returns the distinct identifiers of an adapter in first-seen order.
func (c *ResolutionCache) GeoIDs(mancerID string) []string {
	return append([]string(nil), c.order[mancerID]...)
}

// Rows returns the rows that resolved to geoid.
func (c *ResolutionCache) Rows(mancerID, geoid string) []int {
	return append([]int(nil), c.rows[mancerID][geoid]...)
}

// GeoIDForRow returns the identifier a row resolved to for an adapter.
func (c *ResolutionCache) GeoIDForRow(mancerID string, row int) (string, bool) {
	id, ok := c.rowIDs[mancerID][row]
	return id, ok
}

// Resolved returns the number of distinct identifiers across all adapters.
func (c *ResolutionCache) Resolved() int {
	n := 0
	for _, ids := range c.order {
		n += len(ids)
	}
	return n
}
