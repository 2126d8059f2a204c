package merge

import (
	"testing"

	"geomancer/core/mancer"

	"github.com/stretchr/testify/assert"
)

func TestResolutionCache(t *testing.T) {
	c := NewResolutionCache()

	_, ok := c.Lookup("a", "Chicago")
	assert.False(t, ok)

	c.Store("a", "Chicago", mancer.LookupResult{Term: "Chicago", GeoID: "G1"})
	c.Store("a", "Nowhere", mancer.LookupResult{Term: "Nowhere"})
	res, ok := c.Lookup("a", "Nowhere")
	assert.True(t, ok)
	assert.False(t, res.Matched())
	_, ok = c.Lookup("b", "Chicago")
	assert.False(t, ok)

	c.Assign("a", "G2", 3)
	c.Assign("a", "G1", 0)
	c.Assign("a", "G2", 5)
	c.Assign("b", "X", 0)

	assert.Equal(t, []string{"G2", "G1"}, c.GeoIDs("a"))
	assert.Equal(t, []int{3, 5}, c.Rows("a", "G2"))
	assert.Equal(t, 3, c.Resolved())

	id, ok := c.GeoIDForRow("a", 5)
	assert.True(t, ok)
	assert.Equal(t, "G2", id)
	_, ok = c.GeoIDForRow("b", 5)
	assert.False(t, ok)
	assert.Empty(t, c.GeoIDs("missing"))
}
