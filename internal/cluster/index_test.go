package cluster

import (
	"testing"

	"github.com/couchcryptid/school-map-service/internal/domain"
	"github.com/golang/geo/s2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cellCenter returns the center of the level-10 cell around (lat, lng), far
// enough from cell edges that points ~100m apart share the cell.
func cellCenter(lat, lng float64) (float64, float64) {
	ll := s2.CellIDFromLatLng(s2.LatLngFromDegrees(lat, lng)).Parent(10).LatLng()
	return ll.Lat.Degrees(), ll.Lng.Degrees()
}

func testMembers() []Member {
	lat, lng := cellCenter(59.91, 10.75)
	return []Member{
		{Key: "A|Oslo", Lat: lat, Lng: lng, Color: domain.Red},
		{Key: "B|Oslo", Lat: lat + 0.001, Lng: lng + 0.001, Color: domain.DarkGreen},
		{Key: "C|Bergen", Lat: 60.39, Lng: 5.32, Color: domain.Gray},
	}
}

func TestIndex_ClustersNearbyMarkers(t *testing.T) {
	ix := NewIndex(testMembers())
	assert.Equal(t, 3, ix.Len())

	groups := ix.Clusters(10, nil)
	require.Len(t, groups, 2)

	var pair, single Group
	for _, g := range groups {
		if g.Single() {
			single = g
		} else {
			pair = g
		}
	}
	assert.ElementsMatch(t, []string{"A|Oslo", "B|Oslo"}, pair.Keys)
	assert.Equal(t, domain.Orange, pair.Summary.Color)
	assert.Equal(t, 2, pair.Summary.Count)
	assert.Equal(t, []string{"C|Bergen"}, single.Keys)
	assert.Equal(t, domain.Gray, single.Summary.Color)
}

func TestIndex_ZoomZeroGroupsEverything(t *testing.T) {
	groups := NewIndex(testMembers()).Clusters(0, nil)
	require.Len(t, groups, 1)
	assert.Equal(t, 3, groups[0].Summary.Count)
}

func TestIndex_BoundsFilter(t *testing.T) {
	ix := NewIndex(testMembers())
	oslo := Bounds{South: 59, West: 10, North: 61, East: 12}

	groups := ix.Clusters(10, &oslo)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Keys, 2)
}

func TestIndex_ClustersAreDeterministic(t *testing.T) {
	ix := NewIndex(testMembers())
	assert.Equal(t, ix.Clusters(12, nil), ix.Clusters(12, nil))
}

func TestIndex_IsClusteredAndRevealZoom(t *testing.T) {
	ix := NewIndex(testMembers())

	assert.True(t, ix.IsClustered("A|Oslo", 10))
	assert.False(t, ix.IsClustered("A|Oslo", MaxZoom))
	assert.False(t, ix.IsClustered("C|Bergen", 10))
	assert.False(t, ix.IsClustered("missing", 10))

	z, spread := ix.RevealZoom("A|Oslo", 10)
	assert.False(t, spread)
	assert.Greater(t, z, 10)
	assert.LessOrEqual(t, z, MaxZoom)
	assert.False(t, ix.IsClustered("A|Oslo", z))
	assert.True(t, ix.IsClustered("A|Oslo", z-1))

	z, spread = ix.RevealZoom("C|Bergen", 10)
	assert.Equal(t, 10, z)
	assert.False(t, spread)
}

func TestIndex_IdenticalCoordinatesSpread(t *testing.T) {
	ix := NewIndex([]Member{
		{Key: "A|X", Lat: 63.43, Lng: 10.39},
		{Key: "B|X", Lat: 63.43, Lng: 10.39},
	})

	z, spread := ix.RevealZoom("A|X", 16)
	assert.True(t, spread)
	assert.Equal(t, MaxZoom, z)
}

func TestIndex_ZoomIsClamped(t *testing.T) {
	ix := NewIndex(testMembers())
	assert.Equal(t, ix.Clusters(MaxZoom, nil), ix.Clusters(MaxZoom+3, nil))
	assert.Equal(t, ix.Clusters(0, nil), ix.Clusters(-1, nil))
}

func TestParseBBox(t *testing.T) {
	b, err := ParseBBox("10.5, 59.8,10.9,60.0")
	require.NoError(t, err)
	assert.Equal(t, Bounds{West: 10.5, South: 59.8, East: 10.9, North: 60.0}, b)
	assert.True(t, b.Contains(59.9, 10.7))
	assert.False(t, b.Contains(60.1, 10.7))

	for _, bad := range []string{"", "1,2,3", "a,b,c,d", "10,61,11,60"} {
		_, err := ParseBBox(bad)
		assert.ErrorIs(t, err, ErrInvalidBounds, bad)
	}
}
