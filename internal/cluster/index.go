package cluster

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/couchcryptid/school-map-service/internal/domain"
	"github.com/golang/geo/s2"
)

// MaxZoom is the deepest zoom level at which markers are still grouped.
// Markers that share a cell at MaxZoom are spread out on click instead.
const MaxZoom = 18

// Member is one marker as seen by the index.
type Member struct {
	Key   string
	Lat   float64
	Lng   float64
	Color domain.Color
}

// Group is a cluster, or a single marker when it has one member.
type Group struct {
	Lat     float64  `json:"lat"`
	Lng     float64  `json:"lng"`
	Keys    []string `json:"keys"`
	Summary Summary  `json:"summary"`
}

// Single reports whether the group is a lone marker.
func (g Group) Single() bool {
	return len(g.Keys) == 1
}

// Index buckets markers into S2 cells whose level follows the zoom level,
// so one cell spans roughly one cluster radius on screen. It is built once
// and read-only afterwards.
type Index struct {
	members []Member
	cells   []s2.CellID // leaf cell per member
	byKey   map[string]int
	levels  [MaxZoom + 1]map[s2.CellID][]int
}

// NewIndex builds the per-zoom groupings for members.
func NewIndex(members []Member) *Index {
	ix := &Index{
		members: members,
		cells:   make([]s2.CellID, len(members)),
		byKey:   make(map[string]int, len(members)),
	}
	for i, m := range members {
		ix.cells[i] = s2.CellIDFromLatLng(s2.LatLngFromDegrees(m.Lat, m.Lng))
		ix.byKey[m.Key] = i
	}
	for z := 0; z <= MaxZoom; z++ {
		buckets := make(map[s2.CellID][]int)
		for i, leaf := range ix.cells {
			cell := leaf.Parent(cellLevel(z))
			buckets[cell] = append(buckets[cell], i)
		}
		ix.levels[z] = buckets
	}
	return ix
}

// Len returns the number of indexed markers.
func (ix *Index) Len() int {
	return len(ix.members)
}

// cellLevel maps a zoom level to the S2 level whose cells are roughly one
// 80px cluster radius wide at that zoom.
func cellLevel(zoom int) int {
	return clampZoom(zoom)
}

func clampZoom(zoom int) int {
	return max(0, min(zoom, MaxZoom))
}

// Clusters returns the groups at zoom whose centroid lies in bounds, or all
// groups when bounds is nil. Groups are ordered by cell so repeated calls
// return the same sequence.
func (ix *Index) Clusters(zoom int, bounds *Bounds) []Group {
	buckets := ix.levels[clampZoom(zoom)]
	cells := make([]s2.CellID, 0, len(buckets))
	for c := range buckets {
		cells = append(cells, c)
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i] < cells[j] })

	groups := make([]Group, 0, len(cells))
	for _, c := range cells {
		g := ix.group(buckets[c])
		if bounds != nil && !bounds.Contains(g.Lat, g.Lng) {
			continue
		}
		groups = append(groups, g)
	}
	return groups
}

func (ix *Index) group(idx []int) Group {
	g := Group{Keys: make([]string, len(idx))}
	colors := make([]domain.Color, len(idx))
	for i, mi := range idx {
		m := ix.members[mi]
		g.Keys[i] = m.Key
		g.Lat += m.Lat
		g.Lng += m.Lng
		colors[i] = m.Color
	}
	n := float64(len(idx))
	g.Lat /= n
	g.Lng /= n
	g.Summary = Aggregate(colors)
	return g
}

// IsClustered reports whether the marker is absorbed into a multi-member
// group at zoom. Unknown keys are never clustered.
func (ix *Index) IsClustered(key string, zoom int) bool {
	i, ok := ix.byKey[key]
	if !ok {
		return false
	}
	z := clampZoom(zoom)
	return len(ix.levels[z][ix.cells[i].Parent(cellLevel(z))]) > 1
}

// RevealZoom returns the smallest zoom at or above zoom where the marker is
// rendered on its own. When it still shares a cell at MaxZoom, RevealZoom
// returns MaxZoom and spread is true.
func (ix *Index) RevealZoom(key string, zoom int) (z int, spread bool) {
	for z = clampZoom(zoom); z <= MaxZoom; z++ {
		if !ix.IsClustered(key, z) {
			return z, false
		}
	}
	return MaxZoom, true
}

// Bounds is a geographic bounding box.
type Bounds struct {
	South, West, North, East float64
}

// Contains reports whether the point lies inside the box, edges included.
func (b Bounds) Contains(lat, lng float64) bool {
	return lat >= b.South && lat <= b.North && lng >= b.West && lng <= b.East
}

// ErrInvalidBounds is returned by ParseBBox for malformed input.
var ErrInvalidBounds = errors.New("invalid bbox")

// ParseBBox parses "west,south,east,north", the order Leaflet's
// LatLngBounds.toBBoxString produces.
func ParseBBox(s string) (Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Bounds{}, fmt.Errorf("%w: want 4 comma separated values, got %d", ErrInvalidBounds, len(parts))
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Bounds{}, fmt.Errorf("%w: %q", ErrInvalidBounds, p)
		}
		v[i] = f
	}
	b := Bounds{West: v[0], South: v[1], East: v[2], North: v[3]}
	if b.South > b.North || b.West > b.East {
		return Bounds{}, fmt.Errorf("%w: south/west exceed north/east", ErrInvalidBounds)
	}
	return b, nil
}
