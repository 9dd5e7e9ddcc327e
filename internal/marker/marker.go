// Package marker turns school records into map markers with lazily
// rendered popups, indexed by school key.
package marker

import (
	"html/template"
	"log/slog"
	"sync"

	"github.com/couchcryptid/school-map-service/internal/cluster"
	"github.com/couchcryptid/school-map-service/internal/domain"
)

// IconSize is a marker icon's width and height in pixels.
type IconSize [2]int

// Primary school icons are the default 25x41 pin scaled by 0.8.
var (
	primaryIcon        = IconSize{20, 33}
	lowerSecondaryIcon = IconSize{25, 41}
)

// IconSizeFor returns the icon size used for a school type.
func IconSizeFor(t domain.SchoolType) IconSize {
	if t == domain.Primary {
		return primaryIcon
	}
	return lowerSecondaryIcon
}

// Marker is the map entity of one school. It is bound to its school for
// its whole lifetime.
type Marker struct {
	id          string
	school      *domain.School
	color       domain.Color
	icon        IconSize
	currentYear string

	popupOnce sync.Once
	popup     template.HTML
	popupErr  error
}

// ID identifies the marker on the map. A combined school that appears in
// both the primary and the lower secondary results has one key but two
// markers, so the type is part of the ID.
func (m *Marker) ID() string { return m.id }

func (m *Marker) Key() string            { return m.school.Key() }
func (m *Marker) School() *domain.School { return m.school }
func (m *Marker) Color() domain.Color    { return m.color }
func (m *Marker) Icon() IconSize         { return m.icon }

// Popup renders the popup HTML on first use and returns the cached result
// afterwards.
func (m *Marker) Popup() (template.HTML, error) {
	m.popupOnce.Do(func() {
		m.popup, m.popupErr = renderPopup(m.school, m.color, m.currentYear)
	})
	return m.popup, m.popupErr
}

// MarkerID joins a school key and type into a marker ID.
func MarkerID(typ domain.SchoolType, name, municipality string) string {
	return domain.SchoolKey(name, municipality) + "|" + string(typ)
}

// Registry indexes markers by ID and by school key.
type Registry struct {
	markers []*Marker
	byID    map[string]*Marker
	byKey   map[string][]*Marker // dataset order
}

// Lookup returns the marker of the school with the given name and
// municipality. When the school has markers of both types the first one in
// dataset order is returned; use LookupType to pick one.
func (r *Registry) Lookup(name, municipality string) (*Marker, bool) {
	return r.LookupType(name, municipality, "")
}

// LookupType is Lookup restricted to one school type. An empty type matches
// any type.
func (r *Registry) LookupType(name, municipality string, typ domain.SchoolType) (*Marker, bool) {
	for _, m := range r.byKey[domain.SchoolKey(name, municipality)] {
		if typ == "" || m.school.Type == typ {
			return m, true
		}
	}
	return nil, false
}

// Get returns the marker with the given ID.
func (r *Registry) Get(id string) (*Marker, bool) {
	m, ok := r.byID[id]
	return m, ok
}

// All returns the markers in dataset order.
func (r *Registry) All() []*Marker {
	return r.markers
}

func (r *Registry) Len() int {
	return len(r.markers)
}

// Members returns the markers as cluster index members.
func (r *Registry) Members() []cluster.Member {
	out := make([]cluster.Member, len(r.markers))
	for i, m := range r.markers {
		out[i] = cluster.Member{
			Key:   m.id,
			Lat:   m.school.Lat,
			Lng:   m.school.Lng,
			Color: m.color,
		}
	}
	return out
}

// Factory builds markers for a dataset.
type Factory struct {
	currentYear string
	logger      *slog.Logger
}

func NewFactory(currentYear string, logger *slog.Logger) *Factory {
	return &Factory{currentYear: currentYear, logger: logger}
}

// Build creates one marker per school. schools must outlive the registry;
// markers point into the slice. A school listed under both types gets a
// marker per type. Only a repeated record of the same type is skipped.
func (f *Factory) Build(schools []domain.School) *Registry {
	r := &Registry{
		markers: make([]*Marker, 0, len(schools)),
		byID:    make(map[string]*Marker, len(schools)),
		byKey:   make(map[string][]*Marker, len(schools)),
	}
	for i := range schools {
		s := &schools[i]
		id := MarkerID(s.Type, s.Name, s.Municipality)
		if _, dup := r.byID[id]; dup {
			f.logger.Warn("duplicate school record, marker skipped", "school", s.Name, "kommune", s.Municipality, "type", s.Type)
			continue
		}
		m := &Marker{
			id:          id,
			school:      s,
			color:       domain.Classify(s.Average),
			icon:        IconSizeFor(s.Type),
			currentYear: f.currentYear,
		}
		r.markers = append(r.markers, m)
		r.byID[id] = m
		r.byKey[s.Key()] = append(r.byKey[s.Key()], m)
	}
	return r
}
