package navigation

import (
	"html/template"

	"github.com/couchcryptid/school-map-service/internal/cluster"
	"github.com/couchcryptid/school-map-service/internal/domain"
	"github.com/couchcryptid/school-map-service/internal/marker"
)

// Plan is the navigation outcome a browser replays: where to move, whether
// the marker must be revealed from a cluster first, and the popup to open.
type Plan struct {
	ID         string            `json:"id"`
	Key        string            `json:"key"`
	Type       domain.SchoolType `json:"type"`
	Lat        float64           `json:"lat"`
	Lng        float64           `json:"lng"`
	Zoom       int               `json:"zoom"`
	SettleMS   int64             `json:"settle_ms"`
	Reveal     bool              `json:"reveal"`
	RevealZoom int               `json:"reveal_zoom,omitempty"`
	Spread     bool              `json:"spread,omitempty"` // marker shares its spot; spread it out
	Popup      template.HTML     `json:"popup"`
}

// PlanView is a View that records what a navigation does instead of
// animating a map. Visibility comes from the cluster index at the zoom
// the view was last set to.
type PlanView struct {
	index *cluster.Index
	plan  Plan
	err   error
}

func NewPlanView(index *cluster.Index) *PlanView {
	return &PlanView{index: index, plan: Plan{SettleMS: SettleDelay.Milliseconds()}}
}

// Plan returns the recorded plan and the first popup rendering error.
func (p *PlanView) Plan() (Plan, error) {
	return p.plan, p.err
}

func (p *PlanView) SetView(lat, lng float64, zoom int) {
	p.plan.Lat, p.plan.Lng, p.plan.Zoom = lat, lng, zoom
}

func (p *PlanView) HasLayer(m *marker.Marker) bool {
	return !p.index.IsClustered(m.ID(), p.plan.Zoom)
}

func (p *PlanView) ZoomToShowLayer(m *marker.Marker, done func()) {
	p.plan.Reveal = true
	p.plan.RevealZoom, p.plan.Spread = p.index.RevealZoom(m.ID(), p.plan.Zoom)
	done()
}

func (p *PlanView) OpenPopup(m *marker.Marker) {
	p.plan.ID, p.plan.Key, p.plan.Type = m.ID(), m.Key(), m.School().Type
	html, err := m.Popup()
	if err != nil && p.err == nil {
		p.err = err
	}
	p.plan.Popup = html
}
