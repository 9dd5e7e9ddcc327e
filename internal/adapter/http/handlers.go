package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/couchcryptid/school-map-service/internal/cluster"
	"github.com/couchcryptid/school-map-service/internal/domain"
	"github.com/couchcryptid/school-map-service/internal/marker"
	"github.com/couchcryptid/school-map-service/internal/navigation"
	"github.com/couchcryptid/school-map-service/internal/search"
)

// markerView is one marker as the browser draws it.
type markerView struct {
	ID           string            `json:"id"`
	Key          string            `json:"key"`
	Name         string            `json:"name"`
	Municipality string            `json:"kommune"`
	Type         domain.SchoolType `json:"type"`
	Lat          float64           `json:"lat"`
	Lng          float64           `json:"lng"`
	Color        domain.Color      `json:"color"`
	Hex          string            `json:"hex"`
	Icon         marker.IconSize   `json:"icon_size"`
	Average      domain.Average    `json:"average"`
}

func newMarkerView(m *marker.Marker) markerView {
	s := m.School()
	return markerView{
		ID:           m.ID(),
		Key:          m.Key(),
		Name:         s.Name,
		Municipality: s.Municipality,
		Type:         s.Type,
		Lat:          s.Lat,
		Lng:          s.Lng,
		Color:        m.Color(),
		Hex:          m.Color().Hex(),
		Icon:         m.Icon(),
		Average:      s.Average,
	}
}

func (s *Server) handleSchools(w http.ResponseWriter, _ *http.Request) {
	all := s.app.Markers.All()
	out := make([]markerView, 0, len(all))
	for _, m := range all {
		out = append(out, newMarkerView(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePopup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	m, ok := s.app.Markers.LookupType(q.Get("name"), q.Get("kommune"), domain.SchoolType(q.Get("type")))
	if !ok {
		writeError(w, http.StatusNotFound, navigation.ErrMarkerNotFound.Error())
		return
	}
	html, err := m.Popup()
	if err != nil {
		s.logger.Error("render popup", "key", m.Key(), "error", err)
		writeError(w, http.StatusInternalServerError, "render popup")
		return
	}
	writeHTML(w, http.StatusOK, string(html))
}

// groupView is a cluster or lone marker at the requested zoom.
type groupView struct {
	cluster.Group
	Hex string `json:"hex"`
}

func (s *Server) handleClusters(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	zoom, err := strconv.Atoi(q.Get("zoom"))
	if err != nil || zoom < 0 {
		writeError(w, http.StatusBadRequest, "zoom must be a non-negative integer")
		return
	}
	var bounds *cluster.Bounds
	if raw := q.Get("bbox"); raw != "" {
		b, err := cluster.ParseBBox(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		bounds = &b
	}

	groups := s.app.Clusters.Clusters(zoom, bounds)
	s.metrics.ClusterQueries.Observe(float64(len(groups)))
	out := make([]groupView, 0, len(groups))
	for _, g := range groups {
		out = append(out, groupView{Group: g, Hex: g.Summary.Color.Hex()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	res := s.app.Search.Search(r.URL.Query().Get("q"))
	switch {
	case res.Cleared:
		s.metrics.SearchQueries.WithLabelValues("cleared").Inc()
	case res.Total == 0:
		s.metrics.SearchQueries.WithLabelValues("empty").Inc()
	default:
		s.metrics.SearchQueries.WithLabelValues("hits").Inc()
	}
	html, err := search.Render(res)
	if err != nil {
		s.logger.Error("render search results", "query", res.Query, "error", err)
		writeError(w, http.StatusInternalServerError, "render search results")
		return
	}
	writeHTML(w, http.StatusOK, string(html))
}

// handleNavigate resolves a search selection to the moves the browser
// replays: center at close zoom, wait, reveal from a cluster if needed,
// then open the popup.
func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view := navigation.NewPlanView(s.app.Clusters)
	ctrl := navigation.New(view, s.app.Markers, s.clock, s.logger, s.metrics).WithSettleDelay(0)

	err := ctrl.NavigateTo(r.Context(), q.Get("name"), q.Get("kommune"), domain.SchoolType(q.Get("type")))
	if errors.Is(err, navigation.ErrMarkerNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	plan, err := view.Plan()
	if err != nil {
		s.logger.Error("render popup", "key", plan.Key, "error", err)
		writeError(w, http.StatusInternalServerError, "render popup")
		return
	}
	writeJSON(w, http.StatusOK, plan)
}
