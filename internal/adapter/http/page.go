package http

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/couchcryptid/school-map-service/internal/domain"
)

const loadFailedMessage = "Kunne ikke laste skoledata. Prøv igjen senere."

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="nb">
<head>
<meta charset="utf-8">
<title>Nasjonale prøver på kartet</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
</head>
<body>
{{- if .Failed}}
<div class="alert alert-danger" role="alert">{{.Message}}</div>
{{- end}}
<input id="school-search" type="search" placeholder="Søk etter skole" autocomplete="off">
<div id="search-results"></div>
<div id="map" data-lat="{{index .View.Center 0}}" data-lng="{{index .View.Center 1}}" data-zoom="{{.View.Zoom}}"{{if .Year}} data-year="{{.Year}}"{{end}} data-failed="{{.Failed}}" data-message="{{.Message}}"></div>
<ul class="legend">
{{- range .Legend}}
<li><span class="swatch" style="background: {{.Hex}}"></span>{{.Label}}</li>
{{- end}}
</ul>
{{- if .Fragment}}
{{.Fragment}}
{{- end}}
<script src="/static/map.js"></script>
</body>
</html>
`))

type legendEntry struct {
	Hex   template.CSS
	Label string
}

var legend = []legendEntry{
	{template.CSS(domain.DarkGreen.Hex()), "55 og over"},
	{template.CSS(domain.LightGreen.Hex()), "50–54"},
	{template.CSS(domain.Orange.Hex()), "45–49"},
	{template.CSS(domain.Red.Hex()), "Under 45"},
	{template.CSS(domain.Gray.Hex()), "Ingen data"},
}

type pageData struct {
	Failed   bool
	Message  string
	View     domain.MapConfig
	Year     string
	Legend   []legendEntry
	Fragment template.HTML
}

// handlePage renders the map shell. A failed dataset load shows an alert
// and no markers; the fragment is shown whenever it loaded.
func (s *Server) handlePage(w http.ResponseWriter, _ *http.Request) {
	data := pageData{
		Failed:   !s.app.Ready(),
		Message:  loadFailedMessage,
		View:     s.app.MapConfig,
		Year:     s.app.CurrentYear,
		Legend:   legend,
		Fragment: s.app.Fragment,
	}
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		s.logger.Error("render page", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	writeHTML(w, http.StatusOK, buf.String())
}
