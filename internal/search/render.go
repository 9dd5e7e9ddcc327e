package search

import (
	"bytes"
	"html/template"
)

var resultsTmpl = template.Must(template.New("results").Parse(
	`{{if .Cleared}}{{else if not .Hits -}}
<div class="search-empty">Ingen skoler funnet</div>
{{- else -}}
<ul class="search-results">
{{- range .Hits}}
<li class="search-result" data-name="{{.School.Name}}" data-kommune="{{.School.Municipality}}" data-type="{{.School.Type}}"><span class="name">{{.Before}}<mark>{{.Match}}</mark>{{.After}}</span> <span class="kommune">{{.School.Municipality}}</span></li>
{{- end}}
</ul>
{{- if .More}}
<div class="search-more">Viser {{len .Hits}} av {{.Total}} skoler</div>
{{- end}}
{{- end}}`))

type renderHit struct {
	Hit
	Before, Match, After string
}

// Render returns the HTML fragment that replaces the result list. A cleared
// result renders empty. All school text is escaped; only the matched part
// of the name is wrapped in <mark>.
func Render(r Result) (template.HTML, error) {
	data := struct {
		Cleared bool
		Hits    []renderHit
		Total   int
		More    int
	}{Cleared: r.Cleared, Total: r.Total, More: r.More()}
	for _, h := range r.Hits {
		name := h.School.Name
		data.Hits = append(data.Hits, renderHit{
			Hit:    h,
			Before: name[:h.Start],
			Match:  name[h.Start:h.End],
			After:  name[h.End:],
		})
	}

	var buf bytes.Buffer
	if err := resultsTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil //nolint:gosec // produced by html/template
}
