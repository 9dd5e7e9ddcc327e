package marker

import (
	"bytes"
	"html/template"
	"sort"
	"strconv"

	"github.com/couchcryptid/school-map-service/internal/domain"
)

// Placeholder is shown for a missing score.
const Placeholder = "–"

var popupTmpl = template.Must(template.New("popup").Parse(`<div class="school-popup">
<h3>{{.Name}}</h3>
<p class="school-meta">{{.Municipality}} · {{.TypeLabel}}</p>
<h4>{{if .Year}}Resultater {{.Year}}{{else}}Resultater{{end}}</h4>
<table class="scores">
{{- range .Subjects}}
<tr><td>{{.Name}}</td><td>{{.Value}}</td></tr>
{{- end}}
</table>
{{if .HasAverage -}}
<p class="average"><span class="swatch" style="background: {{.ColorHex}}"></span>Snitt: <strong>{{.Average}}</strong> (basert på {{.ValidSubjects}} fag)</p>
{{- else -}}
<p class="average no-data">Ingen data</p>
{{- end}}
{{- if .History}}
<h4>Tidligere år</h4>
<table class="history">
<thead><tr><th>År</th>{{range .SubjectNames}}<th>{{.}}</th>{{end}}<th>Snitt</th></tr></thead>
<tbody>
{{- range .History}}
<tr><td>{{.Year}}</td>{{range .Values}}<td>{{.}}</td>{{end}}<td>{{.Average}}</td></tr>
{{- end}}
</tbody>
</table>
{{- end}}
</div>`))

type popupSubject struct {
	Name  string
	Value string
}

type popupHistoryRow struct {
	Year    string
	Values  [3]string
	Average string
}

type popupData struct {
	Name          string
	Municipality  string
	TypeLabel     string
	Year          string
	Subjects      []popupSubject
	HasAverage    bool
	Average       string
	ValidSubjects int
	ColorHex      template.CSS
	SubjectNames  [3]string
	History       []popupHistoryRow
}

// renderPopup renders the popup of one school in its marker's color. History
// rows are shown newest first; each row's average covers only that row's
// present subjects.
func renderPopup(s *domain.School, color domain.Color, currentYear string) (template.HTML, error) {
	d := popupData{
		Name:          s.Name,
		Municipality:  s.Municipality,
		TypeLabel:     s.Type.Label(),
		Year:          currentYear,
		HasAverage:    s.Average.Valid,
		Average:       s.Average.String(),
		ValidSubjects: s.ValidSubjects,
		ColorHex:      template.CSS(color.Hex()),
		SubjectNames:  domain.SubjectNames,
	}
	for i, v := range s.Subjects() {
		d.Subjects = append(d.Subjects, popupSubject{Name: domain.SubjectNames[i], Value: formatScore(v)})
	}

	history := make([]domain.YearScores, len(s.History))
	copy(history, s.History)
	sort.SliceStable(history, func(i, j int) bool { return history[i].Year > history[j].Year })
	for _, h := range history {
		row := popupHistoryRow{Year: h.Year, Average: Placeholder}
		for i, v := range h.Subjects() {
			row.Values[i] = formatScore(v)
		}
		if avg, _ := domain.ComputeAverage(h.Scores); avg.Valid {
			row.Average = avg.String()
		}
		d.History = append(d.History, row)
	}

	var buf bytes.Buffer
	if err := popupTmpl.Execute(&buf, d); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil //nolint:gosec // produced by html/template
}

func formatScore(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
