package domain

import (
	"encoding/json"
	"strconv"
	"time"
)

// SchoolType distinguishes primary from lower-secondary schools.
type SchoolType string

const (
	Primary        SchoolType = "barneskole"
	LowerSecondary SchoolType = "ungdomsskole"
)

// Label returns the Norwegian display label for the school type.
func (t SchoolType) Label() string {
	switch t {
	case Primary:
		return "Barneskole"
	case LowerSecondary:
		return "Ungdomsskole"
	default:
		return "Skole"
	}
}

// Valid reports whether t is one of the known school types.
func (t SchoolType) Valid() bool {
	return t == Primary || t == LowerSecondary
}

// Scores holds the three subject scores of one school year. A nil score
// means no data for that subject.
type Scores struct {
	English *float64 `json:"engelsk"`
	Reading *float64 `json:"lesing"`
	Math    *float64 `json:"regning"`
}

// Subjects returns the scores in display order: English, Reading, Math.
func (s Scores) Subjects() [3]*float64 {
	return [3]*float64{s.English, s.Reading, s.Math}
}

// SubjectNames are the Norwegian subject labels in the same order as Subjects.
var SubjectNames = [3]string{"Engelsk", "Lesing", "Regning"}

// Score returns a pointer to v, for building Scores literals.
func Score(v float64) *float64 {
	return &v
}

// Average is the mean of the present subject scores. Valid is false when no
// subject had a score.
type Average struct {
	Value float64
	Valid bool
}

// NoData is the average of a school without any present subject score.
var NoData = Average{}

// AverageOf returns a valid Average holding v.
func AverageOf(v float64) Average {
	return Average{Value: v, Valid: true}
}

// String formats the average with one decimal, or "" when there is no data.
func (a Average) String() string {
	if !a.Valid {
		return ""
	}
	return strconv.FormatFloat(a.Value, 'f', 1, 64)
}

// MarshalJSON encodes a missing average as null.
func (a Average) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(a.Value)
}

// UnmarshalJSON decodes null as a missing average.
func (a *Average) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = NoData
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*a = AverageOf(v)
	return nil
}

// YearScores is one historical school year entry.
type YearScores struct {
	Year string `json:"year"`
	Scores
}

// School is one map entry: a school with its current-year results and the
// results of earlier years.
type School struct {
	Name          string       `json:"name"`
	Municipality  string       `json:"kommune"`
	Type          SchoolType   `json:"type"`
	Lat           float64      `json:"lat"`
	Lng           float64      `json:"lng"`
	Scores                     // current-year scores
	Average       Average      `json:"average"`
	ValidSubjects int          `json:"valid_subjects"`
	Color         Color        `json:"color"`
	History       []YearScores `json:"history,omitempty"`
}

// Key returns the unique key of the school. See SchoolKey.
func (s *School) Key() string {
	return SchoolKey(s.Name, s.Municipality)
}

// NoData reports whether the school has no present subject score.
func (s *School) NoData() bool {
	return !s.Average.Valid
}

// SchoolKey joins name and municipality into the key used to resolve a
// school. Names alone collide across municipalities.
func SchoolKey(name, municipality string) string {
	return name + "|" + municipality
}

// Derive fills Average, ValidSubjects and Color from the current-year scores.
func (s *School) Derive() {
	s.Average, s.ValidSubjects = ComputeAverage(s.Scores)
	s.Color = Classify(s.Average)
}

// MapConfig is the initial map view.
type MapConfig struct {
	Center [2]float64 `json:"center"` // [lat, lng]
	Zoom   int        `json:"zoom"`
}

// Metadata describes the dataset as a whole.
type Metadata struct {
	CurrentYear string    `json:"current_year,omitempty"`
	GeneratedAt time.Time `json:"generated_at,omitempty"`
}

// Dataset is the JSON document built by the pipeline and loaded by the map.
type Dataset struct {
	Metadata  *Metadata  `json:"metadata,omitempty"`
	MapConfig *MapConfig `json:"map_config,omitempty"`
	Schools   []School   `json:"schools"`
}

// CurrentYear returns the current-year tag, or "" when metadata is absent.
func (d *Dataset) CurrentYear() string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata.CurrentYear
}
