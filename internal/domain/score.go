package domain

import "math"

// Color is the display color of a marker or cluster.
type Color string

const (
	Red        Color = "red"
	Orange     Color = "orange"
	LightGreen Color = "lightgreen"
	DarkGreen  Color = "darkgreen"
	Gray       Color = "gray"
)

// Hex returns the CSS color used when rendering c.
func (c Color) Hex() string {
	switch c {
	case Red:
		return "#d63e2a"
	case Orange:
		return "#f69730"
	case LightGreen:
		return "#bbf970"
	case DarkGreen:
		return "#728224"
	default:
		return "#a3a3a3"
	}
}

// scoreBand is one classification band. An average belongs to the band with
// the highest lower bound not above it. representative is the fixed value a
// cluster uses in place of the averages of markers in this band.
type scoreBand struct {
	lower          float64
	color          Color
	representative float64
}

// scoreBands is ordered by lower bound. Classify and RepresentativeValue both
// read it, so the forward and inverse mappings cannot drift apart.
var scoreBands = []scoreBand{
	{lower: math.Inf(-1), color: Red, representative: 42},
	{lower: 45, color: Orange, representative: 47},
	{lower: 50, color: LightGreen, representative: 52},
	{lower: 55, color: DarkGreen, representative: 57},
}

// Classify maps an average to its color. Missing data is gray.
func Classify(avg Average) Color {
	if !avg.Valid {
		return Gray
	}
	color := scoreBands[0].color
	for _, b := range scoreBands[1:] {
		if avg.Value < b.lower {
			break
		}
		color = b.color
	}
	return color
}

// RepresentativeValue returns the stand-in average for a band color.
// Gray and unknown colors have none.
func RepresentativeValue(c Color) (float64, bool) {
	for _, b := range scoreBands {
		if b.color == c {
			return b.representative, true
		}
	}
	return 0, false
}

// BandColors returns the non-gray colors from lowest to highest band.
func BandColors() []Color {
	out := make([]Color, len(scoreBands))
	for i, b := range scoreBands {
		out[i] = b.color
	}
	return out
}

// ComputeAverage averages the present subject scores and returns the number
// of subjects that contributed.
func ComputeAverage(s Scores) (Average, int) {
	var sum float64
	var n int
	for _, v := range s.Subjects() {
		if v == nil {
			continue
		}
		sum += *v
		n++
	}
	if n == 0 {
		return NoData, 0
	}
	return AverageOf(sum / float64(n)), n
}
