package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		avg  Average
		want Color
	}{
		{"no data", NoData, Gray},
		{"far below", AverageOf(20), Red},
		{"just below 45", AverageOf(44.99), Red},
		{"45 boundary", AverageOf(45), Orange},
		{"inside orange", AverageOf(47.5), Orange},
		{"50 boundary", AverageOf(50), LightGreen},
		{"inside lightgreen", AverageOf(53), LightGreen},
		{"just below 55", AverageOf(54.999), LightGreen},
		{"55 boundary", AverageOf(55), DarkGreen},
		{"far above", AverageOf(70), DarkGreen},
		{"zero is a real score", AverageOf(0), Red},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.avg))
		})
	}
}

func TestRepresentativeValue_InverseOfClassify(t *testing.T) {
	want := map[Color]float64{Red: 42, Orange: 47, LightGreen: 52, DarkGreen: 57}

	for _, c := range BandColors() {
		v, ok := RepresentativeValue(c)
		assert.True(t, ok, "color %s", c)
		assert.Equal(t, want[c], v, "color %s", c)
		assert.Equal(t, c, Classify(AverageOf(v)), "representative of %s must classify back to it", c)
	}
}

func TestRepresentativeValue_Gray(t *testing.T) {
	_, ok := RepresentativeValue(Gray)
	assert.False(t, ok)

	_, ok = RepresentativeValue(Color("purple"))
	assert.False(t, ok)
}

func TestComputeAverage(t *testing.T) {
	t.Run("all subjects", func(t *testing.T) {
		avg, n := ComputeAverage(Scores{English: Score(50), Reading: Score(52), Math: Score(54)})
		assert.Equal(t, 3, n)
		assert.True(t, avg.Valid)
		assert.InDelta(t, 52.0, avg.Value, 1e-9)
	})

	t.Run("only math present", func(t *testing.T) {
		avg, n := ComputeAverage(Scores{Math: Score(53)})
		assert.Equal(t, 1, n)
		assert.Equal(t, AverageOf(53), avg)
		assert.Equal(t, "53.0", avg.String())
		assert.Equal(t, LightGreen, Classify(avg))
	})

	t.Run("missing is not zero", func(t *testing.T) {
		avg, n := ComputeAverage(Scores{English: Score(56), Reading: Score(54)})
		assert.Equal(t, 2, n)
		assert.InDelta(t, 55.0, avg.Value, 1e-9)
		assert.Equal(t, DarkGreen, Classify(avg))
	})

	t.Run("no subjects", func(t *testing.T) {
		avg, n := ComputeAverage(Scores{})
		assert.Equal(t, 0, n)
		assert.False(t, avg.Valid)
		assert.Equal(t, Gray, Classify(avg))
	})
}

func TestSchoolDerive(t *testing.T) {
	s := School{Name: "Bjølsen skole", Municipality: "Oslo", Scores: Scores{Math: Score(53)}}
	s.Derive()

	assert.Equal(t, AverageOf(53), s.Average)
	assert.Equal(t, 1, s.ValidSubjects)
	assert.Equal(t, LightGreen, s.Color)
	assert.False(t, s.NoData())

	empty := School{Name: "Tom skole", Municipality: "Oslo"}
	empty.Derive()
	assert.True(t, empty.NoData())
	assert.Equal(t, Gray, empty.Color)
	assert.Equal(t, 0, empty.ValidSubjects)
}
