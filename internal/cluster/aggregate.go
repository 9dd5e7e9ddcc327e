// Package cluster groups nearby markers per zoom level and derives the
// aggregate color of each group.
package cluster

import (
	"github.com/couchcryptid/school-map-service/internal/domain"
)

// Tier is the size class of a cluster glyph.
type Tier string

const (
	TierSmall  Tier = "small"
	TierMedium Tier = "medium"
	TierLarge  Tier = "large"
)

// TierOf returns the size class for a cluster of n children.
func TierOf(n int) Tier {
	switch {
	case n < 10:
		return TierSmall
	case n < 100:
		return TierMedium
	default:
		return TierLarge
	}
}

// Size is the rendered glyph size in pixels.
func (t Tier) Size() int {
	switch t {
	case TierSmall:
		return 40
	case TierMedium:
		return 50
	default:
		return 60
	}
}

// Summary is the aggregate visual of a cluster.
type Summary struct {
	Color  domain.Color `json:"color"`
	Count  int          `json:"count"`  // all children, gray included
	Scored int          `json:"scored"` // children that contributed to the color
	Tier   Tier         `json:"tier"`
	Size   int          `json:"size"`
}

// Aggregate derives a cluster's color from its children's colors. Each
// non-gray color is replaced by its band's representative value and the
// mean is classified again. Gray children take no part in the mean; a
// cluster with no scored child is gray.
func Aggregate(colors []domain.Color) Summary {
	var sum float64
	var scored int
	for _, c := range colors {
		v, ok := domain.RepresentativeValue(c)
		if !ok {
			continue
		}
		sum += v
		scored++
	}

	avg := domain.NoData
	if scored > 0 {
		avg = domain.AverageOf(sum / float64(scored))
	}
	tier := TierOf(len(colors))
	return Summary{
		Color:  domain.Classify(avg),
		Count:  len(colors),
		Scored: scored,
		Tier:   tier,
		Size:   tier.Size(),
	}
}
