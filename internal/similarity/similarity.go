// Package similarity scores how visually close two feature vectors are.
//
// The score is the plain sum of five sub-distances: the absolute differences
// of mean, median and standard deviation, and the Euclidean distances between
// the Hu-moment and histogram sequences. The terms are not normalized against
// each other, so histogram differences usually dominate; rankings depend on
// exactly this scaling.
package similarity

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/iishyfishyy/imgrank/internal/features"
)

// Components holds the five sub-distances between two vectors.
type Components struct {
	Mean      float64
	Median    float64
	StdDev    float64
	HuMoments float64
	Histogram float64
}

// Total returns the sum of all components.
func (c Components) Total() float64 {
	return c.Mean + c.Median + c.StdDev + c.HuMoments + c.Histogram
}

// Breakdown computes every sub-distance between a and b.
func Breakdown(a, b features.Vector) Components {
	return Components{
		Mean:      math.Abs(a.Mean - b.Mean),
		Median:    math.Abs(a.Median - b.Median),
		StdDev:    math.Abs(a.StdDev - b.StdDev),
		HuMoments: floats.Distance(a.HuMoments[:], b.HuMoments[:], 2),
		Histogram: floats.Distance(a.Histogram[:], b.Histogram[:], 2),
	}
}

// Distance returns the similarity score of a and b; lower is more similar.
// It is zero for identical vectors and symmetric.
func Distance(a, b features.Vector) float64 {
	return Breakdown(a, b).Total()
}
