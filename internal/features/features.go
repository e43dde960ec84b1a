// Package features turns a normalized grayscale image into the fixed-shape
// feature vector used for similarity ranking.
package features

import (
	"fmt"
	"image"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/iishyfishyy/imgrank/internal/imaging"
)

// CanonicalSize is the default width and height images are scaled to before
// extraction.
const CanonicalSize = 500

// HistogramBins is the number of intensity bins.
const HistogramBins = 256

// ErrResolution is returned when an image does not have the extractor's
// canonical size.
var ErrResolution = fmt.Errorf("%w: unexpected resolution", imaging.ErrInvalidImage)

// levels holds the intensity of each histogram bin.
var levels = func() []float64 {
	l := make([]float64, HistogramBins)
	for i := range l {
		l[i] = float64(i)
	}
	return l
}()

// Vector is the feature vector of one image. It is a value type; copies can
// be handed between goroutines freely.
type Vector struct {
	Mean      float64
	Median    float64
	StdDev    float64
	HuMoments [7]float64
	Histogram [HistogramBins]float64
}

// Extractor computes feature vectors for images of a fixed square size.
type Extractor struct {
	size int
}

// NewExtractor creates an extractor for size x size images.
func NewExtractor(size int) *Extractor {
	return &Extractor{size: size}
}

// Size returns the canonical width and height.
func (e *Extractor) Size() int {
	return e.size
}

// Extract computes the feature vector of img.
func (e *Extractor) Extract(img *image.Gray) (Vector, error) {
	if img == nil || img.Bounds().Empty() {
		return Vector{}, fmt.Errorf("%w: empty image", imaging.ErrInvalidImage)
	}
	if w, h := img.Bounds().Dx(), img.Bounds().Dy(); w != e.size || h != e.size {
		return Vector{}, fmt.Errorf("%w: got %dx%d, want %dx%d", ErrResolution, w, h, e.size, e.size)
	}

	var v Vector
	v.Histogram = imaging.Histogram(img)
	v.HuMoments = imaging.HuMoments(imaging.ComputeMoments(img))

	mean, variance := stat.PopMeanVariance(levels, v.Histogram[:])
	v.Mean = mean
	v.StdDev = math.Sqrt(variance)
	v.Median = median(v.Histogram[:])

	return v, nil
}

// median returns the median intensity of the pixels counted by hist. For an
// even pixel count it is the mean of the two middle values.
func median(hist []float64) float64 {
	cum := floats.CumSum(make([]float64, len(hist)), hist)
	total := cum[len(cum)-1]
	if total == 0 {
		return 0
	}

	n := int(total)
	if n%2 == 1 {
		return orderStat(cum, n/2)
	}
	return (orderStat(cum, n/2-1) + orderStat(cum, n/2)) / 2
}

// orderStat returns the intensity of the k-th smallest pixel (0-based).
func orderStat(cum []float64, k int) float64 {
	return float64(sort.SearchFloat64s(cum, float64(k+1)))
}
