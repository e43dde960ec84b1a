package imaging

import (
	"image"
	"math"
)

// Histogram counts pixels per intensity over the full 8-bit range.
func Histogram(img *image.Gray) [256]float64 {
	var hist [256]float64
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w]
		for _, v := range row {
			hist[v]++
		}
	}
	return hist
}

// Moments holds the spatial and central moments up to third order of an
// image, with pixel intensity as the mass.
type Moments struct {
	M00, M10, M01 float64

	// Central moments.
	Mu20, Mu11, Mu02       float64
	Mu30, Mu21, Mu12, Mu03 float64
}

// ComputeMoments computes the moments of img. Central moments are
// accumulated in a second pass around the centroid.
func ComputeMoments(img *image.Gray) Moments {
	var m Moments
	w, h := img.Bounds().Dx(), img.Bounds().Dy()

	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w]
		for x, v := range row {
			p := float64(v)
			m.M00 += p
			m.M10 += float64(x) * p
			m.M01 += float64(y) * p
		}
	}
	if m.M00 == 0 {
		return m
	}

	cx, cy := m.M10/m.M00, m.M01/m.M00
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w]
		dy := float64(y) - cy
		for x, v := range row {
			if v == 0 {
				continue
			}
			p := float64(v)
			dx := float64(x) - cx
			m.Mu20 += dx * dx * p
			m.Mu11 += dx * dy * p
			m.Mu02 += dy * dy * p
			m.Mu30 += dx * dx * dx * p
			m.Mu21 += dx * dx * dy * p
			m.Mu12 += dx * dy * dy * p
			m.Mu03 += dy * dy * dy * p
		}
	}

	return m
}

// HuMoments returns the seven Hu invariants of m. An image without mass
// yields all zeros.
func HuMoments(m Moments) [7]float64 {
	var hu [7]float64
	if m.M00 == 0 {
		return hu
	}

	// Normalized central moments: nu_pq = mu_pq / m00^(1+(p+q)/2).
	s2 := 1 / (m.M00 * m.M00)
	s3 := s2 / math.Sqrt(m.M00)
	n20, n11, n02 := m.Mu20*s2, m.Mu11*s2, m.Mu02*s2
	n30, n21, n12, n03 := m.Mu30*s3, m.Mu21*s3, m.Mu12*s3, m.Mu03*s3

	t0 := n30 + n12
	t1 := n21 + n03
	q0 := t0 * t0
	q1 := t1 * t1
	d0 := n30 - 3*n12
	d1 := 3*n21 - n03

	hu[0] = n20 + n02
	hu[1] = (n20-n02)*(n20-n02) + 4*n11*n11
	hu[2] = d0*d0 + d1*d1
	hu[3] = q0 + q1
	hu[4] = d0*t0*(q0-3*q1) + d1*t1*(3*q0-q1)
	hu[5] = (n20-n02)*(q0-q1) + 4*n11*t0*t1
	hu[6] = d1*t0*(q0-3*q1) - d0*t1*(3*q0-q1)

	return hu
}
