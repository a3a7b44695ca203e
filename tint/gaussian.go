package tint

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// gaussianTruncate is the kernel half-width in standard deviations.
const gaussianTruncate = 4.0

// gaussianKernel returns normalized weights for offsets -radius..radius.
func gaussianKernel(sigma float64) []float64 {
	radius := int(gaussianTruncate*sigma + 0.5)
	kernel := make([]float64, 2*radius+1)
	for i := range kernel {
		x := float64(i - radius)
		kernel[i] = math.Exp(-0.5 * x * x / (sigma * sigma))
	}
	floats.Scale(1/floats.Sum(kernel), kernel)
	return kernel
}

// reflectIndex maps i into [0, n) mirroring about the edges (d c b a | a b c d | d c b a).
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i - 1
	}
	return i
}

// gaussianFilter smooths img with a separable Gaussian of the given sigma.
// A non-positive sigma returns a copy.
func gaussianFilter(img *Image, sigma float64) *Image {
	out := NewImage(img.Rows, img.Cols)
	copy(out.Pix, img.Pix)
	if sigma <= 0 || img.Rows == 0 || img.Cols == 0 {
		return out
	}
	kernel := gaussianKernel(sigma)
	radius := len(kernel) / 2

	// rows axis
	tmp := make([]float64, len(img.Pix))
	for r := 0; r < img.Rows; r++ {
		for c := 0; c < img.Cols; c++ {
			sum := 0.0
			for k, w := range kernel {
				rr := reflectIndex(r+k-radius, img.Rows)
				sum += w * img.Pix[rr*img.Cols+c]
			}
			tmp[r*img.Cols+c] = sum
		}
	}
	// columns axis
	for r := 0; r < img.Rows; r++ {
		row := tmp[r*img.Cols : (r+1)*img.Cols]
		for c := 0; c < img.Cols; c++ {
			sum := 0.0
			for k, w := range kernel {
				sum += w * row[reflectIndex(c+k-radius, img.Cols)]
			}
			out.Pix[r*img.Cols+c] = sum
		}
	}
	return out
}
