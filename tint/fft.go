package tint

import (
	"gonum.org/v1/gonum/dsp/fourier"
)

// fft2 transforms a row-major rows x cols array in place along both axes.
// The inverse transform is normalized by rows*cols.
func fft2(data []complex128, rows, cols int, inverse bool) {
	rowFFT := fourier.NewCmplxFFT(cols)
	src := make([]complex128, cols)
	dst := make([]complex128, cols)
	for r := 0; r < rows; r++ {
		copy(src, data[r*cols:(r+1)*cols])
		if inverse {
			rowFFT.Sequence(dst, src)
		} else {
			rowFFT.Coefficients(dst, src)
		}
		copy(data[r*cols:(r+1)*cols], dst)
	}

	colFFT := fourier.NewCmplxFFT(rows)
	src = make([]complex128, rows)
	dst = make([]complex128, rows)
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			src[r] = data[r*cols+c]
		}
		if inverse {
			colFFT.Sequence(dst, src)
		} else {
			colFFT.Coefficients(dst, src)
		}
		for r := 0; r < rows; r++ {
			data[r*cols+c] = dst[r]
		}
	}

	if inverse {
		scale := complex(1/float64(rows*cols), 0)
		for i := range data {
			data[i] *= scale
		}
	}
}

// fftShift moves the zero-lag element of a rows x cols surface to (rows/2, cols/2).
func fftShift(img *Image) *Image {
	out := NewImage(img.Rows, img.Cols)
	rowOffset, colOffset := img.Rows/2, img.Cols/2
	for r := 0; r < img.Rows; r++ {
		rr := (r + rowOffset) % img.Rows
		for c := 0; c < img.Cols; c++ {
			cc := (c + colOffset) % img.Cols
			out.Pix[rr*img.Cols+cc] = img.Pix[r*img.Cols+c]
		}
	}
	return out
}
