package tint

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
)

// crossCovariance computes the phase correlation surface of two equally sized
// images, re-centered so that zero lag sits at (Rows/2, Cols/2).
func crossCovariance(im1, im2 *Image) *Image {
	n := im1.Rows * im1.Cols
	fft1 := make([]complex128, n)
	fft2buf := make([]complex128, n)
	for i := 0; i < n; i++ {
		fft1[i] = complex(im1.Pix[i], 0)
		fft2buf[i] = complex(im2.Pix[i], 0)
	}
	fft2(fft1, im1.Rows, im1.Cols, false)
	fft2(fft2buf, im2.Rows, im2.Cols, false)

	spectrum := fft2buf
	for i := range spectrum {
		product := spectrum[i] * cmplx.Conj(fft1[i])
		normalize := cmplx.Abs(product)
		if normalize == 0 {
			// prevent divide by zero
			normalize = 1
		}
		spectrum[i] = product / complex(normalize, 0)
	}
	fft2(spectrum, im1.Rows, im1.Cols, true)

	surface := NewImage(im1.Rows, im1.Cols)
	for i, v := range spectrum {
		surface.Pix[i] = real(v)
	}
	return fftShift(surface)
}

// flowVectors estimates the displacement of im2 relative to im1. It returns
// nil when either image is entirely zero.
func flowVectors(im1, im2 *Image) *Vector {
	if im1.Rows == 0 || im1.Cols == 0 || im1.IsZero() || im2.IsZero() {
		return nil
	}
	surface := crossCovariance(im1, im2)
	sigma := float64(minInt(surface.Rows, surface.Cols)) / 8
	smooth := gaussianFilter(surface, sigma)
	peak := floats.MaxIdx(smooth.Pix)
	shift := NewVector(
		float64(peak/smooth.Cols-smooth.Rows/2),
		float64(peak%smooth.Cols-smooth.Cols/2),
	)
	return &shift
}

// GlobalShift estimates the whole-frame displacement between two raw slices,
// clamped component-wise to MaxFlowMag. It returns nil when raw2 is absent or
// either slice is degenerate.
func GlobalShift(raw1, raw2 *Image, params Params) *Vector {
	if raw1 == nil || raw2 == nil {
		return nil
	}
	shift := flowVectors(raw1, raw2)
	if shift == nil {
		return nil
	}
	clamped := shift.Clamp(params.MaxFlowMag)
	return &clamped
}

// AmbientFlow estimates the displacement around one object. Both slices are
// cropped to the object extent expanded by margin and binarized before phase
// correlation. It returns nil when either crop is empty.
func AmbientFlow(extent ObjectExtent, raw1, raw2 *Image, margin int) *Vector {
	if raw1 == nil || raw2 == nil {
		return nil
	}
	reach := extent.Radius + float64(margin)
	rowLow := maxInt(int(extent.Center.Row-reach), 0)
	rowHigh := minInt(int(extent.Center.Row+reach), raw1.Rows-1)
	colLow := maxInt(int(extent.Center.Col-reach), 0)
	colHigh := minInt(int(extent.Center.Col+reach), raw1.Cols-1)
	if rowHigh < rowLow || colHigh < colLow {
		return nil
	}
	region := newBounds(rowLow, rowHigh, colLow, colHigh)
	return flowVectors(binaryCrop(raw1, region.Min.Y, region.Max.Y, region.Min.X, region.Max.X),
		binaryCrop(raw2, region.Min.Y, region.Max.Y, region.Min.X, region.Max.X))
}

// binaryCrop copies rows [r0, r1) and columns [c0, c1) of img, mapping nonzero values to 1.
func binaryCrop(img *Image, r0, r1, c0, c1 int) *Image {
	crop := NewImage(r1-r0, c1-c0)
	for r := r0; r < r1; r++ {
		for c := c0; c < c1; c++ {
			if img.At(r, c) != 0 {
				crop.Pix[(r-r0)*crop.Cols+(c-c0)] = 1
			}
		}
	}
	return crop
}

// ShiftCase tells which estimate a corrected shift was taken from.
type ShiftCase int

const (
	// ShiftCaseLocal means ambient flow agreed with the global shift and was used.
	ShiftCaseLocal ShiftCase = iota
	// ShiftCaseGlobalOverride means ambient flow disagreed and the global shift was used.
	ShiftCaseGlobalOverride
	// ShiftCaseGlobalFallback means no ambient flow was available.
	ShiftCaseGlobalFallback
	// ShiftCaseLocalOnly means no global shift was available.
	ShiftCaseLocalOnly
	// ShiftCaseNone means neither estimate existed and the displacement is zero.
	ShiftCaseNone

	shiftCaseCount
)

func (c ShiftCase) String() string {
	switch c {
	case ShiftCaseLocal:
		return "local"
	case ShiftCaseGlobalOverride:
		return "global_override"
	case ShiftCaseGlobalFallback:
		return "global_fallback"
	case ShiftCaseLocalOnly:
		return "local_only"
	case ShiftCaseNone:
		return "none"
	default:
		return "unknown"
	}
}

// CorrectShift combines the global shift and an object's ambient flow into
// the displacement used for prediction.
func CorrectShift(global, local *Vector, record *Record, params Params) (Vector, ShiftCase) {
	switch {
	case global != nil && local != nil:
		if shiftsDisagree(*local, *global, record, params) {
			return *global, ShiftCaseGlobalOverride
		}
		return *local, ShiftCaseLocal
	case global != nil:
		return *global, ShiftCaseGlobalFallback
	case local != nil:
		return *local, ShiftCaseLocalOnly
	default:
		return Vector{}, ShiftCaseNone
	}
}

// shiftsDisagree compares two shifts component-wise. With a known scan
// interval the difference is expressed as speed in m/s.
func shiftsDisagree(a, b Vector, record *Record, params Params) bool {
	diff := a.Sub(b)
	dRow, dCol := math.Abs(diff.Row), math.Abs(diff.Col)
	if record != nil && record.Interval > 0 && record.GridSize.Y > 0 && record.GridSize.X > 0 {
		seconds := record.Interval.Seconds()
		dRow = dRow * record.GridSize.Y / seconds
		dCol = dCol * record.GridSize.X / seconds
	}
	return maxFloat64(dRow, dCol) > params.MaxShiftDisp
}
