package tint

import (
	"math"
	"slices"
)

// ObjectExtent describes where a labeled object lies in its frame.
type ObjectExtent struct {
	Label int
	// Median pixel position, rounded half to even.
	Center Point
	// Half of the larger bounding box side, in pixels.
	Radius float64
	// Pixel count.
	Area int
}

// Extents returns the extent of every object of f, indexed by label-1.
func Extents(f *LabelImage) []ObjectExtent {
	objects := f.Objects()
	extents := make([]ObjectExtent, len(objects))
	for i, pixels := range objects {
		extents[i] = objectExtent(f, i+1, pixels)
	}
	return extents
}

func objectExtent(f *LabelImage, label int, pixels []int) ObjectExtent {
	rows := make([]float64, len(pixels))
	cols := make([]float64, len(pixels))
	rowMin, rowMax := math.MaxInt, -1
	colMin, colMax := math.MaxInt, -1
	for i, idx := range pixels {
		r, c := idx/f.Cols, idx%f.Cols
		rows[i], cols[i] = float64(r), float64(c)
		rowMin, rowMax = minInt(rowMin, r), maxInt(rowMax, r)
		colMin, colMax = minInt(colMin, c), maxInt(colMax, c)
	}
	extent := ObjectExtent{
		Label: label,
		Area:  len(pixels),
	}
	if len(pixels) == 0 {
		return extent
	}
	extent.Center = NewPoint(math.RoundToEven(median(rows)), math.RoundToEven(median(cols)))
	extent.Radius = float64(maxInt(rowMax-rowMin+1, colMax-colMin+1)) / 2
	return extent
}

// median sorts values in place and returns their median.
func median(values []float64) float64 {
	slices.Sort(values)
	n := len(values)
	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2
}
