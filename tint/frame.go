package tint

import (
	"math"
)

// Image is a 2-D raster of field values stored row-major.
type Image struct {
	Rows int
	Cols int
	Pix  []float64
}

// NewImage allocates a zero image.
func NewImage(rows, cols int) *Image {
	return &Image{
		Rows: rows,
		Cols: cols,
		Pix:  make([]float64, rows*cols),
	}
}

// At returns the value at (row, col).
func (img *Image) At(row, col int) float64 {
	return img.Pix[row*img.Cols+col]
}

// Set stores the value at (row, col).
func (img *Image) Set(row, col int, value float64) {
	img.Pix[row*img.Cols+col] = value
}

// IsZero reports whether every pixel is zero.
func (img *Image) IsZero() bool {
	for _, v := range img.Pix {
		if v != 0 {
			return false
		}
	}
	return true
}

// LabelImage is a labeled frame: 0 is background, 1..Count are objects.
type LabelImage struct {
	Rows   int
	Cols   int
	Labels []int
	Count  int
}

// NewLabelImage allocates an empty labeled frame.
func NewLabelImage(rows, cols int) *LabelImage {
	return &LabelImage{
		Rows:   rows,
		Cols:   cols,
		Labels: make([]int, rows*cols),
	}
}

// At returns the label at (row, col).
func (f *LabelImage) At(row, col int) int {
	return f.Labels[row*f.Cols+col]
}

// Objects returns the pixel indices of every label: element i holds label i+1.
func (f *LabelImage) Objects() [][]int {
	objects := make([][]int, f.Count)
	for idx, label := range f.Labels {
		if label > 0 {
			objects[label-1] = append(objects[label-1], idx)
		}
	}
	return objects
}

// Sizes returns the pixel count of every label: element i holds label i+1.
func (f *LabelImage) Sizes() []int {
	sizes := make([]int, f.Count)
	for _, label := range f.Labels {
		if label > 0 {
			sizes[label-1]++
		}
	}
	return sizes
}

// Frame is the per-scan product of object detection.
type Frame struct {
	Labels *LabelImage
	// Raw field slice at the reference altitude.
	Raw *Image
}

// ExtractFrame labels the objects of one volume and slices its raw field at
// the reference altitude.
func ExtractFrame(v *Volume, field string, gridSize GridSize, params Params) (*Frame, error) {
	data, err := v.FilledField(field)
	if err != nil {
		return nil, err
	}
	nz, ny, nx := v.Shape()

	level := 0
	if gridSize.Z > 0 {
		level = int(math.RoundToEven(params.GSAlt / gridSize.Z))
	}
	level = clampInt(level, 0, maxInt(nz-1, 0))
	raw := NewImage(ny, nx)
	if nz > 0 {
		copy(raw.Pix, data[level*ny*nx:(level+1)*ny*nx])
	}

	echo := verticalProjection(data, nz, ny, nx, params.FieldThresh)
	labels := labelComponents(echo, ny, nx)
	clearSmallEchoes(labels, params.MinSize)
	return &Frame{
		Labels: labels,
		Raw:    raw,
	}, nil
}

// verticalProjection marks columns where any level exceeds thresh.
func verticalProjection(data []float64, nz, ny, nx int, thresh float64) []bool {
	plane := ny * nx
	on := make([]bool, plane)
	for z := 0; z < nz; z++ {
		level := data[z*plane : (z+1)*plane]
		for i, value := range level {
			if value > thresh {
				on[i] = true
			}
		}
	}
	return on
}

// columnMax returns the maximum over levels of every column.
func columnMax(data []float64, nz, ny, nx int) *Image {
	plane := ny * nx
	img := NewImage(ny, nx)
	if nz == 0 {
		return img
	}
	copy(img.Pix, data[:plane])
	for z := 1; z < nz; z++ {
		level := data[z*plane : (z+1)*plane]
		for i, value := range level {
			if value > img.Pix[i] {
				img.Pix[i] = value
			}
		}
	}
	return img
}
