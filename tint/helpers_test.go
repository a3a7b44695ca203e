package tint

import (
	"time"
)

const testField = "reflectivity"

var testStart = time.Date(2015, 7, 10, 18, 0, 0, 0, time.UTC)

// testBlock is a square of constant value placed on every level.
type testBlock struct {
	row, col int
	height   int
	width    int
	value    float64
}

// testVolume builds a 3-level volume with 1 km cells centered on the radar.
func testVolume(ny, nx int, at time.Time, blocks ...testBlock) *Volume {
	const nz = 3
	v := &Volume{
		Z:         make([]float64, nz),
		Y:         make([]float64, ny),
		X:         make([]float64, nx),
		RadarLon:  131.04,
		RadarLat:  -12.25,
		TimeUnits: "seconds since " + at.Format("2006-01-02T15:04:05Z"),
		Fields: map[string]*Field{
			testField: {
				Data:      make([]float64, nz*ny*nx),
				FillValue: -9999,
			},
		},
	}
	for z := range v.Z {
		v.Z[z] = float64(z) * 1000
	}
	for y := range v.Y {
		v.Y[y] = float64(y-ny/2) * 1000
	}
	for x := range v.X {
		v.X[x] = float64(x-nx/2) * 1000
	}
	data := v.Fields[testField].Data
	for _, b := range blocks {
		for z := 0; z < nz; z++ {
			for r := b.row; r < b.row+b.height; r++ {
				for c := b.col; c < b.col+b.width; c++ {
					data[(z*ny+r)*nx+c] = b.value
				}
			}
		}
	}
	return v
}

// testImage builds a raster with the given blocks.
func testImage(rows, cols int, blocks ...testBlock) *Image {
	img := NewImage(rows, cols)
	for _, b := range blocks {
		for r := b.row; r < b.row+b.height; r++ {
			for c := b.col; c < b.col+b.width; c++ {
				img.Set(r, c, b.value)
			}
		}
	}
	return img
}

// testFrame builds a labeled frame from the blocks with raw values equal to them.
func testFrame(rows, cols int, blocks ...testBlock) *Frame {
	raw := testImage(rows, cols, blocks...)
	on := make([]bool, len(raw.Pix))
	for i, v := range raw.Pix {
		on[i] = v > DefaultFieldThresh
	}
	return &Frame{
		Labels: labelComponents(on, rows, cols),
		Raw:    raw,
	}
}

// scanTime returns the time of the i-th scan of a 5 minute cadence.
func scanTime(i int) time.Time {
	return testStart.Add(time.Duration(i) * 5 * time.Minute)
}
