package tint

import (
	"io"
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Field is a masked 3-D array stored z-major: index = (z*ny + y)*nx + x.
type Field struct {
	Data []float64
	// Mask marks missing values. It may be nil.
	Mask      []bool
	FillValue float64
}

// Volume is one gridded scan as yielded by a grid provider.
type Volume struct {
	// Coordinates in meters along each axis.
	Z []float64
	Y []float64
	X []float64

	RadarLon float64
	RadarLat float64

	// TimeUnits holds the scan time as "seconds since 2015-07-10T18:34:06Z".
	TimeUnits string

	Fields map[string]*Field
}

// Shape returns the number of levels, rows and columns.
func (v *Volume) Shape() (nz, ny, nx int) {
	return len(v.Z), len(v.Y), len(v.X)
}

// ScanTime parses the acquisition time from TimeUnits. Sub-second precision is dropped.
func (v *Volume) ScanTime() (time.Time, error) {
	tokens := strings.Fields(v.TimeUnits)
	if len(tokens) == 0 {
		return time.Time{}, errors.Wrap(ErrBadTimestamp, "empty time units")
	}
	stamp := tokens[len(tokens)-1]
	if len(stamp) < 19 {
		return time.Time{}, errors.Wrapf(ErrBadTimestamp, "%q", stamp)
	}
	t, err := time.Parse("2006-01-02 15:04:05", stamp[:10]+" "+stamp[11:19])
	if err != nil {
		return time.Time{}, errors.Wrapf(ErrBadTimestamp, "%q: %v", stamp, err)
	}
	return t, nil
}

// FilledField returns a copy of the named field with masked, NaN and fill
// values replaced by zero.
func (v *Volume) FilledField(name string) ([]float64, error) {
	field, ok := v.Fields[name]
	if !ok || field == nil {
		return nil, errors.Wrapf(ErrFieldNotFound, "%q", name)
	}
	nz, ny, nx := v.Shape()
	if len(field.Data) != nz*ny*nx {
		return nil, errors.Wrapf(ErrShapeMismatch, "field %q has %d values, grid is %dx%dx%d", name, len(field.Data), nz, ny, nx)
	}
	if field.Mask != nil && len(field.Mask) != len(field.Data) {
		return nil, errors.Wrapf(ErrShapeMismatch, "field %q mask has %d values, data has %d", name, len(field.Mask), len(field.Data))
	}
	filled := make([]float64, len(field.Data))
	for i, value := range field.Data {
		if math.IsNaN(value) || value == field.FillValue || (field.Mask != nil && field.Mask[i]) {
			continue
		}
		filled[i] = value
	}
	return filled, nil
}

// GridSize is the cell size in meters along each axis.
type GridSize struct {
	Z float64
	Y float64
	X float64
}

// CellArea returns the horizontal cell area in km².
func (g GridSize) CellArea() float64 {
	return g.Y * g.X / (1000 * 1000)
}

// CellVolume returns the cell volume in km³.
func (g GridSize) CellVolume() float64 {
	return g.Z * g.Y * g.X / (1000 * 1000 * 1000)
}

// NewGridSize derives cell sizes as total extent divided by (count-1) along each axis.
func NewGridSize(v *Volume) GridSize {
	return GridSize{
		Z: axisSize(v.Z),
		Y: axisSize(v.Y),
		X: axisSize(v.X),
	}
}

func axisSize(coords []float64) float64 {
	if len(coords) < 2 {
		return 0
	}
	return (coords[len(coords)-1] - coords[0]) / float64(len(coords)-1)
}

// RadarInfo is the radar location in degrees.
type RadarInfo struct {
	Lon float64
	Lat float64
}

// NewRadarInfo returns the radar location of a volume.
func NewRadarInfo(v *Volume) RadarInfo {
	return RadarInfo{
		Lon: v.RadarLon,
		Lat: v.RadarLat,
	}
}

// VolumeSource yields volumes in increasing time order. Next returns io.EOF
// once the sequence is exhausted. Volumes are pulled one at a time.
type VolumeSource interface {
	Next() (*Volume, error)
}

// SliceSource serves volumes from memory.
type SliceSource struct {
	volumes []*Volume
	pos     int
}

// NewSliceSource creates a source over the given volumes.
func NewSliceSource(volumes ...*Volume) *SliceSource {
	return &SliceSource{
		volumes: volumes,
	}
}

// Next returns the next volume or io.EOF.
func (s *SliceSource) Next() (*Volume, error) {
	if s.pos >= len(s.volumes) {
		return nil, io.EOF
	}
	v := s.volumes[s.pos]
	s.pos++
	return v, nil
}
