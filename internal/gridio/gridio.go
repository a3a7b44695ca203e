// Package gridio reads gridded radar volumes stored as JSON documents,
// optionally gzip-compressed.
package gridio

import (
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"

	"github.com/openradar/TINT/tint"
)

const (
	extJSON   = ".json"
	extGzJSON = ".json.gz"
)

// volumeDoc is the on-disk layout of one volume. Null data values are missing.
type volumeDoc struct {
	Time     string              `json:"time"`
	RadarLon float64             `json:"radar_longitude"`
	RadarLat float64             `json:"radar_latitude"`
	Z        []float64           `json:"z"`
	Y        []float64           `json:"y"`
	X        []float64           `json:"x"`
	Fields   map[string]fieldDoc `json:"fields"`
}

type fieldDoc struct {
	Data      []*float64 `json:"data"`
	FillValue *float64   `json:"fill_value,omitempty"`
}

// DecodeVolume reads one JSON volume from r.
func DecodeVolume(r io.Reader) (*tint.Volume, error) {
	var doc volumeDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "decode volume")
	}
	v := &tint.Volume{
		Z:         doc.Z,
		Y:         doc.Y,
		X:         doc.X,
		RadarLon:  doc.RadarLon,
		RadarLat:  doc.RadarLat,
		TimeUnits: doc.Time,
		Fields:    make(map[string]*tint.Field, len(doc.Fields)),
	}
	size := len(doc.Z) * len(doc.Y) * len(doc.X)
	for name, fd := range doc.Fields {
		if len(fd.Data) != size {
			return nil, errors.Wrapf(tint.ErrShapeMismatch, "field %q has %d values, grid is %dx%dx%d",
				name, len(fd.Data), len(doc.Z), len(doc.Y), len(doc.X))
		}
		field := &tint.Field{
			Data:      make([]float64, size),
			FillValue: math.NaN(),
		}
		if fd.FillValue != nil {
			field.FillValue = *fd.FillValue
		}
		for i, value := range fd.Data {
			if value == nil {
				if field.Mask == nil {
					field.Mask = make([]bool, size)
				}
				field.Mask[i] = true
				continue
			}
			field.Data[i] = *value
		}
		v.Fields[name] = field
	}
	return v, nil
}

// EncodeVolume writes v to w as JSON. Masked and NaN values are written as null.
func EncodeVolume(w io.Writer, v *tint.Volume) error {
	doc := volumeDoc{
		Time:     v.TimeUnits,
		RadarLon: v.RadarLon,
		RadarLat: v.RadarLat,
		Z:        v.Z,
		Y:        v.Y,
		X:        v.X,
		Fields:   make(map[string]fieldDoc, len(v.Fields)),
	}
	for name, field := range v.Fields {
		fd := fieldDoc{
			Data: make([]*float64, len(field.Data)),
		}
		if !math.IsNaN(field.FillValue) {
			fill := field.FillValue
			fd.FillValue = &fill
		}
		for i := range field.Data {
			if math.IsNaN(field.Data[i]) || (field.Mask != nil && field.Mask[i]) {
				continue
			}
			fd.Data[i] = &field.Data[i]
		}
		doc.Fields[name] = fd
	}
	return errors.Wrap(json.NewEncoder(w).Encode(doc), "encode volume")
}

// ReadVolume reads the volume file at path. Files ending in .gz are gunzipped.
func ReadVolume(path string) (*tint.Volume, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open volume")
	}
	defer file.Close()

	var r io.Reader = file
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, errors.Wrapf(err, "gunzip %s", path)
		}
		defer gz.Close()
		r = gz
	}
	v, err := DecodeVolume(r)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return v, nil
}

// WriteVolume writes v to path, gzip-compressed when path ends in .gz.
func WriteVolume(path string, v *tint.Volume) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create volume")
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()

	if !strings.HasSuffix(path, ".gz") {
		return EncodeVolume(file, v)
	}
	gz := gzip.NewWriter(file)
	if err := EncodeVolume(gz, v); err != nil {
		return err
	}
	return errors.Wrap(gz.Close(), "gzip volume")
}

// IsVolumeFile reports whether path has a volume file extension.
func IsVolumeFile(path string) bool {
	return strings.HasSuffix(path, extJSON) || strings.HasSuffix(path, extGzJSON)
}

// Source yields volumes from files in order. Each file is read only when
// its volume is requested.
type Source struct {
	paths []string
	pos   int
}

// NewSource creates a source over the given files and directories.
// Directories contribute their volume files sorted by name.
func NewSource(paths ...string) (*Source, error) {
	files := make([]string, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, errors.Wrap(err, "stat volume path")
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, errors.Wrap(err, "read volume directory")
		}
		dirFiles := make([]string, 0, len(entries))
		for _, entry := range entries {
			if entry.IsDir() || !IsVolumeFile(entry.Name()) {
				continue
			}
			dirFiles = append(dirFiles, filepath.Join(path, entry.Name()))
		}
		slices.Sort(dirFiles)
		files = append(files, dirFiles...)
	}
	return &Source{
		paths: files,
	}, nil
}

// Paths returns the files the source reads, in order.
func (s *Source) Paths() []string {
	return slices.Clone(s.paths)
}

// Next reads the next volume or returns io.EOF.
func (s *Source) Next() (*tint.Volume, error) {
	if s.pos >= len(s.paths) {
		return nil, io.EOF
	}
	path := s.paths[s.pos]
	s.pos++
	return ReadVolume(path)
}
