package tint

// ObjectProperties are the attributes of one labeled object in one scan.
type ObjectProperties struct {
	Label int
	// Mean pixel position, rounded to 3 decimals.
	GridX float64
	GridY float64
	// Geographic position of the rounded centroid, rounded to 4 decimals.
	Lon float64
	Lat float64
	// Footprint area in km².
	Area float64
	// Volume in km³ of the cells above the detection threshold.
	Volume float64
	// Maximum field value within the object's columns.
	FieldMax float64
	// Height in km of the topmost level above the detection threshold.
	MaxHeight float64
	Isolated  bool
}

// ObjectProps computes the properties of every object of frame from its
// source volume. Element i describes label i+1.
func ObjectProps(frame *LabelImage, v *Volume, field string, record *Record, params Params) ([]ObjectProperties, error) {
	data, err := v.FilledField(field)
	if err != nil {
		return nil, err
	}
	nz, ny, nx := v.Shape()
	plane := ny * nx
	gridSize := record.GridSize
	unitAlt := gridSize.Z / 1000

	isolated := isolation(frame, columnMax(data, nz, ny, nx), params.IsoThresh, params.IsoSmooth)
	objects := frame.Objects()
	props := make([]ObjectProperties, len(objects))
	for i, pixels := range objects {
		rowSum, colSum := 0.0, 0.0
		fieldMax := 0.0
		maxLevel := 0
		voxels := 0
		for n, idx := range pixels {
			rowSum += float64(idx / nx)
			colSum += float64(idx % nx)
			for z := 0; z < nz; z++ {
				value := data[z*plane+idx]
				if (n == 0 && z == 0) || value > fieldMax {
					fieldMax = value
				}
				if value > params.FieldThresh {
					voxels++
					maxLevel = maxInt(maxLevel, z)
				}
			}
		}
		count := float64(len(pixels))
		centroid := NewPoint(rowSum/count, colSum/count)

		row := clampInt(int(roundTo(centroid.Row, 0)), 0, ny-1)
		col := clampInt(int(roundTo(centroid.Col, 0)), 0, nx-1)
		lon, lat := cartesianToGeographic(v.X[col], v.Y[row], record.Radar.Lon, record.Radar.Lat)

		props[i] = ObjectProperties{
			Label:     i + 1,
			GridX:     roundTo(centroid.Col, 3),
			GridY:     roundTo(centroid.Row, 3),
			Lon:       roundTo(lon, 4),
			Lat:       roundTo(lat, 4),
			Area:      count * gridSize.CellArea(),
			Volume:    float64(voxels) * gridSize.CellVolume(),
			FieldMax:  fieldMax,
			MaxHeight: float64(maxLevel) * unitAlt,
			Isolated:  isolated[i],
		}
	}
	return props, nil
}
