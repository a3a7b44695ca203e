package tint

import (
	"slices"
	"time"
)

// Row is one object observed in one scan. Rows are keyed by (Scan, UID).
type Row struct {
	Scan     int
	UID      int
	Time     time.Time
	GridX    float64
	GridY    float64
	Lon      float64
	Lat      float64
	Area     float64
	Volume   float64
	Max      float64
	MaxAlt   float64
	Isolated bool
	Origin   int

	// Consecutive earlier scans the cell was observed in.
	Observations int
}

// TrackTable collects rows in the order their scans were processed.
type TrackTable struct {
	rows []Row
}

// NewTrackTable creates an empty table.
func NewTrackTable() *TrackTable {
	return &TrackTable{
		rows: make([]Row, 0),
	}
}

// NewTrackTableFrom creates a table holding a copy of rows.
func NewTrackTableFrom(rows []Row) *TrackTable {
	return &TrackTable{
		rows: slices.Clone(rows),
	}
}

// Append writes the row group of the record's scan: one row per object, in
// label order.
func (t *TrackTable) Append(record *Record, current CurrentObjects, props []ObjectProperties) {
	for _, prop := range props {
		object, ok := current[prop.Label]
		if !ok {
			continue
		}
		t.rows = append(t.rows, Row{
			Scan:     record.Scan,
			UID:      object.UID,
			Time:     record.Time,
			GridX:    prop.GridX,
			GridY:    prop.GridY,
			Lon:      prop.Lon,
			Lat:      prop.Lat,
			Area:     prop.Area,
			Volume:   prop.Volume,
			Max:      prop.FieldMax,
			MaxAlt:   prop.MaxHeight,
			Isolated: prop.Isolated,
			Origin:   object.Origin,

			Observations: object.Observations,
		})
	}
}

// DropScan removes every row of scan and returns how many were removed.
func (t *TrackTable) DropScan(scan int) int {
	before := len(t.rows)
	t.rows = slices.DeleteFunc(t.rows, func(row Row) bool {
		return row.Scan == scan
	})
	return before - len(t.rows)
}

// Rows returns a copy of all rows.
func (t *TrackTable) Rows() []Row {
	return slices.Clone(t.rows)
}

// ScanRows returns the rows of one scan in uid order.
func (t *TrackTable) ScanRows(scan int) []Row {
	rows := make([]Row, 0)
	for _, row := range t.rows {
		if row.Scan == scan {
			rows = append(rows, row)
		}
	}
	slices.SortStableFunc(rows, func(a, b Row) int {
		return a.UID - b.UID
	})
	return rows
}

// Len returns the number of rows.
func (t *TrackTable) Len() int {
	return len(t.rows)
}

// Scans returns the distinct scan indices present, in increasing order.
func (t *TrackTable) Scans() []int {
	scans := make([]int, 0)
	for _, row := range t.rows {
		scans = append(scans, row.Scan)
	}
	slices.Sort(scans)
	return slices.Compact(scans)
}
