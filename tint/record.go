package tint

import (
	"time"

	"github.com/pkg/errors"
)

// Counter issues unique ids. Ids start at 0 and are never reused.
type Counter struct {
	next int
}

// NewCounter creates a counter whose first id is 0.
func NewCounter() *Counter {
	return &Counter{}
}

// NextUID returns a fresh unique id.
func (c *Counter) NextUID() int {
	uid := c.next
	c.next++
	return uid
}

// Issued returns the number of ids handed out so far.
func (c *Counter) Issued() int {
	return c.next
}

// Clone returns an independent copy.
func (c *Counter) Clone() *Counter {
	clone := *c
	return &clone
}

// Record carries per-scan metadata through a session.
type Record struct {
	// Scan index of the frame being written. It is -1 before the first scan.
	Scan int
	Time time.Time
	// Time between the current scan and the next one. Zero when unknown.
	Interval time.Duration
	GridSize GridSize
	Radar    RadarInfo
	// Levels, rows and columns every volume of the session must have.
	Shape [3]int
	// Corrections tallies the branches taken by CorrectShift over the session.
	Corrections [shiftCaseCount]int
}

// NewRecord creates a record with geometry taken from the first volume.
func NewRecord(v *Volume) *Record {
	nz, ny, nx := v.Shape()
	return &Record{
		Scan:     -1,
		GridSize: NewGridSize(v),
		Radar:    NewRadarInfo(v),
		Shape:    [3]int{nz, ny, nx},
	}
}

// CheckShape reports ErrShapeMismatch when v is not on the session grid.
func (r *Record) CheckShape(v *Volume) error {
	nz, ny, nx := v.Shape()
	if shape := [3]int{nz, ny, nx}; shape != r.Shape {
		return errors.Wrapf(ErrShapeMismatch, "volume shape %v differs from session grid %v", shape, r.Shape)
	}
	return nil
}

// Advance moves the record to the scan of v1. When v2 is nil the last scan of
// the sequence is being written and the interval is left untouched.
func (r *Record) Advance(v1, v2 *Volume) error {
	t1, err := v1.ScanTime()
	if err != nil {
		return errors.Wrapf(err, "scan %d", r.Scan+1)
	}
	r.Scan++
	r.Time = t1
	if v2 == nil {
		return nil
	}
	t2, err := v2.ScanTime()
	if err != nil {
		return errors.Wrapf(err, "scan %d", r.Scan+1)
	}
	r.Interval = t2.Sub(t1)
	return nil
}

// CountCorrections adds a matcher tally to the session totals.
func (r *Record) CountCorrections(tally [shiftCaseCount]int) {
	for i, n := range tally {
		r.Corrections[i] += n
	}
}

// Clone returns an independent copy.
func (r *Record) Clone() *Record {
	clone := *r
	return &clone
}
