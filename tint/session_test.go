package tint

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
)

type recordingObserver struct {
	scans       []int
	objects     []int
	empty       []int
	minted      int
	corrections map[ShiftCase]int
	elapsed     []time.Duration
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		corrections: make(map[ShiftCase]int),
	}
}

func (o *recordingObserver) ScanProcessed(scan, objects int, elapsed time.Duration) {
	o.scans = append(o.scans, scan)
	o.objects = append(o.objects, objects)
	o.elapsed = append(o.elapsed, elapsed)
}

func (o *recordingObserver) EmptyScan(scan int) {
	o.empty = append(o.empty, scan)
}

func (o *recordingObserver) UIDsMinted(n int) {
	o.minted += n
}

func (o *recordingObserver) ShiftCorrected(shiftCase ShiftCase, n int) {
	o.corrections[shiftCase] += n
}

type failingSource struct {
	volumes *SliceSource
}

func (s *failingSource) Next() (*Volume, error) {
	v, err := s.volumes.Next()
	if err != nil {
		return nil, errors.New("disk on fire")
	}
	return v, nil
}

// movingCell returns n volumes with one cell moving two pixels down and right per scan.
func movingCell(n int) []*Volume {
	volumes := make([]*Volume, n)
	for i := range volumes {
		volumes[i] = testVolume(60, 60, scanTime(i),
			testBlock{row: 20 + 2*i, col: 20 + 2*i, height: 8, width: 8, value: 40},
		)
	}
	return volumes
}

func newTestSession(t *testing.T, opts ...Option) *CellTracks {
	t.Helper()
	opts = append([]Option{WithClock(clockwork.NewFakeClock())}, opts...)
	ct, err := NewCellTracks(testField, DefaultParams(), opts...)
	if err != nil {
		t.Fatal(err)
	}
	return ct
}

func TestGetTracksMovingCell(t *testing.T) {
	observer := newRecordingObserver()
	ct := newTestSession(t, WithObserver(observer))
	if err := ct.GetTracks(NewSliceSource(movingCell(3)...)); err != nil {
		t.Fatal(err)
	}

	tracks := ct.Tracks()
	if tracks.Len() != 3 {
		t.Fatalf("Wrong number of rows: %d, expected 3", tracks.Len())
	}
	for scan := 0; scan < 3; scan++ {
		rows := tracks.ScanRows(scan)
		if len(rows) != 1 {
			t.Errorf("Scan %d: wrong number of rows %d", scan, len(rows))
			continue
		}
		if rows[0].UID != 0 {
			t.Errorf("Scan %d: the cell must keep uid 0, got %d", scan, rows[0].UID)
		}
		if !rows[0].Time.Equal(scanTime(scan)) {
			t.Errorf("Scan %d: wrong time %v", scan, rows[0].Time)
		}
		expectedCentroid := 23.5 + 2*float64(scan)
		if rows[0].GridX != expectedCentroid || rows[0].GridY != expectedCentroid {
			t.Errorf("Scan %d: wrong centroid %v %v", scan, rows[0].GridX, rows[0].GridY)
		}
	}

	// The committed record is the state before the final scan was written
	record := ct.Record()
	if record.Scan != 1 || record.Interval != 5*time.Minute {
		t.Errorf("Wrong committed record: scan %d interval %v", record.Scan, record.Interval)
	}
	if record.Corrections[ShiftCaseLocal] != 2 {
		t.Errorf("Wrong shift corrections: %v", record.Corrections)
	}
	if ct.GridSize() != (GridSize{Z: 1000, Y: 1000, X: 1000}) {
		t.Errorf("Wrong grid size: %+v", ct.GridSize())
	}
	if ct.Radar() != (RadarInfo{Lon: 131.04, Lat: -12.25}) {
		t.Errorf("Wrong radar: %+v", ct.Radar())
	}

	if diff := cmp.Diff([]int{0, 1, 2}, observer.scans); diff != "" {
		t.Errorf("Wrong processed scans (-want +got):\n%s", diff)
	}
	if observer.minted != 1 {
		t.Errorf("Wrong number of minted uids: %d", observer.minted)
	}
	for _, elapsed := range observer.elapsed {
		if elapsed != 0 {
			t.Errorf("Fake clock must not advance, got %v", elapsed)
		}
	}
}

func TestGetTracksEmptyScan(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	observer := newRecordingObserver()
	ct := newTestSession(t, WithLogger(logger), WithObserver(observer))

	cell := testBlock{row: 20, col: 20, height: 8, width: 8, value: 40}
	volumes := []*Volume{
		testVolume(60, 60, scanTime(0), cell),
		testVolume(60, 60, scanTime(1)),
		testVolume(60, 60, scanTime(2), cell),
	}
	if err := ct.GetTracks(NewSliceSource(volumes...)); err != nil {
		t.Fatal(err)
	}

	tracks := ct.Tracks()
	if diff := cmp.Diff([]int{0, 2}, tracks.Scans()); diff != "" {
		t.Errorf("Wrong scans (-want +got):\n%s", diff)
	}
	if rows := tracks.ScanRows(0); len(rows) != 1 || rows[0].UID != 0 {
		t.Errorf("Wrong rows of scan 0: %+v", rows)
	}
	// A new rain period starts over with a fresh uid
	if rows := tracks.ScanRows(2); len(rows) != 1 || rows[0].UID != 1 {
		t.Errorf("Wrong rows of scan 2: %+v", rows)
	}
	if diff := cmp.Diff([]int{1}, observer.empty); diff != "" {
		t.Errorf("Wrong empty scans (-want +got):\n%s", diff)
	}
	if !strings.Contains(logs.String(), "no cells found in scan") {
		t.Errorf("Empty scan was not logged: %s", logs.String())
	}
}

func TestGetTracksSplit(t *testing.T) {
	volumes := []*Volume{
		testVolume(60, 60, scanTime(0),
			testBlock{row: 20, col: 20, height: 10, width: 10, value: 40},
		),
		testVolume(60, 60, scanTime(1),
			testBlock{row: 20, col: 20, height: 10, width: 10, value: 40},
			testBlock{row: 20, col: 32, height: 6, width: 6, value: 40},
		),
	}
	ct := newTestSession(t)
	if err := ct.GetTracks(NewSliceSource(volumes...)); err != nil {
		t.Fatal(err)
	}

	first := ct.Tracks().ScanRows(0)
	if len(first) != 1 || first[0].UID != 0 || !first[0].Isolated || first[0].Origin != NoOrigin {
		t.Errorf("Wrong rows of scan 0: %+v", first)
	}
	second := ct.Tracks().ScanRows(1)
	if len(second) != 2 {
		t.Fatalf("Wrong number of rows in scan 1: %d", len(second))
	}
	if second[0].UID != 0 || second[0].Origin != NoOrigin || second[0].Isolated {
		t.Errorf("Wrong parent row: %+v", second[0])
	}
	if second[1].UID != 1 || second[1].Origin != 0 || second[1].Isolated {
		t.Errorf("Wrong split row: %+v", second[1])
	}
}

func TestGetTracksResume(t *testing.T) {
	volumes := make([]*Volume, 5)
	for i := range volumes {
		volumes[i] = testVolume(60, 60, scanTime(i),
			testBlock{row: 10 + 2*i, col: 10 + 2*i, height: 8, width: 8, value: 40},
			testBlock{row: 45, col: 45, height: 6, width: 6, value: 50},
		)
	}

	onePass := newTestSession(t)
	if err := onePass.GetTracks(NewSliceSource(volumes...)); err != nil {
		t.Fatal(err)
	}

	resumed := newTestSession(t)
	if err := resumed.GetTracks(NewSliceSource(volumes[:3]...)); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{0, 1, 2}, resumed.Tracks().Scans()); diff != "" {
		t.Errorf("Wrong scans before resuming (-want +got):\n%s", diff)
	}
	if err := resumed.GetTracks(NewSliceSource(volumes[3:]...)); err != nil {
		t.Fatal(err)
	}

	for scan := 0; scan < 5; scan++ {
		if n := len(onePass.Tracks().ScanRows(scan)); n != 2 {
			t.Errorf("Scan %d: wrong number of rows %d", scan, n)
		}
	}
	if diff := cmp.Diff(onePass.Tracks().Rows(), resumed.Tracks().Rows()); diff != "" {
		t.Errorf("Resumed tracks differ (-one pass +resumed):\n%s", diff)
	}
	if diff := cmp.Diff(onePass.Record(), resumed.Record()); diff != "" {
		t.Errorf("Resumed record differs (-one pass +resumed):\n%s", diff)
	}
}

func TestGetTracksResumeAroundEmptyScans(t *testing.T) {
	empty := map[int]bool{2: true, 5: true}
	volumes := make([]*Volume, 7)
	for i := range volumes {
		if empty[i] {
			volumes[i] = testVolume(60, 60, scanTime(i))
			continue
		}
		volumes[i] = testVolume(60, 60, scanTime(i),
			testBlock{row: 10 + 2*i, col: 10 + 2*i, height: 8, width: 8, value: 40},
			testBlock{row: 45, col: 45, height: 6, width: 6, value: 50},
		)
	}

	onePass := newTestSession(t)
	if err := onePass.GetTracks(NewSliceSource(volumes...)); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{0, 1, 3, 4, 6}, onePass.Tracks().Scans()); diff != "" {
		t.Fatalf("Wrong scans (-want +got):\n%s", diff)
	}

	cuts := []struct {
		name string
		at   int
	}{
		{"after first scan", 1},
		{"before empty scan", 2},
		{"last scan empty", 3},
		{"last scan follows empty", 4},
		{"second empty scan last", 6},
	}
	for _, cut := range cuts {
		resumed := newTestSession(t)
		if err := resumed.GetTracks(NewSliceSource(volumes[:cut.at]...)); err != nil {
			t.Fatalf("%s: %v", cut.name, err)
		}
		if err := resumed.GetTracks(NewSliceSource(volumes[cut.at:]...)); err != nil {
			t.Fatalf("%s: %v", cut.name, err)
		}
		if diff := cmp.Diff(onePass.Tracks().Rows(), resumed.Tracks().Rows()); diff != "" {
			t.Errorf("%s: resumed tracks differ (-one pass +resumed):\n%s", cut.name, diff)
		}
		if diff := cmp.Diff(onePass.Record(), resumed.Record()); diff != "" {
			t.Errorf("%s: resumed record differs (-one pass +resumed):\n%s", cut.name, diff)
		}
	}
}

func TestGetTracksShapeMismatch(t *testing.T) {
	cell := testBlock{row: 20, col: 20, height: 8, width: 8, value: 40}
	volumes := []*Volume{
		testVolume(60, 60, scanTime(0), cell),
		testVolume(60, 60, scanTime(1), cell),
		testVolume(40, 40, scanTime(2), cell),
	}
	ct := newTestSession(t)
	err := ct.GetTracks(NewSliceSource(volumes...))
	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("Wrong error for a volume on another grid: %v", err)
	}
	if !strings.Contains(err.Error(), "scan 2") {
		t.Errorf("Error must name the offending scan: %v", err)
	}
	if rows := ct.Tracks().ScanRows(0); len(rows) != 1 {
		t.Errorf("Scans before the mismatch must be kept, got %+v", rows)
	}
	// A failed run can't be resumed
	if err := ct.GetTracks(NewSliceSource(volumes[:1]...)); err == nil {
		t.Errorf("Resuming a failed session must fail")
	}
}

func TestGetTracksSingleVolume(t *testing.T) {
	ct := newTestSession(t)
	err := ct.GetTracks(NewSliceSource(movingCell(1)...))
	if err != nil {
		t.Fatal(err)
	}
	if ct.Tracks().Len() != 1 {
		t.Errorf("Wrong number of rows: %d", ct.Tracks().Len())
	}
	if ct.Record().Scan != -1 {
		t.Errorf("Wrong committed scan: %d", ct.Record().Scan)
	}
}

func TestGetTracksErrors(t *testing.T) {
	ct := newTestSession(t)
	if ct.Record() != nil {
		t.Errorf("Record must be nil before the first call")
	}
	if err := ct.GetTracks(NewSliceSource()); !errors.Is(err, ErrNoVolumes) {
		t.Errorf("Wrong error for an empty source: %v", err)
	}

	ct = newTestSession(t)
	err := ct.GetTracks(&failingSource{volumes: NewSliceSource(movingCell(2)...)})
	if err == nil || !strings.Contains(err.Error(), "disk on fire") {
		t.Errorf("Provider error must be returned, got %v", err)
	}

	if _, err := NewCellTracks("", DefaultParams()); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("Wrong error for an empty field name: %v", err)
	}
	params := DefaultParams()
	params.FieldThresh = -5
	if _, err := NewCellTracks(testField, params); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("Wrong error for invalid params: %v", err)
	}

	ct = newTestSession(t)
	volume := testVolume(10, 10, testStart)
	delete(volume.Fields, testField)
	if err := ct.GetTracks(NewSliceSource(volume)); !errors.Is(err, ErrFieldNotFound) {
		t.Errorf("Wrong error for a missing field: %v", err)
	}
}
