package tint

import (
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
)

// Observer receives session events. Implementations must be cheap; they are
// called synchronously from the scan loop.
type Observer interface {
	// ScanProcessed is called after the row group of a nonempty scan is written.
	ScanProcessed(scan, objects int, elapsed time.Duration)
	// EmptyScan is called for scans without objects.
	EmptyScan(scan int)
	// UIDsMinted reports fresh unique ids issued during one scan transition.
	UIDsMinted(n int)
	// ShiftCorrected reports how many predictions used each shift estimate.
	ShiftCorrected(shiftCase ShiftCase, n int)
}

type nopObserver struct{}

func (nopObserver) ScanProcessed(int, int, time.Duration) {}
func (nopObserver) EmptyScan(int)                         {}
func (nopObserver) UIDsMinted(int)                        {}
func (nopObserver) ShiftCorrected(ShiftCase, int)         {}

// Option configures a CellTracks session.
type Option func(*CellTracks)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(ct *CellTracks) {
		if logger != nil {
			ct.logger = logger
		}
	}
}

// WithClock sets the clock used for elapsed time reporting.
func WithClock(clock clockwork.Clock) Option {
	return func(ct *CellTracks) {
		if clock != nil {
			ct.clock = clock
		}
	}
}

// WithObserver sets the receiver of session events.
func WithObserver(observer Observer) Option {
	return func(ct *CellTracks) {
		if observer != nil {
			ct.observer = observer
		}
	}
}

// sessionState is the part of a session that is checkpointed before the
// final scan of a sequence is written.
type sessionState struct {
	record  *Record
	counter *Counter
	current CurrentObjects
}

func (s sessionState) clone() sessionState {
	clone := sessionState{
		current: s.current.Clone(),
	}
	if s.record != nil {
		clone.record = s.record.Clone()
	}
	if s.counter != nil {
		clone.counter = s.counter.Clone()
	}
	return clone
}

// CellTracks tracks storm cells through a sequence of volumes of one field.
// A session is not safe for concurrent use.
type CellTracks struct {
	ID     uuid.UUID
	field  string
	params Params

	matcher *Matcher
	tracks  *TrackTable

	record  *Record
	counter *Counter
	current CurrentObjects

	saved      sessionState
	lastVolume *Volume

	logger   *slog.Logger
	clock    clockwork.Clock
	observer Observer
}

// NewCellTracks creates a session tracking the named field. The returned
// error wraps ErrInvalidParams when params are malformed.
func NewCellTracks(field string, params Params, opts ...Option) (*CellTracks, error) {
	if field == "" {
		return nil, errors.Wrap(ErrInvalidParams, "field name is empty")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	ct := &CellTracks{
		ID:       uuid.New(),
		field:    field,
		params:   params,
		matcher:  NewMatcher(params),
		tracks:   NewTrackTable(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:    clockwork.NewRealClock(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(ct)
	}
	return ct, nil
}

// Field returns the name of the tracked field.
func (ct *CellTracks) Field() string {
	return ct.field
}

// Params returns the tracking parameters.
func (ct *CellTracks) Params() Params {
	return ct.params
}

// Tracks returns the track table.
func (ct *CellTracks) Tracks() *TrackTable {
	return ct.tracks
}

// GridSize returns the cell size of the session grid. It is zero before the
// first call to GetTracks.
func (ct *CellTracks) GridSize() GridSize {
	if ct.record == nil {
		return GridSize{}
	}
	return ct.record.GridSize
}

// Radar returns the radar location of the session grid.
func (ct *CellTracks) Radar() RadarInfo {
	if ct.record == nil {
		return RadarInfo{}
	}
	return ct.record.Radar
}

// Record returns a copy of the committed scan record, or nil before the first
// call to GetTracks.
func (ct *CellTracks) Record() *Record {
	if ct.record == nil {
		return nil
	}
	return ct.record.Clone()
}

// GetTracks consumes src and appends the tracks it contains. The first call
// starts the session from the first volume of src. Later calls resume from
// the last volume of the previous call: its row group is rewritten with
// knowledge of the new volumes.
func (ct *CellTracks) GetTracks(src VolumeSource) error {
	start := ct.clock.Now()
	var volume2 *Volume
	if ct.record == nil {
		first, err := src.Next()
		if err == io.EOF {
			return ErrNoVolumes
		}
		if err != nil {
			return errors.Wrap(err, "can't read first volume")
		}
		volume2 = first
		ct.record = NewRecord(first)
		ct.counter = NewCounter()
		ct.logger.Info("session started",
			slog.String("session", ct.ID.String()),
			slog.String("field", ct.field),
			slog.Float64("dz", ct.record.GridSize.Z),
			slog.Float64("dy", ct.record.GridSize.Y),
			slog.Float64("dx", ct.record.GridSize.X),
		)
	} else {
		if ct.lastVolume == nil {
			return errors.New("can't resume a session whose previous run failed")
		}
		volume2 = ct.lastVolume
		ct.load()
		dropped := ct.tracks.DropScan(ct.record.Scan + 1)
		ct.logger.Info("session resumed",
			slog.String("session", ct.ID.String()),
			slog.Int("scan", ct.record.Scan+1),
			slog.Int("dropped_rows", dropped),
		)
	}

	// set again once the sequence is fully consumed
	ct.lastVolume = nil

	newRain := ct.current == nil
	frame2, err := ExtractFrame(volume2, ct.field, ct.record.GridSize, ct.params)
	if err != nil {
		return errors.Wrapf(err, "scan %d", ct.record.Scan+1)
	}

	scans := 0
	for volume2 != nil {
		scanStart := ct.clock.Now()
		volume1, frame1 := volume2, frame2

		volume2, err = src.Next()
		if err == io.EOF {
			volume2 = nil
		} else if err != nil {
			return errors.Wrapf(err, "can't read volume after scan %d", ct.record.Scan+1)
		}

		if volume2 != nil {
			if err := ct.record.CheckShape(volume2); err != nil {
				return errors.Wrapf(err, "scan %d", ct.record.Scan+2)
			}
			if err := ct.record.Advance(volume1, volume2); err != nil {
				return err
			}
			frame2, err = ExtractFrame(volume2, ct.field, ct.record.GridSize, ct.params)
			if err != nil {
				return errors.Wrapf(err, "scan %d", ct.record.Scan+1)
			}
		} else {
			// the final scan is written against an empty frame
			ct.save()
			ct.lastVolume = volume1
			if err := ct.record.Advance(volume1, nil); err != nil {
				return err
			}
			frame2 = &Frame{
				Labels: NewLabelImage(frame1.Labels.Rows, frame1.Labels.Cols),
			}
		}
		scans++

		if frame1.Labels.Count == 0 {
			newRain = true
			ct.current = nil
			ct.logger.Info("no cells found in scan", slog.Int("scan", ct.record.Scan))
			ct.observer.EmptyScan(ct.record.Scan)
			continue
		}

		globalShift := GlobalShift(frame1.Raw, frame2.Raw, ct.params)
		pairs, tally := ct.matcher.Match(frame1, frame2, globalShift, ct.record)
		ct.record.CountCorrections(tally)

		issued := ct.counter.Issued()
		if newRain {
			ct.current = InitCurrentObjects(frame1.Labels, pairs, ct.counter)
			newRain = false
		} else {
			ct.current = UpdateCurrentObjects(frame1.Labels, pairs, ct.current, ct.counter, ct.params.NearThresh)
		}
		minted := ct.counter.Issued() - issued

		props, err := ObjectProps(frame1.Labels, volume1, ct.field, ct.record, ct.params)
		if err != nil {
			return errors.Wrapf(err, "scan %d", ct.record.Scan)
		}
		ct.tracks.Append(ct.record, ct.current, props)

		ct.observer.UIDsMinted(minted)
		for shiftCase, n := range tally {
			if n > 0 {
				ct.observer.ShiftCorrected(ShiftCase(shiftCase), n)
			}
		}
		ct.observer.ScanProcessed(ct.record.Scan, frame1.Labels.Count, ct.clock.Since(scanStart))
		ct.logger.Debug("scan processed",
			slog.Int("scan", ct.record.Scan),
			slog.Int("objects", frame1.Labels.Count),
			slog.Int("uids_minted", minted),
			slog.Any("global_shift", globalShift),
		)
	}
	ct.load()

	ct.logger.Info("session finished",
		slog.String("session", ct.ID.String()),
		slog.Int("scans", scans),
		slog.Int("rows", ct.tracks.Len()),
		slog.Duration("elapsed", ct.clock.Since(start)),
	)
	return nil
}

// save checkpoints the live state.
func (ct *CellTracks) save() {
	ct.saved = sessionState{
		record:  ct.record,
		counter: ct.counter,
		current: ct.current,
	}.clone()
}

// load makes a copy of the checkpoint the live state.
func (ct *CellTracks) load() {
	state := ct.saved.clone()
	ct.record = state.record
	ct.counter = state.counter
	ct.current = state.current
}
