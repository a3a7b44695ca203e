// Package store persists track tables.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"time"

	"github.com/gofrs/flock"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/openradar/TINT/tint"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrLocked is returned when another process holds the database.
var ErrLocked = errors.New("track database is locked by another process")

const timeLayout = time.RFC3339Nano

// Session describes one tracking run.
type Session struct {
	ID        uuid.UUID
	Field     string
	GridSize  tint.GridSize
	Radar     tint.RadarInfo
	Params    tint.Params
	CreatedAt time.Time
}

// SQLite stores sessions and their tracks in one database file.
type SQLite struct {
	db   *sql.DB
	lock *flock.Flock
}

// OpenSQLite opens or creates the database at path and migrates its schema.
// The file is locked until Close.
func OpenSQLite(path string) (*SQLite, error) {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, errors.Wrap(err, "lock track database")
	}
	if !locked {
		return nil, errors.Wrap(ErrLocked, path)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		lock.Unlock()
		return nil, errors.Wrap(err, "open track database")
	}
	db.SetMaxOpenConns(1)
	if err := migrateUp(db); err != nil {
		db.Close()
		lock.Unlock()
		return nil, err
	}
	return &SQLite{
		db:   db,
		lock: lock,
	}, nil
}

func migrateUp(db *sql.DB) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return errors.Wrap(err, "load migrations")
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return errors.Wrap(err, "create sqlite migration driver")
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return errors.Wrap(err, "create migrate instance")
	}
	// m is not closed: closing it would close db
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "migrate track database")
	}
	return nil
}

// Close closes the database and releases the file lock.
func (s *SQLite) Close() error {
	err := s.db.Close()
	if uerr := s.lock.Unlock(); err == nil {
		err = uerr
	}
	return err
}

// SaveSession inserts or updates the description of a session.
func (s *SQLite) SaveSession(ctx context.Context, session Session) error {
	params, err := json.Marshal(session.Params)
	if err != nil {
		return errors.Wrap(err, "encode params")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, field, grid_dz, grid_dy, grid_dx, radar_lon, radar_lat, params, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			field = excluded.field,
			grid_dz = excluded.grid_dz,
			grid_dy = excluded.grid_dy,
			grid_dx = excluded.grid_dx,
			radar_lon = excluded.radar_lon,
			radar_lat = excluded.radar_lat,
			params = excluded.params`,
		session.ID.String(), session.Field,
		session.GridSize.Z, session.GridSize.Y, session.GridSize.X,
		session.Radar.Lon, session.Radar.Lat,
		string(params), session.CreatedAt.UTC().Format(timeLayout),
	)
	return errors.Wrap(err, "save session")
}

// LoadSession returns the stored description of a session.
func (s *SQLite) LoadSession(ctx context.Context, id uuid.UUID) (Session, error) {
	var (
		session   Session
		params    string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT field, grid_dz, grid_dy, grid_dx, radar_lon, radar_lat, params, created_at
		FROM sessions WHERE session_id = ?`, id.String(),
	).Scan(&session.Field,
		&session.GridSize.Z, &session.GridSize.Y, &session.GridSize.X,
		&session.Radar.Lon, &session.Radar.Lat, &params, &createdAt)
	if err != nil {
		return Session{}, errors.Wrapf(err, "load session %s", id)
	}
	session.ID = id
	if err := json.Unmarshal([]byte(params), &session.Params); err != nil {
		return Session{}, errors.Wrap(err, "decode params")
	}
	session.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return Session{}, errors.Wrap(err, "decode session time")
	}
	return session, nil
}

// ReplaceTracks replaces every stored row of a session with rows.
func (s *SQLite) ReplaceTracks(ctx context.Context, sessionID uuid.UUID, rows []tint.Row) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM tracks WHERE session_id = ?", sessionID.String()); err != nil {
		return errors.Wrap(err, "delete tracks")
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tracks (session_id, scan, uid, time, grid_x, grid_y, lon, lat, area, volume, max, max_alt, isolated, origin, obs_num)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "prepare insert")
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err = stmt.ExecContext(ctx, sessionID.String(), row.Scan, row.UID, row.Time.UTC().Format(timeLayout),
			row.GridX, row.GridY, row.Lon, row.Lat, row.Area, row.Volume, row.Max, row.MaxAlt,
			row.Isolated, row.Origin, row.Observations)
		if err != nil {
			return errors.Wrapf(err, "insert row scan %d uid %d", row.Scan, row.UID)
		}
	}
	return errors.Wrap(tx.Commit(), "commit tracks")
}

// LoadTracks returns the rows of a session ordered by scan and uid.
func (s *SQLite) LoadTracks(ctx context.Context, sessionID uuid.UUID) ([]tint.Row, error) {
	rs, err := s.db.QueryContext(ctx, `
		SELECT scan, uid, time, grid_x, grid_y, lon, lat, area, volume, max, max_alt, isolated, origin, obs_num
		FROM tracks WHERE session_id = ?
		ORDER BY scan, uid`, sessionID.String())
	if err != nil {
		return nil, errors.Wrap(err, "query tracks")
	}
	defer rs.Close()

	rows := make([]tint.Row, 0)
	for rs.Next() {
		var (
			row   tint.Row
			stamp string
		)
		err := rs.Scan(&row.Scan, &row.UID, &stamp, &row.GridX, &row.GridY, &row.Lon, &row.Lat,
			&row.Area, &row.Volume, &row.Max, &row.MaxAlt, &row.Isolated, &row.Origin, &row.Observations)
		if err != nil {
			return nil, errors.Wrap(err, "scan track row")
		}
		row.Time, err = time.Parse(timeLayout, stamp)
		if err != nil {
			return nil, errors.Wrap(err, "decode row time")
		}
		rows = append(rows, row)
	}
	return rows, errors.Wrap(rs.Err(), "iterate tracks")
}

// ListSessions returns every stored session, oldest first.
func (s *SQLite) ListSessions(ctx context.Context) ([]Session, error) {
	rs, err := s.db.QueryContext(ctx, "SELECT session_id FROM sessions ORDER BY created_at, session_id")
	if err != nil {
		return nil, errors.Wrap(err, "query sessions")
	}
	ids := make([]uuid.UUID, 0)
	for rs.Next() {
		var raw string
		if err := rs.Scan(&raw); err != nil {
			rs.Close()
			return nil, errors.Wrap(err, "scan session id")
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			rs.Close()
			return nil, errors.Wrapf(err, "parse session id %q", raw)
		}
		ids = append(ids, id)
	}
	if err := rs.Err(); err != nil {
		rs.Close()
		return nil, errors.Wrap(err, "iterate sessions")
	}
	// The single connection must be released before LoadSession queries again
	rs.Close()

	sessions := make([]Session, 0, len(ids))
	for _, id := range ids {
		session, err := s.LoadSession(ctx, id)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}
