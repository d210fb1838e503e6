package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/meigma/tarindex/internal/idxtype"
)

// Defaults applied by Open.
const (
	DefaultBusyTimeout = 5 * time.Second
	DefaultSynchronous = "NORMAL"
)

// Store is an open index store.
//
// The underlying pool holds a single connection: the store supports one
// writer, and per-connection pragmas stay in effect for its lifetime.
// Store methods must not be called while a Tx from the same store is open.
type Store struct {
	db          *sql.DB
	path        string
	busyTimeout time.Duration
	synchronous string
	logger      *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithBusyTimeout sets how long SQLite waits on a locked database file.
func WithBusyTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d >= 0 {
			s.busyTimeout = d
		}
	}
}

// WithSynchronous sets the SQLite synchronous mode: OFF, NORMAL, FULL or EXTRA.
// Unknown values are rejected by Open.
func WithSynchronous(mode string) Option {
	return func(s *Store) {
		s.synchronous = strings.ToUpper(strings.TrimSpace(mode))
	}
}

// WithLogger sets the logger for store diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func (s *Store) log() *slog.Logger {
	if s.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.logger
}

// Open opens the index store at path, creating the file and schema if they
// are absent. Opening an existing, current store does not modify it.
//
// Every failure is reported as idxtype.ErrStoreOpen.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:        path,
		busyTimeout: DefaultBusyTimeout,
		synchronous: DefaultSynchronous,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.open(context.Background()); err != nil {
		if s.db != nil {
			_ = s.db.Close()
		}
		return nil, fmt.Errorf("%w: %s: %w", idxtype.ErrStoreOpen, path, err)
	}
	s.log().Debug("index store opened", "path", path, "driver", driverName)
	return s, nil
}

func (s *Store) open(ctx context.Context) error {
	switch s.synchronous {
	case "OFF", "NORMAL", "FULL", "EXTRA":
	default:
		return fmt.Errorf("invalid synchronous mode %q", s.synchronous)
	}

	db, err := sql.Open(driverName, s.path)
	if err != nil {
		return err
	}
	s.db = db
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", s.busyTimeout.Milliseconds()),
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = " + s.synchronous,
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return s.migrate(ctx)
}

// Path returns the store's file path.
func (s *Store) Path() string {
	return s.path
}

// Close releases the store. Calls after Close fail with an error from
// database/sql; a second Close is a no-op.
func (s *Store) Close() error {
	return s.db.Close()
}

// FindArchiveByPath returns the archive record stored for path.
func (s *Store) FindArchiveByPath(ctx context.Context, path string) (idxtype.ArchiveRecord, bool, error) {
	return findArchiveByPath(ctx, s.db, path)
}

// NextArchiveID returns max(archive_id)+1, or 1 for an empty store.
func (s *Store) NextArchiveID(ctx context.Context) (int64, error) {
	return nextArchiveID(ctx, s.db)
}

// FindMembersByName returns every archive holding a member called name,
// ordered by archive id.
func (s *Store) FindMembersByName(ctx context.Context, name string) ([]idxtype.Location, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.path, m.data_offset, m.data_size
		FROM members AS m JOIN archives AS a ON a.archive_id = m.archive_id
		WHERE m.member_name = ?
		ORDER BY m.archive_id`, name)
	if err != nil {
		return nil, fmt.Errorf("find members %q: %w", name, err)
	}
	defer rows.Close()

	var locs []idxtype.Location
	for rows.Next() {
		var loc idxtype.Location
		if err := rows.Scan(&loc.ArchivePath, &loc.Offset, &loc.Size); err != nil {
			return nil, fmt.Errorf("find members %q: %w", name, err)
		}
		locs = append(locs, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find members %q: %w", name, err)
	}
	return locs, nil
}

// Archives returns all archive records ordered by id.
func (s *Store) Archives(ctx context.Context) ([]idxtype.ArchiveRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT archive_id, path, modified_ns FROM archives ORDER BY archive_id`)
	if err != nil {
		return nil, fmt.Errorf("list archives: %w", err)
	}
	defer rows.Close()

	var recs []idxtype.ArchiveRecord
	for rows.Next() {
		var (
			rec idxtype.ArchiveRecord
			ns  int64
		)
		if err := rows.Scan(&rec.ID, &rec.Path, &ns); err != nil {
			return nil, fmt.Errorf("list archives: %w", err)
		}
		rec.ModTime = time.Unix(0, ns)
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list archives: %w", err)
	}
	return recs, nil
}

// Members returns the member records of one archive ordered by name.
func (s *Store) Members(ctx context.Context, archiveID int64) ([]idxtype.MemberRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT member_name, data_offset, data_size FROM members
		WHERE archive_id = ? ORDER BY member_name`, archiveID)
	if err != nil {
		return nil, fmt.Errorf("list members of %d: %w", archiveID, err)
	}
	defer rows.Close()

	var recs []idxtype.MemberRecord
	for rows.Next() {
		rec := idxtype.MemberRecord{ArchiveID: archiveID}
		if err := rows.Scan(&rec.Name, &rec.Offset, &rec.Size); err != nil {
			return nil, fmt.Errorf("list members of %d: %w", archiveID, err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list members of %d: %w", archiveID, err)
	}
	return recs, nil
}

// MemberCount returns the number of member rows for an archive.
func (s *Store) MemberCount(ctx context.Context, archiveID int64) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM members WHERE archive_id = ?`, archiveID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count members of %d: %w", archiveID, err)
	}
	return n, nil
}

func findArchiveByPath(ctx context.Context, q querier, path string) (idxtype.ArchiveRecord, bool, error) {
	var (
		rec idxtype.ArchiveRecord
		ns  int64
	)
	err := q.QueryRowContext(ctx,
		`SELECT archive_id, path, modified_ns FROM archives WHERE path = ?`, path,
	).Scan(&rec.ID, &rec.Path, &ns)
	if errors.Is(err, sql.ErrNoRows) {
		return idxtype.ArchiveRecord{}, false, nil
	}
	if err != nil {
		return idxtype.ArchiveRecord{}, false, fmt.Errorf("find archive %s: %w", path, err)
	}
	rec.ModTime = time.Unix(0, ns)
	return rec, true, nil
}

func nextArchiveID(ctx context.Context, q querier) (int64, error) {
	var maxID sql.NullInt64
	if err := q.QueryRowContext(ctx, `SELECT MAX(archive_id) FROM archives`).Scan(&maxID); err != nil {
		return 0, fmt.Errorf("next archive id: %w", err)
	}
	if !maxID.Valid {
		return 1, nil
	}
	return maxID.Int64 + 1, nil
}
