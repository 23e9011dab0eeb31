package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"admission-intake/internal/common/logger"
	"admission-intake/internal/models"
)

// Dialect selects placeholder syntax and DDL.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// ApplicationIDPrefix and ApplicationIDWidth define the external id format.
const (
	ApplicationIDPrefix = "APP-"
	ApplicationIDWidth  = 5

	pendingPrefix = "pending-"
)

var (
	ErrNotFound     = errors.New("application not found")
	ErrInsertFailed = errors.New("application insert failed")
)

// FormatApplicationID derives the external id from a row id, e.g. 42 → APP-00042.
func FormatApplicationID(rowID int64) string {
	return fmt.Sprintf("%s%0*d", ApplicationIDPrefix, ApplicationIDWidth, rowID)
}

// Sequence hands out row ids for stores that cannot assign them atomically.
// EnsureAbove raises the counter so it never hands out an id at or below
// floor.
type Sequence interface {
	Next(ctx context.Context) (int64, error)
	EnsureAbove(ctx context.Context, floor int64) error
}

// maxSequenceAttempts bounds how often a sequenced insert resyncs and
// retries after hitting an id that is already taken.
const maxSequenceAttempts = 3

// SQLStore persists applications in a SQL database. Row ids come from the
// database's auto-increment inside a transaction, or from a Sequence when
// one is configured.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	seq     Sequence
	logger  logger.Logger
	now     func() time.Time
}

type Option func(*SQLStore)

// WithSequence makes the store take row ids from seq instead of the database.
func WithSequence(seq Sequence) Option {
	return func(s *SQLStore) { s.seq = seq }
}

// WithClock overrides the created_at clock.
func WithClock(now func() time.Time) Option {
	return func(s *SQLStore) { s.now = now }
}

func NewSQLStore(db *sql.DB, dialect Dialect, log logger.Logger, opts ...Option) *SQLStore {
	s := &SQLStore{
		db:      db,
		dialect: dialect,
		logger:  log.WithFields(map[string]interface{}{"component": "store", "dialect": string(dialect)}),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates the applications table if it does not exist. With a
// sequence configured, the counter is moved past the highest stored id so
// rows written before the sequence was enabled are never collided with.
func (s *SQLStore) Migrate(ctx context.Context) error {
	ddl := sqliteSchema
	if s.dialect == DialectPostgres {
		ddl = postgresSchema
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("migrate applications: %w", err)
	}
	if s.seq != nil {
		if err := s.syncSequence(ctx); err != nil {
			return fmt.Errorf("migrate applications: %w", err)
		}
	}
	return nil
}

func (s *SQLStore) syncSequence(ctx context.Context) error {
	var maxID int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM applications`).Scan(&maxID); err != nil {
		return fmt.Errorf("read max id: %w", err)
	}
	if err := s.seq.EnsureAbove(ctx, maxID); err != nil {
		return err
	}
	s.logger.Debug("sequence synced", map[string]interface{}{"maxId": maxID})
	return nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS applications (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	address TEXT NOT NULL,
	qualifications TEXT NOT NULL,
	course TEXT NOT NULL,
	start_year_month TEXT NOT NULL,
	application_id TEXT NOT NULL UNIQUE,
	created_at TEXT NOT NULL
)`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS applications (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	address TEXT NOT NULL,
	qualifications TEXT NOT NULL,
	course TEXT NOT NULL,
	start_year_month TEXT NOT NULL,
	application_id TEXT NOT NULL UNIQUE,
	created_at TEXT NOT NULL
)`

// Insert stores rec and returns the stored row with its application id.
// The id is written in the same transaction as the row, so no reader ever
// sees a row without one. The row is first written with a unique pending
// marker since the real id depends on the row id.
func (s *SQLStore) Insert(ctx context.Context, rec models.ApplicationRecord) (*models.StoredApplication, error) {
	createdAt := s.now().UTC().Format(time.RFC3339)

	var (
		rowID int64
		err   error
	)
	if s.seq != nil {
		rowID, err = s.insertSequenced(ctx, rec, createdAt)
	} else {
		rowID, err = s.insertAutoIncrement(ctx, rec, createdAt)
	}
	if err != nil {
		return nil, err
	}

	stored := &models.StoredApplication{
		RowID:             rowID,
		ApplicationID:     FormatApplicationID(rowID),
		ApplicationRecord: rec,
		CreatedAt:         createdAt,
	}
	s.logger.Info("application stored", map[string]interface{}{
		"rowId":         rowID,
		"applicationId": stored.ApplicationID,
		"course":        rec.Course,
	})
	return stored, nil
}

func (s *SQLStore) insertAutoIncrement(ctx context.Context, rec models.ApplicationRecord, createdAt string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin: %v", ErrInsertFailed, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var rowID int64
	err = tx.QueryRowContext(ctx, s.rebind(`
		INSERT INTO applications (name, address, qualifications, course, start_year_month, application_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		rec.Name,
		rec.Address,
		rec.Qualifications,
		rec.Course,
		rec.StartPeriod,
		pendingPrefix+uuid.NewString(),
		createdAt,
	).Scan(&rowID)
	if err != nil {
		return 0, fmt.Errorf("%w: insert: %v", ErrInsertFailed, err)
	}

	if _, err := tx.ExecContext(ctx, s.rebind(`UPDATE applications SET application_id = ? WHERE id = ?`),
		FormatApplicationID(rowID), rowID); err != nil {
		return 0, fmt.Errorf("%w: assign application id: %v", ErrInsertFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit: %v", ErrInsertFailed, err)
	}
	committed = true
	return rowID, nil
}

// insertSequenced takes the row id from the sequence. If the id is already
// taken the sequence is resynced from the table and the insert retried.
func (s *SQLStore) insertSequenced(ctx context.Context, rec models.ApplicationRecord, createdAt string) (int64, error) {
	for attempt := 1; ; attempt++ {
		rowID, err := s.seq.Next(ctx)
		if err != nil {
			return 0, fmt.Errorf("%w: next id: %v", ErrInsertFailed, err)
		}

		err = s.insertWithID(ctx, rowID, rec, createdAt)
		if err == nil {
			return rowID, nil
		}
		if !isUniqueViolation(err) || attempt == maxSequenceAttempts {
			return 0, fmt.Errorf("%w: insert id %d: %v", ErrInsertFailed, rowID, err)
		}

		s.logger.Warn("sequence handed out a taken id, resyncing", map[string]interface{}{
			"rowId":   rowID,
			"attempt": attempt,
		})
		if err := s.syncSequence(ctx); err != nil {
			return 0, fmt.Errorf("%w: resync sequence: %v", ErrInsertFailed, err)
		}
	}
}

func (s *SQLStore) insertWithID(ctx context.Context, rowID int64, rec models.ApplicationRecord, createdAt string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO applications (id, name, address, qualifications, course, start_year_month, application_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		rowID,
		rec.Name,
		rec.Address,
		rec.Qualifications,
		rec.Course,
		rec.StartPeriod,
		FormatApplicationID(rowID),
		createdAt,
	)
	return err
}

// Get returns the stored application with the given external id.
func (s *SQLStore) Get(ctx context.Context, applicationID string) (*models.StoredApplication, error) {
	var app models.StoredApplication
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, application_id, name, address, qualifications, course, start_year_month, created_at
		FROM applications
		WHERE application_id = ?`), applicationID).Scan(
		&app.RowID,
		&app.ApplicationID,
		&app.Name,
		&app.Address,
		&app.Qualifications,
		&app.Course,
		&app.StartPeriod,
		&app.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, applicationID)
	}
	if err != nil {
		return nil, fmt.Errorf("get application %s: %w", applicationID, err)
	}
	return &app, nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
