package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const defaultPollInterval = 500 * time.Millisecond

// SQLiteStore persists a storefront profile in a SQLite file. Several
// processes may open the same file; each handle sees the others' writes
// through Watch. Last write wins.
type SQLiteStore struct {
	db     *sql.DB
	writer string
	poll   time.Duration
	log    *slog.Logger

	mu     sync.Mutex
	closed bool
}

type SQLiteOption func(*SQLiteStore)

func WithPollInterval(d time.Duration) SQLiteOption {
	return func(s *SQLiteStore) { s.poll = d }
}

func WithLogger(log *slog.Logger) SQLiteOption {
	return func(s *SQLiteStore) { s.log = log }
}

func OpenSQLite(path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping profile: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		writer: uuid.NewString(),
		poll:   defaultPollInterval,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) runMigrations() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not open migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *SQLiteStore) Load(key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM entries WHERE key = ? AND deleted = 0`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) Save(key string, value []byte) error {
	return s.put(key, value, false)
}

// Remove leaves a tombstone so other handles learn about the removal.
func (s *SQLiteStore) Remove(key string) error {
	return s.put(key, nil, true)
}

func (s *SQLiteStore) put(key string, value []byte, deleted bool) error {
	const query = `
		INSERT INTO entries (key, value, revision, writer, deleted, updated_at)
		VALUES (?, ?, (SELECT COALESCE(MAX(revision), 0) + 1 FROM entries), ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			revision = excluded.revision,
			writer = excluded.writer,
			deleted = excluded.deleted,
			updated_at = excluded.updated_at
	`
	if _, err := s.db.Exec(query, key, value, s.writer, deleted); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) currentRevision() (int64, error) {
	var rev int64
	err := s.db.QueryRow(`SELECT COALESCE(MAX(revision), 0) FROM entries`).Scan(&rev)
	return rev, err
}

// Watch polls for revisions written by other handles.
func (s *SQLiteStore) Watch(ctx context.Context) <-chan Change {
	ch := make(chan Change, 16)
	last, err := s.currentRevision()
	if err != nil {
		s.log.Error("failed to read profile revision", "error", err)
	}

	go func() {
		defer close(ch)
		ticker := time.NewTicker(s.poll)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				changes, rev, err := s.changesSince(ctx, last)
				if err != nil {
					if ctx.Err() == nil {
						s.log.Warn("failed to poll profile changes", "error", err)
					}
					continue
				}
				last = rev
				for _, c := range changes {
					select {
					case ch <- c:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
	return ch
}

func (s *SQLiteStore) changesSince(ctx context.Context, since int64) ([]Change, int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value, revision, writer, deleted FROM entries WHERE revision > ? ORDER BY revision`, since)
	if err != nil {
		return nil, since, fmt.Errorf("failed to query changes: %w", err)
	}
	defer rows.Close()

	var changes []Change
	last := since
	for rows.Next() {
		var (
			c       Change
			rev     int64
			writer  string
			deleted bool
		)
		if err := rows.Scan(&c.Key, &c.Value, &rev, &writer, &deleted); err != nil {
			return nil, since, fmt.Errorf("failed to scan change: %w", err)
		}
		last = rev
		if writer == s.writer {
			continue
		}
		if deleted {
			c.Value = nil
		}
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, since, fmt.Errorf("failed to iterate changes: %w", err)
	}
	return changes, last, nil
}
