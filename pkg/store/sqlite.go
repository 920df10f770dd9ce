package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteBackend implements Backend using SQLite for persistence.
// This backend keeps counters and cached payloads across restarts and is
// suitable for single-instance deployments that need durability.
//
// SQLiteBackend uses a write-ahead log (WAL) for better concurrent
// performance. Expired rows are excluded from every read and physically
// removed by Sweep.
type SQLiteBackend struct {
	db *sql.DB
	mu sync.Mutex

	// preparedStatements contains pre-compiled SQL statements for performance
	incrementStmt *sql.Stmt
	getStmt       *sql.Stmt
	setStmt       *sql.Stmt
	deleteStmt    *sql.Stmt
	sweepStmt     *sql.Stmt

	// now is the time source, replaceable in tests.
	now func() time.Time
}

// SQLiteBackendConfig configures the SQLite backend.
type SQLiteBackendConfig struct {
	// Path is the path to the SQLite database file.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteBackend creates a new SQLite backend with default settings.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	return NewSQLiteBackendWithConfig(SQLiteBackendConfig{Path: path})
}

// NewSQLiteBackendWithConfig creates a new SQLite backend with custom
// configuration.
func NewSQLiteBackendWithConfig(cfg SQLiteBackendConfig) (*SQLiteBackend, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	// Open database with WAL mode and busy timeout
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.Path, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	backend := &SQLiteBackend{
		db:  db,
		now: time.Now,
	}

	if err := backend.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := backend.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return backend, nil
}

// initSchema creates the database schema if it doesn't exist.
// Timestamps are stored as Unix milliseconds.
func (s *SQLiteBackend) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		expires_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_expires_at ON entries(expires_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// prepareStatements prepares SQL statements for reuse.
func (s *SQLiteBackend) prepareStatements() error {
	var err error

	// A single UPSERT that restarts the counter when the previous entry has
	// expired and otherwise increments it, keeping the original expiry.
	s.incrementStmt, err = s.db.Prepare(`
		INSERT INTO entries (key, value, expires_at)
		VALUES (?1, '1', ?2)
		ON CONFLICT (key) DO UPDATE SET
			value = CASE
				WHEN entries.expires_at <= ?3 THEN '1'
				ELSE CAST(CAST(entries.value AS INTEGER) + 1 AS TEXT)
			END,
			expires_at = CASE
				WHEN entries.expires_at <= ?3 THEN excluded.expires_at
				ELSE entries.expires_at
			END
		RETURNING CAST(value AS INTEGER)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare increment statement: %w", err)
	}

	s.getStmt, err = s.db.Prepare(`
		SELECT value FROM entries
		WHERE key = ? AND expires_at > ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare get statement: %w", err)
	}

	s.setStmt, err = s.db.Prepare(`
		INSERT INTO entries (key, value, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare set statement: %w", err)
	}

	s.deleteStmt, err = s.db.Prepare(`
		DELETE FROM entries WHERE key = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}

	s.sweepStmt, err = s.db.Prepare(`
		DELETE FROM entries WHERE expires_at <= ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare sweep statement: %w", err)
	}

	return nil
}

// Increment atomically increments the counter at key.
func (s *SQLiteBackend) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	now := s.now().UnixMilli()
	expiresAt := now + ttl.Milliseconds()

	s.mu.Lock()
	defer s.mu.Unlock()

	var raw string
	err := s.incrementStmt.QueryRowContext(ctx, key, expiresAt, now).Scan(&raw)
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter: %w", err)
	}

	count, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, ErrInvalidCounter
	}
	return count, nil
}

// Get returns the payload stored at key, excluding expired rows.
func (s *SQLiteBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value []byte
	err := s.getStmt.QueryRowContext(ctx, key, s.now().UnixMilli()).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load entry: %w", err)
	}
	return value, true, nil
}

// Set stores a payload at key with the given TTL.
func (s *SQLiteBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	expiresAt := s.now().Add(ttl).UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.setStmt.ExecContext(ctx, key, value, expiresAt); err != nil {
		return fmt.Errorf("failed to save entry: %w", err)
	}
	return nil
}

// Delete removes the entry at key.
func (s *SQLiteBackend) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.deleteStmt.ExecContext(ctx, key); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

// Ping checks the health of the database connection.
func (s *SQLiteBackend) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Sweep removes entries that expired before now. It implements Sweepable.
func (s *SQLiteBackend) Sweep(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.sweepStmt.ExecContext(ctx, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired entries: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(deleted), nil
}

// Close releases the database handle.
func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}
