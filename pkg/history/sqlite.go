// Package history journals notifications to a local SQLite file so they
// survive a restart of the reader.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/apreader/client/pkg/compositor"
)

// DefaultLimit is used by Recent when limit is not positive.
const DefaultLimit = 50

type Entry struct {
	ID        string
	Bucket    compositor.Bucket
	Text      string
	CreatedAt time.Time
}

// SQLiteStore records notifications in a SQLite database.
type SQLiteStore struct {
	db *sql.DB

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// newID returns ids that sort in insertion order, even within one millisecond.
func (s *SQLiteStore) newID(now time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS notifications (
		id          TEXT PRIMARY KEY,
		bucket      TEXT NOT NULL,
		text        TEXT NOT NULL,
		created_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_notifications_bucket ON notifications(bucket, id DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends one line to the journal.
func (s *SQLiteStore) Record(ctx context.Context, bucket compositor.Bucket, text string) (Entry, error) {
	now := time.Now().UTC()
	e := Entry{ID: s.newID(now), Bucket: bucket, Text: text, CreatedAt: now.Truncate(time.Millisecond)}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (id, bucket, text, created_at) VALUES (?, ?, ?, ?)`,
		e.ID, string(e.Bucket), e.Text, e.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Entry{}, fmt.Errorf("insert notification: %w", err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first. An empty bucket means
// every bucket.
func (s *SQLiteStore) Recent(ctx context.Context, bucket compositor.Bucket, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := `SELECT id, bucket, text, created_at FROM notifications`
	var args []any
	if bucket != "" {
		query += ` WHERE bucket = ?`
		args = append(args, string(bucket))
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			b, when string
		)
		if err := rows.Scan(&e.ID, &b, &e.Text, &when); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		e.Bucket = compositor.Bucket(b)
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, when)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Display records every notification it is handed. Insert failures are
// logged, never returned.
type Display struct {
	Store  *SQLiteStore
	Logger *log.Logger
}

func NewDisplay(store *SQLiteStore, logger *log.Logger) *Display {
	return &Display{Store: store, Logger: logger}
}

func (d *Display) Notify(bucket compositor.Bucket, text string) {
	if _, err := d.Store.Record(context.Background(), bucket, text); err != nil && d.Logger != nil {
		d.Logger.Printf("history: %v", err)
	}
}

func (d *Display) SetConnectionState(string, bool) {}
