package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/jpalmerr/reviewq/internal/poller"
)

// FileName is the database file created inside the data directory.
const FileName = "history.db"

const schema = `
CREATE TABLE IF NOT EXISTS feedbacks (
	id            INTEGER PRIMARY KEY,
	submission_id INTEGER NOT NULL,
	project_name  TEXT NOT NULL DEFAULT '',
	rating        INTEGER NOT NULL DEFAULT 0,
	read          INTEGER NOT NULL DEFAULT 0,
	created_at    TEXT NOT NULL,
	first_seen_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_feedbacks_created_at ON feedbacks(created_at);
`

// Entry is a stored feedback item.
type Entry struct {
	poller.Feedback
	FirstSeenAt time.Time
}

// Store is the SQLite-backed feedback history.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens (creating if needed) the history database in dataDir.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, FileName)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db, path: dbPath, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SeenIDs returns every feedback id ever recorded.
func (s *Store) SeenIDs(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM feedbacks ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying feedback ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning feedback id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Record upserts items. The read flag and rating follow the latest
// observation; first_seen_at is kept from the first insert.
func (s *Store) Record(ctx context.Context, items []poller.Feedback) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO feedbacks (id, submission_id, project_name, rating, read, created_at, first_seen_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			rating = excluded.rating,
			read = excluded.read
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	seenAt := s.now().UTC().Format(time.RFC3339)
	for _, fb := range items {
		if _, err := stmt.ExecContext(ctx,
			fb.ID, fb.SubmissionID, fb.ProjectName, fb.Rating, fb.Read,
			fb.CreatedAt.UTC().Format(time.RFC3339), seenAt,
		); err != nil {
			return fmt.Errorf("recording feedback %d: %w", fb.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing feedback: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, submission_id, project_name, rating, read, created_at, first_seen_at
		FROM feedbacks
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying feedbacks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var (
			e                  Entry
			createdAt, firstAt string
		)
		if err := rows.Scan(&e.ID, &e.SubmissionID, &e.ProjectName, &e.Rating, &e.Read, &createdAt, &firstAt); err != nil {
			return nil, fmt.Errorf("scanning feedback: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		e.FirstSeenAt, _ = time.Parse(time.RFC3339, firstAt)
		out = append(out, e)
	}
	return out, rows.Err()
}
