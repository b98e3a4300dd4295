// Package sqlite provides the SQLite implementation of the record store.
//
// SQLite is the default backend: a single file under the application's
// private directory, suitable for the local-first, single-user setup.
// Timestamps are stored as fixed-width UTC text so that lexicographic
// order equals chronological order.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tabzero/tabzero-go/pkg/storage"
)

// timeLayout is RFC 3339 UTC with fixed nanosecond width. The fixed width
// keeps ORDER BY created_at correct on TEXT columns.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Client implements storage.Store backed by a SQLite database file.
type Client struct {
	db *sql.DB
}

// Config contains configuration for the SQLite store.
type Config struct {
	// DBPath is the path to the SQLite database file. Parent directories
	// are created as needed.
	DBPath string
}

// NewClient opens (creating if necessary) the SQLite database and
// initializes the schema.
func NewClient(cfg *Config) (*Client, error) {
	dbDir := filepath.Dir(cfg.DBPath)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o700); err != nil {
			return nil, fmt.Errorf("NewSQLiteClient: failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	client := &Client{db: db}

	if err := client.Init(context.Background()); err != nil {
		return nil, err
	}

	return client, nil
}

// Init creates the four record tables if they do not exist. Idempotent,
// called again before every chat turn.
func (c *Client) Init(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			role TEXT NOT NULL,
			nonce BLOB NOT NULL,
			ciphertext BLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS memories (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			type TEXT NOT NULL,
			score REAL NOT NULL,
			pinned INTEGER NOT NULL,
			tags TEXT NOT NULL,
			nonce BLOB NOT NULL,
			ciphertext BLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS feedback (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			target_type TEXT NOT NULL,
			target_id TEXT NOT NULL,
			rating INTEGER NOT NULL,
			nonce BLOB NULL,
			ciphertext BLOB NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			app_name TEXT NOT NULL,
			window_title TEXT NULL,
			mode TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("Init: %w", err)
		}
	}
	return nil
}

// SaveMessage inserts a single message row.
func (c *Client) SaveMessage(ctx context.Context, rec *storage.MessageRecord) error {
	query := `
		INSERT INTO messages (id, created_at, role, nonce, ciphertext)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := c.db.ExecContext(ctx, query,
		rec.ID,
		formatTime(rec.CreatedAt),
		rec.Role,
		rec.Nonce,
		rec.Ciphertext,
	)
	if err != nil {
		return fmt.Errorf("SaveMessage: %w", err)
	}
	return nil
}

// LoadRecentMessages returns the limit most recently created messages,
// most recent first.
func (c *Client) LoadRecentMessages(ctx context.Context, limit int) ([]*storage.MessageRecord, error) {
	query := `
		SELECT id, created_at, role, nonce, ciphertext
		FROM messages
		ORDER BY created_at DESC
		LIMIT ?
	`
	rows, err := c.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("LoadRecentMessages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*storage.MessageRecord
	for rows.Next() {
		var rec storage.MessageRecord
		var createdAt string
		if err := rows.Scan(&rec.ID, &createdAt, &rec.Role, &rec.Nonce, &rec.Ciphertext); err != nil {
			return nil, fmt.Errorf("LoadRecentMessages: %w", err)
		}
		if rec.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("LoadRecentMessages: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("LoadRecentMessages: %w", err)
	}
	return records, nil
}

// SaveMemory inserts a single memory row.
func (c *Client) SaveMemory(ctx context.Context, rec *storage.MemoryRecord) error {
	query := `
		INSERT INTO memories (id, created_at, type, score, pinned, tags, nonce, ciphertext)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := c.db.ExecContext(ctx, query,
		rec.ID,
		formatTime(rec.CreatedAt),
		rec.Type,
		rec.Score,
		rec.Pinned,
		rec.Tags,
		rec.Nonce,
		rec.Ciphertext,
	)
	if err != nil {
		return fmt.Errorf("SaveMemory: %w", err)
	}
	return nil
}

// LoadRelevantMemories returns the top limit memories ranked by pinned,
// then score descending, then recency.
func (c *Client) LoadRelevantMemories(ctx context.Context, limit int) ([]*storage.MemoryRecord, error) {
	query := `
		SELECT id, created_at, type, score, pinned, tags, nonce, ciphertext
		FROM memories
		ORDER BY pinned DESC, score DESC, created_at DESC
		LIMIT ?
	`
	rows, err := c.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("LoadRelevantMemories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*storage.MemoryRecord
	for rows.Next() {
		var rec storage.MemoryRecord
		var createdAt string
		if err := rows.Scan(&rec.ID, &createdAt, &rec.Type, &rec.Score, &rec.Pinned, &rec.Tags, &rec.Nonce, &rec.Ciphertext); err != nil {
			return nil, fmt.Errorf("LoadRelevantMemories: %w", err)
		}
		if rec.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("LoadRelevantMemories: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("LoadRelevantMemories: %w", err)
	}
	return records, nil
}

// SaveFeedback inserts a single feedback row. Nonce and ciphertext may be
// nil; feedback usually carries no payload worth protecting.
func (c *Client) SaveFeedback(ctx context.Context, rec *storage.FeedbackRecord) error {
	query := `
		INSERT INTO feedback (id, created_at, target_type, target_id, rating, nonce, ciphertext)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := c.db.ExecContext(ctx, query,
		rec.ID,
		formatTime(rec.CreatedAt),
		rec.TargetType,
		rec.TargetID,
		rec.Rating,
		rec.Nonce,
		rec.Ciphertext,
	)
	if err != nil {
		return fmt.Errorf("SaveFeedback: %w", err)
	}
	return nil
}

// SaveEvent inserts a single event row.
func (c *Client) SaveEvent(ctx context.Context, rec *storage.EventRecord) error {
	query := `
		INSERT INTO events (id, created_at, app_name, window_title, mode)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := c.db.ExecContext(ctx, query,
		rec.ID,
		formatTime(rec.CreatedAt),
		rec.AppName,
		rec.WindowTitle,
		rec.Mode,
	)
	if err != nil {
		return fmt.Errorf("SaveEvent: %w", err)
	}
	return nil
}

// LoadRecentEvents returns the limit most recent events, most recent first.
func (c *Client) LoadRecentEvents(ctx context.Context, limit int) ([]*storage.EventRecord, error) {
	query := `
		SELECT id, created_at, app_name, window_title, mode
		FROM events
		ORDER BY created_at DESC
		LIMIT ?
	`
	rows, err := c.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("LoadRecentEvents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*storage.EventRecord
	for rows.Next() {
		var rec storage.EventRecord
		var createdAt string
		var windowTitle sql.NullString
		if err := rows.Scan(&rec.ID, &createdAt, &rec.AppName, &windowTitle, &rec.Mode); err != nil {
			return nil, fmt.Errorf("LoadRecentEvents: %w", err)
		}
		if rec.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("LoadRecentEvents: %w", err)
		}
		if windowTitle.Valid {
			rec.WindowTitle = &windowTitle.String
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("LoadRecentEvents: %w", err)
	}
	return records, nil
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
