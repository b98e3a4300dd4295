// Package postgres provides the PostgreSQL implementation of the record
// store.
//
// It exists for installations that point the assistant at a self-hosted
// database instead of the default embedded SQLite file. The contract is
// identical; only column types and placeholders differ.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/tabzero/tabzero-go/pkg/storage"
)

// Client implements storage.Store backed by PostgreSQL.
type Client struct {
	db *sql.DB
}

// Config contains PostgreSQL configuration.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// NewClient connects to PostgreSQL and initializes the schema.
func NewClient(cfg *Config) (*Client, error) {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
	}

	client := &Client{db: db}

	if err := client.Init(context.Background()); err != nil {
		return nil, err
	}

	return client, nil
}

// Init creates the four record tables if they do not exist.
func (c *Client) Init(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL,
			role TEXT NOT NULL,
			nonce BYTEA NOT NULL,
			ciphertext BYTEA NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS memories (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL,
			type TEXT NOT NULL,
			score DOUBLE PRECISION NOT NULL,
			pinned BOOLEAN NOT NULL,
			tags TEXT NOT NULL,
			nonce BYTEA NOT NULL,
			ciphertext BYTEA NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS feedback (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL,
			target_type TEXT NOT NULL,
			target_id TEXT NOT NULL,
			rating INTEGER NOT NULL,
			nonce BYTEA NULL,
			ciphertext BYTEA NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL,
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
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := c.db.ExecContext(ctx, query,
		rec.ID, rec.CreatedAt.UTC(), rec.Role, rec.Nonce, rec.Ciphertext)
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
		LIMIT $1
	`
	rows, err := c.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("LoadRecentMessages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*storage.MessageRecord
	for rows.Next() {
		var rec storage.MessageRecord
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &rec.Role, &rec.Nonce, &rec.Ciphertext); err != nil {
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := c.db.ExecContext(ctx, query,
		rec.ID, rec.CreatedAt.UTC(), rec.Type, rec.Score, rec.Pinned, rec.Tags, rec.Nonce, rec.Ciphertext)
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
		LIMIT $1
	`
	rows, err := c.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("LoadRelevantMemories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*storage.MemoryRecord
	for rows.Next() {
		var rec storage.MemoryRecord
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &rec.Type, &rec.Score, &rec.Pinned, &rec.Tags, &rec.Nonce, &rec.Ciphertext); err != nil {
			return nil, fmt.Errorf("LoadRelevantMemories: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("LoadRelevantMemories: %w", err)
	}
	return records, nil
}

// SaveFeedback inserts a single feedback row.
func (c *Client) SaveFeedback(ctx context.Context, rec *storage.FeedbackRecord) error {
	query := `
		INSERT INTO feedback (id, created_at, target_type, target_id, rating, nonce, ciphertext)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := c.db.ExecContext(ctx, query,
		rec.ID, rec.CreatedAt.UTC(), rec.TargetType, rec.TargetID, rec.Rating, rec.Nonce, rec.Ciphertext)
	if err != nil {
		return fmt.Errorf("SaveFeedback: %w", err)
	}
	return nil
}

// SaveEvent inserts a single event row.
func (c *Client) SaveEvent(ctx context.Context, rec *storage.EventRecord) error {
	query := `
		INSERT INTO events (id, created_at, app_name, window_title, mode)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := c.db.ExecContext(ctx, query,
		rec.ID, rec.CreatedAt.UTC(), rec.AppName, rec.WindowTitle, rec.Mode)
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
		LIMIT $1
	`
	rows, err := c.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("LoadRecentEvents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*storage.EventRecord
	for rows.Next() {
		var rec storage.EventRecord
		var windowTitle sql.NullString
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &rec.AppName, &windowTitle, &rec.Mode); err != nil {
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
