package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"lead-activity-feed/internal/domain/leads"
	"lead-activity-feed/internal/ports/crm"
)

const (
	kindStatusHistory = "status_history"
	kindConversations = "conversations"
)

// Open opens (and on first use creates) the SQLite snapshot database. Single
// writer keeps things simple; busy_timeout covers the rest.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?_busy_timeout=10000")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS lead_snapshots (
			lead_id    TEXT NOT NULL,
			kind       TEXT NOT NULL,
			payload    TEXT NOT NULL,
			fetched_at TEXT NOT NULL,
			PRIMARY KEY (lead_id, kind)
		)
	`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// SnapshotCache is the SQLite twin of the postgres cache, for single-node
// deployments that want snapshots to survive a restart without a database
// server.
type SnapshotCache struct {
	db *sql.DB
}

func NewSnapshotCache(db *sql.DB) *SnapshotCache {
	return &SnapshotCache{db: db}
}

func (c *SnapshotCache) PutStatusHistory(ctx context.Context, leadID string, recs []leads.StatusChange) error {
	return c.put(ctx, leadID, kindStatusHistory, recs)
}

func (c *SnapshotCache) GetStatusHistory(ctx context.Context, leadID string) ([]leads.StatusChange, error) {
	var recs []leads.StatusChange
	if err := c.get(ctx, leadID, kindStatusHistory, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (c *SnapshotCache) PutConversations(ctx context.Context, leadID string, msgs []leads.Message) error {
	return c.put(ctx, leadID, kindConversations, msgs)
}

func (c *SnapshotCache) GetConversations(ctx context.Context, leadID string) ([]leads.Message, error) {
	var msgs []leads.Message
	if err := c.get(ctx, leadID, kindConversations, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (c *SnapshotCache) put(ctx context.Context, leadID, kind string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO lead_snapshots (lead_id, kind, payload, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (lead_id, kind)
		DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at
	`, leadID, kind, string(payload), time.Now().UTC().Format(time.RFC3339))
	return err
}

func (c *SnapshotCache) get(ctx context.Context, leadID, kind string, out any) error {
	var payload string
	err := c.db.QueryRowContext(ctx, `
		SELECT payload
		FROM lead_snapshots
		WHERE lead_id = ? AND kind = ?
	`, leadID, kind).Scan(&payload)
	if err == sql.ErrNoRows {
		return crm.ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(payload), out)
}
