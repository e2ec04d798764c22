package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"lead-activity-feed/internal/domain/leads"
	"lead-activity-feed/internal/ports/crm"
)

const (
	kindStatusHistory = "status_history"
	kindConversations = "conversations"
)

// Open opens a Postgres pool through the pgx database/sql driver.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// SnapshotCache persists the last good upstream payload per lead and kind as
// a JSON blob. Records stay opaque to the database so one table serves both
// inputs.
type SnapshotCache struct {
	db *sql.DB
}

func NewSnapshotCache(db *sql.DB) *SnapshotCache {
	return &SnapshotCache{db: db}
}

// EnsureSchema creates the snapshot table when it is missing.
func (c *SnapshotCache) EnsureSchema(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS lead_snapshots (
			lead_id    TEXT        NOT NULL,
			kind       TEXT        NOT NULL,
			payload    JSONB       NOT NULL,
			fetched_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (lead_id, kind)
		)
	`)
	return err
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
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (lead_id, kind)
		DO UPDATE SET payload = EXCLUDED.payload, fetched_at = EXCLUDED.fetched_at
	`, leadID, kind, payload, time.Now().UTC())
	return err
}

func (c *SnapshotCache) get(ctx context.Context, leadID, kind string, out any) error {
	var payload []byte
	err := c.db.QueryRowContext(ctx, `
		SELECT payload
		FROM lead_snapshots
		WHERE lead_id = $1 AND kind = $2
	`, leadID, kind).Scan(&payload)
	if err == sql.ErrNoRows {
		return crm.ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, out)
}
