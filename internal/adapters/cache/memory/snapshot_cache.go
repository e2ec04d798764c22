package memory

import (
	"context"
	"sync"

	"lead-activity-feed/internal/domain/leads"
	"lead-activity-feed/internal/ports/crm"
)

// SnapshotCache keeps the last good upstream payloads in process memory.
// Default backend when no cache driver is configured; also what the tests
// run against.
type SnapshotCache struct {
	mu            sync.RWMutex
	history       map[string][]leads.StatusChange
	conversations map[string][]leads.Message
}

func NewSnapshotCache() *SnapshotCache {
	return &SnapshotCache{
		history:       make(map[string][]leads.StatusChange),
		conversations: make(map[string][]leads.Message),
	}
}

func (c *SnapshotCache) PutStatusHistory(_ context.Context, leadID string, recs []leads.StatusChange) error {
	cp := make([]leads.StatusChange, len(recs))
	copy(cp, recs)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.history[leadID] = cp
	return nil
}

func (c *SnapshotCache) GetStatusHistory(_ context.Context, leadID string) ([]leads.StatusChange, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	recs, ok := c.history[leadID]
	if !ok {
		return nil, crm.ErrNotFound
	}

	cp := make([]leads.StatusChange, len(recs))
	copy(cp, recs)
	return cp, nil
}

func (c *SnapshotCache) PutConversations(_ context.Context, leadID string, msgs []leads.Message) error {
	cp := make([]leads.Message, len(msgs))
	copy(cp, msgs)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.conversations[leadID] = cp
	return nil
}

func (c *SnapshotCache) GetConversations(_ context.Context, leadID string) ([]leads.Message, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	msgs, ok := c.conversations[leadID]
	if !ok {
		return nil, crm.ErrNotFound
	}

	cp := make([]leads.Message, len(msgs))
	copy(cp, msgs)
	return cp, nil
}

// Drop clears both snapshots for one lead.
func (c *SnapshotCache) Drop(leadID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.history, leadID)
	delete(c.conversations, leadID)
}
