package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-activity-feed/internal/domain/leads"
	"lead-activity-feed/internal/ports/crm"
)

func TestSnapshotRoundtrip(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cache := NewSnapshotCache(db)
	ctx := context.Background()

	_, err = cache.GetStatusHistory(ctx, "lead-1")
	assert.ErrorIs(t, err, crm.ErrNotFound)

	recs := []leads.StatusChange{
		{ID: "h-1", From: leads.StatusNew, To: leads.StatusContacted, Reason: "Called", CreatedAt: time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)},
	}
	require.NoError(t, cache.PutStatusHistory(ctx, "lead-1", recs))

	got, err := cache.GetStatusHistory(ctx, "lead-1")
	require.NoError(t, err)
	assert.Equal(t, recs, got)

	// Overwrite replaces, not appends.
	require.NoError(t, cache.PutStatusHistory(ctx, "lead-1", recs[:0]))
	got, err = cache.GetStatusHistory(ctx, "lead-1")
	require.NoError(t, err)
	assert.Empty(t, got)

	msgs := []leads.Message{
		{ID: "m-1", Channel: leads.ChannelChat, Sender: leads.SenderLead, Content: "hi", CreatedAt: time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC)},
	}
	require.NoError(t, cache.PutConversations(ctx, "lead-1", msgs))

	gotMsgs, err := cache.GetConversations(ctx, "lead-1")
	require.NoError(t, err)
	assert.Equal(t, msgs, gotMsgs)
}
