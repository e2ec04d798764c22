package crm

import (
	"context"
	"errors"

	"lead-activity-feed/internal/domain/leads"
)

// ErrNotFound is returned by sources and caches when the requested lead or
// snapshot does not exist.
var ErrNotFound = errors.New("not found")

// LeadSource resolves a lead record. The timeline builder itself never
// fetches the lead; the feed shell does, through this port.
type LeadSource interface {
	GetLead(ctx context.Context, id string) (leads.Lead, error)
}

// StatusHistorySource fetches the raw status-change records for one lead.
// A failure here is recoverable for callers: the feed degrades to an empty
// collection instead of aborting.
type StatusHistorySource interface {
	GetStatusHistory(ctx context.Context, leadID string) ([]leads.StatusChange, error)
}

// ConversationSource fetches the raw message records for one lead.
type ConversationSource interface {
	GetConversations(ctx context.Context, leadID string) ([]leads.Message, error)
}

// SnapshotCache keeps the last good upstream payload per lead so a flaky
// upstream degrades to stale-but-real data instead of an empty feed.
type SnapshotCache interface {
	PutStatusHistory(ctx context.Context, leadID string, recs []leads.StatusChange) error
	GetStatusHistory(ctx context.Context, leadID string) ([]leads.StatusChange, error)

	PutConversations(ctx context.Context, leadID string, msgs []leads.Message) error
	GetConversations(ctx context.Context, leadID string) ([]leads.Message, error)
}
