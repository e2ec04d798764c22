package feed

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-activity-feed/internal/adapters/cache/memory"
	"lead-activity-feed/internal/domain/leads"
	"lead-activity-feed/internal/domain/timeline"
	"lead-activity-feed/internal/platform/bus"
	"lead-activity-feed/internal/ports/crm"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type stubSources struct {
	lead    leads.Lead
	leadErr error

	history []leads.StatusChange
	histErr error

	conversations []leads.Message
	convErr       error

	histCalls atomic.Int32
	convCalls atomic.Int32
}

func (s *stubSources) GetLead(context.Context, string) (leads.Lead, error) {
	if s.leadErr != nil {
		return leads.Lead{}, s.leadErr
	}
	return s.lead, nil
}

func (s *stubSources) GetStatusHistory(context.Context, string) ([]leads.StatusChange, error) {
	s.histCalls.Add(1)
	if s.histErr != nil {
		return nil, s.histErr
	}
	return s.history, nil
}

func (s *stubSources) GetConversations(context.Context, string) ([]leads.Message, error) {
	s.convCalls.Add(1)
	if s.convErr != nil {
		return nil, s.convErr
	}
	return s.conversations, nil
}

func newStub() *stubSources {
	return &stubSources{
		lead: leads.Lead{ID: "lead-1", Name: "Maria", Source: leads.SourceFacebook, CreatedAt: t0},
		history: []leads.StatusChange{
			{ID: "h-1", From: leads.StatusNew, To: leads.StatusContacted, Reason: "Called", CreatedAt: t0.Add(time.Hour)},
		},
		conversations: []leads.Message{
			{ID: "m-1", Channel: leads.ChannelChat, Sender: leads.SenderLead, Content: "hi", CreatedAt: t0.Add(2 * time.Hour)},
		},
	}
}

func newService(stub *stubSources) (*Service, *memory.SnapshotCache) {
	cache := memory.NewSnapshotCache()
	return NewService(stub, stub, stub, cache, nil), cache
}

func TestTimeline_MergesAllInputs(t *testing.T) {
	svc, _ := newService(newStub())

	res, err := svc.Timeline(context.Background(), "lead-1")
	require.NoError(t, err)

	assert.False(t, res.Partial)
	assert.Empty(t, res.Notices)
	require.Len(t, res.Events, 3)
	assert.Equal(t, timeline.KindLeadCaptured, res.Events[0].Kind)
	assert.Equal(t, timeline.KindRemark, res.Events[1].Kind)
	assert.Equal(t, timeline.KindMessageReceived, res.Events[2].Kind)
}

func TestTimeline_LeadFetchFailureIsFatal(t *testing.T) {
	stub := newStub()
	stub.leadErr = crm.ErrNotFound
	svc, _ := newService(stub)

	_, err := svc.Timeline(context.Background(), "lead-1")
	assert.ErrorIs(t, err, crm.ErrNotFound)
	// The guard must not have fired: no lead, no input fetches.
	assert.Zero(t, stub.histCalls.Load())
	assert.Zero(t, stub.convCalls.Load())
}

func TestTimeline_GuardFetchesOnce(t *testing.T) {
	stub := newStub()
	svc, _ := newService(stub)

	for i := 0; i < 3; i++ {
		_, err := svc.Timeline(context.Background(), "lead-1")
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), stub.histCalls.Load())
	assert.Equal(t, int32(1), stub.convCalls.Load())
}

func TestRefresh_Refetches(t *testing.T) {
	stub := newStub()
	svc, _ := newService(stub)

	_, err := svc.Timeline(context.Background(), "lead-1")
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), "lead-1")
	require.NoError(t, err)

	assert.Equal(t, int32(2), stub.histCalls.Load())
	assert.Equal(t, int32(2), stub.convCalls.Load())
}

func TestTimeline_HistoryFailureDegradesSilently(t *testing.T) {
	stub := newStub()
	stub.histErr = errors.New("upstream down")
	svc, _ := newService(stub)

	res, err := svc.Timeline(context.Background(), "lead-1")
	require.NoError(t, err)

	assert.True(t, res.Partial)
	// History failures are logged only, never user-facing.
	assert.Empty(t, res.Notices)
	require.Len(t, res.Events, 2) // captured + conversation
	assert.Equal(t, timeline.KindLeadCaptured, res.Events[0].Kind)
}

func TestTimeline_ConversationFailureCarriesNotice(t *testing.T) {
	stub := newStub()
	stub.convErr = errors.New("upstream down")
	svc, _ := newService(stub)

	res, err := svc.Timeline(context.Background(), "lead-1")
	require.NoError(t, err)

	assert.True(t, res.Partial)
	require.Len(t, res.Notices, 1)
	assert.Contains(t, res.Notices[0], "Conversations")
	require.Len(t, res.Events, 2) // captured + remark
}

func TestTimeline_BothInputsFailed_CapturedOnly(t *testing.T) {
	stub := newStub()
	stub.histErr = errors.New("down")
	stub.convErr = errors.New("down")
	svc, _ := newService(stub)

	res, err := svc.Timeline(context.Background(), "lead-1")
	require.NoError(t, err)

	assert.True(t, res.Partial)
	require.Len(t, res.Events, 1)
	assert.Equal(t, timeline.KindLeadCaptured, res.Events[0].Kind)
}

func TestTimeline_CacheFallbackServesLastGoodSnapshot(t *testing.T) {
	stub := newStub()
	svc, cache := newService(stub)

	// First load succeeds and writes through to the cache.
	_, err := svc.Timeline(context.Background(), "lead-1")
	require.NoError(t, err)

	cached, err := cache.GetStatusHistory(context.Background(), "lead-1")
	require.NoError(t, err)
	assert.Len(t, cached, 1)

	// Upstream goes down; a refresh should fall back to the snapshot.
	stub.histErr = errors.New("down")
	stub.convErr = errors.New("down")

	res, err := svc.Refresh(context.Background(), "lead-1")
	require.NoError(t, err)

	assert.True(t, res.Partial)
	require.Len(t, res.Events, 3) // captured + cached remark + cached message
}

func TestTimeline_InvalidLeadFromUpstream(t *testing.T) {
	stub := newStub()
	stub.lead = leads.Lead{ID: "lead-1"} // no creation timestamp
	svc, _ := newService(stub)

	_, err := svc.Timeline(context.Background(), "lead-1")
	assert.ErrorIs(t, err, timeline.ErrLeadRequired)
}

func TestBusInvalidationDropsGuard(t *testing.T) {
	stub := newStub()
	svc, _ := newService(stub)

	b := bus.New()
	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()

	cancelSub := svc.SubscribeInvalidations(ctx, b)
	defer cancelSub()

	_, err := svc.Timeline(ctx, "lead-1")
	require.NoError(t, err)
	require.Equal(t, int32(1), stub.histCalls.Load())

	b.Publish(bus.Event{Topic: bus.TopicLeadActivity, LeadID: "lead-1"})

	// Invalidation is asynchronous; wait for the refetch to show up.
	require.Eventually(t, func() bool {
		_, err := svc.Timeline(ctx, "lead-1")
		return err == nil && stub.histCalls.Load() == 2
	}, 2*time.Second, 10*time.Millisecond)
}
