package feed

import (
	"context"
	"fmt"
	"sync"

	"lead-activity-feed/internal/domain/leads"
	"lead-activity-feed/internal/domain/timeline"
	"lead-activity-feed/internal/platform/bus"
	"lead-activity-feed/internal/platform/errreport"
	"lead-activity-feed/internal/platform/logger"
	"lead-activity-feed/internal/platform/metrics"
	"lead-activity-feed/internal/ports/crm"
)

// Phase is the explicit load state of one lead's upstream inputs. One value
// per lead replaces the pile of independent loaded/loading flags the old
// client kept per view.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseLoaded  Phase = "loaded"
)

type leadState struct {
	phase Phase

	history       []leads.StatusChange
	conversations []leads.Message

	historyDegraded bool
	convDegraded    bool

	ready chan struct{} // closed once loading finishes
}

// Result is one built timeline plus everything the caller needs to present
// degradation honestly.
type Result struct {
	LeadID   string
	Partial  bool
	Events   []timeline.Event
	Warnings []timeline.Warning
	Notices  []string
}

// Service fetches a lead's inputs from upstream (at most once per lead until
// invalidated), degrades failures to the cached snapshot or an empty
// collection, and runs the pure timeline build.
type Service struct {
	leadSrc crm.LeadSource
	histSrc crm.StatusHistorySource
	convSrc crm.ConversationSource
	cache   crm.SnapshotCache
	log     logger.Logger

	mu     sync.Mutex
	states map[string]*leadState
}

func NewService(
	leadSrc crm.LeadSource,
	histSrc crm.StatusHistorySource,
	convSrc crm.ConversationSource,
	cache crm.SnapshotCache,
	log logger.Logger,
) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		leadSrc: leadSrc,
		histSrc: histSrc,
		convSrc: convSrc,
		cache:   cache,
		log:     log,
		states:  make(map[string]*leadState),
	}
}

// Timeline builds the activity feed for one lead. The lead fetch is the only
// fatal path: without a resolved lead the builder is never invoked. Input
// fetch failures degrade (cache snapshot, then empty) and mark the result
// partial.
func (s *Service) Timeline(ctx context.Context, leadID string) (Result, error) {
	lead, err := s.leadSrc.GetLead(ctx, leadID)
	if err != nil {
		return Result{}, fmt.Errorf("fetch lead: %w", err)
	}

	st, err := s.ensureLoaded(ctx, leadID)
	if err != nil {
		return Result{}, err
	}

	events, warnings, err := timeline.Build(lead, st.history, st.conversations)
	if err != nil {
		// Upstream handed us a lead without a creation timestamp.
		return Result{}, fmt.Errorf("build timeline: %w", err)
	}

	partial := st.historyDegraded || st.convDegraded
	metrics.RecordTimelineBuild(partial)

	res := Result{
		LeadID:   leadID,
		Partial:  partial,
		Events:   events,
		Warnings: warnings,
	}
	if st.convDegraded {
		// Conversation failures are the one degradation the user is told
		// about; history failures are only logged.
		res.Notices = append(res.Notices, "Conversations are temporarily unavailable; showing a partial timeline.")
	}
	return res, nil
}

// Refresh drops the lead's loaded snapshot so the next Timeline call hits
// upstream again, then rebuilds immediately.
func (s *Service) Refresh(ctx context.Context, leadID string) (Result, error) {
	s.Invalidate(leadID)
	return s.Timeline(ctx, leadID)
}

// Invalidate clears loaded state for one lead, or for every lead when the
// id is empty. In-flight loads are left alone; their result simply becomes
// stale and the next caller refetches.
func (s *Service) Invalidate(leadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if leadID == "" {
		for id, st := range s.states {
			if st.phase == PhaseLoaded {
				delete(s.states, id)
			}
		}
		return
	}
	if st, ok := s.states[leadID]; ok && st.phase == PhaseLoaded {
		delete(s.states, leadID)
	}
}

// SubscribeInvalidations wires the service to the activity topic: published
// events drop the matching lead's state. The returned cancel must be called
// on teardown.
func (s *Service) SubscribeInvalidations(ctx context.Context, b *bus.Bus) func() {
	ch, cancel := b.Subscribe(bus.TopicLeadActivity)

	go func() {
		defer errreport.Recover()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				s.Invalidate(ev.LeadID)
			}
		}
	}()

	return cancel
}

// ensureLoaded is the already-loaded guard: the first caller per lead
// performs the two upstream fetches, concurrent callers wait for it, later
// callers reuse the loaded state until invalidation.
func (s *Service) ensureLoaded(ctx context.Context, leadID string) (*leadState, error) {
	s.mu.Lock()
	st, ok := s.states[leadID]
	if ok {
		switch st.phase {
		case PhaseLoaded:
			s.mu.Unlock()
			return st, nil
		case PhaseLoading:
			s.mu.Unlock()
			select {
			case <-st.ready:
				return st, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	st = &leadState{phase: PhaseLoading, ready: make(chan struct{})}
	s.states[leadID] = st
	s.mu.Unlock()

	s.load(ctx, leadID, st)

	s.mu.Lock()
	st.phase = PhaseLoaded
	s.mu.Unlock()
	close(st.ready)

	return st, nil
}

// load performs both input fetches with the degradation ladder: upstream,
// then cache snapshot, then empty.
func (s *Service) load(ctx context.Context, leadID string, st *leadState) {
	history, err := s.histSrc.GetStatusHistory(ctx, leadID)
	if err != nil {
		// Never user-facing: log, report, degrade.
		s.log.Error("status history fetch failed", map[string]any{"lead_id": leadID, "error": err.Error()})
		errreport.CaptureError(err, map[string]any{"lead_id": leadID, "input": "status_history"})
		st.historyDegraded = true
		history = s.cachedHistory(ctx, leadID)
	} else if s.cache != nil {
		if cerr := s.cache.PutStatusHistory(ctx, leadID, history); cerr != nil {
			s.log.Warn("status history cache write failed", map[string]any{"lead_id": leadID, "error": cerr.Error()})
		}
	}
	st.history = history

	conversations, err := s.convSrc.GetConversations(ctx, leadID)
	if err != nil {
		s.log.Error("conversations fetch failed", map[string]any{"lead_id": leadID, "error": err.Error()})
		errreport.CaptureError(err, map[string]any{"lead_id": leadID, "input": "conversations"})
		st.convDegraded = true
		conversations = s.cachedConversations(ctx, leadID)
	} else if s.cache != nil {
		if cerr := s.cache.PutConversations(ctx, leadID, conversations); cerr != nil {
			s.log.Warn("conversations cache write failed", map[string]any{"lead_id": leadID, "error": cerr.Error()})
		}
	}
	st.conversations = conversations
}

func (s *Service) cachedHistory(ctx context.Context, leadID string) []leads.StatusChange {
	if s.cache == nil {
		return nil
	}
	recs, err := s.cache.GetStatusHistory(ctx, leadID)
	if err != nil {
		return nil
	}
	metrics.RecordCacheFallback("status_history")
	return recs
}

func (s *Service) cachedConversations(ctx context.Context, leadID string) []leads.Message {
	if s.cache == nil {
		return nil
	}
	msgs, err := s.cache.GetConversations(ctx, leadID)
	if err != nil {
		return nil
	}
	metrics.RecordCacheFallback("conversations")
	return msgs
}
