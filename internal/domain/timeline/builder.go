package timeline

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"lead-activity-feed/internal/domain/leads"
)

var (
	// ErrLeadRequired means the caller invoked Build without a resolved lead.
	// This is a contract violation, not a degradable input problem.
	ErrLeadRequired = errors.New("lead with creation timestamp required")
)

const (
	// dedupeWindow is how close two id-less records with the same status pair
	// must be to count as one upstream double-write.
	dedupeWindow = 5 * time.Second

	// genericBodyLimit caps message content on generic log entries. The
	// system-styled agent email keeps its full content.
	genericBodyLimit = 100

	capturedTimeLayout = "Jan 2, 2006 at 3:04 PM"
)

// Build merges a lead's creation fact, its status history and its
// conversations into one activity feed ordered ascending by timestamp.
// Ties keep input order (stable sort), and the inputs are never mutated.
//
// Records that cannot be placed on the timeline (zero timestamp) are skipped
// and reported as warnings. The only fatal condition is a lead without a
// creation timestamp.
func Build(lead leads.Lead, history []leads.StatusChange, conversations []leads.Message) ([]Event, []Warning, error) {
	if lead.CreatedAt.IsZero() {
		return nil, nil, ErrLeadRequired
	}

	var warnings []Warning

	events := make([]Event, 0, 1+len(history)+len(conversations))
	events = append(events, capturedEvent(lead))

	dated := make([]leads.StatusChange, 0, len(history))
	for _, rec := range history {
		if rec.CreatedAt.IsZero() {
			warnings = append(warnings, Warning{Input: "status_history", RecordID: rec.ID, Reason: "missing timestamp"})
			continue
		}
		dated = append(dated, rec)
	}

	for _, rec := range dedupeStatusChanges(dated) {
		if ev, ok := remarkEvent(rec); ok {
			events = append(events, ev)
		}
	}

	for _, msg := range conversations {
		if msg.CreatedAt.IsZero() {
			warnings = append(warnings, Warning{Input: "conversations", RecordID: msg.ID, Reason: "missing timestamp"})
			continue
		}
		events = append(events, messageEvent(msg))
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].OccurredAt.Before(events[j].OccurredAt)
	})

	return events, warnings, nil
}

// dedupeStatusChanges drops upstream double-writes. Two records are the same
// write when their non-empty ids match, or when neither has an id and they
// carry the same from/to pair less than dedupeWindow apart. First occurrence
// in input order wins.
func dedupeStatusChanges(in []leads.StatusChange) []leads.StatusChange {
	seen := make(map[string]struct{}, len(in))
	kept := make([]leads.StatusChange, 0, len(in))

	for _, rec := range in {
		if rec.ID != "" {
			if _, dup := seen[rec.ID]; dup {
				continue
			}
			seen[rec.ID] = struct{}{}
			kept = append(kept, rec)
			continue
		}

		dup := false
		for _, prev := range kept {
			if prev.ID != "" {
				continue
			}
			if prev.From == rec.From && prev.To == rec.To && absDelta(prev.CreatedAt, rec.CreatedAt) < dedupeWindow {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, rec)
		}
	}

	return kept
}

func capturedEvent(lead leads.Lead) Event {
	name := lead.DisplayName()
	when := lead.CreatedAt.Format(capturedTimeLayout)

	var body string
	switch {
	case lead.Source == leads.SourceManual:
		body = fmt.Sprintf("%s was added manually on %s", name, when)
	case lead.Source != leads.SourceUnknown && leads.KnownSource(lead.Source):
		body = fmt.Sprintf("%s was captured from %s on %s", name, leads.SourceLabel(lead.Source), when)
	default:
		body = fmt.Sprintf("%s was captured from an unknown channel on %s", name, when)
	}

	return Event{
		Kind:       KindLeadCaptured,
		Variant:    VariantSystem,
		Title:      "Lead Captured",
		Body:       body,
		OccurredAt: lead.CreatedAt,
	}
}

// remarkEvent turns a status-history record into a feed entry. Records with
// an empty trimmed remark produce nothing: bare transitions are not shown,
// the feed stays signal-dense.
func remarkEvent(rec leads.StatusChange) (Event, bool) {
	reason := strings.TrimSpace(rec.Reason)
	if reason == "" {
		return Event{}, false
	}

	ev := Event{
		Kind:       KindRemark,
		Variant:    VariantLog,
		Body:       reason,
		OccurredAt: rec.CreatedAt,
	}

	if rec.From == rec.To {
		ev.Title = "Added a remark"
		return ev, true
	}

	ev.Title = fmt.Sprintf("Changed status to %s and added a note", leads.StatusLabel(rec.To))
	ev.Transition = &Transition{From: rec.From, To: rec.To}
	return ev, true
}

func messageEvent(msg leads.Message) Event {
	kind := KindMessageSent
	if msg.Sender == leads.SenderLead {
		kind = KindMessageReceived
	}

	// Agent emails get the system treatment with full content; everything
	// else is a generic log entry with truncated content.
	if msg.Sender == leads.SenderAgent && msg.Channel == leads.ChannelEmail {
		return Event{
			Kind:       kind,
			Variant:    VariantSystem,
			Title:      "Sent an email",
			Body:       msg.Content,
			OccurredAt: msg.CreatedAt,
			Delivery:   msg.Delivery,
		}
	}

	var title string
	switch {
	case msg.Sender == leads.SenderLead:
		title = "Lead Responded"
	case msg.Channel == leads.ChannelChat:
		title = "Chat Sent"
	default:
		title = "Email Sent"
	}

	return Event{
		Kind:       kind,
		Variant:    VariantLog,
		Title:      title,
		Body:       truncate(msg.Content, genericBodyLimit),
		OccurredAt: msg.CreatedAt,
		Delivery:   msg.Delivery,
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

func absDelta(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}
