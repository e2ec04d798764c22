package timeline

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-activity-feed/internal/domain/leads"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func testLead() leads.Lead {
	return leads.Lead{
		ID:        "lead-1",
		Name:      "Maria Lopez",
		Source:    leads.SourceFacebook,
		Status:    leads.StatusNew,
		CreatedAt: t0,
	}
}

func TestBuild_RequiresLeadCreationTime(t *testing.T) {
	_, _, err := Build(leads.Lead{ID: "lead-1"}, nil, nil)
	require.ErrorIs(t, err, ErrLeadRequired)
}

func TestBuild_EmptyInputs_ProducesCapturedOnly(t *testing.T) {
	events, warnings, err := Build(testLead(), nil, nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Empty(t, warnings)

	ev := events[0]
	assert.Equal(t, KindLeadCaptured, ev.Kind)
	assert.Equal(t, VariantSystem, ev.Variant)
	assert.Equal(t, t0, ev.OccurredAt)
	assert.Contains(t, ev.Body, "Maria Lopez was captured from Facebook")
}

func TestBuild_CapturedWording(t *testing.T) {
	cases := []struct {
		name   string
		lead   leads.Lead
		expect string
	}{
		{
			name:   "manual entry",
			lead:   leads.Lead{Name: "Bob", Source: leads.SourceManual, CreatedAt: t0},
			expect: "Bob was added manually on",
		},
		{
			name:   "known channel",
			lead:   leads.Lead{Name: "Bob", Source: leads.SourceInstagram, CreatedAt: t0},
			expect: "Bob was captured from Instagram on",
		},
		{
			name:   "unknown channel",
			lead:   leads.Lead{Name: "Bob", Source: "telepathy", CreatedAt: t0},
			expect: "Bob was captured from an unknown channel on",
		},
		{
			name:   "missing name falls back",
			lead:   leads.Lead{Source: leads.SourceWebsite, CreatedAt: t0},
			expect: "Unknown Lead was captured from Website on",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			events, _, err := Build(tc.lead, nil, nil)
			require.NoError(t, err)
			require.Len(t, events, 1)
			assert.Contains(t, events[0].Body, tc.expect)
		})
	}
}

func TestBuild_BareTransitionEmitsNothing(t *testing.T) {
	history := []leads.StatusChange{
		{From: leads.StatusNew, To: leads.StatusContacted, Reason: "", CreatedAt: t0.Add(time.Hour)},
		{From: leads.StatusContacted, To: leads.StatusQualified, Reason: "   \n\t ", CreatedAt: t0.Add(2 * time.Hour)},
	}

	events, warnings, err := Build(testLead(), history, nil)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, events, 1)
	assert.Equal(t, KindLeadCaptured, events[0].Kind)
}

func TestBuild_RemarkWithTransition(t *testing.T) {
	history := []leads.StatusChange{
		{From: leads.StatusNew, To: leads.StatusContacted, Reason: "Called, no answer", CreatedAt: t0.Add(time.Hour)},
	}

	events, _, err := Build(testLead(), history, nil)
	require.NoError(t, err)
	require.Len(t, events, 2)

	ev := events[1]
	assert.Equal(t, KindRemark, ev.Kind)
	assert.Equal(t, "Changed status to Contacted and added a note", ev.Title)
	assert.Equal(t, "Called, no answer", ev.Body)
	require.NotNil(t, ev.Transition)
	assert.Equal(t, leads.StatusNew, ev.Transition.From)
	assert.Equal(t, leads.StatusContacted, ev.Transition.To)
}

func TestBuild_RemarkWithoutTransition(t *testing.T) {
	history := []leads.StatusChange{
		{From: leads.StatusContacted, To: leads.StatusContacted, Reason: "Left voicemail", CreatedAt: t0.Add(time.Hour)},
	}

	events, _, err := Build(testLead(), history, nil)
	require.NoError(t, err)
	require.Len(t, events, 2)

	ev := events[1]
	assert.Equal(t, "Added a remark", ev.Title)
	assert.Nil(t, ev.Transition)
}

func TestBuild_UnrecognizedStatusLabelFallsBack(t *testing.T) {
	history := []leads.StatusChange{
		{From: leads.StatusNew, To: "ghosted", Reason: "Stopped replying", CreatedAt: t0.Add(time.Hour)},
	}

	events, _, err := Build(testLead(), history, nil)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Changed status to Ghosted and added a note", events[1].Title)
}

func TestDedupe_ByID(t *testing.T) {
	rec := leads.StatusChange{ID: "h-1", From: leads.StatusNew, To: leads.StatusContacted, Reason: "first", CreatedAt: t0.Add(time.Hour)}
	later := rec
	later.Reason = "retried write"
	later.CreatedAt = t0.Add(26 * time.Hour) // id match wins regardless of distance

	events, _, err := Build(testLead(), []leads.StatusChange{rec, later}, nil)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "first", events[1].Body)
}

func TestDedupe_NoID_WithinWindow(t *testing.T) {
	history := []leads.StatusChange{
		{From: leads.StatusNew, To: leads.StatusContacted, Reason: "Called", CreatedAt: t0.Add(time.Hour)},
		{From: leads.StatusNew, To: leads.StatusContacted, Reason: "Called again", CreatedAt: t0.Add(time.Hour + 2*time.Second)},
	}

	events, _, err := Build(testLead(), history, nil)
	require.NoError(t, err)
	require.Len(t, events, 2)
	// First occurrence in input order wins.
	assert.Equal(t, "Called", events[1].Body)
}

func TestDedupe_NoID_OutsideWindow(t *testing.T) {
	history := []leads.StatusChange{
		{From: leads.StatusNew, To: leads.StatusContacted, Reason: "Called", CreatedAt: t0.Add(time.Hour)},
		{From: leads.StatusNew, To: leads.StatusContacted, Reason: "Called again", CreatedAt: t0.Add(time.Hour + 10*time.Second)},
	}

	events, _, err := Build(testLead(), history, nil)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestDedupe_Idempotent(t *testing.T) {
	history := []leads.StatusChange{
		{ID: "h-1", From: leads.StatusNew, To: leads.StatusContacted, Reason: "Called", CreatedAt: t0.Add(time.Hour)},
		{From: leads.StatusContacted, To: leads.StatusQualified, Reason: "Budget confirmed", CreatedAt: t0.Add(2 * time.Hour)},
	}

	once, _, err := Build(testLead(), history, nil)
	require.NoError(t, err)

	twice, _, err := Build(testLead(), append(append([]leads.StatusChange{}, history...), history...), nil)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
}

func TestBuild_AgentEmailKeepsFullContent(t *testing.T) {
	content := "Hi there, following up on our conversation. " + strings.Repeat("More detail. ", 20)
	conversations := []leads.Message{
		{ID: "m-1", Channel: leads.ChannelEmail, Sender: leads.SenderAgent, Content: content, Delivery: leads.DeliveryRead, CreatedAt: t0.Add(time.Hour)},
	}

	events, _, err := Build(testLead(), nil, conversations)
	require.NoError(t, err)
	require.Len(t, events, 2)

	ev := events[1]
	assert.Equal(t, KindMessageSent, ev.Kind)
	assert.Equal(t, VariantSystem, ev.Variant)
	assert.Equal(t, "Sent an email", ev.Title)
	assert.Equal(t, content, ev.Body)
	assert.Equal(t, leads.DeliveryRead, ev.Delivery)
}

func TestBuild_GenericMessageTruncated(t *testing.T) {
	content := strings.Repeat("x", 120)
	conversations := []leads.Message{
		{Channel: leads.ChannelChat, Sender: leads.SenderLead, Content: content, CreatedAt: t0.Add(time.Hour)},
	}

	events, _, err := Build(testLead(), nil, conversations)
	require.NoError(t, err)
	require.Len(t, events, 2)

	ev := events[1]
	assert.Equal(t, KindMessageReceived, ev.Kind)
	assert.Equal(t, VariantLog, ev.Variant)
	assert.Equal(t, "Lead Responded", ev.Title)
	assert.Equal(t, strings.Repeat("x", 100)+"...", ev.Body)
}

func TestBuild_MessageTitles(t *testing.T) {
	conversations := []leads.Message{
		{Channel: leads.ChannelChat, Sender: leads.SenderAgent, Content: "ping", CreatedAt: t0.Add(time.Minute)},
		{Channel: leads.ChannelEmail, Sender: leads.SenderLead, Content: "pong", CreatedAt: t0.Add(2 * time.Minute)},
	}

	events, _, err := Build(testLead(), nil, conversations)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "Chat Sent", events[1].Title)
	assert.Equal(t, KindMessageSent, events[1].Kind)
	assert.Equal(t, "Lead Responded", events[2].Title)
	assert.Equal(t, KindMessageReceived, events[2].Kind)
}

func TestBuild_SortedAscending_StableOnTies(t *testing.T) {
	at := t0.Add(time.Hour)
	history := []leads.StatusChange{
		{ID: "h-2", From: leads.StatusNew, To: leads.StatusContacted, Reason: "second hour", CreatedAt: t0.Add(2 * time.Hour)},
		{ID: "h-1", From: leads.StatusContacted, To: leads.StatusContacted, Reason: "same instant A", CreatedAt: at},
		{ID: "h-3", From: leads.StatusQualified, To: leads.StatusQualified, Reason: "same instant B", CreatedAt: at},
	}
	conversations := []leads.Message{
		{Channel: leads.ChannelChat, Sender: leads.SenderLead, Content: "hello", CreatedAt: t0.Add(30 * time.Minute)},
	}

	events, _, err := Build(testLead(), history, conversations)
	require.NoError(t, err)
	require.Len(t, events, 5)

	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].OccurredAt.Before(events[i-1].OccurredAt), "events out of order at %d", i)
	}

	assert.Equal(t, KindLeadCaptured, events[0].Kind)
	assert.Equal(t, "hello", events[1].Body)
	// Tie at +1h keeps input order.
	assert.Equal(t, "same instant A", events[2].Body)
	assert.Equal(t, "same instant B", events[3].Body)
	assert.Equal(t, "second hour", events[4].Body)
}

func TestBuild_SkipsUndatedRecordsWithWarnings(t *testing.T) {
	history := []leads.StatusChange{
		{ID: "h-1", From: leads.StatusNew, To: leads.StatusContacted, Reason: "kept", CreatedAt: t0.Add(time.Hour)},
		{ID: "h-2", From: leads.StatusNew, To: leads.StatusContacted, Reason: "no date"},
	}
	conversations := []leads.Message{
		{ID: "m-1", Channel: leads.ChannelChat, Sender: leads.SenderLead, Content: "no date"},
	}

	events, warnings, err := Build(testLead(), history, conversations)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Len(t, warnings, 2)
	assert.Equal(t, "status_history", warnings[0].Input)
	assert.Equal(t, "h-2", warnings[0].RecordID)
	assert.Equal(t, "conversations", warnings[1].Input)
	assert.Equal(t, "m-1", warnings[1].RecordID)
}
