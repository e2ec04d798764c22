package timeline

import (
	"time"

	"lead-activity-feed/internal/domain/leads"
)

// Kind classifies what a timeline event describes.
type Kind string

const (
	KindLeadCaptured    Kind = "lead_captured"
	KindRemark          Kind = "remark"
	KindMessageSent     Kind = "message_sent"
	KindMessageReceived Kind = "message_received"
)

// Variant picks the presentation treatment for an event.
type Variant string

const (
	// VariantSystem renders as a highlighted system message.
	VariantSystem Variant = "system"
	// VariantLog renders as a generic log entry.
	VariantLog Variant = "log"
)

// Transition is the status change a remark event rode in on.
type Transition struct {
	From leads.Status
	To   leads.Status
}

// Event is one entry of the merged activity feed. Events are built fresh on
// every request and never persisted.
type Event struct {
	Kind    Kind
	Variant Variant

	Title string
	Body  string

	OccurredAt time.Time

	Transition *Transition          // set for remark events with a real transition
	Delivery   leads.DeliveryStatus // set for message events when upstream has it
}

// Warning reports a single input record that was skipped while building.
// Warnings are recoverable: the rest of the feed is still produced.
type Warning struct {
	Input    string // "status_history" or "conversations"
	RecordID string // may be empty, upstream ids are optional
	Reason   string
}
