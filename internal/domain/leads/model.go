package leads

import "time"

// Lead is the prospective-customer record as served by the upstream CRM.
// CreatedAt is immutable upstream and always precedes every derived event.
type Lead struct {
	ID     string
	Name   string
	Source Source
	Status Status

	CreatedAt time.Time
}

// DisplayName falls back to a placeholder when upstream has no name on file.
func (l Lead) DisplayName() string {
	if l.Name == "" {
		return "Unknown Lead"
	}
	return l.Name
}

// StatusChange is one raw status-history record. ID may be empty (upstream
// double-writes without an id are tolerated downstream). From may equal To:
// that is a remark-only entry, not a real transition.
type StatusChange struct {
	ID     string
	From   Status
	To     Status
	Reason string

	CreatedAt time.Time
}

// Message is one inbound or outbound conversation record, immutable once
// created upstream.
type Message struct {
	ID       string
	Channel  Channel
	Sender   SenderRole
	Content  string
	Delivery DeliveryStatus // optional, empty when upstream has none

	CreatedAt time.Time
}
