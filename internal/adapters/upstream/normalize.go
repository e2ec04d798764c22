package upstream

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"lead-activity-feed/internal/domain/leads"
)

// The CRM API is not consistent about payload shape: the same endpoint has
// been seen returning a bare array, a JSON string that itself contains an
// array, and an object envelope wrapping the array. All of that is resolved
// here, once, so the rest of the service only ever sees the fixed record
// shapes in the leads package.

var errUnexpectedShape = errors.New("upstream: unexpected payload shape")

var envelopeKeys = []string{"data", "items", "history", "conversations"}

func normalizeArray(raw []byte) ([]json.RawMessage, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
			return nil, err
		}
		return items, nil

	case '"':
		// Array serialized twice: decode the string, then recurse.
		var inner string
		if err := json.Unmarshal([]byte(trimmed), &inner); err != nil {
			return nil, err
		}
		return normalizeArray([]byte(inner))

	case '{':
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &envelope); err != nil {
			return nil, err
		}
		for _, key := range envelopeKeys {
			if v, ok := envelope[key]; ok {
				return normalizeArray(v)
			}
		}
		return nil, errUnexpectedShape

	default:
		return nil, errUnexpectedShape
	}
}

type statusChangeRecord struct {
	ID        string `json:"id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	Reason    string `json:"reason"`
	CreatedAt string `json:"created_at"`
}

type messageRecord struct {
	ID        string `json:"id"`
	Channel   string `json:"channel"`
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	Message   string `json:"message"` // older API versions
	Delivery  string `json:"delivery_status"`
	CreatedAt string `json:"created_at"`
}

type leadRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Source    string `json:"source"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// decodeStatusHistory normalizes a raw payload into status-change records.
// Individual records that fail to decode or carry no usable timestamp are
// dropped (returned as a count), never failing the batch.
func decodeStatusHistory(raw []byte) ([]leads.StatusChange, int, error) {
	items, err := normalizeArray(raw)
	if err != nil {
		return nil, 0, err
	}

	out := make([]leads.StatusChange, 0, len(items))
	dropped := 0
	for _, item := range items {
		var rec statusChangeRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			dropped++
			continue
		}
		at, ok := parseTime(rec.CreatedAt)
		if !ok {
			dropped++
			continue
		}
		out = append(out, leads.StatusChange{
			ID:        rec.ID,
			From:      leads.Status(rec.OldStatus),
			To:        leads.Status(rec.NewStatus),
			Reason:    rec.Reason,
			CreatedAt: at,
		})
	}
	return out, dropped, nil
}

func decodeConversations(raw []byte) ([]leads.Message, int, error) {
	items, err := normalizeArray(raw)
	if err != nil {
		return nil, 0, err
	}

	out := make([]leads.Message, 0, len(items))
	dropped := 0
	for _, item := range items {
		var rec messageRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			dropped++
			continue
		}
		at, ok := parseTime(rec.CreatedAt)
		if !ok {
			dropped++
			continue
		}
		content := rec.Content
		if content == "" {
			content = rec.Message
		}
		out = append(out, leads.Message{
			ID:        rec.ID,
			Channel:   leads.Channel(rec.Channel),
			Sender:    leads.SenderRole(rec.Sender),
			Content:   content,
			Delivery:  leads.DeliveryStatus(rec.Delivery),
			CreatedAt: at,
		})
	}
	return out, dropped, nil
}

func decodeLead(raw []byte) (leads.Lead, error) {
	var rec leadRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return leads.Lead{}, err
	}

	// Some deployments wrap the lead in a data envelope; a plain decode then
	// "succeeds" with every field empty.
	if rec.ID == "" {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Data) > 0 {
			if err := json.Unmarshal(envelope.Data, &rec); err != nil {
				return leads.Lead{}, err
			}
		}
	}

	at, _ := parseTime(rec.CreatedAt)
	return leads.Lead{
		ID:        rec.ID,
		Name:      rec.Name,
		Source:    leads.Source(rec.Source),
		Status:    leads.Status(rec.Status),
		CreatedAt: at,
	}, nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
