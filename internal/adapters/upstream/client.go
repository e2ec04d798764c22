package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"lead-activity-feed/internal/domain/leads"
	"lead-activity-feed/internal/platform/httpclient"
	"lead-activity-feed/internal/platform/metrics"
	"lead-activity-feed/internal/ports/crm"
)

var (
	ErrNotConfigured = errors.New("upstream client not configured")
)

// Config for the CRM API client. BaseURL and APIKey normally come from the
// service config; APIKeyHeader defaults to X-Api-Key.
type Config struct {
	BaseURL      string
	APIKey       string
	APIKeyHeader string
	Timeout      time.Duration
}

// Client is the REST adapter for the upstream CRM. It implements the
// crm.LeadSource, crm.StatusHistorySource and crm.ConversationSource ports.
type Client struct {
	http         *httpclient.Client
	apiKey       string
	apiKeyHeader string
}

func NewClient(cfg Config) (*Client, error) {
	header := strings.TrimSpace(cfg.APIKeyHeader)
	if header == "" {
		header = "X-Api-Key"
	}

	hc, err := httpclient.NewWithBaseURL(strings.TrimSpace(cfg.BaseURL), cfg.Timeout)
	if err != nil {
		return nil, err
	}

	return &Client{
		http:         hc,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		apiKeyHeader: header,
	}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil && c.http.BaseURL != ""
}

// Ping checks upstream reachability. Used by the startup readiness poller.
func (c *Client) Ping(ctx context.Context) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	return c.http.DoJSON(ctx, http.MethodGet, "/health", c.headers(), nil, nil)
}

// GetLead resolves one lead record. Unknown ids map to crm.ErrNotFound.
func (c *Client) GetLead(ctx context.Context, id string) (lead leads.Lead, err error) {
	defer func() {
		if err != nil && !errors.Is(err, crm.ErrNotFound) {
			metrics.RecordUpstreamFailure("lead")
		}
	}()

	if !c.IsConfigured() {
		return leads.Lead{}, ErrNotConfigured
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return leads.Lead{}, crm.ErrNotFound
	}

	raw, err := c.http.GetRaw(ctx, "/leads/"+url.PathEscape(id), c.headers())
	if err != nil {
		if isNotFound(err) {
			return leads.Lead{}, crm.ErrNotFound
		}
		return leads.Lead{}, fmt.Errorf("upstream: get lead: %w", err)
	}

	lead, err = decodeLead(raw)
	if err != nil {
		return leads.Lead{}, fmt.Errorf("upstream: decode lead: %w", err)
	}
	return lead, nil
}

// GetStatusHistory fetches the raw status-change records for a lead,
// normalized at this boundary. Undecodable records are dropped and counted,
// not fatal.
func (c *Client) GetStatusHistory(ctx context.Context, leadID string) (recs []leads.StatusChange, err error) {
	defer func() {
		if err != nil {
			metrics.RecordUpstreamFailure("status_history")
		}
	}()

	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	raw, err := c.http.GetRaw(ctx, "/leads/"+url.PathEscape(leadID)+"/status-history", c.headers())
	if err != nil {
		return nil, fmt.Errorf("upstream: get status history: %w", err)
	}

	var dropped int
	recs, dropped, err = decodeStatusHistory(raw)
	if err != nil {
		return nil, fmt.Errorf("upstream: decode status history: %w", err)
	}
	for i := 0; i < dropped; i++ {
		metrics.RecordDroppedRecord("status_history")
	}
	return recs, nil
}

// GetConversations fetches the raw message records for a lead.
func (c *Client) GetConversations(ctx context.Context, leadID string) (msgs []leads.Message, err error) {
	defer func() {
		if err != nil {
			metrics.RecordUpstreamFailure("conversations")
		}
	}()

	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	raw, err := c.http.GetRaw(ctx, "/leads/"+url.PathEscape(leadID)+"/conversations", c.headers())
	if err != nil {
		return nil, fmt.Errorf("upstream: get conversations: %w", err)
	}

	var dropped int
	msgs, dropped, err = decodeConversations(raw)
	if err != nil {
		return nil, fmt.Errorf("upstream: decode conversations: %w", err)
	}
	for i := 0; i < dropped; i++ {
		metrics.RecordDroppedRecord("conversations")
	}
	return msgs, nil
}

// headers builds per-request headers: the API key plus a fresh correlation
// id so upstream logs can be matched to ours.
func (c *Client) headers() map[string]string {
	h := map[string]string{
		"X-Request-ID": uuid.NewString(),
	}
	if c.apiKey != "" {
		h[c.apiKeyHeader] = c.apiKey
	}
	return h
}

func isNotFound(err error) bool {
	var httpErr *httpclient.HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound
}
