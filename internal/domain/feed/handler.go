package feed

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"lead-activity-feed/internal/domain/timeline"
	"lead-activity-feed/internal/middleware"
	"lead-activity-feed/internal/ports/crm"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/leads/{leadID}/timeline", func(tr chi.Router) {
		tr.Get("/", getTimelineHandler(svc))
		tr.Post("/refresh", refreshTimelineHandler(svc))
	})
}

// timelineEventResponse is one entry of the activity feed as served to the
// browser client.
type timelineEventResponse struct {
	Kind       string    `json:"kind" enums:"lead_captured,remark,message_sent,message_received"`
	Variant    string    `json:"variant" enums:"system,log"`
	Title      string    `json:"title"`
	Body       string    `json:"body,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	StatusFrom string    `json:"status_from,omitempty"`
	StatusTo   string    `json:"status_to,omitempty"`
	Delivery   string    `json:"delivery_status,omitempty"`
}

type timelineWarningResponse struct {
	Input    string `json:"input"`
	RecordID string `json:"record_id,omitempty"`
	Reason   string `json:"reason"`
}

// timelineResponse is the merged feed for one lead. partial=true means an
// upstream input degraded to a cached snapshot or an empty collection.
type timelineResponse struct {
	LeadID   string                    `json:"lead_id"`
	Partial  bool                      `json:"partial"`
	Events   []timelineEventResponse   `json:"events"`
	Warnings []timelineWarningResponse `json:"warnings,omitempty"`
	Notices  []string                  `json:"notices,omitempty"`
}

// getTimelineHandler godoc
// @Summary Get a lead's activity timeline
// @Description Merges lead capture, status-history remarks and conversations into one chronologically ordered feed. Upstream fetch failures degrade to a partial feed instead of an error. Authentication: `X-Debug-User-ID` (dev) or `Authorization: Bearer <token>` (prod).
// @Tags timeline
// @Produce json
// @Param X-Debug-User-ID header string false "Dev-mode user id"
// @Param Authorization header string false "Bearer token in production"
// @Param leadID path string true "Lead id"
// @Success 200 {object} timelineResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "lead not found"
// @Failure 502 {string} string "upstream unavailable"
// @Router /leads/{leadID}/timeline [get]
func getTimelineHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		leadID := chi.URLParam(r, "leadID")
		res, err := svc.Timeline(r.Context(), leadID)
		if err != nil {
			writeTimelineError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toTimelineResponse(res))
	}
}

// refreshTimelineHandler godoc
// @Summary Refresh a lead's activity timeline
// @Description Drops the already-loaded guard and cached state for the lead, refetches both inputs from upstream and rebuilds the feed. Used after a remark or message is added upstream.
// @Tags timeline
// @Produce json
// @Param X-Debug-User-ID header string false "Dev-mode user id"
// @Param Authorization header string false "Bearer token in production"
// @Param leadID path string true "Lead id"
// @Success 200 {object} timelineResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 404 {string} string "lead not found"
// @Failure 502 {string} string "upstream unavailable"
// @Router /leads/{leadID}/timeline/refresh [post]
func refreshTimelineHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		leadID := chi.URLParam(r, "leadID")
		res, err := svc.Refresh(r.Context(), leadID)
		if err != nil {
			writeTimelineError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toTimelineResponse(res))
	}
}

func writeTimelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, crm.ErrNotFound):
		http.Error(w, "lead not found", http.StatusNotFound)
	case errors.Is(err, timeline.ErrLeadRequired):
		http.Error(w, "upstream returned an invalid lead", http.StatusBadGateway)
	default:
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}
}

func toTimelineResponse(res Result) timelineResponse {
	events := make([]timelineEventResponse, 0, len(res.Events))
	for _, ev := range res.Events {
		out := timelineEventResponse{
			Kind:       string(ev.Kind),
			Variant:    string(ev.Variant),
			Title:      ev.Title,
			Body:       ev.Body,
			OccurredAt: ev.OccurredAt,
			Delivery:   string(ev.Delivery),
		}
		if ev.Transition != nil {
			out.StatusFrom = string(ev.Transition.From)
			out.StatusTo = string(ev.Transition.To)
		}
		events = append(events, out)
	}

	warnings := make([]timelineWarningResponse, 0, len(res.Warnings))
	for _, wn := range res.Warnings {
		warnings = append(warnings, timelineWarningResponse{
			Input:    wn.Input,
			RecordID: wn.RecordID,
			Reason:   wn.Reason,
		})
	}

	return timelineResponse{
		LeadID:   res.LeadID,
		Partial:  res.Partial,
		Events:   events,
		Warnings: warnings,
		Notices:  res.Notices,
	}
}

// writeJSON is deliberately local to this package; shared response helpers
// can wait until a second module needs them.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
