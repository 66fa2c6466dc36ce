package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/githubixx/homeshop-go/internal/adapters/primary/presenter"
	"github.com/githubixx/homeshop-go/internal/application/services"
	"github.com/githubixx/homeshop-go/internal/application/timewindow"
	"github.com/githubixx/homeshop-go/internal/domain"
)

const maxBodyBytes = 64 << 10

// Handler handles HTTP requests
type Handler struct {
	logger    *slog.Logger
	dashboard *services.DashboardService
	schedule  *services.ScheduleService
	alerts    *services.AlertService
	zone      *time.Location
}

// NewHandler creates a new HTTP handler
func NewHandler(
	logger *slog.Logger,
	dashboard *services.DashboardService,
	schedule *services.ScheduleService,
	alerts *services.AlertService,
	zone *time.Location,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		dashboard: dashboard,
		schedule:  schedule,
		alerts:    alerts,
		zone:      zone,
	}
}

// Health reports whether the server is up and has a schedule snapshot.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	v := h.dashboard.View()
	status := map[string]any{
		"status":    "ok",
		"reference": v.Reference.In(h.zone),
	}
	if !v.RefreshedAt.IsZero() {
		status["refreshed_at"] = v.RefreshedAt.In(h.zone)
	}
	if v.Err != nil {
		status["status"] = "degraded"
		status["error"] = v.Err.Error()
	}
	writeJSON(w, http.StatusOK, status, "")
}

// Dashboard returns live, upcoming and past broadcasts at the shared reference.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := services.DashboardFilter{
		Date:        strings.TrimSpace(q.Get("date")),
		ChannelCode: strings.TrimSpace(q.Get("channelCode")),
		Keyword:     strings.TrimSpace(q.Get("keyword")),
		Categories:  splitList(q["category"]),
	}

	v, err := h.dashboard.Snapshot(r.Context(), filter)
	if err != nil {
		h.handleError(w, r, err, "load dashboard")
		return
	}
	writeJSON(w, http.StatusOK, presenter.NewDashboard(v, h.zone), "")
}

// Trends returns today's broadcast count per hour.
func (h *Handler) Trends(w http.ResponseWriter, r *http.Request) {
	counts, err := h.dashboard.Trends(r.Context())
	if err != nil {
		h.handleError(w, r, err, "load trends")
		return
	}
	date := timewindow.DateKey(h.dashboard.Reference(), h.zone)
	writeJSON(w, http.StatusOK, presenter.NewTrends(date, counts), "")
}

type channelResponse struct {
	ID        int64  `json:"id"`
	Code      string `json:"channel_code"`
	Name      string `json:"channel_name"`
	LogoURL   string `json:"channel_logo_url,omitempty"`
	LiveURL   string `json:"channel_live_url,omitempty"`
	StreamURL string `json:"channel_stream_url,omitempty"`
}

// Channels lists the home-shopping channels.
func (h *Handler) Channels(w http.ResponseWriter, r *http.Request) {
	channels, err := h.schedule.ListChannels(r.Context())
	if err != nil {
		h.handleError(w, r, err, "list channels")
		return
	}
	out := make([]channelResponse, 0, len(channels))
	for _, ch := range channels {
		out = append(out, channelResponse{
			ID:        ch.ID,
			Code:      ch.Code,
			Name:      ch.Name,
			LogoURL:   ch.LogoURL,
			LiveURL:   ch.LiveURL,
			StreamURL: ch.StreamURL,
		})
	}
	writeJSON(w, http.StatusOK, out, "")
}

type alertResponse struct {
	ID                  int64     `json:"id"`
	Name                string    `json:"alert_name"`
	TargetChannelCodes  []string  `json:"target_channel_codes"`
	Keywords            []string  `json:"keyword_list"`
	Categories          []string  `json:"category_list"`
	NotifyBeforeMinutes int       `json:"notify_before_minutes"`
	DestinationType     string    `json:"destination_type"`
	DestinationValue    string    `json:"destination_value"`
	Active              bool      `json:"is_active"`
	CreatedAt           time.Time `json:"created_at,omitzero"`
	UpdatedAt           time.Time `json:"updated_at,omitzero"`
}

func (h *Handler) newAlertResponse(a domain.AlertRule) alertResponse {
	resp := alertResponse{
		ID:                  a.ID,
		Name:                a.Name,
		TargetChannelCodes:  nonNil(a.TargetChannelCodes),
		Keywords:            nonNil(a.Keywords),
		Categories:          nonNil(a.Categories),
		NotifyBeforeMinutes: a.NotifyBeforeMinutes,
		DestinationType:     string(a.DestinationType),
		DestinationValue:    a.DestinationValue,
		Active:              a.Active,
	}
	if !a.CreatedAt.IsZero() {
		resp.CreatedAt = a.CreatedAt.In(h.zone)
	}
	if !a.UpdatedAt.IsZero() {
		resp.UpdatedAt = a.UpdatedAt.In(h.zone)
	}
	return resp
}

// alertCreateRequest mirrors alertResponse; omitted fields take the defaults.
type alertCreateRequest struct {
	Name                string   `json:"alert_name"`
	TargetChannelCodes  []string `json:"target_channel_codes"`
	Keywords            []string `json:"keyword_list"`
	Categories          []string `json:"category_list"`
	NotifyBeforeMinutes *int     `json:"notify_before_minutes"`
	DestinationType     string   `json:"destination_type"`
	DestinationValue    string   `json:"destination_value"`
	Active              *bool    `json:"is_active"`
}

func (req alertCreateRequest) input() domain.AlertRuleInput {
	in := services.DefaultAlertInput()
	in.Name = req.Name
	in.TargetChannelCodes = req.TargetChannelCodes
	in.Keywords = req.Keywords
	in.Categories = req.Categories
	in.DestinationValue = req.DestinationValue
	if req.NotifyBeforeMinutes != nil {
		in.NotifyBeforeMinutes = *req.NotifyBeforeMinutes
	}
	if req.DestinationType != "" {
		in.DestinationType = domain.DestinationType(strings.ToUpper(req.DestinationType))
	}
	if req.Active != nil {
		in.Active = *req.Active
	}
	return in
}

type alertPatchRequest struct {
	Name                *string   `json:"alert_name"`
	TargetChannelCodes  *[]string `json:"target_channel_codes"`
	Keywords            *[]string `json:"keyword_list"`
	Categories          *[]string `json:"category_list"`
	NotifyBeforeMinutes *int      `json:"notify_before_minutes"`
	DestinationType     *string   `json:"destination_type"`
	DestinationValue    *string   `json:"destination_value"`
	Active              *bool     `json:"is_active"`
}

func (req alertPatchRequest) patch() domain.AlertRulePatch {
	p := domain.AlertRulePatch{
		Name:                req.Name,
		TargetChannelCodes:  req.TargetChannelCodes,
		Keywords:            req.Keywords,
		Categories:          req.Categories,
		NotifyBeforeMinutes: req.NotifyBeforeMinutes,
		DestinationValue:    req.DestinationValue,
		Active:              req.Active,
	}
	if req.DestinationType != nil {
		t := domain.DestinationType(strings.ToUpper(*req.DestinationType))
		p.DestinationType = &t
	}
	return p
}

// Alerts lists alert rules.
func (h *Handler) Alerts(w http.ResponseWriter, r *http.Request) {
	rules, err := h.alerts.List(r.Context())
	if err != nil {
		h.handleError(w, r, err, "list alerts")
		return
	}
	out := make([]alertResponse, 0, len(rules))
	for _, a := range rules {
		out = append(out, h.newAlertResponse(a))
	}
	writeJSON(w, http.StatusOK, out, "")
}

// AlertCreate creates an alert rule.
func (h *Handler) AlertCreate(w http.ResponseWriter, r *http.Request) {
	var req alertCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, r, err, "decode alert")
		return
	}
	rule, err := h.alerts.Create(r.Context(), req.input())
	if err != nil {
		h.handleError(w, r, err, "create alert")
		return
	}
	writeJSON(w, http.StatusCreated, h.newAlertResponse(*rule), "alert created")
}

// AlertUpdate applies a partial update to an alert rule.
func (h *Handler) AlertUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := alertID(r)
	if err != nil {
		h.handleError(w, r, err, "update alert")
		return
	}
	var req alertPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, r, err, "decode alert")
		return
	}
	rule, err := h.alerts.Update(r.Context(), id, req.patch())
	if err != nil {
		h.handleError(w, r, err, "update alert")
		return
	}
	writeJSON(w, http.StatusOK, h.newAlertResponse(*rule), "alert updated")
}

// AlertDelete removes an alert rule.
func (h *Handler) AlertDelete(w http.ResponseWriter, r *http.Request) {
	id, err := alertID(r)
	if err != nil {
		h.handleError(w, r, err, "delete alert")
		return
	}
	if err := h.alerts.Delete(r.Context(), id); err != nil {
		h.handleError(w, r, err, "delete alert")
		return
	}
	writeJSON(w, http.StatusOK, nil, "alert deleted")
}

// AlertToggle flips an alert rule's active flag.
func (h *Handler) AlertToggle(w http.ResponseWriter, r *http.Request) {
	id, err := alertID(r)
	if err != nil {
		h.handleError(w, r, err, "toggle alert")
		return
	}
	rule, err := h.alerts.Toggle(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err, "toggle alert")
		return
	}
	writeJSON(w, http.StatusOK, h.newAlertResponse(*rule), "alert updated")
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error, op string) {
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		// Client went away; nothing to write.
		return
	}
	status, code := statusFor(err)
	attrs := []any{
		slog.String("op", op),
		slog.String("request_id", RequestIDFromContext(r.Context())),
		slog.Any("error", err),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", attrs...)
	} else {
		h.logger.Debug("request rejected", attrs...)
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "Internal Server Error"
	}
	writeError(w, status, code, msg)
}

func alertID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: alert id %q", domain.ErrInvalidInput, raw)
	}
	return id, nil
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: request body: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// splitList accepts both repeated and comma-separated values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for part := range strings.SplitSeq(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
