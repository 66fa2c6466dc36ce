// Package scheduleapi is an HTTP client for the external schedule REST API.
package scheduleapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/githubixx/homeshop-go/internal/domain"
	"github.com/githubixx/homeshop-go/internal/ports"
)

const apiPrefix = "/api/v1"

// Client implements ports.ScheduleAPI over HTTP
type Client struct {
	http *resty.Client
	zone *time.Location
}

var _ ports.ScheduleAPI = (*Client)(nil)

// NewClient creates a client for the API at baseURL. Timestamps are returned
// in zone. GET requests are retried once on transport errors and 5xx.
func NewClient(baseURL string, timeout time.Duration, zone *time.Location) *Client {
	r := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")+apiPrefix).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(1).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(time.Second).
		AddRetryCondition(retryableGET)
	return &Client{http: r, zone: zone}
}

// SetBasicAuth sends credentials with every request.
func (c *Client) SetBasicAuth(user, password string) *Client {
	c.http.SetBasicAuth(user, password)
	return c
}

func retryableGET(resp *resty.Response, err error) bool {
	if resp == nil || resp.Request == nil || resp.Request.Method != resty.MethodGet {
		return false
	}
	return err != nil || resp.StatusCode() >= http.StatusInternalServerError
}

// Ping checks the API health endpoint
func (c *Client) Ping(ctx context.Context) error {
	var errEnv envelope[any]
	resp, err := c.http.R().
		SetContext(ctx).
		SetError(&errEnv).
		Get("/health")
	return c.check("ping", resp, err, &errEnv)
}

// ListBroadcasts retrieves the broadcast slots matching q
func (c *Client) ListBroadcasts(ctx context.Context, q domain.BroadcastQuery) ([]domain.BroadcastSlot, error) {
	var (
		out    envelope[[]broadcastDTO]
		errEnv envelope[any]
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(q.Params()).
		SetResult(&out).
		SetError(&errEnv).
		Get("/broadcasts")
	if err := c.check("list broadcasts", resp, err, &errEnv); err != nil {
		return nil, err
	}

	slots := make([]domain.BroadcastSlot, 0, len(out.Data))
	for _, dto := range out.Data {
		slot, err := dto.toDomain(c.zone)
		if err != nil {
			return nil, fmt.Errorf("list broadcasts: %w", err)
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// ListChannels retrieves all channels
func (c *Client) ListChannels(ctx context.Context) ([]domain.Channel, error) {
	var (
		out    envelope[[]channelDTO]
		errEnv envelope[any]
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&errEnv).
		Get("/channels")
	if err := c.check("list channels", resp, err, &errEnv); err != nil {
		return nil, err
	}

	channels := make([]domain.Channel, 0, len(out.Data))
	for _, dto := range out.Data {
		channels = append(channels, dto.toDomain())
	}
	return channels, nil
}

// ListAlerts retrieves all alert rules
func (c *Client) ListAlerts(ctx context.Context) ([]domain.AlertRule, error) {
	var (
		out    envelope[[]alertDTO]
		errEnv envelope[any]
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&errEnv).
		Get("/alerts")
	if err := c.check("list alerts", resp, err, &errEnv); err != nil {
		return nil, err
	}

	rules := make([]domain.AlertRule, 0, len(out.Data))
	for _, dto := range out.Data {
		rules = append(rules, dto.toDomain(c.zone))
	}
	return rules, nil
}

// CreateAlert creates an alert rule
func (c *Client) CreateAlert(ctx context.Context, in domain.AlertRuleInput) (*domain.AlertRule, error) {
	var (
		out    envelope[alertDTO]
		errEnv envelope[any]
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(newAlertCreateDTO(in)).
		SetResult(&out).
		SetError(&errEnv).
		Post("/alerts")
	if err := c.check("create alert", resp, err, &errEnv); err != nil {
		return nil, err
	}
	rule := out.Data.toDomain(c.zone)
	return &rule, nil
}

// UpdateAlert applies a partial update to an alert rule
func (c *Client) UpdateAlert(ctx context.Context, id int64, patch domain.AlertRulePatch) (*domain.AlertRule, error) {
	var (
		out    envelope[alertDTO]
		errEnv envelope[any]
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		SetBody(newAlertUpdateDTO(patch)).
		SetResult(&out).
		SetError(&errEnv).
		Patch("/alerts/{id}")
	if err := c.check("update alert", resp, err, &errEnv); err != nil {
		return nil, err
	}
	rule := out.Data.toDomain(c.zone)
	return &rule, nil
}

// DeleteAlert deletes an alert rule
func (c *Client) DeleteAlert(ctx context.Context, id int64) error {
	var errEnv envelope[any]
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		SetError(&errEnv).
		Delete("/alerts/{id}")
	return c.check("delete alert", resp, err, &errEnv)
}

// check turns a transport failure or non-2xx response into a *domain.FetchError.
func (c *Client) check(op string, resp *resty.Response, err error, errEnv *envelope[any]) error {
	if err != nil {
		return &domain.FetchError{Op: op, Err: err}
	}
	if !resp.IsError() {
		return nil
	}

	status := resp.StatusCode()
	msg := errEnv.Meta.Message
	if msg == "" {
		msg = strings.TrimSpace(http.StatusText(status))
	}
	return &domain.FetchError{
		Op:      op,
		Status:  status,
		Message: msg,
		Err:     statusError(status),
	}
}

func statusError(status int) error {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return domain.ErrInvalidInput
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusForbidden:
		return domain.ErrForbidden
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusConflict:
		return domain.ErrConflict
	}
	return nil
}
