package ports

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/githubixx/homeshop-go/internal/domain"
)

// MockScheduleAPI is a flexible test double for ScheduleAPI with function field customization.
// This is the canonical mock implementation used across all tests.
//
// Usage with function fields:
//
//	mock := &ports.MockScheduleAPI{
//	    ListChannelsFunc: func(ctx context.Context) ([]domain.Channel, error) {
//	        return []domain.Channel{{ID: 1, Code: "gsshop", Name: "GS SHOP"}}, nil
//	    },
//	}
//
// Usage with builder pattern:
//
//	mock := ports.NewMockScheduleAPI().
//	    WithChannels([]domain.Channel{{ID: 1, Code: "gsshop"}}).
//	    WithBroadcasts(slots)
type MockScheduleAPI struct {
	PingFunc           func(ctx context.Context) error
	ListBroadcastsFunc func(ctx context.Context, q domain.BroadcastQuery) ([]domain.BroadcastSlot, error)
	ListChannelsFunc   func(ctx context.Context) ([]domain.Channel, error)
	ListAlertsFunc     func(ctx context.Context) ([]domain.AlertRule, error)
	CreateAlertFunc    func(ctx context.Context, in domain.AlertRuleInput) (*domain.AlertRule, error)
	UpdateAlertFunc    func(ctx context.Context, id int64, patch domain.AlertRulePatch) (*domain.AlertRule, error)
	DeleteAlertFunc    func(ctx context.Context, id int64) error

	mu         sync.RWMutex
	broadcasts []domain.BroadcastSlot
	channels   []domain.Channel
	alerts     []domain.AlertRule
	nextID     int64
	calls      map[string]int
	// Now stamps created/updated alerts. Defaults to time.Now.
	Now func() time.Time
}

var _ ScheduleAPI = (*MockScheduleAPI)(nil)

// NewMockScheduleAPI creates a new mock with default behavior.
func NewMockScheduleAPI() *MockScheduleAPI {
	return &MockScheduleAPI{
		broadcasts: []domain.BroadcastSlot{},
		channels:   []domain.Channel{},
		alerts:     []domain.AlertRule{},
		calls:      make(map[string]int),
	}
}

// WithBroadcasts sets the slots returned by ListBroadcasts.
func (m *MockScheduleAPI) WithBroadcasts(slots []domain.BroadcastSlot) *MockScheduleAPI {
	m.mu.Lock()
	m.broadcasts = slots
	m.mu.Unlock()
	return m
}

// WithChannels sets the channels returned by ListChannels.
func (m *MockScheduleAPI) WithChannels(channels []domain.Channel) *MockScheduleAPI {
	m.mu.Lock()
	m.channels = channels
	m.mu.Unlock()
	return m
}

// WithAlerts sets the alert rules returned by ListAlerts.
func (m *MockScheduleAPI) WithAlerts(alerts []domain.AlertRule) *MockScheduleAPI {
	m.mu.Lock()
	m.alerts = alerts
	for _, a := range alerts {
		m.nextID = max(m.nextID, a.ID)
	}
	m.mu.Unlock()
	return m
}

// Calls returns how often the named method was invoked.
func (m *MockScheduleAPI) Calls(method string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[method]
}

func (m *MockScheduleAPI) record(method string) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[method]++
	m.mu.Unlock()
}

func (m *MockScheduleAPI) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// Implementation of ScheduleAPI interface

func (m *MockScheduleAPI) Ping(ctx context.Context) error {
	m.record("Ping")
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return ctx.Err()
}

// ListBroadcasts filters the configured slots by channel code, keyword (title
// substring), category and stored status. The date is not applied.
func (m *MockScheduleAPI) ListBroadcasts(ctx context.Context, q domain.BroadcastQuery) ([]domain.BroadcastSlot, error) {
	m.record("ListBroadcasts")
	if m.ListBroadcastsFunc != nil {
		return m.ListBroadcastsFunc(ctx, q)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.BroadcastSlot, 0, len(m.broadcasts))
	for _, s := range m.broadcasts {
		if q.ChannelCode != "" && s.ChannelCode != q.ChannelCode {
			continue
		}
		if q.Keyword != "" && !strings.Contains(s.RawTitle, q.Keyword) {
			continue
		}
		if len(q.Categories) > 0 && !slices.Contains(q.Categories, s.Category) {
			continue
		}
		if q.Status != "" && s.Status != q.Status {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *MockScheduleAPI) ListChannels(ctx context.Context) ([]domain.Channel, error) {
	m.record("ListChannels")
	if m.ListChannelsFunc != nil {
		return m.ListChannelsFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.channels), nil
}

func (m *MockScheduleAPI) ListAlerts(ctx context.Context) ([]domain.AlertRule, error) {
	m.record("ListAlerts")
	if m.ListAlertsFunc != nil {
		return m.ListAlertsFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.alerts), nil
}

func (m *MockScheduleAPI) CreateAlert(ctx context.Context, in domain.AlertRuleInput) (*domain.AlertRule, error) {
	m.record("CreateAlert")
	if m.CreateAlertFunc != nil {
		return m.CreateAlertFunc(ctx, in)
	}
	if in.Name == "" {
		return nil, domain.ErrInvalidInput
	}
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	rule := domain.AlertRule{
		ID:                  m.nextID,
		Name:                in.Name,
		TargetChannelCodes:  in.TargetChannelCodes,
		Keywords:            in.Keywords,
		Categories:          in.Categories,
		NotifyBeforeMinutes: in.NotifyBeforeMinutes,
		DestinationType:     in.DestinationType,
		DestinationValue:    in.DestinationValue,
		Active:              in.Active,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	m.alerts = append(m.alerts, rule)
	return &rule, nil
}

func (m *MockScheduleAPI) UpdateAlert(ctx context.Context, id int64, patch domain.AlertRulePatch) (*domain.AlertRule, error) {
	m.record("UpdateAlert")
	if m.UpdateAlertFunc != nil {
		return m.UpdateAlertFunc(ctx, id, patch)
	}
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.alerts {
		if m.alerts[i].ID != id {
			continue
		}
		m.alerts[i].Apply(patch)
		m.alerts[i].UpdatedAt = now
		rule := m.alerts[i]
		return &rule, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockScheduleAPI) DeleteAlert(ctx context.Context, id int64) error {
	m.record("DeleteAlert")
	if m.DeleteAlertFunc != nil {
		return m.DeleteAlertFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.alerts {
		if a.ID == id {
			m.alerts = append(m.alerts[:i], m.alerts[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}
