package ports

import (
	"context"

	"github.com/githubixx/homeshop-go/internal/domain"
)

// ScheduleAPI defines the interface for reading and editing data held by the
// external schedule API
type ScheduleAPI interface {
	// Ping checks that the API is reachable and healthy
	Ping(ctx context.Context) error

	// ListBroadcasts retrieves the broadcast slots matching q
	ListBroadcasts(ctx context.Context, q domain.BroadcastQuery) ([]domain.BroadcastSlot, error)

	// ListChannels retrieves all channels
	ListChannels(ctx context.Context) ([]domain.Channel, error)

	// ListAlerts retrieves all alert rules
	ListAlerts(ctx context.Context) ([]domain.AlertRule, error)

	// CreateAlert creates an alert rule and returns it as stored
	CreateAlert(ctx context.Context, in domain.AlertRuleInput) (*domain.AlertRule, error)

	// UpdateAlert applies a partial update and returns the rule as stored
	UpdateAlert(ctx context.Context, id int64, patch domain.AlertRulePatch) (*domain.AlertRule, error)

	// DeleteAlert deletes an alert rule
	DeleteAlert(ctx context.Context, id int64) error
}
