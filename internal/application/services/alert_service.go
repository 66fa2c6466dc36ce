package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/githubixx/homeshop-go/internal/domain"
	"github.com/githubixx/homeshop-go/internal/ports"
)

// Alert rule defaults applied to new rules.
const (
	DefaultNotifyBeforeMinutes = 30
	DefaultDestinationType     = domain.DestinationSlack
)

// AlertService handles alert-rule operations
type AlertService struct {
	api      ports.ScheduleAPI
	validate *validator.Validate
}

// NewAlertService creates a new alert service
func NewAlertService(api ports.ScheduleAPI) *AlertService {
	return &AlertService{
		api:      api,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// DefaultAlertInput returns an input carrying the defaults for a new rule.
func DefaultAlertInput() domain.AlertRuleInput {
	return domain.AlertRuleInput{
		NotifyBeforeMinutes: DefaultNotifyBeforeMinutes,
		DestinationType:     DefaultDestinationType,
		Active:              true,
	}
}

// List retrieves all alert rules
func (s *AlertService) List(ctx context.Context) ([]domain.AlertRule, error) {
	return s.api.ListAlerts(ctx)
}

// Get retrieves one alert rule
func (s *AlertService) Get(ctx context.Context, id int64) (*domain.AlertRule, error) {
	if id <= 0 {
		return nil, domain.ErrInvalidInput
	}
	rules, err := s.api.ListAlerts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rules {
		if rules[i].ID == id {
			return &rules[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

// Create validates and creates a new alert rule
func (s *AlertService) Create(ctx context.Context, in domain.AlertRuleInput) (*domain.AlertRule, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.DestinationValue = strings.TrimSpace(in.DestinationValue)
	if err := s.validate.Struct(in); err != nil {
		return nil, invalidAlert(err)
	}
	if err := s.validateDestination(in.DestinationType, in.DestinationValue); err != nil {
		return nil, err
	}
	return s.api.CreateAlert(ctx, in)
}

// Update validates and applies a partial update
func (s *AlertService) Update(ctx context.Context, id int64, patch domain.AlertRulePatch) (*domain.AlertRule, error) {
	if id <= 0 || patch.IsEmpty() {
		return nil, domain.ErrInvalidInput
	}
	if err := s.validate.Struct(patch); err != nil {
		return nil, invalidAlert(err)
	}
	if patch.DestinationType != nil || patch.DestinationValue != nil {
		current, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		merged := *current
		merged.Apply(patch)
		if err := s.validateDestination(merged.DestinationType, merged.DestinationValue); err != nil {
			return nil, err
		}
	}
	return s.api.UpdateAlert(ctx, id, patch)
}

// Delete deletes an alert rule
func (s *AlertService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return domain.ErrInvalidInput
	}
	return s.api.DeleteAlert(ctx, id)
}

// Toggle flips an alert rule's active state
func (s *AlertService) Toggle(ctx context.Context, id int64) (*domain.AlertRule, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	active := !current.Active
	return s.api.UpdateAlert(ctx, id, domain.AlertRulePatch{Active: &active})
}

// validateDestination checks the destination value against its type.
func (s *AlertService) validateDestination(typ domain.DestinationType, value string) error {
	var tag string
	switch typ {
	case domain.DestinationEmail:
		tag = "email"
	case domain.DestinationSlack:
		tag = "http_url"
	default:
		return fmt.Errorf("%w: unknown destination type %q", domain.ErrInvalidInput, typ)
	}
	if err := s.validate.Var(value, "required,"+tag); err != nil {
		return fmt.Errorf("%w: destination %q is not a valid %s destination", domain.ErrInvalidInput, value, typ)
	}
	return nil
}

func invalidAlert(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: invalid alert rule: %s", domain.ErrInvalidInput, strings.Join(fields, ", "))
}
