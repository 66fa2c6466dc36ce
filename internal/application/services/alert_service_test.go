package services

import (
	"context"
	"errors"
	"testing"

	"github.com/githubixx/homeshop-go/internal/domain"
	"github.com/githubixx/homeshop-go/internal/ports"
)

func validAlertInput() domain.AlertRuleInput {
	in := DefaultAlertInput()
	in.Name = "냉장고 알림"
	in.TargetChannelCodes = []string{"gsshop"}
	in.Keywords = []string{"냉장고"}
	in.DestinationValue = "https://hooks.slack.com/services/T000/B000/XXXX"
	return in
}

func TestDefaultAlertInput(t *testing.T) {
	in := DefaultAlertInput()
	if in.NotifyBeforeMinutes != 30 || in.DestinationType != domain.DestinationSlack || !in.Active {
		t.Errorf("unexpected defaults: %+v", in)
	}
}

func TestAlertService_Create_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.AlertRuleInput)
		wantErr bool
	}{
		{"valid slack", func(in *domain.AlertRuleInput) {}, false},
		{"valid email", func(in *domain.AlertRuleInput) {
			in.DestinationType = domain.DestinationEmail
			in.DestinationValue = "me@example.com"
		}, false},
		{"zero minutes", func(in *domain.AlertRuleInput) { in.NotifyBeforeMinutes = 0 }, false},
		{"max minutes", func(in *domain.AlertRuleInput) { in.NotifyBeforeMinutes = 1440 }, false},
		{"blank name", func(in *domain.AlertRuleInput) { in.Name = "   " }, true},
		{"no channels", func(in *domain.AlertRuleInput) { in.TargetChannelCodes = nil }, true},
		{"empty channel code", func(in *domain.AlertRuleInput) { in.TargetChannelCodes = []string{""} }, true},
		{"no keywords", func(in *domain.AlertRuleInput) { in.Keywords = []string{} }, true},
		{"negative minutes", func(in *domain.AlertRuleInput) { in.NotifyBeforeMinutes = -1 }, true},
		{"too many minutes", func(in *domain.AlertRuleInput) { in.NotifyBeforeMinutes = 1441 }, true},
		{"unknown destination", func(in *domain.AlertRuleInput) { in.DestinationType = "SMS" }, true},
		{"slack needs url", func(in *domain.AlertRuleInput) { in.DestinationValue = "#general" }, true},
		{"email needs address", func(in *domain.AlertRuleInput) {
			in.DestinationType = domain.DestinationEmail
			in.DestinationValue = "https://example.com"
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := ports.NewMockScheduleAPI()
			svc := NewAlertService(api)
			in := validAlertInput()
			tt.mutate(&in)

			rule, err := svc.Create(context.Background(), in)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
				if api.Calls("CreateAlert") != 0 {
					t.Errorf("invalid input reached the API")
				}
				return
			}
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if rule.ID == 0 {
				t.Errorf("expected an id")
			}
		})
	}
}

func TestAlertService_Update(t *testing.T) {
	api := ports.NewMockScheduleAPI().WithAlerts([]domain.AlertRule{{
		ID: 3, Name: "a", TargetChannelCodes: []string{"gsshop"}, Keywords: []string{"x"},
		NotifyBeforeMinutes: 30, DestinationType: domain.DestinationSlack,
		DestinationValue: "https://hooks.slack.com/x", Active: true,
	}})
	svc := NewAlertService(api)
	ctx := context.Background()

	minutes := 45
	rule, err := svc.Update(ctx, 3, domain.AlertRulePatch{NotifyBeforeMinutes: &minutes})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if rule.NotifyBeforeMinutes != 45 {
		t.Errorf("NotifyBeforeMinutes = %d", rule.NotifyBeforeMinutes)
	}

	// Switching to EMAIL without a new address leaves a URL behind.
	email := domain.DestinationEmail
	if _, err := svc.Update(ctx, 3, domain.AlertRulePatch{DestinationType: &email}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for mismatched destination, got %v", err)
	}

	addr := "ops@example.com"
	rule, err = svc.Update(ctx, 3, domain.AlertRulePatch{DestinationType: &email, DestinationValue: &addr})
	if err != nil {
		t.Fatalf("Update destination: %v", err)
	}
	if rule.DestinationType != domain.DestinationEmail || rule.DestinationValue != addr {
		t.Errorf("destination not updated: %+v", rule)
	}

	if _, err := svc.Update(ctx, 3, domain.AlertRulePatch{}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("empty patch: expected ErrInvalidInput, got %v", err)
	}
	tooMany := 5000
	if _, err := svc.Update(ctx, 3, domain.AlertRulePatch{NotifyBeforeMinutes: &tooMany}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("out of range: expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Update(ctx, 99, domain.AlertRulePatch{DestinationValue: &addr}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown id: expected ErrNotFound, got %v", err)
	}
}

func TestAlertService_Toggle(t *testing.T) {
	api := ports.NewMockScheduleAPI().WithAlerts([]domain.AlertRule{{ID: 1, Name: "a", Active: true}})
	svc := NewAlertService(api)
	ctx := context.Background()

	rule, err := svc.Toggle(ctx, 1)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if rule.Active {
		t.Errorf("expected inactive after first toggle")
	}
	rule, err = svc.Toggle(ctx, 1)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if !rule.Active {
		t.Errorf("expected active after second toggle")
	}

	if _, err := svc.Toggle(ctx, 2); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAlertService_Delete(t *testing.T) {
	api := ports.NewMockScheduleAPI().WithAlerts([]domain.AlertRule{{ID: 1, Name: "a"}})
	svc := NewAlertService(api)
	ctx := context.Background()

	if err := svc.Delete(ctx, 0); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for id 0, got %v", err)
	}
	if err := svc.Delete(ctx, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	rules, _ := svc.List(ctx)
	if len(rules) != 0 {
		t.Errorf("expected no rules, got %d", len(rules))
	}
}
