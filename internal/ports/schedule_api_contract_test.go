package ports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/githubixx/homeshop-go/internal/domain"
)

// APIFactory creates a ScheduleAPI instance and returns a cleanup function.
// The instance must be seeded with at least one channel and one broadcast.
type APIFactory func() (ScheduleAPI, func())

// RunScheduleAPIContractTests runs the contract test suite against a ScheduleAPI implementation.
// The REST client, the mock and the integration stub must all behave the same way here.
//
// Usage:
//
//	func TestMyImplementation(t *testing.T) {
//	    factory := func() (ScheduleAPI, func()) {
//	        api := NewMyAPI()
//	        return api, func() {}
//	    }
//	    RunScheduleAPIContractTests(t, factory)
//	}
func RunScheduleAPIContractTests(t *testing.T, factory APIFactory) {
	t.Run("Ping", func(t *testing.T) { testPing(t, factory) })
	t.Run("Channels", func(t *testing.T) { testChannels(t, factory) })
	t.Run("Broadcasts", func(t *testing.T) { testBroadcasts(t, factory) })
	t.Run("Alerts", func(t *testing.T) { testAlerts(t, factory) })
	t.Run("ErrorHandling", func(t *testing.T) { testErrorHandling(t, factory) })
}

func contractContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func testPing(t *testing.T, factory APIFactory) {
	api, cleanup := factory()
	defer cleanup()

	if err := api.Ping(contractContext(t)); err != nil {
		t.Errorf("Ping should succeed, got error: %v", err)
	}
}

func testChannels(t *testing.T, factory APIFactory) {
	api, cleanup := factory()
	defer cleanup()

	channels, err := api.ListChannels(contractContext(t))
	if err != nil {
		t.Fatalf("ListChannels failed: %v", err)
	}
	if len(channels) == 0 {
		t.Fatal("expected at least one channel")
	}
	for _, ch := range channels {
		if ch.Code == "" {
			t.Errorf("channel %d has empty code", ch.ID)
		}
	}
}

func testBroadcasts(t *testing.T, factory APIFactory) {
	t.Run("ValidIntervals", func(t *testing.T) {
		api, cleanup := factory()
		defer cleanup()

		slots, err := api.ListBroadcasts(contractContext(t), domain.BroadcastQuery{})
		if err != nil {
			t.Fatalf("ListBroadcasts failed: %v", err)
		}
		if len(slots) == 0 {
			t.Fatal("expected at least one broadcast")
		}
		for _, s := range slots {
			if !s.Start.Before(s.End) {
				t.Errorf("slot %d: start %v not before end %v", s.ID, s.Start, s.End)
			}
			if s.Status != "" && !s.Status.Valid() {
				t.Errorf("slot %d: invalid status %q", s.ID, s.Status)
			}
		}
	})

	t.Run("ChannelFilter", func(t *testing.T) {
		api, cleanup := factory()
		defer cleanup()

		ctx := contractContext(t)
		all, err := api.ListBroadcasts(ctx, domain.BroadcastQuery{})
		if err != nil || len(all) == 0 {
			t.Fatalf("ListBroadcasts failed: %v", err)
		}
		code := all[0].ChannelCode

		filtered, err := api.ListBroadcasts(ctx, domain.BroadcastQuery{ChannelCode: code})
		if err != nil {
			t.Fatalf("ListBroadcasts(channelCode=%s) failed: %v", code, err)
		}
		if len(filtered) == 0 {
			t.Fatalf("expected broadcasts for channel %s", code)
		}
		for _, s := range filtered {
			if s.ChannelCode != code {
				t.Errorf("slot %d: channel %s, want %s", s.ID, s.ChannelCode, code)
			}
		}
	})
}

func testAlerts(t *testing.T, factory APIFactory) {
	api, cleanup := factory()
	defer cleanup()
	ctx := contractContext(t)

	created, err := api.CreateAlert(ctx, domain.AlertRuleInput{
		Name:                "contract",
		TargetChannelCodes:  []string{"gsshop"},
		Keywords:            []string{"냉장고"},
		NotifyBeforeMinutes: 30,
		DestinationType:     domain.DestinationSlack,
		DestinationValue:    "https://hooks.slack.com/services/T/B/X",
		Active:              true,
	})
	if err != nil {
		t.Fatalf("CreateAlert failed: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("created alert has no id")
	}
	if created.Name != "contract" || !created.Active {
		t.Errorf("unexpected created alert: %+v", created)
	}

	alerts, err := api.ListAlerts(ctx)
	if err != nil {
		t.Fatalf("ListAlerts failed: %v", err)
	}
	found := false
	for _, a := range alerts {
		if a.ID == created.ID {
			found = true
		}
	}
	if !found {
		t.Errorf("created alert %d not listed", created.ID)
	}

	inactive := false
	updated, err := api.UpdateAlert(ctx, created.ID, domain.AlertRulePatch{Active: &inactive})
	if err != nil {
		t.Fatalf("UpdateAlert failed: %v", err)
	}
	if updated.Active {
		t.Error("expected alert to be inactive after update")
	}
	if updated.Name != "contract" {
		t.Errorf("update changed name to %q", updated.Name)
	}

	if err := api.DeleteAlert(ctx, created.ID); err != nil {
		t.Fatalf("DeleteAlert failed: %v", err)
	}
	if err := api.DeleteAlert(ctx, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second DeleteAlert: expected ErrNotFound, got %v", err)
	}
}

func testErrorHandling(t *testing.T, factory APIFactory) {
	api, cleanup := factory()
	defer cleanup()

	name := "missing"
	_, err := api.UpdateAlert(contractContext(t), 987654321, domain.AlertRulePatch{Name: &name})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("UpdateAlert on unknown id: expected ErrNotFound, got %v", err)
	}
}
