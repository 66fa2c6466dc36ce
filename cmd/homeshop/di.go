package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/do/v2"

	httpAdapter "github.com/githubixx/homeshop-go/internal/adapters/primary/http"
	"github.com/githubixx/homeshop-go/internal/adapters/secondary/scheduleapi"
	"github.com/githubixx/homeshop-go/internal/application/services"
	"github.com/githubixx/homeshop-go/internal/application/timewindow"
	"github.com/githubixx/homeshop-go/internal/infrastructure/config"
	"github.com/githubixx/homeshop-go/internal/infrastructure/metrics"
	"github.com/githubixx/homeshop-go/internal/ports"
)

func setupDI(cfg *config.Config, logger *slog.Logger) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger)
	do.ProvideValue[timewindow.Clock](injector, timewindow.SystemClock{})

	registerSchedule(injector)
	registerHTTP(injector)

	return injector
}

// registerSchedule wires the upstream client and the services built on it.
func registerSchedule(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*time.Location, error) {
		cfg := do.MustInvoke[*config.Config](i)
		zone, err := timewindow.LoadZone(cfg.Schedule.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("failed to load time zone: %w", err)
		}
		return zone, nil
	})
	do.Provide(injector, func(i do.Injector) (ports.ScheduleAPI, error) {
		cfg := do.MustInvoke[*config.Config](i)
		zone := do.MustInvoke[*time.Location](i)
		client := scheduleapi.NewClient(cfg.API.BaseURL, cfg.API.Timeout, zone)
		if cfg.API.User != "" {
			client.SetBasicAuth(cfg.API.User, cfg.API.Password)
		}
		return client, nil
	})
	do.Provide(injector, func(i do.Injector) (*services.ScheduleService, error) {
		cfg := do.MustInvoke[*config.Config](i)
		api := do.MustInvoke[ports.ScheduleAPI](i)
		return services.NewScheduleService(api, cfg.Schedule.CacheExpiry, cfg.Schedule.ChannelsExpiry), nil
	})
	do.Provide(injector, func(i do.Injector) (*services.DashboardService, error) {
		schedule := do.MustInvoke[*services.ScheduleService](i)
		zone := do.MustInvoke[*time.Location](i)
		clock := do.MustInvoke[timewindow.Clock](i)
		logger := do.MustInvoke[*slog.Logger](i)
		return services.NewDashboardService(schedule, zone, clock, logger), nil
	})
	do.Provide(injector, func(i do.Injector) (*services.AlertService, error) {
		return services.NewAlertService(do.MustInvoke[ports.ScheduleAPI](i)), nil
	})
	do.Provide(injector, func(i do.Injector) (*metrics.Metrics, error) {
		return metrics.New(), nil
	})
	do.Provide(injector, func(i do.Injector) (*services.Poller, error) {
		cfg := do.MustInvoke[*config.Config](i)
		dashboard := do.MustInvoke[*services.DashboardService](i)
		schedule := do.MustInvoke[*services.ScheduleService](i)
		m := do.MustInvoke[*metrics.Metrics](i)
		return services.NewPoller(
			dashboard,
			do.MustInvoke[timewindow.Clock](i),
			do.MustInvoke[*time.Location](i),
			cfg.Schedule.TickInterval,
			do.MustInvoke[*slog.Logger](i),
			services.WithInvalidator(schedule),
			services.WithObserver(m),
		), nil
	})
}

func registerHTTP(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*httpAdapter.Handler, error) {
		return httpAdapter.NewHandler(
			do.MustInvoke[*slog.Logger](i),
			do.MustInvoke[*services.DashboardService](i),
			do.MustInvoke[*services.ScheduleService](i),
			do.MustInvoke[*services.AlertService](i),
			do.MustInvoke[*time.Location](i),
		), nil
	})
	do.Provide(injector, func(i do.Injector) (*httpAdapter.Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		logger := do.MustInvoke[*slog.Logger](i)
		dashboard := do.MustInvoke[*services.DashboardService](i)
		m := do.MustInvoke[*metrics.Metrics](i)

		router := httpAdapter.NewRouter(httpAdapter.RouterDeps{
			Handler:  do.MustInvoke[*httpAdapter.Handler](i),
			Auth:     &cfg.Auth,
			Server:   &cfg.Server,
			Logger:   logger,
			Requests: m,
			Metrics: m.Handler(func() {
				p := dashboard.View().Partitions
				m.SetBroadcasts(len(p.Live), len(p.Upcoming))
			}),
		})
		return httpAdapter.NewServer(&cfg.Server, logger, router), nil
	})
}
