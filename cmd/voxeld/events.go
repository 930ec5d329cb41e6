package main

import (
	"context"
	"fmt"
	"time"

	"github.com/annel0/voxel-world/internal/config"
	"github.com/annel0/voxel-world/internal/eventbus"
	"github.com/annel0/voxel-world/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
)

// newEventBus создаёт шину событий мира по конфигурации. Возвращает nil,
// если шина выключена.
func newEventBus(ctx context.Context, cfg config.EventBusConfig, reg prometheus.Registerer) (eventbus.EventBus, error) {
	var bus eventbus.EventBus
	switch cfg.Backend {
	case "":
		return nil, nil
	case "memory":
		bus = eventbus.NewMemoryBus(cfg.Buffer)
		logging.Info("📨 EventBus: in-memory, буфер %d", cfg.Buffer)
	case "jetstream":
		js, err := eventbus.NewJetStreamBus(cfg.URL, cfg.Stream, time.Duration(cfg.Retention)*time.Hour)
		if err != nil {
			return nil, fmt.Errorf("eventbus: %w", err)
		}
		bus = js
		logging.Info("📨 EventBus: JetStream %s, стрим %s", cfg.URL, cfg.Stream)
	default:
		return nil, fmt.Errorf("eventbus: неизвестный backend %q", cfg.Backend)
	}

	if err := eventbus.RegisterMetrics(reg, bus); err != nil {
		_ = bus.Close()
		return nil, err
	}
	if _, err := eventbus.StartLoggingListener(ctx, bus, logging.For(logging.ComponentEvents)); err != nil {
		_ = bus.Close()
		return nil, err
	}
	return bus, nil
}
