package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/annel0/voxel-world/internal/api"
	"github.com/annel0/voxel-world/internal/config"
	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/observability"
	"github.com/annel0/voxel-world/internal/render"
	"github.com/annel0/voxel-world/internal/sim"
	"github.com/annel0/voxel-world/internal/world/stream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

const version = "v0.1.0"

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config (default: $VOXEL_CONFIG)")
		seed       = flag.Int64("seed", 0, "World seed override (0 keeps config value)")
		autopilot  = flag.Bool("autopilot", false, "Walk the observer forward without input")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}
	if *seed != 0 {
		cfg.World.Seed = *seed
	}
	if *autopilot {
		cfg.Server.Autopilot = true
	}

	logOpts, err := cfg.Logging.Options()
	if err != nil {
		log.Fatalf("❌ Ошибка конфигурации логирования: %v", err)
	}
	logging.Configure(logOpts)
	if err := logging.InitDefaultLogger("voxeld"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.Loggers().CloseAll()

	logging.Info("🌍 Запуск voxel-world %s", version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Error("❌ %v", err)
		logging.CloseDefaultLogger()
		os.Exit(1)
	}
	logging.Info("👋 Сервер успешно остановлен")
}

func run(ctx context.Context, cfg *config.Config) error {
	// === ТЕЛЕМЕТРИЯ ===
	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(ctx, observability.Options{
			ServiceName: cfg.Telemetry.ServiceName,
			Version:     version,
			Endpoint:    cfg.Telemetry.Endpoint,
			SampleRatio: cfg.Telemetry.SampleRatio,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logging.Warn("Ошибка остановки телеметрии: %v", err)
			}
		}()
	}

	// === МЕТРИКИ ===
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// === СОБЫТИЯ ===
	bus, err := newEventBus(ctx, cfg.EventBus, reg)
	if err != nil {
		return err
	}
	if bus != nil {
		defer func() {
			if err := bus.Close(); err != nil {
				logging.Warn("Ошибка закрытия шины событий: %v", err)
			}
		}()
	}

	// === МИР ===
	src, err := cfg.World.NoiseSource()
	if err != nil {
		return err
	}

	recorder := render.NewRecorder()
	session := sim.New(src, sim.Options{
		Stream:   cfg.World.StreamConfig(),
		Player:   cfg.Player,
		SpawnX:   cfg.World.SpawnX,
		SpawnZ:   cfg.World.SpawnZ,
		Renderer: recorder,
		Metrics:  stream.NewMetrics(reg),
		Events:   bus,
	})
	defer session.Close()

	session.Start(ctx, 0)
	session.SetCapture(cfg.Server.Autopilot)

	// === REST API ===
	rest := api.NewRestServer(api.Config{
		Port:     ":" + strconv.Itoa(cfg.Server.GetRESTPort()),
		Session:  session,
		Registry: reg,
		Mode:     cfg.Server.GinMode,
		World: api.WorldInfo{
			Seed:       src.Seed,
			Noise:      string(src.Kind),
			WaterLevel: session.WaterLevel(),
			ChunkSize:  session.ChunkSize(),
			Stream:     cfg.World.StreamConfig(),
		},
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runTicks(gctx, session, cfg.Server.TickRate, cfg.Server.Autopilot)
	})
	g.Go(rest.Start)
	g.Go(func() error {
		<-gctx.Done()
		logging.Info("📡 Завершение работы...")
		return rest.Stop(context.Background())
	})

	logging.Info("✅ Все сервисы запущены")
	logging.Info("   ❤️  Health check: http://localhost:%d/health", cfg.Server.GetRESTPort())
	logging.Info("   📈 Метрики: http://localhost:%d/metrics", cfg.Server.GetRESTPort())

	return g.Wait()
}

// runTicks продвигает симуляцию с фиксированным шагом до отмены контекста
func runTicks(ctx context.Context, session *sim.Session, rate int, autopilot bool) error {
	dt := 1.0 / float64(rate)
	ticker := time.NewTicker(time.Duration(float64(time.Second) * dt))
	defer ticker.Stop()

	pilot := newPilot()
	simTime := 0.0
	nextReport := 0.0

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		simTime += dt
		if autopilot {
			pilot.steer(session, simTime)
		}
		session.TickKinematics(dt)
		session.TickWorld(ctx, simTime)

		if simTime >= nextReport {
			snap := session.Snapshot()
			logging.Info("🧭 t=%.0fs pos=(%.1f, %.1f, %.1f) chunk=%s биом=%s тайлы=%d/%d",
				snap.SimTime, snap.X, snap.Y, snap.Z, snap.Chunk, snap.Biome, snap.GroundTiles, snap.CloudTiles)
			nextReport = simTime + 10
		}
	}
}
