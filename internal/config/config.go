package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/noise"
	"github.com/annel0/voxel-world/internal/physics"
	"github.com/annel0/voxel-world/internal/world/stream"
	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Player    physics.Params  `yaml:"player"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
}

type WorldConfig struct {
	Seed                int64   `yaml:"seed"`
	Noise               string  `yaml:"noise"` // simplex | perlin
	RenderDistance      int     `yaml:"render_distance"`
	CloudExtraDistance  int     `yaml:"cloud_extra_distance"`
	CloudUpdateInterval float64 `yaml:"cloud_update_interval"`
	MinInterval         float64 `yaml:"min_reevaluate_interval"`
	BoundedCache        bool    `yaml:"bounded_cache"`
	SpawnX              float64 `yaml:"spawn_x"`
	SpawnZ              float64 `yaml:"spawn_z"`
}

type ServerConfig struct {
	RESTPort  int    `yaml:"rest_port"`
	TickRate  int    `yaml:"tick_rate"` // тиков симуляции в секунду
	Autopilot bool   `yaml:"autopilot"` // наблюдатель идёт вперёд без ввода
	GinMode   string `yaml:"gin_mode"`
}

type LoggingConfig struct {
	Level     string `yaml:"level"`
	FileLevel string `yaml:"file_level"`
	Dir       string `yaml:"dir"` // пусто — только консоль

	// Components задаёт консольный уровень отдельных подсистем, например stream: trace
	Components map[string]string `yaml:"components"`
}

type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// EventBusConfig задаёт шину событий мира. Backend: "" (выключена),
// memory или jetstream.
type EventBusConfig struct {
	Backend   string `yaml:"backend"`
	Buffer    int    `yaml:"buffer"`
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	sc := stream.DefaultConfig()
	return &Config{
		World: WorldConfig{
			Seed:                1337,
			Noise:               string(noise.KindSimplex),
			RenderDistance:      sc.RenderDistance,
			CloudExtraDistance:  sc.CloudExtraDistance,
			CloudUpdateInterval: sc.CloudUpdateInterval,
			MinInterval:         sc.MinInterval,
			BoundedCache:        sc.BoundedCache,
		},
		Player: physics.DefaultParams(),
		Server: ServerConfig{
			TickRate: 60,
			GinMode:  "release",
		},
		Logging: LoggingConfig{
			Level:     "info",
			FileLevel: "trace",
		},
		Telemetry: TelemetryConfig{
			Endpoint:    "localhost:4318",
			ServiceName: "voxel-world",
			SampleRatio: 1.0,
		},
		EventBus: EventBusConfig{
			Buffer:    1024,
			URL:       "nats://127.0.0.1:4222",
			Stream:    "VOXEL",
			Retention: 24,
		},
	}
}

// StreamConfig возвращает параметры стриминга тайлов
func (w WorldConfig) StreamConfig() stream.Config {
	return stream.Config{
		RenderDistance:      w.RenderDistance,
		CloudExtraDistance:  w.CloudExtraDistance,
		CloudUpdateInterval: w.CloudUpdateInterval,
		MinInterval:         w.MinInterval,
		BoundedCache:        w.BoundedCache,
	}
}

// NoiseSource возвращает источник шума мира
func (w WorldConfig) NoiseSource() (noise.Source, error) {
	kind, err := noise.ParseKind(w.Noise)
	if err != nil {
		return noise.Source{}, err
	}
	return noise.NewSource(w.Seed, kind), nil
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "VOXEL_REST_PORT", 8088)
}

// Options возвращает параметры логгеров
func (l LoggingConfig) Options() (logging.Options, error) {
	console, err := logging.ParseLevel(l.Level)
	if err != nil {
		return logging.Options{}, err
	}
	file, err := logging.ParseLevel(l.FileLevel)
	if err != nil {
		return logging.Options{}, err
	}
	opts := logging.Options{Dir: l.Dir, ConsoleLevel: console, FileLevel: file}
	for name, level := range l.Components {
		c, err := logging.ParseComponent(name)
		if err != nil {
			return logging.Options{}, err
		}
		lvl, err := logging.ParseLevel(level)
		if err != nil {
			return logging.Options{}, fmt.Errorf("%s: %w", name, err)
		}
		if opts.Components == nil {
			opts.Components = make(map[logging.Component]logging.LogLevel)
		}
		opts.Components[c] = lvl
	}
	return opts, nil
}

// Validate проверяет согласованность значений
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.World.NoiseSource(); err != nil {
		errs = append(errs, fmt.Errorf("world.noise: %w", err))
	}
	if c.World.RenderDistance < 0 {
		errs = append(errs, fmt.Errorf("world.render_distance: отрицательное значение %d", c.World.RenderDistance))
	}
	if c.World.CloudExtraDistance < 0 {
		errs = append(errs, fmt.Errorf("world.cloud_extra_distance: отрицательное значение %d", c.World.CloudExtraDistance))
	}
	if c.World.CloudUpdateInterval < 0 || c.World.MinInterval < 0 {
		errs = append(errs, errors.New("world: интервалы не могут быть отрицательными"))
	}
	if c.Player.StepCount <= 0 || c.Player.SnapStep <= 0 {
		errs = append(errs, fmt.Errorf("player: step_count и snap_step должны быть положительными"))
	}
	if c.Player.Height <= 0 || c.Player.Radius <= c.Player.Padding {
		errs = append(errs, fmt.Errorf("player: некорректные размеры (height=%v, radius=%v, padding=%v)",
			c.Player.Height, c.Player.Radius, c.Player.Padding))
	}
	if c.Server.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("server.tick_rate: должно быть положительным, получено %d", c.Server.TickRate))
	}
	if _, err := c.Logging.Options(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("telemetry.sample_ratio: %v вне [0, 1]", c.Telemetry.SampleRatio))
	}
	switch c.EventBus.Backend {
	case "", "memory", "jetstream":
	default:
		errs = append(errs, fmt.Errorf("eventbus.backend: неизвестное значение %q", c.EventBus.Backend))
	}
	if c.EventBus.Backend == "memory" && c.EventBus.Buffer <= 0 {
		errs = append(errs, fmt.Errorf("eventbus.buffer: должно быть положительным, получено %d", c.EventBus.Buffer))
	}

	return errors.Join(errs...)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	// Используем дефолтное значение
	return defaultPort
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать из ENV VOXEL_CONFIG или возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("VOXEL_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения конфигурации %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("некорректная конфигурация %s: %w", path, err)
	}
	return cfg, nil
}
