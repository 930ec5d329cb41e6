package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/noise"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voxel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_DefaultsWithoutPath(t *testing.T) {
	t.Setenv("VOXEL_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 4, cfg.World.RenderDistance)
	assert.Equal(t, 24.0, cfg.Player.WalkSpeed)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
world:
  seed: 42
  noise: perlin
  render_distance: 6
player:
  run_speed: 55
server:
  rest_port: 9090
logging:
  level: debug
  components:
    stream: trace
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(42), cfg.World.Seed)
	assert.Equal(t, 6, cfg.World.RenderDistance)
	assert.Equal(t, 5, cfg.World.CloudExtraDistance, "незаданные поля сохраняют значения по умолчанию")
	assert.Equal(t, 55.0, cfg.Player.RunSpeed)
	assert.Equal(t, 24.0, cfg.Player.WalkSpeed)
	assert.Equal(t, 9090, cfg.Server.GetRESTPort())

	src, err := cfg.World.NoiseSource()
	require.NoError(t, err)
	assert.Equal(t, noise.KindPerlin, src.Kind)
	assert.Equal(t, int64(42), src.Seed)

	opts, err := cfg.Logging.Options()
	require.NoError(t, err)
	assert.Equal(t, logging.DEBUG, opts.ConsoleLevel)
	assert.Equal(t, map[logging.Component]logging.LogLevel{logging.ComponentStream: logging.TRACE}, opts.Components)

	sc := cfg.World.StreamConfig()
	assert.Equal(t, 11, sc.CloudDistance())
}

func TestLoad_EnvFallback(t *testing.T) {
	path := writeConfig(t, "world:\n  seed: 7\n")
	t.Setenv("VOXEL_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.World.Seed)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "world: [1, 2"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "world:\n  noise: worley\n  render_distance: -1\nserver:\n  tick_rate: 0\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "world.noise")
	assert.Contains(t, err.Error(), "world.render_distance")
	assert.Contains(t, err.Error(), "server.tick_rate")

	_, err = Load(writeConfig(t, "logging:\n  components:\n    network: debug\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging")

	_, err = Load(writeConfig(t, "eventbus:\n  backend: kafka\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "eventbus.backend")

	_, err = Load(writeConfig(t, "eventbus:\n  backend: memory\n  buffer: 0\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "eventbus.buffer")
}

func TestLoad_EventBus(t *testing.T) {
	cfg, err := Load(writeConfig(t, "eventbus:\n  backend: jetstream\n  url: nats://nats:4222\n"))
	require.NoError(t, err)
	assert.Equal(t, "jetstream", cfg.EventBus.Backend)
	assert.Equal(t, "nats://nats:4222", cfg.EventBus.URL)
	assert.Equal(t, "VOXEL", cfg.EventBus.Stream)
	assert.Equal(t, 24, cfg.EventBus.Retention)
	assert.Empty(t, Default().EventBus.Backend)
}

func TestRESTPortFallback(t *testing.T) {
	s := ServerConfig{}

	t.Setenv("VOXEL_REST_PORT", "")
	assert.Equal(t, 8088, s.GetRESTPort())

	t.Setenv("VOXEL_REST_PORT", "7070")
	assert.Equal(t, 7070, s.GetRESTPort())

	t.Setenv("VOXEL_REST_PORT", "abc")
	assert.Equal(t, 8088, s.GetRESTPort())

	s.RESTPort = 9000
	assert.Equal(t, 9000, s.GetRESTPort())
}
