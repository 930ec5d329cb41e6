package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"trace":   TRACE,
		"DEBUG":   DEBUG,
		"":        INFO,
		" info ":  INFO,
		"warning": WARN,
		"Error":   ERROR,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
	assert.Equal(t, "WARN", WARN.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestLogger_WritesFileAboveLevel(t *testing.T) {
	dir := t.TempDir()
	Configure(Options{Dir: dir, ConsoleLevel: ERROR, FileLevel: DEBUG})
	t.Cleanup(func() { Configure(Options{ConsoleLevel: INFO, FileLevel: TRACE}) })

	l, err := NewLogger("test")
	require.NoError(t, err)

	l.Trace("скрытое сообщение")
	l.Debug("чанк %d,%d", 3, -4)
	l.Warn("предупреждение")
	require.NoError(t, l.Close())
	require.NoError(t, l.Close(), "повторное закрытие безопасно")

	files, err := filepath.Glob(filepath.Join(dir, "test_*.log"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "[DEBUG] [test] чанк 3,-4")
	assert.Contains(t, text, "[WARN] [test] предупреждение")
	assert.False(t, strings.Contains(text, "скрытое"))
}

func TestRegistry_ReusesLoggers(t *testing.T) {
	r := NewRegistry()

	a := r.For(ComponentStream)
	b := r.For(ComponentStream)
	assert.Same(t, a, b)
	r.For(ComponentPhysics)
	assert.Equal(t, []Component{ComponentPhysics, ComponentStream}, r.Active())

	require.NoError(t, r.SetLevel(ComponentStream, WARN, ERROR))
	assert.Equal(t, WARN, a.minConsoleLevel)
	assert.Error(t, r.SetLevel(ComponentAPI, WARN, ERROR))

	require.NoError(t, r.CloseAll())
	assert.Empty(t, r.Active())
}

func TestRegistry_ComponentLevelOverride(t *testing.T) {
	Configure(Options{
		ConsoleLevel: INFO,
		FileLevel:    TRACE,
		Components:   map[Component]LogLevel{ComponentStream: TRACE},
	})
	t.Cleanup(func() { Configure(Options{ConsoleLevel: INFO, FileLevel: TRACE}) })

	r := NewRegistry()
	assert.Equal(t, TRACE, r.For(ComponentStream).minConsoleLevel)
	assert.Equal(t, INFO, r.For(ComponentWorld).minConsoleLevel)
}

func TestParseComponent(t *testing.T) {
	for _, c := range Components {
		got, err := ParseComponent(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseComponent("network")
	assert.Error(t, err)
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Info("ничего")
		_ = l.Close()
	})
}
