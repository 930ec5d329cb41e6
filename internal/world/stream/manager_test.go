package stream

import (
	"context"
	"testing"

	"github.com/annel0/voxel-world/internal/noise"
	"github.com/annel0/voxel-world/internal/render"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/mesh"
	"github.com/annel0/voxel-world/internal/world/terrain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		RenderDistance:      2,
		CloudExtraDistance:  1,
		CloudUpdateInterval: 3.0,
		MinInterval:         0.5,
		BoundedCache:        true,
	}
}

func newTestManager(t *testing.T, cfg Config, opts ...Option) (*Manager, *render.Recorder, *terrain.Field) {
	t.Helper()
	src := noise.NewSource(99, noise.KindSimplex)
	field := terrain.NewField(src)
	rec := render.NewRecorder()
	return NewManager(cfg, field, mesh.NewBuilder(field, src), rec, opts...), rec, field
}

// observerAt возвращает точку внутри чанка (cx, cz)
func observerAt(cx, cz int) vec.Vec3Float {
	return vec.Vec3Float{X: float64(cx*vec.ChunkSize) + 5.5, Y: 40, Z: float64(cz*vec.ChunkSize) + 7.25}
}

func TestActiveKeys(t *testing.T) {
	assert.Len(t, ActiveKeys(vec.Vec2{}, 0), 1)
	assert.Len(t, ActiveKeys(vec.Vec2{}, 2), 21)
	assert.Len(t, ActiveKeys(vec.Vec2{}, 3), 37)
	assert.Len(t, ActiveKeys(vec.Vec2{X: -7, Z: 11}, 4), 69)

	keys := ActiveKeys(vec.Vec2{X: 10, Z: -3}, 4)
	for key := range keys {
		offset := key.Sub(vec.Vec2{X: 10, Z: -3})
		assert.LessOrEqual(t, float64(abs(offset.X)+abs(offset.Z)), 6.0)
		assert.LessOrEqual(t, abs(offset.X), 4)
		assert.LessOrEqual(t, abs(offset.Z), 4)
	}
	assert.NotContains(t, keys, vec.Vec2{X: 14, Z: 1})
	assert.Contains(t, keys, vec.Vec2{X: 14, Z: -1})
}

func TestManager_Idempotent(t *testing.T) {
	m, rec, _ := newTestManager(t, testConfig())
	ctx := context.Background()

	first := m.Evaluate(ctx, observerAt(0, 0), 0)
	assert.Equal(t, 21, first.GroundInserted)
	assert.Equal(t, 37, first.CloudInserted)
	assert.Zero(t, first.GroundEvicted)

	pos := observerAt(0, 0)
	pos.X += 10
	second := m.Evaluate(ctx, pos, 1)
	assert.False(t, second.Changed())
	assert.Zero(t, second.GroundInserted)
	assert.Zero(t, second.GroundEvicted)
	assert.Zero(t, second.CloudInserted)
	assert.Zero(t, second.CloudEvicted)

	s := rec.Stats()
	assert.Equal(t, 21*2+37, s.Uploads)
	assert.Zero(t, s.Disposes)
}

func TestManager_CoverageAfterMove(t *testing.T) {
	m, rec, _ := newTestManager(t, testConfig())
	ctx := context.Background()

	m.Evaluate(ctx, observerAt(0, 0), 0)
	old := m.MustTile(vec.Vec2{X: -2, Z: 0})

	rep := m.Evaluate(ctx, observerAt(3, 1), 0.2)
	require.True(t, rep.Changed())

	center := vec.Vec2{X: 3, Z: 1}
	want := ActiveKeys(center, 2)
	got := m.GroundKeys()
	require.Len(t, got, len(want))
	for _, key := range got {
		assert.Contains(t, want, key)
	}

	_, ok := m.Tile(vec.Vec2{X: -2, Z: 0})
	assert.False(t, ok)
	assert.True(t, old.Ground.Released())
	assert.True(t, old.Water.Released())
	assert.True(t, rec.Disposed(old.Ground.ID))
	assert.True(t, rec.Disposed(old.Water.ID))

	// Каждому выгруженному тайлу соответствует ровно два Dispose
	s := rec.Stats()
	assert.Equal(t, 2*rep.GroundEvicted+rep.CloudEvicted, s.Disposes)
	assert.Equal(t, 2*m.Len()+m.CloudLen(), s.Live)
}

func TestManager_CloudResampleInPlace(t *testing.T) {
	m, rec, _ := newTestManager(t, testConfig())
	ctx := context.Background()

	m.Evaluate(ctx, observerAt(0, 0), 0)
	ct, ok := m.CloudTile(vec.Vec2{X: 1, Z: 1})
	require.True(t, ok)
	id := ct.Buffer.ID

	rep := m.Evaluate(ctx, observerAt(0, 0), 2.5)
	assert.Zero(t, rep.CloudResampled)

	rep = m.Evaluate(ctx, observerAt(0, 0), 6)
	assert.Equal(t, m.CloudLen(), rep.CloudResampled)
	assert.Zero(t, rep.CloudInserted)

	ct, _ = m.CloudTile(vec.Vec2{X: 1, Z: 1})
	assert.Equal(t, id, ct.Buffer.ID)
	assert.Equal(t, 6.0, ct.LastUpdate)
	assert.Equal(t, int64(1), ct.Buffer.Epoch)

	s := rec.Stats()
	assert.Equal(t, m.CloudLen(), s.Refreshes)
	assert.Equal(t, 21*2+37, s.Uploads)
}

func TestManager_TickThrottle(t *testing.T) {
	m, _, _ := newTestManager(t, testConfig())
	ctx := context.Background()

	_, ran := m.Tick(ctx, observerAt(0, 0), 0)
	assert.True(t, ran)
	_, ran = m.Tick(ctx, observerAt(0, 0), 0.1)
	assert.False(t, ran)
	_, ran = m.Tick(ctx, observerAt(0, 0), 0.6)
	assert.True(t, ran)

	// Смена чанка не ждёт интервала
	rep, ran := m.Tick(ctx, observerAt(1, 0), 0.65)
	assert.True(t, ran)
	assert.True(t, rep.Changed())

	center, ok := m.Center()
	assert.True(t, ok)
	assert.Equal(t, vec.Vec2{X: 1, Z: 0}, center)
}

func TestManager_MustTilePanics(t *testing.T) {
	m, _, _ := newTestManager(t, testConfig())
	m.Evaluate(context.Background(), observerAt(0, 0), 0)

	assert.NotPanics(t, func() { m.MustTile(vec.Vec2{}) })
	assert.Panics(t, func() { m.MustTile(vec.Vec2{X: 50, Z: 50}) })
}

func TestManager_BoundedCache(t *testing.T) {
	m, _, field := newTestManager(t, testConfig())
	ctx := context.Background()

	m.Evaluate(ctx, observerAt(0, 0), 0)
	m.Evaluate(ctx, observerAt(20, -20), 0)

	stats := field.Stats()
	assert.LessOrEqual(t, stats.Buckets, m.Len())
	assert.Greater(t, stats.Heights, 0)
}

func TestManager_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	m, _, _ := newTestManager(t, testConfig(), WithMetrics(metrics))
	ctx := context.Background()

	m.Evaluate(ctx, observerAt(0, 0), 0)
	assert.Equal(t, 21.0, testutil.ToFloat64(metrics.GroundTiles))
	assert.Equal(t, 37.0, testutil.ToFloat64(metrics.CloudTiles))
	assert.Equal(t, 21.0, testutil.ToFloat64(metrics.Generated.WithLabelValues("ground")))
	assert.Equal(t, 21.0, testutil.ToFloat64(metrics.Generated.WithLabelValues("water")))
	assert.Equal(t, 37.0, testutil.ToFloat64(metrics.Generated.WithLabelValues("cloud")))

	m.Close()
	assert.Zero(t, testutil.ToFloat64(metrics.GroundTiles))
	assert.Equal(t, 21.0, testutil.ToFloat64(metrics.Evicted.WithLabelValues("ground")))
}

func TestManager_CloseDisposesEverything(t *testing.T) {
	m, rec, _ := newTestManager(t, testConfig())
	m.Evaluate(context.Background(), observerAt(-1, -1), 0)
	m.Close()

	assert.Zero(t, m.Len())
	assert.Zero(t, m.CloudLen())
	assert.Zero(t, rec.Stats().Live)
}

func abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}
