package render

import (
	"testing"

	"github.com/annel0/voxel-world/internal/noise"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/mesh"
	"github.com/annel0/voxel-world/internal/world/terrain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuilder() *mesh.Builder {
	src := noise.NewSource(7, noise.KindSimplex)
	return mesh.NewBuilder(terrain.NewField(src), src)
}

func TestRecorderLifecycle(t *testing.T) {
	b := newBuilder()
	r := NewRecorder()

	ground := b.Ground(vec.Vec2{})
	clouds := b.Clouds(vec.Vec2{X: 1}, 0)

	r.Upload(ground)
	r.Upload(clouds)
	r.Refresh(clouds)

	s := r.Stats()
	assert.Equal(t, 2, s.Live)
	assert.Equal(t, 1, s.LiveByLayer["ground"])
	assert.Equal(t, 1, s.LiveByLayer["cloud"])
	assert.Equal(t, 2*mesh.VertexCount, s.Vertices)
	assert.Equal(t, 1, s.Refreshes)

	r.Dispose(ground)
	assert.False(t, r.Live(ground.ID))
	assert.True(t, r.Disposed(ground.ID))
	assert.Equal(t, 1, r.Stats().Live)
}

func TestRecorderRejectsContractViolations(t *testing.T) {
	b := newBuilder()
	r := NewRecorder()
	buf := b.Water(vec.Vec2{})

	require.Panics(t, func() { r.Refresh(buf) }, "обновление до загрузки")
	r.Upload(buf)
	require.Panics(t, func() { r.Upload(buf) }, "повторная загрузка")
	r.Dispose(buf)
	require.Panics(t, func() { r.Dispose(buf) }, "повторное освобождение")
	require.Panics(t, func() { r.Upload(buf) }, "загрузка освобождённого")
}
