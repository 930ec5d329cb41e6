package mesh

import (
	"math/rand"

	"github.com/annel0/voxel-world/internal/noise"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/terrain"
)

// Сетка тайла: плоскость ChunkSize x ChunkSize с ChunkSize сегментами по каждой оси
const (
	Segments    = vec.ChunkSize
	RowLength   = Segments + 1
	VertexCount = RowLength * RowLength
)

// Шум цвета вершины, ±jitterAmplitude
const jitterAmplitude = 0.05

// Цвет водной поверхности (RGBA)
var waterColor = [4]float32{0.25, 0.375, 1.0, 0.6}

// Builder строит буферы тайлов по полю рельефа
type Builder struct {
	field  *terrain.Field
	seed   int64
	clouds cloudNoise
}

// NewBuilder создаёт построитель буферов
func NewBuilder(field *terrain.Field, src noise.Source) *Builder {
	return &Builder{
		field:  field,
		seed:   src.Seed,
		clouds: newCloudNoise(src),
	}
}

// Ground строит буфер рельефа чанка: высоты и затенённые цвета вершин
func (b *Builder) Ground(chunk vec.Vec2) *Buffer {
	buf := newBuffer(LayerGround, chunk, 3)
	rng := b.chunkRand(chunk)

	b.forEachVertex(chunk, func(i int, x, z float64) {
		h := b.field.Height(x, z)
		buf.Positions[i*3] = float32(x)
		buf.Positions[i*3+1] = float32(h)
		buf.Positions[i*3+2] = float32(z)

		variation := rng.Float64()*jitterAmplitude*2 - jitterAmplitude
		c := b.field.Shade(x, z, variation)
		buf.Colors[i*3] = float32(c.R)
		buf.Colors[i*3+1] = float32(c.G)
		buf.Colors[i*3+2] = float32(c.B)
	})
	return buf
}

// Water строит плоскость воды чанка на уровне WaterLevel
func (b *Builder) Water(chunk vec.Vec2) *Buffer {
	buf := newBuffer(LayerWater, chunk, 4)
	b.forEachVertex(chunk, func(i int, x, z float64) {
		buf.Positions[i*3] = float32(x)
		buf.Positions[i*3+1] = float32(terrain.WaterLevel)
		buf.Positions[i*3+2] = float32(z)
		copy(buf.Colors[i*4:i*4+4], waterColor[:])
	})
	return buf
}

// Clouds строит облачный буфер чанка для момента времени t
func (b *Builder) Clouds(chunk vec.Vec2, t float64) *Buffer {
	buf := newBuffer(LayerCloud, chunk, 4)
	b.forEachVertex(chunk, func(i int, x, z float64) {
		buf.Positions[i*3] = float32(x)
		buf.Positions[i*3+1] = float32(cloudHeight)
		buf.Positions[i*3+2] = float32(z)
	})
	b.ResampleClouds(buf, t)
	return buf
}

// forEachVertex обходит вершины плоскости чанка построчно: сначала z, затем x
func (b *Builder) forEachVertex(chunk vec.Vec2, fn func(i int, x, z float64)) {
	origin := chunk.Origin()
	i := 0
	for iz := 0; iz < RowLength; iz++ {
		for ix := 0; ix < RowLength; ix++ {
			fn(i, float64(origin.X+ix), float64(origin.Z+iz))
			i++
		}
	}
}

// chunkRand создаёт детерминированный генератор для чанка
// на основе глобального сида и координат
func (b *Builder) chunkRand(chunk vec.Vec2) *rand.Rand {
	chunkSeed := b.seed + int64(chunk.X*31) + int64(chunk.Z*17)
	return rand.New(rand.NewSource(chunkSeed))
}
