package terrain

import (
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/biome"
)

// bucket хранит мемоизированные результаты для колонок одного чанка.
// Группировка по чанкам позволяет сбрасывать кэш вне активной области целиком.
type bucket struct {
	heights map[vec.Vec2]int
	biomes  map[vec.Vec2]biome.Kind
	blends  map[vec.Vec2]*Blend
	voxels  map[vec.Vec3]VoxelClass
}

func newBucket() *bucket {
	return &bucket{
		heights: make(map[vec.Vec2]int),
		biomes:  make(map[vec.Vec2]biome.Kind),
		blends:  make(map[vec.Vec2]*Blend),
		voxels:  make(map[vec.Vec3]VoxelClass),
	}
}

// CacheStats содержит размеры кэшей поля рельефа
type CacheStats struct {
	Buckets int `json:"buckets"`
	Heights int `json:"heights"`
	Biomes  int `json:"biomes"`
	Blends  int `json:"blends"`
	Voxels  int `json:"voxels"`
}

// Entries возвращает общее число записей во всех кэшах
func (s CacheStats) Entries() int {
	return s.Heights + s.Biomes + s.Blends + s.Voxels
}

// bucketFor возвращает корзину чанка, содержащего колонку, создавая её при необходимости
func (f *Field) bucketFor(col vec.Vec2) *bucket {
	chunk := col.ToChunkCoords()
	b, ok := f.buckets[chunk]
	if !ok {
		b = newBucket()
		f.buckets[chunk] = b
	}
	return b
}

// Retain удаляет кэши всех чанков, для которых keep возвращает false.
// Возвращает количество удалённых корзин. Результаты запросов не меняются:
// кэш лишь ускоряет чистую функцию координат.
func (f *Field) Retain(keep func(chunk vec.Vec2) bool) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	dropped := 0
	for chunk := range f.buckets {
		if !keep(chunk) {
			delete(f.buckets, chunk)
			dropped++
		}
	}
	return dropped
}

// Stats возвращает размеры кэшей
func (f *Field) Stats() CacheStats {
	f.mu.Lock()
	defer f.mu.Unlock()

	stats := CacheStats{Buckets: len(f.buckets)}
	for _, b := range f.buckets {
		stats.Heights += len(b.heights)
		stats.Biomes += len(b.biomes)
		stats.Blends += len(b.blends)
		stats.Voxels += len(b.voxels)
	}
	return stats
}
