// Package terrain — авторитетное поле рельефа: высота, класс вокселя,
// доминирующий биом и цвет поверхности для любой колонки (x, z).
//
// Высота смешивается из шести биомов обратно-квадратичными весами в
// пространстве (температура, влажность), затем в ней прорезаются русла рек.
// Все результаты мемоизируются по целочисленным ключам.
package terrain

import (
	"math"
	"sync"

	"github.com/annel0/voxel-world/internal/noise"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/biome"
)

// Константы мира
const (
	WaterLevel = 16.0
	ChunkSize  = vec.ChunkSize
)

// Параметры смешивания биомов
const (
	biomeScale     = 0.005
	moistureOffset = 1000.0 // смещение координат шума влажности относительно температуры
	blendEpsilon   = 0.001
)

// Параметры рек
const (
	riverScale        = 0.002
	riverDetailScale  = 0.01
	riverDetailWeight = 0.3
	RiverThreshold    = 0.1
	riverDepthScale   = 20.0
	valleyFadeRange   = 10.0
	riverFloorDepth   = 2.0 // русло не опускается ниже WaterLevel-2
)

// Глубина, на которой подводное затенение достигает максимума
const shadeDepthRange = 10.0

// Цвета затенения
var (
	riverBedColor = biome.RGB{R: 0.4, G: 0.4, B: 0.5}
	riverBankTint = biome.RGB{R: 0.6, G: 0.6, B: 0.5}
)

// Blend — результат смешивания биомов в колонке
type Blend struct {
	Weights     [biome.Count]float64 `json:"weights"` // нормированы, сумма 1
	Dominant    biome.Kind           `json:"dominant"`
	Height      float64              `json:"height"` // смешанная высота до прорезки рек
	Color       biome.RGB            `json:"color"`
	Temperature float64              `json:"temperature"`
	Moisture    float64              `json:"moisture"`
}

// Field — поле рельефа с мемоизацией
type Field struct {
	biomes      *biome.Table
	climate     noise.Field // температура и (со смещением) влажность
	river       noise.Field
	riverDetail noise.Field

	mu      sync.Mutex
	buckets map[vec.Vec2]*bucket
}

// NewField создаёт поле рельефа поверх указанного источника шума
func NewField(src noise.Source) *Field {
	return &Field{
		biomes:      biome.NewTable(src),
		climate:     src.Field("climate"),
		river:       src.Field("river"),
		riverDetail: src.Field("river/detail"),
		buckets:     make(map[vec.Vec2]*bucket),
	}
}

// Biomes возвращает таблицу биомов
func (f *Field) Biomes() *biome.Table {
	return f.biomes
}

// WaterLevel возвращает уровень воды
func (f *Field) WaterLevel() float64 {
	return WaterLevel
}

// Height возвращает высоту поверхности колонки, содержащей (x, z)
func (f *Field) Height(x, z float64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.height(vec.Column(x, z))
}

// Voxel классифицирует воксель, содержащий точку (x, y, z)
func (f *Field) Voxel(x, y, z float64) VoxelClass {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := vec.Voxel(x, y, z)
	b := f.bucketFor(key.Column())
	if c, ok := b.voxels[key]; ok {
		return c
	}
	c := classify(key.Y, f.height(key.Column()))
	b.voxels[key] = c
	return c
}

// Biome возвращает имя доминирующего биома в колонке (x, z)
func (f *Field) Biome(x, z float64) string {
	return f.BiomeKind(x, z).String()
}

// BiomeKind возвращает доминирующий биом в колонке (x, z)
func (f *Field) BiomeKind(x, z float64) biome.Kind {
	f.mu.Lock()
	defer f.mu.Unlock()

	col := vec.Column(x, z)
	b := f.bucketFor(col)
	if k, ok := b.biomes[col]; ok {
		return k
	}
	k := f.blend(col).Dominant
	b.biomes[col] = k
	return k
}

// Blend возвращает результат смешивания биомов в колонке (x, z)
func (f *Field) Blend(x, z float64) Blend {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.blend(vec.Column(x, z))
}

// Color возвращает затенённый цвет поверхности колонки без случайного шума
func (f *Field) Color(x, z float64) biome.RGB {
	return f.Shade(x, z, 0)
}

// Shade возвращает цвет поверхности колонки с добавкой variation.
// Подводные колонки темнеют и синеют пропорционально глубине (не более 1 в
// нормированных единицах), берега рек смешиваются с песочным оттенком.
func (f *Field) Shade(x, z, variation float64) biome.RGB {
	f.mu.Lock()
	col := vec.Column(x, z)
	h := float64(f.height(col))
	c := f.blend(col).Color
	f.mu.Unlock()

	fx, fz := float64(col.X), float64(col.Z)
	river := f.RiverValue(fx, fz)
	isRiver := river < RiverThreshold

	if h < WaterLevel {
		depth := math.Min((WaterLevel-h)/shadeDepthRange, 1)
		if isRiver {
			return biome.RGB{
				R: riverBedColor.R*(1-depth) + variation,
				G: riverBedColor.G*(1-depth) + variation,
				B: riverBedColor.B*(1-depth) + variation,
			}
		}
		return biome.RGB{
			R: (c.R + variation) * (1 - depth*0.5),
			G: (c.G + variation) * (1 - depth*0.3),
			B: (c.B + variation) + depth*0.2,
		}
	}

	if isRiver {
		bank := (RiverThreshold - river) / RiverThreshold
		c = c.Lerp(riverBankTint, bank)
	}
	return biome.RGB{R: c.R + variation, G: c.G + variation, B: c.B + variation}
}

// RiverValue возвращает значение реки в точке: ниже RiverThreshold — русло
func (f *Field) RiverValue(x, z float64) float64 {
	v := f.river.Noise2D(x*riverScale, z*riverScale)
	detail := f.riverDetail.Noise2D(x*riverDetailScale, z*riverDetailScale)
	return math.Pow(math.Abs(v+detail*riverDetailWeight), 1.5)
}

// height возвращает мемоизированную высоту колонки. Вызывается под f.mu.
func (f *Field) height(col vec.Vec2) int {
	b := f.bucketFor(col)
	if h, ok := b.heights[col]; ok {
		return h
	}
	h := f.computeHeight(col)
	b.heights[col] = h
	return h
}

func (f *Field) computeHeight(col vec.Vec2) int {
	x, z := float64(col.X), float64(col.Z)
	h := f.blend(col).Height

	river := f.RiverValue(x, z)
	if river < RiverThreshold {
		depth := (RiverThreshold - river) * riverDepthScale
		floor := WaterLevel - riverFloorDepth

		// углубление сходит на нет, когда рельеф приближается к дну русла
		valley := math.Min(1, math.Max(0, (h-floor)/valleyFadeRange))
		h -= depth * valley
		h = math.Max(h, floor)
	}
	return int(math.Floor(h))
}

// blend возвращает мемоизированное смешивание биомов. Вызывается под f.mu.
// Один кэш обслуживает и высоту, и цвет, поэтому они не расходятся.
func (f *Field) blend(col vec.Vec2) *Blend {
	b := f.bucketFor(col)
	if bl, ok := b.blends[col]; ok {
		return bl
	}
	bl := f.computeBlend(col)
	b.blends[col] = bl
	return bl
}

func (f *Field) computeBlend(col vec.Vec2) *Blend {
	x, z := float64(col.X), float64(col.Z)
	temperature := f.climate.Noise2D(x*biomeScale, z*biomeScale)
	moisture := noise.SampleOffset(f.climate, x*biomeScale, z*biomeScale, moistureOffset)

	defs := f.biomes.All()
	var raw [biome.Count]float64
	total := 0.0
	best := math.Inf(-1)
	out := &Blend{Temperature: temperature, Moisture: moisture}

	for i, def := range defs {
		dt := temperature - def.Temperature
		dm := moisture - def.Moisture
		w := 1 / (dt*dt + dm*dm + blendEpsilon)
		raw[i] = w
		total += w
		if w > best {
			best = w
			out.Dominant = def.Kind
		}
	}

	for i, def := range defs {
		w := raw[i] / total
		out.Weights[i] = w
		out.Height += w * float64(def.Height(x, z))
		out.Color = out.Color.Add(def.Color.Scale(w))
	}
	return out
}
