// Package biome описывает фиксированный набор биомов.
//
// Набор закрыт: шесть вариантов различаются только коэффициентами наложения
// шумов, вертикальным масштабом и базовой высотой. Высота выбирается одной
// диспетчеризацией по Kind.
package biome

import (
	"math"

	"github.com/annel0/voxel-world/internal/noise"
)

// Kind представляет тип биома
type Kind uint8

const (
	Desert Kind = iota
	Grassland
	Snow
	Jungle
	Mountain
	Tundra

	Count = 6 // количество биомов
)

// Kinds перечисляет биомы в порядке таблицы
var Kinds = [Count]Kind{Desert, Grassland, Snow, Jungle, Mountain, Tundra}

// String возвращает имя биома
func (k Kind) String() string {
	switch k {
	case Desert:
		return "desert"
	case Grassland:
		return "grassland"
	case Snow:
		return "snow"
	case Jungle:
		return "jungle"
	case Mountain:
		return "mountain"
	case Tundra:
		return "tundra"
	default:
		return "unknown"
	}
}

// Definition — неизменяемое описание биома.
// Создаётся один раз при старте и больше не меняется.
type Definition struct {
	Kind        Kind
	Name        string
	Color       RGB
	Temperature float64 // сродство по температуре, [-1, 1]
	Moisture    float64 // сродство по влажности, [-1, 1]
	BaseHeight  float64
	Amplitude   float64 // вертикальный масштаб
	Scale       float64 // базовая частота рельефа

	terrain   noise.Field
	secondary noise.Field // detail / peak / roughness, если биому нужен второй шум
}

// Terrain возвращает смещение рельефа биома в точке (x, z)
func (d *Definition) Terrain(x, z float64) float64 {
	s := d.Scale
	switch d.Kind {
	case Desert:
		// одна низкочастотная октава
		return d.terrain.Noise2D(x*s*0.5, z*s*0.5) * 2

	case Grassland:
		n1 := d.terrain.Noise2D(x*s, z*s)
		n2 := d.terrain.Noise2D(x*s*2, z*s*2) * 0.3
		n3 := d.secondary.Noise2D(x*s*4, z*s*4) * 0.1
		v := n1 + n2 + n3
		// холмы: sign(v)*|v|^1.2
		return math.Copysign(math.Pow(math.Abs(v), 1.2), v)

	case Snow:
		n1 := d.terrain.Noise2D(x*s*0.8, z*s*0.8)
		n2 := d.terrain.Noise2D(x*s*1.6, z*s*1.6) * 0.4
		n3 := d.terrain.Noise2D(x*s*3.2, z*s*3.2) * 0.2
		return n1 + n2 + n3

	case Jungle:
		n1 := d.terrain.Noise2D(x*s, z*s)
		n2 := d.terrain.Noise2D(x*s*2, z*s*2) * 0.5
		n3 := d.secondary.Noise2D(x*s*4, z*s*4) * 0.25
		return (n1 + n2 + n3) * 1.5

	case Mountain:
		// гребни из модулей октав плюс квадрат пиковой октавы
		n1 := math.Abs(d.terrain.Noise2D(x*s, z*s))
		n2 := math.Abs(d.terrain.Noise2D(x*s*2, z*s*2)) * 0.5
		p := d.secondary.Noise2D(x*s*0.5, z*s*0.5)
		return n1 + n2 + p*p*2

	case Tundra:
		n1 := d.terrain.Noise2D(x*s, z*s) * 0.7
		roughness := d.secondary.Noise2D(x*s*3, z*s*3) * 0.3
		return n1 + roughness
	}
	return 0
}

// Height возвращает целочисленную высоту рельефа биома в точке (x, z)
func (d *Definition) Height(x, z float64) int {
	return int(math.Floor(d.BaseHeight + d.Terrain(x, z)*d.Amplitude))
}

// entry задаёт параметры одного биома в таблице
type entry struct {
	kind        Kind
	color       RGB
	temperature float64
	moisture    float64
	base        float64
	amplitude   float64
	scale       float64
	secondary   string // имя второго шума; пусто, если не нужен
}

var entries = [Count]entry{
	{kind: Desert, color: RGB{0.76, 0.7, 0.5}, temperature: 0.7, moisture: -0.2, base: 16, amplitude: 4, scale: 0.02},
	{kind: Grassland, color: RGB{0.2, 0.6, 0.2}, temperature: 0.0, moisture: 0.1, base: 16, amplitude: 6, scale: 0.02, secondary: "detail"},
	{kind: Snow, color: RGB{0.9, 0.9, 0.9}, temperature: -0.7, moisture: 0.0, base: 16, amplitude: 4, scale: 0.02},
	{kind: Jungle, color: RGB{0.15, 0.5, 0.15}, temperature: 0.7, moisture: 0.7, base: 18, amplitude: 8, scale: 0.02, secondary: "detail"},
	{kind: Mountain, color: RGB{0.6, 0.6, 0.65}, temperature: -0.3, moisture: -0.3, base: 20, amplitude: 15, scale: 0.015, secondary: "peak"},
	{kind: Tundra, color: RGB{0.85, 0.87, 0.9}, temperature: -0.5, moisture: 0.1, base: 15, amplitude: 3, scale: 0.025, secondary: "roughness"},
}

// Table — фиксированная таблица из шести биомов
type Table struct {
	defs [Count]*Definition
}

// NewTable создаёт таблицу биомов. Каждый биом получает собственные поля шума,
// поэтому рисунок рельефа различается между биомами даже в одних координатах.
func NewTable(src noise.Source) *Table {
	t := &Table{}
	for i, sp := range entries {
		name := sp.kind.String()
		def := &Definition{
			Kind:        sp.kind,
			Name:        name,
			Color:       sp.color,
			Temperature: sp.temperature,
			Moisture:    sp.moisture,
			BaseHeight:  sp.base,
			Amplitude:   sp.amplitude,
			Scale:       sp.scale,
			terrain:     src.Field(name + "/terrain"),
		}
		if sp.secondary != "" {
			def.secondary = src.Field(name + "/" + sp.secondary)
		}
		t.defs[i] = def
	}
	return t
}

// Get возвращает описание биома по типу
func (t *Table) Get(k Kind) *Definition {
	return t.defs[k]
}

// All возвращает описания биомов в порядке таблицы
func (t *Table) All() [Count]*Definition {
	return t.defs
}
