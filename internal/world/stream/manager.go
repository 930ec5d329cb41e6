package stream

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/mesh"
	"github.com/annel0/voxel-world/internal/world/terrain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const tracerName = "github.com/annel0/voxel-world/internal/world/stream"

// Config задаёт радиусы и частоты стриминга
type Config struct {
	RenderDistance      int     `json:"render_distance"`       // радиус активного набора тайлов рельефа, в чанках
	CloudExtraDistance  int     `json:"cloud_extra_distance"`  // на сколько чанков облака видны дальше рельефа
	CloudUpdateInterval float64 `json:"cloud_update_interval"` // период пересэмплирования облаков, в секундах симуляции
	MinInterval         float64 `json:"min_interval"`          // минимальный интервал переоценки без смены чанка
	BoundedCache        bool    `json:"bounded_cache"`         // обрезать кэши рельефа до активного набора
}

// DefaultConfig возвращает параметры по умолчанию
func DefaultConfig() Config {
	return Config{
		RenderDistance:      4,
		CloudExtraDistance:  5,
		CloudUpdateInterval: 3.0,
		MinInterval:         0.5,
		BoundedCache:        true,
	}
}

// CloudDistance возвращает радиус активного набора облаков
func (c Config) CloudDistance() int {
	return c.RenderDistance + c.CloudExtraDistance
}

// Tile — пара буферов рельефа и воды одного чанка
type Tile struct {
	Key    vec.Vec2
	Ground *mesh.Buffer
	Water  *mesh.Buffer
}

// CloudTile — облачный буфер, пересэмплируемый на месте
type CloudTile struct {
	Key        vec.Vec2
	Buffer     *mesh.Buffer
	LastUpdate float64
}

// Report описывает результат одной переоценки
type Report struct {
	GroundInserted int `json:"ground_inserted"`
	GroundEvicted  int `json:"ground_evicted"`
	CloudInserted  int `json:"cloud_inserted"`
	CloudEvicted   int `json:"cloud_evicted"`
	CloudResampled int `json:"cloud_resampled"`
}

// Changed сообщает, изменился ли состав активных тайлов
func (r Report) Changed() bool {
	return r.GroundInserted+r.GroundEvicted+r.CloudInserted+r.CloudEvicted > 0
}

// InRange проверяет, попадает ли смещение чанка в активный набор радиуса radius
func InRange(offset vec.Vec2, radius int) bool {
	if offset.X < -radius || offset.X > radius || offset.Z < -radius || offset.Z > radius {
		return false
	}
	return float64(offset.Manhattan(vec.Vec2{})) <= float64(radius)*1.5
}

// ActiveKeys возвращает активный набор чанков вокруг center: квадрат
// [-radius, radius]² обрезается ромбом |dx|+|dz| ≤ radius·1.5.
func ActiveKeys(center vec.Vec2, radius int) map[vec.Vec2]struct{} {
	keys := make(map[vec.Vec2]struct{})
	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			offset := vec.Vec2{X: dx, Z: dz}
			if InRange(offset, radius) {
				keys[center.Add(offset)] = struct{}{}
			}
		}
	}
	return keys
}

// Option настраивает Manager
type Option func(*Manager)

// WithMetrics включает экспорт метрик
func WithMetrics(m *Metrics) Option {
	return func(mgr *Manager) { mgr.metrics = m }
}

// WithTracer задаёт трассировщик вместо глобального
func WithTracer(t trace.Tracer) Option {
	return func(mgr *Manager) { mgr.tracer = t }
}

// WithLogger задаёт логгер компонента
func WithLogger(l *logging.Logger) Option {
	return func(mgr *Manager) { mgr.log = l }
}

// Manager — единственный владелец тайлов. Не потокобезопасен: все вызовы
// выполняются из потока симуляции.
type Manager struct {
	cfg      Config
	field    *terrain.Field
	builder  *mesh.Builder
	renderer Renderer
	metrics  *Metrics
	tracer   trace.Tracer
	log      *logging.Logger

	tiles  map[vec.Vec2]*Tile
	clouds map[vec.Vec2]*CloudTile

	center    vec.Vec2
	evaluated bool
	limiter   *rate.Limiter
}

// NewManager создаёт менеджер стриминга
func NewManager(cfg Config, field *terrain.Field, builder *mesh.Builder, renderer Renderer, opts ...Option) *Manager {
	if cfg.RenderDistance < 0 || cfg.CloudExtraDistance < 0 {
		panic(fmt.Sprintf("stream: отрицательный радиус (%d, +%d)", cfg.RenderDistance, cfg.CloudExtraDistance))
	}
	if renderer == nil {
		renderer = NopRenderer{}
	}

	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(seconds(cfg.MinInterval))
	}

	m := &Manager{
		cfg:      cfg,
		field:    field,
		builder:  builder,
		renderer: renderer,
		tiles:    make(map[vec.Vec2]*Tile),
		clouds:   make(map[vec.Vec2]*CloudTile),
		limiter:  rate.NewLimiter(limit, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.tracer == nil {
		m.tracer = otel.Tracer(tracerName)
	}
	if m.log == nil {
		m.log = logging.For(logging.ComponentStream)
	}
	return m
}

// Config возвращает параметры менеджера
func (m *Manager) Config() Config {
	return m.cfg
}

// Tick переоценивает активный набор, если наблюдатель сменил чанк или с
// прошлой переоценки прошло не меньше MinInterval времени симуляции.
// Второе значение сообщает, была ли выполнена переоценка.
func (m *Manager) Tick(ctx context.Context, pos vec.Vec3Float, t float64) (Report, bool) {
	now := simClock(t)
	if m.evaluated && pos.Chunk() == m.center {
		if !m.limiter.AllowN(now, 1) {
			return Report{}, false
		}
	} else {
		m.limiter.AllowN(now, 1)
	}
	return m.Evaluate(ctx, pos, t), true
}

// Evaluate выполняет переоценку без ограничения частоты. Повторный вызов
// при неизменном чанке наблюдателя не вставляет и не выгружает тайлы.
func (m *Manager) Evaluate(ctx context.Context, pos vec.Vec3Float, t float64) Report {
	started := time.Now()
	center := pos.Chunk()

	_, span := m.tracer.Start(ctx, "stream.Evaluate", trace.WithAttributes(
		attribute.Int("chunk.x", center.X),
		attribute.Int("chunk.z", center.Z),
		attribute.Float64("sim.time", t),
	))
	defer span.End()

	if m.evaluated && center != m.center {
		m.log.Debug("Наблюдатель перешёл в чанк %s (из %s)", center, m.center)
	}
	m.center = center
	m.evaluated = true

	var rep Report
	ground := ActiveKeys(center, m.cfg.RenderDistance)
	for key := range ground {
		if _, ok := m.tiles[key]; !ok {
			m.insertTile(key)
			rep.GroundInserted++
		}
	}
	for key, tile := range m.tiles {
		if _, ok := ground[key]; !ok {
			m.evictTile(tile)
			delete(m.tiles, key)
			rep.GroundEvicted++
		}
	}

	clouds := ActiveKeys(center, m.cfg.CloudDistance())
	for key, ct := range m.clouds {
		if _, ok := clouds[key]; !ok {
			m.dispose(ct.Buffer)
			delete(m.clouds, key)
			rep.CloudEvicted++
			continue
		}
		if t-ct.LastUpdate > m.cfg.CloudUpdateInterval {
			m.builder.ResampleClouds(ct.Buffer, t)
			m.renderer.Refresh(ct.Buffer)
			ct.LastUpdate = t
			rep.CloudResampled++
		}
	}
	for key := range clouds {
		if _, ok := m.clouds[key]; !ok {
			buf := m.builder.Clouds(key, t)
			m.upload(buf)
			m.clouds[key] = &CloudTile{Key: key, Buffer: buf, LastUpdate: t}
			rep.CloudInserted++
		}
	}

	trimmed := 0
	if m.cfg.BoundedCache {
		trimmed = m.field.Retain(func(chunk vec.Vec2) bool {
			_, ok := ground[chunk]
			return ok
		})
	}

	span.SetAttributes(
		attribute.Int("ground.inserted", rep.GroundInserted),
		attribute.Int("ground.evicted", rep.GroundEvicted),
		attribute.Int("cloud.resampled", rep.CloudResampled),
	)

	if m.metrics != nil {
		m.metrics.GroundTiles.Set(float64(len(m.tiles)))
		m.metrics.CloudTiles.Set(float64(len(m.clouds)))
		m.metrics.CloudResampled.Add(float64(rep.CloudResampled))
		m.metrics.CacheEntries.Set(float64(m.field.Stats().Entries()))
		m.metrics.Evaluate.Observe(time.Since(started).Seconds())
	}

	if rep.Changed() {
		m.log.Debug("Активный набор %s: рельеф +%d/-%d, облака +%d/-%d, кэш -%d",
			center, rep.GroundInserted, rep.GroundEvicted, rep.CloudInserted, rep.CloudEvicted, trimmed)
	}
	return rep
}

func (m *Manager) insertTile(key vec.Vec2) {
	tile := &Tile{
		Key:    key,
		Ground: m.builder.Ground(key),
		Water:  m.builder.Water(key),
	}
	m.upload(tile.Ground)
	m.upload(tile.Water)
	m.tiles[key] = tile
	logging.LogChunkLoaded(m.log, "ground", key.X, key.Z)
}

func (m *Manager) evictTile(tile *Tile) {
	m.dispose(tile.Ground)
	m.dispose(tile.Water)
	logging.LogChunkUnloaded(m.log, "ground", tile.Key.X, tile.Key.Z)
}

func (m *Manager) upload(buf *mesh.Buffer) {
	m.renderer.Upload(buf)
	m.metrics.generated(buf.Layer)
}

// dispose уведомляет рендер и освобождает геометрию синхронно
func (m *Manager) dispose(buf *mesh.Buffer) {
	m.renderer.Dispose(buf)
	m.metrics.evicted(buf.Layer)
	buf.Release()
}

// Tile возвращает активный тайл рельефа
func (m *Manager) Tile(key vec.Vec2) (*Tile, bool) {
	tile, ok := m.tiles[key]
	return tile, ok
}

// MustTile возвращает активный тайл и паникует, если тайл не активен
func (m *Manager) MustTile(key vec.Vec2) *Tile {
	tile, ok := m.tiles[key]
	if !ok {
		panic(fmt.Sprintf("stream: тайл %s не активен", key))
	}
	return tile
}

// CloudTile возвращает активный облачный тайл
func (m *Manager) CloudTile(key vec.Vec2) (*CloudTile, bool) {
	ct, ok := m.clouds[key]
	return ct, ok
}

// GroundKeys возвращает отсортированные ключи активных тайлов рельефа
func (m *Manager) GroundKeys() []vec.Vec2 {
	keys := make([]vec.Vec2, 0, len(m.tiles))
	for key := range m.tiles {
		keys = append(keys, key)
	}
	sortKeys(keys)
	return keys
}

// CloudKeys возвращает отсортированные ключи активных облачных тайлов
func (m *Manager) CloudKeys() []vec.Vec2 {
	keys := make([]vec.Vec2, 0, len(m.clouds))
	for key := range m.clouds {
		keys = append(keys, key)
	}
	sortKeys(keys)
	return keys
}

// Len возвращает число активных тайлов рельефа
func (m *Manager) Len() int { return len(m.tiles) }

// CloudLen возвращает число активных облачных тайлов
func (m *Manager) CloudLen() int { return len(m.clouds) }

// Center возвращает чанк наблюдателя на момент последней переоценки
func (m *Manager) Center() (vec.Vec2, bool) {
	return m.center, m.evaluated
}

// Close выгружает все тайлы
func (m *Manager) Close() {
	for key, tile := range m.tiles {
		m.evictTile(tile)
		delete(m.tiles, key)
	}
	for key, ct := range m.clouds {
		m.dispose(ct.Buffer)
		delete(m.clouds, key)
	}
	m.evaluated = false
	if m.metrics != nil {
		m.metrics.GroundTiles.Set(0)
		m.metrics.CloudTiles.Set(0)
	}
}

func sortKeys(keys []vec.Vec2) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].X != keys[j].X {
			return keys[i].X < keys[j].X
		}
		return keys[i].Z < keys[j].Z
	})
}

// simClock переводит время симуляции в момент для rate.Limiter
func simClock(t float64) time.Time {
	return time.Unix(0, 0).Add(seconds(t))
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
