// Package sim связывает рельеф, стриминг тайлов и контроллер наблюдателя в
// одну сессию, которую продвигает внешний драйвер тиков.
package sim

import (
	"context"
	"math"
	"sync"

	"github.com/annel0/voxel-world/internal/eventbus"
	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/noise"
	"github.com/annel0/voxel-world/internal/physics"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/mesh"
	"github.com/annel0/voxel-world/internal/world/stream"
	"github.com/annel0/voxel-world/internal/world/terrain"
	"github.com/go-gl/mathgl/mgl64"
)

// Options задаёт параметры сессии
type Options struct {
	Stream   stream.Config
	Player   physics.Params
	SpawnX   float64
	SpawnZ   float64
	Renderer stream.Renderer
	Metrics  *stream.Metrics
	Events   eventbus.EventBus
}

// DefaultOptions возвращает параметры по умолчанию
func DefaultOptions() Options {
	return Options{
		Stream: stream.DefaultConfig(),
		Player: physics.DefaultParams(),
	}
}

// Snapshot — округлённое состояние наблюдателя для HUD и API
type Snapshot struct {
	X           float64  `json:"x"`
	Y           float64  `json:"y"`
	Z           float64  `json:"z"`
	Yaw         float64  `json:"yaw"`
	Pitch       float64  `json:"pitch"`
	Chunk       vec.Vec2 `json:"chunk"`
	Biome       string   `json:"biome"`
	Grounded    bool     `json:"grounded"`
	Flying      bool     `json:"flying"`
	Running     bool     `json:"running"`
	InWater     bool     `json:"in_water"`
	Capture     bool     `json:"capture"`
	GroundTiles int      `json:"ground_tiles"`
	CloudTiles  int      `json:"cloud_tiles"`
	SimTime     float64  `json:"sim_time"`
}

// Stats — сводка состояния мира
type Stats struct {
	GroundTiles int                `json:"ground_tiles"`
	CloudTiles  int                `json:"cloud_tiles"`
	Cache       terrain.CacheStats `json:"cache"`
	LastReport  stream.Report      `json:"last_report"`
	Evaluations int                `json:"evaluations"`
}

// Session владеет рельефом, менеджером тайлов и контроллером. Симуляция
// однопоточна; мьютекс позволяет API читать согласованные снимки.
type Session struct {
	mu sync.RWMutex

	field      *terrain.Field
	builder    *mesh.Builder
	streams    *stream.Manager
	controller *physics.Controller

	capture     bool
	simTime     float64
	lastReport  stream.Report
	evaluations int

	events    eventbus.EventBus
	pending   []*eventbus.Envelope
	lastChunk vec.Vec2
	lastBiome string

	log *logging.Logger
}

// New создаёт сессию; наблюдатель появляется над поверхностью в точке спавна
func New(src noise.Source, opts Options) *Session {
	field := terrain.NewField(src)
	builder := mesh.NewBuilder(field, src)

	var streamOpts []stream.Option
	if opts.Metrics != nil {
		streamOpts = append(streamOpts, stream.WithMetrics(opts.Metrics))
	}

	ground := float64(field.Height(opts.SpawnX, opts.SpawnZ))
	spawn := mgl64.Vec3{opts.SpawnX, ground + 1 + opts.Player.Height, opts.SpawnZ}

	s := &Session{
		field:      field,
		builder:    builder,
		streams:    stream.NewManager(opts.Stream, field, builder, opts.Renderer, streamOpts...),
		controller: physics.NewController(field, opts.Player, spawn),
		events:     opts.Events,
		lastChunk:  vec.ChunkOf(spawn.X(), spawn.Z()),
		lastBiome:  field.Biome(spawn.X(), spawn.Z()),
		log:        logging.For(logging.ComponentWorld),
	}
	s.log.Info("Сессия создана: seed=%d, noise=%s, spawn=(%.1f, %.1f, %.1f), биом %s",
		src.Seed, src.Kind, spawn.X(), spawn.Y(), spawn.Z(), field.Biome(spawn.X(), spawn.Z()))
	return s
}

// Start выполняет начальную генерацию вокруг наблюдателя без ограничения частоты
func (s *Session) Start(ctx context.Context, t float64) stream.Report {
	s.mu.Lock()
	s.simTime = t
	rep := s.streams.Evaluate(ctx, s.observer(), t)
	s.record(rep)
	s.log.Info("Начальная генерация: %d тайлов рельефа, %d облачных", s.streams.Len(), s.streams.CloudLen())
	pending := s.takePending()
	s.mu.Unlock()

	s.publish(ctx, pending)
	return rep
}

// SetCapture включает или выключает захват взгляда
func (s *Session) SetCapture(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capture = on
}

// Capture сообщает, активен ли захват взгляда
func (s *Session) Capture() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.capture
}

// SetIntents передаёт удерживаемые намерения контроллеру
func (s *Session) SetIntents(in physics.Intents) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controller.SetIntents(in)
}

// PressAscend передаёт нажатие подъёма
func (s *Session) PressAscend() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controller.PressAscend()
}

// ToggleFlight переключает режим полёта
func (s *Session) ToggleFlight(ctx context.Context) bool {
	s.mu.Lock()
	flying := s.controller.ToggleFlight()
	s.emit(EventFlightToggled, 5, FlightToggled{Flying: flying})
	pending := s.takePending()
	s.mu.Unlock()

	s.publish(ctx, pending)
	return flying
}

// Look передаёт приращение взгляда
func (s *Session) Look(dYaw, dPitch float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controller.Look(dYaw, dPitch)
}

// TickKinematics продвигает наблюдателя. Без захвата взгляда ничего не делает.
func (s *Session) TickKinematics(dt float64) bool {
	s.mu.Lock()
	if !s.capture {
		s.mu.Unlock()
		return false
	}
	from := s.controller.Position()
	s.controller.Tick(dt)
	if to := s.controller.Position(); to != from {
		logging.LogObserverMovement(s.log, from.X(), from.Y(), from.Z(), to.X(), to.Y(), to.Z())
	}
	s.trackObserver()
	pending := s.takePending()
	s.mu.Unlock()

	s.publish(context.Background(), pending)
	return true
}

// TickWorld переоценивает активные тайлы вокруг наблюдателя. Выполняется
// независимо от захвата взгляда.
func (s *Session) TickWorld(ctx context.Context, t float64) (stream.Report, bool) {
	s.mu.Lock()
	s.simTime = t
	rep, ran := s.streams.Tick(ctx, s.observer(), t)
	if ran {
		s.record(rep)
	}
	pending := s.takePending()
	s.mu.Unlock()

	s.publish(ctx, pending)
	return rep, ran
}

func (s *Session) record(rep stream.Report) {
	s.lastReport = rep
	s.evaluations++
	if rep.Changed() {
		p := s.controller.Position()
		s.emit(EventTilesUpdated, 1, TilesUpdated{
			Center: vec.ChunkOf(p.X(), p.Z()),
			Report: rep,
			Ground: s.streams.Len(),
			Clouds: s.streams.CloudLen(),
		})
	}
}

func (s *Session) observer() vec.Vec3Float {
	p := s.controller.Position()
	return vec.Vec3Float{X: p.X(), Y: p.Y(), Z: p.Z()}
}

// GetHeight возвращает высоту поверхности колонки
func (s *Session) GetHeight(x, z float64) int {
	return s.field.Height(x, z)
}

// GetVoxel классифицирует воксель
func (s *Session) GetVoxel(x, y, z float64) terrain.VoxelClass {
	return s.field.Voxel(x, y, z)
}

// GetBiome возвращает имя доминирующего биома
func (s *Session) GetBiome(x, z float64) string {
	return s.field.Biome(x, z)
}

// GetColor возвращает смешанный цвет колонки
func (s *Session) GetColor(x, z float64) [3]float64 {
	c := s.field.Color(x, z)
	return [3]float64{c.R, c.G, c.B}
}

// WaterLevel возвращает уровень воды
func (s *Session) WaterLevel() float64 {
	return s.field.WaterLevel()
}

// ChunkSize возвращает размер чанка в мировых единицах
func (s *Session) ChunkSize() int {
	return vec.ChunkSize
}

// Field возвращает поле рельефа
func (s *Session) Field() *terrain.Field {
	return s.field
}

// Observer возвращает состояние наблюдателя
func (s *Session) Observer() physics.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.controller.State()
}

// Snapshot возвращает округлённый снимок для HUD
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.controller.State()
	p := st.Position
	return Snapshot{
		X:           round2(p.X()),
		Y:           round2(p.Y()),
		Z:           round2(p.Z()),
		Yaw:         round2(st.Yaw),
		Pitch:       round2(st.Pitch),
		Chunk:       vec.ChunkOf(p.X(), p.Z()),
		Biome:       s.field.Biome(p.X(), p.Z()),
		Grounded:    st.Grounded,
		Flying:      st.Flying,
		Running:     st.Running,
		InWater:     st.InWater,
		Capture:     s.capture,
		GroundTiles: s.streams.Len(),
		CloudTiles:  s.streams.CloudLen(),
		SimTime:     round2(s.simTime),
	}
}

// Stats возвращает сводку тайлов и кэшей
func (s *Session) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		GroundTiles: s.streams.Len(),
		CloudTiles:  s.streams.CloudLen(),
		Cache:       s.field.Stats(),
		LastReport:  s.lastReport,
		Evaluations: s.evaluations,
	}
}

// Tile возвращает активный тайл рельефа
func (s *Session) Tile(key vec.Vec2) (*stream.Tile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.streams.Tile(key)
}

// Close выгружает все тайлы
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streams.Close()
	s.log.Info("Сессия закрыта")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
