package sim

import (
	"context"

	"github.com/annel0/voxel-world/internal/eventbus"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/stream"
)

// Типы событий, которые публикует сессия
const (
	EventChunkChanged  = "observer.chunk_changed"
	EventBiomeChanged  = "observer.biome_changed"
	EventFlightToggled = "observer.flight_toggled"
	EventTilesUpdated  = "world.tiles_updated"
)

const eventSource = "sim"

// ChunkChanged наблюдатель пересёк границу чанка
type ChunkChanged struct {
	From vec.Vec2 `json:"from"`
	To   vec.Vec2 `json:"to"`
}

// BiomeChanged наблюдатель вошёл в другой доминирующий биом
type BiomeChanged struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	X    float64 `json:"x"`
	Z    float64 `json:"z"`
}

// FlightToggled режим полёта переключён
type FlightToggled struct {
	Flying bool `json:"flying"`
}

// TilesUpdated переоценка изменила состав активных тайлов
type TilesUpdated struct {
	Center vec.Vec2      `json:"center"`
	Report stream.Report `json:"report"`
	Ground int           `json:"ground_tiles"`
	Clouds int           `json:"cloud_tiles"`
}

// emit ставит событие в очередь, если шина подключена. Вызывается под s.mu;
// очередь публикуется после снятия блокировки.
func (s *Session) emit(eventType string, priority int, payload any) {
	if s.events == nil {
		return
	}
	ev, err := eventbus.NewEnvelope(eventSource, eventType, s.simTime, priority, payload)
	if err != nil {
		s.log.Warn("Не удалось сериализовать событие %s: %v", eventType, err)
		return
	}
	s.pending = append(s.pending, ev)
}

// takePending забирает накопленные события. Вызывается под s.mu.
func (s *Session) takePending() []*eventbus.Envelope {
	pending := s.pending
	s.pending = nil
	return pending
}

// publish отправляет события в шину без удержания s.mu. Ошибки шины не
// прерывают симуляцию.
func (s *Session) publish(ctx context.Context, pending []*eventbus.Envelope) {
	for _, ev := range pending {
		if err := s.events.Publish(ctx, ev); err != nil {
			s.log.Warn("Не удалось опубликовать событие %s: %v", ev.EventType, err)
		}
	}
}

// trackObserver сравнивает чанк и биом наблюдателя с предыдущими значениями
func (s *Session) trackObserver() {
	p := s.controller.Position()
	chunk := vec.ChunkOf(p.X(), p.Z())
	if chunk != s.lastChunk {
		s.emit(EventChunkChanged, 2, ChunkChanged{From: s.lastChunk, To: chunk})
		s.lastChunk = chunk
	}
	if s.events == nil {
		return
	}
	biome := s.field.Biome(p.X(), p.Z())
	if biome != s.lastBiome {
		s.emit(EventBiomeChanged, 2, BiomeChanged{From: s.lastBiome, To: biome, X: p.X(), Z: p.Z()})
		s.lastBiome = biome
	}
}
