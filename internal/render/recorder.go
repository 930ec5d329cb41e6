// Package render содержит безголовый приёмник буферов: учитывает живые
// буферы и проверяет контракт Upload/Refresh/Dispose.
package render

import (
	"fmt"
	"sync"

	"github.com/annel0/voxel-world/internal/world/mesh"
	"github.com/google/uuid"
)

// Stats — счётчики событий рендера
type Stats struct {
	Live        int            `json:"live"`
	LiveByLayer map[string]int `json:"live_by_layer"`
	Uploads     int            `json:"uploads"`
	Refreshes   int            `json:"refreshes"`
	Disposes    int            `json:"disposes"`
	Vertices    int            `json:"vertices"`
}

// Recorder запоминает загруженные буферы по их идентификатору
type Recorder struct {
	mu       sync.Mutex
	live     map[uuid.UUID]*mesh.Buffer
	disposed map[uuid.UUID]struct{}
	uploads  int
	refresh  int
	disposes int
}

// NewRecorder создаёт пустой приёмник
func NewRecorder() *Recorder {
	return &Recorder{
		live:     make(map[uuid.UUID]*mesh.Buffer),
		disposed: make(map[uuid.UUID]struct{}),
	}
}

// Upload регистрирует новый буфер
func (r *Recorder) Upload(buf *mesh.Buffer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.disposed[buf.ID]; ok {
		panic(fmt.Sprintf("render: загрузка освобождённого буфера %s", buf.ID))
	}
	if _, ok := r.live[buf.ID]; ok {
		panic(fmt.Sprintf("render: повторная загрузка буфера %s", buf.ID))
	}
	r.live[buf.ID] = buf
	r.uploads++
}

// Refresh отмечает обновление геометрии живого буфера
func (r *Recorder) Refresh(buf *mesh.Buffer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.live[buf.ID]; !ok {
		panic(fmt.Sprintf("render: обновление неизвестного буфера %s", buf.ID))
	}
	r.refresh++
}

// Dispose удаляет буфер. Каждый буфер освобождается ровно один раз.
func (r *Recorder) Dispose(buf *mesh.Buffer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.disposed[buf.ID]; ok {
		panic(fmt.Sprintf("render: повторное освобождение буфера %s", buf.ID))
	}
	if _, ok := r.live[buf.ID]; !ok {
		panic(fmt.Sprintf("render: освобождение неизвестного буфера %s", buf.ID))
	}
	delete(r.live, buf.ID)
	r.disposed[buf.ID] = struct{}{}
	r.disposes++
}

// Live сообщает, загружен ли буфер с данным идентификатором
func (r *Recorder) Live(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.live[id]
	return ok
}

// Disposed сообщает, был ли буфер освобождён
func (r *Recorder) Disposed(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.disposed[id]
	return ok
}

// Stats возвращает снимок счётчиков
func (r *Recorder) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Stats{
		Live:        len(r.live),
		LiveByLayer: make(map[string]int),
		Uploads:     r.uploads,
		Refreshes:   r.refresh,
		Disposes:    r.disposes,
	}
	for _, buf := range r.live {
		s.LiveByLayer[buf.Layer.String()]++
		s.Vertices += buf.VertexCount()
	}
	return s
}
