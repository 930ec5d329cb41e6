// Package mesh синтезирует вершинные буферы тайлов: рельеф, вода и облака.
//
// Ядро только заполняет массивы позиций и цветов; загрузку на GPU и
// освобождение ресурсов выполняет слой рендеринга.
package mesh

import (
	"fmt"

	"github.com/annel0/voxel-world/internal/vec"
	"github.com/google/uuid"
)

// Layer определяет, к какому слою сцены относится буфер
type Layer uint8

const (
	LayerGround Layer = iota
	LayerWater
	LayerCloud
)

// String возвращает имя слоя
func (l Layer) String() string {
	switch l {
	case LayerGround:
		return "ground"
	case LayerWater:
		return "water"
	case LayerCloud:
		return "cloud"
	default:
		return "unknown"
	}
}

// Buffer — вершинный буфер тайла. Владелец — менеджер стриминга; слой
// рендеринга получает на него невладеющую ссылку.
type Buffer struct {
	ID          uuid.UUID
	Layer       Layer
	Chunk       vec.Vec2
	Positions   []float32 // x, y, z на вершину
	Colors      []float32 // ColorStride компонент на вершину
	ColorStride int       // 3 (RGB) или 4 (RGBA)
	Epoch       int64     // облачная эпоха последнего сэмплирования

	released bool
}

func newBuffer(layer Layer, chunk vec.Vec2, stride int) *Buffer {
	return &Buffer{
		ID:          uuid.New(),
		Layer:       layer,
		Chunk:       chunk,
		Positions:   make([]float32, VertexCount*3),
		Colors:      make([]float32, VertexCount*stride),
		ColorStride: stride,
	}
}

// VertexCount возвращает число вершин буфера
func (b *Buffer) VertexCount() int {
	return len(b.Positions) / 3
}

// Released сообщает, освобождён ли буфер
func (b *Buffer) Released() bool {
	return b.released
}

// Release освобождает геометрию. Повторное освобождение — нарушение контракта.
func (b *Buffer) Release() {
	if b.released {
		panic(fmt.Sprintf("mesh: повторное освобождение буфера %s (%s %s)", b.ID, b.Layer, b.Chunk))
	}
	b.released = true
	b.Positions = nil
	b.Colors = nil
}

// Vertex возвращает позицию вершины i
func (b *Buffer) Vertex(i int) (x, y, z float32) {
	return b.Positions[i*3], b.Positions[i*3+1], b.Positions[i*3+2]
}
