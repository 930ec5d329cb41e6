// Package stream управляет активными тайлами вокруг наблюдателя: генерирует
// недостающие, выгружает дальние и периодически пересэмплирует облака.
package stream

import "github.com/annel0/voxel-world/internal/world/mesh"

// Renderer принимает события жизненного цикла буферов.
// Dispose вызывается ровно один раз на удалённый буфер; после него буфер
// больше не передаётся.
type Renderer interface {
	Upload(buf *mesh.Buffer)
	Refresh(buf *mesh.Buffer)
	Dispose(buf *mesh.Buffer)
}

// NopRenderer игнорирует все события
type NopRenderer struct{}

func (NopRenderer) Upload(*mesh.Buffer)  {}
func (NopRenderer) Refresh(*mesh.Buffer) {}
func (NopRenderer) Dispose(*mesh.Buffer) {}
