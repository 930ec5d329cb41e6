package vec

import (
	"fmt"
	"math"
)

// Размер чанка задаётся сдвигом: 1<<5 = 32 мировых единицы.
const (
	ChunkShift = 5
	ChunkSize  = 1 << ChunkShift
)

// Vec2 представляет целочисленные координаты на горизонтальной плоскости (X, Z).
// Используется как ключ колонки вокселей и как ключ чанка.
type Vec2 struct {
	X int `json:"x"`
	Z int `json:"z"`
}

// Column возвращает ключ колонки, содержащей мировую точку (x, z)
func Column(x, z float64) Vec2 {
	return Vec2{X: int(math.Floor(x)), Z: int(math.Floor(z))}
}

// ChunkOf возвращает координаты чанка, содержащего мировую точку (x, z)
func ChunkOf(x, z float64) Vec2 {
	return Column(x, z).ToChunkCoords()
}

// ToChunkCoords преобразует координаты колонки в координаты чанка.
// Арифметический сдвиг корректно округляет отрицательные значения вниз.
func (v Vec2) ToChunkCoords() Vec2 {
	return Vec2{X: v.X >> ChunkShift, Z: v.Z >> ChunkShift}
}

// Origin возвращает мировые координаты угла чанка с минимальными X и Z
func (v Vec2) Origin() Vec2 {
	return Vec2{X: v.X << ChunkShift, Z: v.Z << ChunkShift}
}

// Add складывает два вектора
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Z: v.Z + other.Z}
}

// Sub вычитает вектор
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Z: v.Z - other.Z}
}

// Manhattan возвращает |dx| + |dz| до другой точки
func (v Vec2) Manhattan(other Vec2) int {
	return abs(v.X-other.X) + abs(v.Z-other.Z)
}

func (v Vec2) String() string {
	return fmt.Sprintf("%d,%d", v.X, v.Z)
}

func abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}
