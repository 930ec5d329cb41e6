package vec

import "math"

// Vec3 представляет трехмерный вектор с целочисленными координатами (идентификатор вокселя)
type Vec3 struct {
	X int
	Y int
	Z int
}

// Vec3Float представляет трехмерный вектор с плавающими координатами
type Vec3Float struct {
	X float64
	Y float64
	Z float64
}

// Voxel возвращает воксель, содержащий точку (x, y, z): (floor(x), floor(y), floor(z))
func Voxel(x, y, z float64) Vec3 {
	return Vec3{
		X: int(math.Floor(x)),
		Y: int(math.Floor(y)),
		Z: int(math.Floor(z)),
	}
}

// Column отбрасывает вертикальную координату
func (v Vec3) Column() Vec2 {
	return Vec2{X: v.X, Z: v.Z}
}

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Voxel возвращает воксель, содержащий точку
func (v Vec3Float) Voxel() Vec3 {
	return Voxel(v.X, v.Y, v.Z)
}

// Chunk возвращает чанк, над которым находится точка
func (v Vec3Float) Chunk() Vec2 {
	return ChunkOf(v.X, v.Z)
}
