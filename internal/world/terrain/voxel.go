package terrain

// VoxelClass — классификация вокселя относительно поверхности рельефа.
// Не хранится плотно: вычисляется из высоты колонки при запросе.
type VoxelClass uint8

const (
	Empty   VoxelClass = 0
	Solid   VoxelClass = 1
	Surface VoxelClass = 3
)

// Occupied сообщает, занят ли воксель. Поверхностный воксель считается
// заполненным при проверке столкновений.
func (c VoxelClass) Occupied() bool {
	return c != Empty
}

// String возвращает строковое представление класса
func (c VoxelClass) String() string {
	switch c {
	case Empty:
		return "empty"
	case Solid:
		return "solid"
	case Surface:
		return "surface"
	default:
		return "unknown"
	}
}

// classify сравнивает вертикальный индекс вокселя с высотой колонки
func classify(y, height int) VoxelClass {
	switch {
	case y < height:
		return Solid
	case y == height:
		return Surface
	default:
		return Empty
	}
}
