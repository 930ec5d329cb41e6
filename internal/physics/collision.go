package physics

import (
	"math"

	"github.com/annel0/voxel-world/internal/world/terrain"
	"github.com/go-gl/mathgl/mgl64"
)

// VoxelQuery — то, что контроллер читает из мира
type VoxelQuery interface {
	Voxel(x, y, z float64) terrain.VoxelClass
	WaterLevel() float64
}

// BoxCollider представляет AABB наблюдателя, подвешенный к точке глаз:
// [x±HalfWidth] × [y−Height, y] × [z±HalfWidth]
type BoxCollider struct {
	HalfWidth float64
	Height    float64
}

// NewBoxCollider создаёт коллайдер с радиусом, уменьшенным на отступ
func NewBoxCollider(radius, padding, height float64) BoxCollider {
	return BoxCollider{
		HalfWidth: radius - padding,
		Height:    height,
	}
}

// Bounds возвращает углы коллайдера для позиции глаз
func (bc BoxCollider) Bounds(eye mgl64.Vec3) (lo, hi mgl64.Vec3) {
	lo = mgl64.Vec3{eye.X() - bc.HalfWidth, eye.Y() - bc.Height, eye.Z() - bc.HalfWidth}
	hi = mgl64.Vec3{eye.X() + bc.HalfWidth, eye.Y(), eye.Z() + bc.HalfWidth}
	return lo, hi
}

// Collides проверяет, пересекает ли коллайдер хотя бы один занятый воксель
func (bc BoxCollider) Collides(eye mgl64.Vec3, world VoxelQuery) bool {
	lo, hi := bc.Bounds(eye)

	for x := math.Floor(lo.X()); x <= math.Floor(hi.X()); x++ {
		for y := math.Floor(lo.Y()); y <= math.Floor(hi.Y()); y++ {
			for z := math.Floor(lo.Z()); z <= math.Floor(hi.Z()); z++ {
				if world.Voxel(x, y, z).Occupied() {
					return true
				}
			}
		}
	}
	return false
}

// OnGround проверяет опору под ногами: сетка 3×3 точек с шагом radius на
// глубине tolerance ниже ступней
func (bc BoxCollider) OnGround(eye mgl64.Vec3, radius, tolerance float64, world VoxelQuery) bool {
	y := eye.Y() - bc.Height - tolerance

	for dx := -1; dx <= 1; dx++ {
		for dz := -1; dz <= 1; dz++ {
			x := eye.X() + float64(dx)*radius
			z := eye.Z() + float64(dz)*radius
			if world.Voxel(math.Floor(x), math.Floor(y), math.Floor(z)).Occupied() {
				return true
			}
		}
	}
	return false
}
