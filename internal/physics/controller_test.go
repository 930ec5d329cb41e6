package physics

import (
	"math"
	"math/rand"
	"testing"

	"github.com/annel0/voxel-world/internal/noise"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/world/terrain"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frame = 1.0 / 60

// flatWorld — плоский мир с поверхностью на высоте ground и отдельными блоками
type flatWorld struct {
	ground int
	water  float64
	blocks map[vec.Vec3]bool
}

func newFlatWorld(ground int, water float64) *flatWorld {
	return &flatWorld{ground: ground, water: water, blocks: make(map[vec.Vec3]bool)}
}

func (w *flatWorld) Voxel(x, y, z float64) terrain.VoxelClass {
	v := vec.Voxel(x, y, z)
	if w.blocks[v] {
		return terrain.Solid
	}
	switch {
	case v.Y < w.ground:
		return terrain.Solid
	case v.Y == w.ground:
		return terrain.Surface
	default:
		return terrain.Empty
	}
}

func (w *flatWorld) WaterLevel() float64 { return w.water }

// standingEye возвращает высоту глаз стоящего на плоском мире наблюдателя
func standingEye(w *flatWorld) float64 {
	return float64(w.ground) + 1 + DefaultParams().Height
}

// assertVec сравнивает векторы покомпонентно с абсолютным допуском
func assertVec(t *testing.T, want, got mgl64.Vec3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-9, "компонента %d", i)
	}
}

func TestController_Directions(t *testing.T) {
	c := NewController(newFlatWorld(0, -10), DefaultParams(), mgl64.Vec3{0, 3, 0})

	assertVec(t, mgl64.Vec3{0, 0, -1}, c.Forward())
	assertVec(t, mgl64.Vec3{1, 0, 0}, c.Right())

	c.Look(math.Pi/2, 0)
	assertVec(t, mgl64.Vec3{-1, 0, 0}, c.Forward())
	assertVec(t, mgl64.Vec3{0, 0, -1}, c.Right())
	assert.True(t, c.Forward().ApproxEqualThreshold(mgl64.Vec3{-1, 0, 0}, 1e-9))
}

func TestController_LookClampsPitch(t *testing.T) {
	c := NewController(newFlatWorld(0, -10), DefaultParams(), mgl64.Vec3{0, 3, 0})

	c.Look(10, 5)
	assert.Equal(t, math.Pi/2, c.State().Pitch)
	c.Look(10, -20)
	assert.Equal(t, -math.Pi/2, c.State().Pitch)
	assert.Equal(t, 20.0, c.State().Yaw)
}

func TestController_WalkRunSwim(t *testing.T) {
	world := newFlatWorld(20, 0)
	eye := standingEye(world)

	cases := []struct {
		name  string
		water float64
		run   bool
		want  float64
	}{
		{"ходьба", 0, false, 2.4},
		{"бег", 0, true, 4.0},
		{"в воде", 40, false, 1.2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			world.water = tc.water
			c := NewController(world, DefaultParams(), mgl64.Vec3{0.5, eye, 0.5})
			c.SetIntents(Intents{Forward: true, Run: tc.run})
			c.Tick(0.1)

			pos := c.Position()
			assert.InDelta(t, 0.5, pos.X(), 1e-9)
			assert.InDelta(t, 0.5-tc.want, pos.Z(), 1e-9)
		})
	}
}

func TestController_StepUp(t *testing.T) {
	world := newFlatWorld(20, 0)
	world.blocks[vec.Vec3{X: 6, Y: 21, Z: 5}] = true
	eye := standingEye(world)

	c := NewController(world, DefaultParams(), mgl64.Vec3{5.5, eye, 5.5})
	c.Look(-math.Pi/2, 0)
	require.True(t, c.Forward().ApproxEqualThreshold(mgl64.Vec3{1, 0, 0}, 1e-9))

	c.SetIntents(Intents{Forward: true})
	c.Tick(frame)

	pos := c.Position()
	assert.InDelta(t, 5.9, pos.X(), 1e-6, "движение не откатилось")
	assert.InDelta(t, 5.5, pos.Z(), 1e-9)
	assert.InDelta(t, eye+1, pos.Y(), 1e-9, "наблюдатель поднялся на препятствие")
	assert.Greater(t, pos.Y(), eye)
	assert.False(t, c.Collider().Collides(pos, world))
}

func TestController_WallBlocks(t *testing.T) {
	world := newFlatWorld(20, 0)
	for y := 21; y <= 24; y++ {
		world.blocks[vec.Vec3{X: 6, Y: y, Z: 5}] = true
	}
	eye := standingEye(world)

	c := NewController(world, DefaultParams(), mgl64.Vec3{5.5, eye, 5.5})
	c.Look(-math.Pi/2, 0)
	c.SetIntents(Intents{Forward: true})
	c.Tick(frame)

	pos := c.Position()
	assert.InDelta(t, 5.5, pos.X(), 1e-9)
	assert.InDelta(t, eye, pos.Y(), 1e-9)
}

func TestController_Jump(t *testing.T) {
	world := newFlatWorld(20, 0)
	eye := standingEye(world)
	c := NewController(world, DefaultParams(), mgl64.Vec3{0.5, eye, 0.5})

	c.Tick(frame)
	require.True(t, c.State().Grounded)
	require.InDelta(t, eye, c.Position().Y(), 1e-9)

	c.PressAscend()
	assert.Equal(t, 10.0, c.State().Velocity.Y())
	assert.False(t, c.State().Grounded)

	c.Tick(frame)
	assert.Equal(t, 10.0, c.State().Velocity.Y())
	c.Tick(frame)
	assert.InDelta(t, 9.5, c.State().Velocity.Y(), 1e-9)

	peak := c.Position().Y()
	for i := 0; i < 240; i++ {
		c.Tick(frame)
		peak = math.Max(peak, c.Position().Y())
		assert.False(t, c.Collider().Collides(c.Position(), world))
	}

	assert.Greater(t, peak, eye+1.5)
	assert.True(t, c.State().Grounded)
	assert.Zero(t, c.State().Velocity.Y())
	assert.GreaterOrEqual(t, c.Position().Y(), eye)
	assert.Less(t, c.Position().Y(), eye+0.2)
}

func TestController_Buoyancy(t *testing.T) {
	world := newFlatWorld(0, 16)
	c := NewController(world, DefaultParams(), mgl64.Vec3{0.5, 14, 0.5})
	c.SetIntents(Intents{Ascend: true})

	prev := c.Position().Y()
	for i := 0; i < 60; i++ {
		c.Tick(frame)
		y := c.Position().Y()
		assert.LessOrEqual(t, y, world.water+0.5)
		if prev < world.water-0.5 {
			assert.GreaterOrEqual(t, y, prev, "всплытие монотонно под водой")
		}
		prev = y
	}
	assert.InDelta(t, world.water+0.5, c.Position().Y(), 0.1)

	// Ещё немного времени: глаза не выходят за W+0.5
	for i := 0; i < 120; i++ {
		c.Tick(frame)
		assert.LessOrEqual(t, c.Position().Y(), world.water+0.5)
	}
}

func TestController_SinksWithoutAscend(t *testing.T) {
	world := newFlatWorld(0, 16)
	c := NewController(world, DefaultParams(), mgl64.Vec3{0.5, 14, 0.5})

	c.Tick(frame)
	assert.True(t, c.State().InWater)
	assert.Less(t, c.Position().Y(), 14.0)
	assert.Less(t, c.State().Velocity.Y(), 0.0)
}

func TestController_Flight(t *testing.T) {
	world := newFlatWorld(20, 0)
	c := NewController(world, DefaultParams(), mgl64.Vec3{0.5, 40, 0.5})

	require.True(t, c.ToggleFlight())
	c.SetIntents(Intents{Ascend: true})
	c.Tick(0.5)
	assert.InDelta(t, 52, c.Position().Y(), 1e-9)

	c.SetIntents(Intents{Run: true})
	c.Tick(0.25)
	assert.InDelta(t, 46, c.Position().Y(), 1e-9)

	c.SetIntents(Intents{Forward: true, Ascend: true})
	before := c.Position()
	c.Tick(0.1)
	assert.InDelta(t, 2.4, c.Position().Sub(before).Len(), 1e-9)

	// Без намерений наблюдатель висит на месте
	c.SetIntents(Intents{})
	before = c.Position()
	c.Tick(1)
	assert.Equal(t, before, c.Position())

	// Полёт проходит сквозь рельеф
	c.Teleport(mgl64.Vec3{0.5, 21, 0.5})
	c.SetIntents(Intents{Run: true})
	c.Tick(0.5)
	assert.InDelta(t, 9, c.Position().Y(), 1e-9)

	assert.False(t, c.ToggleFlight())
}

func TestController_PanicsOnBadDelta(t *testing.T) {
	c := NewController(newFlatWorld(0, -10), DefaultParams(), mgl64.Vec3{0, 3, 0})

	assert.Panics(t, func() { c.Tick(math.NaN()) })
	assert.Panics(t, func() { c.Tick(math.Inf(1)) })
	assert.Panics(t, func() { c.Tick(-frame) })
	assert.NotPanics(t, func() { c.Tick(0) })
}

func TestController_CollisionInvariantOnTerrain(t *testing.T) {
	field := terrain.NewField(noise.NewSource(4242, noise.KindSimplex))
	params := DefaultParams()

	spawn := mgl64.Vec3{0.5, float64(field.Height(0.5, 0.5)) + 1 + params.Height, 0.5}
	c := NewController(field, params, spawn)
	for c.Collider().Collides(c.Position(), field) {
		spawn[1]++
		c.Teleport(spawn)
	}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 900; i++ {
		if i%30 == 0 {
			c.SetIntents(Intents{
				Forward: rng.Intn(3) > 0,
				Left:    rng.Intn(4) == 0,
				Right:   rng.Intn(4) == 0,
				Run:     rng.Intn(2) == 0,
				Ascend:  rng.Intn(5) == 0,
			})
			c.Look(rng.Float64()*2-1, 0)
			if rng.Intn(3) == 0 {
				c.PressAscend()
			}
		}
		c.Tick(frame)
		require.False(t, c.Collider().Collides(c.Position(), field), "тик %d: наблюдатель внутри рельефа в %v", i, c.Position())
	}
}
