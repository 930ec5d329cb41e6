// Package physics реализует кинематический контроллер наблюдателя:
// ходьба, прыжок, плавание, подъём на ступени и свободный полёт.
package physics

import (
	"fmt"
	"math"

	"github.com/annel0/voxel-world/internal/logging"
	"github.com/go-gl/mathgl/mgl64"
)

// Params — физические константы наблюдателя
type Params struct {
	WalkSpeed          float64 `yaml:"walk_speed"`
	RunSpeed           float64 `yaml:"run_speed"`
	LookSpeed          float64 `yaml:"look_speed"`
	Height             float64 `yaml:"height"`
	Radius             float64 `yaml:"radius"`
	Padding            float64 `yaml:"padding"`
	Gravity            float64 `yaml:"gravity"`
	JumpForce          float64 `yaml:"jump_force"`
	GroundTolerance    float64 `yaml:"ground_tolerance"`
	BuoyancyFactor     float64 `yaml:"buoyancy_factor"`      // доля |g| при всплытии
	WaterDrag          float64 `yaml:"water_drag"`           // множитель скорости за тик в воде
	WaterGravityFactor float64 `yaml:"water_gravity_factor"` // доля g в воде без всплытия
	StepHeight         float64 `yaml:"step_height"`
	StepCount          int     `yaml:"step_count"`
	SnapStep           float64 `yaml:"snap_step"`
}

// DefaultParams возвращает константы по умолчанию
func DefaultParams() Params {
	return Params{
		WalkSpeed:          24,
		RunSpeed:           40,
		LookSpeed:          1,
		Height:             2,
		Radius:             0.3,
		Padding:            0.1,
		Gravity:            -30,
		JumpForce:          10,
		GroundTolerance:    0.1,
		BuoyancyFactor:     1.2,
		WaterDrag:          0.9,
		WaterGravityFactor: 0.3,
		StepHeight:         1.0,
		StepCount:          4,
		SnapStep:           0.1,
	}
}

// Intents — удерживаемые намерения ввода
type Intents struct {
	Forward bool
	Back    bool
	Left    bool
	Right   bool
	Run     bool // в полёте — снижение
	Ascend  bool // в полёте — подъём, в воде — всплытие
}

// State — состояние наблюдателя. Моделируется только вертикальная скорость;
// горизонтальное смещение применяется целиком за тик.
type State struct {
	Position      mgl64.Vec3
	Velocity      mgl64.Vec3
	Yaw           float64
	Pitch         float64
	Grounded      bool
	Flying        bool
	Running       bool
	InWater       bool
	HoldingAscend bool
}

// Controller продвигает наблюдателя по миру. Не потокобезопасен.
type Controller struct {
	params   Params
	world    VoxelQuery
	collider BoxCollider
	intents  Intents
	state    State
	log      *logging.Logger
}

// NewController создаёт контроллер с глазами в точке spawn
func NewController(world VoxelQuery, params Params, spawn mgl64.Vec3) *Controller {
	if params.StepCount <= 0 || params.SnapStep <= 0 {
		panic(fmt.Sprintf("physics: некорректные параметры подъёма (%d, %v)", params.StepCount, params.SnapStep))
	}
	return &Controller{
		params:   params,
		world:    world,
		collider: NewBoxCollider(params.Radius, params.Padding, params.Height),
		state:    State{Position: spawn},
		log:      logging.For(logging.ComponentPhysics),
	}
}

// Params возвращает константы контроллера
func (c *Controller) Params() Params { return c.params }

// Collider возвращает коллайдер наблюдателя
func (c *Controller) Collider() BoxCollider { return c.collider }

// State возвращает копию состояния
func (c *Controller) State() State { return c.state }

// Position возвращает позицию глаз
func (c *Controller) Position() mgl64.Vec3 { return c.state.Position }

// Teleport переносит наблюдателя и сбрасывает скорость
func (c *Controller) Teleport(pos mgl64.Vec3) {
	c.state.Position = pos
	c.state.Velocity = mgl64.Vec3{}
	c.state.Grounded = false
}

// SetIntents заменяет удерживаемые намерения
func (c *Controller) SetIntents(in Intents) { c.intents = in }

// Intents возвращает текущие намерения
func (c *Controller) Intents() Intents { return c.intents }

// Look поворачивает взгляд; тангаж ограничен [−π/2, π/2], рыскание не ограничено
func (c *Controller) Look(dYaw, dPitch float64) {
	c.state.Yaw += dYaw * c.params.LookSpeed
	c.state.Pitch = mgl64.Clamp(c.state.Pitch+dPitch*c.params.LookSpeed, -math.Pi/2, math.Pi/2)
}

// PressAscend обрабатывает нажатие подъёма: в воде — рывок вверх,
// на земле — прыжок. В полёте подъём задаётся удержанием Intents.Ascend.
func (c *Controller) PressAscend() {
	s := &c.state
	if s.Flying {
		return
	}
	if s.Position.Y() < c.world.WaterLevel()+0.5 {
		s.Velocity[1] = c.params.JumpForce * 0.5
	} else if s.Grounded {
		s.Velocity[1] = c.params.JumpForce
		s.Grounded = false
	}
}

// ToggleFlight переключает режим полёта и возвращает новое значение
func (c *Controller) ToggleFlight() bool {
	c.state.Flying = !c.state.Flying
	c.state.Velocity = mgl64.Vec3{}
	if c.state.Flying {
		c.log.Info("Режим полёта: ВКЛ")
	} else {
		c.log.Info("Режим полёта: ВЫКЛ")
	}
	return c.state.Flying
}

// Forward возвращает горизонтальное направление взгляда
func (c *Controller) Forward() mgl64.Vec3 {
	return mgl64.Vec3{-math.Sin(c.state.Yaw), 0, -math.Cos(c.state.Yaw)}
}

// Right возвращает направление вправо от взгляда
func (c *Controller) Right() mgl64.Vec3 {
	return mgl64.Vec3{math.Cos(c.state.Yaw), 0, -math.Sin(c.state.Yaw)}
}

// Tick продвигает наблюдателя на dt секунд. dt должен быть конечным и неотрицательным.
func (c *Controller) Tick(dt float64) {
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt < 0 {
		panic(fmt.Sprintf("physics: недопустимый шаг времени %v", dt))
	}

	s := &c.state
	if s.Flying {
		c.fly(dt)
		return
	}

	water := c.world.WaterLevel()
	s.Running = c.intents.Run
	s.HoldingAscend = c.intents.Ascend
	s.InWater = s.Position.Y() < water+0.5
	s.Grounded = c.collider.OnGround(s.Position, c.params.Radius, c.params.GroundTolerance, c.world)

	c.moveHorizontal(dt)

	vy := s.Velocity.Y()
	if s.InWater {
		if s.HoldingAscend {
			vy += -c.params.Gravity * c.params.BuoyancyFactor * dt
		} else {
			vy += c.params.Gravity * c.params.WaterGravityFactor * dt
		}
		vy *= c.params.WaterDrag
	} else if !s.Grounded {
		vy += c.params.Gravity * dt
	}

	before := s.Position.Y()
	y := before + vy*dt

	// Всплытие держит глаза в полосе [W−0.5, W+0.5]; снизу полоса не тянет,
	// а только не даёт опуститься ниже уже достигнутого уровня.
	if s.InWater && s.HoldingAscend {
		if y > water+0.5 {
			y = water + 0.5
			if vy > 0 {
				vy = 0
			}
		}
		if floor := math.Min(before, water-0.5); y < floor {
			y = floor
		}
	}

	candidate := mgl64.Vec3{s.Position.X(), y, s.Position.Z()}
	if c.collider.Collides(candidate, c.world) {
		if y <= before {
			s.Grounded = true
		}
		y = before
		vy = 0
	}
	s.Position[1] = y

	if s.Grounded && vy < 0 {
		vy = 0
	}
	s.Velocity = mgl64.Vec3{0, vy, 0}
}

// moveHorizontal применяет горизонтальное смещение с подъёмом на ступень
func (c *Controller) moveHorizontal(dt float64) {
	s := &c.state

	var dir mgl64.Vec3
	if c.intents.Forward {
		dir = dir.Add(c.Forward())
	}
	if c.intents.Back {
		dir = dir.Sub(c.Forward())
	}
	if c.intents.Left {
		dir = dir.Sub(c.Right())
	}
	if c.intents.Right {
		dir = dir.Add(c.Right())
	}
	if dir.LenSqr() == 0 {
		return
	}

	speed := c.params.WalkSpeed
	if s.Running {
		speed = c.params.RunSpeed
	}
	move := dir.Normalize().Mul(speed * dt)
	if s.InWater {
		move = move.Mul(0.5)
	}

	origin := s.Position
	target := origin.Add(move)
	if c.collider.Collides(target, c.world) {
		stepped, ok := c.stepUp(origin, move)
		if !ok {
			return
		}
		target = stepped
	}
	s.Position = target
}

// stepUp пытается взобраться на препятствие: сначала на полную высоту
// ступени, затем на StepCount равных долей. Найдя свободную позицию,
// опускается шагами SnapStep до последней свободной.
func (c *Controller) stepUp(origin, move mgl64.Vec3) (mgl64.Vec3, bool) {
	try := func(lift float64) (mgl64.Vec3, bool) {
		p := origin.Add(move)
		p[1] = origin.Y() + lift
		if c.collider.Collides(p, c.world) {
			return origin, false
		}
		for {
			next := p
			next[1] -= c.params.SnapStep
			if next.Y() < origin.Y() || c.collider.Collides(next, c.world) {
				return p, true
			}
			p = next
		}
	}

	if p, ok := try(c.params.StepHeight); ok {
		return p, true
	}
	sub := c.params.StepHeight / float64(c.params.StepCount)
	for i := 1; i <= c.params.StepCount; i++ {
		if p, ok := try(sub * float64(i)); ok {
			return p, true
		}
	}
	return origin, false
}

// fly двигает наблюдателя без гравитации и столкновений
func (c *Controller) fly(dt float64) {
	var dir mgl64.Vec3
	if c.intents.Forward {
		dir = dir.Add(c.Forward())
	}
	if c.intents.Back {
		dir = dir.Sub(c.Forward())
	}
	if c.intents.Left {
		dir = dir.Sub(c.Right())
	}
	if c.intents.Right {
		dir = dir.Add(c.Right())
	}
	if c.intents.Ascend {
		dir[1]++
	}
	if c.intents.Run {
		dir[1]--
	}
	if dir.LenSqr() == 0 {
		return
	}
	c.state.Position = c.state.Position.Add(dir.Normalize().Mul(c.params.WalkSpeed * dt))
}
