package main

import (
	"github.com/annel0/voxel-world/internal/physics"
	"github.com/annel0/voxel-world/internal/sim"
)

// pilot ведёт наблюдателя вперёд, медленно поворачивая и периодически прыгая
type pilot struct {
	lastJump float64
}

func newPilot() *pilot {
	return &pilot{}
}

const (
	pilotTurnRate    = 0.05 // рад за тик
	pilotTurnEvery   = 7.0  // секунд между поворотами
	pilotJumpEvery   = 1.5  // секунд между прыжками
	pilotTurnSeconds = 1.0
)

func (p *pilot) steer(session *sim.Session, t float64) {
	session.SetIntents(physics.Intents{Forward: true, Run: true, Ascend: true})

	// Поворачиваем в течение первой секунды каждого периода
	if phase := t - pilotTurnEvery*float64(int(t/pilotTurnEvery)); phase < pilotTurnSeconds {
		session.Look(pilotTurnRate, 0)
	}
	if t-p.lastJump >= pilotJumpEvery {
		session.PressAscend()
		p.lastJump = t
	}
}
