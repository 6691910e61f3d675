package ecs_test

import (
	"fmt"

	"github.com/plus3/ecsfamily/ecs"
)

type Transform struct {
	X, Y float32
}

type Speed struct {
	DX, DY float32
}

var (
	TransformType = ecs.DefineComponent[Transform]()
	SpeedType     = ecs.DefineComponent[Speed]()
)

type PhysicsSystem struct {
	ecs.BaseSystem
	bodies ecs.Family
}

func (s *PhysicsSystem) OnAttach(engine *ecs.Engine) {
	s.BaseSystem.OnAttach(engine)
	s.bodies, _ = ecs.NewFamilyBuilder(engine).Include(TransformType, SpeedType).Build()
}

func (s *PhysicsSystem) Update(engine *ecs.Engine, dt float64) {
	bodies, _ := s.bodies.Entities()
	for _, e := range bodies {
		t, _ := ecs.Get(e, TransformType)
		v, _ := ecs.Get(e, SpeedType)
		t.X += v.DX * float32(dt)
		t.Y += v.DY * float32(dt)
	}
}

type ReportSystem struct {
	ecs.BaseSystem
}

func (s *ReportSystem) Update(engine *ecs.Engine, dt float64) {
	for _, e := range engine.Entities() {
		t, _ := ecs.Get(e, TransformType)
		fmt.Printf("%v at (%.0f, %.0f)\n", e, t.X, t.Y)
	}
}

// ExampleEngine builds a small loop out of two systems. Lower priorities run
// first, so the report always sees positions after physics has moved them.
func ExampleEngine() {
	engine := ecs.NewEngine()

	moving := ecs.NewEntity()
	_ = moving.SetID("ball")
	t, _ := ecs.Put(moving, TransformType)
	t.X, t.Y = 0, 0
	v, _ := ecs.Put(moving, SpeedType)
	v.DX, v.DY = 10, 5
	engine.AddEntity(moving)

	still := ecs.NewEntity()
	_ = still.SetID("wall")
	t, _ = ecs.Put(still, TransformType)
	t.X, t.Y = 100, 100
	engine.AddEntity(still)

	report := &ReportSystem{}
	report.SetPriority(10)
	engine.AddSystems(report, &PhysicsSystem{})

	_ = engine.Update(1.0)
	_ = engine.Update(1.0)

	// Output:
	// Entity(ball) at (10, 5)
	// Entity(wall) at (100, 100)
	// Entity(ball) at (20, 10)
	// Entity(wall) at (100, 100)
}
