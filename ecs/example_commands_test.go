package ecs_test

import (
	"fmt"

	"github.com/plus3/ecsfamily/ecs"
)

// ReaperSystem removes entities whose health dropped to zero.
type ReaperSystem struct {
	ecs.BaseSystem
	mortal ecs.Family
}

func (s *ReaperSystem) OnAttach(engine *ecs.Engine) {
	s.BaseSystem.OnAttach(engine)
	family, err := ecs.NewFamilyBuilder(engine).Include(HealthType).Build()
	if err != nil {
		panic(err)
	}
	s.mortal = family
}

func (s *ReaperSystem) Update(engine *ecs.Engine, dt float64) {
	entities, err := s.mortal.Entities()
	if err != nil {
		panic(err)
	}

	dead := 0
	for _, e := range entities {
		h, _ := ecs.Get(e, HealthType)
		if h.Current <= 0 {
			engine.Commands().RemoveEntity(e)
			dead++
		}
	}
	if dead > 0 {
		fmt.Printf("Queued %d dead entities for removal\n", dead)
	}
}

// ExampleCommands demonstrates deferring engine mutations from inside a
// system. Removing entities while walking a family snapshot is safe, but
// queuing the removal keeps every system of the tick looking at the same
// world. Engine.Update flushes the queue after the last system has run.
func ExampleCommands() {
	engine := ecs.NewEngine()

	for _, hp := range []int{0, 50, 100} {
		e := ecs.NewEntity()
		h, _ := ecs.Put(e, HealthType)
		h.Current = hp
		engine.AddEntity(e)
	}

	engine.AddSystem(&ReaperSystem{})

	if err := engine.Update(1.0); err != nil {
		panic(err)
	}
	fmt.Printf("Remaining entities: %d\n", engine.EntityCount())

	// Output:
	// Queued 1 dead entities for removal
	// Remaining entities: 2
}
