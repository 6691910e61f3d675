package ecs_test

import "github.com/plus3/ecsfamily/ecs"

// Common test component types
type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Name struct {
	Value string
}

type Health struct {
	Current int
	Max     int
}

type PlayerController struct{}

// Score declares its tag explicitly.
type Score int32

func (Score) ComponentTag() string { return "score" }

// Two unrelated types sharing a tag.
type TestA string
type TestB string

var (
	PositionType  = ecs.DefineComponent[Position]()
	VelocityType  = ecs.DefineComponent[Velocity]()
	NameType      = ecs.DefineComponent[Name]()
	HealthType    = ecs.DefineComponent[Health](ecs.WithDefaults(func(h *Health) { h.Current, h.Max = 100, 100 }))
	PlayerType    = ecs.DefineComponent[PlayerController]()
	ScoreType     = ecs.DefineComponent[Score]()
	TestAType     = ecs.DefineComponent[TestA](ecs.WithTag("shared"))
	TestBType     = ecs.DefineComponent[TestB](ecs.WithTag("shared"))
	allTestKinds  = []ecs.ComponentKind{PositionType, VelocityType, NameType, HealthType, PlayerType, ScoreType}
	criteriaKinds = []ecs.ComponentKind{PositionType, VelocityType, HealthType, PlayerType}
)

func newTestRegistry() *ecs.ComponentRegistry {
	registry := ecs.NewComponentRegistry()
	if err := registry.Register(allTestKinds...); err != nil {
		panic(err)
	}
	return registry
}

// spawn creates an entity carrying the given kinds and attaches it to engine.
func spawn(engine *ecs.Engine, kinds ...ecs.ComponentKind) *ecs.Entity {
	e := ecs.NewEntity()
	for _, k := range kinds {
		if _, err := e.PutComponent(k); err != nil {
			panic(err)
		}
	}
	engine.AddEntity(e)
	return e
}

// recorder appends every notification it receives to a shared log.
type recorder struct {
	label string
	log   *[]string
}

func (r *recorder) OnEntityChanged(e *ecs.Entity) {
	*r.log = append(*r.log, r.label+":changed")
}

func (r *recorder) OnEntityAdded(e *ecs.Entity) {
	*r.log = append(*r.log, r.label+":added")
}

func (r *recorder) OnEntityRemoved(e *ecs.Entity) {
	*r.log = append(*r.log, r.label+":removed")
}
