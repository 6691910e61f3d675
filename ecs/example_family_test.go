package ecs_test

import (
	"fmt"

	"github.com/plus3/ecsfamily/ecs"
)

// ExampleFamilyBuilder selects the entities that move but are not player
// controlled. A cached family keeps its member list up to date from engine
// and entity notifications; a non-cached one filters on every read. Both
// always return the same entities.
func ExampleFamilyBuilder() {
	engine := ecs.NewEngine()

	for i := range 3 {
		e := ecs.NewEntity()
		_ = e.SetID(i)
		_, _ = ecs.Put(e, PositionType)
		_, _ = ecs.Put(e, VelocityType)
		engine.AddEntity(e)
	}

	player := engine.Entities()[0]
	_, _ = ecs.Put(player, PlayerType)

	movers, err := ecs.NewFamilyBuilder(engine).
		Include(PositionType, VelocityType).
		Exclude(PlayerType).
		Build()
	if err != nil {
		panic(err)
	}

	entities, _ := movers.Entities()
	fmt.Println("movers:", entities)

	_ = player.RemoveComponent(PlayerType)
	entities, _ = movers.Entities()
	fmt.Println("after release:", len(entities))

	// Output:
	// movers: [Entity(1) Entity(2)]
	// after release: 3
}

// ExampleEntity_OnChange shows that listeners hear about component puts and
// removals but not about in-place field updates.
func ExampleEntity_OnChange() {
	e := ecs.NewEntity()
	_ = e.SetID("crate")

	handle := e.OnChange(func(changed *ecs.Entity) {
		fmt.Println("changed:", changed, "components:", changed.ComponentCount())
	})

	pos, _ := ecs.Put(e, PositionType)
	pos.X = 10
	_ = ecs.Remove(e, PositionType)

	e.RemoveListener(handle)
	_, _ = ecs.Put(e, NameType)

	// Output:
	// changed: Entity(crate) components: 1
	// changed: Entity(crate) components: 0
}
