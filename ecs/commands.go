package ecs

import (
	"errors"
	"fmt"
)

// Commands buffers engine and entity operations so that a system can request
// them during its update and have them applied once every system of the tick
// has run. Engine.Update flushes its buffer at the end of the tick.
type Commands struct {
	adds    []*Entity
	deletes []*Entity
	puts    []putComponentCommand
	removes []removeComponentCommand
	defers  []func()
}

func newCommands() *Commands {
	return &Commands{}
}

type putComponentCommand struct {
	entity *Entity
	kind   ComponentKind
	init   func(component any)
}

type removeComponentCommand struct {
	entity *Entity
	kind   ComponentKind
}

// Defer queues a function to run after every other buffered operation.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// AddEntity queues attaching entity to the engine.
func (c *Commands) AddEntity(entity *Entity) {
	c.adds = append(c.adds, entity)
}

// RemoveEntity queues detaching entity from the engine.
func (c *Commands) RemoveEntity(entity *Entity) {
	c.deletes = append(c.deletes, entity)
}

// PutComponent queues putting a fresh component of kind k on entity. init,
// if not nil, receives the new instance.
func (c *Commands) PutComponent(entity *Entity, k ComponentKind, init func(component any)) {
	c.puts = append(c.puts, putComponentCommand{
		entity: entity,
		kind:   k,
		init:   init,
	})
}

// RemoveComponent queues removing the component of kind k from entity.
func (c *Commands) RemoveComponent(entity *Entity, k ComponentKind) {
	c.removes = append(c.removes, removeComponentCommand{
		entity: entity,
		kind:   k,
	})
}

// Len returns the number of buffered operations.
func (c *Commands) Len() int {
	return len(c.adds) + len(c.deletes) + len(c.puts) + len(c.removes) + len(c.defers)
}

// PutDeferred is the typed form of Commands.PutComponent.
func PutDeferred[T any](c *Commands, entity *Entity, ct *ComponentType[T], init func(*T)) {
	var fn func(any)
	if init != nil {
		fn = func(v any) { init(v.(*T)) }
	}
	c.PutComponent(entity, ct, fn)
}

// Flush applies the buffered operations to engine and resets the buffer.
//
// Entity removals run first, then component removals and puts (skipping
// entities removed by this flush), then entity additions and finally deferred
// functions. Operations queued while flushing wait for the next flush. Failed
// component operations do not stop the flush; their errors are joined.
func (c *Commands) Flush(engine *Engine) error {
	adds, deletes, puts, removes, defers := c.adds, c.deletes, c.puts, c.removes, c.defers
	c.adds, c.deletes, c.puts, c.removes, c.defers = nil, nil, nil, nil, nil

	deletedEntities := make(map[*Entity]bool, len(deletes))
	for _, entity := range deletes {
		engine.RemoveEntity(entity)
		deletedEntities[entity] = true
	}

	var errs []error
	for _, cmd := range removes {
		if deletedEntities[cmd.entity] {
			continue
		}
		if err := cmd.entity.RemoveComponent(cmd.kind); err != nil {
			errs = append(errs, fmt.Errorf("remove %q: %w", cmd.kind.Tag(), err))
		}
	}

	for _, cmd := range puts {
		if deletedEntities[cmd.entity] {
			continue
		}
		v, err := cmd.entity.PutComponent(cmd.kind)
		if err != nil {
			errs = append(errs, fmt.Errorf("put %q: %w", cmd.kind.Tag(), err))
			continue
		}
		if cmd.init != nil {
			cmd.init(v)
		}
	}

	for _, entity := range adds {
		engine.AddEntity(entity)
	}

	for _, fn := range defers {
		fn()
	}

	return errors.Join(errs...)
}
