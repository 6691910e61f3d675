// Package ecs implements an entity-component-system runtime: entities carrying
// tagged components, an engine owning entities and systems, and families that
// enumerate the entities matching an include/exclude component criterion.
//
// Everything in an Engine runs on the calling goroutine. Listener callbacks and
// system updates may mutate the engine they are called from; the collections
// being walked are never corrupted by such mutations.
package ecs

import (
	"cmp"
	"context"
	"reflect"
	"slices"
	"time"

	"go.uber.org/zap"
)

// EngineListener observes entities joining and leaving an engine.
type EngineListener interface {
	OnEntityAdded(e *Entity)
	OnEntityRemoved(e *Entity)
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger used for lifecycle and failure messages.
func WithLogger(log *zap.Logger) EngineOption {
	return func(e *Engine) {
		e.log = log
	}
}

// Engine owns entities and systems and drives the update loop.
type Engine struct {
	entities  orderedSet[*Entity]
	listeners orderedSet[EngineListener]

	systems   []System
	attached  map[System]*systemStatsInternal
	needsSort bool
	ticks     int64
	commands  *Commands
	log       *zap.Logger
}

// NewEngine creates an empty engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		systems:  make([]System, 0),
		attached: make(map[System]*systemStatsInternal),
		commands: newCommands(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Logger returns the engine's logger.
func (e *Engine) Logger() *zap.Logger {
	return e.log
}

// Commands returns the buffer of operations applied at the end of the current
// Update.
func (e *Engine) Commands() *Commands {
	return e.commands
}

// AddEntity attaches entity and notifies every entity listener in
// registration order. Adding an attached entity is a no-op.
func (e *Engine) AddEntity(entity *Entity) {
	if !e.entities.add(entity) {
		return
	}
	e.listeners.each(func(l EngineListener) {
		l.OnEntityAdded(entity)
	})
}

// AddEntities adds each entity in turn, notifying once per entity.
func (e *Engine) AddEntities(entities ...*Entity) {
	for _, entity := range entities {
		e.AddEntity(entity)
	}
}

// RemoveEntity detaches entity and notifies every entity listener in
// registration order. Removing an absent entity is a no-op.
func (e *Engine) RemoveEntity(entity *Entity) {
	if !e.entities.remove(entity) {
		return
	}
	e.listeners.each(func(l EngineListener) {
		l.OnEntityRemoved(entity)
	})
}

// RemoveEntities removes each entity in turn, notifying once per entity.
func (e *Engine) RemoveEntities(entities ...*Entity) {
	for _, entity := range entities {
		e.RemoveEntity(entity)
	}
}

// HasEntity reports whether entity is attached.
func (e *Engine) HasEntity(entity *Entity) bool {
	return e.entities.has(entity)
}

// Entities returns a snapshot of the attached entities in insertion order.
func (e *Engine) Entities() []*Entity {
	return e.entities.values()
}

// EntityCount returns the number of attached entities.
func (e *Engine) EntityCount() int {
	return e.entities.len()
}

// AddEntityListener registers l. Adding a registered listener is a no-op.
func (e *Engine) AddEntityListener(l EngineListener) {
	e.listeners.add(l)
}

// RemoveEntityListener unregisters l. Removing an unknown listener is a no-op.
func (e *Engine) RemoveEntityListener(l EngineListener) {
	e.listeners.remove(l)
}

// AddSystem attaches s, calls s.OnAttach and schedules a re-sort of the
// system order. Adding an attached system is a no-op.
func (e *Engine) AddSystem(s System) {
	if _, ok := e.attached[s]; ok {
		return
	}

	name := systemName(s)
	e.systems = append(e.systems, s)
	e.attached[s] = &systemStatsInternal{
		name:        name,
		minDuration: time.Duration(1<<63 - 1),
	}
	e.needsSort = true
	s.OnAttach(e)

	e.log.Debug("system attached", zap.String("system", name), zap.Int("priority", s.Priority()))
}

// AddSystems adds each system in turn.
func (e *Engine) AddSystems(systems ...System) {
	for _, s := range systems {
		e.AddSystem(s)
	}
}

// RemoveSystem detaches s and calls s.OnDetach. Removing an absent system is
// a no-op.
func (e *Engine) RemoveSystem(s System) {
	stats, ok := e.attached[s]
	if !ok {
		return
	}

	delete(e.attached, s)
	if i := slices.Index(e.systems, s); i >= 0 {
		e.systems = slices.Delete(e.systems, i, i+1)
	}
	s.OnDetach(e)

	e.log.Debug("system detached", zap.String("system", stats.name))
}

// RemoveSystems removes each system in turn.
func (e *Engine) RemoveSystems(systems ...System) {
	for _, s := range systems {
		e.RemoveSystem(s)
	}
}

// HasSystem reports whether s is attached.
func (e *Engine) HasSystem(s System) bool {
	_, ok := e.attached[s]
	return ok
}

// Systems returns a snapshot of the attached systems in their current order.
func (e *Engine) Systems() []System {
	return slices.Clone(e.systems)
}

// NotifyPriorityChange marks the system order dirty. The order is recomputed
// at the start of the next Update.
func (e *Engine) NotifyPriorityChange() {
	e.needsSort = true
}

// Update runs one tick: it re-sorts systems if a priority changed or a system
// was added, runs every system in ascending priority order, then flushes the
// deferred commands.
//
// The tick walks the order computed at its start. Systems removed during the
// tick are skipped if not yet visited, systems added during the tick first run
// on the next one (including a system removed and re-added before its turn),
// and priority changes apply from the next tick.
func (e *Engine) Update(dt float64) error {
	if e.needsSort {
		e.needsSort = false
		slices.SortStableFunc(e.systems, func(a, b System) int {
			return cmp.Compare(a.Priority(), b.Priority())
		})
	}

	type scheduled struct {
		system System
		stats  *systemStatsInternal
	}
	order := make([]scheduled, len(e.systems))
	for i, s := range e.systems {
		order[i] = scheduled{system: s, stats: e.attached[s]}
	}
	for _, run := range order {
		// A system detached during this tick, or detached and attached again,
		// no longer owns the stats captured above.
		s, stats := run.system, run.stats
		if e.attached[s] != stats {
			continue
		}

		start := time.Now()
		s.Update(e, dt)
		stats.record(time.Since(start))
	}
	e.ticks++

	if err := e.commands.Flush(e); err != nil {
		e.log.Warn("deferred commands failed", zap.Int64("tick", e.ticks), zap.Error(err))
		return err
	}
	return nil
}

// Run calls Update at the given interval until ctx is cancelled. It returns
// nil on cancellation and the first Update error otherwise.
func (e *Engine) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			if err := e.Update(dt); err != nil {
				return err
			}
		}
	}
}

func systemName(s System) string {
	if n, ok := s.(Named); ok {
		return n.Name()
	}

	systemType := reflect.TypeOf(s)
	if systemType.Kind() == reflect.Ptr {
		systemType = systemType.Elem()
	}
	return systemType.Name()
}
