package ecs

// System is a unit of per-tick logic. Engines run their systems in ascending
// priority order; lower priorities run first.
//
// Concrete systems usually embed BaseSystem and implement Update. A system
// that overrides OnAttach to build its families must call BaseSystem.OnAttach.
type System interface {
	Update(engine *Engine, dt float64)
	Priority() int
	SetPriority(priority int)
	OnAttach(engine *Engine)
	OnDetach(engine *Engine)
	Engines() []*Engine
}

// Named can be implemented by a system to label it in engine stats.
type Named interface {
	Name() string
}

// BaseSystem implements the priority and engine bookkeeping of System.
type BaseSystem struct {
	priority int
	engines  []*Engine
}

func (s *BaseSystem) Priority() int {
	return s.priority
}

// SetPriority changes the priority and marks the order of every attached
// engine dirty. The new order applies from the engine's next Update.
func (s *BaseSystem) SetPriority(priority int) {
	s.priority = priority
	for _, engine := range s.engines {
		engine.NotifyPriorityChange()
	}
}

func (s *BaseSystem) OnAttach(engine *Engine) {
	for _, e := range s.engines {
		if e == engine {
			return
		}
	}
	s.engines = append(s.engines, engine)
}

func (s *BaseSystem) OnDetach(engine *Engine) {
	for i, e := range s.engines {
		if e == engine {
			s.engines = append(s.engines[:i], s.engines[i+1:]...)
			return
		}
	}
}

// Engines returns a snapshot of the engines the system is attached to.
func (s *BaseSystem) Engines() []*Engine {
	out := make([]*Engine, len(s.engines))
	copy(out, s.engines)
	return out
}

// FuncSystem adapts a function into a System.
type FuncSystem struct {
	BaseSystem
	name string
	fn   func(engine *Engine, dt float64)
}

// NewFuncSystem creates a system that calls fn on every update.
func NewFuncSystem(name string, priority int, fn func(engine *Engine, dt float64)) *FuncSystem {
	s := &FuncSystem{name: name, fn: fn}
	s.priority = priority
	return s
}

func (s *FuncSystem) Update(engine *Engine, dt float64) {
	s.fn(engine, dt)
}

func (s *FuncSystem) Name() string {
	return s.name
}
