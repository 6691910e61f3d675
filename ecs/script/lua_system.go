// Package script provides an ecs.System whose per-tick logic is written in
// Lua. Each LuaSystem owns its own VM, so it must only be driven from the
// goroutine that runs its engine.
//
// A script defines a global update(dt) function and talks to the engine through
// the ecs table:
//
//	ecs.count(name)        number of entities in the family bound as name
//	ecs.entity_count()     number of entities attached to the running engine
//	ecs.log(msg)           log msg at info level
//	ecs.priority()         the system's priority
//	ecs.set_priority(n)    change the priority from the next tick
package script

import (
	"errors"
	"fmt"

	"github.com/plus3/ecsfamily/ecs"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// ErrMissingUpdate is returned when a script does not define update(dt).
var ErrMissingUpdate = errors.New("script: update function not defined")

// Option configures a LuaSystem.
type Option func(*LuaSystem)

// WithLogger sets the logger receiving ecs.log output and script failures.
func WithLogger(log *zap.Logger) Option {
	return func(s *LuaSystem) {
		s.log = log
	}
}

// WithPriority sets the initial priority.
func WithPriority(priority int) Option {
	return func(s *LuaSystem) {
		s.SetPriority(priority)
	}
}

// WithFamily exposes family to the script as name.
func WithFamily(name string, family ecs.Family) Option {
	return func(s *LuaSystem) {
		s.families[name] = family
	}
}

// LuaSystem runs a Lua update function once per tick.
type LuaSystem struct {
	ecs.BaseSystem

	name     string
	vm       *lua.LState
	update   *lua.LFunction
	families map[string]ecs.Family
	engine   *ecs.Engine
	errors   int64
	log      *zap.Logger
}

// NewLuaSystem compiles source and checks that it defines update. Options are
// applied before the script's top level runs.
func NewLuaSystem(name, source string, opts ...Option) (*LuaSystem, error) {
	s := &LuaSystem{
		name:     name,
		families: make(map[string]ecs.Family),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.vm = lua.NewState()
	s.vm.SetGlobal("ecs", s.vm.SetFuncs(s.vm.NewTable(), map[string]lua.LGFunction{
		"count":        s.luaCount,
		"entity_count": s.luaEntityCount,
		"log":          s.luaLog,
		"priority":     s.luaPriority,
		"set_priority": s.luaSetPriority,
	}))

	if err := s.vm.DoString(source); err != nil {
		s.vm.Close()
		return nil, fmt.Errorf("load script %s: %w", name, err)
	}

	fn, ok := s.vm.GetGlobal("update").(*lua.LFunction)
	if !ok {
		s.vm.Close()
		return nil, fmt.Errorf("%w: %s", ErrMissingUpdate, name)
	}
	s.update = fn

	s.log.Debug("loaded lua system", zap.String("system", name))
	return s, nil
}

func (s *LuaSystem) Name() string {
	return s.name
}

// Update calls the script's update(dt). A failing call is logged and counted
// and never interrupts the tick.
func (s *LuaSystem) Update(engine *ecs.Engine, dt float64) {
	s.engine = engine
	defer func() { s.engine = nil }()

	if err := s.vm.CallByParam(lua.P{
		Fn:      s.update,
		NRet:    0,
		Protect: true,
	}, lua.LNumber(dt)); err != nil {
		s.errors++
		s.log.Warn("lua update failed", zap.String("system", s.name), zap.Int64("errors", s.errors), zap.Error(err))
	}
}

// Errors returns how many update calls failed.
func (s *LuaSystem) Errors() int64 {
	return s.errors
}

// Close releases the VM. The system must not be updated afterwards.
func (s *LuaSystem) Close() {
	s.vm.Close()
}

func (s *LuaSystem) luaCount(L *lua.LState) int {
	name := L.CheckString(1)
	family, ok := s.families[name]
	if !ok {
		L.ArgError(1, "unknown family "+name)
		return 0
	}
	entities, err := family.Entities()
	if err != nil {
		L.RaiseError("family %s: %v", name, err)
		return 0
	}
	L.Push(lua.LNumber(len(entities)))
	return 1
}

func (s *LuaSystem) luaEntityCount(L *lua.LState) int {
	if s.engine == nil {
		L.RaiseError("entity_count called outside update")
		return 0
	}
	L.Push(lua.LNumber(s.engine.EntityCount()))
	return 1
}

func (s *LuaSystem) luaLog(L *lua.LState) int {
	s.log.Info(L.CheckString(1), zap.String("system", s.name))
	return 0
}

func (s *LuaSystem) luaPriority(L *lua.LState) int {
	L.Push(lua.LNumber(s.Priority()))
	return 1
}

func (s *LuaSystem) luaSetPriority(L *lua.LState) int {
	s.SetPriority(L.CheckInt(1))
	return 0
}
