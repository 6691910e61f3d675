package ecs_test

import (
	"context"
	"testing"
	"time"

	"github.com/plus3/ecsfamily/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestEngineEntities(t *testing.T) {
	t.Run("add and remove are idempotent", func(t *testing.T) {
		engine := ecs.NewEngine()
		var log []string
		engine.AddEntityListener(&recorder{label: "l", log: &log})

		e := ecs.NewEntity()
		engine.AddEntity(e)
		engine.AddEntity(e)
		assert.True(t, engine.HasEntity(e))
		assert.Equal(t, 1, engine.EntityCount())

		engine.RemoveEntity(e)
		engine.RemoveEntity(e)
		assert.False(t, engine.HasEntity(e))
		assert.Zero(t, engine.EntityCount())

		assert.Equal(t, []string{"l:added", "l:removed"}, log)
	})

	t.Run("insertion order", func(t *testing.T) {
		engine := ecs.NewEngine()
		a, b, c := ecs.NewEntity(), ecs.NewEntity(), ecs.NewEntity()
		engine.AddEntities(a, b, c)
		engine.RemoveEntity(b)
		engine.AddEntity(b)

		assert.Equal(t, []*ecs.Entity{a, c, b}, engine.Entities())
	})

	t.Run("bulk operations notify per entity", func(t *testing.T) {
		engine := ecs.NewEngine()
		var log []string
		engine.AddEntityListener(&recorder{label: "l", log: &log})

		a, b := ecs.NewEntity(), ecs.NewEntity()
		engine.AddEntities(a, b)
		engine.RemoveEntities(a, b)

		assert.Equal(t, []string{"l:added", "l:added", "l:removed", "l:removed"}, log)
	})

	t.Run("entities snapshot is a copy", func(t *testing.T) {
		engine := ecs.NewEngine()
		e := spawn(engine)

		snapshot := engine.Entities()
		snapshot[0] = nil
		engine.RemoveEntity(e)

		assert.Nil(t, snapshot[0])
		assert.Empty(t, engine.Entities())
	})
}

func TestEngineListeners(t *testing.T) {
	t.Run("registration order", func(t *testing.T) {
		engine := ecs.NewEngine()
		var log []string
		first := &recorder{label: "first", log: &log}
		second := &recorder{label: "second", log: &log}

		engine.AddEntityListener(first)
		engine.AddEntityListener(second)
		engine.AddEntityListener(first)

		e := spawn(engine)
		engine.RemoveEntity(e)

		assert.Equal(t, []string{"first:added", "second:added", "first:removed", "second:removed"}, log)
	})

	t.Run("removed listener is not notified", func(t *testing.T) {
		engine := ecs.NewEngine()
		var log []string
		l := &recorder{label: "l", log: &log}

		engine.AddEntityListener(l)
		engine.RemoveEntityListener(l)
		engine.RemoveEntityListener(l)
		spawn(engine)

		assert.Empty(t, log)
	})

	t.Run("listener removing another mid-notification", func(t *testing.T) {
		engine := ecs.NewEngine()
		var log []string
		second := &recorder{label: "second", log: &log}
		engine.AddEntityListener(&selfRemovingListener{engine: engine, victim: second, log: &log})
		engine.AddEntityListener(second)

		spawn(engine)
		assert.Equal(t, []string{"remover:added"}, log)
	})

	t.Run("listener removing the entity mid-notification", func(t *testing.T) {
		engine := ecs.NewEngine()
		var log []string
		engine.AddEntityListener(&evictingListener{engine: engine})
		engine.AddEntityListener(&recorder{label: "l", log: &log})

		e := spawn(engine)
		assert.False(t, engine.HasEntity(e))
		assert.Equal(t, []string{"l:removed", "l:added"}, log)
	})
}

type selfRemovingListener struct {
	engine *ecs.Engine
	victim ecs.EngineListener
	log    *[]string
}

func (l *selfRemovingListener) OnEntityAdded(e *ecs.Entity) {
	*l.log = append(*l.log, "remover:added")
	l.engine.RemoveEntityListener(l.victim)
}

func (l *selfRemovingListener) OnEntityRemoved(e *ecs.Entity) {}

// evictingListener removes every entity as soon as it is added.
type evictingListener struct {
	engine *ecs.Engine
}

func (l *evictingListener) OnEntityAdded(e *ecs.Entity)   { l.engine.RemoveEntity(e) }
func (l *evictingListener) OnEntityRemoved(e *ecs.Entity) {}

func TestEngineLogging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	engine := ecs.NewEngine(ecs.WithLogger(zap.New(core)))
	assert.NotNil(t, engine.Logger())

	s := ecs.NewFuncSystem("tick", 0, func(*ecs.Engine, float64) {})
	engine.AddSystem(s)
	engine.RemoveSystem(s)

	attached := logs.FilterMessage("system attached").All()
	require.Len(t, attached, 1)
	assert.Equal(t, "tick", attached[0].ContextMap()["system"])
	assert.Equal(t, 1, logs.FilterMessage("system detached").Len())
}

func TestEngineRun(t *testing.T) {
	engine := ecs.NewEngine()
	ticks := 0
	engine.AddSystem(ecs.NewFuncSystem("count", 0, func(_ *ecs.Engine, dt float64) {
		assert.Greater(t, dt, 0.0)
		ticks++
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, engine.Run(ctx, time.Millisecond))
	assert.Positive(t, ticks)
	assert.Equal(t, int64(ticks), engine.Stats().Ticks)
}

func TestEngineRunStopsOnError(t *testing.T) {
	engine := ecs.NewEngine()
	e := spawn(engine)
	engine.AddSystem(ecs.NewFuncSystem("bad", 0, func(engine *ecs.Engine, _ float64) {
		engine.Commands().RemoveComponent(e, PositionType)
	}))

	err := engine.Run(context.Background(), time.Millisecond)
	assert.ErrorIs(t, err, ecs.ErrComponentNotFound)
}
