package ecs_test

import (
	"testing"

	"github.com/plus3/ecsfamily/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentRegistry(t *testing.T) {
	t.Run("register and lookup", func(t *testing.T) {
		registry := newTestRegistry()
		assert.Equal(t, len(allTestKinds), registry.Len())

		k, ok := registry.Lookup("score")
		require.True(t, ok)
		assert.Same(t, ScoreType, k)

		_, ok = registry.Lookup("missing")
		assert.False(t, ok)
	})

	t.Run("kinds sorted by tag", func(t *testing.T) {
		registry := newTestRegistry()

		var tags []string
		for _, k := range registry.Kinds() {
			tags = append(tags, k.Tag())
		}
		assert.Equal(t, []string{"Health", "Name", "PlayerController", "Position", "Velocity", "score"}, tags)
	})

	t.Run("compatible re-registration is a no-op", func(t *testing.T) {
		registry := newTestRegistry()
		require.NoError(t, registry.Register(PositionType, ecs.DefineComponent[Position]()))
		assert.Equal(t, len(allTestKinds), registry.Len())

		k, _ := registry.Lookup("Position")
		assert.Same(t, PositionType, k)
	})

	t.Run("conflict registers nothing", func(t *testing.T) {
		registry := ecs.NewComponentRegistry()
		require.NoError(t, registry.Register(TestAType))

		err := registry.Register(PositionType, TestBType)
		assert.ErrorIs(t, err, ecs.ErrTagConflict)
		assert.Equal(t, 1, registry.Len())

		_, ok := registry.Lookup("Position")
		assert.False(t, ok)
	})

	t.Run("conflict within one call", func(t *testing.T) {
		registry := ecs.NewComponentRegistry()

		err := registry.Register(TestAType, TestBType)
		assert.ErrorIs(t, err, ecs.ErrTagConflict)
		assert.Zero(t, registry.Len())
	})

	t.Run("register component", func(t *testing.T) {
		registry := ecs.NewComponentRegistry()

		ct, err := ecs.RegisterComponent[Name](registry, ecs.WithTag("label"))
		require.NoError(t, err)
		assert.Equal(t, "label", ct.Tag())

		_, err = ecs.RegisterComponent[Position](registry, ecs.WithTag("label"))
		assert.ErrorIs(t, err, ecs.ErrTagConflict)
	})

	t.Run("registries are independent", func(t *testing.T) {
		a := ecs.NewComponentRegistry()
		b := ecs.NewComponentRegistry()

		require.NoError(t, a.Register(TestAType))
		require.NoError(t, b.Register(TestBType))

		k, _ := a.Lookup("shared")
		assert.Same(t, TestAType, k)
		k, _ = b.Lookup("shared")
		assert.Same(t, TestBType, k)
	})
}

func TestWithDefaults(t *testing.T) {
	h := HealthType.NewInstance()
	assert.Equal(t, Health{Current: 100, Max: 100}, *h)

	assert.Panics(t, func() {
		ecs.DefineComponent[Position](ecs.WithDefaults(func(v *Velocity) {}))
	})
}
