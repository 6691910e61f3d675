package ecs

import (
	"reflect"

	"github.com/cespare/xxhash/v2"
)

// TagKey is the stable integer key derived from a component tag.
// Entities store components by TagKey, families compare kinds by TagKey.
type TagKey uint64

// KeyOf returns the TagKey for the given tag.
func KeyOf(tag string) TagKey {
	return TagKey(xxhash.Sum64String(tag))
}

// Tagged can be implemented by a component type to declare an explicit tag
// instead of the one derived from its type name.
type Tagged interface {
	ComponentTag() string
}

// ComponentKind is the type-erased identity of a component type: the slot it
// occupies on an entity (its tag) and the Go type stored there.
type ComponentKind interface {
	Tag() string
	Key() TagKey
	Type() reflect.Type
	// New returns a freshly constructed default instance as a pointer.
	New() any
}

// ComponentType is the ComponentKind of components of type T.
type ComponentType[T any] struct {
	tag      string
	key      TagKey
	typ      reflect.Type
	defaults func(*T)
}

type componentConfig struct {
	tag      string
	defaults any
}

// ComponentOption configures a component type at definition time.
type ComponentOption func(*componentConfig)

// WithTag sets an explicit tag, taking precedence over Tagged and the type name.
func WithTag(tag string) ComponentOption {
	return func(c *componentConfig) {
		c.tag = tag
	}
}

// WithDefaults registers an initializer run on every freshly constructed instance.
func WithDefaults[T any](fn func(*T)) ComponentOption {
	return func(c *componentConfig) {
		c.defaults = fn
	}
}

// DefineComponent creates the ComponentType for T.
//
// The tag is resolved as: the WithTag option, else T's Tagged implementation,
// else the name of T. Two types resolving to the same tag conflict on an entity.
func DefineComponent[T any](opts ...ComponentOption) *ComponentType[T] {
	var cfg componentConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	typ := reflect.TypeFor[T]()
	tag := cfg.tag
	if tag == "" {
		tag = explicitTag[T]()
	}
	if tag == "" {
		tag = typeTag(typ)
	}

	ct := &ComponentType[T]{
		tag: tag,
		key: KeyOf(tag),
		typ: typ,
	}

	if cfg.defaults != nil {
		fn, ok := cfg.defaults.(func(*T))
		if !ok {
			panic("ecs: WithDefaults initializer does not match component type " + typ.String())
		}
		ct.defaults = fn
	}

	return ct
}

func explicitTag[T any]() string {
	var zero T
	if t, ok := any(zero).(Tagged); ok {
		return t.ComponentTag()
	}
	if t, ok := any(&zero).(Tagged); ok {
		return t.ComponentTag()
	}
	return ""
}

func typeTag(t reflect.Type) string {
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

func (c *ComponentType[T]) Tag() string        { return c.tag }
func (c *ComponentType[T]) Key() TagKey        { return c.key }
func (c *ComponentType[T]) Type() reflect.Type { return c.typ }
func (c *ComponentType[T]) String() string     { return c.tag }

// New returns a new default *T.
func (c *ComponentType[T]) New() any {
	return c.NewInstance()
}

// NewInstance is the typed form of New.
func (c *ComponentType[T]) NewInstance() *T {
	v := new(T)
	if c.defaults != nil {
		c.defaults(v)
	}
	return v
}

// compatible reports whether a and b construct the same Go type.
func compatible(a, b ComponentKind) bool {
	return a.Type() == b.Type()
}
