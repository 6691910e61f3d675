package ecs

import (
	"slices"

	"github.com/kamstrup/intmap"
	"go.uber.org/zap"
)

// FamilyBuilder accumulates a family criterion. It may be rebound to other
// engines to stamp out equivalent families.
type FamilyBuilder struct {
	engine  *Engine
	cached  bool
	include []ComponentKind
	exclude []ComponentKind

	includeKeys *intmap.Set[TagKey]
	excludeKeys *intmap.Set[TagKey]
}

// NewFamilyBuilder creates a builder for cached families. engine may be nil
// and bound later with ChangeEngine.
func NewFamilyBuilder(engine *Engine) *FamilyBuilder {
	return &FamilyBuilder{
		engine:      engine,
		cached:      true,
		includeKeys: intmap.NewSet[TagKey](8),
		excludeKeys: intmap.NewSet[TagKey](8),
	}
}

// Include requires matching entities to carry every kind in kinds.
func (b *FamilyBuilder) Include(kinds ...ComponentKind) *FamilyBuilder {
	for _, k := range kinds {
		b.include = appendKind(b.include, b.includeKeys, k)
	}
	return b
}

// Exclude requires matching entities to carry none of the kinds in kinds.
func (b *FamilyBuilder) Exclude(kinds ...ComponentKind) *FamilyBuilder {
	for _, k := range kinds {
		b.exclude = appendKind(b.exclude, b.excludeKeys, k)
	}
	return b
}

// appendKind appends k unless a compatible kind with the same tag is listed.
func appendKind(list []ComponentKind, keys *intmap.Set[TagKey], k ComponentKind) []ComponentKind {
	if keys.Has(k.Key()) && slices.ContainsFunc(list, func(other ComponentKind) bool {
		return other.Tag() == k.Tag() && compatible(other, k)
	}) {
		return list
	}
	keys.Add(k.Key())
	return append(list, k)
}

// ChangeEngine binds the builder to engine.
func (b *FamilyBuilder) ChangeEngine(engine *Engine) *FamilyBuilder {
	b.engine = engine
	return b
}

// SetCached selects the cached (default) or non-cached variant.
func (b *FamilyBuilder) SetCached(cached bool) *FamilyBuilder {
	b.cached = cached
	return b
}

// Build creates the family. It fails with ErrNoEngineBound if no engine was
// supplied.
func (b *FamilyBuilder) Build() (Family, error) {
	if b.engine == nil {
		return nil, ErrNoEngineBound
	}

	c := criteria{
		include: slices.Clone(b.include),
		exclude: slices.Clone(b.exclude),
	}

	b.engine.log.Debug("family built",
		zap.Bool("cached", b.cached),
		zap.Strings("include", tags(c.include)),
		zap.Strings("exclude", tags(c.exclude)),
	)

	if !b.cached {
		return &nonCachedFamily{criteria: c, engine: b.engine}, nil
	}
	f, err := newCachedFamily(b.engine, c)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func tags(kinds []ComponentKind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = k.Tag()
	}
	return out
}
