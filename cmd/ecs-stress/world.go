package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/plus3/ecsfamily/ecs"
	"github.com/plus3/ecsfamily/ecs/prefab"
	"github.com/plus3/ecsfamily/ecs/script"
	"go.uber.org/zap"
)

// Gauge is the payload of every generated component kind. Kinds differ only by
// tag, which is all families look at.
type Gauge struct {
	Value  float64
	Writes int
}

func generateKinds(n int) ([]*ecs.ComponentType[Gauge], *ecs.ComponentRegistry, error) {
	registry := ecs.NewComponentRegistry()
	kinds := make([]*ecs.ComponentType[Gauge], n)
	for i := range kinds {
		kind, err := ecs.RegisterComponent[Gauge](registry, ecs.WithTag(fmt.Sprintf("gauge%03d", i)))
		if err != nil {
			return nil, nil, err
		}
		kinds[i] = kind
	}
	return kinds, registry, nil
}

const censusScript = `
local elapsed = 0
local reports = 0

function update(dt)
	elapsed = elapsed + dt
	if elapsed >= 1 then
		elapsed = 0
		reports = reports + 1
		ecs.log("census " .. reports .. ": " .. ecs.count("watched") .. "/" .. ecs.entity_count() .. " entities watched")
	end
end
`

// familyCheck pairs a cached family with a non-cached twin built from the
// same criterion.
type familyCheck struct {
	cached ecs.Family
	plain  ecs.Family
}

// world is one engine plus everything needed to drive and audit it. It is
// owned by a single goroutine.
type world struct {
	id       int
	cfg      RunConfig
	engine   *ecs.Engine
	kinds    []*ecs.ComponentType[Gauge]
	registry *ecs.ComponentRegistry
	rng      *rand.Rand
	log      *zap.Logger

	checks   []familyCheck
	mutators []*mutatorSystem
	census   *script.LuaSystem

	updates       int64
	samples       Stats
	mismatches    int64
	commandErrors int64
}

func newWorld(id int, cfg RunConfig, kinds []*ecs.ComponentType[Gauge], registry *ecs.ComponentRegistry, extra *prefab.Template, log *zap.Logger) (*world, error) {
	log = log.With(zap.Int("engine", id))
	w := &world{
		id:       id,
		cfg:      cfg,
		engine:   ecs.NewEngine(ecs.WithLogger(log)),
		kinds:    kinds,
		registry: registry,
		rng:      rand.New(rand.NewPCG(cfg.Seed, uint64(id))),
		log:      log,
	}

	if _, err := w.population().Spawn(w.engine, registry); err != nil {
		return nil, fmt.Errorf("spawn population: %w", err)
	}
	if extra != nil {
		if _, err := extra.Spawn(w.engine, registry); err != nil {
			return nil, fmt.Errorf("spawn prefab %q: %w", extra.Name, err)
		}
	}

	for i := range cfg.Systems {
		if err := w.addMutator(i); err != nil {
			return nil, fmt.Errorf("system %d: %w", i, err)
		}
	}

	if cfg.Scripts && len(w.checks) > 0 {
		census, err := script.NewLuaSystem("census", censusScript,
			script.WithLogger(log),
			script.WithPriority(math.MaxInt-1),
			script.WithFamily("watched", w.checks[0].cached),
		)
		if err != nil {
			return nil, err
		}
		w.census = census
		w.engine.AddSystem(census)
	}

	w.engine.AddSystem(ecs.NewFuncSystem("audit", math.MaxInt, w.audit))
	return w, nil
}

// population describes the initial entities: each carries one to five
// distinct generated components.
func (w *world) population() *prefab.Template {
	t := &prefab.Template{
		Name:     "population",
		Entities: make([]prefab.EntitySpec, w.cfg.Entities),
	}
	for i := range t.Entities {
		n := w.rng.IntN(5) + 1
		picked := w.rng.Perm(len(w.kinds))[:n]
		spec := prefab.EntitySpec{ID: i}
		for _, k := range picked {
			spec.Components = append(spec.Components, prefab.ComponentSpec{Tag: w.kinds[k].Tag()})
		}
		t.Entities[i] = spec
	}
	return t
}

// randomKinds returns up to n distinct kinds not in skip.
func (w *world) randomKinds(n int, skip ...ecs.ComponentKind) []ecs.ComponentKind {
	var out []ecs.ComponentKind
	for _, i := range w.rng.Perm(len(w.kinds)) {
		if len(out) == n {
			break
		}
		k := w.kinds[i]
		taken := false
		for _, s := range skip {
			if s.Tag() == k.Tag() {
				taken = true
				break
			}
		}
		if !taken {
			out = append(out, k)
		}
	}
	return out
}

func (w *world) addMutator(i int) error {
	include := w.randomKinds(w.rng.IntN(2) + 1)
	exclude := w.randomKinds(w.rng.IntN(2), include...)

	builder := ecs.NewFamilyBuilder(w.engine).Include(include...).Exclude(exclude...)
	cached, err := builder.SetCached(true).Build()
	if err != nil {
		return err
	}
	plain, err := builder.SetCached(false).Build()
	if err != nil {
		return err
	}
	w.checks = append(w.checks, familyCheck{cached: cached, plain: plain})

	// Half of the systems read the cached family, half the non-cached one.
	family := cached
	if i%2 == 1 {
		family = plain
	}

	s := &mutatorSystem{
		name:    fmt.Sprintf("mutator%03d", i),
		world:   w,
		family:  family,
		include: include,
	}
	s.SetPriority(w.rng.IntN(100))
	w.mutators = append(w.mutators, s)
	w.engine.AddSystem(s)
	return nil
}

// audit runs last in every tick and checks that each cached family agrees
// with its non-cached twin.
func (w *world) audit(engine *ecs.Engine, dt float64) {
	for i, c := range w.checks {
		fromCache, err := c.cached.Entities()
		if err != nil {
			w.log.Error("cached family read failed", zap.Int("family", i), zap.Error(err))
			w.mismatches++
			continue
		}
		fromFilter, err := c.plain.Entities()
		if err != nil {
			w.log.Error("family read failed", zap.Int("family", i), zap.Error(err))
			w.mismatches++
			continue
		}
		if !sameMembers(fromCache, fromFilter) {
			w.log.Warn("family disagreement", zap.Int("family", i), zap.Int("cached", len(fromCache)), zap.Int("filtered", len(fromFilter)))
			w.mismatches++
		}
	}
}

func sameMembers(a, b []*ecs.Entity) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[*ecs.Entity]struct{}, len(a))
	for _, e := range a {
		seen[e] = struct{}{}
	}
	for _, e := range b {
		if _, ok := seen[e]; !ok {
			return false
		}
	}
	return true
}

// run updates the engine as fast as possible until ctx is done.
func (w *world) run(ctx context.Context) error {
	defer func() {
		if w.census != nil {
			w.census.Close()
		}
	}()

	lastFrameTime := time.Now()
	for {
		select {
		case <-ctx.Done():
			w.samples.Finalize()
			return nil
		default:
		}

		deltaTime := time.Since(lastFrameTime)
		lastFrameTime = time.Now()

		updateStart := time.Now()
		err := w.engine.Update(deltaTime.Seconds())
		w.samples.Samples = append(w.samples.Samples, time.Since(updateStart))
		w.updates++

		if err != nil {
			if errors.Is(err, ecs.ErrTagConflict) {
				return fmt.Errorf("engine %d: %w", w.id, err)
			}
			w.commandErrors++
			w.log.Debug("deferred commands failed", zap.Error(err))
		}
	}
}

// mutatorSystem bumps the gauges of its family and, now and then, queues a
// structural change: a component put or removal, an entity clone or an
// entity removal.
type mutatorSystem struct {
	ecs.BaseSystem
	name     string
	world    *world
	family   ecs.Family
	include  []ecs.ComponentKind
	failures int64
}

func (s *mutatorSystem) Name() string {
	return s.name
}

func (s *mutatorSystem) Update(engine *ecs.Engine, dt float64) {
	entities, err := s.family.Entities()
	if err != nil {
		s.failures++
		return
	}

	for _, e := range entities {
		for _, k := range s.include {
			v, err := e.GetComponent(k)
			if err != nil {
				s.failures++
				continue
			}
			g := v.(*Gauge)
			g.Value += dt
			g.Writes++
		}
	}

	rng := s.world.rng
	if len(entities) == 0 || rng.Float64() >= s.world.cfg.Churn {
		return
	}

	target := entities[rng.IntN(len(entities))]
	kind := s.world.kinds[rng.IntN(len(s.world.kinds))]
	cmds := engine.Commands()

	switch rng.IntN(4) {
	case 0:
		ecs.PutDeferred(cmds, target, kind, func(g *Gauge) { g.Value = rng.Float64() })
	case 1:
		if has, _ := target.HasComponent(kind); has {
			cmds.RemoveComponent(target, kind)
		}
	case 2:
		clone, err := prefab.Clone(target, s.world.registry)
		if err != nil {
			s.failures++
			return
		}
		cmds.AddEntity(clone)
	case 3:
		if engine.EntityCount() > s.world.cfg.Entities/2 {
			cmds.RemoveEntity(target)
		}
	}
}
