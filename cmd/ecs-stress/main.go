package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"github.com/plus3/ecsfamily/ecs/prefab"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	os.Exit(realMain())
}

// realMain returns the process exit code so that deferred profile and logger
// flushes run before the process exits.
func realMain() int {
	configPath := flag.String("config", "", "Optional TOML file with [run] and [logging] settings.")
	duration := flag.Duration("duration", 0, "The total duration the test should run for.")
	entityCount := flag.Int("entities", 0, "The initial number of entities to create per engine.")
	engineCount := flag.Int("engines", 0, "The number of engines to run concurrently.")
	systemCount := flag.Int("systems", 0, "The number of generated systems per engine.")
	profileMode := flag.String("profile", "", "Write a cpu or mem profile to the working directory.")
	gcPauseMetrics := flag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	// Flags given on the command line win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "duration":
			cfg.Run.Duration = *duration
		case "entities":
			cfg.Run.Entities = *entityCount
		case "engines":
			cfg.Run.Engines = *engineCount
		case "systems":
			cfg.Run.Systems = *systemCount
		case "profile":
			cfg.Run.Profile = *profileMode
		case "gc-pause-metrics":
			cfg.Run.GCMetrics = *gcPauseMetrics
		}
	})
	if err := cfg.validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer log.Sync()

	switch cfg.Run.Profile {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	}

	if err := run(cfg, log); err != nil {
		log.Error("stress test failed", zap.Error(err))
		return 1
	}
	return 0
}

func run(cfg *Config, log *zap.Logger) error {
	log.Info("starting ECS stress test",
		zap.Int("engines", cfg.Run.Engines),
		zap.Int("entities", cfg.Run.Entities),
		zap.Int("systems", cfg.Run.Systems),
		zap.Int("components", cfg.Run.Components),
	)

	kinds, registry, err := generateKinds(cfg.Run.Components)
	if err != nil {
		return err
	}

	var extra *prefab.Template
	if cfg.Run.Prefab != "" {
		if extra, err = loadTemplate(cfg.Run.Prefab); err != nil {
			return err
		}
	}

	worlds := make([]*world, cfg.Run.Engines)
	for i := range worlds {
		if worlds[i], err = newWorld(i, cfg.Run, kinds, registry, extra, log); err != nil {
			return fmt.Errorf("engine %d: %w", i, err)
		}
	}
	log.Info("population complete")

	report := &Report{
		Duration:       cfg.Run.Duration,
		Entities:       cfg.Run.Entities,
		Engines:        cfg.Run.Engines,
		Components:     cfg.Run.Components,
		Systems:        cfg.Run.Systems,
		Churn:          cfg.Run.Churn,
		Seed:           cfg.Run.Seed,
		Scripts:        cfg.Run.Scripts,
		GCPauseMetrics: cfg.Run.GCMetrics,
	}
	runtime.ReadMemStats(&report.MemStatsStart)

	log.Info("running simulation", zap.Duration("duration", cfg.Run.Duration))
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Run.Duration)
	defer cancel()

	startTime := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for _, w := range worlds {
		g.Go(func() error {
			return w.run(ctx)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	report.TotalTime = time.Since(startTime)
	runtime.ReadMemStats(&report.MemStatsEnd)
	for _, w := range worlds {
		wr := w.report(5)
		report.TotalUpdates += wr.Updates
		report.Worlds = append(report.Worlds, wr)
	}
	log.Info("simulation finished", zap.Int64("updates", report.TotalUpdates), zap.Bool("families_agreed", report.Agreed()))

	fmt.Println("\n\n--- Stress Test Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		return fmt.Errorf("generate report: %w", err)
	}
	fmt.Println("--- End of Report ---")

	if !report.Agreed() {
		return fmt.Errorf("cached families disagreed with their non-cached twins")
	}
	return nil
}

func loadTemplate(path string) (*prefab.Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open prefab %s: %w", path, err)
	}
	defer f.Close()

	var t *prefab.Template
	switch filepath.Ext(path) {
	case ".toml":
		t, err = prefab.LoadTOML(f)
	default:
		t, err = prefab.LoadYAML(f)
	}
	if err != nil {
		return nil, fmt.Errorf("parse prefab %s: %w", path, err)
	}
	return t, nil
}
