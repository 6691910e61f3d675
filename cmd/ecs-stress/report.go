package main

import (
	"cmp"
	"fmt"
	"io"
	"runtime"
	"slices"
	"text/template"
	"time"

	"github.com/plus3/ecsfamily/ecs"
)

type Report struct {
	// Configuration
	Duration   time.Duration
	Entities   int
	Engines    int
	Components int
	Systems    int
	Churn      float64
	Seed       uint64
	Scripts    bool

	// Results
	TotalUpdates   int64
	TotalTime      time.Duration
	Worlds         []WorldReport
	GCPauseMetrics bool
	MemStatsStart  runtime.MemStats
	MemStatsEnd    runtime.MemStats
}

// WorldReport summarizes one engine's run.
type WorldReport struct {
	ID             int
	Updates        int64
	UpdateTime     Stats
	EntitiesEnd    int
	FamilyChecks   int
	Mismatches     int64
	CommandErrors  int64
	SystemFailures int64
	ScriptErrors   int64
	Slowest        []ecs.SystemStats
}

type Stats struct {
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	Samples []time.Duration
}

func (s *Stats) Finalize() {
	if len(s.Samples) == 0 {
		return
	}

	var total time.Duration
	s.Min = s.Samples[0]
	s.Max = s.Samples[0]

	for _, sample := range s.Samples {
		if sample < s.Min {
			s.Min = sample
		}
		if sample > s.Max {
			s.Max = sample
		}
		total += sample
	}
	s.Avg = total / time.Duration(len(s.Samples))
}

// Agreed reports whether every cached family matched its non-cached twin on
// every audited tick of every engine.
func (r *Report) Agreed() bool {
	for _, w := range r.Worlds {
		if w.Mismatches > 0 {
			return false
		}
	}
	return true
}

func (w *world) report(slowest int) WorldReport {
	stats := w.engine.Stats()
	systems := slices.Clone(stats.Systems)
	slices.SortFunc(systems, func(a, b ecs.SystemStats) int {
		return cmp.Compare(b.AvgDuration, a.AvgDuration)
	})
	if len(systems) > slowest {
		systems = systems[:slowest]
	}

	var failures int64
	for _, m := range w.mutators {
		failures += m.failures
	}
	var scriptErrors int64
	if w.census != nil {
		scriptErrors = w.census.Errors()
	}

	return WorldReport{
		ID:             w.id,
		Updates:        w.updates,
		UpdateTime:     w.samples,
		EntitiesEnd:    stats.EntityCount,
		FamilyChecks:   len(w.checks),
		Mismatches:     w.mismatches,
		CommandErrors:  w.commandErrors,
		SystemFailures: failures,
		ScriptErrors:   scriptErrors,
		Slowest:        systems,
	}
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `
# ECS Stress Test Report

## Test Configuration
- **Run Duration:** {{.Duration}}
- **Engines:** {{.Engines}}
- **Initial Entities (per engine):** {{.Entities}}
- **Generated Components:** {{.Components}}
- **Generated Systems (per engine):** {{.Systems}}
- **Churn:** {{.Churn}}
- **Seed:** {{.Seed}}
- **Lua Census:** {{.Scripts}}

## Performance Results
- **Total Updates:** {{.TotalUpdates}}
- **Total Test Time:** {{.TotalTime}}
{{range .Worlds}}
### Engine {{.ID}}
- **Updates:** {{.Updates}}
- **Entities at end:** {{.EntitiesEnd}}
- **Update Time (Frame):**
  - **Avg:** {{.UpdateTime.Avg}}
  - **Min:** {{.UpdateTime.Min}}
  - **Max:** {{.UpdateTime.Max}}
- **Family Checks:** {{.FamilyChecks}} families, {{.Mismatches}} disagreements
- **Failed Command Flushes:** {{.CommandErrors}}
- **System Failures:** {{.SystemFailures}}
- **Script Errors:** {{.ScriptErrors}}
- **Slowest Systems:**
{{- range .Slowest}}
  - {{.Name}} (priority {{.Priority}}): avg {{.AvgDuration}}, max {{.MaxDuration}}, runs {{.ExecutionCount}}
{{- end}}
{{end}}
## Family Agreement
{{if .Agreed}}All cached families agreed with their non-cached twins.{{else}}**Cached and non-cached families disagreed.**{{end}}

## Memory Usage (Raw Bytes)
- Heap Alloc:     {{.MemStatsStart.HeapAlloc}} (start) -> {{.MemStatsEnd.HeapAlloc}} (end) -> delta: {{bsub .MemStatsEnd.HeapAlloc .MemStatsStart.HeapAlloc}}
- Total Alloc:    {{.MemStatsStart.TotalAlloc}} (start) -> {{.MemStatsEnd.TotalAlloc}} (end) -> delta: {{bsub .MemStatsEnd.TotalAlloc .MemStatsStart.TotalAlloc}}
- Sys Memory:     {{.MemStatsStart.Sys}} (start) -> {{.MemStatsEnd.Sys}} (end) -> delta: {{bsub .MemStatsEnd.Sys .MemStatsStart.Sys}}
- Num GC:         {{.MemStatsStart.NumGC}} (start) -> {{.MemStatsEnd.NumGC}} (end) -> delta: {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}

{{if .GCPauseMetrics}}
## GC Pause Durations
- **Total GC Pause:** {{.MemStatsEnd.PauseTotalNs | ns}}
- **Num GC Cycles:** {{ usub .MemStatsEnd.NumGC .MemStatsStart.NumGC }}
- **Heap In Use:** {{.MemStatsEnd.HeapInuse | mb}} MB
{{end}}
`

	fm := template.FuncMap{
		"mb": func(v any) string {
			switch val := v.(type) {
			case uint64:
				return fmt.Sprintf("%.2f", float64(val)/1024/1024)
			case int64:
				return fmt.Sprintf("%.2f", float64(val)/1024/1024)
			default:
				return "N/A"
			}
		},
		"bsub": func(a, b uint64) int64 {
			return int64(a) - int64(b)
		},
		"usub": func(a, b uint32) uint32 {
			return a - b
		},
		"ns": func(ns uint64) string {
			return time.Duration(ns).String()
		},
	}

	tmpl, err := template.New("report").Funcs(fm).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, r)
}
