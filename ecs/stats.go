package ecs

import "time"

// EngineStats is a snapshot of an engine's registry sizes and system timings.
type EngineStats struct {
	EntityCount     int
	ListenerCount   int
	SystemCount     int
	Ticks           int64
	TotalExecutions int64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	Priority       int
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	name           string
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

func (s *systemStatsInternal) record(d time.Duration) {
	s.executionCount++
	s.lastDuration = d
	s.totalDuration += d

	if d < s.minDuration {
		s.minDuration = d
	}
	if d > s.maxDuration {
		s.maxDuration = d
	}
}

// Stats returns statistics about the engine. Systems are listed in their
// current order.
func (e *Engine) Stats() *EngineStats {
	stats := &EngineStats{
		EntityCount:   e.entities.len(),
		ListenerCount: e.listeners.len(),
		SystemCount:   len(e.systems),
		Ticks:         e.ticks,
		Systems:       make([]SystemStats, 0, len(e.systems)),
	}

	var totalExecs int64
	for _, s := range e.systems {
		internal := e.attached[s]

		avgDuration := time.Duration(0)
		minDuration := time.Duration(0)
		if internal.executionCount > 0 {
			avgDuration = internal.totalDuration / time.Duration(internal.executionCount)
			minDuration = internal.minDuration
		}

		stats.Systems = append(stats.Systems, SystemStats{
			Name:           internal.name,
			Priority:       s.Priority(),
			ExecutionCount: internal.executionCount,
			MinDuration:    minDuration,
			MaxDuration:    internal.maxDuration,
			AvgDuration:    avgDuration,
			LastDuration:   internal.lastDuration,
			TotalDuration:  internal.totalDuration,
		})
		totalExecs += internal.executionCount
	}

	stats.TotalExecutions = totalExecs
	return stats
}
