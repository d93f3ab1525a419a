package main

import (
	"errors"
	"time"

	"github.com/rotisserie/eris"

	"github.com/plus3/sparsecs/ecs"
)

// System is one phase of a stress frame.
type System interface {
	Name() string
	Execute(frame *UpdateFrame) error
}

// UpdateFrame is handed to every system during one frame.
type UpdateFrame struct {
	DeltaTime float32
	Store     *ecs.Store
	Commands  *ecs.Commands
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	name           string
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
}

// Scheduler runs systems in registration order and flushes their commands after each frame.
type Scheduler struct {
	store       *ecs.Store
	commands    *ecs.Commands
	systems     []System
	systemStats []*systemStatsInternal
}

func NewScheduler(store *ecs.Store) *Scheduler {
	return &Scheduler{
		store:    store,
		commands: ecs.NewCommands(),
	}
}

func (s *Scheduler) Register(system System) {
	s.systems = append(s.systems, system)
	s.systemStats = append(s.systemStats, &systemStatsInternal{
		name:        system.Name(),
		minDuration: time.Duration(1<<63 - 1),
	})
}

// Once executes every system with dt, then flushes the shared command buffer.
func (s *Scheduler) Once(dt float32) error {
	frame := &UpdateFrame{DeltaTime: dt, Store: s.store, Commands: s.commands}

	var errs []error
	for i, system := range s.systems {
		start := time.Now()
		if err := system.Execute(frame); err != nil {
			errs = append(errs, eris.Wrapf(err, "system %s", system.Name()))
		}
		duration := time.Since(start)

		stats := s.systemStats[i]
		stats.executionCount++
		stats.totalDuration += duration
		if duration < stats.minDuration {
			stats.minDuration = duration
		}
		if duration > stats.maxDuration {
			stats.maxDuration = duration
		}

		// Structural changes queued by this system become visible to the next one.
		if err := s.commands.Flush(s.store); err != nil {
			errs = append(errs, eris.Wrapf(err, "flush after %s", system.Name()))
		}
	}
	return errors.Join(errs...)
}

func (s *Scheduler) Stats() []SystemStats {
	stats := make([]SystemStats, len(s.systemStats))
	for i, internal := range s.systemStats {
		var avg time.Duration
		if internal.executionCount > 0 {
			avg = internal.totalDuration / time.Duration(internal.executionCount)
		}
		stats[i] = SystemStats{
			Name:           internal.name,
			ExecutionCount: internal.executionCount,
			MinDuration:    internal.minDuration,
			MaxDuration:    internal.maxDuration,
			AvgDuration:    avg,
			TotalDuration:  internal.totalDuration,
		}
	}
	return stats
}
