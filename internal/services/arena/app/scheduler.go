package server

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/gridsnake/internal/services/arena/domain"
	"github.com/rs/zerolog"
)

const (
	baseTickInterval = 150 * time.Millisecond
	tickIntervalStep = 20 * time.Millisecond
	minTickInterval  = 50 * time.Millisecond
)

// Simulation is the part of the game the clock drives.
type Simulation interface {
	Tick()
	HasLevelChangedAndClear() bool
	Level() int
	Snapshot() domain.Snapshot
}

// TickEvent describes one completed scheduler iteration.
type TickEvent struct {
	Level       int
	Interval    time.Duration
	Broadcast   bool
	LevelChange bool
}

// SchedulerOption customizes a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerLogger sets the scheduler logger.
func WithSchedulerLogger(logger zerolog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.log = logger.With().Str("component", "arena.scheduler").Logger()
	}
}

// WithTickObserver registers fn to run after every iteration on the
// scheduler goroutine.
func WithTickObserver(fn func(TickEvent)) SchedulerOption {
	return func(s *Scheduler) {
		s.observe = fn
	}
}

// Scheduler is the single clock of the arena. It ticks the simulation, then
// broadcasts a snapshot unless the tick changed the level.
type Scheduler struct {
	sim       Simulation
	broadcast func(domain.Snapshot)
	observe   func(TickEvent)
	interval  func(level int) time.Duration
	log       zerolog.Logger
}

// NewScheduler builds a scheduler over sim. broadcast receives every
// snapshot taken after a tick.
func NewScheduler(sim Simulation, broadcast func(domain.Snapshot), opts ...SchedulerOption) (*Scheduler, error) {
	if sim == nil {
		return nil, errors.New("simulation is required")
	}
	if broadcast == nil {
		return nil, errors.New("broadcast function is required")
	}
	s := &Scheduler{
		sim:       sim,
		broadcast: broadcast,
		interval:  IntervalForLevel,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IntervalForLevel returns the tick period at level: 150ms at level 1, 20ms
// faster per level, never below 50ms.
func IntervalForLevel(level int) time.Duration {
	if level < 1 {
		level = 1
	}
	interval := baseTickInterval - time.Duration(level-1)*tickIntervalStep
	if interval < minTickInterval {
		return minTickInterval
	}
	return interval
}

// Run ticks until ctx is cancelled. The period is read from the current level
// before every wait, so a level change or a reset takes effect on the next
// iteration. An in-flight tick always completes.
func (s *Scheduler) Run(ctx context.Context) error {
	if s == nil {
		return errors.New("scheduler is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	interval := s.interval(s.sim.Level())
	s.log.Info().Dur("interval", interval).Msg("tick scheduler started")
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("tick scheduler stopped")
			return nil
		case <-timer.C:
		}

		event := s.step()
		if event.Interval != interval {
			s.log.Info().Int("level", event.Level).Dur("interval", event.Interval).Msg("tick interval adjusted")
			interval = event.Interval
		}
		if s.observe != nil {
			s.observe(event)
		}
		timer.Reset(interval)
	}
}

func (s *Scheduler) step() TickEvent {
	s.sim.Tick()
	if s.sim.HasLevelChangedAndClear() {
		level := s.sim.Level()
		return TickEvent{Level: level, Interval: s.interval(level), LevelChange: true}
	}
	snap := s.sim.Snapshot()
	s.broadcast(snap)
	return TickEvent{Level: snap.Level, Interval: s.interval(snap.Level), Broadcast: true}
}
