package server

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/louisbranch/gridsnake/internal/services/arena/domain"
)

// fakeSimulation levels up on the ticks listed in levelUpAt.
type fakeSimulation struct {
	mu        sync.Mutex
	ticks     int
	level     int
	changed   bool
	levelUpAt map[int]bool

	inTick     atomic.Int32
	overlapped atomic.Bool
}

func (f *fakeSimulation) Tick() {
	if f.inTick.Add(1) > 1 {
		f.overlapped.Store(true)
	}
	defer f.inTick.Add(-1)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.ticks++
	if f.levelUpAt[f.ticks] {
		f.level++
		f.changed = true
	}
}

func (f *fakeSimulation) HasLevelChangedAndClear() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	changed := f.changed
	f.changed = false
	return changed
}

func (f *fakeSimulation) Level() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.level
}

func (f *fakeSimulation) Snapshot() domain.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return domain.Snapshot{Level: f.level}
}

func TestIntervalForLevel(t *testing.T) {
	tests := []struct {
		level int
		want  time.Duration
	}{
		{level: 0, want: 150 * time.Millisecond},
		{level: 1, want: 150 * time.Millisecond},
		{level: 2, want: 130 * time.Millisecond},
		{level: 3, want: 110 * time.Millisecond},
		{level: 5, want: 70 * time.Millisecond},
		{level: 6, want: 50 * time.Millisecond},
		{level: 20, want: 50 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := IntervalForLevel(tt.level); got != tt.want {
			t.Fatalf("IntervalForLevel(%d) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestNewSchedulerValidatesInputs(t *testing.T) {
	if _, err := NewScheduler(nil, func(domain.Snapshot) {}); err == nil {
		t.Fatal("expected error for nil simulation")
	}
	if _, err := NewScheduler(&fakeSimulation{level: 1}, nil); err == nil {
		t.Fatal("expected error for nil broadcast")
	}
}

func TestSchedulerSkipsBroadcastOnLevelChange(t *testing.T) {
	sim := &fakeSimulation{level: 1, levelUpAt: map[int]bool{3: true}}
	var broadcasts atomic.Int32
	events := make(chan TickEvent, 16)

	s, err := NewScheduler(sim, func(domain.Snapshot) { broadcasts.Add(1) }, WithTickObserver(func(e TickEvent) {
		select {
		case events <- e:
		default:
		}
	}))
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	s.interval = func(level int) time.Duration { return time.Duration(level) * time.Millisecond }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	var got []TickEvent
	timeout := time.After(2 * time.Second)
	for len(got) < 5 {
		select {
		case e := <-events:
			got = append(got, e)
		case <-timeout:
			t.Fatalf("received %d tick events, want 5", len(got))
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}

	for i, e := range got {
		wantChange := i == 2
		if e.LevelChange != wantChange || e.Broadcast == wantChange {
			t.Fatalf("event %d = %+v", i, e)
		}
	}
	if got[1].Interval != time.Millisecond || got[2].Interval != 2*time.Millisecond || got[3].Level != 2 {
		t.Fatalf("interval did not follow level: %+v", got)
	}
	if n := broadcasts.Load(); n < 4 {
		t.Fatalf("broadcasts = %d, want at least 4", n)
	}
	if sim.overlapped.Load() {
		t.Fatal("Tick ran concurrently")
	}
}

func TestSchedulerStopsOnCancel(t *testing.T) {
	sim := &fakeSimulation{level: 1}
	s, err := NewScheduler(sim, func(domain.Snapshot) {})
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	s.interval = func(int) time.Duration { return time.Millisecond }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}

	sim.mu.Lock()
	stopped := sim.ticks
	sim.mu.Unlock()
	time.Sleep(20 * time.Millisecond)
	sim.mu.Lock()
	defer sim.mu.Unlock()
	if sim.ticks != stopped {
		t.Fatalf("ticks advanced after stop: %d -> %d", stopped, sim.ticks)
	}
	if stopped == 0 {
		t.Fatal("expected ticks before cancel")
	}
}

func TestSchedulerDrivesRealGame(t *testing.T) {
	game, err := domain.NewState(domain.Config{Seed: 5})
	if err != nil {
		t.Fatalf("new state: %v", err)
	}
	game.AddPlayer(0, "solo")
	game.StartGame()
	start := game.Snapshot().Players[0].Body[0]

	snaps := make(chan domain.Snapshot, 8)
	s, err := NewScheduler(game, func(snap domain.Snapshot) {
		select {
		case snaps <- snap:
		default:
		}
	})
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	s.interval = func(int) time.Duration { return time.Millisecond }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	select {
	case snap := <-snaps:
		if head := snap.Players[0].Body[0]; head == start {
			t.Fatalf("head did not move from %v", start)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no broadcast from scheduler")
	}
}

func TestSchedulerRunRequiresContext(t *testing.T) {
	s, err := NewScheduler(&fakeSimulation{level: 1}, func(domain.Snapshot) {})
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	//nolint:staticcheck // nil context is the case under test
	if err := s.Run(nil); err == nil {
		t.Fatal("expected error for nil context")
	}
	var nilScheduler *Scheduler
	if err := nilScheduler.Run(context.Background()); err == nil {
		t.Fatal("expected error for nil scheduler")
	}
}
