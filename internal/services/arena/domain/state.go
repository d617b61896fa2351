// Package domain owns the authoritative grid-snake simulation.
//
// State is the only writer of round data. Every exported method takes the
// same mutex for its whole duration and never calls another exported method
// while holding it, so ticks are linearizable with inputs and snapshots never
// observe a half-applied tick.
package domain

import (
	"math/rand/v2"
	"strconv"
	"sync"

	apperrors "github.com/louisbranch/gridsnake/internal/platform/errors"
	"github.com/louisbranch/gridsnake/internal/random"
	"github.com/rs/zerolog"
)

const (
	// DefaultBoardSize is the default width and height of the board in cells.
	DefaultBoardSize = 40
	// DefaultInitialFruit is the fruit count spawned at round start before
	// adding one per player.
	DefaultInitialFruit = 5

	minBoardSize  = 8
	spawnAttempts = 64
)

// Phase is the top-level state of a round.
type Phase uint8

const (
	PhaseLobby Phase = iota
	PhaseInProgress
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "LOBBY"
	case PhaseInProgress:
		return "IN_PROGRESS"
	case PhaseGameOver:
		return "GAME_OVER"
	default:
		return "UNKNOWN"
	}
}

// Config sizes the board and tunes round pacing. Zero values take defaults.
type Config struct {
	Width          int
	Height         int
	Seed           int64
	InitialFruit   int
	LevelThreshold int
}

func (c Config) withDefaults() Config {
	if c.Width == 0 {
		c.Width = DefaultBoardSize
	}
	if c.Height == 0 {
		c.Height = DefaultBoardSize
	}
	if c.InitialFruit == 0 {
		c.InitialFruit = DefaultInitialFruit
	}
	if c.LevelThreshold <= 0 {
		c.LevelThreshold = DefaultLevelThreshold
	}
	return c
}

// Option customizes a State.
type Option func(*State)

// WithLogger sets the logger used for round events.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *State) {
		s.log = logger.With().Str("component", "arena.domain").Logger()
	}
}

// State is the shared game world. It is created once per process and reset
// in place between rounds.
type State struct {
	mu sync.Mutex

	cfg   Config
	board board
	rng   *rand.Rand
	log   zerolog.Logger

	roster    roster
	fruits    []Fruit
	walls     map[Cell]struct{}
	wallOrder []Cell

	phase        Phase
	level        int
	levelChanged bool
	// departed counts round participants removed since the round started.
	// They stay in the game-over total as eliminated players.
	departed int
}

// NewState builds a lobby with level 1 loaded and the base fruit set spawned.
func NewState(cfg Config, opts ...Option) (*State, error) {
	cfg = cfg.withDefaults()
	if cfg.Width < minBoardSize || cfg.Height < minBoardSize {
		return nil, apperrors.WithMetadata(apperrors.CodeInvalidBoardConfig, "board must be at least 8x8 cells", map[string]string{
			"width":  strconv.Itoa(cfg.Width),
			"height": strconv.Itoa(cfg.Height),
		})
	}
	if cfg.InitialFruit < 0 {
		return nil, apperrors.New(apperrors.CodeInvalidBoardConfig, "initial fruit count must not be negative")
	}

	s := &State{
		cfg:    cfg,
		board:  board{width: cfg.Width, height: cfg.Height},
		rng:    random.NewRand(cfg.Seed),
		log:    zerolog.Nop(),
		roster: newRoster(),
		walls:  make(map[Cell]struct{}),
		phase:  PhaseLobby,
		level:  1,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.loadWallsLocked(1)
	s.spawnInitialFruitLocked(0)
	return s, nil
}

// AddPlayer registers id under name. In the lobby the player gets a fresh
// two-segment snake heading RIGHT inside the inner half of the board. A player
// joining a running or finished round waits on the scoreboard without a snake
// and enters play at the next StartGame or ResetGame.
func (s *State) AddPlayer(id int, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.roster.get(id); exists {
		s.log.Warn().Int("player_id", id).Msg("player already present, ignoring add")
		return
	}
	p := s.newPlayerLocked(id, name)
	s.roster.put(p)

	if s.phase != PhaseLobby {
		p.waiting = true
		s.log.Info().Int("player_id", id).Str("name", name).Stringer("phase", s.phase).Msg("player joined, waiting for next round")
		return
	}
	s.spawnSnakeLocked(p)
	s.log.Info().Int("player_id", id).Str("name", name).Str("color", p.color).Msg("player joined")
}

// RemovePlayer drops id and its snake, then re-evaluates game over. A
// participant leaving a running round counts as eliminated for that round; an
// empty roster returns to the lobby.
func (s *State) RemovePlayer(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.roster.remove(id)
	if !ok {
		return
	}
	if s.phase == PhaseInProgress && !p.waiting {
		s.departed++
	}
	s.log.Info().Int("player_id", id).Msg("player removed")

	if s.roster.len() == 0 {
		if s.phase != PhaseLobby {
			s.log.Info().Msg("roster empty, returning to lobby")
		}
		s.resetBoardLocked()
		s.spawnInitialFruitLocked(0)
		return
	}
	s.checkGameOverLocked()
}

// SetDirection changes the heading of a living snake. Reversals, unknown
// players, and dead players are ignored.
func (s *State) SetDirection(id int, dir Direction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !dir.valid() {
		return
	}
	p, ok := s.roster.get(id)
	if !ok || !p.alive {
		return
	}
	if dir == p.dir.Reverse() {
		return
	}
	p.dir = dir
}

// StartGame begins a round. It is a no-op while a round is in progress.
func (s *State) StartGame() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseInProgress {
		return
	}
	fromGameOver := s.phase == PhaseGameOver

	s.level = 1
	s.levelChanged = false
	s.departed = 0
	s.fruits = nil
	for _, p := range s.roster.ordered {
		if fromGameOver {
			p.kill()
		}
	}
	s.loadWallsLocked(1)

	for _, p := range s.roster.ordered {
		p.score = 0
		p.waiting = false
		if len(p.body) == 0 {
			s.spawnSnakeLocked(p)
			continue
		}
		p.alive = true
		p.growth = initialGrowth
		p.dir = DirectionRight
	}
	s.spawnInitialFruitLocked(s.roster.len())
	s.phase = PhaseInProgress
	s.log.Info().Int("players", s.roster.len()).Int("fruits", len(s.fruits)).Msg("round started")
}

// ResetGame returns to the lobby with every current player re-added as a
// fresh snake and the level 1 board reloaded.
func (s *State) ResetGame() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetGameLocked()
}

// RestartAfterGameOver resets the round only when it is over and reports
// whether it did. Concurrent restarts of one finished round reset it once.
func (s *State) RestartAfterGameOver() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseGameOver {
		return false
	}
	s.resetGameLocked()
	return true
}

func (s *State) resetGameLocked() {
	type entry struct {
		id   int
		name string
	}
	captured := make([]entry, 0, s.roster.len())
	for _, p := range s.roster.ordered {
		captured = append(captured, entry{id: p.id, name: p.name})
	}

	s.resetBoardLocked()
	s.spawnInitialFruitLocked(len(captured))
	for _, e := range captured {
		p := s.newPlayerLocked(e.id, e.name)
		s.roster.put(p)
		s.spawnSnakeLocked(p)
	}
	s.log.Info().Int("players", len(captured)).Msg("round reset, back to lobby")
}

// Tick advances every living snake by one cell in ascending player id order.
// Earlier ids win same-tick contention for a cell. It is a no-op outside a
// running round.
func (s *State) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseInProgress {
		return
	}
	for _, p := range s.roster.ordered {
		if !p.alive {
			continue
		}
		next := p.head().Step(p.dir)
		if wrapsEdges(s.level) {
			next = s.board.wrap(next)
		} else if !s.board.contains(next) {
			s.eliminateLocked(p, "edge")
			continue
		}
		if cause, hit := s.collisionLocked(p, next); hit {
			s.eliminateLocked(p, cause)
			continue
		}

		p.body = append(p.body, Cell{})
		copy(p.body[1:], p.body)
		p.body[0] = next

		if i := s.fruitIndexLocked(next); i >= 0 {
			fruit := s.fruits[i]
			p.score += fruit.Value
			p.growth += fruit.Value
			s.fruits = append(s.fruits[:i], s.fruits[i+1:]...)
			s.spawnFruitLocked()
		}

		if p.growth > 0 {
			p.growth--
		} else {
			p.body = p.body[:len(p.body)-1]
		}
	}
	s.checkGameOverLocked()
	s.checkLevelUpLocked()
}

// HasLevelChangedAndClear reports a level transition once; the read clears it.
func (s *State) HasLevelChangedAndClear() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := s.levelChanged
	s.levelChanged = false
	return changed
}

// Phase returns the current round phase.
func (s *State) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Level returns the current level.
func (s *State) Level() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

// PlayerCount returns the number of players on the roster, waiting included.
func (s *State) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster.len()
}

func (s *State) newPlayerLocked(id int, name string) *player {
	return &player{
		id:    id,
		name:  name,
		color: snakeColors[s.rng.IntN(len(snakeColors))],
		dir:   DirectionRight,
	}
}

// spawnSnakeLocked places a head and one body cell to its left on free cells,
// preferring the inner half of the board. A player that cannot be placed is
// left waiting.
func (s *State) spawnSnakeLocked(p *player) bool {
	occupied := s.occupiedLocked()
	fits := func(head Cell) bool {
		tail := Cell{X: head.X - 1, Y: head.Y}
		if !s.board.contains(head) || !s.board.contains(tail) {
			return false
		}
		_, headTaken := occupied[head]
		_, tailTaken := occupied[tail]
		return !headTaken && !tailTaken
	}
	place := func(head Cell) {
		p.body = []Cell{head, {X: head.X - 1, Y: head.Y}}
		p.dir = DirectionRight
		p.growth = initialGrowth
		p.alive = true
		p.waiting = false
	}

	qx, qy := s.board.width/4, s.board.height/4
	spanX, spanY := s.board.width/2, s.board.height/2
	for i := 0; i < spawnAttempts; i++ {
		head := Cell{X: qx + s.rng.IntN(spanX), Y: qy + s.rng.IntN(spanY)}
		if fits(head) {
			place(head)
			return true
		}
	}
	for y := 0; y < s.board.height; y++ {
		for x := 1; x < s.board.width; x++ {
			if head := (Cell{X: x, Y: y}); fits(head) {
				place(head)
				return true
			}
		}
	}

	p.kill()
	p.waiting = true
	s.log.Warn().Int("player_id", p.id).Msg("no room for snake, player waits")
	return false
}

// spawnFruitLocked places one fruit by rejection sampling, falling back to a
// uniform pick among free cells. It returns false only on a full board.
func (s *State) spawnFruitLocked() bool {
	occupied := s.occupiedLocked()
	if len(occupied) >= s.board.cells() {
		return false
	}

	cell, found := Cell{}, false
	for i := 0; i < spawnAttempts; i++ {
		candidate := Cell{X: s.rng.IntN(s.board.width), Y: s.rng.IntN(s.board.height)}
		if _, taken := occupied[candidate]; !taken {
			cell, found = candidate, true
			break
		}
	}
	if !found {
		free := make([]Cell, 0, s.board.cells()-len(occupied))
		for y := 0; y < s.board.height; y++ {
			for x := 0; x < s.board.width; x++ {
				if _, taken := occupied[Cell{X: x, Y: y}]; !taken {
					free = append(free, Cell{X: x, Y: y})
				}
			}
		}
		if len(free) == 0 {
			return false
		}
		cell = free[s.rng.IntN(len(free))]
	}

	tier := drawFruitTier(s.rng)
	s.fruits = append(s.fruits, Fruit{Cell: cell, Value: tier.value, Kind: tier.kind})
	return true
}

func (s *State) spawnInitialFruitLocked(players int) {
	for i := 0; i < s.cfg.InitialFruit+players; i++ {
		if !s.spawnFruitLocked() {
			return
		}
	}
}

func (s *State) occupiedLocked() map[Cell]struct{} {
	occupied := make(map[Cell]struct{}, len(s.walls)+len(s.fruits)+4*s.roster.len())
	for _, p := range s.roster.ordered {
		for _, c := range p.body {
			occupied[c] = struct{}{}
		}
	}
	for c := range s.walls {
		occupied[c] = struct{}{}
	}
	for _, f := range s.fruits {
		occupied[f.Cell] = struct{}{}
	}
	return occupied
}

// collisionLocked checks next against walls and every snake segment. The
// moving snake's own tail is free only when it vacates this tick.
func (s *State) collisionLocked(mover *player, next Cell) (string, bool) {
	if _, ok := s.walls[next]; ok {
		return "wall", true
	}
	for _, p := range s.roster.ordered {
		if !p.alive {
			continue
		}
		for i, seg := range p.body {
			if seg != next {
				continue
			}
			if p == mover && i == len(p.body)-1 && p.growth == 0 {
				continue
			}
			if p == mover {
				return "self", true
			}
			return "snake", true
		}
	}
	return "", false
}

func (s *State) fruitIndexLocked(c Cell) int {
	for i, f := range s.fruits {
		if f.Cell == c {
			return i
		}
	}
	return -1
}

func (s *State) eliminateLocked(p *player, cause string) {
	p.kill()
	s.log.Info().Int("player_id", p.id).Str("cause", cause).Int("score", p.score).Msg("player eliminated")
}

func (s *State) checkGameOverLocked() {
	if s.phase != PhaseInProgress {
		return
	}
	total, alive := s.roster.participants()
	total += s.departed
	if (total > 1 && alive <= 1) || (total == 1 && alive == 0) {
		s.phase = PhaseGameOver
		s.log.Info().Int("players", total).Int("alive", alive).Msg("game over")
	}
}

// checkLevelUpLocked raises the level by at most one per call.
func (s *State) checkLevelUpLocked() {
	if s.level >= MaxLevel {
		return
	}
	if s.roster.totalScore() < s.level*s.cfg.LevelThreshold {
		return
	}
	s.level++
	s.loadWallsLocked(s.level)
	s.spawnFruitLocked()
	s.levelChanged = true
	s.log.Info().Int("level", s.level).Int("walls", len(s.wallOrder)).Msg("level up")
}

// loadWallsLocked replaces the wall set with the layout of level. Layout cells
// under a snake are skipped and fruit under a new wall is respawned elsewhere.
func (s *State) loadWallsLocked(level int) {
	snakeCells := make(map[Cell]struct{})
	for _, p := range s.roster.ordered {
		for _, c := range p.body {
			snakeCells[c] = struct{}{}
		}
	}

	s.walls = make(map[Cell]struct{})
	s.wallOrder = nil
	skipped := 0
	for _, c := range wallLayout(level, s.board.width, s.board.height) {
		if _, taken := snakeCells[c]; taken {
			skipped++
			continue
		}
		s.walls[c] = struct{}{}
		s.wallOrder = append(s.wallOrder, c)
	}

	kept := s.fruits[:0]
	displaced := 0
	for _, f := range s.fruits {
		if _, walled := s.walls[f.Cell]; walled {
			displaced++
			continue
		}
		kept = append(kept, f)
	}
	s.fruits = kept
	for i := 0; i < displaced; i++ {
		s.spawnFruitLocked()
	}
	s.log.Debug().Int("level", level).Int("walls", len(s.wallOrder)).Int("skipped", skipped).Int("relocated_fruits", displaced).Msg("level map loaded")
}

// resetBoardLocked clears the roster and simulation collections and reloads
// level 1 in the lobby phase.
func (s *State) resetBoardLocked() {
	s.roster.clear()
	s.fruits = nil
	s.phase = PhaseLobby
	s.level = 1
	s.levelChanged = false
	s.departed = 0
	s.loadWallsLocked(1)
}
