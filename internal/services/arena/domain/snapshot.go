package domain

// Segment is one rendered snake cell. Head marks the first cell of a body.
type Segment struct {
	Cell     Cell
	PlayerID int
	Head     bool
	Color    string
	Name     string
}

// PlayerView is a read-only copy of one roster entry.
type PlayerView struct {
	ID        int
	Name      string
	Color     string
	Alive     bool
	Waiting   bool
	Score     int
	Growth    int
	Direction Direction
	Body      []Cell
}

// Snapshot is an immutable copy of the world taken atomically with respect
// to ticks. Players are ordered by ascending id.
type Snapshot struct {
	Phase    Phase
	Level    int
	Players  []PlayerView
	Segments []Segment
	Fruits   []Fruit
	Walls    []Cell
	Scores   map[int]int
	Names    map[int]string
}

// GameOver reports whether the round has ended.
func (s Snapshot) GameOver() bool {
	return s.Phase == PhaseGameOver
}

// InProgress reports whether a round is running.
func (s Snapshot) InProgress() bool {
	return s.Phase == PhaseInProgress
}

// Player returns the view for id.
func (s Snapshot) Player(id int) (PlayerView, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return PlayerView{}, false
}

// Snapshot copies every renderable object and the scoreboard.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Phase:   s.phase,
		Level:   s.level,
		Players: make([]PlayerView, 0, s.roster.len()),
		Fruits:  make([]Fruit, len(s.fruits)),
		Walls:   make([]Cell, len(s.wallOrder)),
		Scores:  make(map[int]int, s.roster.len()),
		Names:   make(map[int]string, s.roster.len()),
	}
	copy(snap.Fruits, s.fruits)
	copy(snap.Walls, s.wallOrder)

	for _, p := range s.roster.ordered {
		body := make([]Cell, len(p.body))
		copy(body, p.body)
		snap.Players = append(snap.Players, PlayerView{
			ID:        p.id,
			Name:      p.name,
			Color:     p.color,
			Alive:     p.alive,
			Waiting:   p.waiting,
			Score:     p.score,
			Growth:    p.growth,
			Direction: p.dir,
			Body:      body,
		})
		snap.Scores[p.id] = p.score
		snap.Names[p.id] = p.name
		for i, c := range p.body {
			snap.Segments = append(snap.Segments, Segment{
				Cell:     c,
				PlayerID: p.id,
				Head:     i == 0,
				Color:    p.color,
				Name:     p.name,
			})
		}
	}
	return snap
}
