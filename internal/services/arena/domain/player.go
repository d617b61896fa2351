package domain

import "sort"

var snakeColors = []string{"CYAN", "MAGENTA", "YELLOW", "ORANGE", "PINK", "GREEN", "BLUE", "RED", "WHITE"}

const initialGrowth = 2

// player is the single per-id record; body is empty whenever alive is false.
type player struct {
	id      int
	name    string
	color   string
	alive   bool
	waiting bool
	score   int
	growth  int
	dir     Direction
	body    []Cell
}

func (p *player) head() Cell {
	return p.body[0]
}

func (p *player) kill() {
	p.alive = false
	p.body = nil
}

// roster keeps player records ordered by ascending id with an id index.
type roster struct {
	ordered []*player
	byID    map[int]*player
}

func newRoster() roster {
	return roster{byID: make(map[int]*player)}
}

func (r *roster) get(id int) (*player, bool) {
	p, ok := r.byID[id]
	return p, ok
}

func (r *roster) put(p *player) {
	if _, ok := r.byID[p.id]; ok {
		r.remove(p.id)
	}
	r.byID[p.id] = p
	i := sort.Search(len(r.ordered), func(i int) bool { return r.ordered[i].id >= p.id })
	r.ordered = append(r.ordered, nil)
	copy(r.ordered[i+1:], r.ordered[i:])
	r.ordered[i] = p
}

func (r *roster) remove(id int) (*player, bool) {
	p, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	delete(r.byID, id)
	for i, candidate := range r.ordered {
		if candidate.id == id {
			r.ordered = append(r.ordered[:i], r.ordered[i+1:]...)
			break
		}
	}
	return p, true
}

func (r *roster) len() int {
	return len(r.ordered)
}

func (r *roster) clear() {
	r.ordered = nil
	r.byID = make(map[int]*player)
}

// participants counts players on the roster taking part in the current round
// and how many are alive. Waiting players are excluded from both.
func (r *roster) participants() (total, alive int) {
	for _, p := range r.ordered {
		if p.waiting {
			continue
		}
		total++
		if p.alive {
			alive++
		}
	}
	return total, alive
}

func (r *roster) totalScore() int {
	sum := 0
	for _, p := range r.ordered {
		sum += p.score
	}
	return sum
}
