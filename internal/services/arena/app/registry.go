package server

import (
	"sort"
	"strconv"
	"sync"

	apperrors "github.com/louisbranch/gridsnake/internal/platform/errors"
)

// registry binds connections to player ids. Ids are minted in increasing
// order and never reused. It never calls into the game while locked.
type registry struct {
	mu        sync.Mutex
	nextID    int
	connected map[*peer]struct{}
	ids       map[*peer]int
	peers     map[int]*peer
}

func newRegistry() *registry {
	return &registry{
		connected: make(map[*peer]struct{}),
		ids:       make(map[*peer]int),
		peers:     make(map[int]*peer),
	}
}

func (r *registry) attach(p *peer) {
	r.mu.Lock()
	r.connected[p] = struct{}{}
	r.mu.Unlock()
}

// join mints an id for p. A connection joins at most once.
func (r *registry) join(p *peer) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.ids[p]; ok {
		return id, apperrors.WithMetadata(apperrors.CodeAlreadyJoined, "connection already joined", map[string]string{
			"player_id": strconv.Itoa(id),
		})
	}
	id := r.nextID
	r.nextID++
	r.connected[p] = struct{}{}
	r.ids[p] = id
	r.peers[id] = p
	return id, nil
}

// leave detaches p and returns the player id it was bound to, if any.
func (r *registry) leave(p *peer) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.connected, p)
	id, ok := r.ids[p]
	if !ok {
		return 0, false
	}
	delete(r.ids, p)
	delete(r.peers, id)
	return id, true
}

func (r *registry) playerID(p *peer) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.ids[p]
	return id, ok
}

// isStarter reports whether id is the lowest id still connected.
func (r *registry) isStarter(id int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.peers[id]; !ok {
		return false
	}
	for other := range r.peers {
		if other < id {
			return false
		}
	}
	return true
}

// joined returns the bound peers ordered by player id.
func (r *registry) joined() []*peer {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]int, 0, len(r.peers))
	for id := range r.peers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]*peer, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.peers[id])
	}
	return out
}

// all returns every attached connection, joined or not.
func (r *registry) all() []*peer {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*peer, 0, len(r.connected))
	for p := range r.connected {
		out = append(out, p)
	}
	return out
}
