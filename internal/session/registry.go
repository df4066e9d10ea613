package session

import (
	"fmt"
	"sync"

	"wagerquiz/internal/game"
	"wagerquiz/internal/services/questions"
)

// entry is one live session. Its mutex serialises every operation on the
// game; closed is set when the session is deleted while someone still holds
// a reference to the entry.
type entry struct {
	mu     sync.Mutex
	game   *game.Game
	policy questions.Policy
	closed bool
}

// Registry maps game ids to live sessions. Operations on different games
// never wait for each other; operations on the same game run one at a time.
type Registry struct {
	mu    sync.RWMutex
	games map[string]*entry
}

func NewRegistry() *Registry {
	return &Registry{games: make(map[string]*entry)}
}

// Create starts a game under id with a first round asking q and player as
// its only member.
func (r *Registry) Create(id, player string, q game.Question, policy questions.Policy) error {
	g := game.New()
	g.AdvanceRoundIfComplete(q)
	if err := g.AddPlayer(player); err != nil {
		// A fresh game is always in the start state.
		panic(fmt.Sprintf("session: adding first player to new game: %v", err))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.games[id]; ok {
		return game.ErrGameConflict
	}
	r.games[id] = &entry{game: g, policy: policy}
	return nil
}

// With runs fn with exclusive access to the game stored under id. fn must not
// keep the game after it returns.
func (r *Registry) With(id string, fn func(g *game.Game) error) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	return r.withEntry(e, fn)
}

// withEntry is With on an entry the caller already holds. It fails once the
// entry is deleted, even if a new game has since been created under its id.
func (r *Registry) withEntry(e *entry, fn func(g *game.Game) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return game.ErrGameNotFound
	}
	return fn(e.game)
}

// Delete removes the game. Deleting an unknown id is not an error.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	e, ok := r.games[id]
	delete(r.games, id)
	r.mu.Unlock()
	if !ok {
		return false
	}

	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	return true
}

// Len is the number of live games.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}

func (r *Registry) lookup(id string) (*entry, error) {
	r.mu.RLock()
	e, ok := r.games[id]
	r.mu.RUnlock()
	if !ok {
		return nil, game.ErrGameNotFound
	}
	return e, nil
}
