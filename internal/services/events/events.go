package events

import (
	"context"
	"sync"
	"time"
)

// Type names a domain event of a game session.
type Type string

const (
	GameCreated    Type = "game.created"
	GameDeleted    Type = "game.deleted"
	PlayerJoined   Type = "player.joined"
	PlayerLeft     Type = "player.left"
	GuessSubmitted Type = "guess.submitted"
	WagerSubmitted Type = "wager.submitted"
	RoundCompleted Type = "round.completed"
)

// Event is published after a game operation has been applied.
type Event struct {
	Type   Type             `json:"type"`
	GameID string           `json:"gameId"`
	Player string           `json:"player,omitempty"`
	Round  int              `json:"round,omitempty"`
	Scores map[string]int64 `json:"scores,omitempty"`
	At     time.Time        `json:"at"`
}

// Publisher delivers events to whoever listens outside the process.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop drops every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types returns the types of the published events in order.
func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}
