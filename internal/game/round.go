package game

import (
	"fmt"
	"sort"
)

// RoundState is derived from the guess and wager counts of a round against
// the number of players in the game. It is never stored.
type RoundState string

const (
	StateStart             RoundState = "start"
	StateCollectingGuesses RoundState = "collecting_guesses"
	StateCollectingWagers  RoundState = "collecting_wagers"
	StateComplete          RoundState = "complete"
)

// Round is one question-guess-wager cycle. Guesses and wagers are keyed by
// player so a resubmission replaces the earlier one.
type Round struct {
	question Question
	guesses  map[string]Guess
	wagers   map[string]Wager
}

func newRound(q Question) *Round {
	return &Round{
		question: q,
		guesses:  make(map[string]Guess),
		wagers:   make(map[string]Wager),
	}
}

// State computes the round's state for a game with the given number of
// players. A count combination no valid operation sequence can produce is a
// broken invariant and panics.
func (r *Round) State(players int) RoundState {
	guesses, wagers := len(r.guesses), len(r.wagers)
	switch {
	case guesses == 0 && wagers == 0:
		return StateStart
	case guesses < players && wagers == 0:
		return StateCollectingGuesses
	case guesses == players && wagers < players:
		return StateCollectingWagers
	case guesses == players && wagers == players:
		return StateComplete
	default:
		panic(fmt.Sprintf("round in unknown state: %d guesses, %d wagers, %d players", guesses, wagers, players))
	}
}

func (r *Round) Question() Question {
	return r.question
}

func (r *Round) GuessCount() int {
	return len(r.guesses)
}

func (r *Round) WagerCount() int {
	return len(r.wagers)
}

// Guesses returns the round's guesses ordered by player.
func (r *Round) Guesses() []Guess {
	out := make([]Guess, 0, len(r.guesses))
	for _, g := range r.guesses {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Player < out[j].Player })
	return out
}

// Wagers returns the round's wagers ordered by player.
func (r *Round) Wagers() []Wager {
	out := make([]Wager, 0, len(r.wagers))
	for _, w := range r.wagers {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Player < out[j].Player })
	return out
}

// HasGuessValue reports whether any player guessed v this round.
func (r *Round) HasGuessValue(v uint32) bool {
	for _, g := range r.guesses {
		if g.Value == v {
			return true
		}
	}
	return false
}

// ClosestGuess returns the highest guess that does not exceed the answer, or
// BelowAll when every guess is too high.
func (r *Round) ClosestGuess() Target {
	closest := BelowAll()
	for _, g := range r.guesses {
		if g.Value > r.question.Answer {
			continue
		}
		if !closest.Valid || g.Value > closest.Value {
			closest = On(g.Value)
		}
	}
	return closest
}

func (r *Round) putGuess(g Guess) {
	r.guesses[g.Player] = g
}

func (r *Round) putWager(w Wager) {
	r.wagers[w.Player] = w
}
