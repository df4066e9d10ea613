package game

import "sort"

// Game is a set of players and the ordered rounds they have played. The last
// round is the current one and the only one that can still change.
//
// A Game is not safe for concurrent use; the session registry hands out
// exclusive access to it.
type Game struct {
	players map[string]struct{}
	rounds  []*Round
}

// New returns a game with no players and no rounds. Call
// AdvanceRoundIfComplete to seed the first round before adding players.
func New() *Game {
	return &Game{players: make(map[string]struct{})}
}

// ============================================================================
// Players
// ============================================================================

// AddPlayer adds a player while the current round has not started.
func (g *Game) AddPlayer(name string) error {
	if g.CurrentState() != StateStart {
		return ErrRoundNotInStartState
	}
	if _, ok := g.players[name]; ok {
		return ErrPlayerConflict
	}
	g.players[name] = struct{}{}
	return nil
}

// RemovePlayer removes a player while the current round has not started.
// Removing a player that is not in the game succeeds.
func (g *Game) RemovePlayer(name string) error {
	if g.CurrentState() != StateStart {
		return ErrRoundNotInStartState
	}
	delete(g.players, name)
	return nil
}

func (g *Game) HasPlayer(name string) bool {
	_, ok := g.players[name]
	return ok
}

// Players returns the player names in lexical order.
func (g *Game) Players() []string {
	out := make([]string, 0, len(g.players))
	for p := range g.players {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// ============================================================================
// Guesses and wagers
// ============================================================================

// SubmitGuess records or replaces the player's guess for the current round.
func (g *Game) SubmitGuess(guess Guess) error {
	if !g.HasPlayer(guess.Player) {
		return ErrPlayerNotFound
	}
	state := g.CurrentState()
	if state != StateStart && state != StateCollectingGuesses {
		return ErrRoundNotInCollectingGuessesState
	}
	g.CurrentRound().putGuess(guess)
	return nil
}

// SubmitWager records or replaces the player's wager for the current round.
// The target, when set, must be one of this round's guesses, and the amount
// may not exceed the player's score. A zero wager is always accepted.
func (g *Game) SubmitWager(w Wager) error {
	if !g.HasPlayer(w.Player) {
		return ErrPlayerNotFound
	}
	if g.CurrentState() != StateCollectingWagers {
		return ErrRoundNotInCollectingWagersState
	}
	round := g.CurrentRound()
	if w.Target.Valid && !round.HasGuessValue(w.Target.Value) {
		return ErrGuessNotFound
	}
	if w.Amount < 0 || (w.Amount > 0 && w.Amount > g.Score()[w.Player]) {
		return ErrInvalidWager
	}
	round.putWager(w)
	return nil
}

// ============================================================================
// Rounds
// ============================================================================

// AdvanceRoundIfComplete appends a round seeded with q when there is no round
// yet or the current one is complete. It reports whether a round was added.
func (g *Game) AdvanceRoundIfComplete(q Question) bool {
	if len(g.rounds) > 0 && g.CurrentState() != StateComplete {
		return false
	}
	g.rounds = append(g.rounds, newRound(q))
	return true
}

// CurrentRound returns the most recent round, or nil before the first one.
func (g *Game) CurrentRound() *Round {
	if len(g.rounds) == 0 {
		return nil
	}
	return g.rounds[len(g.rounds)-1]
}

// CurrentState is the state of the current round. A game with no rounds
// reports StateStart.
func (g *Game) CurrentState() RoundState {
	round := g.CurrentRound()
	if round == nil {
		return StateStart
	}
	return round.State(len(g.players))
}

func (g *Game) Rounds() int {
	return len(g.rounds)
}

// roundComplete reports whether the i-th round is complete. Earlier rounds
// always are, since a round is only appended once its predecessor completes;
// their counts are not compared against today's players, who may have joined
// or left since.
func (g *Game) roundComplete(i int) bool {
	if i < len(g.rounds)-1 {
		return true
	}
	return g.CurrentState() == StateComplete
}

// ============================================================================
// Scores
// ============================================================================

// Score returns every current player's cumulative score. Everyone starts at
// StartingScore and each complete round adds its score changes; the round in
// progress does not count.
func (g *Game) Score() map[string]int64 {
	scores := make(map[string]int64, len(g.players))
	for p := range g.players {
		scores[p] = StartingScore
	}
	for i, round := range g.rounds {
		if !g.roundComplete(i) {
			continue
		}
		for p, delta := range round.ScoreChanges(PayoutRatio, ClosestGuessBonus) {
			if _, ok := scores[p]; ok {
				scores[p] += delta
			}
		}
	}
	return scores
}

// PreviousRoundScore returns the score changes of the round before the
// current one, or an empty map when fewer than two rounds exist.
func (g *Game) PreviousRoundScore() map[string]int64 {
	if len(g.rounds) < 2 {
		return map[string]int64{}
	}
	return g.rounds[len(g.rounds)-2].ScoreChanges(PayoutRatio, ClosestGuessBonus)
}
