package game

// Snapshot is a detached, JSON-ready copy of a game. The outcome of a round is
// only revealed once the round is complete.
type Snapshot struct {
	Players []string        `json:"players"`
	Rounds  []RoundSnapshot `json:"rounds"`
	State   RoundState      `json:"state"`
}

type RoundSnapshot struct {
	Question string       `json:"question"`
	State    RoundState   `json:"state"`
	Guesses  []Guess      `json:"guesses"`
	Wagers   []Wager      `json:"wagers"`
	Result   *RoundResult `json:"result,omitempty"` // nil until the round is complete
}

// RoundResult is the outcome of a complete round. ClosestGuess encodes as
// null when the answer is below every guess.
type RoundResult struct {
	Answer       uint32           `json:"answer"`
	ClosestGuess Target           `json:"closestGuess"`
	ScoreChanges map[string]int64 `json:"scoreChanges"`
}

// Snapshot copies the game's current state.
func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		Players: g.Players(),
		Rounds:  make([]RoundSnapshot, 0, len(g.rounds)),
		State:   g.CurrentState(),
	}
	for i, round := range g.rounds {
		rs := RoundSnapshot{
			Question: round.question.Text,
			State:    StateComplete,
			Guesses:  round.Guesses(),
			Wagers:   round.Wagers(),
		}
		if !g.roundComplete(i) {
			rs.State = g.CurrentState()
		} else {
			rs.Result = &RoundResult{
				Answer:       round.question.Answer,
				ClosestGuess: round.ClosestGuess(),
				ScoreChanges: round.ScoreChanges(PayoutRatio, ClosestGuessBonus),
			}
		}
		s.Rounds = append(s.Rounds, rs)
	}
	return s
}
