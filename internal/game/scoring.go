package game

const (
	// StartingScore is what every player holds before the first completed round.
	StartingScore int64 = 1
	// PayoutRatio multiplies a wager placed on the closest guess.
	PayoutRatio int64 = 3
	// ClosestGuessBonus is added for every player who made the closest guess.
	ClosestGuessBonus int64 = 3
)

// ScoreChanges computes the per-player score delta of the round.
//
// A wager on the closest guess pays amount*payoutRatio. A losing wager of at
// least one point costs all but one point of the amount; a zero wager costs
// nothing. Every player whose guess equals the closest guess then gets the
// full bonus, ties included. Players with neither a wager nor the bonus have
// no entry.
func (r *Round) ScoreChanges(payoutRatio, closestGuessBonus int64) map[string]int64 {
	changes := make(map[string]int64)
	closest := r.ClosestGuess()

	for player, w := range r.wagers {
		switch {
		case w.Target == closest:
			changes[player] = w.Amount * payoutRatio
		case w.Amount >= 1:
			changes[player] = -w.Amount + 1
		default:
			changes[player] = 0
		}
	}

	if closest.Valid {
		for player, g := range r.guesses {
			if g.Value == closest.Value {
				changes[player] += closestGuessBonus
			}
		}
	}
	return changes
}
