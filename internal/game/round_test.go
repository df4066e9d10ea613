package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundWith(answer uint32, guesses map[string]uint32, wagers ...Wager) *Round {
	r := newRound(Question{Text: "How many?", Answer: answer})
	for p, v := range guesses {
		r.putGuess(Guess{Player: p, Value: v})
	}
	for _, w := range wagers {
		r.putWager(w)
	}
	return r
}

func TestClosestGuess(t *testing.T) {
	tests := []struct {
		name    string
		answer  uint32
		guesses map[string]uint32
		want    Target
	}{
		{name: "highest not over", answer: 5, guesses: map[string]uint32{"a": 2, "b": 4, "c": 6}, want: On(4)},
		{name: "exact", answer: 5, guesses: map[string]uint32{"a": 5, "b": 9}, want: On(5)},
		{name: "everyone over", answer: 5, guesses: map[string]uint32{"a": 6, "b": 8}, want: BelowAll()},
		{name: "no guesses", answer: 5, want: BelowAll()},
		{name: "zero answer", answer: 0, guesses: map[string]uint32{"a": 0, "b": 1}, want: On(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := roundWith(tt.answer, tt.guesses)
			assert.Equal(t, tt.want, r.ClosestGuess())
		})
	}
}

func TestScoreChangesCorrectWager(t *testing.T) {
	r := roundWith(5, map[string]uint32{"p1": 5}, Wager{Player: "p1", Target: On(5), Amount: 10})

	assert.Equal(t, map[string]int64{"p1": 35}, r.ScoreChanges(3, 5))
}

func TestScoreChangesIncorrectWager(t *testing.T) {
	r := roundWith(5, map[string]uint32{"p1": 3}, Wager{Player: "p1", Target: On(10), Amount: 5})

	// -5+1 for the lost wager, +2 because 3 is still the closest guess.
	assert.Equal(t, map[string]int64{"p1": -2}, r.ScoreChanges(3, 2))
}

func TestScoreChangesBelowAllWager(t *testing.T) {
	r := roundWith(2,
		map[string]uint32{"a": 7, "b": 9},
		Wager{Player: "a", Target: BelowAll(), Amount: 2},
		Wager{Player: "b", Target: On(7), Amount: 1},
	)

	assert.Equal(t, map[string]int64{"a": 6, "b": 0}, r.ScoreChanges(3, 3))
}

func TestScoreChangesZeroWagerAndTies(t *testing.T) {
	r := roundWith(10,
		map[string]uint32{"a": 8, "b": 8, "c": 3, "d": 12},
		Wager{Player: "a", Target: On(3), Amount: 0},
		Wager{Player: "c", Target: On(12), Amount: 4},
	)

	changes := r.ScoreChanges(3, 3)

	// Both players on the closest guess get the full bonus; d has no entry.
	assert.Equal(t, map[string]int64{"a": 3, "b": 3, "c": -3}, changes)
	_, ok := changes["d"]
	assert.False(t, ok)
}

func TestRoundState(t *testing.T) {
	r := newRound(Question{Answer: 1})
	assert.Equal(t, StateStart, r.State(2))

	r.putGuess(Guess{Player: "a", Value: 1})
	assert.Equal(t, StateCollectingGuesses, r.State(2))

	r.putGuess(Guess{Player: "b", Value: 2})
	assert.Equal(t, StateCollectingWagers, r.State(2))

	r.putWager(Wager{Player: "a"})
	assert.Equal(t, StateCollectingWagers, r.State(2))

	r.putWager(Wager{Player: "b"})
	assert.Equal(t, StateComplete, r.State(2))
}

func TestRoundStatePanicsOnImpossibleCounts(t *testing.T) {
	r := roundWith(1, map[string]uint32{"a": 1, "b": 2, "c": 3})

	assert.Panics(t, func() { r.State(2) })
}

func TestTargetJSON(t *testing.T) {
	var w Wager
	require.NoError(t, json.Unmarshal([]byte(`{"player":"a","guess":null,"wager":2}`), &w))
	assert.Equal(t, Wager{Player: "a", Target: BelowAll(), Amount: 2}, w)

	require.NoError(t, json.Unmarshal([]byte(`{"player":"a","guess":7,"wager":2}`), &w))
	assert.Equal(t, On(7), w.Target)

	assert.Error(t, json.Unmarshal([]byte(`{"player":"a","guess":-1}`), &w))

	data, err := json.Marshal(Wager{Player: "b", Target: BelowAll()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"player":"b","guess":null,"wager":0}`, string(data))
}
