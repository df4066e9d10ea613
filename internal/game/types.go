package game

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Question is the prompt of a round together with its numeric answer.
type Question struct {
	Text   string `json:"question"`
	Answer uint32 `json:"answer"`
}

// Guess is a player's numeric answer to the round's question.
type Guess struct {
	Player string `json:"player"`
	Value  uint32 `json:"guess"`
}

// Target is the guess a wager is placed on. A Target that is not Valid
// stands for "the answer is below every guess".
type Target struct {
	Value uint32
	Valid bool
}

// On returns a Target pointing at the guess value v.
func On(v uint32) Target {
	return Target{Value: v, Valid: true}
}

// BelowAll returns the Target for "nobody guessed low enough".
func BelowAll() Target {
	return Target{}
}

func (t Target) String() string {
	if !t.Valid {
		return "below-all"
	}
	return strconv.FormatUint(uint64(t.Value), 10)
}

// MarshalJSON encodes the target as a number, or null for BelowAll.
func (t Target) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatUint(uint64(t.Value), 10)), nil
}

func (t *Target) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = BelowAll()
		return nil
	}
	var v uint32
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("target must be a non-negative guess value or null: %w", err)
	}
	*t = On(v)
	return nil
}

// Wager is a player's bet that Target is the closest guess without going over.
type Wager struct {
	Player string `json:"player"`
	Target Target `json:"guess"`
	Amount int64  `json:"wager"`
}
