package questions

import (
	"context"
	"fmt"

	"wagerquiz/internal/game"
)

// Policy selects where the next question of a game comes from.
type Policy string

const (
	// PolicyFile cycles through the locally loaded question list.
	PolicyFile Policy = "file"
	// PolicyNumbersAPI asks the remote trivia service first and falls back to
	// the local list.
	PolicyNumbersAPI Policy = "numbersapi"
)

// ParsePolicy validates a policy name. The empty string is not a policy;
// callers substitute their configured default before parsing.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyFile, PolicyNumbersAPI:
		return p, nil
	default:
		return "", fmt.Errorf("unknown question source %q", s)
	}
}

func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Source supplies the question of the next round. It never fails: a source
// that cannot reach its backend resolves to a local question.
type Source interface {
	Next(ctx context.Context, policy Policy) game.Question
}
