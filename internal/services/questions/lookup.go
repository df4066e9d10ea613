package questions

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/cenkalti/backoff/v5"

	"wagerquiz/internal/game"
)

const (
	defaultAttempts       = 5
	defaultAttemptTimeout = 3 * time.Second
	defaultBackoff        = 200 * time.Millisecond
)

var errNoRemote = errors.New("no remote question source configured")

// Fetcher gets a single question from a remote service.
type Fetcher interface {
	Fetch(ctx context.Context) (game.Question, error)
}

// Lookup is the Source used by the game service. The file policy reads the
// rotation; the remote policy tries the fetcher a bounded number of times and
// falls back to the rotation.
type Lookup struct {
	rotation       *Rotation
	remote         Fetcher
	attempts       uint
	attemptTimeout time.Duration
	backoff        time.Duration
}

type LookupOption func(*Lookup)

func WithRemote(f Fetcher) LookupOption {
	return func(l *Lookup) { l.remote = f }
}

func WithAttempts(n uint) LookupOption {
	return func(l *Lookup) {
		if n > 0 {
			l.attempts = n
		}
	}
}

// WithAttemptTimeout bounds every single remote request.
func WithAttemptTimeout(d time.Duration) LookupOption {
	return func(l *Lookup) {
		if d > 0 {
			l.attemptTimeout = d
		}
	}
}

// WithBackoff sets the wait before the second attempt; it doubles after each
// further failure.
func WithBackoff(d time.Duration) LookupOption {
	return func(l *Lookup) {
		if d > 0 {
			l.backoff = d
		}
	}
}

func NewLookup(rotation *Rotation, opts ...LookupOption) *Lookup {
	if rotation == nil {
		rotation = NewRotation(nil, nil)
	}
	l := &Lookup{
		rotation:       rotation,
		attempts:       defaultAttempts,
		attemptTimeout: defaultAttemptTimeout,
		backoff:        defaultBackoff,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Next implements Source.
func (l *Lookup) Next(ctx context.Context, policy Policy) game.Question {
	if policy == PolicyNumbersAPI {
		q, err := l.fetchRemote(ctx)
		if err == nil {
			return q
		}
		log.Printf("[Questions] WARN: remote question unavailable, using local list: %v", err)
	}
	return l.rotation.Next()
}

func (l *Lookup) Rotation() *Rotation {
	return l.rotation
}

func (l *Lookup) fetchRemote(ctx context.Context) (game.Question, error) {
	if l.remote == nil {
		return game.Question{}, errNoRemote
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = l.backoff
	b.Multiplier = 2
	b.RandomizationFactor = 0

	attempt := 0
	operation := func() (game.Question, error) {
		attempt++
		attemptCtx, cancel := context.WithTimeout(ctx, l.attemptTimeout)
		defer cancel()

		q, err := l.remote.Fetch(attemptCtx)
		if err != nil {
			log.Printf("[Questions] WARN: attempt %d/%d to fetch a remote question failed: %v", attempt, l.attempts, err)
			return game.Question{}, err
		}
		return q, nil
	}
	return backoff.Retry(ctx, operation, backoff.WithBackOff(b), backoff.WithMaxTries(l.attempts))
}
