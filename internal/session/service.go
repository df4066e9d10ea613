package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"wagerquiz/internal/game"
	"wagerquiz/internal/network"
	"wagerquiz/internal/services/events"
	"wagerquiz/internal/services/questions"
	"wagerquiz/internal/utils"
)

// Broadcaster pushes messages to the live subscribers of a game.
type Broadcaster interface {
	Broadcast(gameID string, msg network.Message)
	CloseGame(gameID string, msg network.Message)
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(string, network.Message) {}
func (nopBroadcaster) CloseGame(string, network.Message) {}

// StatePayload is what subscribers of a game receive after every change.
type StatePayload struct {
	GameID string `json:"gameId"`
	game.Snapshot
}

// createAttempts bounds the retries of CreateGameWithGeneratedID.
const createAttempts = 3

// Service is the operation surface of the game server. Every method is safe
// for concurrent use.
type Service struct {
	registry      *Registry
	source        questions.Source
	defaultPolicy questions.Policy
	publisher     events.Publisher
	broadcaster   Broadcaster
	now           func() time.Time
}

type Option func(*Service)

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithBroadcaster(b Broadcaster) Option {
	return func(s *Service) { s.broadcaster = b }
}

// WithDefaultPolicy sets the question policy of games created without one.
func WithDefaultPolicy(p questions.Policy) Option {
	return func(s *Service) { s.defaultPolicy = p }
}

func NewService(registry *Registry, source questions.Source, opts ...Option) *Service {
	s := &Service{
		registry:      registry,
		source:        source,
		defaultPolicy: questions.PolicyFile,
		publisher:     events.Nop{},
		broadcaster:   nopBroadcaster{},
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Games is the number of live games.
func (s *Service) Games() int {
	return s.registry.Len()
}

// ============================================================================
// Lifecycle
// ============================================================================

// CreateGame starts a game under id with player as its first member. An empty
// policy selects the service default.
func (s *Service) CreateGame(ctx context.Context, id, player string, policy questions.Policy) error {
	if _, err := s.registry.lookup(id); err == nil {
		return game.ErrGameConflict
	}
	if policy == "" {
		policy = s.defaultPolicy
	}

	q := s.source.Next(ctx, policy)
	if err := s.registry.Create(id, player, q, policy); err != nil {
		return err
	}

	log.Printf("[Session] Game %s created by %s (questions: %s)", id, player, policy)
	s.publish(ctx, events.Event{Type: events.GameCreated, GameID: id, Player: player, Round: 1})
	return nil
}

// CreateGameWithGeneratedID is CreateGame under a fresh random id.
func (s *Service) CreateGameWithGeneratedID(ctx context.Context, player string, policy questions.Policy) (string, error) {
	for range createAttempts {
		id := uuid.NewString()
		err := s.CreateGame(ctx, id, player, policy)
		if errors.Is(err, game.ErrGameConflict) {
			continue
		}
		if err != nil {
			return "", err
		}
		return id, nil
	}
	return "", fmt.Errorf("no free game id after %d attempts: %w", createAttempts, game.ErrGameConflict)
}

// DeleteGame removes the game and disconnects its subscribers. Deleting a
// game that does not exist does nothing.
func (s *Service) DeleteGame(ctx context.Context, id string) {
	if !s.registry.Delete(id) {
		return
	}
	log.Printf("[Session] Game %s deleted", id)
	s.publish(ctx, events.Event{Type: events.GameDeleted, GameID: id})

	msg, err := network.NewMessage(network.MsgGameDeleted, map[string]string{"gameId": id})
	if err != nil {
		log.Printf("[Session] ERROR: %v", err)
		return
	}
	s.broadcaster.CloseGame(id, msg)
}

// ============================================================================
// Players
// ============================================================================

func (s *Service) JoinGame(ctx context.Context, id, player string) error {
	var round int
	err := s.mutate(id, func(g *game.Game) (bool, error) {
		round = g.Rounds()
		return true, g.AddPlayer(player)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events.Event{Type: events.PlayerJoined, GameID: id, Player: player, Round: round})
	return nil
}

// ExitGame removes player from the game. Removing someone who is not playing
// succeeds.
func (s *Service) ExitGame(ctx context.Context, id, player string) error {
	var present bool
	var round int
	err := s.mutate(id, func(g *game.Game) (bool, error) {
		present = g.HasPlayer(player)
		round = g.Rounds()
		return present, g.RemovePlayer(player)
	})
	if err != nil {
		return err
	}
	if present {
		s.publish(ctx, events.Event{Type: events.PlayerLeft, GameID: id, Player: player, Round: round})
	}
	return nil
}

// ============================================================================
// Rounds
// ============================================================================

func (s *Service) SubmitGuess(ctx context.Context, id string, guess game.Guess) error {
	var round int
	err := s.mutate(id, func(g *game.Game) (bool, error) {
		round = g.Rounds()
		return true, g.SubmitGuess(guess)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events.Event{Type: events.GuessSubmitted, GameID: id, Player: guess.Player, Round: round})
	return nil
}

// SubmitWager records the wager. The wager that completes a round also opens
// the next one.
func (s *Service) SubmitWager(ctx context.Context, id string, wager game.Wager) error {
	e, err := s.registry.lookup(id)
	if err != nil {
		return err
	}

	var (
		round    int
		complete bool
		changes  map[string]int64
		scores   map[string]int64
	)
	err = s.mutateEntry(id, e, func(g *game.Game) (bool, error) {
		if err := g.SubmitWager(wager); err != nil {
			return false, err
		}
		round = g.Rounds()
		if g.CurrentState() == game.StateComplete {
			complete = true
			changes = g.CurrentRound().ScoreChanges(game.PayoutRatio, game.ClosestGuessBonus)
			scores = g.Score()
		}
		return true, nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events.Event{Type: events.WagerSubmitted, GameID: id, Player: wager.Player, Round: round})

	if complete {
		log.Printf("[Session] Game %s finished round %d\n%s", id, round, utils.FormatScores("Score changes", changes))
		s.publish(ctx, events.Event{Type: events.RoundCompleted, GameID: id, Round: round, Scores: scores})
		s.advance(ctx, id, e)
	}
	return nil
}

// advance opens the next round of the game held by e once its current round
// is complete. The question is fetched without holding the game, which stays
// unchanged in the meantime since a complete round accepts no operation. If
// the game is deleted during the fetch nothing happens, even when another
// game has taken its id.
func (s *Service) advance(ctx context.Context, id string, e *entry) {
	q := s.source.Next(ctx, e.policy)

	err := s.mutateEntry(id, e, func(g *game.Game) (bool, error) {
		return g.AdvanceRoundIfComplete(q), nil
	})
	if errors.Is(err, game.ErrGameNotFound) {
		log.Printf("[Session] Game %s deleted before its next round opened", id)
	}
}

// Subscribe hands deliver the current state of the game. It runs with the
// game held, so no state change can be broadcast between the snapshot and
// its delivery.
func (s *Service) Subscribe(_ context.Context, id string, deliver func(network.Message)) error {
	return s.registry.With(id, func(g *game.Game) error {
		msg, err := StateMessage(id, g.Snapshot())
		if err != nil {
			return err
		}
		deliver(msg)
		return nil
	})
}

// ============================================================================
// Reads
// ============================================================================

func (s *Service) GetGame(_ context.Context, id string) (game.Snapshot, error) {
	var snap game.Snapshot
	err := s.registry.With(id, func(g *game.Game) error {
		snap = g.Snapshot()
		return nil
	})
	return snap, err
}

func (s *Service) GetScore(_ context.Context, id string) (map[string]int64, error) {
	var scores map[string]int64
	err := s.registry.With(id, func(g *game.Game) error {
		scores = g.Score()
		return nil
	})
	return scores, err
}

// GetPreviousRoundScore returns the score changes of the last finished round.
func (s *Service) GetPreviousRoundScore(_ context.Context, id string) (map[string]int64, error) {
	var scores map[string]int64
	err := s.registry.With(id, func(g *game.Game) error {
		scores = g.PreviousRoundScore()
		return nil
	})
	return scores, err
}

// ============================================================================
// Helpers
// ============================================================================

// mutate applies fn to the game. When fn reports a change, the new state is
// queued for subscribers before the game is released, so broadcasts of one
// game go out in the order its changes were made.
func (s *Service) mutate(id string, fn func(g *game.Game) (bool, error)) error {
	e, err := s.registry.lookup(id)
	if err != nil {
		return err
	}
	return s.mutateEntry(id, e, fn)
}

func (s *Service) mutateEntry(id string, e *entry, fn func(g *game.Game) (bool, error)) error {
	return s.registry.withEntry(e, func(g *game.Game) error {
		changed, err := fn(g)
		if err != nil || !changed {
			return err
		}
		s.broadcastState(id, g.Snapshot())
		return nil
	})
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	e.At = s.now()
	if err := s.publisher.Publish(ctx, e); err != nil {
		log.Printf("[Session] Failed to publish %s for game %s: %v", e.Type, e.GameID, err)
	}
}

// StateMessage wraps a snapshot of game id for its subscribers.
func StateMessage(id string, snap game.Snapshot) (network.Message, error) {
	return network.NewMessage(network.MsgGameState, StatePayload{GameID: id, Snapshot: snap})
}

func (s *Service) broadcastState(id string, snap game.Snapshot) {
	msg, err := StateMessage(id, snap)
	if err != nil {
		log.Printf("[Session] ERROR: %v", err)
		return
	}
	s.broadcaster.Broadcast(id, msg)
}
