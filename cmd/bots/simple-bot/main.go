// simple-bot opens a game on a wagerquiz server, fills it with bots and plays
// a few rounds through the HTTP API.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/sync/errgroup"

	"wagerquiz/internal/client"
	"wagerquiz/internal/game"
	"wagerquiz/internal/services/questions"
	"wagerquiz/internal/utils"
)

type botConfig struct {
	Server         string           `env:"BOT_SERVER" envDefault:"http://localhost:8172"`
	Players        int              `env:"BOT_PLAYERS" envDefault:"3"`
	Rounds         int              `env:"BOT_ROUNDS" envDefault:"3"`
	MaxGuess       uint32           `env:"BOT_MAX_GUESS" envDefault:"100"`
	QuestionSource questions.Policy `env:"BOT_QUESTION_SOURCE" envDefault:"file"`
	Timeout        time.Duration    `env:"BOT_TIMEOUT" envDefault:"2m"`
}

func main() {
	var cfg botConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("Fatal: invalid bot configuration: %v", err)
	}
	if cfg.Players < 1 || cfg.Rounds < 1 || cfg.MaxGuess < 1 {
		log.Fatalf("Fatal: BOT_PLAYERS, BOT_ROUNDS and BOT_MAX_GUESS must be positive")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	c := client.New(cfg.Server, nil)
	bots := make([]string, cfg.Players)
	for i := range bots {
		bots[i] = fmt.Sprintf("bot-%d", i+1)
	}

	id, err := c.CreateGame(ctx, bots[0], cfg.QuestionSource)
	if err != nil {
		log.Fatalf("FAIL: could not create game: %v", err)
	}
	log.Printf("Game %s created by %s", id, bots[0])
	defer func() {
		if err := c.DeleteGame(context.Background(), id); err != nil {
			log.Printf("WARN: could not delete game %s: %v", id, err)
		}
	}()

	for _, bot := range bots[1:] {
		if err := c.JoinGame(ctx, id, bot); err != nil {
			log.Fatalf("FAIL: %s could not join: %v", bot, err)
		}
	}

	for round := 1; round <= cfg.Rounds; round++ {
		if err := playRound(ctx, c, id, bots, cfg.MaxGuess); err != nil {
			log.Fatalf("FAIL: round %d: %v", round, err)
		}
		scores, err := c.Score(ctx, id)
		if err != nil {
			log.Fatalf("FAIL: could not read scores: %v", err)
		}
		log.Printf("Round %d done\n%s", round, utils.FormatScores("Scores", scores))
	}
}

// playRound has every bot guess at random and then wager one point, while it
// has any, on either its own guess or the next lower one.
func playRound(ctx context.Context, c *client.Client, id string, bots []string, maxGuess uint32) error {
	snap, err := c.GetGame(ctx, id)
	if err != nil {
		return err
	}
	log.Printf("Question: %s", snap.Rounds[len(snap.Rounds)-1].Question)

	guesses := make(map[string]uint32, len(bots))
	for _, bot := range bots {
		guesses[bot] = rand.Uint32N(maxGuess + 1)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, bot := range bots {
		g.Go(func() error {
			return c.SubmitGuess(gctx, id, bot, guesses[bot])
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("guessing: %w", err)
	}

	scores, err := c.Score(ctx, id)
	if err != nil {
		return err
	}

	g, gctx = errgroup.WithContext(ctx)
	for _, bot := range bots {
		target := game.On(guesses[bot])
		if rand.IntN(2) == 0 {
			target = nextLower(guesses[bot], guesses)
		}
		var amount int64
		if scores[bot] >= 1 {
			amount = 1
		}
		g.Go(func() error {
			return c.SubmitWager(gctx, id, bot, target, amount)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("wagering: %w", err)
	}
	return nil
}

// nextLower is the highest guess below own, or below-all when there is none.
func nextLower(own uint32, guesses map[string]uint32) game.Target {
	best := game.BelowAll()
	for _, v := range guesses {
		if v < own && (!best.Valid || v > best.Value) {
			best = game.On(v)
		}
	}
	return best
}
