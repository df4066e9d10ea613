// client follows a game on a wagerquiz server and prints every state change.
//
//	client <game-id>
//
// SERVER_ADDRESSES lists the servers to try, in order.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"wagerquiz/internal/client"
	"wagerquiz/internal/session"
	"wagerquiz/internal/utils"
)

var defaultAddresses = []string{"localhost:8172"}

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: client <game-id>")
		os.Exit(2)
	}
	gameID := os.Args[1]

	addresses := defaultAddresses
	if addrsEnv := os.Getenv("SERVER_ADDRESSES"); addrsEnv != "" {
		addresses = strings.Split(addrsEnv, ",")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Try every server until one streams the game.
	for _, addr := range addresses {
		addr = strings.TrimSpace(addr)
		log.Printf("Following game %s on %s", gameID, addr)

		c := client.New("http://"+addr, nil)
		err := c.Watch(ctx, gameID, printState)
		if err == nil {
			log.Println("Game deleted, stream closed.")
			return
		}
		if errors.Is(err, context.Canceled) {
			log.Println("Interrupted.")
			return
		}
		log.Printf("WARN: %s failed: %v", addr, err)
	}
	log.Fatalf("Could not follow game %s on any server.", gameID)
}

func printState(s session.StatePayload) bool {
	if len(s.Rounds) == 0 {
		return true
	}
	round := s.Rounds[len(s.Rounds)-1]
	fmt.Printf("\n[%s] round %d (%s): %s\n", s.GameID, len(s.Rounds), s.State, round.Question)
	fmt.Printf("players: %s\n", strings.Join(s.Players, ", "))
	for _, g := range round.Guesses {
		fmt.Printf("  %s guessed %d\n", g.Player, g.Value)
	}
	for _, w := range round.Wagers {
		fmt.Printf("  %s wagered %d on %s\n", w.Player, w.Amount, w.Target)
	}
	if len(s.Rounds) > 1 {
		if result := s.Rounds[len(s.Rounds)-2].Result; result != nil {
			fmt.Printf("last answer: %d, closest guess: %s\n", result.Answer, result.ClosestGuess)
			fmt.Print(utils.FormatScores("Last round", result.ScoreChanges))
		}
	}
	return true
}
