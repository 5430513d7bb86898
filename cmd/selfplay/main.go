// Command selfplay pits two automated strategies against each other and
// prints the board after every turn.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/bjacotg/pompei/internal/game"
	"github.com/bjacotg/pompei/internal/match"
	"github.com/bjacotg/pompei/internal/player"
)

func main() {
	p1 := flag.String("player1", getenv("POMPEI_PLAYER1", "random"), "strategy for Player 1: "+kindList())
	p2 := flag.String("player2", getenv("POMPEI_PLAYER2", "greedy"), "strategy for Player 2: "+kindList())
	eval := flag.String("eval", getenv("POMPEI_EVAL", ""), "greedy evaluator expression (empty: elevation)")
	seed := flag.Uint64("seed", 0, "random seed (0: time based)")
	maxTurns := flag.Int("max-turns", 0, "stop after this many turns (0: play to the end)")
	games := flag.Int("games", 1, "number of games; boards are only printed for a single game")
	verbose := flag.Bool("v", false, "log every automated turn")
	flag.Parse()

	logger := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		fatalIf(err, "logger")
		logger = l
	}
	defer func() { _ = logger.Sync() }()

	k1, err := parseAutomated(*p1)
	fatalIf(err, "player1")
	k2, err := parseAutomated(*p2)
	fatalIf(err, "player2")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var wins [2]int
	for i := 0; i < *games; i++ {
		var seeds [2]uint64
		if *seed != 0 {
			seeds = [2]uint64{*seed + uint64(2*i), *seed + uint64(2*i+1)}
		}
		s1, err := match.NewSeat(k1, player.Options{Seed: seeds[0], Eval: *eval})
		fatalIf(err, "player1")
		s2, err := match.NewSeat(k2, player.Options{Seed: seeds[1], Eval: *eval})
		fatalIf(err, "player2")

		m := match.New([2]match.Seat{s1, s2}, logger.With(zap.Int("game", i+1)))
		var onTurn func(game.Turn, game.Board)
		if *games == 1 {
			fmt.Println(m.Game().Board())
			onTurn = func(t game.Turn, b game.Board) {
				fmt.Printf("%s: %s\n%s\n", b.NextPlayer().Other(), t, b)
			}
		}
		winner, err := m.Run(ctx, *maxTurns, onTurn)
		fatalIf(err, fmt.Sprintf("game %d", i+1))
		wins[winner.Index()]++
		if *games == 1 {
			fmt.Printf("%s (%s) wins after %d turns\n", winner, [2]player.Kind{k1, k2}[winner.Index()].DisplayName(), m.Turns())
		}
	}
	if *games > 1 {
		fmt.Printf("%s (%s): %d\n%s (%s): %d\n",
			game.Player1, k1.DisplayName(), wins[0],
			game.Player2, k2.DisplayName(), wins[1])
	}
}

func parseAutomated(s string) (player.Kind, error) {
	k, err := player.ParseKind(s)
	if err != nil {
		return 0, err
	}
	if k == player.KindHuman {
		return 0, fmt.Errorf("%s cannot play from the command line; valid: %s", k, kindList())
	}
	return k, nil
}

func kindList() string {
	var names []string
	for _, k := range player.Kinds() {
		if k != player.KindHuman {
			names = append(names, strconv.Quote(k.String()))
		}
	}
	return strings.Join(names, ", ")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func fatalIf(err error, label string) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", label, err)
		os.Exit(1)
	}
}
