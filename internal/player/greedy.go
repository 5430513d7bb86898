package player

import (
	"fmt"

	"github.com/bjacotg/pompei/internal/game"
)

// Evaluator scores the board reached after a turn. Higher is better for
// the player who just moved, i.e. b.NextPlayer().Other().
type Evaluator func(b game.Board) (int64, error)

// Greedy looks one ply ahead and plays the first turn with the best score.
type Greedy struct {
	Eval Evaluator
}

func (g *Greedy) Decide(b game.Board) (game.Turn, error) {
	moves := b.PossibleMoves()
	if len(moves) == 0 {
		return game.Turn{}, fmt.Errorf("%w for %s", ErrNoLegalMove, b.NextPlayer())
	}
	best := -1
	var bestScore int64
	for i, t := range moves {
		next, err := b.Action(t)
		if err != nil {
			return game.Turn{}, fmt.Errorf("apply %s: %w", t, err)
		}
		score, err := g.Eval(next)
		if err != nil {
			return game.Turn{}, fmt.Errorf("evaluate %s: %w", t, err)
		}
		if best < 0 || score > bestScore {
			best, bestScore = i, score
		}
	}
	return moves[best], nil
}

// Elevation counts how high the mover's workers stand: one point per
// worker on a first level, two on a second, three on a third.
func Elevation(b game.Board) (int64, error) {
	workers := b.Workers(b.NextPlayer().Other())
	score := workers.Intersection(b.Level(game.FirstLevel)).Len() +
		2*workers.Intersection(b.Level(game.SecondLevel)).Len() +
		3*workers.Intersection(b.Level(game.ThirdLevel)).Len()
	return int64(score), nil
}
