package player

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/bjacotg/pompei/internal/game"
)

// ElevationExpr is Elevation written as an evaluator expression.
const ElevationExpr = `MoverFirst + 2 * MoverSecond + 3 * MoverThird`

// EvalEnv exposes board features to evaluator expressions. Mover is the
// player who just moved, Opponent the one about to act.
type EvalEnv struct {
	MoverFirst     int
	MoverSecond    int
	MoverThird     int
	OpponentFirst  int
	OpponentSecond int
	OpponentThird  int
	Domes          int
	OpponentMoves  int
	Won            bool
}

func newEvalEnv(b game.Board) EvalEnv {
	mover := b.Workers(b.NextPlayer().Other())
	opponent := b.Workers(b.NextPlayer())
	first := b.Level(game.FirstLevel)
	second := b.Level(game.SecondLevel)
	third := b.Level(game.ThirdLevel)
	winner, won := b.Winner()
	return EvalEnv{
		MoverFirst:     mover.Intersection(first).Len(),
		MoverSecond:    mover.Intersection(second).Len(),
		MoverThird:     mover.Intersection(third).Len(),
		OpponentFirst:  opponent.Intersection(first).Len(),
		OpponentSecond: opponent.Intersection(second).Len(),
		OpponentThird:  opponent.Intersection(third).Len(),
		Domes:          b.Level(game.Dome).Len(),
		OpponentMoves:  len(b.PossibleMoves()),
		Won:            won && winner == b.NextPlayer().Other(),
	}
}

// CompileEvaluator builds an Evaluator from an expression over EvalEnv,
// for example `Won ? 100 : 2 * MoverSecond - OpponentSecond`.
func CompileEvaluator(src string) (Evaluator, error) {
	program, err := expr.Compile(src, expr.Env(EvalEnv{}), expr.AsInt64())
	if err != nil {
		return nil, fmt.Errorf("compile evaluator %q: %w", src, err)
	}
	return programEvaluator(program), nil
}

func programEvaluator(program *vm.Program) Evaluator {
	return func(b game.Board) (int64, error) {
		out, err := vm.Run(program, newEvalEnv(b))
		if err != nil {
			return 0, err
		}
		score, ok := out.(int64)
		if !ok {
			return 0, fmt.Errorf("evaluator returned %T", out)
		}
		return score, nil
	}
}
