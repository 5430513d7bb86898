package player

import (
	"fmt"
	"math/rand/v2"

	"github.com/bjacotg/pompei/internal/game"
)

// Random plays a uniformly chosen legal turn. It is not safe for
// concurrent use.
type Random struct {
	rng *rand.Rand
}

func NewRandom(seed uint64) *Random {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Random{rng: rand.New(rand.NewPCG(seed, seed>>1|1))}
}

func (r *Random) Decide(b game.Board) (game.Turn, error) {
	moves := b.PossibleMoves()
	if len(moves) == 0 {
		return game.Turn{}, fmt.Errorf("%w for %s", ErrNoLegalMove, b.NextPlayer())
	}
	return moves[r.rng.IntN(len(moves))], nil
}
