// Package player holds the automated opponents and the closed set of
// seat kinds a game can be configured with.
package player

import (
	"fmt"
	"strings"

	"github.com/bjacotg/pompei/internal/game"
)

// Strategy picks one of the legal turns of a board.
type Strategy interface {
	Decide(b game.Board) (game.Turn, error)
}

type Kind uint8

const (
	KindHuman Kind = iota
	KindRandom
	KindGreedy
)

var kindNames = [...]string{
	KindHuman:  "human",
	KindRandom: "random",
	KindGreedy: "greedy",
}

var kindDisplayNames = [...]string{
	KindHuman:  "Human",
	KindRandom: "Random",
	KindGreedy: "Greedy hill climber",
}

// Kinds lists every seat kind in menu order.
func Kinds() []Kind { return []Kind{KindHuman, KindRandom, KindGreedy} }

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

func (k Kind) DisplayName() string {
	if int(k) < len(kindDisplayNames) {
		return kindDisplayNames[k]
	}
	return k.String()
}

func ParseKind(s string) (Kind, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds() {
		if needle == k.String() || needle == strings.ToLower(k.DisplayName()) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Options tunes the automated strategies. A zero Seed draws a random one;
// an empty Eval selects the Elevation evaluator.
type Options struct {
	Seed uint64
	Eval string
}

// New resolves a seat kind to its strategy. Humans have none: the
// returned Strategy is nil and their turns come from selections.
func New(kind Kind, opts Options) (Strategy, error) {
	switch kind {
	case KindHuman:
		return nil, nil
	case KindRandom:
		return NewRandom(opts.Seed), nil
	case KindGreedy:
		if opts.Eval == "" {
			return &Greedy{Eval: Elevation}, nil
		}
		eval, err := CompileEvaluator(opts.Eval)
		if err != nil {
			return nil, err
		}
		return &Greedy{Eval: eval}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}
}
