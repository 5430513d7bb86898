package game

import (
	"fmt"
	"strings"
)

type Player uint8

const (
	Player1 Player = iota
	Player2
)

func (p Player) Other() Player {
	if p == Player1 {
		return Player2
	}
	return Player1
}

func (p Player) Index() int { return int(p) }

func (p Player) String() string {
	if p == Player1 {
		return "Player 1"
	}
	return "Player 2"
}

// Construction is the height of the structure standing on a cell.
type Construction uint8

const (
	GroundLevel Construction = iota
	FirstLevel
	SecondLevel
	ThirdLevel
	Dome
)

func (c Construction) String() string {
	switch c {
	case GroundLevel:
		return "ground"
	case FirstLevel:
		return "first"
	case SecondLevel:
		return "second"
	case ThirdLevel:
		return "third"
	case Dome:
		return "dome"
	default:
		return fmt.Sprintf("construction(%d)", c)
	}
}

// Build returns the level reached after one build step. A dome caps the cell for good.
func (c Construction) Build() (Construction, error) {
	if c >= Dome {
		return c, fmt.Errorf("%w: cannot build on %s", ErrInvalidMove, c)
	}
	return c + 1, nil
}

// CanMove reports whether a worker standing at level c may step onto next.
// Climbing is limited to one level, descending is free and domes are never
// enterable.
func (c Construction) CanMove(next Construction) bool {
	switch {
	case next == Dome:
		return false
	case next == ThirdLevel:
		return c == SecondLevel
	default:
		return next <= c+1
	}
}

// Tile describes one cell: its construction and the worker standing on it.
type Tile struct {
	Construction Construction
	Player       Player
	Occupied     bool
}

// TurnKind tags the three shapes a completed turn can take.
type TurnKind uint8

const (
	TurnSetup TurnKind = iota
	TurnMoveBuild
	TurnFinalMove
)

var turnKindNames = [...]string{
	TurnSetup:     "setup",
	TurnMoveBuild: "move_build",
	TurnFinalMove: "final_move",
}

func (k TurnKind) String() string {
	if int(k) < len(turnKindNames) {
		return turnKindNames[k]
	}
	return fmt.Sprintf("turn(%d)", k)
}

func (k TurnKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *TurnKind) UnmarshalText(text []byte) error {
	needle := strings.ToLower(strings.TrimSpace(string(text)))
	for i, name := range turnKindNames {
		if name == needle {
			*k = TurnKind(i)
			return nil
		}
	}
	return fmt.Errorf("invalid turn kind %q", string(text))
}

// Stage is the step of a turn being assembled from single-cell selections.
type Stage uint8

const (
	StageNothingSetup Stage = iota
	StagePartialSetup
	StageNothing
	StageSelection
	StageMove
)

func (s Stage) String() string {
	switch s {
	case StageNothingSetup:
		return "nothing_setup"
	case StagePartialSetup:
		return "partial_setup"
	case StageNothing:
		return "nothing"
	case StageSelection:
		return "selection"
	case StageMove:
		return "move"
	default:
		return fmt.Sprintf("stage(%d)", s)
	}
}

// Setup reports whether the stage belongs to worker placement.
func (s Stage) Setup() bool { return s == StageNothingSetup || s == StagePartialSetup }

func (s Stage) prompt() string {
	switch s {
	case StageNothingSetup:
		return "Place your first worker!"
	case StagePartialSetup:
		return "Place your second worker!"
	case StageNothing:
		return "Pick a worker!"
	case StageSelection:
		return "Move your worker!"
	case StageMove:
		return "Build!"
	default:
		return ""
	}
}
