package game

import "fmt"

// Turn is a completed action. For TurnSetup, Start and End are the two
// cells receiving workers; Build is only set for TurnMoveBuild.
type Turn struct {
	Kind  TurnKind `json:"kind"`
	Start Position `json:"start"`
	End   Position `json:"end"`
	Build Position `json:"build,omitzero"`
}

func SetupTurn(first, second Position) Turn {
	return Turn{Kind: TurnSetup, Start: first, End: second}
}

func MoveBuildTurn(start, end, build Position) Turn {
	return Turn{Kind: TurnMoveBuild, Start: start, End: end, Build: build}
}

func FinalMoveTurn(start, end Position) Turn {
	return Turn{Kind: TurnFinalMove, Start: start, End: end}
}

func (t Turn) String() string {
	switch t.Kind {
	case TurnSetup:
		return fmt.Sprintf("setup %s %s", t.Start, t.End)
	case TurnMoveBuild:
		return fmt.Sprintf("%s-%s build %s", t.Start, t.End, t.Build)
	case TurnFinalMove:
		return fmt.Sprintf("%s-%s final", t.Start, t.End)
	default:
		return t.Kind.String()
	}
}

// PartialTurn is the cursor over a turn being assembled one cell at a time.
// First and Second hold the cells picked so far; which of them are
// meaningful depends on Stage.
type PartialTurn struct {
	Stage  Stage
	First  Position
	Second Position
}

// Selected returns the cells already picked, in pick order.
func (pt PartialTurn) Selected() []Position {
	switch pt.Stage {
	case StagePartialSetup, StageSelection:
		return []Position{pt.First}
	case StageMove:
		return []Position{pt.First, pt.Second}
	default:
		return []Position{}
	}
}

// advance records one accepted selection. Completing stages are handled by Game.
func (pt PartialTurn) advance(p Position) PartialTurn {
	switch pt.Stage {
	case StageNothingSetup:
		return PartialTurn{Stage: StagePartialSetup, First: p}
	case StageNothing:
		return PartialTurn{Stage: StageSelection, First: p}
	case StageSelection:
		return PartialTurn{Stage: StageMove, First: pt.First, Second: p}
	default:
		return pt
	}
}
