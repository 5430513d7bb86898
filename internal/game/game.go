package game

import "fmt"

// Game turns a sequence of single-cell selections into validated turns.
// It keeps the set of cells the next selection may use up to date after
// every change.
type Game struct {
	board      Board
	current    PartialTurn
	selectable PositionSet
}

func NewGame() *Game {
	return NewGameFromBoard(NewBoard())
}

// NewGameFromBoard resumes play from an existing board.
func NewGameFromBoard(b Board) *Game {
	g := &Game{board: b}
	g.current = g.phaseStart()
	g.resetSelectable()
	return g
}

func (g *Game) Board() Board { return g.board }

func (g *Game) Current() PartialTurn { return g.current }

func (g *Game) Selectable() PositionSet { return g.selectable }

func (g *Game) Selected() []Position { return g.current.Selected() }

// NextAction is the prompt for whoever has to pick the next cell.
func (g *Game) NextAction() string {
	return fmt.Sprintf("%s: %s", g.board.NextPlayer(), g.current.Stage.prompt())
}

// phaseStart is the stage a fresh turn starts in for the acting player.
func (g *Game) phaseStart() PartialTurn {
	if g.board.Workers(g.board.NextPlayer()).IsEmpty() {
		return PartialTurn{Stage: StageNothingSetup}
	}
	return PartialTurn{Stage: StageNothing}
}

func (g *Game) resetSelectable() {
	var out PositionSet
	switch g.current.Stage {
	case StageNothingSetup:
		out = AllPositions.Difference(g.board.allWorkers())
	case StagePartialSetup:
		out = AllPositions.Difference(g.board.allWorkers()).Remove(g.current.First)
	case StageNothing:
		for _, t := range g.board.PossibleMoves() {
			if t.Kind != TurnSetup {
				out = out.Add(t.Start)
			}
		}
	case StageSelection:
		for _, t := range g.board.PossibleMoves() {
			if t.Kind != TurnSetup && t.Start == g.current.First {
				out = out.Add(t.End)
			}
		}
	case StageMove:
		if g.board.construction(g.current.Second) == ThirdLevel {
			break
		}
		for _, t := range g.board.PossibleMoves() {
			if t.Kind == TurnMoveBuild && t.Start == g.current.First && t.End == g.current.Second {
				out = out.Add(t.Build)
			}
		}
	}
	g.selectable = out
}

// RegisterSelection feeds one picked cell into the partial turn. Cells
// outside Selectable are rejected with ErrNotSelectable and the game is
// left unchanged, as it is when applying the completed turn fails.
func (g *Game) RegisterSelection(p Position) error {
	if !g.selectable.Contains(p) {
		return fmt.Errorf("%w: %s", ErrNotSelectable, p)
	}
	switch g.current.Stage {
	case StagePartialSetup:
		next, err := g.board.PlaceWorker(g.current.First, p)
		if err != nil {
			return err
		}
		g.board = next
		g.current = g.phaseStart()
	case StageMove:
		next, err := g.board.Action(MoveBuildTurn(g.current.First, g.current.Second, p))
		if err != nil {
			return err
		}
		g.board = next
		g.current = PartialTurn{Stage: StageNothing}
	default:
		g.current = g.current.advance(p)
	}
	g.resetSelectable()
	return nil
}

// Cancel drops the cells picked so far.
func (g *Game) Cancel() {
	if g.current.Stage.Setup() {
		g.current = PartialTurn{Stage: StageNothingSetup}
	} else {
		g.current = PartialTurn{Stage: StageNothing}
	}
	g.resetSelectable()
}

// Play applies a complete turn directly, discarding any partial selection.
func (g *Game) Play(t Turn) error {
	next, err := g.board.Action(t)
	if err != nil {
		return err
	}
	g.board = next
	g.current = g.phaseStart()
	g.resetSelectable()
	return nil
}

// Winner resolves the outcome from the current state. A worker chosen to
// move onto a third-level cell wins for the player still to act; a player
// left without a movable worker loses.
func (g *Game) Winner() (Player, bool) {
	if g.current.Stage == StageMove && g.board.construction(g.current.Second) == ThirdLevel {
		return g.board.NextPlayer(), true
	}
	if p, ok := g.board.Winner(); ok {
		return p, true
	}
	if g.current.Stage == StageNothing && g.selectable.IsEmpty() {
		return g.board.NextPlayer().Other(), true
	}
	return 0, false
}
