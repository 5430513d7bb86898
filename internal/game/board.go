package game

import (
	"fmt"
	"iter"
)

// Board is an immutable snapshot of the game. Every state-changing method
// returns a new Board and leaves the receiver untouched, so boards can be
// shared between goroutines and branched over freely.
type Board struct {
	workers [2]PositionSet
	// levels[i] holds the cells whose construction is FirstLevel+i.
	levels [Dome]PositionSet
	next   Player
}

func NewBoard() Board {
	return Board{next: Player1}
}

// NextPlayer returns the player expected to act on this board.
func (b Board) NextPlayer() Player { return b.next }

func (b Board) Workers(p Player) PositionSet { return b.workers[p.Index()] }

func (b Board) allWorkers() PositionSet { return b.workers[0].Union(b.workers[1]) }

// Level returns the cells currently at construction c.
func (b Board) Level(c Construction) PositionSet {
	if c == GroundLevel {
		built := PositionSet{}
		for _, set := range b.levels {
			built = built.Union(set)
		}
		return AllPositions.Difference(built)
	}
	if c > Dome {
		return PositionSet{}
	}
	return b.levels[c-FirstLevel]
}

func (b Board) construction(p Position) Construction {
	for c := Dome; c >= FirstLevel; c-- {
		if b.levels[c-FirstLevel].Contains(p) {
			return c
		}
	}
	return GroundLevel
}

func (b Board) Tile(p Position) Tile {
	t := Tile{Construction: b.construction(p)}
	for _, pl := range [2]Player{Player1, Player2} {
		if b.workers[pl.Index()].Contains(p) {
			t.Player = pl
			t.Occupied = true
			break
		}
	}
	return t
}

// Tiles yields every cell with its tile in row-major order.
func (b Board) Tiles() iter.Seq2[Position, Tile] {
	return func(yield func(Position, Tile) bool) {
		for row := 0; row < BoardSize; row++ {
			for col := 0; col < BoardSize; col++ {
				p := NewPosition(row, col)
				if !yield(p, b.Tile(p)) {
					return
				}
			}
		}
	}
}

// PlaceWorker puts both workers of the acting player on the board.
func (b Board) PlaceWorker(p1, p2 Position) (Board, error) {
	if !p1.Valid() || !p2.Valid() {
		return b, fmt.Errorf("%w: setup cells %s and %s", ErrInvalidMove, p1, p2)
	}
	if p1 == p2 {
		return b, fmt.Errorf("%w: both workers on %s", ErrInvalidMove, p1)
	}
	if !b.Workers(b.next).IsEmpty() {
		return b, fmt.Errorf("%w: %s already placed workers", ErrInvalidMove, b.next)
	}
	if occupied := b.allWorkers(); occupied.Contains(p1) || occupied.Contains(p2) {
		return b, fmt.Errorf("%w: setup cell occupied", ErrInvalidMove)
	}
	out := b
	out.workers[b.next.Index()] = NewPositionSet(p1, p2)
	out.next = b.next.Other()
	return out, nil
}

// Action validates and applies any of the three turn shapes.
func (b Board) Action(t Turn) (Board, error) {
	var withBuild bool
	switch t.Kind {
	case TurnSetup:
		if !b.Workers(b.next).IsEmpty() {
			return b, fmt.Errorf("%w: %s already placed workers", ErrInvalidMove, b.next)
		}
		return b.PlaceWorker(t.Start, t.End)
	case TurnMoveBuild:
		withBuild = true
	case TurnFinalMove:
	default:
		return b, fmt.Errorf("%w: unknown turn kind %s", ErrInvalidMove, t.Kind)
	}

	start, end := t.Start, t.End
	if !start.Valid() || !end.Valid() || (withBuild && !t.Build.Valid()) {
		return b, fmt.Errorf("%w: %s references invalid cells", ErrInvalidMove, t)
	}
	if !AreNeighbors(start, end) {
		return b, fmt.Errorf("%w: %s and %s are not adjacent", ErrInvalidMove, start, end)
	}
	own := b.Workers(b.next)
	if !own.Contains(start) {
		return b, fmt.Errorf("%w: no worker of %s on %s", ErrInvalidMove, b.next, start)
	}
	if b.allWorkers().Contains(end) || b.levels[Dome-FirstLevel].Contains(end) {
		return b, fmt.Errorf("%w: %s is not free", ErrInvalidMove, end)
	}
	from, to := b.construction(start), b.construction(end)
	if !from.CanMove(to) {
		return b, fmt.Errorf("%w: cannot climb from %s to %s", ErrInvalidMove, from, to)
	}
	if to != ThirdLevel && !withBuild {
		return b, fmt.Errorf("%w: move to %s needs a build", ErrInvalidMove, end)
	}

	out := b
	out.workers[b.next.Index()] = own.Remove(start).Add(end)
	if withBuild {
		if !AreNeighbors(end, t.Build) {
			return b, fmt.Errorf("%w: build %s not adjacent to %s", ErrInvalidMove, t.Build, end)
		}
		if out.allWorkers().Contains(t.Build) {
			return b, fmt.Errorf("%w: build %s is occupied", ErrInvalidMove, t.Build)
		}
		if err := out.build(t.Build); err != nil {
			return b, err
		}
	}
	out.next = b.next.Other()
	return out, nil
}

// build raises p by one level. It must only be called on a copy.
func (b *Board) build(p Position) error {
	current := b.construction(p)
	next, err := current.Build()
	if err != nil {
		return fmt.Errorf("build %s: %w", p, err)
	}
	if current != GroundLevel {
		b.levels[current-FirstLevel] = b.levels[current-FirstLevel].Remove(p)
	}
	b.levels[next-FirstLevel] = b.levels[next-FirstLevel].Add(p)
	return nil
}

// PossibleMoves enumerates every legal turn for the acting player.
func (b Board) PossibleMoves() []Turn {
	own := b.Workers(b.next)
	if own.IsEmpty() {
		free := AllPositions.Difference(b.Workers(b.next.Other()))
		moves := make([]Turn, 0, free.Len()*(free.Len()-1))
		for p1 := range free.All() {
			for p2 := range free.All() {
				if p1 != p2 {
					moves = append(moves, SetupTurn(p1, p2))
				}
			}
		}
		return moves
	}

	var moves []Turn
	occupied := b.allWorkers()
	domes := b.levels[Dome-FirstLevel]
	third := b.levels[ThirdLevel-FirstLevel]
	for start := range own.All() {
		from := b.construction(start)
		for end := range start.Neighbors().Difference(occupied).All() {
			if !from.CanMove(b.construction(end)) {
				continue
			}
			if third.Contains(end) {
				moves = append(moves, FinalMoveTurn(start, end))
				continue
			}
			// The vacated start cell is free again once the worker has moved.
			builds := end.Neighbors().Difference(domes).Difference(occupied).Add(start)
			for build := range builds.All() {
				moves = append(moves, MoveBuildTurn(start, end, build))
			}
		}
	}
	return moves
}

// SetupDone reports whether all four workers are on the board.
func (b Board) SetupDone() bool { return b.allWorkers().Len() == 4 }

// Winner reports a player standing on a third-level cell.
func (b Board) Winner() (Player, bool) {
	third := b.levels[ThirdLevel-FirstLevel]
	for _, pl := range [2]Player{Player1, Player2} {
		if !b.Workers(pl).Intersection(third).IsEmpty() {
			return pl, true
		}
	}
	return 0, false
}
