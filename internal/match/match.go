// Package match drives a game between two seats. Human seats play through
// cell selections; automated seats are stepped with their strategy until a
// human must act or someone wins.
package match

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/bjacotg/pompei/internal/game"
	"github.com/bjacotg/pompei/internal/player"
)

// Seat is one side of the table. Strategy is nil for humans.
type Seat struct {
	Kind     player.Kind
	Strategy player.Strategy
}

// NewSeat resolves kind into a seat ready to play.
func NewSeat(kind player.Kind, opts player.Options) (Seat, error) {
	s, err := player.New(kind, opts)
	if err != nil {
		return Seat{}, fmt.Errorf("seat %s: %w", kind, err)
	}
	return Seat{Kind: kind, Strategy: s}, nil
}

func (s Seat) Human() bool { return s.Strategy == nil }

// Match is not safe for concurrent use; callers serialize access.
type Match struct {
	game  *game.Game
	seats [2]Seat
	log   *zap.Logger
	turns int
}

func New(seats [2]Seat, logger *zap.Logger) *Match {
	return NewFromGame(game.NewGame(), seats, logger)
}

func NewFromGame(g *game.Game, seats [2]Seat, logger *zap.Logger) *Match {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Match{game: g, seats: seats, log: logger}
}

func (m *Match) Game() *game.Game { return m.game }

func (m *Match) Seats() [2]Seat { return m.seats }

// Seat returns the seat of the player about to act.
func (m *Match) Seat() Seat { return m.seats[m.game.Board().NextPlayer().Index()] }

// Turns counts the turns applied so far, setups included.
func (m *Match) Turns() int { return m.turns }

func (m *Match) Winner() (game.Player, bool) { return m.game.Winner() }

// Step asks the acting automated seat for a turn and plays it.
func (m *Match) Step() (game.Turn, error) {
	if w, ok := m.game.Winner(); ok {
		return game.Turn{}, fmt.Errorf("%w: %s won", ErrGameOver, w)
	}
	next := m.game.Board().NextPlayer()
	seat := m.Seat()
	if seat.Human() {
		return game.Turn{}, fmt.Errorf("%w: %s", ErrHumanTurn, next)
	}
	turn, err := seat.Strategy.Decide(m.game.Board())
	if err != nil {
		return game.Turn{}, fmt.Errorf("%s (%s): %w", next, seat.Kind, err)
	}
	if err := m.game.Play(turn); err != nil {
		return game.Turn{}, fmt.Errorf("%s (%s) played %s: %w", next, seat.Kind, turn, err)
	}
	m.turns++
	m.log.Debug("automated turn",
		zap.Stringer("player", next),
		zap.Stringer("seat", seat.Kind),
		zap.Stringer("turn", turn),
		zap.Int("turns", m.turns),
	)
	m.logWinner()
	return turn, nil
}

// Advance steps automated seats until a human must act, the game ends or
// limit turns were played (limit <= 0 means no limit). Stopping on a human
// seat or a finished game is not an error.
func (m *Match) Advance(limit int) ([]game.Turn, error) {
	var played []game.Turn
	for limit <= 0 || len(played) < limit {
		turn, err := m.Step()
		if errors.Is(err, ErrHumanTurn) || errors.Is(err, ErrGameOver) {
			return played, nil
		}
		if err != nil {
			return played, err
		}
		played = append(played, turn)
	}
	return played, nil
}

// Select forwards a cell pick from the human seat about to act.
func (m *Match) Select(p game.Position) error {
	if err := m.humanCanAct(); err != nil {
		return err
	}
	mover := m.game.Board().NextPlayer()
	if err := m.game.RegisterSelection(p); err != nil {
		return err
	}
	if m.game.Board().NextPlayer() != mover {
		m.turns++
		m.log.Debug("human turn", zap.Stringer("player", mover), zap.Int("turns", m.turns))
	}
	m.logWinner()
	return nil
}

// Cancel drops the human seat's partial turn.
func (m *Match) Cancel() error {
	if err := m.humanCanAct(); err != nil {
		return err
	}
	m.game.Cancel()
	return nil
}

// Play applies a complete turn on behalf of the human seat about to act.
func (m *Match) Play(t game.Turn) error {
	if err := m.humanCanAct(); err != nil {
		return err
	}
	if err := m.game.Play(t); err != nil {
		return err
	}
	m.turns++
	m.logWinner()
	return nil
}

func (m *Match) humanCanAct() error {
	if w, ok := m.game.Winner(); ok {
		return fmt.Errorf("%w: %s won", ErrGameOver, w)
	}
	if !m.Seat().Human() {
		return fmt.Errorf("%w: %s", ErrAITurn, m.game.Board().NextPlayer())
	}
	return nil
}

func (m *Match) logWinner() {
	if w, ok := m.game.Winner(); ok {
		m.log.Info("game won", zap.Stringer("winner", w), zap.Int("turns", m.turns))
	}
}

// Run plays an all-automated match to the end. onTurn, when set, sees the
// board after every turn. It fails with ErrHumanTurn if a human seat is
// reached and returns ctx.Err() when the context ends first.
func (m *Match) Run(ctx context.Context, maxTurns int, onTurn func(game.Turn, game.Board)) (game.Player, error) {
	for maxTurns <= 0 || m.turns < maxTurns {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		turn, err := m.Step()
		if errors.Is(err, ErrGameOver) {
			w, _ := m.game.Winner()
			return w, nil
		}
		if err != nil {
			return 0, err
		}
		if onTurn != nil {
			onTurn(turn, m.game.Board())
		}
	}
	if w, ok := m.game.Winner(); ok {
		return w, nil
	}
	return 0, fmt.Errorf("no winner after %d turns", m.turns)
}
