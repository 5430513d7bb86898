package game

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

const boardHeader = "   a  b  c  d  e"

// String draws the grid, top row first. Each cell shows its level
// (0-3, D for a dome) followed by the worker owner or '.'.
func (b Board) String() string {
	var sb strings.Builder
	sb.WriteString(boardHeader)
	sb.WriteByte('\n')
	for row := BoardSize - 1; row >= 0; row-- {
		fmt.Fprintf(&sb, "%d ", row+1)
		for col := 0; col < BoardSize; col++ {
			t := b.Tile(NewPosition(row, col))
			level := byte('0' + t.Construction)
			if t.Construction == Dome {
				level = 'D'
			}
			owner := byte('.')
			if t.Occupied {
				owner = byte('1' + t.Player)
			}
			sb.WriteByte(' ')
			sb.WriteByte(level)
			sb.WriteByte(owner)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "next: %s\n", b.next)
	return sb.String()
}

// ParseBoard reads the layout produced by String. The header line is
// optional and a missing "next:" line means Player 1 acts.
func ParseBoard(s string) (Board, error) {
	b := NewBoard()
	seen := make(map[int]bool, BoardSize)
	sc := bufio.NewScanner(strings.NewReader(s))
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		fields := strings.Fields(text)
		switch {
		case len(fields) == 0, fields[0] == "a":
			continue
		case strings.HasPrefix(text, "next:"):
			switch strings.TrimSpace(strings.TrimPrefix(text, "next:")) {
			case Player1.String():
				b.next = Player1
			case Player2.String():
				b.next = Player2
			default:
				return Board{}, fmt.Errorf("%w: line %d: unknown player %q", ErrInvalidBoard, line, text)
			}
			continue
		}

		row, err := strconv.Atoi(fields[0])
		if err != nil || row < 1 || row > BoardSize || len(fields) != BoardSize+1 {
			return Board{}, fmt.Errorf("%w: line %d: %q", ErrInvalidBoard, line, text)
		}
		if seen[row] {
			return Board{}, fmt.Errorf("%w: row %d listed twice", ErrInvalidBoard, row)
		}
		seen[row] = true
		for col, cell := range fields[1:] {
			if err := b.parseCell(NewPosition(row-1, col), cell); err != nil {
				return Board{}, fmt.Errorf("%w: line %d: %v", ErrInvalidBoard, line, err)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return Board{}, err
	}
	if len(seen) != BoardSize {
		return Board{}, fmt.Errorf("%w: expected %d rows, got %d", ErrInvalidBoard, BoardSize, len(seen))
	}
	for _, pl := range [2]Player{Player1, Player2} {
		if n := b.Workers(pl).Len(); n != 0 && n != 2 {
			return Board{}, fmt.Errorf("%w: %s has %d workers", ErrInvalidBoard, pl, n)
		}
	}
	return b, nil
}

func (b *Board) parseCell(p Position, cell string) error {
	if len(cell) != 2 {
		return fmt.Errorf("cell %s: %q", p, cell)
	}
	switch level := cell[0]; {
	case level == 'D':
		b.levels[Dome-FirstLevel] = b.levels[Dome-FirstLevel].Add(p)
	case level >= '1' && level <= '3':
		c := Construction(level - '0')
		b.levels[c-FirstLevel] = b.levels[c-FirstLevel].Add(p)
	case level != '0':
		return fmt.Errorf("cell %s: unknown level %q", p, level)
	}
	switch owner := cell[1]; owner {
	case '.':
	case '1', '2':
		if cell[0] == 'D' {
			return fmt.Errorf("cell %s: worker on a dome", p)
		}
		pl := Player(owner - '1')
		b.workers[pl.Index()] = b.workers[pl.Index()].Add(p)
	default:
		return fmt.Errorf("cell %s: unknown owner %q", p, owner)
	}
	return nil
}
