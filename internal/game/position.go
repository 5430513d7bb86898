package game

import (
	"cmp"
	"fmt"
	"math/bits"
	"strings"
)

const (
	// BoardSize is the number of rows and columns of the playing grid.
	BoardSize = 5

	// rowStride is the bit distance between two rows. The extra column is
	// padding: without it the last cell of a row and the first cell of the
	// next row would be one bit apart.
	rowStride = BoardSize + 1

	rowBits uint64 = 1<<BoardSize - 1

	allBits = rowBits |
		rowBits<<rowStride |
		rowBits<<(2*rowStride) |
		rowBits<<(3*rowStride) |
		rowBits<<(4*rowStride)

	// sentinelBits covers the padding row and column plus every bit above
	// the addressable 6x6 space.
	sentinelBits = ^allBits
)

// neighborShifts are the king-move offsets in bit space.
var neighborShifts = [...]int{1, rowStride - 1, rowStride, rowStride + 1}

// Position is a single cell of the grid stored as one set bit.
// The zero value is not a valid position.
type Position struct {
	bit uint64
}

// NewPosition returns the cell at (row, col). It panics when the
// coordinates fall outside the grid; use PositionFromCoords for untrusted input.
func NewPosition(row, col int) Position {
	p, ok := PositionFromCoords(row, col)
	if !ok {
		panic(fmt.Sprintf("position (%d, %d) outside %dx%d grid", row, col, BoardSize, BoardSize))
	}
	return p
}

func PositionFromCoords(row, col int) (Position, bool) {
	if row < 0 || row >= BoardSize || col < 0 || col >= BoardSize {
		return Position{}, false
	}
	return Position{bit: 1 << (row*rowStride + col)}, true
}

// ParsePosition reads the "c3" notation produced by String: a column
// letter from 'a' followed by a one-based row number.
func ParsePosition(s string) (Position, error) {
	coord := strings.ToLower(strings.TrimSpace(s))
	if len(coord) != 2 {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
	}
	p, ok := PositionFromCoords(int(coord[1]-'1'), int(coord[0]-'a'))
	if !ok {
		return Position{}, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
	}
	return p, nil
}

func (p Position) index() int { return bits.TrailingZeros64(p.bit) }

func (p Position) Row() int { return p.index() / rowStride }
func (p Position) Col() int { return p.index() % rowStride }

// Valid reports whether exactly one bit is set and it is not padding.
func (p Position) Valid() bool {
	return p.bit != 0 && p.bit&(p.bit-1) == 0 && p.bit&sentinelBits == 0
}

// Compare orders positions by their bit pattern.
func (p Position) Compare(q Position) int { return cmp.Compare(p.bit, q.bit) }

// Neighbors returns the up to eight cells a king move away.
func (p Position) Neighbors() PositionSet {
	var out uint64
	for _, shift := range neighborShifts {
		for _, n := range [2]uint64{p.bit << shift, p.bit >> shift} {
			if n == 0 || n&sentinelBits != 0 {
				continue
			}
			out |= n
		}
	}
	return PositionSet{bits: out}
}

// AreNeighbors relies on both positions being valid: with the padding
// column in place, an index distance of 1, stride-1, stride or stride+1
// can only come from true adjacency.
func AreNeighbors(a, b Position) bool {
	d := a.index() - b.index()
	if d < 0 {
		d = -d
	}
	switch d {
	case 1, rowStride - 1, rowStride, rowStride + 1:
		return true
	default:
		return false
	}
}

// Up, Down, Left and Right move a cursor one cell and wrap around the
// edges of the grid.
func (p Position) Up() Position {
	next := p.bit >> rowStride
	if next == 0 {
		next = p.bit << ((BoardSize - 1) * rowStride)
	}
	return Position{bit: next}
}

func (p Position) Down() Position {
	next := p.bit << rowStride
	if next&sentinelBits != 0 {
		next = p.bit >> ((BoardSize - 1) * rowStride)
	}
	return Position{bit: next}
}

func (p Position) Left() Position {
	next := p.bit >> 1
	if next == 0 || next&sentinelBits != 0 {
		next = p.bit << (BoardSize - 1)
	}
	return Position{bit: next}
}

func (p Position) Right() Position {
	next := p.bit << 1
	if next&sentinelBits != 0 {
		next = p.bit >> (BoardSize - 1)
	}
	return Position{bit: next}
}

func (p Position) String() string {
	if !p.Valid() {
		return "-"
	}
	return string([]byte{byte('a' + p.Col()), byte('1' + p.Row())})
}

func (p Position) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: bit pattern %#x", ErrInvalidPosition, p.bit)
	}
	return []byte(p.String()), nil
}

func (p *Position) UnmarshalText(text []byte) error {
	parsed, err := ParsePosition(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
