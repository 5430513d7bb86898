package game

import (
	"encoding/json"
	"iter"
	"math/bits"
	"strings"
)

// PositionSet is a set of cells packed in the same bit layout as Position.
// Every operation returns a new set; the zero value is the empty set.
type PositionSet struct {
	bits uint64
}

// AllPositions holds the 25 cells of the grid.
var AllPositions = PositionSet{bits: allBits}

func NewPositionSet(positions ...Position) PositionSet {
	var s PositionSet
	for _, p := range positions {
		s.bits |= p.bit
	}
	return s
}

func (s PositionSet) Union(o PositionSet) PositionSet { return PositionSet{bits: s.bits | o.bits} }
func (s PositionSet) Intersection(o PositionSet) PositionSet { return PositionSet{bits: s.bits & o.bits} }

// Difference keeps the cells of s that are not in o.
func (s PositionSet) Difference(o PositionSet) PositionSet { return PositionSet{bits: s.bits &^ o.bits} }

func (s PositionSet) Len() int { return bits.OnesCount64(s.bits) }

func (s PositionSet) IsEmpty() bool { return s.bits == 0 }

func (s PositionSet) Contains(p Position) bool { return p.bit != 0 && s.bits&p.bit == p.bit }

func (s PositionSet) Add(p Position) PositionSet { return PositionSet{bits: s.bits | p.bit} }

func (s PositionSet) Remove(p Position) PositionSet { return PositionSet{bits: s.bits &^ p.bit} }

// popMSB splits off the highest set bit.
func (s PositionSet) popMSB() (Position, PositionSet) {
	if s.bits == 0 {
		return Position{}, s
	}
	p := Position{bit: 1 << (63 - bits.LeadingZeros64(s.bits))}
	return p, PositionSet{bits: s.bits ^ p.bit}
}

// popLSB splits off the lowest set bit.
func (s PositionSet) popLSB() (Position, PositionSet) {
	lsb := s.bits & -s.bits
	if lsb == 0 {
		return Position{}, s
	}
	return Position{bit: lsb}, PositionSet{bits: s.bits ^ lsb}
}

// All yields the cells from the highest bit index down. The order is
// stable but unrelated to row-major order.
func (s PositionSet) All() iter.Seq[Position] {
	return func(yield func(Position) bool) {
		for rest := s; !rest.IsEmpty(); {
			var p Position
			p, rest = rest.popMSB()
			if !yield(p) {
				return
			}
		}
	}
}

// Backward yields the cells from the lowest bit index up.
func (s PositionSet) Backward() iter.Seq[Position] {
	return func(yield func(Position) bool) {
		for rest := s; !rest.IsEmpty(); {
			var p Position
			p, rest = rest.popLSB()
			if !yield(p) {
				return
			}
		}
	}
}

// Positions returns the cells in All order.
func (s PositionSet) Positions() []Position {
	out := make([]Position, 0, s.Len())
	for p := range s.All() {
		out = append(out, p)
	}
	return out
}

func (s PositionSet) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for p := range s.Backward() {
		if b.Len() > 1 {
			b.WriteByte(' ')
		}
		b.WriteString(p.String())
	}
	b.WriteByte('}')
	return b.String()
}

func (s PositionSet) MarshalJSON() ([]byte, error) {
	out := make([]Position, 0, s.Len())
	for p := range s.Backward() {
		out = append(out, p)
	}
	return json.Marshal(out)
}

func (s *PositionSet) UnmarshalJSON(data []byte) error {
	var positions []Position
	if err := json.Unmarshal(data, &positions); err != nil {
		return err
	}
	*s = NewPositionSet(positions...)
	return nil
}
