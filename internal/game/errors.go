package game

import "errors"

var (
	ErrInvalidMove     = errors.New("invalid move")
	ErrInvalidPosition = errors.New("invalid position")
	ErrNotSelectable   = errors.New("position not selectable")
	ErrInvalidBoard    = errors.New("invalid board")
)
