package player

import "errors"

var (
	ErrNoLegalMove = errors.New("no legal move")
	ErrUnknownKind = errors.New("unknown player kind")
)
