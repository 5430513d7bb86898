package match

import "errors"

var (
	ErrHumanTurn = errors.New("a human seat must act")
	ErrAITurn    = errors.New("an automated seat must act")
	ErrGameOver  = errors.New("game is over")
)
