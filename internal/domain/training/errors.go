package training

import "errors"

// Sentinel kinds for game rule violations.
var (
	ErrInvalidDifficulty = errors.New("invalid difficulty")
	ErrNotPlayable       = errors.New("round is not playable in this difficulty")
	ErrRoundClosed       = errors.New("round already answered")
	ErrRoundOpen         = errors.New("round not answered yet")
	ErrNoHintsLeft       = errors.New("no hints left")
	ErrGameOver          = errors.New("game over")
	ErrEmptyGuess        = errors.New("empty guess")
)
