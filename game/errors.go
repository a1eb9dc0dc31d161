package game

import "errors"

// Errors reported back to the requesting connection. None of them mutate
// room state; the room is always left exactly as it was.
var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomFull        = errors.New("room is full")
	ErrInvalidToken    = errors.New("invalid or expired resume token")
	ErrNotHost         = errors.New("only the host can do that")
	ErrNotAllReady     = errors.New("all players must be ready")
	ErrTooFewPlayers   = errors.New("not enough players to start")
	ErrWrongPhase      = errors.New("action not valid in the current phase")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrAlreadyVoted    = errors.New("vote already cast")
	ErrNotEligible     = errors.New("not eligible")
	ErrInvalidSettings = errors.New("invalid room settings")
)
