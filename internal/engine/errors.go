package engine

import "errors"

// Errors surfaced to acting players. These are validation failures: the
// session state is never mutated when one of them is returned.
var (
	ErrSessionOpen       = errors.New("a game session is already open in this chat")
	ErrSessionClosed     = errors.New("the game session has closed")
	ErrRoundInProgress   = errors.New("round in progress, wait for the next hand")
	ErrNotSeated         = errors.New("you are not seated at this table")
	ErrNotYourChallenge  = errors.New("this challenge is not addressed to you")
	ErrNotYourTurn       = errors.New("it is not your turn")
	ErrAlreadyMoved      = errors.New("you already made your move")
	ErrWrongGuess        = errors.New("wrong guess")
	ErrInvalidStake      = errors.New("stake must be positive")
	ErrStakeTooLarge     = errors.New("stake exceeds the table limit")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrUnknownAction     = errors.New("action not allowed in the current phase")
)
