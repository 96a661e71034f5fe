package engine

// ActionKind enumerates every inbound event a session can consume.
// The dispatcher switches on (phase, kind); there is no open string
// matching anywhere in the engine.
type ActionKind int

const (
	// ActionBet seats the actor at a forming table, or changes the
	// stake of an already seated actor.
	ActionBet ActionKind = iota
	// ActionLeave removes the actor from a forming table.
	ActionLeave
	// ActionReady marks the actor ready for the next round.
	ActionReady
	// ActionAccept accepts a duel challenge (opponent only).
	ActionAccept
	// ActionDecline declines a duel challenge (opponent only).
	ActionDecline
	// ActionMove is a game move; Payload names it (hit, stand, heads,
	// tails, rock, paper, scissors, roll, pull).
	ActionMove
	// ActionGuess is a free-text guess for race games; Payload holds
	// the guessed text.
	ActionGuess
	// ActionClose closes the session; Payload carries the reason.
	ActionClose

	// actionTimeout is delivered by the timer set when a named timer
	// fires. Never sent by callers.
	actionTimeout
)

// Action is an inbound session event: a player action from the
// transport, or an internal timer firing.
type Action struct {
	Kind    ActionKind
	Actor   int64
	Amount  int64
	Payload string

	// timer fields, set only for actionTimeout
	timer    string
	timerGen uint64
}

func timeoutAction(name string, gen uint64) Action {
	return Action{Kind: actionTimeout, timer: name, timerGen: gen}
}
