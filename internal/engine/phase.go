package engine

// Phase is the discrete state of a game session. A session holds
// exactly one phase value at any instant.
type Phase int

const (
	// PhaseForming accepts joins, leaves, bets and ready votes. For
	// duels this is the challenge accept window.
	PhaseForming Phase = iota
	// PhaseActive means stakes are debited and play is under way.
	PhaseActive
	// PhaseResolving means the terminal outcome is computed and
	// settlement is in flight.
	PhaseResolving
	// PhaseCooldown displays the round result before the table
	// resets to PhaseForming.
	PhaseCooldown
	// PhaseClosed is terminal; the session is gone from the registry.
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseForming:
		return "forming"
	case PhaseActive:
		return "active"
	case PhaseResolving:
		return "resolving"
	case PhaseCooldown:
		return "cooldown"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ParticipantState is a participant's sub-state within a round.
type ParticipantState int

const (
	// StateWaiting: seated, not yet ready for the next round.
	StateWaiting ParticipantState = iota
	// StateReady: committed to play the next round.
	StateReady
	// StateActing: the round is live and the participant still owes
	// an action.
	StateActing
	// StateDone: no further actions owed this round.
	StateDone
)

// Participant is a seated player. Fields are mutated only from inside
// the session's event loop, so games may write them freely from their
// Rules callbacks.
type Participant struct {
	UserID  int64
	Name    string
	Stake   int64
	State   ParticipantState
	Outcome *Outcome
}
