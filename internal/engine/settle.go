package engine

import "math"

// OutcomeKind classifies a participant's terminal result. Every
// participant of a resolved round receives exactly one outcome.
type OutcomeKind int

const (
	// Loss transfers nothing; the stake stays in the pot.
	Loss OutcomeKind = iota
	// Refund returns the participant's stake in full.
	Refund
	// Win credits Amount to the participant.
	Win
)

func (k OutcomeKind) String() string {
	switch k {
	case Loss:
		return "loss"
	case Refund:
		return "refund"
	case Win:
		return "win"
	default:
		return "unknown"
	}
}

// Outcome is one participant's settlement instruction. Amount is the
// total credit for Win and Refund, zero for Loss.
type Outcome struct {
	UserID int64
	Kind   OutcomeKind
	Amount int64
	// Failed is set when the ledger credit for this outcome failed.
	// The phase still advances; the discrepancy is logged and shown.
	Failed bool
}

// WinPayout is the standard duel payout: the full two-sided pot minus
// the house tax, floored to whole silver. The tax is never transferred
// anywhere, it is simply not paid out.
func WinPayout(stake int64, taxRate float64) int64 {
	return int64(math.Floor(float64(2*stake) * (1 - taxRate)))
}

// DuelOutcomes builds the standard two-party zero-sum settlement:
// winner takes the taxed pot, loser forfeits the stake.
func DuelOutcomes(winner, loser, stake int64, taxRate float64) []Outcome {
	return []Outcome{
		{UserID: winner, Kind: Win, Amount: WinPayout(stake, taxRate)},
		{UserID: loser, Kind: Loss},
	}
}

// RefundAll refunds every listed participant their own stake. Used for
// pushes and abandoned rounds.
func RefundAll(parts []*Participant) []Outcome {
	outs := make([]Outcome, 0, len(parts))
	for _, p := range parts {
		outs = append(outs, Outcome{UserID: p.UserID, Kind: Refund, Amount: p.Stake})
	}
	return outs
}
