package engine

import "context"

// Direction of a balance adjustment.
type Direction int

const (
	Add Direction = iota
	Subtract
)

// Adjustment reasons, recorded by ledger implementations as the
// transaction type.
const (
	ReasonStake  = "stake"
	ReasonWin    = "win"
	ReasonRefund = "refund"
)

// Ledger is the external balance service. Both calls may fail with a
// transient error; the engine never retries, it aborts the action (pre
// debit) or logs and moves on (post debit, see Session.settle).
type Ledger interface {
	// Balance returns a member's current balance in the chat's ledger.
	Balance(ctx context.Context, chatID, userID int64) (int64, error)
	// Adjust credits or debits a member's balance. Amount is always
	// positive; reason is recorded for auditing.
	Adjust(ctx context.Context, chatID, userID, amount int64, dir Direction, reason string) error
}
