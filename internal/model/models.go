// Package model defines the data models for the guild assistant bot.
package model

import "time"

// User represents a registered guild member in the silver ledger.
// Keyed by (chat_id, user_id) so the same Telegram user can hold a
// separate balance in every guild chat.
type User struct {
	ChatID     int64     `db:"chat_id"`
	UserID     int64     `db:"user_id"`
	InGameName string    `db:"in_game_name"`
	Balance    int64     `db:"balance"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// Transaction represents a balance change record.
type Transaction struct {
	ID          int64     `db:"id"`
	ChatID      int64     `db:"chat_id"`
	UserID      int64     `db:"user_id"`
	Amount      int64     `db:"amount"`
	Type        string    `db:"type"`
	Description *string   `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

// Payout represents a tracked silver payout to a member.
type Payout struct {
	ID        int64     `db:"id"`
	ChatID    int64     `db:"chat_id"`
	UserID    int64     `db:"user_id"`
	Amount    int64     `db:"amount"`
	CreatedAt time.Time `db:"created_at"`
}

// Transaction types for categorizing balance changes.
const (
	TxTypeRegister = "register"  // Account creation
	TxTypeStake    = "stake"     // Wager debited into a game pot
	TxTypeWin      = "win"       // Game win payout
	TxTypeRefund   = "refund"    // Stake returned (push, abandoned round)
	TxTypePaycheck = "paycheck"  // Guild paycheck payout
	TxTypeAdminAdd = "admin_add" // Admin added balance
	TxTypeAdminSub = "admin_sub" // Admin subtracted balance
)

// GameTransactionTypes returns the transaction types produced by the
// wager minigames.
func GameTransactionTypes() []string {
	return []string{TxTypeStake, TxTypeWin, TxTypeRefund}
}
