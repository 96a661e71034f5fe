// Package ledger exposes the silver balance operations the game
// engine needs, backed by the user and transaction repositories.
// Every adjustment is mirrored as a transaction row so game profit
// can be reconstructed from history.
package ledger

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/engine"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/model"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/repository"
)

// ErrInsufficientFunds is returned when a debit would take a balance
// below zero.
var ErrInsufficientFunds = repository.ErrInsufficientFunds

// Service implements engine.Ledger.
type Service struct {
	users *repository.UserRepository
	txns  *repository.TransactionRepository
}

// New creates a ledger service.
func New(users *repository.UserRepository, txns *repository.TransactionRepository) *Service {
	return &Service{users: users, txns: txns}
}

// Balance returns the user's current silver balance.
func (s *Service) Balance(ctx context.Context, chatID, userID int64) (int64, error) {
	return s.users.GetBalance(ctx, chatID, userID)
}

// Adjust atomically moves silver in or out of a balance and records a
// matching transaction. A debit that would overdraw fails with
// ErrInsufficientFunds and leaves the balance untouched. Transaction
// recording is best-effort: a failed history row is logged but never
// undoes a completed balance change.
func (s *Service) Adjust(ctx context.Context, chatID, userID, amount int64, dir engine.Direction, reason string) error {
	var err error
	signed := amount
	if dir == engine.Subtract {
		signed = -amount
		_, err = s.users.SubtractBalance(ctx, chatID, userID, amount)
	} else {
		_, err = s.users.AddBalance(ctx, chatID, userID, amount)
	}
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			return ErrInsufficientFunds
		}
		return err
	}

	if _, txErr := s.txns.Create(ctx, chatID, userID, signed, txType(reason), nil); txErr != nil {
		log.Error().Err(txErr).
			Int64("chat", chatID).
			Int64("user", userID).
			Int64("amount", signed).
			Str("reason", reason).
			Msg("Failed to record ledger transaction")
	}
	return nil
}

func txType(reason string) string {
	switch reason {
	case engine.ReasonStake:
		return model.TxTypeStake
	case engine.ReasonWin:
		return model.TxTypeWin
	case engine.ReasonRefund:
		return model.TxTypeRefund
	default:
		return reason
	}
}
