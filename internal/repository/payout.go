package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/model"
)

// PayoutRepository tracks silver paid out to members via paychecks.
// The running total survives restarts and can be reset by an admin.
type PayoutRepository struct {
	pool *pgxpool.Pool
}

// NewPayoutRepository creates a new PayoutRepository instance.
func NewPayoutRepository(pool *pgxpool.Pool) *PayoutRepository {
	return &PayoutRepository{pool: pool}
}

// Record adds a payout entry for a member.
func (r *PayoutRepository) Record(ctx context.Context, chatID, userID, amount int64) (*model.Payout, error) {
	const query = `
		INSERT INTO payouts (chat_id, user_id, amount, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, chat_id, user_id, amount, created_at
	`

	var p model.Payout
	err := r.pool.QueryRow(ctx, query, chatID, userID, amount).Scan(
		&p.ID, &p.ChatID, &p.UserID, &p.Amount, &p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record payout: %w", err)
	}
	return &p, nil
}

// Total returns the total silver paid out in a chat since the last reset.
func (r *PayoutRepository) Total(ctx context.Context, chatID int64) (int64, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM payouts WHERE chat_id = $1`

	var total int64
	if err := r.pool.QueryRow(ctx, query, chatID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to total payouts: %w", err)
	}
	return total, nil
}

// History returns one page of payout entries, newest first, plus the
// total number of entries for the chat.
func (r *PayoutRepository) History(ctx context.Context, chatID int64, page, perPage int) ([]*model.Payout, int, error) {
	if page < 1 {
		page = 1
	}

	const countQuery = `SELECT COUNT(*) FROM payouts WHERE chat_id = $1`
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, chatID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payouts: %w", err)
	}

	const query = `
		SELECT id, chat_id, user_id, amount, created_at
		FROM payouts
		WHERE chat_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, chatID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get payout history: %w", err)
	}
	defer rows.Close()

	var payouts []*model.Payout
	for rows.Next() {
		var p model.Payout
		if err := rows.Scan(&p.ID, &p.ChatID, &p.UserID, &p.Amount, &p.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan payout: %w", err)
		}
		payouts = append(payouts, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating payouts: %w", err)
	}

	return payouts, total, nil
}

// Reset clears the payout tracker for a chat.
func (r *PayoutRepository) Reset(ctx context.Context, chatID int64) error {
	const query = `DELETE FROM payouts WHERE chat_id = $1`

	if _, err := r.pool.Exec(ctx, query, chatID); err != nil {
		return fmt.Errorf("failed to reset payouts: %w", err)
	}
	return nil
}
