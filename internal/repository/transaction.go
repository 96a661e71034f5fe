package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/model"
)

// TransactionRepository handles the balance-change audit log.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository instance.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create creates a new transaction record.
func (r *TransactionRepository) Create(ctx context.Context, chatID, userID, amount int64, txType string, description *string) (*model.Transaction, error) {
	const query = `
		INSERT INTO transactions (chat_id, user_id, amount, type, description, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, chat_id, user_id, amount, type, description, created_at
	`

	var tx model.Transaction
	err := r.pool.QueryRow(ctx, query, chatID, userID, amount, txType, description).Scan(
		&tx.ID,
		&tx.ChatID,
		&tx.UserID,
		&tx.Amount,
		&tx.Type,
		&tx.Description,
		&tx.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	return &tx, nil
}

// GetByUser retrieves recent transactions for a member, newest first.
func (r *TransactionRepository) GetByUser(ctx context.Context, chatID, userID int64, limit int) ([]*model.Transaction, error) {
	const query = `
		SELECT id, chat_id, user_id, amount, type, description, created_at
		FROM transactions
		WHERE chat_id = $1 AND user_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, chatID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*model.Transaction
	for rows.Next() {
		var tx model.Transaction
		err := rows.Scan(
			&tx.ID,
			&tx.ChatID,
			&tx.UserID,
			&tx.Amount,
			&tx.Type,
			&tx.Description,
			&tx.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, &tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}

// NetGameProfit sums the signed game transaction amounts for a member.
func (r *TransactionRepository) NetGameProfit(ctx context.Context, chatID, userID int64) (int64, error) {
	const query = `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE chat_id = $1 AND user_id = $2 AND type = ANY($3)
	`

	var net int64
	err := r.pool.QueryRow(ctx, query, chatID, userID, model.GameTransactionTypes()).Scan(&net)
	if err != nil {
		return 0, fmt.Errorf("failed to sum game profit: %w", err)
	}
	return net, nil
}
