// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/model"
)

// Common errors for repository operations.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrAlreadyRegistered = errors.New("user already registered")
	ErrInsufficientFunds = errors.New("insufficient balance")
)

// UserRepository handles registered member persistence. All operations
// are scoped to a chat so every guild chat keeps its own ledger.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `chat_id, user_id, in_game_name, balance, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ChatID, &u.UserID, &u.InGameName, &u.Balance, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Register creates a new member with a zero balance.
// Returns ErrAlreadyRegistered if the (chat, user) pair already exists.
func (r *UserRepository) Register(ctx context.Context, chatID, userID int64, inGameName string) (*model.User, error) {
	const query = `
		INSERT INTO users (chat_id, user_id, in_game_name, balance, created_at, updated_at)
		VALUES ($1, $2, $3, 0, NOW(), NOW())
		ON CONFLICT (chat_id, user_id) DO NOTHING
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, chatID, userID, inGameName))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a member by chat and user ID.
// Returns ErrUserNotFound if the member does not exist.
func (r *UserRepository) GetByID(ctx context.Context, chatID, userID int64) (*model.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE chat_id = $1 AND user_id = $2`

	user, err := scanUser(r.pool.QueryRow(ctx, query, chatID, userID))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// IsRegistered checks whether a member exists in the chat's ledger.
func (r *UserRepository) IsRegistered(ctx context.Context, chatID, userID int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM users WHERE chat_id = $1 AND user_id = $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, chatID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check registration: %w", err)
	}
	return exists, nil
}

// GetBalance returns a member's current balance.
func (r *UserRepository) GetBalance(ctx context.Context, chatID, userID int64) (int64, error) {
	const query = `SELECT balance FROM users WHERE chat_id = $1 AND user_id = $2`

	var balance int64
	err := r.pool.QueryRow(ctx, query, chatID, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// AddBalance credits amount to a member's balance and returns the
// updated row. Amount must be positive.
func (r *UserRepository) AddBalance(ctx context.Context, chatID, userID, amount int64) (*model.User, error) {
	const query = `
		UPDATE users
		SET balance = balance + $3, updated_at = NOW()
		WHERE chat_id = $1 AND user_id = $2
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, chatID, userID, amount))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to add balance: %w", err)
	}
	return user, nil
}

// SubtractBalance debits amount from a member's balance. The update is
// guarded in SQL so a balance can never go negative; a failed guard is
// reported as ErrInsufficientFunds.
func (r *UserRepository) SubtractBalance(ctx context.Context, chatID, userID, amount int64) (*model.User, error) {
	const query = `
		UPDATE users
		SET balance = balance - $3, updated_at = NOW()
		WHERE chat_id = $1 AND user_id = $2 AND balance >= $3
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, chatID, userID, amount))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Distinguish a missing row from a guard failure.
			exists, exErr := r.IsRegistered(ctx, chatID, userID)
			if exErr != nil {
				return nil, exErr
			}
			if exists {
				return nil, ErrInsufficientFunds
			}
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to subtract balance: %w", err)
	}
	return user, nil
}

// FindByInGameName returns the member holding the given in-game name in
// this chat, matched case-insensitively.
func (r *UserRepository) FindByInGameName(ctx context.Context, chatID int64, name string) (*model.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE chat_id = $1 AND LOWER(in_game_name) = LOWER($2)`

	user, err := scanUser(r.pool.QueryRow(ctx, query, chatID, name))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find user by name: %w", err)
	}
	return user, nil
}

// Unregister removes a member from the chat's ledger.
func (r *UserRepository) Unregister(ctx context.Context, chatID, userID int64) error {
	const query = `DELETE FROM users WHERE chat_id = $1 AND user_id = $2`

	result, err := r.pool.Exec(ctx, query, chatID, userID)
	if err != nil {
		return fmt.Errorf("failed to unregister user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// GetTopUsers retrieves the top N members in a chat by balance.
func (r *UserRepository) GetTopUsers(ctx context.Context, chatID int64, limit int) ([]*model.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE chat_id = $1
		ORDER BY balance DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		var u model.User
		err := rows.Scan(&u.ChatID, &u.UserID, &u.InGameName, &u.Balance, &u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}
