// Package main is the entry point for the Phoenix Assistance bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/bot"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/config"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/engine"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/identity"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/ledger"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/pkg/db"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/repository"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(dbPool.Pool)
	txRepo := repository.NewTransactionRepository(dbPool.Pool)
	payoutRepo := repository.NewPayoutRepository(dbPool.Pool)

	// Initialize services
	bank := ledger.New(userRepo, txRepo)
	gameAPI := identity.NewClient(cfg.Registration.APIBaseURL, cfg.Registration.Timeout)
	registerService := service.NewRegisterService(userRepo, gameAPI, cfg.Registration.GuildName)

	// Initialize the game session registry
	registry := engine.NewRegistry()

	deps := &bot.Dependencies{
		Config:   cfg,
		Users:    userRepo,
		Txns:     txRepo,
		Payouts:  payoutRepo,
		Bank:     bank,
		Register: registerService,
		Registry: registry,
	}

	telegramBot, err := bot.New(deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("guild", cfg.Registration.GuildName).Msg("Bot is starting...")
		telegramBot.Start()
	}()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	// Graceful shutdown: open sessions are settled before the poller
	// stops, so build the shutdown around bot.Stop.
	telegramBot.Stop()
	log.Info().Msg("Bot stopped gracefully")
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: Create users table
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			chat_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			in_game_name VARCHAR(255) NOT NULL,
			balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (chat_id, user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_users_balance ON users(chat_id, balance DESC);
		CREATE INDEX IF NOT EXISTS idx_users_name ON users(chat_id, LOWER(in_game_name));
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: users table created")

	// Migration 2: Create transactions table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			chat_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			amount BIGINT NOT NULL,
			type VARCHAR(50) NOT NULL,
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_transactions_user_time ON transactions(chat_id, user_id, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_transactions_type_time ON transactions(type, created_at DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 2: transactions table created")

	// Migration 3: Create payouts table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS payouts (
			id BIGSERIAL PRIMARY KEY,
			chat_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			amount BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_payouts_chat_time ON payouts(chat_id, created_at DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 3: payouts table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
