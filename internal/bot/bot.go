// Package bot provides the Telegram bot initialization and handler
// registration.
package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/config"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/engine"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/handler"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/ledger"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/repository"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/service"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot *tele.Bot
	cfg *config.Config

	registerHandler *handler.RegisterHandler
	accountHandler  *handler.AccountHandler
	adminHandler    *handler.AdminHandler
	payoutHandler   *handler.PayoutHandler
	gameHandler     *handler.GameHandler
}

// Dependencies holds everything the bot handlers need.
type Dependencies struct {
	Config   *config.Config
	Users    *repository.UserRepository
	Txns     *repository.TransactionRepository
	Payouts  *repository.PayoutRepository
	Bank     *ledger.Service
	Register *service.RegisterService
	Registry *engine.Registry
}

// New creates a Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot: teleBot,
		cfg: deps.Config,

		registerHandler: handler.NewRegisterHandler(deps.Register),
		accountHandler:  handler.NewAccountHandler(deps.Users, deps.Txns),
		adminHandler:    handler.NewAdminHandler(deps.Users, deps.Txns),
		payoutHandler:   handler.NewPayoutHandler(deps.Users, deps.Txns, deps.Payouts),
		gameHandler:     handler.NewGameHandler(deps.Config, deps.Users, deps.Bank, deps.Registry),
	}

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(WhitelistMiddleware(b.cfg))
	b.bot.Use(LoggingMiddleware())
}

func (b *Bot) registerHandlers() {
	// Account handlers
	b.bot.Handle("/register", b.registerHandler.HandleRegister)
	b.bot.Handle("/unregister", b.accountHandler.HandleUnregister)
	b.bot.Handle("/balance", b.accountHandler.HandleBalance)
	b.bot.Handle("/top", b.accountHandler.HandleTop)
	b.bot.Handle("/profit", b.accountHandler.HandleProfit)

	// Payout tracker
	b.bot.Handle("/payouts", b.payoutHandler.HandlePayouts)

	// Officer handlers
	adminGroup := b.bot.Group()
	adminGroup.Use(AdminMiddleware(b.cfg))
	adminGroup.Handle("/paycheck", b.payoutHandler.HandlePaycheck)
	adminGroup.Handle("/payout_reset", b.payoutHandler.HandlePayoutReset)
	adminGroup.Handle("/silver_add", b.adminHandler.HandleSilverAdd)
	adminGroup.Handle("/silver_sub", b.adminHandler.HandleSilverSub)

	// Game handlers
	b.bot.Handle("/blackjack", b.gameHandler.HandleBlackjack)
	b.bot.Handle("/bet", b.gameHandler.HandleBet)
	b.bot.Handle("/flip", b.gameHandler.HandleFlip)
	b.bot.Handle("/rps", b.gameHandler.HandleRPS)
	b.bot.Handle("/roll", b.gameHandler.HandleHighRoll)
	b.bot.Handle("/russian", b.gameHandler.HandleRoulette)
	b.bot.Handle("/scramble", b.gameHandler.HandleScramble)

	// Inline-button presses and scramble guesses
	b.bot.Handle(tele.OnCallback, b.handleCallback)
	b.bot.Handle(tele.OnText, b.gameHandler.HandleText)
}

// handleCallback routes inline-button callbacks to their handlers.
func (b *Bot) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		return nil
	}

	// Telebot v3 may add a \f prefix to callback data.
	data := strings.TrimPrefix(callback.Data, "\f")
	log.Debug().Str("data", data).Msg("Callback received")

	if strings.HasPrefix(data, "game|") {
		return b.gameHandler.HandleGameCallback(c)
	}
	return nil
}

// Start starts the bot polling. Blocks until Stop is called.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the poller and closes every open game session, settling
// stakes per the close rules.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.gameHandler.CloseAll("the bot is shutting down")
	b.bot.Stop()
}

// GetBot returns the underlying telebot instance.
func (b *Bot) GetBot() *tele.Bot {
	return b.bot
}
