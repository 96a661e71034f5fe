package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/repository"
)

// AccountHandler handles balance and leaderboard commands.
type AccountHandler struct {
	users *repository.UserRepository
	txns  *repository.TransactionRepository
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(users *repository.UserRepository, txns *repository.TransactionRepository) *AccountHandler {
	return &AccountHandler{users: users, txns: txns}
}

// HandleBalance handles /balance.
func (h *AccountHandler) HandleBalance(c tele.Context) error {
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil {
		return nil
	}

	user, err := h.users.GetByID(context.Background(), chat.ID, sender.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.Reply("❌ You are not registered yet, use /register <name>")
		}
		log.Error().Err(err).Int64("user", sender.ID).Msg("Balance lookup failed")
		return c.Reply("❌ Could not fetch your balance, try again later")
	}

	return c.Reply(fmt.Sprintf("💰 %s — %d silver", user.InGameName, user.Balance))
}

// HandleTop handles /top: the chat's ten richest members.
func (h *AccountHandler) HandleTop(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}

	users, err := h.users.GetTopUsers(context.Background(), chat.ID, 10)
	if err != nil {
		log.Error().Err(err).Int64("chat", chat.ID).Msg("Leaderboard query failed")
		return c.Reply("❌ Could not fetch the leaderboard, try again later")
	}
	if len(users) == 0 {
		return c.Reply("Nobody is registered here yet")
	}

	var b strings.Builder
	b.WriteString("🏆 Richest members\n")
	for i, u := range users {
		fmt.Fprintf(&b, "%d. %s — %d silver\n", i+1, u.InGameName, u.Balance)
	}
	return c.Reply(b.String())
}

// HandleProfit handles /profit: the member's lifetime gambling result.
func (h *AccountHandler) HandleProfit(c tele.Context) error {
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil {
		return nil
	}

	net, err := h.txns.NetGameProfit(context.Background(), chat.ID, sender.ID)
	if err != nil {
		log.Error().Err(err).Int64("user", sender.ID).Msg("Profit query failed")
		return c.Reply("❌ Could not compute your profit, try again later")
	}

	switch {
	case net > 0:
		return c.Reply(fmt.Sprintf("📈 You are up %d silver from the games", net))
	case net < 0:
		return c.Reply(fmt.Sprintf("📉 You are down %d silver from the games", -net))
	default:
		return c.Reply("⚖️ You have broken exactly even")
	}
}

// HandleUnregister handles /unregister.
func (h *AccountHandler) HandleUnregister(c tele.Context) error {
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil {
		return nil
	}

	if err := h.users.Unregister(context.Background(), chat.ID, sender.ID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.Reply("❌ You are not registered")
		}
		log.Error().Err(err).Int64("user", sender.ID).Msg("Unregister failed")
		return c.Reply("❌ Could not unregister you, try again later")
	}
	return c.Reply("👋 You have been unregistered")
}
