package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/model"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/repository"
)

// AdminHandler handles officer balance adjustments.
type AdminHandler struct {
	users *repository.UserRepository
	txns  *repository.TransactionRepository
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(users *repository.UserRepository, txns *repository.TransactionRepository) *AdminHandler {
	return &AdminHandler{users: users, txns: txns}
}

// HandleSilverAdd handles /silver_add <amount>, replied to a member.
func (h *AdminHandler) HandleSilverAdd(c tele.Context) error {
	return h.adjust(c, model.TxTypeAdminAdd)
}

// HandleSilverSub handles /silver_sub <amount>, replied to a member.
func (h *AdminHandler) HandleSilverSub(c tele.Context) error {
	return h.adjust(c, model.TxTypeAdminSub)
}

func (h *AdminHandler) adjust(c tele.Context, txType string) error {
	ctx := context.Background()
	chat := c.Chat()
	msg := c.Message()
	if chat == nil || msg == nil {
		return nil
	}
	if msg.ReplyTo == nil || msg.ReplyTo.Sender == nil {
		return c.Reply("Usage: reply to the member's message with the command and an amount")
	}

	amount, err := strconv.ParseInt(strings.TrimSpace(msg.Payload), 10, 64)
	if err != nil || amount <= 0 {
		return c.Reply("Usage: reply to the member's message with the command and an amount")
	}

	target := msg.ReplyTo.Sender

	var user *model.User
	signed := amount
	if txType == model.TxTypeAdminSub {
		signed = -amount
		user, err = h.users.SubtractBalance(ctx, chat.ID, target.ID, amount)
	} else {
		user, err = h.users.AddBalance(ctx, chat.ID, target.ID, amount)
	}
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return c.Reply("❌ That member is not registered")
		case errors.Is(err, repository.ErrInsufficientFunds):
			return c.Reply("❌ That member does not have that much silver")
		default:
			log.Error().Err(err).Int64("user", target.ID).Str("type", txType).Msg("Admin adjustment failed")
			return c.Reply("❌ Could not adjust the balance, try again later")
		}
	}

	if _, err := h.txns.Create(ctx, chat.ID, target.ID, signed, txType, nil); err != nil {
		log.Error().Err(err).Int64("user", target.ID).Msg("Failed to record admin transaction")
	}

	return c.Reply(fmt.Sprintf("⚙️ %s now has %d silver", user.InGameName, user.Balance))
}
