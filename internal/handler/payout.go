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

const payoutsPerPage = 10

// PayoutHandler handles guild paychecks and the payout tracker.
type PayoutHandler struct {
	users   *repository.UserRepository
	txns    *repository.TransactionRepository
	payouts *repository.PayoutRepository
}

// NewPayoutHandler creates a new PayoutHandler.
func NewPayoutHandler(users *repository.UserRepository, txns *repository.TransactionRepository, payouts *repository.PayoutRepository) *PayoutHandler {
	return &PayoutHandler{users: users, txns: txns, payouts: payouts}
}

// HandlePaycheck handles the officer command /paycheck <amount>, sent
// as a reply to the member being paid. The amount is credited to the
// member and recorded in the payout tracker.
func (h *PayoutHandler) HandlePaycheck(c tele.Context) error {
	ctx := context.Background()
	chat := c.Chat()
	msg := c.Message()
	if chat == nil || msg == nil {
		return nil
	}
	if msg.ReplyTo == nil || msg.ReplyTo.Sender == nil {
		return c.Reply("Usage: reply to the member's message with /paycheck <amount>")
	}

	amount, err := strconv.ParseInt(strings.TrimSpace(msg.Payload), 10, 64)
	if err != nil || amount <= 0 {
		return c.Reply("Usage: reply to the member's message with /paycheck <amount>")
	}

	target := msg.ReplyTo.Sender
	user, err := h.users.AddBalance(ctx, chat.ID, target.ID, amount)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.Reply("❌ That member is not registered")
		}
		log.Error().Err(err).Int64("user", target.ID).Msg("Paycheck credit failed")
		return c.Reply("❌ Could not pay that member, try again later")
	}

	if _, err := h.txns.Create(ctx, chat.ID, target.ID, amount, model.TxTypePaycheck, nil); err != nil {
		log.Error().Err(err).Int64("user", target.ID).Msg("Failed to record paycheck transaction")
	}
	if _, err := h.payouts.Record(ctx, chat.ID, target.ID, amount); err != nil {
		log.Error().Err(err).Int64("user", target.ID).Msg("Failed to record payout")
	}

	return c.Reply(fmt.Sprintf("💸 Paid %s %d silver (balance: %d)", user.InGameName, amount, user.Balance))
}

// HandlePayouts handles /payouts [page]: the running payout total and
// the most recent paychecks.
func (h *PayoutHandler) HandlePayouts(c tele.Context) error {
	ctx := context.Background()
	chat := c.Chat()
	if chat == nil {
		return nil
	}

	page := 1
	if p := strings.TrimSpace(c.Message().Payload); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			page = n
		}
	}

	total, err := h.payouts.Total(ctx, chat.ID)
	if err != nil {
		log.Error().Err(err).Int64("chat", chat.ID).Msg("Payout total query failed")
		return c.Reply("❌ Could not fetch payouts, try again later")
	}

	history, count, err := h.payouts.History(ctx, chat.ID, page, payoutsPerPage)
	if err != nil {
		log.Error().Err(err).Int64("chat", chat.ID).Msg("Payout history query failed")
		return c.Reply("❌ Could not fetch payouts, try again later")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "💸 Guild payouts — %d silver total across %d paychecks\n", total, count)
	if len(history) == 0 {
		b.WriteString("No paychecks on this page")
	}
	for _, p := range history {
		name := strconv.FormatInt(p.UserID, 10)
		if u, err := h.users.GetByID(ctx, chat.ID, p.UserID); err == nil {
			name = u.InGameName
		}
		fmt.Fprintf(&b, "• %s — %d silver (%s)\n", name, p.Amount, p.CreatedAt.Format("2006-01-02"))
	}
	pages := (count + payoutsPerPage - 1) / payoutsPerPage
	if pages > 1 {
		fmt.Fprintf(&b, "\nPage %d of %d", page, pages)
	}
	return c.Reply(b.String())
}

// HandlePayoutReset handles the officer command /payout_reset.
func (h *PayoutHandler) HandlePayoutReset(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	if err := h.payouts.Reset(context.Background(), chat.ID); err != nil {
		log.Error().Err(err).Int64("chat", chat.ID).Msg("Payout reset failed")
		return c.Reply("❌ Could not reset the payout tracker, try again later")
	}
	return c.Reply("🧹 Payout tracker reset")
}
