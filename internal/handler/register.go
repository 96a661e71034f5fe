// Package handler provides the Telegram command and callback handlers.
package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/service"
)

// RegisterHandler handles member registration.
type RegisterHandler struct {
	register *service.RegisterService
}

// NewRegisterHandler creates a new RegisterHandler.
func NewRegisterHandler(register *service.RegisterService) *RegisterHandler {
	return &RegisterHandler{register: register}
}

// HandleRegister handles /register <in-game name>.
func (h *RegisterHandler) HandleRegister(c tele.Context) error {
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil {
		return nil
	}

	name := strings.TrimSpace(c.Message().Payload)
	if name == "" {
		return c.Reply("Usage: /register <your in-game name>")
	}

	user, err := h.register.Register(context.Background(), chat.ID, sender.ID, name)
	if err != nil {
		var ambiguous *service.AmbiguousNameError
		switch {
		case errors.Is(err, service.ErrPlayerNotFound):
			return c.Reply(fmt.Sprintf("❌ No player named %q exists", name))
		case errors.Is(err, service.ErrGuildMismatch):
			return c.Reply(fmt.Sprintf("❌ %s is not a member of the guild", name))
		case errors.Is(err, service.ErrNameTaken):
			return c.Reply(fmt.Sprintf("❌ %s is already registered to someone else", name))
		case errors.Is(err, service.ErrAlreadyRegistered):
			return c.Reply("❌ You are already registered")
		case errors.As(err, &ambiguous):
			var b strings.Builder
			fmt.Fprintf(&b, "❌ %d players share that name; ask an officer to verify you:\n", len(ambiguous.Candidates))
			for _, p := range ambiguous.Candidates {
				fmt.Fprintf(&b, "• %s (%s)\n", p.Name, p.GuildName)
			}
			return c.Reply(b.String())
		default:
			log.Error().Err(err).
				Int64("user", sender.ID).
				Str("name", name).
				Msg("Registration failed")
			return c.Reply("❌ Could not verify your name right now, try again later")
		}
	}

	return c.Reply(fmt.Sprintf("✅ Welcome to the guild, %s! Your silver balance is %d.", user.InGameName, user.Balance))
}
