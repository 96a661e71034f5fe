package bot

import (
	"sync"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/config"
)

// knownMembers tracks users seen in whitelisted guild chats so they
// may also talk to the bot in private.
var (
	knownMembers   = make(map[int64]bool)
	knownMembersMu sync.RWMutex
)

func rememberMember(userID int64) {
	knownMembersMu.Lock()
	defer knownMembersMu.Unlock()
	knownMembers[userID] = true
}

func isKnownMember(userID int64) bool {
	knownMembersMu.RLock()
	defer knownMembersMu.RUnlock()
	return knownMembers[userID]
}

// WhitelistMiddleware drops updates from chats outside the configured
// whitelist. Private chats are allowed for users previously seen in a
// whitelisted chat, or for everyone when the whitelist is empty.
func WhitelistMiddleware(cfg *config.Config) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chat := c.Chat()
			sender := c.Sender()
			if chat == nil || sender == nil {
				return nil
			}

			if chat.Type == tele.ChatPrivate {
				if isKnownMember(sender.ID) || len(cfg.Whitelist.Chats) == 0 {
					return next(c)
				}
				log.Debug().
					Int64("user_id", sender.ID).
					Msg("Ignoring private chat from unknown user")
				return nil
			}

			if !cfg.IsChatAllowed(chat.ID) {
				log.Debug().
					Int64("chat_id", chat.ID).
					Msg("Ignoring update from non-whitelisted chat")
				return nil
			}

			rememberMember(sender.ID)
			return next(c)
		}
	}
}

// AdminMiddleware rejects officer-only commands from non-admins.
func AdminMiddleware(cfg *config.Config) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return nil
			}
			if !cfg.IsAdmin(sender.ID) {
				log.Warn().
					Int64("user_id", sender.ID).
					Str("command", c.Text()).
					Msg("Non-admin attempted officer command")
				return c.Reply("❌ This command is for guild officers only")
			}
			return next(c)
		}
	}
}

// LoggingMiddleware logs every update the bot processes.
func LoggingMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			evt := log.Debug()
			if sender := c.Sender(); sender != nil {
				evt = evt.
					Int64("user_id", sender.ID).
					Str("username", sender.Username)
			}
			if chat := c.Chat(); chat != nil {
				evt = evt.
					Int64("chat_id", chat.ID).
					Str("chat_type", string(chat.Type))
			}
			evt.Str("text", c.Text()).Msg("Received update")
			return next(c)
		}
	}
}

// RecoveryMiddleware keeps a panicking handler from killing the poller.
func RecoveryMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Interface("panic", r).
						Msg("Recovered from panic in handler")
					_ = c.Reply("❌ Something went wrong, please try again")
				}
			}()
			return next(c)
		}
	}
}
