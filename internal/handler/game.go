package handler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/config"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/engine"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/game/blackjack"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/game/flip"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/game/highroll"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/game/roulette"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/game/rps"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/game/scramble"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/ledger"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/model"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/repository"
)

// actionTimeout bounds how long a handler waits on a busy session.
const actionTimeout = 15 * time.Second

type msgRef struct {
	ChatID    int64
	MessageID int
}

// GameHandler owns the wager minigames: it opens sessions, feeds
// player input into them and keeps each session's chat message in sync
// with its state.
type GameHandler struct {
	cfg      *config.Config
	users    *repository.UserRepository
	bank     *ledger.Service
	registry *engine.Registry

	mu       sync.Mutex
	messages map[engine.Key]*tele.Message
	byMsg    map[msgRef]engine.Key
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(cfg *config.Config, users *repository.UserRepository, bank *ledger.Service, registry *engine.Registry) *GameHandler {
	return &GameHandler{
		cfg:      cfg,
		users:    users,
		bank:     bank,
		registry: registry,
		messages: make(map[engine.Key]*tele.Message),
		byMsg:    make(map[msgRef]engine.Key),
	}
}

// HandleBlackjack handles /blackjack: opens the chat's table.
func (h *GameHandler) HandleBlackjack(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	if _, ok := h.requireUser(c); !ok {
		return nil
	}

	bj := h.cfg.Games.Blackjack
	s, err := engine.Open(h.registry, engine.Config{
		ChatID:     chat.ID,
		Rules:      blackjack.New(newRand()),
		Mode:       engine.ModeTable,
		Ledger:     h.bank,
		MaxBet:     bj.MaxBet,
		Countdown:  bj.Countdown,
		Cooldown:   bj.Cooldown,
		Inactivity: bj.Inactivity,
		EmptyClose: bj.EmptyClose,
		OnUpdate:   h.renderUpdate(c.Bot()),
	})
	if err != nil {
		if errors.Is(err, engine.ErrSessionOpen) {
			return c.Reply("🃏 A blackjack table is already open in this chat")
		}
		log.Error().Err(err).Int64("chat", chat.ID).Msg("Failed to open blackjack table")
		return c.Reply("❌ Could not open the table, try again later")
	}

	text := fmt.Sprintf("🃏 Blackjack table is open!\n\nSit down with /bet <amount> (max %d silver).", bj.MaxBet)
	markup := tableMarkup()
	msg, err := c.Bot().Send(chat, text, markup)
	if err != nil {
		s.Shutdown("could not announce the table")
		return err
	}
	h.track(s, msg)
	return nil
}

// HandleBet handles /bet <amount>: sits at the blackjack table or
// changes the sender's stake for the next round.
func (h *GameHandler) HandleBet(c tele.Context) error {
	chat := c.Chat()
	sender := c.Sender()
	if chat == nil || sender == nil {
		return nil
	}
	user, ok := h.requireUser(c)
	if !ok {
		return nil
	}

	amount, err := strconv.ParseInt(strings.TrimSpace(c.Message().Payload), 10, 64)
	if err != nil || amount <= 0 {
		return c.Reply("Usage: /bet <amount>")
	}

	s, ok := h.registry.Lookup(engine.Key{ChatID: chat.ID, Game: "blackjack"})
	if !ok {
		return c.Reply("🃏 No table is open, start one with /blackjack")
	}

	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()
	err = s.Do(ctx, engine.Action{
		Kind:    engine.ActionBet,
		Actor:   sender.ID,
		Amount:  amount,
		Payload: user.InGameName,
	})
	if err != nil {
		return c.Reply(playerError(err))
	}
	return nil
}

// HandleFlip handles /flip <amount>, replied to the challenged member.
func (h *GameHandler) HandleFlip(c tele.Context) error {
	return h.startDuel(c, "flip")
}

// HandleRPS handles /rps <amount>, replied to the challenged member.
func (h *GameHandler) HandleRPS(c tele.Context) error {
	return h.startDuel(c, "rps")
}

// HandleHighRoll handles /roll <amount>, replied to the challenged member.
func (h *GameHandler) HandleHighRoll(c tele.Context) error {
	return h.startDuel(c, "highroll")
}

// HandleRoulette handles /russian <amount>, replied to the challenged member.
func (h *GameHandler) HandleRoulette(c tele.Context) error {
	return h.startDuel(c, "roulette")
}

// HandleScramble handles /scramble <amount>, replied to the challenged member.
func (h *GameHandler) HandleScramble(c tele.Context) error {
	return h.startDuel(c, "scramble")
}

func (h *GameHandler) startDuel(c tele.Context, game string) error {
	ctx := context.Background()
	chat := c.Chat()
	sender := c.Sender()
	msg := c.Message()
	if chat == nil || sender == nil || msg == nil {
		return nil
	}

	challenger, ok := h.requireUser(c)
	if !ok {
		return nil
	}
	if msg.ReplyTo == nil || msg.ReplyTo.Sender == nil || msg.ReplyTo.Sender.IsBot {
		return c.Reply("Usage: reply to the member you want to challenge with the command and a stake")
	}
	target := msg.ReplyTo.Sender
	if target.ID == sender.ID {
		return c.Reply("❌ You cannot challenge yourself")
	}

	stake, err := strconv.ParseInt(strings.TrimSpace(msg.Payload), 10, 64)
	if err != nil || stake <= 0 {
		return c.Reply("Usage: reply to the member you want to challenge with the command and a stake")
	}

	opponent, err := h.users.GetByID(ctx, chat.ID, target.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.Reply("❌ That member is not registered")
		}
		log.Error().Err(err).Int64("user", target.ID).Msg("Opponent lookup failed")
		return c.Reply("❌ Could not start the duel, try again later")
	}
	if challenger.Balance < stake {
		return c.Reply("❌ You do not have that much silver")
	}
	if opponent.Balance < stake {
		return c.Reply(fmt.Sprintf("❌ %s does not have that much silver", opponent.InGameName))
	}

	duel := h.cfg.Games.Duel
	cfg := engine.Config{
		ChatID:         chat.ID,
		Mode:           engine.ModeDuel,
		Ledger:         h.bank,
		TaxRate:        h.cfg.Games.TaxRate,
		Stake:          stake,
		Challenger:     sender.ID,
		ChallengerName: challenger.InGameName,
		Opponent:       target.ID,
		OpponentName:   opponent.InGameName,
		AcceptTimeout:  duel.AcceptTimeout,
		OnUpdate:       h.renderUpdate(c.Bot()),
	}

	switch game {
	case "flip":
		cfg.Rules = flip.New(newRand())
		cfg.MoveWindow = duel.MoveWindow
	case "rps":
		cfg.Rules = rps.New()
		cfg.MoveWindow = duel.MoveWindow
	case "highroll":
		cfg.Rules = highroll.New(newRand())
		cfg.MoveWindow = duel.MoveWindow
	case "roulette":
		cfg.Rules = roulette.New(newRand())
		cfg.TurnTimeout = duel.TurnTimeout
	case "scramble":
		cfg.Rules = scramble.New(newRand())
		cfg.MoveWindow = duel.ScrambleWindow
	default:
		return nil
	}

	s, err := engine.Open(h.registry, cfg)
	if err != nil {
		if errors.Is(err, engine.ErrSessionOpen) {
			return c.Reply("⚔️ Finish the current duel of that game first")
		}
		log.Error().Err(err).Int64("chat", chat.ID).Str("game", game).Msg("Failed to open duel")
		return c.Reply("❌ Could not start the duel, try again later")
	}

	text := fmt.Sprintf("⚔️ %s challenges %s to %s!\n\n💰 Stake: %d silver each\n⏰ %s to respond\n\nOnly %s can accept or decline.",
		challenger.InGameName, opponent.InGameName, gameTitle(game), stake,
		duel.AcceptTimeout, opponent.InGameName)
	sent, err := c.Bot().Send(chat, text, challengeMarkup())
	if err != nil {
		s.Shutdown("could not announce the challenge")
		return err
	}
	h.track(s, sent)
	return nil
}

// HandleGameCallback routes inline-button presses into the session
// owning the pressed message.
func (h *GameHandler) HandleGameCallback(c tele.Context) error {
	callback := c.Callback()
	sender := c.Sender()
	if callback == nil || callback.Message == nil || sender == nil {
		return nil
	}

	data := strings.TrimPrefix(callback.Data, "\f")
	parts := strings.Split(data, "|")
	if len(parts) < 2 || parts[0] != "game" {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Unknown action"})
	}
	move := parts[1]

	h.mu.Lock()
	key, ok := h.byMsg[msgRef{ChatID: callback.Message.Chat.ID, MessageID: callback.Message.ID}]
	h.mu.Unlock()
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "This game is over"})
	}
	s, live := h.registry.Lookup(key)
	if !live {
		return c.Respond(&tele.CallbackResponse{Text: "This game is over"})
	}

	var act engine.Action
	switch move {
	case "ready":
		act = engine.Action{Kind: engine.ActionReady, Actor: sender.ID}
	case "leave":
		act = engine.Action{Kind: engine.ActionLeave, Actor: sender.ID}
	case "accept":
		act = engine.Action{Kind: engine.ActionAccept, Actor: sender.ID}
	case "decline":
		act = engine.Action{Kind: engine.ActionDecline, Actor: sender.ID}
	case blackjack.MoveHit, blackjack.MoveStand,
		flip.Heads, flip.Tails,
		rps.Rock, rps.Paper, rps.Scissors,
		"roll", roulette.MovePull:
		act = engine.Action{Kind: engine.ActionMove, Actor: sender.ID, Payload: move}
	default:
		return c.Respond(&tele.CallbackResponse{Text: "❌ Unknown action"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()
	if err := s.Do(ctx, act); err != nil {
		return c.Respond(&tele.CallbackResponse{Text: playerError(err), ShowAlert: false})
	}
	return c.Respond(&tele.CallbackResponse{})
}

// HandleText feeds plain chat messages into an open scramble race.
func (h *GameHandler) HandleText(c tele.Context) error {
	chat := c.Chat()
	sender := c.Sender()
	if chat == nil || sender == nil {
		return nil
	}
	guess := strings.TrimSpace(c.Text())
	if guess == "" || strings.HasPrefix(guess, "/") {
		return nil
	}

	s, ok := h.registry.Lookup(engine.Key{ChatID: chat.ID, Game: "scramble"})
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()
	err := s.Do(ctx, engine.Action{Kind: engine.ActionGuess, Actor: sender.ID, Payload: guess})
	if errors.Is(err, engine.ErrWrongGuess) {
		return c.Reply("❌ Not it, keep trying!")
	}
	// Bystanders and early guesses are ignored silently.
	return nil
}

// CloseAll shuts every open session down, settling per close rules.
func (h *GameHandler) CloseAll(reason string) {
	h.registry.CloseAll(reason)
}

func (h *GameHandler) track(s *engine.Session, msg *tele.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages[s.Key()] = msg
	h.byMsg[msgRef{ChatID: msg.Chat.ID, MessageID: msg.ID}] = s.Key()
}

// renderUpdate builds the OnUpdate callback keeping one chat message
// in sync with the session. It runs inside the session loop.
func (h *GameHandler) renderUpdate(b *tele.Bot) func(*engine.Session) {
	return func(s *engine.Session) {
		h.mu.Lock()
		msg := h.messages[s.Key()]
		h.mu.Unlock()
		if msg == nil {
			return
		}

		text, markup := renderSession(s)
		var err error
		if markup != nil {
			_, err = b.Edit(msg, text, markup)
		} else {
			_, err = b.Edit(msg, text)
		}
		if err != nil {
			log.Debug().Err(err).
				Int64("chat", s.ChatID()).
				Str("game", s.Key().Game).
				Msg("Failed to update game message")
		}

		if s.Phase() == engine.PhaseClosed {
			h.mu.Lock()
			delete(h.messages, s.Key())
			delete(h.byMsg, msgRef{ChatID: msg.Chat.ID, MessageID: msg.ID})
			h.mu.Unlock()
		}
	}
}

// requireUser looks the sender up in the ledger and answers with a
// registration hint when absent. The bool reports whether to proceed.
func (h *GameHandler) requireUser(c tele.Context) (*model.User, bool) {
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil {
		return nil, false
	}
	user, err := h.users.GetByID(context.Background(), chat.ID, sender.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_ = c.Reply("❌ Register first with /register <your in-game name>")
		} else {
			log.Error().Err(err).Int64("user", sender.ID).Msg("User lookup failed")
			_ = c.Reply("❌ Something went wrong, try again later")
		}
		return nil, false
	}
	return user, true
}

// playerError turns an engine rejection into the line shown to the
// acting player.
func playerError(err error) string {
	switch {
	case errors.Is(err, engine.ErrInsufficientFunds), errors.Is(err, ledger.ErrInsufficientFunds):
		return "❌ You do not have that much silver"
	case errors.Is(err, engine.ErrInvalidStake):
		return "❌ That is not a valid stake"
	case errors.Is(err, engine.ErrStakeTooLarge):
		return "❌ That stake is over the table limit"
	case errors.Is(err, engine.ErrRoundInProgress):
		return "⏳ Wait for the current round to finish"
	case errors.Is(err, engine.ErrNotSeated):
		return "❌ You are not in this game"
	case errors.Is(err, engine.ErrNotYourChallenge):
		return "❌ This challenge is not for you"
	case errors.Is(err, engine.ErrNotYourTurn):
		return "❌ It is not your turn"
	case errors.Is(err, engine.ErrAlreadyMoved):
		return "❌ You already made your move"
	case errors.Is(err, engine.ErrSessionClosed):
		return "This game is over"
	case errors.Is(err, engine.ErrUnknownAction):
		return "❌ You cannot do that right now"
	default:
		log.Error().Err(err).Msg("Game action failed")
		return "❌ Something went wrong, try again"
	}
}

func newRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
