package handler

import (
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/engine"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/game/blackjack"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/game/flip"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/game/highroll"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/game/roulette"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/game/rps"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/game/scramble"
)

func gameTitle(game string) string {
	switch game {
	case "flip":
		return "a coin flip"
	case "rps":
		return "rock-paper-scissors"
	case "highroll":
		return "a high roll"
	case "roulette":
		return "russian roulette"
	case "scramble":
		return "a word scramble"
	default:
		return game
	}
}

// renderSession builds the message text and keyboard for a session's
// current state. It runs inside the session loop, so reading session
// and game state directly is safe.
func renderSession(s *engine.Session) (string, *tele.ReplyMarkup) {
	switch g := s.Game().(type) {
	case *blackjack.Game:
		return renderBlackjack(s, g)
	case *flip.Game:
		return renderFlip(s, g)
	case *rps.Game:
		return renderRPS(s, g)
	case *highroll.Game:
		return renderHighRoll(s, g)
	case *roulette.Game:
		return renderRoulette(s, g)
	case *scramble.Game:
		return renderScramble(s, g)
	default:
		return "…", nil
	}
}

func renderBlackjack(s *engine.Session, g *blackjack.Game) (string, *tele.ReplyMarkup) {
	var b strings.Builder

	switch s.Phase() {
	case engine.PhaseForming:
		b.WriteString("🃏 Blackjack — place your bets\n\n")
		for _, p := range s.Participants() {
			mark := "💤"
			if p.State == engine.StateReady {
				mark = "✅"
			}
			fmt.Fprintf(&b, "%s %s — %d silver\n", mark, p.Name, p.Stake)
		}
		if len(s.Participants()) == 0 {
			b.WriteString("Nobody is seated yet.\n")
		}
		if at := s.CountdownEndsAt(); !at.IsZero() {
			if left := time.Until(at).Round(time.Second); left > 0 {
				fmt.Fprintf(&b, "\n⏳ Dealing in %s — unready players will be kicked\n", left)
			}
		}
		b.WriteString("\n/bet <amount> to sit or change your stake")
		return b.String(), tableMarkup()

	case engine.PhaseActive:
		b.WriteString("🃏 Blackjack\n\n")
		fmt.Fprintf(&b, "Dealer: %s 🂠\n\n", g.DealerUp())
		for _, p := range s.Participants() {
			cards, stood := g.Hand(p.UserID)
			state := "thinking"
			if stood {
				state = "standing"
			}
			fmt.Fprintf(&b, "%s: %s (%d) — %s\n", p.Name, cardLine(cards), blackjack.HandValue(cards), state)
		}
		markup := &tele.ReplyMarkup{}
		hit := markup.Data("🃏 Hit", "game", blackjack.MoveHit)
		stand := markup.Data("✋ Stand", "game", blackjack.MoveStand)
		markup.Inline(markup.Row(hit, stand))
		return b.String(), markup

	case engine.PhaseCooldown:
		b.WriteString("🃏 Blackjack — round over\n\n")
		dealer := g.Dealer()
		fmt.Fprintf(&b, "Dealer: %s (%d)\n\n", cardLine(dealer), blackjack.HandValue(dealer))
		for _, p := range s.Participants() {
			cards, _ := g.Hand(p.UserID)
			fmt.Fprintf(&b, "%s: %s (%d) — %s\n", p.Name, cardLine(cards), blackjack.HandValue(cards), outcomeLine(p))
		}
		b.WriteString("\nNext round opens shortly")
		return b.String(), nil

	default:
		fmt.Fprintf(&b, "🃏 Blackjack table closed — %s", s.CloseReason())
		return b.String(), nil
	}
}

func renderFlip(s *engine.Session, g *flip.Game) (string, *tele.ReplyMarkup) {
	switch s.Phase() {
	case engine.PhaseForming:
		return challengeText(s, "flip"), challengeMarkup()
	case engine.PhaseActive:
		text := fmt.Sprintf("🪙 Coin flip — %d silver each\n\n%s, call it!",
			s.Stake(), nameOf(s, s.Challenger()))
		markup := &tele.ReplyMarkup{}
		heads := markup.Data("🪙 Heads", "game", flip.Heads)
		tails := markup.Data("🪙 Tails", "game", flip.Tails)
		markup.Inline(markup.Row(heads, tails))
		return text, markup
	default:
		var b strings.Builder
		b.WriteString("🪙 Coin flip\n\n")
		if g.Result() != "" {
			fmt.Fprintf(&b, "%s called %s — the coin landed %s!\n", nameOf(s, s.Challenger()), g.Call(), g.Result())
		}
		writeDuelResult(&b, s)
		return b.String(), nil
	}
}

func renderRPS(s *engine.Session, g *rps.Game) (string, *tele.ReplyMarkup) {
	switch s.Phase() {
	case engine.PhaseForming:
		return challengeText(s, "rps"), challengeMarkup()
	case engine.PhaseActive:
		var b strings.Builder
		fmt.Fprintf(&b, "✊ Rock-paper-scissors — %d silver each\n\n", s.Stake())
		for _, p := range s.Participants() {
			mark := "🤔 picking…"
			if g.Pick(p.UserID) != "" {
				mark = "✅ locked in"
			}
			fmt.Fprintf(&b, "%s — %s\n", p.Name, mark)
		}
		markup := &tele.ReplyMarkup{}
		rock := markup.Data("🪨 Rock", "game", rps.Rock)
		paper := markup.Data("📄 Paper", "game", rps.Paper)
		scissors := markup.Data("✂️ Scissors", "game", rps.Scissors)
		markup.Inline(markup.Row(rock, paper, scissors))
		return b.String(), markup
	default:
		var b strings.Builder
		b.WriteString("✊ Rock-paper-scissors\n\n")
		for _, p := range s.Participants() {
			if pick := g.Pick(p.UserID); pick != "" {
				fmt.Fprintf(&b, "%s picked %s\n", p.Name, pick)
			}
		}
		writeDuelResult(&b, s)
		return b.String(), nil
	}
}

func renderHighRoll(s *engine.Session, g *highroll.Game) (string, *tele.ReplyMarkup) {
	switch s.Phase() {
	case engine.PhaseForming:
		return challengeText(s, "highroll"), challengeMarkup()
	case engine.PhaseActive:
		var b strings.Builder
		fmt.Fprintf(&b, "🎲 High roll — %d silver each\n\n", s.Stake())
		for _, p := range s.Participants() {
			if roll := g.Roll(p.UserID); roll > 0 {
				fmt.Fprintf(&b, "%s rolled %d\n", p.Name, roll)
			} else {
				fmt.Fprintf(&b, "%s has not rolled yet\n", p.Name)
			}
		}
		markup := &tele.ReplyMarkup{}
		roll := markup.Data("🎲 Roll", "game", "roll")
		markup.Inline(markup.Row(roll))
		return b.String(), markup
	default:
		var b strings.Builder
		b.WriteString("🎲 High roll\n\n")
		for _, p := range s.Participants() {
			if roll := g.Roll(p.UserID); roll > 0 {
				fmt.Fprintf(&b, "%s rolled %d\n", p.Name, roll)
			}
		}
		writeDuelResult(&b, s)
		return b.String(), nil
	}
}

func renderRoulette(s *engine.Session, g *roulette.Game) (string, *tele.ReplyMarkup) {
	switch s.Phase() {
	case engine.PhaseForming:
		return challengeText(s, "roulette"), challengeMarkup()
	case engine.PhaseActive:
		text := fmt.Sprintf("🔫 Russian roulette — %d silver each\n\n%d of %d chambers fired.\nIt is %s's turn.",
			s.Stake(), g.Pulls(), roulette.Chambers, nameOf(s, s.Turn()))
		markup := &tele.ReplyMarkup{}
		pull := markup.Data("🔫 Pull the trigger", "game", roulette.MovePull)
		markup.Inline(markup.Row(pull))
		return text, markup
	default:
		var b strings.Builder
		b.WriteString("🔫 Russian roulette\n\n")
		if w := g.Winner(); w != 0 {
			fmt.Fprintf(&b, "💥 %s found the bullet!\n", nameOf(s, s.Other(w).UserID))
		}
		writeDuelResult(&b, s)
		return b.String(), nil
	}
}

func renderScramble(s *engine.Session, g *scramble.Game) (string, *tele.ReplyMarkup) {
	switch s.Phase() {
	case engine.PhaseForming:
		return challengeText(s, "scramble"), challengeMarkup()
	case engine.PhaseActive:
		return fmt.Sprintf("🔤 Word scramble — %d silver each\n\nUnscramble: %s\n\nFirst correct answer in chat wins!",
			s.Stake(), strings.ToUpper(g.Scrambled())), nil
	default:
		var b strings.Builder
		b.WriteString("🔤 Word scramble\n\n")
		if g.Word() != "" {
			fmt.Fprintf(&b, "The word was %s.\n", strings.ToUpper(g.Word()))
		}
		writeDuelResult(&b, s)
		return b.String(), nil
	}
}

func challengeText(s *engine.Session, game string) string {
	return fmt.Sprintf("⚔️ %s challenges %s to %s!\n\n💰 Stake: %d silver each\n\nOnly %s can accept or decline.",
		nameOf(s, s.Challenger()), nameOf(s, s.Opponent()), gameTitle(game),
		s.Stake(), nameOf(s, s.Opponent()))
}

func challengeMarkup() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	accept := markup.Data("✅ Accept", "game", "accept")
	decline := markup.Data("❌ Decline", "game", "decline")
	markup.Inline(markup.Row(accept, decline))
	return markup
}

func tableMarkup() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	ready := markup.Data("✅ Ready", "game", "ready")
	leave := markup.Data("🚪 Leave", "game", "leave")
	markup.Inline(markup.Row(ready, leave))
	return markup
}

// writeDuelResult appends settlement lines for a finished duel, or the
// close reason when it never finished.
func writeDuelResult(b *strings.Builder, s *engine.Session) {
	settled := false
	for _, p := range s.Participants() {
		if p.Outcome == nil {
			continue
		}
		settled = true
		if line := outcomeLine(p); line != "" {
			fmt.Fprintf(b, "%s — %s\n", p.Name, line)
		}
	}
	if !settled {
		fmt.Fprintf(b, "%s\n", s.CloseReason())
	}
}

func outcomeLine(p *engine.Participant) string {
	if p.Outcome == nil {
		return ""
	}
	if p.Outcome.Failed {
		return "⚠️ payout pending, an officer will sort it out"
	}
	switch p.Outcome.Kind {
	case engine.Win:
		return fmt.Sprintf("🏆 wins %d silver", p.Outcome.Amount)
	case engine.Refund:
		return fmt.Sprintf("↩️ stake of %d silver returned", p.Outcome.Amount)
	default:
		return "💸 loses the stake"
	}
}

func cardLine(cards []blackjack.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

func nameOf(s *engine.Session, userID int64) string {
	if p := s.Participant(userID); p != nil {
		return p.Name
	}
	return fmt.Sprintf("player %d", userID)
}
