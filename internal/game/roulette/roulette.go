// Package roulette implements the russian-roulette duel: six
// chambers, one bullet, alternating pulls starting with the
// challenger. The survivor takes the pot.
package roulette

import (
	"math/rand"
	"strings"

	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/engine"
)

// Chambers in the cylinder.
const Chambers = 6

// MovePull is the only move payload accepted by Handle.
const MovePull = "pull"

// Game holds one duel's cylinder state.
type Game struct {
	rnd    *rand.Rand
	bullet int
	pulls  int
	winner int64
}

// New creates a russian-roulette duel.
func New(rnd *rand.Rand) *Game {
	return &Game{rnd: rnd}
}

// Name implements engine.Rules.
func (g *Game) Name() string { return "roulette" }

// Deal spins the cylinder once and hands the first pull to the
// challenger.
func (g *Game) Deal(s *engine.Session) {
	g.bullet = g.rnd.Intn(Chambers)
	for _, p := range s.Participants() {
		p.State = engine.StateActing
	}
	s.SetTurn(s.Challenger())
}

// Handle pulls the trigger for the player whose turn it is. A live
// chamber passes the turn; the bullet ends the duel.
func (g *Game) Handle(s *engine.Session, act engine.Action) error {
	if act.Actor != s.Turn() {
		return engine.ErrNotYourTurn
	}
	if strings.ToLower(act.Payload) != MovePull {
		return engine.ErrUnknownAction
	}

	if g.pulls == g.bullet {
		g.winner = s.Other(act.Actor).UserID
		s.SetTurn(0)
		return nil
	}
	g.pulls++
	s.SetTurn(s.Other(act.Actor).UserID)
	return nil
}

// Done reports whether the bullet has been found.
func (g *Game) Done(*engine.Session) bool { return g.winner != 0 }

// Outcomes pays the survivor the taxed duel payout.
func (g *Game) Outcomes(s *engine.Session) []engine.Outcome {
	return engine.DuelOutcomes(g.winner, s.Other(g.winner).UserID, s.Stake(), s.TaxRate())
}

// Forfeit treats a timed-out turn as the idle player losing; a close
// with no one at fault refunds both.
func (g *Game) Forfeit(s *engine.Session, idle int64) []engine.Outcome {
	if g.winner != 0 {
		return g.Outcomes(s)
	}
	if idle != 0 {
		return engine.DuelOutcomes(s.Other(idle).UserID, idle, s.Stake(), s.TaxRate())
	}
	return engine.RefundAll(s.Participants())
}

// Pulls returns how many live chambers have been fired.
func (g *Game) Pulls() int { return g.pulls }

// Winner returns the survivor's id, zero while both still breathe.
func (g *Game) Winner() int64 { return g.winner }
