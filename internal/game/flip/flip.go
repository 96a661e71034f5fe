// Package flip implements the coin-flip duel: the challenger calls
// heads or tails after the challenge is accepted, the coin decides.
package flip

import (
	"math/rand"
	"strings"

	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/engine"
)

// Coin sides accepted as the challenger's call.
const (
	Heads = "heads"
	Tails = "tails"
)

// Game holds one flip's state.
type Game struct {
	rnd    *rand.Rand
	call   string
	result string
	winner int64
}

// New creates a coin-flip duel.
func New(rnd *rand.Rand) *Game {
	return &Game{rnd: rnd}
}

// Name implements engine.Rules.
func (g *Game) Name() string { return "flip" }

// Deal puts the challenger on the spot to call the coin.
func (g *Game) Deal(s *engine.Session) {
	if p := s.Participant(s.Challenger()); p != nil {
		p.State = engine.StateActing
	}
}

// Handle accepts the challenger's call and flips immediately.
func (g *Game) Handle(s *engine.Session, act engine.Action) error {
	if act.Actor != s.Challenger() {
		return engine.ErrNotYourTurn
	}
	if g.call != "" {
		return engine.ErrAlreadyMoved
	}

	call := strings.ToLower(act.Payload)
	if call != Heads && call != Tails {
		return engine.ErrUnknownAction
	}
	g.call = call

	g.result = Tails
	if g.rnd.Intn(2) == 0 {
		g.result = Heads
	}
	if g.result == g.call {
		g.winner = s.Challenger()
	} else {
		g.winner = s.Opponent()
	}
	return nil
}

// Done reports whether the coin has landed.
func (g *Game) Done(*engine.Session) bool { return g.winner != 0 }

// Outcomes pays the winner the taxed duel payout.
func (g *Game) Outcomes(s *engine.Session) []engine.Outcome {
	loser := s.Other(g.winner).UserID
	return engine.DuelOutcomes(g.winner, loser, s.Stake(), s.TaxRate())
}

// Forfeit covers the challenger never calling: the idle side loses.
func (g *Game) Forfeit(s *engine.Session, _ int64) []engine.Outcome {
	if g.winner != 0 {
		return g.Outcomes(s)
	}
	return engine.DuelOutcomes(s.Opponent(), s.Challenger(), s.Stake(), s.TaxRate())
}

// Call returns the challenger's call, empty until made.
func (g *Game) Call() string { return g.call }

// Result returns the coin's face, empty until flipped.
func (g *Game) Result() string { return g.result }

// Winner returns the winning user id, zero until decided.
func (g *Game) Winner() int64 { return g.winner }
