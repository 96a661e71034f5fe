// Package highroll implements the high-roll duel: each player rolls
// once, 1 to 100, and the higher roll takes the pot.
package highroll

import (
	"math/rand"

	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/engine"
)

// Game holds one duel's rolls.
type Game struct {
	rnd   *rand.Rand
	rolls map[int64]int
}

// New creates a high-roll duel.
func New(rnd *rand.Rand) *Game {
	return &Game{rnd: rnd, rolls: make(map[int64]int)}
}

// Name implements engine.Rules.
func (g *Game) Name() string { return "highroll" }

// Deal puts both players on the clock.
func (g *Game) Deal(s *engine.Session) {
	for _, p := range s.Participants() {
		p.State = engine.StateActing
	}
}

// Handle rolls for the actor. One roll per player.
func (g *Game) Handle(s *engine.Session, act engine.Action) error {
	if _, rolled := g.rolls[act.Actor]; rolled {
		return engine.ErrAlreadyMoved
	}
	g.rolls[act.Actor] = g.rnd.Intn(100) + 1
	if p := s.Participant(act.Actor); p != nil {
		p.State = engine.StateDone
	}
	return nil
}

// Done reports whether both rolls are in.
func (g *Game) Done(*engine.Session) bool { return len(g.rolls) == 2 }

// Outcomes pays the higher roll; equal rolls refund both.
func (g *Game) Outcomes(s *engine.Session) []engine.Outcome {
	a, b := s.Challenger(), s.Opponent()
	ra, rb := g.rolls[a], g.rolls[b]

	switch {
	case ra == rb:
		return engine.RefundAll(s.Participants())
	case ra > rb:
		return engine.DuelOutcomes(a, b, s.Stake(), s.TaxRate())
	default:
		return engine.DuelOutcomes(b, a, s.Stake(), s.TaxRate())
	}
}

// Forfeit awards the duel to the only side that rolled; when neither
// did, both stakes come back.
func (g *Game) Forfeit(s *engine.Session, _ int64) []engine.Outcome {
	if len(g.rolls) == 1 {
		for mover := range g.rolls {
			return engine.DuelOutcomes(mover, s.Other(mover).UserID, s.Stake(), s.TaxRate())
		}
	}
	return engine.RefundAll(s.Participants())
}

// Roll returns the actor's roll, zero until made.
func (g *Game) Roll(userID int64) int { return g.rolls[userID] }
