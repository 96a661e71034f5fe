// Package rps implements the rock-paper-scissors duel. Both players
// commit a hidden pick; the round resolves when the second pick lands.
package rps

import (
	"strings"

	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/engine"
)

// Picks accepted by Handle.
const (
	Rock     = "rock"
	Paper    = "paper"
	Scissors = "scissors"
)

// beats maps each pick to the pick it defeats.
var beats = map[string]string{
	Rock:     Scissors,
	Paper:    Rock,
	Scissors: Paper,
}

// Game holds one match's state.
type Game struct {
	picks map[int64]string
}

// New creates a rock-paper-scissors duel.
func New() *Game {
	return &Game{picks: make(map[int64]string)}
}

// Name implements engine.Rules.
func (g *Game) Name() string { return "rps" }

// Deal puts both players on the clock.
func (g *Game) Deal(s *engine.Session) {
	for _, p := range s.Participants() {
		p.State = engine.StateActing
	}
}

// Handle records the actor's pick. Picks are final.
func (g *Game) Handle(s *engine.Session, act engine.Action) error {
	if _, moved := g.picks[act.Actor]; moved {
		return engine.ErrAlreadyMoved
	}

	pick := strings.ToLower(act.Payload)
	if _, ok := beats[pick]; !ok {
		return engine.ErrUnknownAction
	}
	g.picks[act.Actor] = pick
	if p := s.Participant(act.Actor); p != nil {
		p.State = engine.StateDone
	}
	return nil
}

// Done reports whether both picks are in.
func (g *Game) Done(*engine.Session) bool { return len(g.picks) == 2 }

// Outcomes resolves standard dominance; identical picks refund both.
func (g *Game) Outcomes(s *engine.Session) []engine.Outcome {
	a, b := s.Challenger(), s.Opponent()
	pa, pb := g.picks[a], g.picks[b]

	switch {
	case pa == pb:
		return engine.RefundAll(s.Participants())
	case beats[pa] == pb:
		return engine.DuelOutcomes(a, b, s.Stake(), s.TaxRate())
	default:
		return engine.DuelOutcomes(b, a, s.Stake(), s.TaxRate())
	}
}

// Forfeit awards the match to the only side that committed a pick;
// when neither moved, both stakes come back.
func (g *Game) Forfeit(s *engine.Session, _ int64) []engine.Outcome {
	if len(g.picks) == 1 {
		for mover := range g.picks {
			return engine.DuelOutcomes(mover, s.Other(mover).UserID, s.Stake(), s.TaxRate())
		}
	}
	return engine.RefundAll(s.Participants())
}

// Pick returns the actor's committed pick, empty until made.
func (g *Game) Pick(userID int64) string { return g.picks[userID] }
