// Package blackjack implements the multi-player blackjack table.
// Players act on their own hands independently; the dealer plays out
// once every hand is finished, drawing to 17.
package blackjack

import (
	"math/rand"
	"strings"

	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/engine"
)

// Move payloads accepted by Handle.
const (
	MoveHit   = "hit"
	MoveStand = "stand"
)

type hand struct {
	cards []Card
	stood bool
}

// Game holds one table's round state. The engine serializes access, so
// no locking is needed.
type Game struct {
	rnd    *rand.Rand
	deck   []Card
	dealer []Card
	hands  map[int64]*hand
}

// New creates a blackjack table using rnd as its card source.
func New(rnd *rand.Rand) *Game {
	return &Game{rnd: rnd}
}

// Name implements engine.Rules.
func (g *Game) Name() string { return "blackjack" }

// Deal shuffles a fresh deck and deals two cards to every seat and the
// dealer. Naturals are finished hands and wait for everyone else.
func (g *Game) Deal(s *engine.Session) {
	g.deck = newDeck(g.rnd)
	g.dealer = []Card{g.draw(), g.draw()}
	g.hands = make(map[int64]*hand)

	for _, p := range s.Participants() {
		h := &hand{cards: []Card{g.draw(), g.draw()}}
		g.hands[p.UserID] = h
		if isNatural(h.cards) {
			h.stood = true
			p.State = engine.StateDone
		} else {
			p.State = engine.StateActing
		}
	}
}

// Handle applies a hit or stand to the actor's own hand.
func (g *Game) Handle(s *engine.Session, act engine.Action) error {
	h := g.hands[act.Actor]
	if h == nil {
		return engine.ErrNotSeated
	}
	if h.stood {
		return engine.ErrAlreadyMoved
	}

	switch strings.ToLower(act.Payload) {
	case MoveHit:
		h.cards = append(h.cards, g.draw())
		if HandValue(h.cards) >= 21 {
			g.finish(s, act.Actor, h)
		}
	case MoveStand:
		g.finish(s, act.Actor, h)
	default:
		return engine.ErrUnknownAction
	}
	return nil
}

// Done reports whether every hand has been played out.
func (g *Game) Done(s *engine.Session) bool {
	for _, p := range s.Participants() {
		h := g.hands[p.UserID]
		if h == nil || !h.stood {
			return false
		}
	}
	return len(g.hands) > 0
}

// Outcomes plays the dealer out and scores every hand.
func (g *Game) Outcomes(s *engine.Session) []engine.Outcome {
	for HandValue(g.dealer) < 17 {
		g.dealer = append(g.dealer, g.draw())
	}

	var outs []engine.Outcome
	for _, p := range s.Participants() {
		h := g.hands[p.UserID]
		if h == nil {
			continue
		}
		out := settleHand(h.cards, g.dealer, p.Stake)
		out.UserID = p.UserID
		outs = append(outs, out)
	}
	return outs
}

// settleHand scores one finished hand against a played-out dealer. A
// natural pays 3:2, an ordinary win pays even money, a push returns
// the stake. Amounts are the total credit including the stake.
func settleHand(cards, dealer []Card, stake int64) engine.Outcome {
	value := HandValue(cards)
	dealerValue := HandValue(dealer)

	switch {
	case value > 21:
		return engine.Outcome{Kind: engine.Loss}
	case isNatural(cards) && !isNatural(dealer):
		return engine.Outcome{Kind: engine.Win, Amount: stake * 5 / 2}
	case dealerValue > 21 || value > dealerValue:
		return engine.Outcome{Kind: engine.Win, Amount: stake * 2}
	case value == dealerValue:
		return engine.Outcome{Kind: engine.Refund, Amount: stake}
	default:
		return engine.Outcome{Kind: engine.Loss}
	}
}

// Forfeit returns every undecided stake. An abandoned round must not
// cost anyone their wager.
func (g *Game) Forfeit(s *engine.Session, _ int64) []engine.Outcome {
	return engine.RefundAll(s.Participants())
}

// Hand returns the actor's cards and whether the hand is finished.
func (g *Game) Hand(userID int64) ([]Card, bool) {
	h := g.hands[userID]
	if h == nil {
		return nil, false
	}
	return h.cards, h.stood
}

// Dealer returns the dealer's cards.
func (g *Game) Dealer() []Card { return g.dealer }

// DealerUp returns the dealer's visible card while hands are in play.
func (g *Game) DealerUp() Card {
	if len(g.dealer) == 0 {
		return Card{}
	}
	return g.dealer[0]
}

func (g *Game) finish(s *engine.Session, userID int64, h *hand) {
	h.stood = true
	if p := s.Participant(userID); p != nil {
		p.State = engine.StateDone
	}
}

func (g *Game) draw() Card {
	if len(g.deck) == 0 {
		// A 52-card deck cannot be exhausted by seven players, but a
		// fresh shoe beats a panic.
		g.deck = newDeck(g.rnd)
	}
	c := g.deck[0]
	g.deck = g.deck[1:]
	return c
}
