package blackjack

import "math/rand"

// Card is a single playing card.
type Card struct {
	Rank string
	Suit string
}

var (
	ranks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}
	suits = []string{"♠", "♥", "♦", "♣"}
)

func (c Card) String() string { return c.Rank + c.Suit }

func (c Card) value() int {
	switch c.Rank {
	case "A":
		return 11
	case "J", "Q", "K", "10":
		return 10
	default:
		return int(c.Rank[0] - '0')
	}
}

// newDeck returns a full 52-card deck shuffled with rnd.
func newDeck(rnd *rand.Rand) []Card {
	deck := make([]Card, 0, 52)
	for _, s := range suits {
		for _, r := range ranks {
			deck = append(deck, Card{Rank: r, Suit: s})
		}
	}
	rnd.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck
}

// HandValue scores a hand, counting aces as 11 and downgrading them to
// 1 one at a time while the hand would bust.
func HandValue(cards []Card) int {
	total, aces := 0, 0
	for _, c := range cards {
		total += c.value()
		if c.Rank == "A" {
			aces++
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

// isNatural reports a two-card 21.
func isNatural(cards []Card) bool {
	return len(cards) == 2 && HandValue(cards) == 21
}
