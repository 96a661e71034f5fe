package blackjack

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNewDeckHas52UniqueCards(t *testing.T) {
	deck := newDeck(rand.New(rand.NewSource(1)))
	require.Len(t, deck, 52)

	seen := make(map[Card]bool, 52)
	for _, c := range deck {
		assert.False(t, seen[c], "duplicate card %s", c)
		seen[c] = true
	}
}

func TestHandValue(t *testing.T) {
	tests := []struct {
		name  string
		cards []Card
		want  int
	}{
		{"two number cards", mkHand("5", "9"), 14},
		{"face cards are ten", mkHand("K", "Q"), 20},
		{"natural twenty-one", mkHand("A", "K"), 21},
		{"soft ace stays eleven", mkHand("A", "6"), 17},
		{"ace downgrades on bust", mkHand("A", "6", "9"), 16},
		{"two aces", mkHand("A", "A"), 12},
		{"two aces with nine", mkHand("A", "A", "9"), 21},
		{"four aces", mkHand("A", "A", "A", "A"), 14},
		{"hard bust", mkHand("K", "Q", "5"), 25},
		{"ace saves a big hand", mkHand("A", "K", "Q"), 21},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HandValue(tt.cards))
		})
	}
}

// A hand's value never exceeds 21 while it still holds an ace counted
// high, and adding a card never lowers the value below the hard total.
func TestHandValueProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		deck := newDeck(rand.New(rand.NewSource(rapid.Int64().Draw(t, "seed"))))
		n := rapid.IntRange(1, 10).Draw(t, "cards")
		cards := deck[:n]

		value := HandValue(cards)

		hard := 0
		for _, c := range cards {
			v := c.value()
			if c.Rank == "A" {
				v = 1
			}
			hard += v
		}
		if value < hard {
			t.Fatalf("value %d below hard total %d", value, hard)
		}
		if hard <= 21 && value > 21 {
			t.Fatalf("value %d busts although hard total %d fits", value, hard)
		}
	})
}

func TestIsNatural(t *testing.T) {
	assert.True(t, isNatural(mkHand("A", "K")))
	assert.True(t, isNatural(mkHand("10", "A")))
	assert.False(t, isNatural(mkHand("7", "7", "7")), "three-card 21 is not a natural")
	assert.False(t, isNatural(mkHand("K", "Q")))
}

func mkHand(ranks ...string) []Card {
	cards := make([]Card, len(ranks))
	for i, r := range ranks {
		cards[i] = Card{Rank: r, Suit: "♠"}
	}
	return cards
}
