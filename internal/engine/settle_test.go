package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestWinPayout(t *testing.T) {
	tests := []struct {
		name    string
		stake   int64
		taxRate float64
		want    int64
	}{
		{"standard five percent tax", 100, 0.05, 190},
		{"no tax pays full pot", 100, 0, 200},
		{"tax result is floored", 999, 0.05, 1898}, // 1998 * 0.95 = 1898.1
		{"one silver stake", 1, 0.05, 1},
		{"large stake", 250000, 0.05, 475000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WinPayout(tt.stake, tt.taxRate))
		})
	}
}

// The winner's credit never exceeds the two-sided pot, never loses
// money against the floor formula, and a zero tax returns the pot
// exactly.
func TestWinPayoutProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		stake := rapid.Int64Range(1, 1_000_000).Draw(t, "stake")
		tax := rapid.Float64Range(0, 0.5).Draw(t, "tax")

		payout := WinPayout(stake, tax)

		if payout > 2*stake {
			t.Fatalf("payout %d exceeds pot %d", payout, 2*stake)
		}
		want := int64(math.Floor(float64(2*stake) * (1 - tax)))
		if payout != want {
			t.Fatalf("payout %d, want %d", payout, want)
		}
		if tax == 0 && payout != 2*stake {
			t.Fatalf("untaxed payout %d, want full pot %d", payout, 2*stake)
		}
	})
}

func TestDuelOutcomes(t *testing.T) {
	outs := DuelOutcomes(10, 20, 100, 0.05)
	require.Len(t, outs, 2)

	assert.Equal(t, int64(10), outs[0].UserID)
	assert.Equal(t, Win, outs[0].Kind)
	assert.Equal(t, int64(190), outs[0].Amount)

	assert.Equal(t, int64(20), outs[1].UserID)
	assert.Equal(t, Loss, outs[1].Kind)
	assert.Zero(t, outs[1].Amount)
}

func TestRefundAllReturnsEachStake(t *testing.T) {
	parts := []*Participant{
		{UserID: 1, Stake: 100},
		{UserID: 2, Stake: 250},
	}

	outs := RefundAll(parts)
	require.Len(t, outs, 2)
	for i, p := range parts {
		assert.Equal(t, p.UserID, outs[i].UserID)
		assert.Equal(t, Refund, outs[i].Kind)
		assert.Equal(t, p.Stake, outs[i].Amount)
	}
}
