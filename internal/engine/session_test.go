package engine_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/engine"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/game/blackjack"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/game/flip"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/game/highroll"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/game/roulette"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/game/rps"
	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/game/scramble"
)

type ledgerEntry struct {
	userID int64
	amount int64
	dir    engine.Direction
	reason string
}

// fakeLedger is an in-memory engine.Ledger for session tests.
type fakeLedger struct {
	mu       sync.Mutex
	balances map[int64]int64
	entries  []ledgerEntry
	fail     bool
}

func newFakeLedger(balances map[int64]int64) *fakeLedger {
	return &fakeLedger{balances: balances}
}

func (l *fakeLedger) Balance(_ context.Context, _, userID int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail {
		return 0, errors.New("ledger unavailable")
	}
	return l.balances[userID], nil
}

func (l *fakeLedger) Adjust(_ context.Context, _, userID, amount int64, dir engine.Direction, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail {
		return errors.New("ledger unavailable")
	}
	if dir == engine.Subtract {
		if l.balances[userID] < amount {
			return fmt.Errorf("insufficient balance for user %d", userID)
		}
		l.balances[userID] -= amount
	} else {
		l.balances[userID] += amount
	}
	l.entries = append(l.entries, ledgerEntry{userID: userID, amount: amount, dir: dir, reason: reason})
	return nil
}

func (l *fakeLedger) count(reason string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.reason == reason {
			n++
		}
	}
	return n
}

func (l *fakeLedger) sum(reason string, userID int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	var total int64
	for _, e := range l.entries {
		if e.reason == reason && e.userID == userID {
			total += e.amount
		}
	}
	return total
}

func (l *fakeLedger) balance(userID int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[userID]
}

const (
	alice = int64(1)
	bob   = int64(2)
)

func testRand() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func tableConfig(ledger engine.Ledger) engine.Config {
	return engine.Config{
		ChatID:     100,
		Rules:      blackjack.New(testRand()),
		Mode:       engine.ModeTable,
		Ledger:     ledger,
		MaxBet:     1000,
		Countdown:  30 * time.Millisecond,
		Cooldown:   time.Hour,
		Inactivity: time.Hour,
		EmptyClose: time.Hour,
	}
}

func duelConfig(ledger engine.Ledger, rules engine.Rules) engine.Config {
	return engine.Config{
		ChatID:         100,
		Rules:          rules,
		Mode:           engine.ModeDuel,
		Ledger:         ledger,
		TaxRate:        0.05,
		Stake:          100,
		Challenger:     alice,
		ChallengerName: "Alice",
		Opponent:       bob,
		OpponentName:   "Bob",
		AcceptTimeout:  time.Hour,
	}
}

func do(t *testing.T, s *engine.Session, act engine.Action) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Do(ctx, act)
}

func waitClosed(t *testing.T, s *engine.Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("session did not close in time")
	}
}

func TestOpenEnforcesOneSessionPerScope(t *testing.T) {
	reg := engine.NewRegistry()
	ledger := newFakeLedger(map[int64]int64{alice: 1000})

	s, err := engine.Open(reg, tableConfig(ledger))
	require.NoError(t, err)

	_, err = engine.Open(reg, tableConfig(ledger))
	assert.ErrorIs(t, err, engine.ErrSessionOpen)

	// A different game family in the same chat is its own scope.
	other, err := engine.Open(reg, duelConfig(ledger, rps.New()))
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Count())

	// Closing frees the scope for a new session.
	s.Shutdown("test over")
	reopened, err := engine.Open(reg, tableConfig(ledger))
	require.NoError(t, err)

	reopened.Shutdown("test over")
	other.Shutdown("test over")
	assert.Zero(t, reg.Count())
}

func TestTableBetValidation(t *testing.T) {
	reg := engine.NewRegistry()
	ledger := newFakeLedger(map[int64]int64{alice: 500})

	s, err := engine.Open(reg, tableConfig(ledger))
	require.NoError(t, err)
	defer s.Shutdown("test over")

	err = do(t, s, engine.Action{Kind: engine.ActionBet, Actor: alice, Amount: 0})
	assert.ErrorIs(t, err, engine.ErrInvalidStake)

	err = do(t, s, engine.Action{Kind: engine.ActionBet, Actor: alice, Amount: 5000})
	assert.ErrorIs(t, err, engine.ErrStakeTooLarge)

	err = do(t, s, engine.Action{Kind: engine.ActionBet, Actor: alice, Amount: 600})
	assert.ErrorIs(t, err, engine.ErrInsufficientFunds)

	err = do(t, s, engine.Action{Kind: engine.ActionBet, Actor: alice, Amount: 500, Payload: "Alice"})
	assert.NoError(t, err)

	// No stake moves before the round starts.
	assert.Empty(t, ledger.entries)
}

func TestTableRoundDebitsEachStakeOnce(t *testing.T) {
	reg := engine.NewRegistry()
	ledger := newFakeLedger(map[int64]int64{alice: 1000, bob: 1000})

	s, err := engine.Open(reg, tableConfig(ledger))
	require.NoError(t, err)
	defer s.Shutdown("test over")

	require.NoError(t, do(t, s, engine.Action{Kind: engine.ActionBet, Actor: alice, Amount: 100, Payload: "Alice"}))
	require.NoError(t, do(t, s, engine.Action{Kind: engine.ActionBet, Actor: bob, Amount: 200, Payload: "Bob"}))
	require.NoError(t, do(t, s, engine.Action{Kind: engine.ActionReady, Actor: alice}))
	require.NoError(t, do(t, s, engine.Action{Kind: engine.ActionReady, Actor: bob}))

	// Both ready: the round started synchronously and committed the
	// stakes exactly once.
	assert.Equal(t, 2, ledger.count(engine.ReasonStake))
	assert.Equal(t, int64(100), ledger.sum(engine.ReasonStake, alice))
	assert.Equal(t, int64(200), ledger.sum(engine.ReasonStake, bob))
}

func TestTableCountdownKicksUnreadySeats(t *testing.T) {
	reg := engine.NewRegistry()
	ledger := newFakeLedger(map[int64]int64{alice: 1000, bob: 1000})

	s, err := engine.Open(reg, tableConfig(ledger))
	require.NoError(t, err)
	defer s.Shutdown("test over")

	require.NoError(t, do(t, s, engine.Action{Kind: engine.ActionBet, Actor: alice, Amount: 100, Payload: "Alice"}))
	require.NoError(t, do(t, s, engine.Action{Kind: engine.ActionBet, Actor: bob, Amount: 100, Payload: "Bob"}))
	require.NoError(t, do(t, s, engine.Action{Kind: engine.ActionReady, Actor: alice}))

	// Bob never readies; the countdown starts the round without him
	// and only Alice's stake is debited.
	assert.Eventually(t, func() bool {
		return ledger.count(engine.ReasonStake) == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(100), ledger.sum(engine.ReasonStake, alice))
	assert.Zero(t, ledger.sum(engine.ReasonStake, bob))

	// The kicked seat cannot act in the round.
	err = do(t, s, engine.Action{Kind: engine.ActionMove, Actor: bob, Payload: blackjack.MoveHit})
	assert.Error(t, err)
}

func TestDuelAcceptDebitsBothAndSettlesOnce(t *testing.T) {
	reg := engine.NewRegistry()
	ledger := newFakeLedger(map[int64]int64{alice: 1000, bob: 1000})

	s, err := engine.Open(reg, duelConfig(ledger, rps.New()))
	require.NoError(t, err)

	require.NoError(t, do(t, s, engine.Action{Kind: engine.ActionAccept, Actor: bob}))
	assert.Equal(t, 2, ledger.count(engine.ReasonStake))

	// Identical picks tie, refunding both stakes in full.
	require.NoError(t, do(t, s, engine.Action{Kind: engine.ActionMove, Actor: alice, Payload: rps.Rock}))
	require.NoError(t, do(t, s, engine.Action{Kind: engine.ActionMove, Actor: bob, Payload: rps.Rock}))
	waitClosed(t, s)

	assert.Equal(t, 2, ledger.count(engine.ReasonRefund))
	assert.Equal(t, int64(1000), ledger.balance(alice))
	assert.Equal(t, int64(1000), ledger.balance(bob))
	assert.Equal(t, "finished", s.CloseReason())
}

func TestDuelWinnerTakesTaxedPot(t *testing.T) {
	reg := engine.NewRegistry()
	ledger := newFakeLedger(map[int64]int64{alice: 1000, bob: 1000})

	s, err := engine.Open(reg, duelConfig(ledger, rps.New()))
	require.NoError(t, err)

	require.NoError(t, do(t, s, engine.Action{Kind: engine.ActionAccept, Actor: bob}))
	require.NoError(t, do(t, s, engine.Action{Kind: engine.ActionMove, Actor: alice, Payload: rps.Paper}))
	require.NoError(t, do(t, s, engine.Action{Kind: engine.ActionMove, Actor: bob, Payload: rps.Rock}))
	waitClosed(t, s)

	// 2*100 pot at 5% tax: 190 to the winner, loser gets nothing.
	assert.Equal(t, 1, ledger.count(engine.ReasonWin))
	assert.Equal(t, int64(190), ledger.sum(engine.ReasonWin, alice))
	assert.Equal(t, int64(1090), ledger.balance(alice))
	assert.Equal(t, int64(900), ledger.balance(bob))
}

func TestDuelDeclineMovesNoMoney(t *testing.T) {
	reg := engine.NewRegistry()
	ledger := newFakeLedger(map[int64]int64{alice: 1000, bob: 1000})

	s, err := engine.Open(reg, duelConfig(ledger, rps.New()))
	require.NoError(t, err)

	// Only the challenged player may answer.
	err = do(t, s, engine.Action{Kind: engine.ActionAccept, Actor: alice})
	assert.ErrorIs(t, err, engine.ErrNotYourChallenge)

	require.NoError(t, do(t, s, engine.Action{Kind: engine.ActionDecline, Actor: bob}))
	waitClosed(t, s)

	assert.Empty(t, ledger.entries)
	assert.Equal(t, "challenge declined", s.CloseReason())
}

func TestDuelAcceptWindowExpiry(t *testing.T) {
	reg := engine.NewRegistry()
	ledger := newFakeLedger(map[int64]int64{alice: 1000, bob: 1000})

	cfg := duelConfig(ledger, rps.New())
	cfg.AcceptTimeout = 30 * time.Millisecond
	s, err := engine.Open(reg, cfg)
	require.NoError(t, err)

	waitClosed(t, s)
	assert.Empty(t, ledger.entries)
	assert.Equal(t, "challenge expired", s.CloseReason())
	assert.Zero(t, reg.Count())
}

func TestDuelRejectsWhenOpponentCannotCover(t *testing.T) {
	reg := engine.NewRegistry()
	ledger := newFakeLedger(map[int64]int64{alice: 1000, bob: 50})

	s, err := engine.Open(reg, duelConfig(ledger, rps.New()))
	require.NoError(t, err)

	err = do(t, s, engine.Action{Kind: engine.ActionAccept, Actor: bob})
	assert.ErrorIs(t, err, engine.ErrInsufficientFunds)
	waitClosed(t, s)
	assert.Empty(t, ledger.entries)
}

func TestRouletteTurnTimeoutForfeitsIdlePlayer(t *testing.T) {
	reg := engine.NewRegistry()
	ledger := newFakeLedger(map[int64]int64{alice: 1000, bob: 1000})

	cfg := duelConfig(ledger, roulette.New(testRand()))
	cfg.TurnTimeout = 30 * time.Millisecond
	s, err := engine.Open(reg, cfg)
	require.NoError(t, err)

	require.NoError(t, do(t, s, engine.Action{Kind: engine.ActionAccept, Actor: bob}))

	// The challenger holds the first turn and never pulls; the idle
	// side forfeits.
	waitClosed(t, s)
	assert.Equal(t, int64(190), ledger.sum(engine.ReasonWin, bob))
	assert.Zero(t, ledger.sum(engine.ReasonWin, alice))
}

func TestMoveWindowExpiryForfeitsToOnlyMover(t *testing.T) {
	reg := engine.NewRegistry()
	ledger := newFakeLedger(map[int64]int64{alice: 1000, bob: 1000})

	cfg := duelConfig(ledger, rps.New())
	cfg.MoveWindow = 60 * time.Millisecond
	s, err := engine.Open(reg, cfg)
	require.NoError(t, err)

	require.NoError(t, do(t, s, engine.Action{Kind: engine.ActionAccept, Actor: bob}))
	require.NoError(t, do(t, s, engine.Action{Kind: engine.ActionMove, Actor: alice, Payload: rps.Scissors}))

	waitClosed(t, s)
	assert.Equal(t, int64(190), ledger.sum(engine.ReasonWin, alice))
	assert.Equal(t, int64(900), ledger.balance(bob))
}

func TestScrambleRace(t *testing.T) {
	reg := engine.NewRegistry()
	ledger := newFakeLedger(map[int64]int64{alice: 1000, bob: 1000})

	game := scramble.New(testRand())
	s, err := engine.Open(reg, duelConfig(ledger, game))
	require.NoError(t, err)

	require.NoError(t, do(t, s, engine.Action{Kind: engine.ActionAccept, Actor: bob}))
	require.NotEqual(t, game.Word(), game.Scrambled())

	err = do(t, s, engine.Action{Kind: engine.ActionGuess, Actor: bob, Payload: "definitely wrong"})
	assert.ErrorIs(t, err, engine.ErrWrongGuess)

	require.NoError(t, do(t, s, engine.Action{Kind: engine.ActionGuess, Actor: bob, Payload: game.Word()}))
	waitClosed(t, s)

	assert.Equal(t, int64(190), ledger.sum(engine.ReasonWin, bob))
}

func TestFlipDuelPaysCorrectSide(t *testing.T) {
	reg := engine.NewRegistry()
	ledger := newFakeLedger(map[int64]int64{alice: 1000, bob: 1000})

	game := flip.New(testRand())
	s, err := engine.Open(reg, duelConfig(ledger, game))
	require.NoError(t, err)

	require.NoError(t, do(t, s, engine.Action{Kind: engine.ActionAccept, Actor: bob}))

	// Only the challenger may call the coin.
	err = do(t, s, engine.Action{Kind: engine.ActionMove, Actor: bob, Payload: flip.Heads})
	assert.ErrorIs(t, err, engine.ErrNotYourTurn)

	require.NoError(t, do(t, s, engine.Action{Kind: engine.ActionMove, Actor: alice, Payload: flip.Heads}))
	waitClosed(t, s)

	winner := game.Winner()
	if game.Result() == flip.Heads {
		assert.Equal(t, alice, winner)
	} else {
		assert.Equal(t, bob, winner)
	}
	assert.Equal(t, 1, ledger.count(engine.ReasonWin))
	assert.Equal(t, int64(190), ledger.sum(engine.ReasonWin, winner))
}

func TestHighRollDuelSettlesEveryGame(t *testing.T) {
	reg := engine.NewRegistry()
	ledger := newFakeLedger(map[int64]int64{alice: 1000, bob: 1000})

	game := highroll.New(testRand())
	s, err := engine.Open(reg, duelConfig(ledger, game))
	require.NoError(t, err)

	require.NoError(t, do(t, s, engine.Action{Kind: engine.ActionAccept, Actor: bob}))
	require.NoError(t, do(t, s, engine.Action{Kind: engine.ActionMove, Actor: alice, Payload: "roll"}))

	err = do(t, s, engine.Action{Kind: engine.ActionMove, Actor: alice, Payload: "roll"})
	assert.ErrorIs(t, err, engine.ErrAlreadyMoved)

	require.NoError(t, do(t, s, engine.Action{Kind: engine.ActionMove, Actor: bob, Payload: "roll"}))
	waitClosed(t, s)

	// Either one taxed win or a two-sided tie refund; money never
	// leaks either way.
	wins, refunds := ledger.count(engine.ReasonWin), ledger.count(engine.ReasonRefund)
	switch game.Roll(alice) {
	case game.Roll(bob):
		assert.Zero(t, wins)
		assert.Equal(t, 2, refunds)
		assert.Equal(t, int64(1000), ledger.balance(alice))
	default:
		assert.Equal(t, 1, wins)
		assert.Zero(t, refunds)
	}
}

func TestRoulettePlaysToTheBullet(t *testing.T) {
	reg := engine.NewRegistry()
	ledger := newFakeLedger(map[int64]int64{alice: 1000, bob: 1000})

	game := roulette.New(testRand())
	cfg := duelConfig(ledger, game)
	s, err := engine.Open(reg, cfg)
	require.NoError(t, err)

	require.NoError(t, do(t, s, engine.Action{Kind: engine.ActionAccept, Actor: bob}))

	// Alternate pulls until the bullet fires, starting with the
	// challenger. Out-of-turn pulls are rejected.
	turn := alice
	for i := 0; i < roulette.Chambers; i++ {
		other := bob
		if turn == bob {
			other = alice
		}
		err := do(t, s, engine.Action{Kind: engine.ActionMove, Actor: other, Payload: roulette.MovePull})
		if game.Winner() != 0 {
			break
		}
		assert.ErrorIs(t, err, engine.ErrNotYourTurn)

		require.NoError(t, do(t, s, engine.Action{Kind: engine.ActionMove, Actor: turn, Payload: roulette.MovePull}))
		if game.Winner() != 0 {
			break
		}
		turn = other
	}

	waitClosed(t, s)
	require.NotZero(t, game.Winner())
	assert.Equal(t, int64(190), ledger.sum(engine.ReasonWin, game.Winner()))
	assert.LessOrEqual(t, game.Pulls(), roulette.Chambers-1)
}

func TestShutdownRefundsOpenRound(t *testing.T) {
	reg := engine.NewRegistry()
	ledger := newFakeLedger(map[int64]int64{alice: 1000, bob: 1000})

	s, err := engine.Open(reg, duelConfig(ledger, rps.New()))
	require.NoError(t, err)
	require.NoError(t, do(t, s, engine.Action{Kind: engine.ActionAccept, Actor: bob}))
	require.Equal(t, 2, ledger.count(engine.ReasonStake))

	// Neither side moved: a forced close must return both stakes.
	reg.CloseAll("the bot is shutting down")

	assert.Equal(t, 2, ledger.count(engine.ReasonRefund))
	assert.Equal(t, int64(1000), ledger.balance(alice))
	assert.Equal(t, int64(1000), ledger.balance(bob))
	assert.Zero(t, reg.Count())
}

func TestClosedSessionRejectsActions(t *testing.T) {
	reg := engine.NewRegistry()
	ledger := newFakeLedger(map[int64]int64{alice: 1000, bob: 1000})

	s, err := engine.Open(reg, duelConfig(ledger, rps.New()))
	require.NoError(t, err)
	s.Shutdown("test over")

	err = do(t, s, engine.Action{Kind: engine.ActionAccept, Actor: bob})
	assert.ErrorIs(t, err, engine.ErrSessionClosed)
}
