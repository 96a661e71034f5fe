// Package scramble implements the word-scramble duel: both players
// race to unscramble the same word, first correct guess takes the pot.
package scramble

import (
	"math/rand"
	"strings"

	"github.com/kawasa9350-svg/Phoenix-Assistance/internal/engine"
)

// Game holds one race's word.
type Game struct {
	rnd       *rand.Rand
	word      string
	scrambled string
	winner    int64
}

// New creates a word-scramble duel.
func New(rnd *rand.Rand) *Game {
	return &Game{rnd: rnd}
}

// Name implements engine.Rules.
func (g *Game) Name() string { return "scramble" }

// Deal picks a word and publishes a shuffle of it that is guaranteed
// to differ from the original.
func (g *Game) Deal(s *engine.Session) {
	g.word = wordList[g.rnd.Intn(len(wordList))]
	g.scrambled = g.shuffle(g.word)
	for _, p := range s.Participants() {
		p.State = engine.StateActing
	}
}

// Handle checks a guess. A wrong guess is reported to the guesser and
// the race continues.
func (g *Game) Handle(s *engine.Session, act engine.Action) error {
	if g.winner != 0 {
		return engine.ErrAlreadyMoved
	}
	if !strings.EqualFold(strings.TrimSpace(act.Payload), g.word) {
		return engine.ErrWrongGuess
	}
	g.winner = act.Actor
	return nil
}

// Done reports whether someone solved the word.
func (g *Game) Done(*engine.Session) bool { return g.winner != 0 }

// Outcomes pays the solver the taxed duel payout.
func (g *Game) Outcomes(s *engine.Session) []engine.Outcome {
	return engine.DuelOutcomes(g.winner, s.Other(g.winner).UserID, s.Stake(), s.TaxRate())
}

// Forfeit refunds both when the window closes with no solver.
func (g *Game) Forfeit(s *engine.Session, _ int64) []engine.Outcome {
	if g.winner != 0 {
		return g.Outcomes(s)
	}
	return engine.RefundAll(s.Participants())
}

// Scrambled returns the puzzle shown to both players.
func (g *Game) Scrambled() string { return g.scrambled }

// Word returns the answer. Renderers show it only after the race ends.
func (g *Game) Word() string { return g.word }

// Winner returns the solver's id, zero while the race runs.
func (g *Game) Winner() int64 { return g.winner }

func (g *Game) shuffle(word string) string {
	letters := []byte(word)
	for {
		g.rnd.Shuffle(len(letters), func(i, j int) {
			letters[i], letters[j] = letters[j], letters[i]
		})
		if string(letters) != word {
			return string(letters)
		}
	}
}
