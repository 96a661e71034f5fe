package scramble

import (
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestWordListIsScrambleable(t *testing.T) {
	for _, w := range wordList {
		assert.GreaterOrEqual(t, len(w), 5, "word %q is too short", w)
		assert.Equal(t, strings.ToLower(w), w, "word %q is not lowercase", w)
		assert.Greater(t, distinctLetters(w), 1, "word %q cannot be shuffled into a different string", w)
	}
}

// The published puzzle is always an anagram of the answer and never
// the answer itself.
func TestShuffleProducesDistinctAnagram(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := New(rand.New(rand.NewSource(rapid.Int64().Draw(t, "seed"))))
		word := wordList[rapid.IntRange(0, len(wordList)-1).Draw(t, "word")]

		scrambled := g.shuffle(word)

		if scrambled == word {
			t.Fatalf("shuffle returned the original word %q", word)
		}
		if sortLetters(scrambled) != sortLetters(word) {
			t.Fatalf("%q is not an anagram of %q", scrambled, word)
		}
	})
}

func distinctLetters(w string) int {
	set := make(map[rune]bool)
	for _, r := range w {
		set[r] = true
	}
	return len(set)
}

func sortLetters(w string) string {
	letters := strings.Split(w, "")
	sort.Strings(letters)
	return strings.Join(letters, "")
}
