// Package scramble permutes the letters of a word for presentation to the player.
package scramble

import (
	"math/rand/v2"
	"slices"
)

// Option applies a configuration option to the Scrambler.
type Option func(*Scrambler)

// WithSource sets the random source. Tests pass a seeded source for
// reproducible permutations.
func WithSource(r *rand.Rand) Option {
	return func(s *Scrambler) {
		if r != nil {
			s.rng = r
		}
	}
}

// Scrambler produces uniform random permutations. It is meant for a single
// owner and is not safe for concurrent use.
type Scrambler struct {
	rng *rand.Rand
}

// New creates a Scrambler seeded from the runtime's random generator.
func New(opts ...Option) *Scrambler {
	s := &Scrambler{
		rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), //nolint:gosec // gameplay randomness, not security
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scramble returns a permutation of word.
func (s *Scrambler) Scramble(word string) string {
	return Scramble(word, s.rng)
}

// Intn returns a uniform value in [0, n). It shares the scrambler's source so a
// session can draw words and scramble them from one seeded stream.
func (s *Scrambler) Intn(n int) int {
	return s.rng.IntN(n)
}

// Scramble shuffles the runes of word with Fisher-Yates using r.
// Words of length 0 or 1 come back unchanged. The result may equal the input.
func Scramble(word string, r *rand.Rand) string {
	letters := []rune(word)
	if len(letters) <= 1 {
		return word
	}
	for i := len(letters) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		letters[i], letters[j] = letters[j], letters[i]
	}
	return string(letters)
}

// IsPermutation reports whether a and b hold the same multiset of runes.
func IsPermutation(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	if len(ra) != len(rb) {
		return false
	}
	slices.Sort(ra)
	slices.Sort(rb)
	return slices.Equal(ra, rb)
}

// Key returns the sorted-letter signature of word. Anagrams share a key.
func Key(word string) string {
	letters := []rune(word)
	slices.Sort(letters)
	return string(letters)
}
