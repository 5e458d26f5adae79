package random

import (
	"math/rand/v2"
	"strings"
)

// Random draws the values behind generated usernames
type Random interface {
	// Intn returns a value in [0, n), or 0 when n <= 0
	Intn(n int) int

	// String returns length characters drawn from alphabet
	String(length int, alphabet string) string
}

// Source uses the runtime's ChaCha8 generator, which is seeded by the OS
// and safe for concurrent use. Nothing it produces is a secret; session ids
// come from idgen.
type Source struct{}

// New creates a Source
func New() Source {
	return Source{}
}

// Intn returns a value in [0, n)
func (Source) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return rand.IntN(n)
}

// String returns length characters drawn from alphabet
func (Source) String(length int, alphabet string) string {
	if length <= 0 || alphabet == "" {
		return ""
	}
	var sb strings.Builder
	sb.Grow(length)
	for range length {
		sb.WriteByte(alphabet[rand.IntN(len(alphabet))])
	}
	return sb.String()
}
