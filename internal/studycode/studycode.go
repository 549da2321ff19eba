// Package studycode generates the short human-readable codes used for
// friend connections and invitations.
package studycode

import (
	"crypto/rand"
	"fmt"
)

// Alphabet omits I, O, 0 and 1 to avoid confusion when read aloud.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	StudyCodeLength  = 6
	InviteCodeLength = 8
)

// Generate returns a random code of n characters drawn uniformly from
// Alphabet, using rejection sampling so no character is favored.
func Generate(n int) (string, error) {
	out := make([]byte, 0, n)
	buf := make([]byte, n)

	// Largest multiple of len(Alphabet) no greater than 256; byte values at
	// or above it are rejected to keep the draw unbiased.
	limit := 256 - 256%len(Alphabet)

	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
