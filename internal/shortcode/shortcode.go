// Package shortcode implements short code generation and validation.
//
// Codes are assigned deterministically from the database id using a
// bijective base62 encoding, so they are collision-free by construction.
// The collision probability helpers apply only to random assignment
// schemes and exist for capacity monitoring, not for the encoder.
package shortcode

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const (
	MinCustomCodeLength = 3
	MaxCustomCodeLength = 50
)

var (
	// ErrInvalidLength is returned when a custom code is too short or too long.
	ErrInvalidLength = fmt.Errorf("custom code length must be between %d and %d characters",
		MinCustomCodeLength, MaxCustomCodeLength)
	// ErrInvalidCharacter is returned when a custom code contains characters
	// outside [A-Za-z0-9_-].
	ErrInvalidCharacter = errors.New("custom code may only contain letters, digits, hyphens and underscores")
	// ErrReservedCode is returned when a custom code collides with a reserved word.
	ErrReservedCode = errors.New("custom code is reserved")
)

// reservedCodes are codes that would shadow routes or common pages.
var reservedCodes = map[string]struct{}{
	"api":       {},
	"admin":     {},
	"app":       {},
	"auth":      {},
	"dashboard": {},
	"docs":      {},
	"health":    {},
	"help":      {},
	"links":     {},
	"login":     {},
	"logout":    {},
	"metrics":   {},
	"ping":      {},
	"settings":  {},
	"signup":    {},
	"static":    {},
	"stats":     {},
	"verify":    {},
	"www":       {},
}

// Encode converts a non-negative id into its base62 short code.
// The mapping is deterministic and injective; id 0 encodes to "0".
func Encode(id int64) string {
	if id == 0 {
		return string(alphabet[0])
	}

	n := uint64(id)
	buf := make([]byte, 0, 11)

	for n > 0 {
		buf = append(buf, alphabet[n%62])
		n /= 62
	}

	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}

	return string(buf)
}

// ValidateCustomCode checks a user-supplied code against length, character
// set and reserved word rules. Uniqueness against existing codes is the
// caller's responsibility via the repository.
func ValidateCustomCode(code string) error {
	if len(code) < MinCustomCodeLength || len(code) > MaxCustomCodeLength {
		return ErrInvalidLength
	}

	for _, c := range code {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return ErrInvalidCharacter
		}
	}

	if _, ok := reservedCodes[strings.ToLower(code)]; ok {
		return ErrReservedCode
	}

	return nil
}

// CollisionProbability estimates, via the birthday bound
// 1 - exp(-n(n-1) / (2 * 62^L)), the chance of at least one collision
// after assigning n codes of the given length uniformly at random.
// It does not describe the deterministic id-based encoder above.
func CollisionProbability(codeLength int, n int64) float64 {
	if codeLength <= 0 {
		return 1
	}
	if n < 2 {
		return 0
	}

	space := math.Pow(62, float64(codeLength))
	exponent := -float64(n) * float64(n-1) / (2 * space)

	return 1 - math.Exp(exponent)
}

// RecommendCodeLength returns the smallest code length whose estimated
// collision probability for the projected population stays at or below
// the given threshold.
func RecommendCodeLength(projectedPopulation int64, maxAcceptableProbability float64) int {
	const maxLength = 20

	for length := 1; length <= maxLength; length++ {
		if CollisionProbability(length, projectedPopulation) <= maxAcceptableProbability {
			return length
		}
	}

	return maxLength
}
