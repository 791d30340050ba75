package predictor

import (
	"errors"

	"github.com/permupdate/permtrack/backend/internal/types"
)

// ErrInvalidLetter is returned for an alphabetic key that is not a single
// letter A-Z. It is a caller input error, not data unavailability.
var ErrInvalidLetter = errors.New("employer first letter must be a single letter A-Z")

// Classification thresholds on the 0-25 letter ordinal
const (
	highPriorityBelow   = 9
	mediumPriorityBelow = 18
)

// NormalizeLetter validates the alphabetic tie-break key and returns the
// uppercase letter plus its 0-25 ordinal.
func NormalizeLetter(letter string) (string, int, error) {
	if len(letter) != 1 {
		return "", 0, ErrInvalidLetter
	}
	c := letter[0]
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	if c < 'A' || c > 'Z' {
		return "", 0, ErrInvalidLetter
	}
	return string(c), int(c - 'A'), nil
}

// LetterPriority classifies a letter ordinal into a queue priority band
func LetterPriority(ordinal int) types.LetterPriority {
	switch {
	case ordinal < highPriorityBelow:
		return types.PriorityHigh
	case ordinal < mediumPriorityBelow:
		return types.PriorityMedium
	default:
		return types.PriorityLow
	}
}

// LetterImpact maps the same bands onto the user-facing speed labels
func LetterImpact(ordinal int) types.LetterImpact {
	switch {
	case ordinal < highPriorityBelow:
		return types.ImpactFaster
	case ordinal < mediumPriorityBelow:
		return types.ImpactAverage
	default:
		return types.ImpactSlower
	}
}
