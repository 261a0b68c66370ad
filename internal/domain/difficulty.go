package domain

import (
	"fmt"
	"regexp"
)

// difficultyRe matches a combined whitewater grade string in three groups:
// an optional range minimum followed by a hyphen, the required maximum, and
// an optional parenthesized outlier. Class tokens are I through VI or the
// decimal "5.x" scale; the maximum and outlier may carry a +/- modifier.
// Alternation order matters: longer roman numerals must come first.
var difficultyRe = regexp.MustCompile(
	`^(?:(5\.\d|III|IV|VI|II|I|V)-)?((?:5\.\d|III|IV|VI|II|I|V)[+-]?)(?:\(((?:5\.\d|III|IV|VI|II|I|V)[+-]?)\))?$`,
)

// Difficulty holds the parsed components of a combined grade string.
// Absent components are empty strings.
type Difficulty struct {
	Minimum string
	Maximum string
	Outlier string
}

// ParseDifficulty splits a combined grade string such as "IV-V(V+)" into its
// minimum, maximum, and outlier components. Callers are expected to have
// filtered empty and "none" values already; input that does not match the
// grade grammar at all returns ErrValidation.
func ParseDifficulty(combined string) (Difficulty, error) {
	m := difficultyRe.FindStringSubmatch(combined)
	if m == nil {
		return Difficulty{}, fmt.Errorf("%w: unparseable difficulty grade %q", ErrValidation, combined)
	}
	return Difficulty{Minimum: m[1], Maximum: m[2], Outlier: m[3]}, nil
}

// difficultyFilterValues orders grade tokens for numeric filtering, spacing
// the +/- modifiers inside each class.
var difficultyFilterValues = map[string]float64{
	"I":    1.1,
	"I+":   1.2,
	"II-":  2.0,
	"II":   2.1,
	"II+":  2.2,
	"III-": 3.0,
	"III":  3.1,
	"III+": 3.2,
	"IV-":  4.0,
	"IV":   4.1,
	"IV+":  4.2,
	"V-":   5.0,
	"V":    5.1,
	"V+":   5.3,
}

// DifficultyFilter maps a maximum grade token to its numeric filter value.
func DifficultyFilter(maximum string) (float64, error) {
	v, ok := difficultyFilterValues[maximum]
	if !ok {
		return 0, fmt.Errorf("%w: no filter value for difficulty %q", ErrValidation, maximum)
	}
	return v, nil
}
