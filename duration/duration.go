package duration

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidFormat is returned when an expression does not match
// <number>[unit] with unit one of s, m, h, d, w.
var ErrInvalidFormat = errors.New("duration: invalid format")

// Seconds per unit.
const (
	second = 1
	minute = 60
	hour   = 3600
	day    = 86400
	week   = 604800
)

var multipliers = map[byte]float64{
	's': second,
	'm': minute,
	'h': hour,
	'd': day,
	'w': week,
}

// Parse converts an expiration expression to whole seconds, rounded to
// nearest. The expression is a number followed by an optional unit
// (s, m, h, d, w, case-insensitive); a bare number means seconds.
// The number may be fractional.
//
// Determinism: same input always yields the same output; no locale or
// clock dependence.
func Parse(expr string) (int, error) {
	s := strings.TrimSpace(expr)
	if s == "" {
		return 0, fmt.Errorf("%w: empty expression", ErrInvalidFormat)
	}

	numPart := s
	mult := float64(second)
	last := s[len(s)-1]
	if last < '0' || last > '9' {
		m, ok := multipliers[lowerASCII(last)]
		if !ok {
			return 0, fmt.Errorf("%w: unknown unit %q in %q", ErrInvalidFormat, string(last), expr)
		}
		mult = m
		numPart = s[:len(s)-1]
	}

	n, err := strconv.ParseFloat(numPart, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidFormat, numPart)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: negative duration %q", ErrInvalidFormat, expr)
	}

	return int(math.Round(n * mult)), nil
}

func lowerASCII(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}
