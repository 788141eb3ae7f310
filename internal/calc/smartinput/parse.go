// Package smartinput turns free-text form values ("1,000", "$12.5", "0.5+0.25",
// "3/8") into bounded numbers. Nothing in this package returns an error: every
// failure resolves to 0.
package smartinput

import (
	"math"
	"strconv"
	"strings"
)

// Parse evaluates text as a small arithmetic expression and returns a finite,
// non-negative number rounded to 4 decimals. With percent set the value is
// rounded to a whole number, and fractions below 1 are promoted (0.5 -> 50).
func Parse(text string, percent bool) float64 {
	expr := clean(text)
	if expr == "" || strings.ContainsRune("+-*/(", rune(expr[len(expr)-1])) {
		return 0
	}

	v, err := Eval(expr)
	if err != nil {
		v = leadingFloat(expr)
	}
	return Normalize(v, percent)
}

// Normalize applies the clamping and rounding rules of Parse to an already
// numeric value.
func Normalize(v float64, percent bool) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	if percent && v < 1 {
		v *= 100
	}
	if v < 0 {
		v = 0
	}
	if percent {
		return math.Floor(v + 0.5)
	}
	return Round4(v)
}

// Round4 rounds to 4 decimal places.
func Round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// clean drops everything that is not a digit, a dot, an operator or a paren.
func clean(text string) string {
	var b strings.Builder
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9', strings.ContainsRune(".+-*/()", r):
			b.WriteRune(r)
		}
	}
	return b.String()
}

// leadingFloat parses the longest prefix of s that is a decimal literal.
func leadingFloat(s string) float64 {
	end, dot, digits := 0, false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if i == 0 && (c == '+' || c == '-') {
			end = 1
			continue
		}
		if c >= '0' && c <= '9' {
			digits = true
			end = i + 1
			continue
		}
		if c == '.' && !dot {
			dot = true
			end = i + 1
			continue
		}
		break
	}
	if !digits {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil {
		return 0
	}
	return v
}
