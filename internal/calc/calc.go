// Package calc holds what the feed and speed calculators share: the RPM
// constant, error values, warning conventions and the JSON plumbing used by
// their HTTP handlers.
package calc

import (
	"errors"
	"fmt"
	"strings"
)

// RPMFactor converts surface feet per minute and a diameter in inches to
// spindle RPM (12/pi, rounded as shop charts do).
const RPMFactor = 3.82

// WarnGlyph prefixes cautionary warnings. Notes without it are informational.
const WarnGlyph = "⚠"

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnknownMaterial = errors.New("unknown material")
)

// Warn formats a cautionary warning.
func Warn(format string, args ...any) string {
	return WarnGlyph + " " + fmt.Sprintf(format, args...)
}

// Caution reports whether any warning is cautionary.
func Caution(warnings []string) bool {
	for _, w := range warnings {
		if strings.Contains(w, WarnGlyph) {
			return true
		}
	}
	return false
}

// Invalid wraps ErrInvalidInput with a reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Run calls fn and turns a panic inside it into ErrInvalidInput, so a
// calculation either returns a full result or an error, never half of one.
func Run[T any](fn func() (T, error)) (res T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			res, err = zero, fmt.Errorf("%w: %v", ErrInvalidInput, r)
		}
	}()
	return fn()
}
