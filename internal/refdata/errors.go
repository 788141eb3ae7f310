package refdata

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// NotFoundError names the missing thread table level and key.
type NotFoundError struct {
	Level  string // "series", "size" or "class"
	Key    string
	Parent string
}

func (e *NotFoundError) Error() string {
	if e.Parent == "" {
		return fmt.Sprintf("thread %s '%s' not found", e.Level, e.Key)
	}
	return fmt.Sprintf("thread %s '%s' not found for %s", e.Level, e.Key, e.Parent)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
