package tui

import (
	"errors"
	"fmt"
)

var errNoSource = errors.New("no news source configured")

// wrapErr prefixes err with the operation that failed. A nil err stays nil.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
