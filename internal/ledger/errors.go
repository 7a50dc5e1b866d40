package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidInput     = errors.New("invalid input")
)

// ParseAmount validates a user supplied amount before any store access.
// Only positive integers are accepted; the sign comes from the command.
func ParseAmount(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: amount is required", ErrInvalidInput)
	}
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q is not an integer", ErrInvalidInput, raw)
	}
	if amount <= 0 {
		return 0, fmt.Errorf("%w: amount must be positive, got %d", ErrInvalidInput, amount)
	}
	return amount, nil
}

func storeError(err error) error {
	if errors.Is(err, ErrInvalidInput) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
