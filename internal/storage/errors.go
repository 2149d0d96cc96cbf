package storage

import (
	"errors"
	"fmt"
	"syscall"
)

var (
	// ErrQuotaExceeded marks a write that failed because the device is
	// out of space. Callers surface it as "free some space", distinct
	// from a generic write failure.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrCorrupted marks persisted data that could not be parsed. Load
	// recovers by resetting to defaults; callers should re-persist the
	// reset state and notify the user.
	ErrCorrupted = errors.New("stored data is corrupted")

	ErrNotLoaded = errors.New("storage not loaded")
)

// classifyWriteError wraps a failed write so quota exhaustion stays
// distinguishable through errors.Is.
func classifyWriteError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, syscall.ENOSPC) || errors.Is(err, syscall.EDQUOT) {
		return fmt.Errorf("%s: %w: %v", op, ErrQuotaExceeded, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
