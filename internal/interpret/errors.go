package interpret

import (
	"errors"
	"fmt"

	"github.com/satory074/dreamscope/internal/constants"
)

// ErrBusy rejects a request while another extraction or interpretation is
// still in flight. The attempt is neither queued nor retried.
var ErrBusy = errors.New("analysis already in progress")

// NetworkError covers transport failures: connection refused, DNS, and
// timeouts. The extraction phase surfaces it for retry; the legacy
// single-shot path substitutes the mock fallback instead.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network failure: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ServerError covers non-2xx responses and malformed payloads from the
// proxy.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error (status %d)", e.Status)
	}
	return fmt.Sprintf("server error (status %d): %s", e.Status, e.Message)
}

// ValidationError rejects input before any request is attempted. It is
// surfaced inline next to the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validateContent(content string) error {
	if len([]rune(content)) < constants.MinDreamLength {
		return &ValidationError{Field: "content", Message: "夢の内容を入力してください"}
	}
	if len([]rune(content)) > constants.MaxDreamLength {
		return &ValidationError{Field: "content", Message: fmt.Sprintf("夢の内容は%d文字以内で入力してください", constants.MaxDreamLength)}
	}
	return nil
}
