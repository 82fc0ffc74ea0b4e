package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInsufficientCredit = errors.New("insufficient credit")
	ErrUnsupportedFile    = errors.New("unsupported file type")
)

// FailureKind classifies the outcome of one upstream attempt.
type FailureKind int

const (
	FailureCredentialInvalid FailureKind = iota + 1
	FailureRateLimited
	FailureTransient
	FailureMalformed
	FailureUnclassified
	FailureRetriesExhausted
)

func (k FailureKind) String() string {
	switch k {
	case FailureCredentialInvalid:
		return "credential_invalid"
	case FailureRateLimited:
		return "rate_limited"
	case FailureTransient:
		return "transient"
	case FailureMalformed:
		return "malformed"
	case FailureUnclassified:
		return "unclassified"
	case FailureRetriesExhausted:
		return "retries_exhausted"
	}
	return "unknown"
}

type UpstreamError struct {
	Kind     FailureKind
	Attempts int
	Err      error
}

func (e *UpstreamError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("upstream %s after %d attempt(s)", e.Kind, e.Attempts)
	}
	return fmt.Sprintf("upstream %s after %d attempt(s): %v", e.Kind, e.Attempts, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsUnsupportedInput reports whether err means the submitted content itself was rejected.
func IsUnsupportedInput(err error) bool {
	if errors.Is(err, ErrUnsupportedFile) {
		return true
	}
	var upstreamErr *UpstreamError
	return errors.As(err, &upstreamErr) && upstreamErr.Kind == FailureMalformed
}
