package bigword

import (
	"errors"
	"fmt"
)

// AuthError indicates that the vendor rejected the client contact key, or
// that no key is configured at all. It is fatal to the whole operation and
// must be surfaced to the operator.
type AuthError struct {
	ProviderID string
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.ProviderID, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// StatusError indicates a non-200 response from the vendor service. It is
// fatal to the current file or job operation, not to the whole process.
type StatusError struct {
	Code   int
	Reason string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("vendor service error (%d): %s", e.Code, e.Reason)
}

// IsStatusError reports whether err (or any error in its chain) is a
// StatusError, returning it when found.
func IsStatusError(err error) (*StatusError, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr, true
	}
	return nil, false
}
