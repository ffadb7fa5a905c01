package sync

import (
	"errors"
	"fmt"

	"github.com/nhle/translation-connector/internal/model"
)

// PartialConfirmationError reports a vendor confirmation whose accepted
// count does not match the number of files the connector expected. Partial
// confirmation is not recoverable; it aborts the whole submission.
type PartialConfirmationError struct {
	ProjectID string
	State     model.FileState
	Expected  int
	Confirmed int
}

func (e *PartialConfirmationError) Error() string {
	return fmt.Sprintf(
		"project %s: %d of %d %s files confirmed",
		e.ProjectID, e.Confirmed, e.Expected, e.State,
	)
}

// IsPartialConfirmation reports whether err (or any error in its chain) is
// a PartialConfirmationError.
func IsPartialConfirmation(err error) bool {
	var partialErr *PartialConfirmationError
	return errors.As(err, &partialErr)
}

// SyncError wraps a failure while fetching or applying one remote file.
// Callers log it and continue with other files rather than aborting the
// whole batch.
type SyncError struct {
	FileID string
	Err    error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("syncing file %s: %v", e.FileID, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}
