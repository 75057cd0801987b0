package loader

import (
	"fmt"
)

// RetrievalError reports that the content for a locator could not be obtained.
type RetrievalError struct {
	// Locator is the source locator that was requested.
	Locator string
	// StatusCode carries the transport status when one exists: the HTTP
	// status, 404 for missing files, or the remote exit status for SSH.
	// Zero means the failure happened before any status was known.
	StatusCode int
	// Err is the underlying cause.
	Err error
}

func (e *RetrievalError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("retrieving %s: status %d: %v", e.Locator, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("retrieving %s: %v", e.Locator, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}
