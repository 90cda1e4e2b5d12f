package jobs

import "fmt"

// ValidationError rejects a malformed or oversized submission before any
// job record is created.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid submission: " + e.Reason
}

// NotFoundError is returned for a job id that never existed or was
// reclaimed.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("job %s not found", e.ID)
}
