package domain

import "fmt"

type JobState string

const (
	StateCreated    JobState = "CREATED"
	StateProcessing JobState = "PROCESSING"
	StateFinished   JobState = "FINISHED"
	StatePublished  JobState = "PUBLISHED"
	StateFailed     JobState = "FAILED"
	StateTimedOut   JobState = "TIMED_OUT"
)

// Remote status codes with a fixed meaning. Anything else means still processing.
const (
	RemoteFinished       = "FINISHED"
	RemoteError          = "ERROR"
	RemoteErrorUploading = "ERROR_UPLOADING"
)

func CanTransition(from, to JobState) bool {
	switch from {
	case "":
		return to == StateCreated
	case StateCreated:
		return to == StateProcessing || to == StateFailed || to == StateTimedOut
	case StateProcessing:
		return to == StateFinished || to == StateFailed || to == StateTimedOut
	case StateFinished:
		return to == StatePublished || to == StateFailed
	default:
		return false
	}
}

func ValidateTransition(from, to JobState) error {
	if from == to {
		return nil
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
