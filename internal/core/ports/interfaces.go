package ports

import (
	"context"
)

// CreateResponse is the remote reply to a job submission.
type CreateResponse struct {
	ID string `json:"id"`
}

// StatusResponse is the remote processing state of a job.
type StatusResponse struct {
	ID         string `json:"id,omitempty"`
	StatusCode string `json:"status_code"`
	Status     string `json:"status"`
}

// PublishResponse carries the id of the published media, when the remote returns one.
type PublishResponse struct {
	ID string `json:"id"`
}

// ReferenceResponse holds the permanent public link of a published media object.
type ReferenceResponse struct {
	ID        string `json:"id,omitempty"`
	Permalink string `json:"permalink"`
}

// JobClient defines the contract for the remote media-processing API.
// Every method reports failures as *domain.APIError, regardless of origin.
type JobClient interface {
	// CreateJob submits a new asynchronous processing job for videoURL.
	CreateJob(ctx context.Context, videoURL, caption string) (*CreateResponse, error)

	// GetStatus reads the processing state of a job. It has no side effects.
	GetStatus(ctx context.Context, jobID string) (*StatusResponse, error)

	// Publish turns a finished job into public media. Not idempotent.
	Publish(ctx context.Context, jobID string) (*PublishResponse, error)

	// ResolveReference looks up the permalink of published media.
	ResolveReference(ctx context.Context, mediaID string) (*ReferenceResponse, error)
}

// Prober defines the contract for the pre-submission reachability check.
type Prober interface {
	// Check returns nil when videoURL is fetchable over HTTPS and looks like video.
	Check(ctx context.Context, videoURL string) error
}

// Storage defines the contract for recording run artifacts.
type Storage interface {
	// InitJob creates the run directory structure.
	InitJob(ctx context.Context, runID string) error

	// SaveInput saves the run input (normalized URL, caption, start time).
	SaveInput(ctx context.Context, runID string, data []byte) error

	// SaveResult saves the final run result.
	SaveResult(ctx context.Context, runID string, data []byte) error

	// GetJobPath returns the filesystem path for a given run ID.
	GetJobPath(runID string) string
}
