package domain

import "time"

// Job represents one asynchronous media-processing job on the remote service.
type Job struct {
	RunID      string        `json:"run_id"`
	CreationID string        `json:"creation_id"`
	VideoURL   string        `json:"video_url"`
	Caption    string        `json:"caption"`
	State      JobState      `json:"state"`
	StatusCode string        `json:"status_code,omitempty"` // last remote status_code
	Status     string        `json:"status,omitempty"`      // last remote free-text status
	Polls      int           `json:"polls"`
	Waited     time.Duration `json:"waited"`
	Interval   time.Duration `json:"interval"` // backoff used before the next poll
	CreatedAt  time.Time     `json:"created_at"`
}

// Transition moves the job to a new state, rejecting moves the lifecycle does not allow.
func (j *Job) Transition(to JobState) error {
	if err := ValidateTransition(j.State, to); err != nil {
		return err
	}
	j.State = to
	return nil
}

// PublishedMedia is the permanent result of a successful publish.
type PublishedMedia struct {
	MediaID   string `json:"media_id"`
	Permalink string `json:"permalink,omitempty"`
}

// JobResult holds the outcome of a run.
type JobResult struct {
	RunID        string          `json:"run_id"`
	Job          *Job            `json:"job,omitempty"` // nil when the run stopped before submission
	Media        *PublishedMedia `json:"media,omitempty"`
	Success      bool            `json:"success"`
	ErrorMessage string          `json:"error,omitempty"`
	Warnings     []string        `json:"warnings,omitempty"`
	CompletedAt  time.Time       `json:"completed_at"`
}

// PollPolicy bounds the status polling loop.
type PollPolicy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	MaxWait         time.Duration
}

// DefaultPollPolicy returns 5s initial interval, x1.5 growth, 60s cap and a 15 minute ceiling.
func DefaultPollPolicy() PollPolicy {
	return PollPolicy{
		InitialInterval: 5 * time.Second,
		MaxInterval:     60 * time.Second,
		Multiplier:      1.5,
		MaxWait:         15 * time.Minute,
	}
}
