package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"reelpublisher/internal/core/domain"
	"reelpublisher/internal/core/locator"
	"reelpublisher/internal/core/ports"
)

// Orchestrator drives one video through submit, poll, publish and permalink lookup.
type Orchestrator struct {
	client     ports.JobClient
	prober     ports.Prober
	storage    ports.Storage
	policy     domain.PollPolicy
	logger     zerolog.Logger
	newBackOff func() backoff.BackOff
	sleep      Sleeper
	clock      func() time.Time
	idGen      func() uuid.UUID
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(
	client ports.JobClient,
	prober ports.Prober,
	storage ports.Storage,
	policy domain.PollPolicy,
	logger zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		client:     client,
		prober:     prober,
		storage:    storage,
		policy:     policy,
		logger:     logger,
		newBackOff: func() backoff.BackOff { return NewPollBackOff(policy) },
		sleep:      SleepContext,
		clock:      time.Now,
		idGen:      uuid.New,
	}
}

// SetSleeper replaces the poll sleep, e.g. to run without real waits.
func (o *Orchestrator) SetSleeper(s Sleeper) { o.sleep = s }

// RunJob executes a complete publish run for videoURL.
// The returned result is never nil; err is non-nil for every fatal outcome.
func (o *Orchestrator) RunJob(ctx context.Context, videoURL, caption string) (*domain.JobResult, error) {
	runID := o.idGen().String()
	log := o.logger.With().Str("run_id", runID).Logger()
	result := &domain.JobResult{RunID: runID}

	normalized := locator.Normalize(videoURL)
	if normalized != videoURL {
		log.Info().Str("from", videoURL).Str("to", normalized).Msg("normalized video URL")
	}

	if err := o.storage.InitJob(ctx, runID); err != nil {
		return o.finish(ctx, log, result, fmt.Errorf("failed to init run: %w", err))
	}
	if path := o.storage.GetJobPath(runID); path != "" {
		log.Debug().Str("path", path).Msg("recording run")
	}
	input, _ := json.MarshalIndent(map[string]any{
		"run_id":     runID,
		"video_url":  normalized,
		"caption":    caption,
		"started_at": o.clock().UTC(),
	}, "", "  ")
	_ = o.storage.SaveInput(ctx, runID, input)

	log.Info().Str("video_url", normalized).Msg("checking video URL")
	if err := o.prober.Check(ctx, normalized); err != nil {
		return o.finish(ctx, log, result, fmt.Errorf("video URL check failed: %w", err))
	}

	job := &domain.Job{
		RunID:     runID,
		VideoURL:  normalized,
		Caption:   caption,
		CreatedAt: o.clock().UTC(),
	}
	result.Job = job

	if err := o.submit(ctx, log, job); err != nil {
		return o.finish(ctx, log, result, err)
	}
	log = log.With().Str("creation_id", job.CreationID).Logger()

	if err := o.poll(ctx, log, job); err != nil {
		return o.finish(ctx, log, result, err)
	}

	media, err := o.publish(ctx, log, job, result)
	if err != nil {
		return o.finish(ctx, log, result, err)
	}
	result.Media = media
	return o.finish(ctx, log, result, nil)
}

func (o *Orchestrator) submit(ctx context.Context, log zerolog.Logger, job *domain.Job) error {
	if err := job.Transition(domain.StateCreated); err != nil {
		return err
	}

	log.Info().Msg("creating media container")
	created, err := o.client.CreateJob(ctx, job.VideoURL, job.Caption)
	if err != nil {
		return abort(job, domain.StateFailed, fmt.Errorf("%w: %w", domain.ErrSubmissionRejected, err))
	}
	log.Debug().Interface("response", created).Msg("create response")
	if created.ID == "" {
		return abort(job, domain.StateFailed, fmt.Errorf("%w: no creation id returned", domain.ErrSubmissionRejected))
	}
	job.CreationID = created.ID
	return nil
}

// poll re-reads the job status until it is final or the wait ceiling is reached.
// Only this loop repeats remote calls; status reads are side-effect free.
func (o *Orchestrator) poll(ctx context.Context, log zerolog.Logger, job *domain.Job) error {
	if err := job.Transition(domain.StateProcessing); err != nil {
		return err
	}
	bo := o.newBackOff()
	bo.Reset()

	log.Info().Dur("max_wait", o.policy.MaxWait).Msg("waiting for processing to finish")
	for {
		st, err := o.client.GetStatus(ctx, job.CreationID)
		job.Polls++
		if err != nil {
			return abort(job, domain.StateFailed, fmt.Errorf("%w: %w", domain.ErrStatusCheckFailed, err))
		}
		job.StatusCode = strings.ToUpper(strings.TrimSpace(st.StatusCode))
		job.Status = st.Status
		log.Info().
			Int("poll", job.Polls).
			Str("status_code", job.StatusCode).
			Str("status", job.Status).
			Dur("waited", job.Waited).
			Msg("status")

		switch job.StatusCode {
		case domain.RemoteFinished:
			return job.Transition(domain.StateFinished)
		case domain.RemoteError, domain.RemoteErrorUploading:
			return abort(job, domain.StateFailed,
				fmt.Errorf("%w: remote status %s (%s)", domain.ErrProcessingFailed, job.StatusCode, job.Status))
		}

		wait := bo.NextBackOff()
		if wait == backoff.Stop {
			return abort(job, domain.StateTimedOut,
				fmt.Errorf("%w: backoff exhausted after %s", domain.ErrProcessingTimedOut, job.Waited))
		}
		job.Interval = wait
		if err := o.sleep(ctx, wait); err != nil {
			return abort(job, domain.StateFailed, fmt.Errorf("polling interrupted: %w", err))
		}
		job.Waited += wait
		if job.Waited >= o.policy.MaxWait {
			return abort(job, domain.StateTimedOut,
				fmt.Errorf("%w: still %q after %s", domain.ErrProcessingTimedOut, job.StatusCode, job.Waited))
		}
	}
}

// publish is attempted exactly once. A missing media id or a failed permalink
// lookup only adds a warning.
func (o *Orchestrator) publish(ctx context.Context, log zerolog.Logger, job *domain.Job, result *domain.JobResult) (*domain.PublishedMedia, error) {
	log.Info().Msg("publishing reel")
	pub, err := o.client.Publish(ctx, job.CreationID)
	if err != nil {
		return nil, abort(job, domain.StateFailed, fmt.Errorf("%w: %w", domain.ErrPublishRejected, err))
	}
	log.Debug().Interface("response", pub).Msg("publish response")
	if err := job.Transition(domain.StatePublished); err != nil {
		return nil, err
	}

	if pub.ID == "" {
		log.Warn().Msg("published, but no media id returned; check the account")
		result.Warnings = append(result.Warnings, domain.ErrPublishIncomplete.Error())
		return nil, nil
	}

	media := &domain.PublishedMedia{MediaID: pub.ID}
	ref, err := o.client.ResolveReference(ctx, pub.ID)
	if err != nil {
		werr := fmt.Errorf("%w: %w", domain.ErrReferenceResolutionFailed, err)
		log.Warn().Err(werr).Str("media_id", pub.ID).Msg("permalink lookup failed")
		result.Warnings = append(result.Warnings, werr.Error())
		return media, nil
	}
	media.Permalink = ref.Permalink
	log.Info().Str("media_id", media.MediaID).Str("permalink", media.Permalink).Msg("published")
	return media, nil
}

func (o *Orchestrator) finish(ctx context.Context, log zerolog.Logger, result *domain.JobResult, err error) (*domain.JobResult, error) {
	result.CompletedAt = o.clock().UTC()
	result.Success = err == nil
	if err != nil {
		result.ErrorMessage = err.Error()
		log.Error().Err(err).Msg("run failed")
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	if serr := o.storage.SaveResult(ctx, result.RunID, data); serr != nil {
		log.Warn().Err(serr).Msg("failed to save run result")
	}
	return result, err
}

// abort moves job to a terminal failure state and returns cause.
func abort(job *domain.Job, state domain.JobState, cause error) error {
	if err := job.Transition(state); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}
