// Package sched drives all in-flight job records toward a terminal state.
package sched

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"motion-dashboard/internal/domain/model"
	"motion-dashboard/internal/domain/ports/adapter"
	"motion-dashboard/internal/domain/ports/repository"
	"motion-dashboard/internal/domain/reconcile"
	"motion-dashboard/internal/infra/metrics"
)

// Options tune the polling loop. Zero values fall back to the defaults the
// dashboard ships with.
type Options struct {
	// Interval between ticks while any job is in flight.
	Interval time.Duration
	// StandardDelay is the elapsed time after which a standard-kind job is
	// marked complete. The backend for that mode finishes synchronously;
	// the delay is a client-side completion signal, preserved as policy.
	StandardDelay time.Duration
	// MaxConcurrent bounds simultaneous status polls within one tick.
	MaxConcurrent int
	// Now overrides the clock in tests.
	Now func() time.Time
}

func (o *Options) defaults() {
	if o.Interval <= 0 {
		o.Interval = 2 * time.Second
	}
	if o.StandardDelay <= 0 {
		o.StandardDelay = 3 * time.Second
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = 8
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Supervisor owns the polling loop. It is dormant while nothing is in
// flight and wakes when the registry reports a change. Ticks never overlap:
// a tick finishes every job it dispatched before the next one is scheduled.
type Supervisor struct {
	jobs    repository.JobRegistry
	backend adapter.AnalysisBackend
	opts    Options
	wake    chan struct{}
	log     *zerolog.Logger
}

func NewSupervisor(jobs repository.JobRegistry, backend adapter.AnalysisBackend, opts Options, logger *zerolog.Logger) *Supervisor {
	opts.defaults()
	sl := logger.With().Str("component", "PollSupervisor").Logger()
	return &Supervisor{
		jobs:    jobs,
		backend: backend,
		opts:    opts,
		wake:    make(chan struct{}, 1),
		log:     &sl,
	}
}

// Wake re-arms a dormant supervisor. Safe to call from any goroutine;
// coalesces with a pending wake-up.
func (s *Supervisor) Wake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is done.
func (s *Supervisor) Run(ctx context.Context) error {
	s.log.Info().Dur("interval", s.opts.Interval).Msg("poll supervisor started")
	for {
		if !s.anyInFlight() {
			metrics.SetJobsInFlight(0)
			select {
			case <-ctx.Done():
				s.log.Info().Msg("poll supervisor stopping")
				return ctx.Err()
			case <-s.wake:
				continue
			}
		}
		s.Tick(ctx)
		select {
		case <-ctx.Done():
			s.log.Info().Msg("poll supervisor stopping")
			return ctx.Err()
		case <-time.After(s.opts.Interval):
		}
	}
}

func (s *Supervisor) anyInFlight() bool {
	for _, j := range s.jobs.List() {
		if j.Status == model.JobStatusProcessing {
			return true
		}
	}
	return false
}

// Tick processes every currently in-flight job once. Per-frame polls run
// concurrently under the configured bound; Tick returns only after all of
// them have been applied to the registry.
func (s *Supervisor) Tick(ctx context.Context) {
	var inFlight []*model.JobRecord
	for _, j := range s.jobs.List() {
		if j.Status == model.JobStatusProcessing {
			inFlight = append(inFlight, j)
		}
	}
	metrics.SetJobsInFlight(len(inFlight))

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.opts.MaxConcurrent)
	for _, job := range inFlight {
		switch job.Kind {
		case model.JobKindStandard:
			s.tickStandard(job)
		case model.JobKindPerFrame:
			wg.Add(1)
			sem <- struct{}{}
			go func(j *model.JobRecord) {
				defer wg.Done()
				defer func() { <-sem }()
				s.pollPerFrame(ctx, j)
			}(job)
		}
	}
	wg.Wait()
}

func (s *Supervisor) tickStandard(job *model.JobRecord) {
	if s.opts.Now().Sub(job.StartedAt) <= s.opts.StandardDelay {
		return
	}
	status := model.JobStatusCompleted
	progress := 100
	_ = s.jobs.UpdateIf(job.ID, job.Epoch, repository.JobPatch{Status: &status, Progress: &progress})
	metrics.IncJobFinished(string(status), string(job.Kind))
	s.log.Info().Str("job_id", job.ID).Msg("standard job completed")
}

func (s *Supervisor) pollPerFrame(ctx context.Context, job *model.JobRecord) {
	start := time.Now()
	report, err := s.backend.FetchStatus(ctx, job.ID)
	metrics.ObservePoll(int(time.Since(start)/time.Millisecond), err == nil)
	if err != nil {
		s.handlePollFailure(job, err)
		return
	}
	s.applyReport(job, report)
}

func (s *Supervisor) handlePollFailure(job *model.JobRecord, pollErr error) {
	if Decide(job.RetryCount, job.MaxRetries, pollErr) == ExhaustRetries {
		status := model.JobStatusFailed
		retries := job.RetryCount + 1
		msg := fmt.Sprintf("polling failed after %d attempts: %v", job.MaxRetries, pollErr)
		_ = s.jobs.UpdateIf(job.ID, job.Epoch, repository.JobPatch{
			Status:     &status,
			Error:      &msg,
			RetryCount: &retries,
		})
		metrics.IncJobFinished(string(status), string(job.Kind))
		s.log.Error().Err(pollErr).Str("job_id", job.ID).Int("attempts", job.MaxRetries).Msg("retry budget exhausted")
		return
	}
	retries := job.RetryCount + 1
	_ = s.jobs.UpdateIf(job.ID, job.Epoch, repository.JobPatch{RetryCount: &retries})
	metrics.IncJobRetry()
	s.log.Warn().Err(pollErr).Str("job_id", job.ID).Int("retry", retries).Int("max", job.MaxRetries).Msg("poll failed, will retry")
}

func (s *Supervisor) applyReport(job *model.JobRecord, report *adapter.StatusReport) {
	primary := report.UploadStatus
	if primary == "" {
		primary = report.Status
	}
	secondary := report.AnalysisStatus
	if secondary == "" {
		secondary = report.Status
	}

	switch reconcile.Status(primary, secondary) {
	case model.JobStatusCompleted:
		status := model.JobStatusCompleted
		progress := 100
		_ = s.jobs.UpdateIf(job.ID, job.Epoch, repository.JobPatch{
			Status:   &status,
			Progress: &progress,
			Result:   report.Result,
		})
		metrics.IncJobFinished(string(status), string(job.Kind))
		s.log.Info().Str("job_id", job.ID).Msg("per-frame job completed")
	case model.JobStatusFailed:
		status := model.JobStatusFailed
		msg := report.Error
		if msg == "" {
			msg = "analysis failed upstream"
		}
		_ = s.jobs.UpdateIf(job.ID, job.Epoch, repository.JobPatch{Status: &status, Error: &msg})
		metrics.IncJobFinished(string(status), string(job.Kind))
		s.log.Error().Str("job_id", job.ID).Str("error", msg).Msg("per-frame job failed upstream")
	default:
		// Still in flight (or reported as re-analyzable): the state machine
		// has no edge back to pending, so only progress and the retry
		// counter move. A successful poll ends any failure streak.
		patch := repository.JobPatch{Progress: report.Progress}
		if job.RetryCount > 0 {
			zero := 0
			patch.RetryCount = &zero
		}
		if patch.Progress != nil || patch.RetryCount != nil {
			_ = s.jobs.UpdateIf(job.ID, job.Epoch, patch)
		}
	}
}
