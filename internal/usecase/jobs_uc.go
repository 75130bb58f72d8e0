package usecase

import (
	"motion-dashboard/internal/domain/model"
	"motion-dashboard/internal/domain/ports/repository"
)

// Summary is the aggregate view the dashboard header renders from. It is
// recomputed on demand from a registry snapshot, never cached.
type Summary struct {
	Total           int  `json:"total"`
	ProcessingCount int  `json:"processing_count"`
	CompletedCount  int  `json:"completed_count"`
	FailedCount     int  `json:"failed_count"`
	IsProcessing    bool `json:"is_processing"`
	HasErrors       bool `json:"has_errors"`
}

// Waker re-arms the polling loop after a mutation puts a job in flight.
type Waker interface {
	Wake()
}

// JobTrackerUseCase is the caller-facing surface over the job registry.
type JobTrackerUseCase struct {
	jobs       repository.JobRegistry
	waker      Waker
	maxRetries int
}

func NewJobTrackerUseCase(jobs repository.JobRegistry, waker Waker, maxRetries int) *JobTrackerUseCase {
	if maxRetries <= 0 {
		maxRetries = model.DefaultMaxRetries
	}
	return &JobTrackerUseCase{jobs: jobs, waker: waker, maxRetries: maxRetries}
}

// StartTracking registers a new job and arms the supervisor. The retry
// budget is fixed here for the job's lifetime.
func (uc *JobTrackerUseCase) StartTracking(id, subjectName string, kind model.JobKind) (*model.JobRecord, error) {
	job, err := model.NewJobRecord(id, subjectName, kind)
	if err != nil {
		return nil, err
	}
	job.MaxRetries = uc.maxRetries
	if err := uc.jobs.Create(job); err != nil {
		return nil, err
	}
	uc.waker.Wake()
	return job, nil
}

func (uc *JobTrackerUseCase) Get(id string) (*model.JobRecord, error) {
	return uc.jobs.Get(id)
}

func (uc *JobTrackerUseCase) List() []*model.JobRecord {
	return uc.jobs.List()
}

// Retry restarts a failed job. Jobs in any other state are left untouched.
func (uc *JobTrackerUseCase) Retry(id string) error {
	if err := uc.jobs.Retry(id); err != nil {
		return err
	}
	uc.waker.Wake()
	return nil
}

// Remove deletes a job in any state; removing an absent id is a no-op.
func (uc *JobTrackerUseCase) Remove(id string) {
	uc.jobs.Remove(id)
}

// Summarize folds the current snapshot into the aggregate view.
func (uc *JobTrackerUseCase) Summarize() Summary {
	var s Summary
	for _, j := range uc.jobs.List() {
		s.Total++
		switch j.Status {
		case model.JobStatusProcessing:
			s.ProcessingCount++
		case model.JobStatusCompleted:
			s.CompletedCount++
		case model.JobStatusFailed:
			s.FailedCount++
		}
	}
	s.IsProcessing = s.ProcessingCount > 0
	s.HasErrors = s.FailedCount > 0
	return s
}
