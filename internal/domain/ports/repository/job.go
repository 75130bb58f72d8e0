package repository

import "motion-dashboard/internal/domain/model"

// JobPatch is a partial update; nil fields are left untouched.
type JobPatch struct {
	Status     *model.JobStatus
	Progress   *int
	Error      *string
	Result     *model.AnalysisResult
	RetryCount *int
}

// JobRegistry is the authoritative in-memory store of job records.
// List and Get return deep copies, so a snapshot taken for iteration stays
// valid while the registry mutates underneath it.
type JobRegistry interface {
	// Create inserts a new record; ErrDuplicateJob if the id is taken.
	Create(job *model.JobRecord) error
	// Get returns a copy of the record or ErrNotFound.
	Get(id string) (*model.JobRecord, error)
	// Update merges the patch into the record; ErrNotFound if absent.
	// Moving status into a terminal state stamps EndedAt.
	Update(id string, patch JobPatch) error
	// UpdateIf applies the patch only while the record still carries the
	// given epoch. A mismatch (job removed or restarted since the epoch was
	// captured) discards the patch silently.
	UpdateIf(id string, epoch int64, patch JobPatch) error
	// Retry restarts a failed job: processing, progress 0, retry budget and
	// error cleared, fresh StartedAt, epoch bumped. A job in any other
	// state is left untouched. ErrNotFound if absent.
	Retry(id string) error
	// Remove deletes the record; removing an absent id is not an error.
	Remove(id string)
	// List returns an insertion-ordered snapshot of copies.
	List() []*model.JobRecord
}
