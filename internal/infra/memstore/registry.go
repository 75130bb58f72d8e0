// Package memstore holds the in-memory job registry. Job state is scoped to
// one running instance and is lost on restart; there is deliberately no
// durable store behind it.
package memstore

import (
	"fmt"
	"sync"
	"time"

	"motion-dashboard/internal/domain"
	"motion-dashboard/internal/domain/model"
	"motion-dashboard/internal/domain/ports/repository"
)

var _ repository.JobRegistry = (*Registry)(nil)

// Registry is a mutex-guarded keyed store preserving insertion order.
type Registry struct {
	mu       sync.Mutex
	jobs     map[string]*model.JobRecord
	order    []string
	epochSeq int64
	onChange func()
}

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*model.JobRecord)}
}

// OnChange registers a hook fired (outside the lock) after any mutation
// that can put a job in flight. Set once at wiring time.
func (r *Registry) OnChange(fn func()) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

func (r *Registry) notify() {
	if r.onChange != nil {
		r.onChange()
	}
}

func (r *Registry) Create(job *model.JobRecord) error {
	r.mu.Lock()
	if _, ok := r.jobs[job.ID]; ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrDuplicateJob, job.ID)
	}
	cp := job.Clone()
	if cp.MaxRetries <= 0 {
		cp.MaxRetries = model.DefaultMaxRetries
	}
	if cp.Status == "" {
		cp.Status = model.JobStatusProcessing
	}
	if cp.StartedAt.IsZero() {
		cp.StartedAt = time.Now()
	}
	cp.RetryCount = 0
	r.epochSeq++
	cp.Epoch = r.epochSeq
	r.jobs[cp.ID] = cp
	r.order = append(r.order, cp.ID)
	job.Epoch = cp.Epoch
	r.mu.Unlock()
	r.notify()
	return nil
}

func (r *Registry) Get(id string) (*model.JobRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return j.Clone(), nil
}

func (r *Registry) Update(id string, patch repository.JobPatch) error {
	r.mu.Lock()
	j, ok := r.jobs[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	r.apply(j, patch)
	r.mu.Unlock()
	r.notify()
	return nil
}

func (r *Registry) UpdateIf(id string, epoch int64, patch repository.JobPatch) error {
	r.mu.Lock()
	j, ok := r.jobs[id]
	if !ok || j.Epoch != epoch {
		// Removed or restarted since the caller snapshotted it; the stale
		// result must not resurrect or clobber the record.
		r.mu.Unlock()
		return nil
	}
	r.apply(j, patch)
	r.mu.Unlock()
	r.notify()
	return nil
}

// apply merges a patch under the lock, keeping the terminal-iff-EndedAt
// invariant.
func (r *Registry) apply(j *model.JobRecord, patch repository.JobPatch) {
	if patch.Status != nil {
		j.Status = *patch.Status
	}
	if patch.Progress != nil {
		j.Progress = *patch.Progress
	}
	if patch.Error != nil {
		j.Error = *patch.Error
	}
	if patch.Result != nil {
		res := *patch.Result
		j.Result = &res
	}
	if patch.RetryCount != nil {
		j.RetryCount = *patch.RetryCount
	}
	switch {
	case j.Terminal() && j.EndedAt == nil:
		now := time.Now()
		j.EndedAt = &now
	case !j.Terminal():
		j.EndedAt = nil
	}
}

func (r *Registry) Retry(id string) error {
	r.mu.Lock()
	j, ok := r.jobs[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	if j.Status != model.JobStatusFailed {
		r.mu.Unlock()
		return nil
	}
	j.Status = model.JobStatusProcessing
	j.Progress = 0
	j.Error = ""
	j.RetryCount = 0
	j.StartedAt = time.Now()
	j.EndedAt = nil
	r.epochSeq++
	j.Epoch = r.epochSeq
	r.mu.Unlock()
	r.notify()
	return nil
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	if _, ok := r.jobs[id]; ok {
		delete(r.jobs, id)
		for i, oid := range r.order {
			if oid == id {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	r.mu.Unlock()
}

func (r *Registry) List() []*model.JobRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.JobRecord, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.jobs[id].Clone())
	}
	return out
}
