package backend

import (
	"context"
	"fmt"
	"sync"

	"motion-dashboard/internal/domain/ports/adapter"
)

var _ adapter.AnalysisBackend = (*NoopBackend)(nil)

// step is one scripted poll outcome.
type step struct {
	report *adapter.StatusReport
	err    error
}

// NoopBackend is a scripted in-memory backend for demos and tests. Each job
// id carries a queue of canned outcomes consumed one per poll; once the
// queue drains, the last outcome repeats.
type NoopBackend struct {
	mu      sync.Mutex
	scripts map[string][]step
	last    map[string]step
}

func NewNoopBackend() *NoopBackend {
	return &NoopBackend{
		scripts: make(map[string][]step),
		last:    make(map[string]step),
	}
}

// QueueReport appends a successful poll outcome for a job.
func (b *NoopBackend) QueueReport(jobID string, report adapter.StatusReport) {
	b.mu.Lock()
	b.scripts[jobID] = append(b.scripts[jobID], step{report: &report})
	b.mu.Unlock()
}

// QueueError appends a failing poll outcome for a job.
func (b *NoopBackend) QueueError(jobID string, err error) {
	b.mu.Lock()
	b.scripts[jobID] = append(b.scripts[jobID], step{err: err})
	b.mu.Unlock()
}

func (b *NoopBackend) FetchStatus(ctx context.Context, jobID string) (*adapter.StatusReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	queue := b.scripts[jobID]
	if len(queue) == 0 {
		if s, ok := b.last[jobID]; ok {
			return s.report, s.err
		}
		return nil, fmt.Errorf("noop backend: no script for job %s", jobID)
	}
	s := queue[0]
	b.scripts[jobID] = queue[1:]
	b.last[jobID] = s
	return s.report, s.err
}
