//go:build !integration

package sched

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"motion-dashboard/internal/domain/model"
	"motion-dashboard/internal/domain/ports/adapter"
	backendAdapters "motion-dashboard/internal/infra/adapters/backend"
	"motion-dashboard/internal/infra/memstore"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func createJob(t *testing.T, r *memstore.Registry, id string, kind model.JobKind) *model.JobRecord {
	t.Helper()
	job, err := model.NewJobRecord(id, "subject", kind)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Create(job); err != nil {
		t.Fatal(err)
	}
	got, err := r.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	return got
}

func TestSupervisor_StandardCompletionIsTimeGated(t *testing.T) {
	t.Parallel()

	registry := memstore.NewRegistry()
	job := createJob(t, registry, "floor-1", model.JobKindStandard)

	offset := time.Duration(0)
	s := NewSupervisor(registry, backendAdapters.NewNoopBackend(), Options{
		StandardDelay: 3 * time.Second,
		Now:           func() time.Time { return job.StartedAt.Add(offset) },
	}, testLogger())

	// younger than the delay: stays processing
	offset = 2900 * time.Millisecond
	s.Tick(context.Background())
	got, _ := registry.Get("floor-1")
	if got.Status != model.JobStatusProcessing {
		t.Fatalf("young standard job flipped early: %q", got.Status)
	}

	// older than the delay: the very next tick completes it
	offset = 3100 * time.Millisecond
	s.Tick(context.Background())
	got, _ = registry.Get("floor-1")
	if got.Status != model.JobStatusCompleted {
		t.Fatalf("expected completed, got %q", got.Status)
	}
	if got.Progress != 100 {
		t.Errorf("expected progress 100, got %d", got.Progress)
	}
	if got.EndedAt == nil {
		t.Error("expected EndedAt stamped")
	}
}

func TestSupervisor_RetryExhaustion(t *testing.T) {
	t.Parallel()

	registry := memstore.NewRegistry()
	createJob(t, registry, "vault-1", model.JobKindPerFrame)

	backend := backendAdapters.NewNoopBackend()
	backend.QueueError("vault-1", errors.New("connection reset"))
	s := NewSupervisor(registry, backend, Options{}, testLogger())

	// first two failures only charge the budget
	for i := 1; i <= 2; i++ {
		s.Tick(context.Background())
		got, _ := registry.Get("vault-1")
		if got.Status != model.JobStatusProcessing {
			t.Fatalf("failed too early on attempt %d: %q", i, got.Status)
		}
		if got.RetryCount != i {
			t.Fatalf("attempt %d: retry count %d", i, got.RetryCount)
		}
	}

	// third failure terminates the job
	s.Tick(context.Background())
	got, _ := registry.Get("vault-1")
	if got.Status != model.JobStatusFailed {
		t.Fatalf("expected failed after third error, got %q", got.Status)
	}
	if !strings.Contains(got.Error, "3 attempts") {
		t.Errorf("error %q does not mention 3 attempts", got.Error)
	}
	if got.RetryCount != got.MaxRetries {
		t.Errorf("retry count %d exceeds budget %d", got.RetryCount, got.MaxRetries)
	}
	if got.EndedAt == nil {
		t.Error("expected EndedAt stamped")
	}
}

func TestSupervisor_UpstreamFailureIsTerminal(t *testing.T) {
	t.Parallel()

	registry := memstore.NewRegistry()
	createJob(t, registry, "beam-1", model.JobKindPerFrame)

	backend := backendAdapters.NewNoopBackend()
	backend.QueueReport("beam-1", adapter.StatusReport{
		UploadStatus:   "failed",
		AnalysisStatus: "failed",
		Error:          "pose model rejected the clip",
	})
	s := NewSupervisor(registry, backend, Options{}, testLogger())

	s.Tick(context.Background())
	got, _ := registry.Get("beam-1")
	if got.Status != model.JobStatusFailed {
		t.Fatalf("expected failed, got %q", got.Status)
	}
	if got.RetryCount != 0 {
		t.Error("upstream failure must not consume the retry budget")
	}
	if got.Error != "pose model rejected the clip" {
		t.Errorf("unexpected error %q", got.Error)
	}
}

func TestSupervisor_SuccessfulPollResetsRetryStreak(t *testing.T) {
	t.Parallel()

	registry := memstore.NewRegistry()
	createJob(t, registry, "bars-1", model.JobKindPerFrame)

	progress := func(n int) *int { return &n }
	backend := backendAdapters.NewNoopBackend()
	backend.QueueError("bars-1", errors.New("timeout"))
	backend.QueueReport("bars-1", adapter.StatusReport{UploadStatus: "processing", Progress: progress(55)})
	backend.QueueReport("bars-1", adapter.StatusReport{
		UploadStatus:   "completed",
		AnalysisStatus: "completed",
		Result:         &model.AnalysisResult{FrameCount: 240, RiskScore: 42},
	})
	s := NewSupervisor(registry, backend, Options{}, testLogger())

	s.Tick(context.Background())
	got, _ := registry.Get("bars-1")
	if got.RetryCount != 1 {
		t.Fatalf("expected one charged retry, got %d", got.RetryCount)
	}

	s.Tick(context.Background())
	got, _ = registry.Get("bars-1")
	if got.RetryCount != 0 {
		t.Errorf("successful poll must reset the failure streak, got %d", got.RetryCount)
	}
	if got.Progress != 55 {
		t.Errorf("expected progress 55, got %d", got.Progress)
	}
	if got.Status != model.JobStatusProcessing {
		t.Errorf("expected processing, got %q", got.Status)
	}

	s.Tick(context.Background())
	got, _ = registry.Get("bars-1")
	if got.Status != model.JobStatusCompleted {
		t.Fatalf("expected completed, got %q", got.Status)
	}
	if got.Progress != 100 {
		t.Errorf("expected progress 100, got %d", got.Progress)
	}
	if got.Result == nil || got.Result.FrameCount != 240 {
		t.Errorf("result not carried over: %+v", got.Result)
	}
}

// blockingBackend parks FetchStatus until released, then reports completion.
type blockingBackend struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingBackend) FetchStatus(ctx context.Context, jobID string) (*adapter.StatusReport, error) {
	close(b.entered)
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &adapter.StatusReport{UploadStatus: "completed", AnalysisStatus: "completed"}, nil
}

func TestSupervisor_RemovalDuringInFlightPoll(t *testing.T) {
	t.Parallel()

	registry := memstore.NewRegistry()
	createJob(t, registry, "vault-9", model.JobKindPerFrame)

	backend := &blockingBackend{entered: make(chan struct{}), release: make(chan struct{})}
	s := NewSupervisor(registry, backend, Options{}, testLogger())

	done := make(chan struct{})
	go func() {
		s.Tick(context.Background())
		close(done)
	}()

	<-backend.entered
	registry.Remove("vault-9")
	close(backend.release)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tick did not finish")
	}

	if jobs := registry.List(); len(jobs) != 0 {
		t.Fatalf("late poll result resurrected the job: %+v", jobs[0])
	}
}

func TestSupervisor_RunWakesFromDormancy(t *testing.T) {
	t.Parallel()

	registry := memstore.NewRegistry()
	backend := backendAdapters.NewNoopBackend()
	s := NewSupervisor(registry, backend, Options{
		Interval:      10 * time.Millisecond,
		StandardDelay: 20 * time.Millisecond,
	}, testLogger())
	registry.OnChange(s.Wake)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	// give the loop time to go dormant, then hand it a job
	time.Sleep(30 * time.Millisecond)
	createJob(t, registry, "floor-7", model.JobKindStandard)

	deadline := time.After(2 * time.Second)
	for {
		got, err := registry.Get("floor-7")
		if err == nil && got.Status == model.JobStatusCompleted {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("job never completed; status=%v err=%v", got, err)
		case <-time.After(10 * time.Millisecond):
		}
	}
}
