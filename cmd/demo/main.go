// Demo drives the job core against a scripted backend: one standard job
// that completes on elapsed time, one per-frame job that completes after a
// few polls, and one per-frame job that exhausts its retry budget.
package main

import (
	"context"
	"errors"
	"time"

	"motion-dashboard/internal/config"
	"motion-dashboard/internal/domain/model"
	"motion-dashboard/internal/domain/ports/adapter"
	backendAdapters "motion-dashboard/internal/infra/adapters/backend"
	"motion-dashboard/internal/infra/logging"
	"motion-dashboard/internal/infra/memstore"
	"motion-dashboard/internal/infra/sched"
	"motion-dashboard/internal/usecase"
)

func main() {
	logger := logging.New(config.LogConfig{Level: "debug", Format: "console"}, true)

	backend := backendAdapters.NewNoopBackend()
	progress := func(n int) *int { return &n }
	backend.QueueReport("vault-42", adapter.StatusReport{UploadStatus: "processing", Progress: progress(30)})
	backend.QueueReport("vault-42", adapter.StatusReport{UploadStatus: "completed", AnalysisStatus: "analyzing", Progress: progress(80)})
	backend.QueueReport("vault-42", adapter.StatusReport{
		UploadStatus:   "completed",
		AnalysisStatus: "completed",
		Result:         &model.AnalysisResult{VideoURL: "https://cdn.example.com/vault-42.mp4", FrameCount: 412, RiskScore: 63},
	})
	backend.QueueError("beam-07", errors.New("connection reset"))

	registry := memstore.NewRegistry()
	supervisor := sched.NewSupervisor(registry, backend, sched.Options{
		Interval:      200 * time.Millisecond,
		StandardDelay: 500 * time.Millisecond,
	}, logger)
	registry.OnChange(supervisor.Wake)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go func() { _ = supervisor.Run(ctx) }()

	trackerUC := usecase.NewJobTrackerUseCase(registry, supervisor, 3)
	for _, j := range []struct {
		id, subject string
		kind        model.JobKind
	}{
		{"floor-11", "Ana K.", model.JobKindStandard},
		{"vault-42", "Mia R.", model.JobKindPerFrame},
		{"beam-07", "Lea T.", model.JobKindPerFrame},
	} {
		if _, err := trackerUC.StartTracking(j.id, j.subject, j.kind); err != nil {
			logger.Fatal().Err(err).Str("job_id", j.id).Msg("start tracking")
		}
	}

	for {
		s := trackerUC.Summarize()
		logger.Info().
			Int("processing", s.ProcessingCount).
			Int("completed", s.CompletedCount).
			Int("failed", s.FailedCount).
			Msg("summary")
		if !s.IsProcessing || ctx.Err() != nil {
			break
		}
		time.Sleep(300 * time.Millisecond)
	}

	for _, j := range trackerUC.List() {
		logger.Info().
			Str("job_id", j.ID).
			Str("subject", j.SubjectName).
			Str("kind", string(j.Kind)).
			Str("status", string(j.Status)).
			Int("progress", j.Progress).
			Str("error", j.Error).
			Msg("final state")
	}
}
