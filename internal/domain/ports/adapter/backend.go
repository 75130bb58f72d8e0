package adapter

import (
	"context"

	"motion-dashboard/internal/domain/model"
)

// StatusReport is one raw poll response from the analysis backend. Upload
// and analysis status carry the backend's own vocabulary and must go through
// the reconcile package before touching a JobRecord.
type StatusReport struct {
	Status         string                `json:"status"`
	Progress       *int                  `json:"progress,omitempty"`
	Error          string                `json:"error,omitempty"`
	UploadStatus   string                `json:"upload_status,omitempty"`
	AnalysisStatus string                `json:"analysis_status,omitempty"`
	Result         *model.AnalysisResult `json:"result,omitempty"`
}

// AnalysisBackend is the boundary to the remote motion-analysis service.
// Any transport failure or undecodable response surfaces as a non-nil error
// and counts as a poll failure for retry purposes.
type AnalysisBackend interface {
	FetchStatus(ctx context.Context, jobID string) (*StatusReport, error)
}
