package model

import (
	"fmt"
	"time"

	"motion-dashboard/internal/domain"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

type JobKind string

const (
	// JobKindStandard jobs complete on a client-side elapsed-time signal;
	// the backend for this mode finishes synchronously and exposes no
	// status endpoint worth polling.
	JobKindStandard JobKind = "standard"
	// JobKindPerFrame jobs are polled against the remote backend until the
	// reconciled status turns terminal.
	JobKindPerFrame JobKind = "per_frame"
)

const DefaultMaxRetries = 3

// AnalysisResult is the opaque payload delivered with a completed job.
// The core never interprets it beyond carrying it to observers.
type AnalysisResult struct {
	VideoURL     string  `json:"video_url,omitempty"`
	AnalyticsURL string  `json:"analytics_url,omitempty"`
	FrameCount   int     `json:"frame_count,omitempty"`
	RiskScore    float64 `json:"risk_score,omitempty"`
}

// JobRecord is the unit of trackable asynchronous work.
type JobRecord struct {
	ID          string          `json:"id"`
	SubjectName string          `json:"subject_name"`
	Kind        JobKind         `json:"kind"`
	Status      JobStatus       `json:"status"`
	Progress    int             `json:"progress"`
	StartedAt   time.Time       `json:"started_at"`
	EndedAt     *time.Time      `json:"ended_at,omitempty"`
	Error       string          `json:"error,omitempty"`
	Result      *AnalysisResult `json:"result,omitempty"`
	RetryCount  int             `json:"retry_count"`
	MaxRetries  int             `json:"max_retries"`

	// Epoch increments on creation and on every retry-restart. Writers that
	// captured a snapshot (the polling supervisor) use it to detect that the
	// record was removed or restarted underneath them.
	Epoch int64 `json:"-"`
}

// NewJobRecord validates inputs and fills defaults. Jobs enter the system
// processing; the model also permits pending for callers that stage work
// before starting it.
func NewJobRecord(id, subjectName string, kind JobKind) (*JobRecord, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty job id", domain.ErrInvalidArgument)
	}
	switch kind {
	case JobKindStandard, JobKindPerFrame:
	default:
		return nil, fmt.Errorf("%w: unknown job kind %q", domain.ErrInvalidArgument, kind)
	}
	return &JobRecord{
		ID:          id,
		SubjectName: subjectName,
		Kind:        kind,
		Status:      JobStatusProcessing,
		StartedAt:   time.Now(),
		MaxRetries:  DefaultMaxRetries,
	}, nil
}

// Terminal reports whether the job reached a final state.
func (j *JobRecord) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// Clone returns a deep copy safe to hand to observers.
func (j *JobRecord) Clone() *JobRecord {
	cp := *j
	if j.EndedAt != nil {
		t := *j.EndedAt
		cp.EndedAt = &t
	}
	if j.Result != nil {
		r := *j.Result
		cp.Result = &r
	}
	return &cp
}
