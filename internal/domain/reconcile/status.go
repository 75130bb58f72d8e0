// Package reconcile normalizes the status vocabulary of the remote analysis
// backend into the canonical enums the rest of the dashboard renders from.
// All functions are pure and never fail; unknown inputs fall through to
// documented defaults.
package reconcile

import (
	"strings"

	"motion-dashboard/internal/domain/model"
)

// Status merges the two independent upstream signals into one canonical job
// status. The backend reports an upload-pipeline status (primary) and an
// analysis-pipeline status (secondary) that routinely disagree; the rules
// below are ordered and the first match wins.
func Status(primary, secondary string) model.JobStatus {
	p := strings.ToLower(strings.TrimSpace(primary))
	s := strings.ToLower(strings.TrimSpace(secondary))

	switch {
	case p == "completed" && s == "completed":
		return model.JobStatusCompleted
	case p == "processing" || s == "analyzing":
		return model.JobStatusProcessing
	case p == "uploaded" && (s == "analysis_failed" || s == "uploaded"):
		// Uploaded but not analyzed (or a previous analysis failed): the
		// recording is ready to be (re)analyzed.
		return model.JobStatusPending
	case p == "failed" || s == "failed":
		return model.JobStatusFailed
	default:
		return model.JobStatusPending
	}
}

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

// Risk bands a numeric risk score into the canonical level.
// High above 70, moderate above 40, low otherwise; boundaries belong to the
// lower band (70 is moderate, 40 is low).
func Risk(score float64) RiskLevel {
	switch {
	case score > 70:
		return RiskHigh
	case score > 40:
		return RiskModerate
	default:
		return RiskLow
	}
}

// eventTokens is checked in order; first substring match wins.
var eventTokens = []struct {
	token string
	name  string
}{
	{"floor", "floor"},
	{"vault", "vault"},
	{"bar", "bars"},
	{"beam", "beam"},
}

// Event normalizes a free-text event label to its canonical apparatus name.
// Matching is case-insensitive; text naming no known apparatus passes
// through unchanged.
func Event(name string) string {
	lower := strings.ToLower(name)
	for _, e := range eventTokens {
		if strings.Contains(lower, e.token) {
			return e.name
		}
	}
	return name
}

// SessionRecord is a raw row from the session/record source, carrying the
// unreconciled upstream fields verbatim.
type SessionRecord struct {
	Status           string  `json:"status"`
	ProcessingStatus string  `json:"processing_status"`
	Event            string  `json:"event"`
	RiskScore        float64 `json:"risk_score"`
}

// SessionView is a SessionRecord after normalization.
type SessionView struct {
	Status model.JobStatus `json:"status"`
	Event  string          `json:"event"`
	Risk   RiskLevel       `json:"risk"`
}

// Session normalizes one raw record for reporting consumers.
func Session(rec SessionRecord) SessionView {
	return SessionView{
		Status: Status(rec.Status, rec.ProcessingStatus),
		Event:  Event(rec.Event),
		Risk:   Risk(rec.RiskScore),
	}
}
