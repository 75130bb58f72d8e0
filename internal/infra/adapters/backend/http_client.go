package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"motion-dashboard/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.AnalysisBackend = (*HTTPBackend)(nil)

// HTTPBackend polls the remote motion-analysis service's status endpoint.
type HTTPBackend struct {
	base   string // e.g. https://analysis.example.com/api
	apiKey string
	client *http.Client
}

func NewHTTPBackend(baseURL, apiKey string, timeout time.Duration) (*HTTPBackend, error) {
	if baseURL == "" {
		return nil, errors.New("backend base url empty")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPBackend{
		base:   baseURL,
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// FetchStatus retrieves the raw status report for one job. Every failure
// mode (transport, non-2xx, undecodable body) is a poll error; the caller's
// retry policy decides what to do with it.
func (b *HTTPBackend) FetchStatus(ctx context.Context, jobID string) (*adapter.StatusReport, error) {
	endpoint := fmt.Sprintf("%s/jobs/%s/status", b.base, url.PathEscape(jobID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status endpoint http %d", resp.StatusCode)
	}

	var report adapter.StatusReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("decode status report: %w", err)
	}
	return &report, nil
}
