//go:build !integration

package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"motion-dashboard/internal/domain/model"
	"motion-dashboard/internal/domain/ports/repository"
	"motion-dashboard/internal/infra/memstore"
	"motion-dashboard/internal/usecase"
)

type noopWaker struct{}

func (noopWaker) Wake() {}

func newTestServer(t *testing.T) (*httptest.Server, *memstore.Registry) {
	t.Helper()
	registry := memstore.NewRegistry()
	uc := usecase.NewJobTrackerUseCase(registry, noopWaker{}, 3)
	logger := zerolog.Nop()
	ts := httptest.NewServer(NewServer(uc, &logger).Router())
	t.Cleanup(ts.Close)
	return ts, registry
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func TestServer_CreateAndGet(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/jobs", map[string]string{
		"id": "vault-1", "subject_name": "Mia R.", "kind": "per_frame",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d", resp.StatusCode)
	}
	var created model.JobRecord
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.Status != model.JobStatusProcessing {
		t.Errorf("expected processing, got %q", created.Status)
	}

	got, err := http.Get(ts.URL + "/api/v1/jobs/vault-1")
	if err != nil {
		t.Fatal(err)
	}
	defer got.Body.Close()
	if got.StatusCode != http.StatusOK {
		t.Fatalf("get: status %d", got.StatusCode)
	}

	// duplicate id maps to 409
	dup := postJSON(t, ts.URL+"/api/v1/jobs", map[string]string{"id": "vault-1", "kind": "per_frame"})
	dup.Body.Close()
	if dup.StatusCode != http.StatusConflict {
		t.Errorf("duplicate create: status %d, want 409", dup.StatusCode)
	}

	// unknown kind maps to 400
	bad := postJSON(t, ts.URL+"/api/v1/jobs", map[string]string{"id": "x", "kind": "bulk"})
	bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Errorf("bad kind: status %d, want 400", bad.StatusCode)
	}
}

func TestServer_CreateAssignsID(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/jobs", map[string]string{"kind": "standard"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d", resp.StatusCode)
	}
	var created model.JobRecord
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" {
		t.Error("expected a generated id")
	}
}

func TestServer_ListAndSummary(t *testing.T) {
	ts, registry := newTestServer(t)

	for _, id := range []string{"a", "b", "c"} {
		resp := postJSON(t, ts.URL+"/api/v1/jobs", map[string]string{"id": id, "kind": "per_frame"})
		resp.Body.Close()
	}
	failed := model.JobStatusFailed
	if err := registry.Update("b", repository.JobPatch{Status: &failed}); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Get(ts.URL + "/api/v1/jobs")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var jobs []model.JobRecord
	if err := json.NewDecoder(resp.Body).Decode(&jobs); err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 3 || jobs[0].ID != "a" || jobs[1].ID != "b" || jobs[2].ID != "c" {
		t.Fatalf("unexpected list: %+v", jobs)
	}

	sresp, err := http.Get(ts.URL + "/api/v1/jobs/summary")
	if err != nil {
		t.Fatal(err)
	}
	defer sresp.Body.Close()
	var sum usecase.Summary
	if err := json.NewDecoder(sresp.Body).Decode(&sum); err != nil {
		t.Fatal(err)
	}
	want := usecase.Summary{Total: 3, ProcessingCount: 2, FailedCount: 1, IsProcessing: true, HasErrors: true}
	if sum != want {
		t.Errorf("summary %+v, want %+v", sum, want)
	}
}

func TestServer_RetryAndRemove(t *testing.T) {
	ts, registry := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/jobs", map[string]string{"id": "beam-1", "kind": "per_frame"})
	resp.Body.Close()
	failed := model.JobStatusFailed
	msg := "polling failed after 3 attempts: boom"
	if err := registry.Update("beam-1", repository.JobPatch{Status: &failed, Error: &msg}); err != nil {
		t.Fatal(err)
	}

	rresp := postJSON(t, ts.URL+"/api/v1/jobs/beam-1/retry", nil)
	rresp.Body.Close()
	if rresp.StatusCode != http.StatusNoContent {
		t.Fatalf("retry: status %d", rresp.StatusCode)
	}
	got, _ := registry.Get("beam-1")
	if got.Status != model.JobStatusProcessing || got.Error != "" {
		t.Errorf("retry did not restart the job: %+v", got)
	}

	// retry of an unknown id maps to 404
	nresp := postJSON(t, ts.URL+"/api/v1/jobs/ghost/retry", nil)
	nresp.Body.Close()
	if nresp.StatusCode != http.StatusNotFound {
		t.Errorf("retry unknown: status %d, want 404", nresp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/jobs/beam-1", nil)
	dresp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	dresp.Body.Close()
	if dresp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: status %d", dresp.StatusCode)
	}
	// deletion is idempotent
	dresp2, err := http.DefaultClient.Do(req.Clone(req.Context()))
	if err != nil {
		t.Fatal(err)
	}
	dresp2.Body.Close()
	if dresp2.StatusCode != http.StatusNoContent {
		t.Errorf("second delete: status %d, want 204", dresp2.StatusCode)
	}
}
