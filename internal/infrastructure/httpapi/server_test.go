package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"docforge/internal/application/port/input"
	"docforge/internal/application/port/output"
	"docforge/internal/domain/entity"
)

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...any)                 {}
func (nopLogger) Info(msg string, args ...any)                  {}
func (nopLogger) Warn(msg string, args ...any)                  {}
func (nopLogger) Error(msg string, args ...any)                 {}
func (l nopLogger) WithField(string, any) output.LoggerPort     { return l }
func (l nopLogger) WithFields(map[string]any) output.LoggerPort { return l }
func (nopLogger) Close() error                                  { return nil }

type fakePipeline struct {
	result  *input.PipelineResult
	err     error
	started chan input.RunRequest
	release chan struct{}
}

func newFakePipeline() *fakePipeline {
	return &fakePipeline{
		started: make(chan input.RunRequest, 1),
		release: make(chan struct{}),
		result: &input.PipelineResult{
			Documents: []input.DocumentOutcome{
				{ID: "structure", Kind: entity.AgentTypeStructure, PassedQualityGate: true},
				{ID: "overview", Kind: entity.AgentTypePage, PassedQualityGate: false},
			},
			TokenUsage: entity.TokenUsage{InputTokens: 10, OutputTokens: 5, Calls: 2},
		},
	}
}

func (p *fakePipeline) Run(_ context.Context, req input.RunRequest) (*input.PipelineResult, error) {
	p.started <- req
	<-p.release
	return p.result, p.err
}

func postJob(t *testing.T, srv http.Handler, body string) entity.Job {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(body))
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("POST /jobs status = %d, want %d: %s", rec.Code, http.StatusAccepted, rec.Body.String())
	}
	var job entity.Job
	if err := json.Unmarshal(rec.Body.Bytes(), &job); err != nil {
		t.Fatalf("failed to decode job: %v", err)
	}
	return job
}

func getJob(t *testing.T, srv http.Handler, id string) (int, entity.Job) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/jobs/"+id, nil)
	srv.ServeHTTP(rec, req)
	var job entity.Job
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &job); err != nil {
			t.Fatalf("failed to decode job: %v", err)
		}
	}
	return rec.Code, job
}

func waitForStatus(t *testing.T, srv http.Handler, id string, want entity.JobStatus) entity.Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if code, job := getJob(t, srv, id); code == http.StatusOK && job.Status == want {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached status %q", id, want)
	return entity.Job{}
}

func TestCreateJob_RunsPipelineAsync(t *testing.T) {
	pipeline := newFakePipeline()
	srv := NewServer(pipeline, nopLogger{}).Router()

	job := postJob(t, srv, `{"repo_path": "/src/demo"}`)
	if job.ID == "" {
		t.Fatal("job id is empty")
	}
	if job.Status != entity.JobStatusPending {
		t.Errorf("initial status = %q, want pending", job.Status)
	}

	req := <-pipeline.started
	if req.RepoPath != "/src/demo" || req.RepoName != "demo" {
		t.Errorf("pipeline request = %+v, want /src/demo with derived name demo", req)
	}

	close(pipeline.release)
	done := waitForStatus(t, srv, job.ID, entity.JobStatusCompleted)

	if done.Pages != 2 {
		t.Errorf("pages = %d, want 2", done.Pages)
	}
	if done.FailedGates != 1 {
		t.Errorf("failed gates = %d, want 1", done.FailedGates)
	}
	if done.TokenUsage.Calls != 2 {
		t.Errorf("token usage calls = %d, want 2", done.TokenUsage.Calls)
	}
	if done.FinishedAt == nil {
		t.Error("finished_at not set")
	}
}

func TestCreateJob_PipelineErrorMarksFailed(t *testing.T) {
	pipeline := newFakePipeline()
	pipeline.result = nil
	pipeline.err = errors.New("repository unreadable")
	srv := NewServer(pipeline, nopLogger{}).Router()

	job := postJob(t, srv, `{"repo_path": "/src/broken", "repo_name": "broken"}`)
	<-pipeline.started
	close(pipeline.release)

	failed := waitForStatus(t, srv, job.ID, entity.JobStatusFailed)
	if failed.Error != "repository unreadable" {
		t.Errorf("error = %q, want pipeline error message", failed.Error)
	}
}

func TestCreateJob_Validation(t *testing.T) {
	srv := NewServer(newFakePipeline(), nopLogger{}).Router()

	cases := []struct {
		name string
		body string
	}{
		{"empty body", ``},
		{"missing repo_path", `{"repo_name": "demo"}`},
		{"malformed json", `{"repo_path": `},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/jobs", strings.NewReader(tc.body))
			srv.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestGetJob_NotFound(t *testing.T) {
	srv := NewServer(newFakePipeline(), nopLogger{}).Router()
	code, _ := getJob(t, srv, "no-such-job")
	if code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", code, http.StatusNotFound)
	}
}
