package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/google/uuid"

	"docforge/internal/application/port/input"
	"docforge/internal/application/port/output"
	"docforge/internal/domain/entity"
)

// Server exposes documentation runs as asynchronous jobs. A POST enqueues
// a pipeline run and returns immediately with a job id; the caller polls
// the job until it completes or fails.
type Server struct {
	pipeline input.PipelineRunner
	logger   output.LoggerPort

	mu   sync.RWMutex
	jobs map[string]*entity.Job
}

func NewServer(pipeline input.PipelineRunner, logger output.LoggerPort) *Server {
	return &Server{
		pipeline: pipeline,
		logger:   logger,
		jobs:     make(map[string]*entity.Job),
	}
}

// Router builds the chi router with request logging attached.
func (s *Server) Router() http.Handler {
	requestLogger := httplog.NewLogger("docforge", httplog.Options{
		JSON:    true,
		Concise: true,
	})

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(requestLogger))
	r.Use(middleware.Recoverer)

	r.Post("/jobs", s.createJob)
	r.Get("/jobs/{id}", s.getJob)
	r.Get("/healthz", s.health)

	return r
}

type createJobRequest struct {
	RepoPath string `json:"repo_path"`
	RepoName string `json:"repo_name,omitempty"`
}

func (s *Server) createJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.RepoPath == "" {
		writeError(w, http.StatusBadRequest, "repo_path is required")
		return
	}
	if req.RepoName == "" {
		req.RepoName = filepath.Base(req.RepoPath)
	}

	job := &entity.Job{
		ID:        uuid.NewString(),
		RepoPath:  req.RepoPath,
		Status:    entity.JobStatusPending,
		StartedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	// Snapshot before the worker goroutine starts mutating the job.
	snapshot := *job

	// The run outlives the HTTP request, so it gets its own context.
	go s.runJob(job.ID, req)

	s.logger.Info("Job accepted", "job_id", job.ID, "repo_path", req.RepoPath)
	writeJSON(w, http.StatusAccepted, snapshot)
}

func (s *Server) runJob(id string, req createJobRequest) {
	s.updateJob(id, func(j *entity.Job) {
		j.Status = entity.JobStatusRunning
	})

	result, err := s.pipeline.Run(context.Background(), input.RunRequest{
		RepoPath: req.RepoPath,
		RepoName: req.RepoName,
	})

	now := time.Now().UTC()
	if err != nil {
		s.logger.Error("Job failed", "job_id", id, "error", err)
		s.updateJob(id, func(j *entity.Job) {
			j.Status = entity.JobStatusFailed
			j.Error = err.Error()
			j.FinishedAt = &now
		})
		return
	}

	s.logger.Info("Job completed", "job_id", id, "documents", len(result.Documents))
	s.updateJob(id, func(j *entity.Job) {
		j.Status = entity.JobStatusCompleted
		j.FinishedAt = &now
		j.Pages = len(result.Documents)
		j.FailedGates = result.FailedGates()
		j.TokenUsage = result.TokenUsage
	})
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.RLock()
	job, ok := s.jobs[id]
	var snapshot entity.Job
	if ok {
		snapshot = *job
	}
	s.mu.RUnlock()

	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) updateJob(id string, apply func(*entity.Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		apply(job)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
