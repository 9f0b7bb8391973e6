package entity

import "time"

type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Job tracks one documentation run submitted through the HTTP surface.
type Job struct {
	ID         string     `json:"id"`
	RepoPath   string     `json:"repo_path"`
	Status     JobStatus  `json:"status"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Summary fields, populated on completion.
	Pages       int        `json:"pages,omitempty"`
	FailedGates int        `json:"failed_gates,omitempty"`
	TokenUsage  TokenUsage `json:"token_usage"`
}
