package input

import (
	"context"

	"docforge/internal/domain/entity"
)

// RunRequest asks for documentation of one repository.
type RunRequest struct {
	RepoPath string
	RepoName string
}

// DocumentOutcome summarizes one generated document for the caller.
type DocumentOutcome struct {
	ID                string
	Title             string
	Kind              entity.AgentType
	Attempts          int
	FinalScore        float64
	PassedQualityGate bool
	BelowMinimumFloor bool
}

type PipelineResult struct {
	Structure  entity.WikiStructure
	Documents  []DocumentOutcome
	TokenUsage entity.TokenUsage
}

// FailedGates counts documents that either missed the threshold or sit
// below a criterion floor.
func (r *PipelineResult) FailedGates() int {
	n := 0
	for _, d := range r.Documents {
		if !d.PassedQualityGate || d.BelowMinimumFloor {
			n++
		}
	}
	return n
}

type PipelineRunner interface {
	Run(ctx context.Context, req RunRequest) (*PipelineResult, error)
}
