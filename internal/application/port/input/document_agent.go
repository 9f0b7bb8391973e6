package input

import (
	"context"

	"docforge/internal/domain/entity"
)

// DocumentRequest is the input to one document agent invocation.
type DocumentRequest struct {
	// Task is the agent-specific payload: the file tree for the structure
	// agent, a page plan entry rendered into a prompt for the page agent,
	// generated pages for the readme agent.
	Task string

	// Reference is source material the critic judges against. Optional.
	Reference string
}

// DocumentAgent binds a prompt, a rubric, and a quality loop for one
// document kind.
type DocumentAgent interface {
	Type() entity.AgentType
	Run(ctx context.Context, req DocumentRequest) (*entity.AgentResult, error)
}
