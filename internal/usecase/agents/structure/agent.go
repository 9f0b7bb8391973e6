package structure

import (
	"context"

	"docforge/internal/application/port/input"
	"docforge/internal/application/port/output"
	"docforge/internal/domain/entity"
	"docforge/internal/infrastructure/rubric"
	"docforge/internal/usecase/generator"
	"docforge/internal/usecase/qualityloop"
)

var _ input.DocumentAgent = (*Agent)(nil)

// Agent plans the wiki structure for a repository. Its output is a JSON
// plan that the pipeline parses into page tasks.
type Agent struct {
	loop   *qualityloop.Controller
	logger output.LoggerPort
}

func New(
	llm output.LLMPort,
	critic output.CriticPort,
	spec rubric.AgentSpec,
	systemPrompt string,
	logger output.LoggerPort,
	progress output.ProgressPort,
) (*Agent, error) {
	gen := generator.New(llm, logger, systemPrompt, 0.3)
	loop, err := qualityloop.New(gen, critic, spec.Rubric, spec.Config, logger, progress)
	if err != nil {
		return nil, err
	}
	return &Agent{loop: loop, logger: logger}, nil
}

func (a *Agent) Type() entity.AgentType {
	return entity.AgentTypeStructure
}

func (a *Agent) Run(ctx context.Context, req input.DocumentRequest) (*entity.AgentResult, error) {
	a.logger.Info("Structure agent running", "task_len", len(req.Task))
	loop := a.loop
	if req.Reference != "" {
		loop = loop.WithReference(req.Reference)
	}
	return loop.Run(ctx, req.Task, nil)
}
