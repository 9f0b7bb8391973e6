package generator

import (
	"context"
	"fmt"

	"docforge/internal/application/port/output"
	"docforge/internal/domain/entity"
)

var _ output.GeneratorPort = (*Generator)(nil)

// Generator produces document drafts through the chat contract. On retries
// the critic's feedback is appended to the conversation as corrective
// context; that string is the only state crossing attempts.
type Generator struct {
	llm          output.LLMPort
	logger       output.LoggerPort
	systemPrompt string
	temperature  float32
}

func New(llm output.LLMPort, logger output.LoggerPort, systemPrompt string, temperature float32) *Generator {
	return &Generator{
		llm:          llm,
		logger:       logger,
		systemPrompt: systemPrompt,
		temperature:  temperature,
	}
}

func (g *Generator) Generate(ctx context.Context, req output.GenerateRequest) (*entity.Candidate, error) {
	messages := []entity.Message{
		{Role: entity.RoleSystem, Content: g.systemPrompt},
		{Role: entity.RoleUser, Content: req.Input},
	}

	if req.Feedback != "" {
		messages = append(messages, entity.Message{
			Role: entity.RoleUser,
			Content: fmt.Sprintf(
				"Your previous attempt was rejected by the reviewer. Address this critique and produce a revised version:\n\n%s",
				req.Feedback,
			),
		})
	}

	resp, err := g.llm.Chat(ctx, output.ChatRequest{
		Messages:    messages,
		Temperature: g.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generation llm request failed: %w", err)
	}

	if resp.Message.Content == "" {
		return nil, fmt.Errorf("generator returned empty content")
	}

	g.logger.Debug("Draft generated",
		"content_len", len(resp.Message.Content),
		"with_feedback", req.Feedback != "",
	)

	return &entity.Candidate{
		Content: resp.Message.Content,
		Usage:   resp.Usage,
	}, nil
}
