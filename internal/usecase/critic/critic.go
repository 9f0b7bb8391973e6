package critic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"docforge/internal/application/port/output"
	"docforge/internal/domain/entity"
)

var _ output.CriticPort = (*Critic)(nil)

// Critic scores candidates with an independent judging model. It only
// extracts raw per-criterion scores and feedback; the aggregate verdict is
// computed by the scoring engine downstream.
type Critic struct {
	llm    output.LLMPort
	logger output.LoggerPort
}

func New(llm output.LLMPort, logger output.LoggerPort) *Critic {
	return &Critic{
		llm:    llm,
		logger: logger,
	}
}

type criticResponse struct {
	CriteriaScores map[string]float64 `json:"criteria_scores"`
	Feedback       string             `json:"feedback"`
}

func (c *Critic) Evaluate(ctx context.Context, req output.CriticRequest) (*output.CriticReview, error) {
	userContent := fmt.Sprintf("Candidate document:\n%s", req.Candidate.Content)
	if req.Reference != "" {
		userContent = fmt.Sprintf("Reference source material:\n%s\n\n%s", req.Reference, userContent)
	}

	messages := []entity.Message{
		{Role: entity.RoleSystem, Content: buildJudgingPrompt(req.Rubric)},
		{Role: entity.RoleUser, Content: userContent},
	}

	resp, err := c.llm.Chat(ctx, output.ChatRequest{
		Messages:    messages,
		Temperature: 0.0,
	})
	if err != nil {
		return nil, fmt.Errorf("evaluation llm request failed: %w", err)
	}

	parsed, err := parseCriticResponse(resp.Message.Content)
	if err != nil {
		return nil, fmt.Errorf("unparseable critic output: %w", err)
	}

	scores := sanitizeScores(req.Rubric, parsed.CriteriaScores)

	c.logger.Info("Evaluation completed",
		"criteria_reported", len(scores),
		"feedback_len", len(parsed.Feedback),
	)

	return &output.CriticReview{
		CriteriaScores: scores,
		Feedback:       parsed.Feedback,
		Usage:          resp.Usage,
	}, nil
}

func buildJudgingPrompt(rubric entity.Rubric) string {
	var b strings.Builder
	b.WriteString(`You are a strict documentation reviewer. Score the candidate document against each criterion on a scale of 1.0 to 10.0, where 10.0 is flawless.

Response format (MUST be valid JSON):
{
  "criteria_scores": {`)

	for i, c := range rubric.Criteria {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, "\n    %q: <score>", c.Name)
	}

	b.WriteString(`
  },
  "feedback": "specific, actionable feedback for improvement"
}

Criteria:`)

	for _, c := range rubric.Criteria {
		fmt.Fprintf(&b, "\n- %s (weight %.2f)", c.Name, c.Weight)
	}

	b.WriteString(`

IMPORTANT:
- Score every criterion; do not omit any
- Be strict but fair
- If reference source material is provided, judge factual claims against it
- Feedback must name the concrete changes a revision should make`)

	return b.String()
}

// parseCriticResponse extracts the first JSON object from the model output,
// tolerating prose around it.
func parseCriticResponse(response string) (*criticResponse, error) {
	response = strings.TrimSpace(response)

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")

	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON found in response")
	}

	var result criticResponse
	if err := json.Unmarshal([]byte(response[start:end+1]), &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	if len(result.CriteriaScores) == 0 {
		return nil, fmt.Errorf("no criteria scores in response")
	}

	return &result, nil
}

// sanitizeScores drops criteria the rubric does not know and clamps scores
// to the [1, 10] scale.
func sanitizeScores(rubric entity.Rubric, raw map[string]float64) map[string]float64 {
	scores := make(map[string]float64, len(raw))
	for name, score := range raw {
		if !rubric.Has(name) {
			continue
		}
		if score < entity.MinCriterionScore {
			score = entity.MinCriterionScore
		}
		if score > entity.MaxCriterionScore {
			score = entity.MaxCriterionScore
		}
		scores[name] = score
	}
	return scores
}
