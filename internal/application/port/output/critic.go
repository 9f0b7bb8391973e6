package output

import (
	"context"

	"docforge/internal/domain/entity"
)

// CriticPort scores a candidate against a rubric, independent of the
// generator. Failures (including unparseable output) are returned as
// errors; the quality loop absorbs them into an auto-passed evaluation.
type CriticPort interface {
	Evaluate(ctx context.Context, req CriticRequest) (*CriticReview, error)
}

type CriticRequest struct {
	Candidate entity.Candidate
	Rubric    entity.Rubric

	// Reference is optional source material the critic may judge against.
	Reference string
}

// CriticReview is the critic's raw output: per-criterion scores on the
// [1, 10] scale plus corrective feedback. The aggregate verdict is computed
// downstream, never taken from the critic.
type CriticReview struct {
	CriteriaScores map[string]float64
	Feedback       string
	Usage          entity.TokenUsage
}
