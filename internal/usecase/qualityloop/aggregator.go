package qualityloop

import (
	"docforge/internal/domain/entity"
)

// resultAggregator accumulates token usage and the evaluation history of
// one loop invocation and assembles the terminal AgentResult. Auto-passed
// attempts still spent generator tokens, so every capability call is
// recorded here regardless of outcome.
type resultAggregator struct {
	history []entity.Evaluation
	usage   entity.TokenUsage
}

func newResultAggregator(maxAttempts int) *resultAggregator {
	return &resultAggregator{
		history: make([]entity.Evaluation, 0, maxAttempts),
	}
}

func (a *resultAggregator) RecordUsage(usage entity.TokenUsage) {
	a.usage.Add(usage)
}

func (a *resultAggregator) RecordEvaluation(evaluation entity.Evaluation) {
	a.history = append(a.history, evaluation)
}

// Result builds the AgentResult for the given terminal attempt. The
// history is complete even when the loop exits on attempt 1.
func (a *resultAggregator) Result(attempt entity.Attempt, attempts int, passed, belowFloor bool) *entity.AgentResult {
	return &entity.AgentResult{
		Output:            attempt.Candidate,
		Attempts:          attempts,
		FinalScore:        attempt.Evaluation.Score,
		PassedQualityGate: passed,
		BelowMinimumFloor: belowFloor,
		EvaluationHistory: a.history,
		TokenUsage:        a.usage,
	}
}
