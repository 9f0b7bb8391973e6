package entity

// Candidate is one Generator output. The content is opaque to the loop:
// plain markdown for pages, JSON for the structure plan.
type Candidate struct {
	Content string
	Usage   TokenUsage
}

// Evaluation is the engine's verdict for one candidate. Score is always
// recomputed from CriteriaScores over CriteriaWeights; the critic's own
// aggregate is never trusted verbatim.
type Evaluation struct {
	Score           float64            `json:"score"`
	Passed          bool               `json:"passed"`
	Feedback        string             `json:"feedback"`
	CriteriaScores  map[string]float64 `json:"criteria_scores"`
	CriteriaWeights map[string]float64 `json:"criteria_weights"`
}

// Attempt pairs a candidate with its evaluation. Immutable once created.
type Attempt struct {
	Index      int
	Candidate  Candidate
	Evaluation Evaluation
	Usage      TokenUsage
}
