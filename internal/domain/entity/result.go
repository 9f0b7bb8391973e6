package entity

// AgentResult is the terminal output of one quality loop invocation.
//
// PassedQualityGate and BelowMinimumFloor are independent: a weighted
// average can clear the threshold while one dimension sits under its floor.
// BelowMinimumFloor is the authoritative do-not-ship signal.
type AgentResult struct {
	Output            Candidate
	Attempts          int
	FinalScore        float64
	PassedQualityGate bool
	BelowMinimumFloor bool
	EvaluationHistory []Evaluation
	TokenUsage        TokenUsage
}
