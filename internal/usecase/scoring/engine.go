package scoring

import (
	"docforge/internal/domain/entity"
)

// Engine turns raw per-criterion scores into a pass/fail/floor verdict.
// It never trusts the critic's self-reported aggregate: the weighted score
// is recomputed here so an inconsistent critic cannot skew the gate.
type Engine struct{}

func New() *Engine {
	return &Engine{}
}

// Score computes the weighted sum of criteria scores over the rubric.
// A criterion the critic did not report scores the minimum (1.0) rather
// than being excluded, so incomplete evaluation is penalized instead of
// silently ignored.
func (e *Engine) Score(rubric entity.Rubric, criteriaScores map[string]float64) float64 {
	total := 0.0
	for _, c := range rubric.Criteria {
		score, ok := criteriaScores[c.Name]
		if !ok {
			score = entity.MinCriterionScore
		}
		total += c.Weight * score
	}
	return total
}

// Verdict reports whether the weighted score clears the threshold and
// whether any configured criterion floor is violated. Both can be true at
// once: a strong average does not excuse a weak dimension, and belowFloor
// is the authoritative do-not-ship signal.
//
// An empty criteriaScores map vacuously satisfies every floor; that is what
// makes an evaluator-unavailable auto-pass floor-clean.
func (e *Engine) Verdict(rubric entity.Rubric, cfg entity.QualityLoopConfig, criteriaScores map[string]float64) (passed, belowFloor bool) {
	passed = e.Score(rubric, criteriaScores) >= cfg.Threshold

	for name, floor := range cfg.CriterionFloors {
		score, ok := criteriaScores[name]
		if !ok {
			continue
		}
		if score < floor {
			belowFloor = true
			break
		}
	}

	return passed, belowFloor
}

// Evaluate assembles a full Evaluation for one critic review.
func (e *Engine) Evaluate(rubric entity.Rubric, cfg entity.QualityLoopConfig, criteriaScores map[string]float64, feedback string) entity.Evaluation {
	passed, _ := e.Verdict(rubric, cfg, criteriaScores)
	return entity.Evaluation{
		Score:           e.Score(rubric, criteriaScores),
		Passed:          passed,
		Feedback:        feedback,
		CriteriaScores:  criteriaScores,
		CriteriaWeights: rubric.Weights(),
	}
}
