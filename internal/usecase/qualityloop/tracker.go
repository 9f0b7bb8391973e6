package qualityloop

import (
	"docforge/internal/domain/entity"
)

// bestTracker retains the highest-scoring attempt of one loop invocation.
// Improvement is strict: on an exact tie the earlier attempt wins, favoring
// the cheaper result when quality is indistinguishable.
type bestTracker struct {
	best *entity.Attempt
}

func (t *bestTracker) Consider(attempt entity.Attempt) {
	if t.best == nil || attempt.Evaluation.Score > t.best.Evaluation.Score {
		t.best = &attempt
	}
}

func (t *bestTracker) Best() *entity.Attempt {
	return t.best
}
