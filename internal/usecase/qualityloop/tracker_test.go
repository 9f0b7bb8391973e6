package qualityloop

import (
	"testing"

	"docforge/internal/domain/entity"
)

func attemptWithScore(index int, score float64) entity.Attempt {
	return entity.Attempt{
		Index:      index,
		Candidate:  entity.Candidate{Content: "candidate"},
		Evaluation: entity.Evaluation{Score: score},
	}
}

func TestBestTracker_EmptyBeforeFirstAttempt(t *testing.T) {
	tracker := &bestTracker{}
	if tracker.Best() != nil {
		t.Error("Best() before any attempt must be nil")
	}
}

func TestBestTracker_StrictImprovement(t *testing.T) {
	tracker := &bestTracker{}
	tracker.Consider(attemptWithScore(1, 5.0))
	tracker.Consider(attemptWithScore(2, 8.0))
	tracker.Consider(attemptWithScore(3, 6.0))

	best := tracker.Best()
	if best == nil || best.Index != 2 {
		t.Fatalf("Best() = %+v, want attempt 2", best)
	}
}

func TestBestTracker_TieKeepsEarlierAttempt(t *testing.T) {
	tracker := &bestTracker{}
	tracker.Consider(attemptWithScore(1, 7.0))
	tracker.Consider(attemptWithScore(2, 7.0))

	best := tracker.Best()
	if best == nil || best.Index != 1 {
		t.Fatalf("Best() = %+v, want attempt 1 on an exact tie", best)
	}
}
