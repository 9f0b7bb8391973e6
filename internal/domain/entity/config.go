package entity

import (
	"fmt"
	"time"
)

// QualityLoopConfig controls one loop instance. Constructed once per agent
// type and reused read-only across invocations.
type QualityLoopConfig struct {
	Threshold       float64
	MaxAttempts     int
	BackoffBase     time.Duration
	CriterionFloors map[string]float64
}

func (c QualityLoopConfig) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max attempts %d, want >= 1", c.MaxAttempts)
	}
	if c.Threshold < MinCriterionScore || c.Threshold > MaxCriterionScore {
		return fmt.Errorf("threshold %v outside [%v, %v]",
			c.Threshold, MinCriterionScore, MaxCriterionScore)
	}
	if c.BackoffBase < 0 {
		return fmt.Errorf("negative backoff base %v", c.BackoffBase)
	}
	for name, floor := range c.CriterionFloors {
		if floor < MinCriterionScore || floor > MaxCriterionScore {
			return fmt.Errorf("floor for %q is %v, outside [%v, %v]",
				name, floor, MinCriterionScore, MaxCriterionScore)
		}
	}
	return nil
}
