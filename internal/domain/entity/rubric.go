package entity

import (
	"fmt"
	"math"
)

const (
	// MinCriterionScore is assigned to criteria the critic failed to report.
	MinCriterionScore = 1.0
	MaxCriterionScore = 10.0

	weightSumTolerance = 1e-6
)

// Criterion is one weighted evaluation dimension. An optional Floor sets an
// independent minimum score for the dimension.
type Criterion struct {
	Name   string
	Weight float64
	Floor  *float64
}

// Rubric is a frozen, validated set of weighted criteria. It is built once
// per agent type and shared read-only across loop invocations.
type Rubric struct {
	Criteria []Criterion
}

// Weights returns the criterion weights keyed by name.
func (r Rubric) Weights() map[string]float64 {
	weights := make(map[string]float64, len(r.Criteria))
	for _, c := range r.Criteria {
		weights[c.Name] = c.Weight
	}
	return weights
}

// Has reports whether the rubric contains a criterion with the given name.
func (r Rubric) Has(name string) bool {
	for _, c := range r.Criteria {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Validate checks the rubric invariants: at least one criterion, unique
// names, weights summing to 1.0, floors within the score scale.
func (r Rubric) Validate() error {
	if len(r.Criteria) == 0 {
		return fmt.Errorf("rubric has no criteria")
	}

	seen := make(map[string]bool, len(r.Criteria))
	sum := 0.0
	for _, c := range r.Criteria {
		if c.Name == "" {
			return fmt.Errorf("criterion with empty name")
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate criterion %q", c.Name)
		}
		seen[c.Name] = true

		if c.Weight < 0 {
			return fmt.Errorf("criterion %q has negative weight %v", c.Name, c.Weight)
		}
		sum += c.Weight

		if c.Floor != nil && (*c.Floor < MinCriterionScore || *c.Floor > MaxCriterionScore) {
			return fmt.Errorf("criterion %q floor %v outside [%v, %v]",
				c.Name, *c.Floor, MinCriterionScore, MaxCriterionScore)
		}
	}

	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("criterion weights sum to %v, want 1.0", sum)
	}

	return nil
}
