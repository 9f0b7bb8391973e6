package qualityloop

import (
	"context"
	"fmt"
	"time"

	"docforge/internal/application/port/output"
	"docforge/internal/domain/entity"
	"docforge/internal/usecase/scoring"
)

// autoPassFeedback marks evaluations synthesized when the critic was
// unavailable. Always visible in the evaluation history for audit.
const autoPassFeedback = "evaluator unavailable, attempt auto-passed"

// Controller drives the generate/evaluate/retry loop for one document at a
// time. Rubric and config are immutable after construction, so a single
// controller is safe to share across concurrent Run invocations.
type Controller struct {
	generator output.GeneratorPort
	critic    output.CriticPort
	engine    *scoring.Engine
	rubric    entity.Rubric
	cfg       entity.QualityLoopConfig
	reference string
	logger    output.LoggerPort
	progress  output.ProgressPort
}

// New validates the rubric, the config, and their coherence. All failures
// here are permanent: they are raised before any attempt runs.
func New(
	generator output.GeneratorPort,
	critic output.CriticPort,
	rubric entity.Rubric,
	cfg entity.QualityLoopConfig,
	logger output.LoggerPort,
	progress output.ProgressPort,
) (*Controller, error) {
	if err := rubric.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRubric, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	for name := range cfg.CriterionFloors {
		if !rubric.Has(name) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFloorCriterion, name)
		}
	}

	return &Controller{
		generator: generator,
		critic:    critic,
		engine:    scoring.New(),
		rubric:    rubric,
		cfg:       cfg,
		logger:    logger,
		progress:  progress,
	}, nil
}

// WithReference returns a shallow copy whose critic receives the given
// reference material. The original controller is untouched.
func (c *Controller) WithReference(reference string) *Controller {
	clone := *c
	clone.reference = reference
	return &clone
}

// Run executes up to MaxAttempts generate/evaluate rounds and returns the
// accepted or best-tracked result.
//
// The session handle is passed through to the generator unchanged; the
// loop never inspects it. Generator failures propagate, critic failures
// are absorbed into an auto-passed evaluation, and quality failures are
// never errors: they come back as data in the AgentResult.
func (c *Controller) Run(ctx context.Context, input string, session any) (*entity.AgentResult, error) {
	tracker := &bestTracker{}
	agg := newResultAggregator(c.cfg.MaxAttempts)
	feedback := ""

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		c.logger.Debug("Starting attempt", "attempt", attempt, "max_attempts", c.cfg.MaxAttempts)

		candidate, err := c.generator.Generate(ctx, output.GenerateRequest{
			Input:    input,
			Feedback: feedback,
			Session:  session,
		})
		if err != nil {
			return nil, fmt.Errorf("generator failed on attempt %d: %w", attempt, err)
		}
		agg.RecordUsage(candidate.Usage)

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		evaluation := c.evaluate(ctx, *candidate, agg)
		agg.RecordEvaluation(evaluation)

		current := entity.Attempt{
			Index:      attempt,
			Candidate:  *candidate,
			Evaluation: evaluation,
			Usage:      candidate.Usage,
		}
		tracker.Consider(current)

		if c.progress != nil {
			c.progress.ShowAttempt(ctx, attempt, c.cfg.MaxAttempts, evaluation.Score, evaluation.Passed)
		}

		if evaluation.Passed {
			// The current attempt is the accepted output, even if the
			// tracker holds an equal score from an earlier round: there is
			// no later retry to compare against.
			_, belowFloor := c.engine.Verdict(c.rubric, c.cfg, evaluation.CriteriaScores)
			c.logger.Info("Quality gate passed",
				"attempt", attempt,
				"score", evaluation.Score,
				"below_floor", belowFloor,
			)
			return agg.Result(current, attempt, true, belowFloor), nil
		}

		feedback = evaluation.Feedback
		c.logger.Info("Quality gate failed",
			"attempt", attempt,
			"score", evaluation.Score,
			"threshold", c.cfg.Threshold,
		)

		if attempt < c.cfg.MaxAttempts {
			if err := c.backoff(ctx, attempt); err != nil {
				return nil, err
			}
		}
	}

	best := tracker.Best()
	_, belowFloor := c.engine.Verdict(c.rubric, c.cfg, best.Evaluation.CriteriaScores)
	c.logger.Warn("Attempts exhausted, returning best attempt",
		"best_attempt", best.Index,
		"score", best.Evaluation.Score,
		"attempts", c.cfg.MaxAttempts,
	)

	return agg.Result(*best, c.cfg.MaxAttempts, false, belowFloor), nil
}

// evaluate runs the critic and converts its review into an evaluation. A
// critic error does not abort the loop: evaluator outages must degrade
// gracefully, so the attempt is auto-passed with an empty score map and
// the synthesized evaluation stays in the history for audit.
func (c *Controller) evaluate(ctx context.Context, candidate entity.Candidate, agg *resultAggregator) entity.Evaluation {
	review, err := c.critic.Evaluate(ctx, output.CriticRequest{
		Candidate: candidate,
		Rubric:    c.rubric,
		Reference: c.reference,
	})
	if err != nil {
		c.logger.Warn("Critic unavailable, auto-passing attempt", "error", err)
		return entity.Evaluation{
			Score:           c.cfg.Threshold,
			Passed:          true,
			Feedback:        autoPassFeedback,
			CriteriaScores:  map[string]float64{},
			CriteriaWeights: c.rubric.Weights(),
		}
	}

	agg.RecordUsage(review.Usage)
	return c.engine.Evaluate(c.rubric, c.cfg, review.CriteriaScores, review.Feedback)
}

// backoff sleeps BackoffBase * 2^(attempt-1), suspending only the calling
// goroutine and honoring cancellation.
func (c *Controller) backoff(ctx context.Context, attempt int) error {
	delay := c.cfg.BackoffBase * (1 << (attempt - 1))
	if delay <= 0 {
		return nil
	}

	c.logger.Debug("Backing off before retry", "delay", delay.String(), "attempt", attempt)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
