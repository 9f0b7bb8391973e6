package qualityloop

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"docforge/internal/application/port/output"
	"docforge/internal/domain/entity"
)

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...any)                 {}
func (nopLogger) Info(msg string, args ...any)                  {}
func (nopLogger) Warn(msg string, args ...any)                  {}
func (nopLogger) Error(msg string, args ...any)                 {}
func (l nopLogger) WithField(string, any) output.LoggerPort     { return l }
func (l nopLogger) WithFields(map[string]any) output.LoggerPort { return l }
func (nopLogger) Close() error                                  { return nil }

type fakeGenerator struct {
	calls     int
	feedbacks []string
	err       error
}

func (g *fakeGenerator) Generate(ctx context.Context, req output.GenerateRequest) (*entity.Candidate, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.calls++
	g.feedbacks = append(g.feedbacks, req.Feedback)
	return &entity.Candidate{
		Content: fmt.Sprintf("draft %d", g.calls),
		Usage:   entity.TokenUsage{InputTokens: 100, OutputTokens: 200, Calls: 1},
	}, nil
}

// fakeCritic replays a scripted sequence of per-criterion score maps. A nil
// entry simulates a critic failure on that call.
type fakeCritic struct {
	calls   int
	scripts []map[string]float64
}

func (c *fakeCritic) Evaluate(ctx context.Context, req output.CriticRequest) (*output.CriticReview, error) {
	idx := c.calls
	c.calls++
	if idx >= len(c.scripts) || c.scripts[idx] == nil {
		return nil, errors.New("judge endpoint unreachable")
	}
	return &output.CriticReview{
		CriteriaScores: c.scripts[idx],
		Feedback:       fmt.Sprintf("critique %d", idx+1),
		Usage:          entity.TokenUsage{InputTokens: 50, OutputTokens: 20, Calls: 1},
	}, nil
}

func singleCriterionRubric() entity.Rubric {
	return entity.Rubric{Criteria: []entity.Criterion{{Name: "quality", Weight: 1.0}}}
}

func newController(t *testing.T, gen output.GeneratorPort, critic output.CriticPort, cfg entity.QualityLoopConfig) *Controller {
	t.Helper()
	c, err := New(gen, critic, singleCriterionRubric(), cfg, nopLogger{}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func TestRun_PassesOnSecondAttempt(t *testing.T) {
	gen := &fakeGenerator{}
	critic := &fakeCritic{scripts: []map[string]float64{
		{"quality": 4.0},
		{"quality": 7.5},
	}}
	cfg := entity.QualityLoopConfig{Threshold: 7.0, MaxAttempts: 3}

	result, err := newController(t, gen, critic, cfg).Run(context.Background(), "write the page", nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", result.Attempts)
	}
	if math.Abs(result.FinalScore-7.5) > 1e-9 {
		t.Errorf("FinalScore = %v, want 7.5", result.FinalScore)
	}
	if !result.PassedQualityGate {
		t.Error("PassedQualityGate = false, want true")
	}
	if len(result.EvaluationHistory) != 2 {
		t.Errorf("history length = %d, want 2", len(result.EvaluationHistory))
	}
	if critic.calls != 2 {
		t.Errorf("critic calls = %d, third attempt must never run", critic.calls)
	}
	if result.Output.Content != "draft 2" {
		t.Errorf("Output = %q, want the passing attempt's candidate", result.Output.Content)
	}
}

func TestRun_FeedbackThreading(t *testing.T) {
	gen := &fakeGenerator{}
	critic := &fakeCritic{scripts: []map[string]float64{
		{"quality": 4.0},
		{"quality": 5.0},
		{"quality": 9.0},
	}}
	cfg := entity.QualityLoopConfig{Threshold: 8.0, MaxAttempts: 3}

	if _, err := newController(t, gen, critic, cfg).Run(context.Background(), "input", nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []string{"", "critique 1", "critique 2"}
	for i, fb := range want {
		if gen.feedbacks[i] != fb {
			t.Errorf("attempt %d feedback = %q, want %q", i+1, gen.feedbacks[i], fb)
		}
	}
}

func TestRun_ExhaustionReturnsBestAttempt(t *testing.T) {
	gen := &fakeGenerator{}
	critic := &fakeCritic{scripts: []map[string]float64{
		{"quality": 5.0},
		{"quality": 8.0},
		{"quality": 6.0},
	}}
	cfg := entity.QualityLoopConfig{Threshold: 9.0, MaxAttempts: 3}

	result, err := newController(t, gen, critic, cfg).Run(context.Background(), "input", nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Attempts != 3 {
		t.Errorf("Attempts = %d, want max_attempts", result.Attempts)
	}
	if result.PassedQualityGate {
		t.Error("PassedQualityGate = true, want false")
	}
	if math.Abs(result.FinalScore-8.0) > 1e-9 {
		t.Errorf("FinalScore = %v, want 8.0 (best attempt, not last)", result.FinalScore)
	}
	if result.Output.Content != "draft 2" {
		t.Errorf("Output = %q, want the best attempt's candidate", result.Output.Content)
	}
	if len(result.EvaluationHistory) != 3 {
		t.Errorf("history length = %d, want 3", len(result.EvaluationHistory))
	}
}

func TestRun_CriticFailureAutoPasses(t *testing.T) {
	gen := &fakeGenerator{}
	critic := &fakeCritic{} // fails on every call
	cfg := entity.QualityLoopConfig{Threshold: 7.0, MaxAttempts: 3}

	result, err := newController(t, gen, critic, cfg).Run(context.Background(), "input", nil)
	if err != nil {
		t.Fatalf("Run must not fail when the critic is down: %v", err)
	}

	if result.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1 (auto-pass ends the loop)", result.Attempts)
	}
	if !result.PassedQualityGate {
		t.Error("PassedQualityGate = false, want true")
	}
	if result.BelowMinimumFloor {
		t.Error("BelowMinimumFloor = true, empty scores must satisfy floors vacuously")
	}
	if math.Abs(result.FinalScore-cfg.Threshold) > 1e-9 {
		t.Errorf("FinalScore = %v, want threshold %v", result.FinalScore, cfg.Threshold)
	}
	if len(result.EvaluationHistory) != 1 {
		t.Fatalf("history length = %d, want 1", len(result.EvaluationHistory))
	}
	if len(result.EvaluationHistory[0].CriteriaScores) != 0 {
		t.Errorf("auto-pass criteria scores = %v, want empty", result.EvaluationHistory[0].CriteriaScores)
	}
	if result.EvaluationHistory[0].Feedback != autoPassFeedback {
		t.Errorf("auto-pass feedback = %q", result.EvaluationHistory[0].Feedback)
	}
}

func TestRun_GeneratorFailurePropagates(t *testing.T) {
	genErr := errors.New("rate limited")
	gen := &fakeGenerator{err: genErr}
	critic := &fakeCritic{scripts: []map[string]float64{{"quality": 9.0}}}
	cfg := entity.QualityLoopConfig{Threshold: 7.0, MaxAttempts: 3}

	_, err := newController(t, gen, critic, cfg).Run(context.Background(), "input", nil)
	if !errors.Is(err, genErr) {
		t.Errorf("Run error = %v, want wrapped generator error", err)
	}
}

func TestRun_FloorViolationOnPassingAttempt(t *testing.T) {
	rubric := entity.Rubric{Criteria: []entity.Criterion{
		{Name: "accuracy", Weight: 0.5},
		{Name: "clarity", Weight: 0.5},
	}}
	cfg := entity.QualityLoopConfig{
		Threshold:       6.0,
		MaxAttempts:     1,
		CriterionFloors: map[string]float64{"accuracy": 5.0},
	}
	gen := &fakeGenerator{}
	critic := &fakeCritic{scripts: []map[string]float64{
		{"accuracy": 3.0, "clarity": 10.0}, // weighted 6.5: passes, floor violated
	}}

	c, err := New(gen, critic, rubric, cfg, nopLogger{}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	result, err := c.Run(context.Background(), "input", nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !result.PassedQualityGate {
		t.Error("PassedQualityGate = false, want true")
	}
	if !result.BelowMinimumFloor {
		t.Error("BelowMinimumFloor = false, want true (accuracy under floor)")
	}
}

func TestRun_TokenUsageIncludesCriticCalls(t *testing.T) {
	gen := &fakeGenerator{}
	critic := &fakeCritic{scripts: []map[string]float64{
		{"quality": 4.0},
		{"quality": 9.0},
	}}
	cfg := entity.QualityLoopConfig{Threshold: 8.0, MaxAttempts: 2}

	result, err := newController(t, gen, critic, cfg).Run(context.Background(), "input", nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// 2 generator calls (100 in / 200 out) + 2 critic calls (50 in / 20 out).
	if result.TokenUsage.InputTokens != 300 {
		t.Errorf("InputTokens = %d, want 300", result.TokenUsage.InputTokens)
	}
	if result.TokenUsage.OutputTokens != 440 {
		t.Errorf("OutputTokens = %d, want 440", result.TokenUsage.OutputTokens)
	}
	if result.TokenUsage.Calls != 4 {
		t.Errorf("Calls = %d, want 4", result.TokenUsage.Calls)
	}
}

func TestRun_CancellationDuringBackoff(t *testing.T) {
	gen := &fakeGenerator{}
	critic := &fakeCritic{scripts: []map[string]float64{
		{"quality": 2.0},
		{"quality": 2.0},
	}}
	cfg := entity.QualityLoopConfig{
		Threshold:   9.0,
		MaxAttempts: 2,
		BackoffBase: 5 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := newController(t, gen, critic, cfg).Run(ctx, "input", nil)
		done <- err
	}()

	// Let the first attempt complete, then cancel inside the backoff sleep.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return promptly after cancellation")
	}

	if gen.calls != 1 {
		t.Errorf("generator calls = %d, want 1 (no attempt after cancellation)", gen.calls)
	}
}

func TestNew_PermanentErrors(t *testing.T) {
	gen := &fakeGenerator{}
	critic := &fakeCritic{}

	tests := []struct {
		name    string
		rubric  entity.Rubric
		cfg     entity.QualityLoopConfig
		wantErr error
	}{
		{
			name:    "weights not summing to one",
			rubric:  entity.Rubric{Criteria: []entity.Criterion{{Name: "quality", Weight: 0.5}}},
			cfg:     entity.QualityLoopConfig{Threshold: 7.0, MaxAttempts: 3},
			wantErr: ErrInvalidRubric,
		},
		{
			name:    "zero max attempts",
			rubric:  singleCriterionRubric(),
			cfg:     entity.QualityLoopConfig{Threshold: 7.0, MaxAttempts: 0},
			wantErr: ErrInvalidConfig,
		},
		{
			name:   "floor for unknown criterion",
			rubric: singleCriterionRubric(),
			cfg: entity.QualityLoopConfig{
				Threshold:       7.0,
				MaxAttempts:     3,
				CriterionFloors: map[string]float64{"accuracy": 5.0},
			},
			wantErr: ErrUnknownFloorCriterion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(gen, critic, tt.rubric, tt.cfg, nopLogger{}, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("New error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
