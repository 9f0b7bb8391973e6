package progress

import (
	"context"
	"fmt"

	"docforge/internal/application/port/output"
	"docforge/internal/domain/entity"

	"github.com/fatih/color"
)

var _ output.ProgressPort = (*Console)(nil)

// Console renders pipeline progress for a one-shot CLI run.
type Console struct{}

func NewConsole() *Console {
	return &Console{}
}

func (c *Console) ShowDocumentStart(ctx context.Context, kind entity.AgentType, title string) {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Printf("\n━━━ %s: %s ━━━\n", kindDisplay(kind), title)
}

func (c *Console) ShowAttempt(ctx context.Context, attempt, maxAttempts int, score float64, passed bool) {
	if passed {
		green := color.New(color.FgGreen)
		green.Printf("✓ attempt %d/%d scored %.1f\n", attempt, maxAttempts, score)
		return
	}
	yellow := color.New(color.FgYellow)
	yellow.Printf("✗ attempt %d/%d scored %.1f, retrying\n", attempt, maxAttempts, score)
}

func (c *Console) ShowDocumentDone(ctx context.Context, title string, result *entity.AgentResult) {
	if result.PassedQualityGate && !result.BelowMinimumFloor {
		green := color.New(color.FgGreen, color.Bold)
		green.Printf("✓ %s accepted (score %.1f, %d attempt%s)\n",
			title, result.FinalScore, result.Attempts, plural(result.Attempts))
		return
	}

	red := color.New(color.FgRed)
	reason := "below quality threshold"
	if result.BelowMinimumFloor {
		reason = "below criterion floor"
	}
	red.Printf("✗ %s flagged: %s (score %.1f, %d attempt%s)\n",
		title, reason, result.FinalScore, result.Attempts, plural(result.Attempts))

	dim := color.New(color.Faint)
	if len(result.EvaluationHistory) > 0 {
		last := result.EvaluationHistory[len(result.EvaluationHistory)-1]
		dim.Printf("   %s\n", truncate(last.Feedback, 200))
	}
}

func kindDisplay(kind entity.AgentType) string {
	switch kind {
	case entity.AgentTypeStructure:
		return "Planning"
	case entity.AgentTypePage:
		return "Page"
	case entity.AgentTypeReadme:
		return "README"
	default:
		return string(kind)
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return fmt.Sprintf("%s...", s[:max])
}
