package output

import (
	"context"

	"docforge/internal/domain/entity"
)

// ProgressPort reports pipeline progress to whoever is watching a run
// (console in one-shot mode, a no-op behind the HTTP surface).
type ProgressPort interface {
	ShowDocumentStart(ctx context.Context, kind entity.AgentType, title string)
	ShowAttempt(ctx context.Context, attempt, maxAttempts int, score float64, passed bool)
	ShowDocumentDone(ctx context.Context, title string, result *entity.AgentResult)
}
