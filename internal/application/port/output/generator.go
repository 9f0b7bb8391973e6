package output

import (
	"context"

	"docforge/internal/domain/entity"
)

// GeneratorPort produces a candidate from an input, optionally seeded with
// the critic's feedback on the previous attempt. Failures are the caller's
// to handle; the quality loop never masks them.
type GeneratorPort interface {
	Generate(ctx context.Context, req GenerateRequest) (*entity.Candidate, error)
}

type GenerateRequest struct {
	// Input is the full task for the generator (prompt plus reference
	// material), opaque to the loop.
	Input string

	// Feedback is the previous attempt's critique. Empty on attempt 1.
	Feedback string

	// Session is an opaque conversation handle threaded through unchanged
	// when the surrounding system keeps generator attempts in one dialogue.
	Session any
}
