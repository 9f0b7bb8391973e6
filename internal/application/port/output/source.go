package output

import "context"

// SourceReaderPort exposes the target repository to the pipeline: a file
// tree for structure extraction and token-budgeted reference context for
// page writing and critique.
type SourceReaderPort interface {
	FileTree(ctx context.Context, repoPath string) (string, error)
	BuildReference(ctx context.Context, repoPath string, files []string) (string, error)
}
