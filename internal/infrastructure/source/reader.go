package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"docforge/internal/application/port/output"

	"github.com/pkoukk/tiktoken-go"
	"github.com/tmc/langchaingo/textsplitter"
)

var _ output.SourceReaderPort = (*Reader)(nil)

const (
	defaultTokenBudget  = 24000
	defaultMaxFileBytes = 256 * 1024

	chunkSize    = 2000
	chunkOverlap = 200

	encodingName = "cl100k_base"
)

var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"__pycache__":  true,
}

// Reader exposes a local repository to the pipeline: a file tree for
// structure extraction and token-budgeted reference context assembled from
// the files a page plan names.
type Reader struct {
	logger       output.LoggerPort
	splitter     textsplitter.RecursiveCharacter
	encoder      *tiktoken.Tiktoken
	tokenBudget  int
	maxFileBytes int64
}

type Config struct {
	// TokenBudget caps the reference context size per document. Zero means
	// the default.
	TokenBudget int

	// MaxFileBytes skips files larger than this. Zero means the default.
	MaxFileBytes int64
}

func NewReader(cfg Config, logger output.LoggerPort) (*Reader, error) {
	encoder, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("load %s encoding: %w", encodingName, err)
	}

	if cfg.TokenBudget <= 0 {
		cfg.TokenBudget = defaultTokenBudget
	}
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = defaultMaxFileBytes
	}

	return &Reader{
		logger: logger,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
		encoder:      encoder,
		tokenBudget:  cfg.TokenBudget,
		maxFileBytes: cfg.MaxFileBytes,
	}, nil
}

// FileTree lists every non-skipped file under repoPath, one relative path
// per line, sorted for determinism.
func (r *Reader) FileTree(ctx context.Context, repoPath string) (string, error) {
	var paths []string

	err := filepath.WalkDir(repoPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		name := d.Name()
		if d.IsDir() {
			if skippedDirs[name] || (strings.HasPrefix(name, ".") && path != repoPath) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}

		rel, err := filepath.Rel(repoPath, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walk %s: %w", repoPath, err)
	}

	sort.Strings(paths)
	return strings.Join(paths, "\n"), nil
}

// BuildReference concatenates the named files into reference context,
// splitting oversized files into chunks and stopping once the token budget
// is spent. Unreadable or binary files are skipped with a warning rather
// than failing the document.
func (r *Reader) BuildReference(ctx context.Context, repoPath string, files []string) (string, error) {
	var b strings.Builder
	remaining := r.tokenBudget

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if remaining <= 0 {
			break
		}

		content, ok := r.readFile(repoPath, file)
		if !ok {
			continue
		}

		chunks, err := r.splitter.SplitText(content)
		if err != nil {
			r.logger.Warn("Failed to split file, using raw content", "file", file, "error", err)
			chunks = []string{content}
		}

		for i, chunk := range chunks {
			section := fmt.Sprintf("--- %s (part %d/%d) ---\n%s\n\n", file, i+1, len(chunks), chunk)
			cost := len(r.encoder.Encode(section, nil, nil))
			if cost > remaining {
				remaining = 0
				break
			}
			b.WriteString(section)
			remaining -= cost
		}
	}

	if remaining == 0 {
		r.logger.Debug("Reference context truncated at token budget", "budget", r.tokenBudget)
	}

	return strings.TrimRight(b.String(), "\n"), nil
}

func (r *Reader) readFile(repoPath, file string) (string, bool) {
	path := filepath.Join(repoPath, filepath.FromSlash(file))

	info, err := os.Stat(path)
	if err != nil {
		r.logger.Warn("Skipping unreadable reference file", "file", file, "error", err)
		return "", false
	}
	if info.Size() > r.maxFileBytes {
		r.logger.Warn("Skipping oversized reference file", "file", file, "size", info.Size())
		return "", false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		r.logger.Warn("Skipping unreadable reference file", "file", file, "error", err)
		return "", false
	}
	if !utf8.Valid(data) {
		r.logger.Warn("Skipping binary reference file", "file", file)
		return "", false
	}

	return string(data), true
}
