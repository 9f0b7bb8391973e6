package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"docforge/internal/application/port/output"
	"docforge/internal/domain/entity"
)

var _ output.DocumentStorePort = (*FileStore)(nil)

// FileStore persists generated documents under an output directory:
// pages/<id>.md, README.md, and structure.json. Writes are atomic
// (temp file then rename) so a crashed run never leaves a half-written
// document behind.
type FileStore struct {
	outDir string
	logger output.LoggerPort
}

func NewFileStore(outDir string, logger output.LoggerPort) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(outDir, "pages"), 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &FileStore{outDir: outDir, logger: logger}, nil
}

func (s *FileStore) SaveDocument(ctx context.Context, doc entity.GeneratedDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Document ids originate from model output and must never carry path
	// elements: a traversal id would place the file outside outDir.
	if doc.ID == "" || doc.ID != filepath.Base(doc.ID) || doc.ID == "." || doc.ID == ".." {
		return fmt.Errorf("unsafe document id %q", doc.ID)
	}

	var path string
	switch doc.Kind {
	case entity.AgentTypeReadme:
		path = filepath.Join(s.outDir, "README.md")
	default:
		path = filepath.Join(s.outDir, "pages", doc.ID+".md")
	}

	if err := atomicWrite(path, []byte(doc.Content)); err != nil {
		return fmt.Errorf("save document %s: %w", doc.ID, err)
	}

	s.logger.Info("Document saved",
		"id", doc.ID,
		"kind", doc.Kind,
		"path", path,
		"passed_gate", doc.Result != nil && doc.Result.PassedQualityGate,
	)
	return nil
}

func (s *FileStore) SaveStructure(ctx context.Context, structure entity.WikiStructure) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(structure, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal structure: %w", err)
	}

	path := filepath.Join(s.outDir, "structure.json")
	if err := atomicWrite(path, data); err != nil {
		return fmt.Errorf("save structure: %w", err)
	}

	s.logger.Info("Structure saved", "path", path, "pages", len(structure.Pages))
	return nil
}

func atomicWrite(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".docforge-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
