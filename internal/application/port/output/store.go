package output

import (
	"context"

	"docforge/internal/domain/entity"
)

// DocumentStorePort persists finished documents and the wiki manifest.
type DocumentStorePort interface {
	SaveDocument(ctx context.Context, doc entity.GeneratedDocument) error
	SaveStructure(ctx context.Context, structure entity.WikiStructure) error
}
