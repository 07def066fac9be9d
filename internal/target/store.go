package target

import "context"

// Store is the capability surface of the document store the engine syncs
// into. Implementations are stateless over the store's API; every call is
// independently authorized. The engine, not the store, decides which
// failures are soft.
type Store interface {
	// FindByExternalID resolves a document by its external-id attribute,
	// scoped to the collection. Returns "" when absent.
	FindByExternalID(ctx context.Context, collectionID, externalID string) (string, error)
	GetAttributes(ctx context.Context, docID string) (map[string]string, error)
	SetAttributes(ctx context.Context, docID string, attrs map[string]string) error
	CreateDocument(ctx context.Context, collectionID, path, body string) (string, error)
	DeleteDocument(ctx context.Context, docID string) error
	// UploadAsset stores a binary under the collection's asset directory
	// and returns the store's canonical relative reference.
	UploadAsset(ctx context.Context, collectionID, dir, name, contentType string, data []byte) (string, error)
}
