package driven

import (
	"context"

	"github.com/oasisprop/concierge/internal/core/domain"
)

// VectorIndex stores embedded chunks and supports similarity search.
//
// The reindex pipeline replaces a document's chunks with a
// DeleteBySource + Insert + Persist sequence. Implementations must make
// Persist safe to call concurrently from reindex runs for different
// documents; the per-document ordering is the caller's responsibility.
type VectorIndex interface {
	// Insert adds embedded chunks to the index.
	Insert(ctx context.Context, chunks []domain.EmbeddedChunk) error

	// DeleteBySource removes every chunk whose source document is
	// documentID. Returns the number of chunks removed; removing zero
	// chunks is not an error.
	DeleteBySource(ctx context.Context, documentID string) (int, error)

	// Query returns the k chunks nearest to the query vector, best first.
	Query(ctx context.Context, vector []float32, k int) ([]domain.RetrievedChunk, error)

	// Persist durably saves the index.
	Persist(ctx context.Context) error

	// Close releases resources.
	Close() error
}
