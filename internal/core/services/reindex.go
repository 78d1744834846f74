package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/oasisprop/concierge/internal/core/domain"
	"github.com/oasisprop/concierge/internal/core/ports/driven"
	"github.com/oasisprop/concierge/internal/core/ports/driving"
	"github.com/oasisprop/concierge/internal/logger"
	"github.com/oasisprop/concierge/internal/postprocessors/chunker"
)

// Ensure ReindexService implements the interface.
var _ driving.ReindexTrigger = (*ReindexService)(nil)

// ReindexService keeps the vector index synchronized with externally
// edited documents.
//
// A reindex run is fetch → chunk → embed → delete-then-insert → persist.
// All fallible external calls (fetch, embed) happen before the first
// index mutation, so a failed run leaves the index exactly as it was.
// Runs for the same document id are serialized with a per-id lock held
// across the whole delete+insert+persist sequence; runs for different
// ids may execute concurrently in the worker pool.
type ReindexService struct {
	fetcher  driven.ContentFetcher
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	splitter *chunker.Processor
	pool     *WorkerPool

	mu       sync.Mutex
	docLocks map[string]*sync.Mutex
}

// NewReindexService creates a reindex service backed by the given pool.
func NewReindexService(
	fetcher driven.ContentFetcher,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	splitter *chunker.Processor,
	pool *WorkerPool,
) *ReindexService {
	return &ReindexService{
		fetcher:  fetcher,
		embedder: embedder,
		index:    index,
		splitter: splitter,
		pool:     pool,
		docLocks: make(map[string]*sync.Mutex),
	}
}

// Submit queues an asynchronous reindex of the document. The caller is
// acknowledged before any fetch or embedding work begins. Saturation is
// reported but deliberately not fatal: sync notifications are
// fire-and-forget and a dropped one is only logged.
func (s *ReindexService) Submit(_ context.Context, documentID string) error {
	err := s.pool.TrySubmit(func() {
		// The triggering HTTP request finished long ago; background work
		// runs on its own context.
		if err := s.Reindex(context.Background(), documentID); err != nil {
			logger.Error("reindex of document %s failed: %v", documentID, err)
		}
	})
	if err != nil {
		logger.Warn("reindex job for document %s not queued: %v", documentID, err)
		return err
	}

	logger.Info("reindex job queued for document %s", documentID)
	return nil
}

// Reindex synchronously replaces the indexed chunks of a document with
// chunks derived from its latest fetched content. After a successful
// run the index contains exactly the chunk set of the latest content
// and nothing from any earlier version.
func (s *ReindexService) Reindex(ctx context.Context, documentID string) error {
	if s.embedder == nil {
		return domain.ErrEmbeddingUnavailable
	}
	if s.index == nil {
		return domain.ErrVectorIndexUnavailable
	}

	lock := s.lockFor(documentID)
	lock.Lock()
	defer lock.Unlock()

	// 1. Determine document kind
	kind, err := s.fetcher.DetectKind(ctx, documentID)
	if err != nil {
		return fmt.Errorf("detect kind: %w", err)
	}
	if kind == domain.KindUnknown {
		logger.Warn("document %s has an unsupported kind, skipping", documentID)
		return nil
	}

	// 2. Fetch current text
	text, err := s.fetcher.FetchText(ctx, documentID, kind)
	if err != nil {
		return fmt.Errorf("fetch text: %w", err)
	}

	doc := domain.Document{ID: documentID, Kind: kind, Content: text}

	// 3. Chunk and embed before touching the index
	chunks := s.splitter.Split(doc)
	embedded, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}

	// 4. Delete-then-insert replacement, then persist. Deletion must
	// finish before insertion starts so a concurrent run for the same id
	// (already excluded by the per-id lock) can never leave duplicates.
	removed, err := s.index.DeleteBySource(ctx, documentID)
	if err != nil {
		return fmt.Errorf("delete stale chunks: %w", err)
	}
	if removed > 0 {
		logger.Debug("removed %d stale chunks for document %s", removed, documentID)
	}

	if len(embedded) > 0 {
		if err := s.index.Insert(ctx, embedded); err != nil {
			return fmt.Errorf("insert chunks: %w", err)
		}
	} else {
		logger.Warn("document %s has no content, index entries cleared", documentID)
	}

	if err := s.index.Persist(ctx); err != nil {
		return fmt.Errorf("persist index: %w", err)
	}

	logger.Info("reindexed document %s: %d chunks", documentID, len(embedded))
	return nil
}

// embedChunks computes an embedding per chunk in one batch call.
func (s *ReindexService) embedChunks(ctx context.Context, chunks []domain.Chunk) ([]domain.EmbeddedChunk, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedding count mismatch: %d texts, %d vectors", len(chunks), len(vectors))
	}

	embedded := make([]domain.EmbeddedChunk, len(chunks))
	for i, c := range chunks {
		embedded[i] = domain.EmbeddedChunk{Chunk: c, Vector: vectors[i]}
	}
	return embedded, nil
}

// lockFor returns the serialization lock for a document id.
// Locks are never removed; the set of synced documents is small.
func (s *ReindexService) lockFor(documentID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.docLocks[documentID]
	if !ok {
		lock = &sync.Mutex{}
		s.docLocks[documentID] = lock
	}
	return lock
}
