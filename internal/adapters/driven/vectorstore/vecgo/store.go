// Package vecgo provides a VectorIndex adapter over the embedded vecgo
// vector database.
package vecgo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/hupe1980/vecgo"

	"github.com/oasisprop/concierge/internal/core/domain"
	"github.com/oasisprop/concierge/internal/core/ports/driven"
	"github.com/oasisprop/concierge/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorIndex = (*Store)(nil)

// chunkData is the payload stored alongside each vector.
type chunkData struct {
	ChunkID    string `json:"chunk_id"`
	DocumentID string `json:"document_id"`
	Content    string `json:"content"`
	Position   int    `json:"position"`
}

// Store is a vector index backed by an in-memory HNSW graph with
// snapshot persistence. vecgo has no delete-by-attribute operation, so
// the store keeps its own document id -> internal ids map, persisted as
// a sidecar file next to the snapshot.
type Store struct {
	mu        sync.Mutex
	db        *vecgo.Vecgo[chunkData]
	dimension int
	path      string // snapshot path, empty for memory-only

	sources map[string][]uint64
}

// Config holds configuration for the vector store.
type Config struct {
	// Dimension is the embedding vector size (required). Must match the
	// embedding service.
	Dimension int

	// Path is the snapshot file location. Empty disables persistence.
	Path string
}

// New opens a vector store, loading an existing snapshot when present.
func New(cfg Config) (*Store, error) {
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("vecgo store: dimension must be positive")
	}

	s := &Store{
		dimension: cfg.Dimension,
		path:      cfg.Path,
		sources:   make(map[string][]uint64),
	}

	if cfg.Path != "" {
		if _, err := os.Stat(cfg.Path); err == nil {
			if err := s.load(); err != nil {
				return nil, err
			}
			return s, nil
		}
	}

	db, err := vecgo.HNSW[chunkData](cfg.Dimension).Cosine().Build()
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	s.db = db
	return s, nil
}

// Insert adds embedded chunks to the index.
func (s *Store) Insert(ctx context.Context, chunks []domain.EmbeddedChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chunk := range chunks {
		id, err := s.db.Insert(ctx, vecgo.VectorWithData[chunkData]{
			Vector: chunk.Vector,
			Data: chunkData{
				ChunkID:    chunk.ID,
				DocumentID: chunk.DocumentID,
				Content:    chunk.Content,
				Position:   chunk.Position,
			},
		})
		if err != nil {
			return fmt.Errorf("insert chunk %s: %w", chunk.ID, err)
		}
		s.sources[chunk.DocumentID] = append(s.sources[chunk.DocumentID], id)
	}
	return nil
}

// DeleteBySource removes every chunk belonging to a document and
// returns how many were removed.
func (s *Store) DeleteBySource(ctx context.Context, documentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.sources[documentID]
	removed := 0
	for _, id := range ids {
		if err := s.db.Delete(ctx, id); err != nil {
			// A missing id means it was already gone; not worth failing
			// the whole replacement over.
			logger.Debug("delete vector %d for document %s: %v", id, documentID, err)
			continue
		}
		removed++
	}
	delete(s.sources, documentID)
	return removed, nil
}

// Query returns the k chunks nearest to the query vector.
func (s *Store) Query(ctx context.Context, vector []float32, k int) ([]domain.RetrievedChunk, error) {
	if k < 1 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	hits, err := s.db.KNNSearch(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}

	chunks := make([]domain.RetrievedChunk, 0, len(hits))
	for _, hit := range hits {
		chunks = append(chunks, domain.RetrievedChunk{
			Chunk: domain.Chunk{
				ID:         hit.Data.ChunkID,
				DocumentID: hit.Data.DocumentID,
				Content:    hit.Data.Content,
				Position:   hit.Data.Position,
			},
			// Cosine distance mapped to (0, 1], higher is closer.
			Score: 1 / (1 + float64(hit.Distance)),
		})
	}
	return chunks, nil
}

// Persist writes the index snapshot and the source map sidecar.
func (s *Store) Persist(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return nil
	}

	if err := s.db.SaveToFile(s.path); err != nil {
		return fmt.Errorf("save index snapshot: %w", err)
	}

	data, err := json.Marshal(s.sources)
	if err != nil {
		return fmt.Errorf("marshal source map: %w", err)
	}

	tmp := s.sourcesPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write source map: %w", err)
	}
	if err := os.Rename(tmp, s.sourcesPath()); err != nil {
		return fmt.Errorf("replace source map: %w", err)
	}
	return nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// load restores the snapshot and its sidecar. A missing or unreadable
// sidecar forces a fresh index, since orphaned vectors could never be
// replaced.
func (s *Store) load() error {
	db, err := vecgo.NewFromFile[chunkData](s.path)
	if err != nil {
		return fmt.Errorf("load index snapshot: %w", err)
	}

	data, err := os.ReadFile(s.sourcesPath())
	if err != nil {
		_ = db.Close()
		if fresh, buildErr := vecgo.HNSW[chunkData](s.dimension).Cosine().Build(); buildErr == nil {
			logger.Warn("source map missing for %s, starting with an empty index: %v", s.path, err)
			s.db = fresh
			return nil
		}
		return fmt.Errorf("read source map: %w", err)
	}
	if err := json.Unmarshal(data, &s.sources); err != nil {
		_ = db.Close()
		return fmt.Errorf("decode source map: %w", err)
	}

	s.db = db
	return nil
}

func (s *Store) sourcesPath() string {
	return s.path + ".sources.json"
}
