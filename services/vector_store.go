package services

import (
	"context"
	"fmt"
)

// VectorStore is the collaborator the pipelines talk to: it owns embedding
// and indexing so callers deal only in text.
type VectorStore interface {
	Reset(ctx context.Context) error
	Add(ctx context.Context, chunks []string) error
	SimilaritySearch(ctx context.Context, query string, k int) ([]ScoredChunk, error)
}

// StoreFactory opens the vector store a new document will be written to.
// source names the document being ingested.
type StoreFactory func(ctx context.Context, source string) (VectorStore, error)

// EmbeddingStore embeds text with an Embedder and keeps it in a VectorIndex.
type EmbeddingStore struct {
	embedder Embedder
	index    VectorIndex
}

// NewEmbeddingStore composes an embedder and an index.
func NewEmbeddingStore(embedder Embedder, index VectorIndex) *EmbeddingStore {
	return &EmbeddingStore{embedder: embedder, index: index}
}

// Reset implements VectorStore.
func (s *EmbeddingStore) Reset(ctx context.Context) error {
	return s.index.Reset(ctx)
}

// Add implements VectorStore.
func (s *EmbeddingStore) Add(ctx context.Context, chunks []string) error {
	if len(chunks) == 0 {
		return nil
	}
	vectors, err := s.embedder.EmbedDocuments(ctx, chunks)
	if err != nil {
		return fmt.Errorf("could not embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}
	return s.index.Add(ctx, chunks, vectors)
}

// SimilaritySearch implements VectorStore.
func (s *EmbeddingStore) SimilaritySearch(ctx context.Context, query string, k int) ([]ScoredChunk, error) {
	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query text: %w", err)
	}
	return s.index.Search(ctx, vector, k)
}

// Count reports how many chunks the underlying index holds.
func (s *EmbeddingStore) Count(ctx context.Context) (int, error) {
	return s.index.Count(ctx)
}
