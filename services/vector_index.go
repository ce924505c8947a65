package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"github.com/google/uuid"

	"github/itish2003/pdfqa/logger"
)

// ScoredChunk is a chunk returned by a similarity search. Higher scores are
// more similar.
type ScoredChunk struct {
	Text  string
	Score float64
}

// VectorIndex persists (text, vector) pairs and answers nearest-neighbour
// queries. Ranking is entirely the index's concern.
type VectorIndex interface {
	Reset(ctx context.Context) error
	Add(ctx context.Context, texts []string, vectors [][]float32) error
	Search(ctx context.Context, vector []float32, k int) ([]ScoredChunk, error)
	Count(ctx context.Context) (int, error)
}

// MemoryIndex is a brute-force cosine index held in process memory.
type MemoryIndex struct {
	mu      sync.RWMutex
	texts   []string
	vectors [][]float32
}

// NewMemoryIndex returns an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

// Reset drops every stored entry.
func (m *MemoryIndex) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = nil
	m.vectors = nil
	return nil
}

// Add appends entries to the index.
func (m *MemoryIndex) Add(_ context.Context, texts []string, vectors [][]float32) error {
	if len(texts) != len(vectors) {
		return errors.New("texts and vectors length mismatch")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, texts...)
	m.vectors = append(m.vectors, vectors...)
	return nil
}

// Search returns the k entries with the highest cosine similarity to vector.
func (m *MemoryIndex) Search(_ context.Context, vector []float32, k int) ([]ScoredChunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]ScoredChunk, len(m.texts))
	for i := range m.texts {
		results[i] = ScoredChunk{Text: m.texts[i], Score: cosine(m.vectors[i], vector)}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Count returns the number of stored entries.
func (m *MemoryIndex) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.texts), nil
}

func cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// ChromaIndex stores chunks in a Chroma collection.
type ChromaIndex struct {
	client     chromago.Client
	name       string
	source     string
	embedder   Embedder
	collection chromago.Collection
}

// NewChromaIndex returns an index over the named collection, creating it if
// needed. source is recorded in each entry's metadata. embedder is attached
// to the collection so the client never falls back to its bundled model.
func NewChromaIndex(ctx context.Context, client chromago.Client, name, source string, embedder Embedder) (*ChromaIndex, error) {
	idx := &ChromaIndex{client: client, name: name, source: source, embedder: embedder}
	if err := idx.open(ctx); err != nil {
		return nil, err
	}
	return idx, nil
}

func (c *ChromaIndex) open(ctx context.Context) error {
	collection, err := c.client.GetOrCreateCollection(
		ctx,
		c.name,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("description", "PDF question answering chunks"),
				chromago.NewStringAttribute("created_by", "pdfqa"),
			),
		),
		chromago.WithEmbeddingFunctionCreate(chromaEmbeddingFunction{embedder: c.embedder}),
	)
	if err != nil {
		return fmt.Errorf("failed to get or create collection %q: %w", c.name, err)
	}
	c.collection = collection
	return nil
}

// Reset deletes the collection and recreates it empty.
func (c *ChromaIndex) Reset(ctx context.Context) error {
	logger.Info("resetting vector collection", "collection", c.name)
	if err := c.client.DeleteCollection(ctx, c.name); err != nil {
		return fmt.Errorf("failed to delete collection %q: %w", c.name, err)
	}
	return c.open(ctx)
}

// Add inserts every chunk with a fresh ID.
func (c *ChromaIndex) Add(ctx context.Context, texts []string, vectors [][]float32) error {
	if len(texts) != len(vectors) {
		return errors.New("texts and vectors length mismatch")
	}
	if len(texts) == 0 {
		return nil
	}

	ids := make([]chromago.DocumentID, len(texts))
	embs := make([]embeddings.Embedding, len(texts))
	metas := make([]chromago.DocumentMetadata, len(texts))
	for i := range texts {
		ids[i] = chromago.DocumentID(fmt.Sprintf("%s-chunk%d", uuid.New().String(), i))
		embs[i] = embeddings.NewEmbeddingFromFloat32(vectors[i])
		metas[i] = chromago.NewDocumentMetadata(
			chromago.NewStringAttribute("source_file", c.source),
			chromago.NewIntAttribute("chunk_num", int64(i)),
		)
	}

	err := c.collection.Add(ctx,
		chromago.WithIDs(ids...),
		chromago.WithTexts(texts...),
		chromago.WithEmbeddings(embs...),
		chromago.WithMetadatas(metas...),
	)
	if err != nil {
		return fmt.Errorf("failed to add %d chunks to chromadb: %w", len(texts), err)
	}
	return nil
}

// Search queries the collection with a precomputed embedding.
func (c *ChromaIndex) Search(ctx context.Context, vector []float32, k int) ([]ScoredChunk, error) {
	results, err := c.collection.Query(
		ctx,
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chromago.WithNResults(k),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chromadb: %w", err)
	}

	documentGroups := results.GetDocumentsGroups()
	distanceGroups := results.GetDistancesGroups()
	if len(documentGroups) == 0 {
		return nil, nil
	}

	chunks := make([]ScoredChunk, 0, len(documentGroups[0]))
	for i, doc := range documentGroups[0] {
		var score float64
		if len(distanceGroups) > 0 && i < len(distanceGroups[0]) {
			// Chroma reports distances; flip the sign so higher means closer.
			score = -float64(distanceGroups[0][i])
		}
		chunks = append(chunks, ScoredChunk{Text: doc.ContentString(), Score: score})
	}
	return chunks, nil
}

// Count returns the number of entries in the collection.
func (c *ChromaIndex) Count(ctx context.Context) (int, error) {
	count, err := c.collection.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count items in collection: %w", err)
	}
	return int(count), nil
}

// chromaEmbeddingFunction exposes an Embedder as a chroma-go embedding
// function.
type chromaEmbeddingFunction struct {
	embedder Embedder
}

func (f chromaEmbeddingFunction) EmbedDocuments(ctx context.Context, texts []string) ([]embeddings.Embedding, error) {
	vectors, err := f.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}
	return embeddings.NewEmbeddingsFromFloat32(vectors)
}

func (f chromaEmbeddingFunction) EmbedQuery(ctx context.Context, text string) (embeddings.Embedding, error) {
	vector, err := f.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	return embeddings.NewEmbeddingFromFloat32(vector), nil
}
