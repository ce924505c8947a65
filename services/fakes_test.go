package services

import (
	"context"
	"strings"
	"sync"
)

type fakeExtractor struct {
	pages []string
	err   error
}

func (f *fakeExtractor) ExtractPages(_ context.Context, _ string) ([]string, error) {
	return f.pages, f.err
}

type fakeStore struct {
	mu        sync.Mutex
	chunks    []string
	results   []ScoredChunk
	resetErr  error
	addErr    error
	searchErr error
	lastK     int
	resets    int
}

func (f *fakeStore) Reset(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	if f.resetErr != nil {
		return f.resetErr
	}
	f.chunks = nil
	return nil
}

func (f *fakeStore) Add(_ context.Context, chunks []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	f.chunks = append(f.chunks, chunks...)
	return nil
}

func (f *fakeStore) SimilaritySearch(_ context.Context, _ string, k int) ([]ScoredChunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastK = k
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.results, nil
}

// storeFactory hands out the given stores in order.
func storeFactory(stores ...*fakeStore) StoreFactory {
	i := 0
	return func(_ context.Context, _ string) (VectorStore, error) {
		s := stores[i]
		i++
		return s, nil
	}
}

type fakeChatModel struct {
	answer  string
	err     error
	prompts []string
}

func (f *fakeChatModel) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

// letterEmbedder maps text to its letter histogram, which is enough for
// cosine similarity to prefer chunks sharing words with the query.
type letterEmbedder struct {
	err error
}

func (e letterEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = e.EmbedQuery(ctx, t)
	}
	return out, nil
}

func (e letterEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	vec := make([]float32, 26)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			vec[r-'a']++
		}
	}
	return vec, nil
}
