package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryStoreFactory(embedder Embedder) StoreFactory {
	return func(context.Context, string) (VectorStore, error) {
		return NewEmbeddingStore(embedder, NewMemoryIndex()), nil
	}
}

func TestRAGService_UploadThenAsk(t *testing.T) {
	splitter, err := NewCharacterSplitter(WithChunkSize(40), WithChunkOverlap(0))
	require.NoError(t, err)
	extractor := &fakeExtractor{pages: []string{
		"zebras zebras zebras graze\n",
		"quantum computing qubits\n",
		"apples and oranges",
	}}
	model := &fakeChatModel{answer: "Zebras graze."}
	svc := NewRAGService(extractor, splitter, memoryStoreFactory(letterEmbedder{}), model, 1)
	ctx := context.Background()

	status, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.Ready)

	answer, err := svc.Ask(ctx, "zebras?")
	require.NoError(t, err)
	assert.Equal(t, NoDocumentMessage, answer)

	msg, err := svc.UploadDocument(ctx, "/data/animals.pdf")
	require.NoError(t, err)
	assert.Equal(t, UploadSuccessMessage, msg)

	status, err = svc.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.Ready)
	assert.Equal(t, "animals.pdf", status.Document)
	assert.Equal(t, 3, status.Chunks)

	answer, err = svc.Ask(ctx, "what do zebras do")
	require.NoError(t, err)
	assert.Equal(t, "Zebras graze.", answer)
	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "zebras zebras zebras graze")
	assert.NotContains(t, model.prompts[0], "quantum")
}

func TestRAGService_FailedUploadKeepsAnswering(t *testing.T) {
	splitter, err := NewCharacterSplitter(WithChunkSize(100), WithChunkOverlap(10))
	require.NoError(t, err)
	extractor := &fakeExtractor{pages: []string{"the first document"}}
	model := &fakeChatModel{answer: "ok"}
	svc := NewRAGService(extractor, splitter, memoryStoreFactory(letterEmbedder{}), model, 3)
	ctx := context.Background()

	_, err = svc.UploadDocument(ctx, "first.pdf")
	require.NoError(t, err)

	extractor.err = errors.New("encrypted")
	_, err = svc.UploadDocument(ctx, "second.pdf")
	require.ErrorIs(t, err, ErrExtraction)

	status, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first.pdf", status.Document)

	answer, err := svc.Ask(ctx, "first?")
	require.NoError(t, err)
	assert.Equal(t, "ok", answer)
	assert.Contains(t, model.prompts[0], "the first document")
}

func TestRAGService_FailedAddKeepsPreviousMemoryStore(t *testing.T) {
	splitter, err := NewCharacterSplitter(WithChunkSize(100), WithChunkOverlap(10))
	require.NoError(t, err)
	extractor := &fakeExtractor{pages: []string{"the first document"}}
	model := &fakeChatModel{answer: "ok"}

	embedders := []Embedder{letterEmbedder{}, letterEmbedder{err: errors.New("embedding service down")}}
	opened := 0
	openStore := func(context.Context, string) (VectorStore, error) {
		store := NewEmbeddingStore(embedders[opened], NewMemoryIndex())
		opened++
		return store, nil
	}
	svc := NewRAGService(extractor, splitter, openStore, model, 3)
	ctx := context.Background()

	_, err = svc.UploadDocument(ctx, "first.pdf")
	require.NoError(t, err)

	extractor.pages = []string{"the second document"}
	_, err = svc.UploadDocument(ctx, "second.pdf")
	require.ErrorIs(t, err, ErrStorage)
	assert.Equal(t, 2, opened)

	status, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first.pdf", status.Document)
	assert.Equal(t, 1, status.Chunks)

	answer, err := svc.Ask(ctx, "first?")
	require.NoError(t, err)
	assert.Equal(t, "ok", answer)
	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "the first document")
	assert.NotContains(t, model.prompts[0], "second")
}

func TestEmbeddingStore_EmbedFailure(t *testing.T) {
	store := NewEmbeddingStore(letterEmbedder{err: errors.New("401")}, NewMemoryIndex())
	ctx := context.Background()

	assert.Error(t, store.Add(ctx, []string{"a"}))
	_, err := store.SimilaritySearch(ctx, "a", 1)
	assert.Error(t, err)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
