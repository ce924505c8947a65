package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswer_NoDocument(t *testing.T) {
	model := &fakeChatModel{answer: "unused"}
	q := NewQueryPipeline(NewSession(), model, 3)

	answer, err := q.Answer(context.Background(), "what is this?")
	require.NoError(t, err)
	assert.Equal(t, NoDocumentMessage, answer)
	assert.Empty(t, model.prompts)
}

func TestAnswer_BlankQuery(t *testing.T) {
	model := &fakeChatModel{answer: "unused"}

	answer, err := NewQueryPipeline(NewSession(), model, 3).Answer(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, NoDocumentMessage, answer)

	store := &fakeStore{}
	session := NewSession()
	session.Replace(store, "report.pdf")
	q := NewQueryPipeline(session, model, 3)
	for _, query := range []string{"", "   ", "\n\t"} {
		answer, err := q.Answer(context.Background(), query)
		require.NoError(t, err)
		assert.Equal(t, EmptyQueryMessage, answer)
	}
	assert.Empty(t, model.prompts)
	assert.Zero(t, store.lastK)
}

func TestAnswer_Success(t *testing.T) {
	store := &fakeStore{results: []ScoredChunk{
		{Text: "Revenue grew 12%.", Score: 0.9},
		{Text: "Costs were flat.", Score: 0.7},
	}}
	session := NewSession()
	session.Replace(store, "report.pdf")
	model := &fakeChatModel{answer: "  Revenue grew by 12%.\n"}
	q := NewQueryPipeline(session, model, 2)

	answer, err := q.Answer(context.Background(), "How did revenue change?")
	require.NoError(t, err)
	assert.Equal(t, "  Revenue grew by 12%.\n", answer)
	assert.Equal(t, 2, store.lastK)

	require.Len(t, model.prompts, 1)
	assert.Equal(t,
		"Context:\nRevenue grew 12%.\nCosts were flat.\n\nQuestion: How did revenue change?\nAnswer:",
		model.prompts[0])
}

func TestAnswer_DefaultTopK(t *testing.T) {
	store := &fakeStore{}
	session := NewSession()
	session.Replace(store, "doc.pdf")
	q := NewQueryPipeline(session, &fakeChatModel{}, 0)

	_, err := q.Answer(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, DefaultTopK, store.lastK)
}

func TestAnswer_RetrievalFailure(t *testing.T) {
	cause := errors.New("collection not found")
	session := NewSession()
	session.Replace(&fakeStore{searchErr: cause}, "doc.pdf")
	model := &fakeChatModel{}
	q := NewQueryPipeline(session, model, 3)

	_, err := q.Answer(context.Background(), "q")
	assert.ErrorIs(t, err, ErrRetrieval)
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, model.prompts)
}

func TestAnswer_GenerationFailure(t *testing.T) {
	cause := errors.New("quota exceeded")
	session := NewSession()
	session.Replace(&fakeStore{results: []ScoredChunk{{Text: "x"}}}, "doc.pdf")
	q := NewQueryPipeline(session, &fakeChatModel{err: cause}, 3)

	_, err := q.Answer(context.Background(), "q")
	assert.ErrorIs(t, err, ErrGeneration)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrRetrieval)
}

func TestBuildPrompt(t *testing.T) {
	assert.Equal(t, "Context:\n\n\nQuestion: q\nAnswer:", BuildPrompt(nil, "q"))
	assert.Equal(t, "Context:\na\nb\n\nQuestion: why?\nAnswer:",
		BuildPrompt([]ScoredChunk{{Text: "a"}, {Text: "b"}}, "why?"))
}
