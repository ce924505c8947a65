package services

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github/itish2003/pdfqa/logger"
)

// NoDocumentMessage is the answer given before any document has been uploaded.
const NoDocumentMessage = "Please upload a PDF first."

// EmptyQueryMessage is the answer given to a blank question.
const EmptyQueryMessage = "Please enter a question."

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 3

// QueryPipeline answers questions against the session's current document.
type QueryPipeline struct {
	session *Session
	model   ChatModel
	topK    int
}

// NewQueryPipeline wires the collaborators of a query. A non-positive topK
// falls back to DefaultTopK.
func NewQueryPipeline(session *Session, model ChatModel, topK int) *QueryPipeline {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &QueryPipeline{session: session, model: model, topK: topK}
}

// Answer retrieves context for query and returns the model's response verbatim.
// Without a document, or with a blank query, it returns a guidance message
// instead of calling the model.
func (q *QueryPipeline) Answer(ctx context.Context, query string) (string, error) {
	store, document := q.session.Store()
	if store == nil {
		return NoDocumentMessage, nil
	}
	if strings.TrimSpace(query) == "" {
		return EmptyQueryMessage, nil
	}

	ctx, span := otel.Tracer("pdfqa/services").Start(ctx, "answer")
	defer span.End()
	span.SetAttributes(attribute.String("document.name", document), attribute.Int("query.top_k", q.topK))

	chunks, err := store.SimilaritySearch(ctx, query, q.topK)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "retrieval failed")
		return "", wrapKind(ErrRetrieval, "similarity search", err)
	}
	logger.Debug("retrieved context", "document", document, "chunks", len(chunks))

	answer, err := q.model.Complete(ctx, BuildPrompt(chunks, query))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		return "", wrapKind(ErrGeneration, "complete", err)
	}
	return answer, nil
}
