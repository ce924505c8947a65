package services

import (
	"context"
	"sync"

	"github/itish2003/pdfqa/logger"
	"github/itish2003/pdfqa/models"
)

// RAGService is the two-action surface of the application: index a document,
// then ask questions about it.
type RAGService interface {
	UploadDocument(c context.Context, path string) (string, error)
	Ask(c context.Context, query string) (string, error)
	Status(c context.Context) (*models.StatusResponse, error)
}

// chunkCounter is implemented by stores that can report their size.
type chunkCounter interface {
	Count(ctx context.Context) (int, error)
}

// ragServiceImpl owns the session and both pipelines.
type ragServiceImpl struct {
	session   *Session
	ingestion *IngestionPipeline
	query     *QueryPipeline
	mu        sync.Mutex
}

// NewRAGService creates a RAG service around a fresh session.
func NewRAGService(extractor TextExtractor, splitter TextSplitter, openStore StoreFactory, model ChatModel, topK int) RAGService {
	session := NewSession()
	return &ragServiceImpl{
		session:   session,
		ingestion: NewIngestionPipeline(extractor, splitter, openStore, session),
		query:     NewQueryPipeline(session, model, topK),
	}
}

// UploadDocument implements RAGService. Ingestions run one at a time.
func (r *ragServiceImpl) UploadDocument(c context.Context, path string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	logger.Info("ingesting document", "path", path)
	status, err := r.ingestion.Ingest(c, path)
	if err != nil {
		logger.Error("ingestion failed", "path", path, "error", err)
		return "", err
	}
	return status, nil
}

// Ask implements RAGService.
func (r *ragServiceImpl) Ask(c context.Context, query string) (string, error) {
	logger.Info("answering question", "query", query)
	answer, err := r.query.Answer(c, query)
	if err != nil {
		logger.Error("query failed", "query", query, "error", err)
		return "", err
	}
	return answer, nil
}

// Status implements RAGService.
func (r *ragServiceImpl) Status(c context.Context) (*models.StatusResponse, error) {
	store, document := r.session.Store()
	resp := &models.StatusResponse{Document: document, Ready: store != nil}
	if counter, ok := store.(chunkCounter); ok {
		count, err := counter.Count(c)
		if err != nil {
			return nil, wrapKind(ErrStorage, "count", err)
		}
		resp.Chunks = count
	}
	return resp, nil
}
