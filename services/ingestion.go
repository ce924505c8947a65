package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github/itish2003/pdfqa/logger"
)

// UploadSuccessMessage is returned after a document has been indexed.
const UploadSuccessMessage = "PDF uploaded and processed. You can now ask questions."

// IngestionPipeline turns one PDF into a freshly populated vector store and
// installs it in the session.
//
// The swap is all-or-nothing only when every store the factory opens is
// independent, as with the memory backend. Chroma stores share one named
// collection, so a failed Add after Reset leaves that collection empty while
// the session still points at the previous store.
type IngestionPipeline struct {
	extractor TextExtractor
	splitter  TextSplitter
	openStore StoreFactory
	session   *Session
}

// NewIngestionPipeline wires the collaborators of an ingestion.
func NewIngestionPipeline(extractor TextExtractor, splitter TextSplitter, openStore StoreFactory, session *Session) *IngestionPipeline {
	return &IngestionPipeline{
		extractor: extractor,
		splitter:  splitter,
		openStore: openStore,
		session:   session,
	}
}

// Ingest indexes the document at path. The session keeps its previous store
// unless every step succeeds; see the type comment for what that store still
// holds on a shared backend.
func (p *IngestionPipeline) Ingest(ctx context.Context, path string) (string, error) {
	ctx, span := otel.Tracer("pdfqa/services").Start(ctx, "ingest")
	defer span.End()

	name := filepath.Base(path)
	span.SetAttributes(attribute.String("document.name", name))

	chunks, err := p.prepare(ctx, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "prepare failed")
		return "", err
	}
	span.SetAttributes(attribute.Int("document.chunks", len(chunks)))

	store, err := p.openStore(ctx, name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open store failed")
		return "", wrapKind(ErrStorage, "open store", err)
	}
	if err := store.Reset(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reset failed")
		return "", wrapKind(ErrStorage, "reset", err)
	}
	if err := store.Add(ctx, chunks); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "add failed")
		return "", wrapKind(ErrStorage, "add chunks", err)
	}

	p.session.Replace(store, name)
	logger.Info("document ingested", "document", name, "chunks", len(chunks))
	return UploadSuccessMessage, nil
}

// prepare extracts, normalizes and splits the document.
func (p *IngestionPipeline) prepare(ctx context.Context, path string) ([]string, error) {
	pages, err := p.extractor.ExtractPages(ctx, path)
	if err != nil {
		if errors.Is(err, ErrExtraction) {
			return nil, err
		}
		return nil, wrapKind(ErrExtraction, "extract pages", err)
	}

	var raw strings.Builder
	for _, page := range pages {
		if page == "" {
			continue
		}
		raw.WriteString(page)
	}

	text := Normalize(raw.String())
	chunks, err := p.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSplitConfig, err)
	}
	logger.Debug("document split", "pages", len(pages), "characters", len(text), "chunks", len(chunks))
	return chunks, nil
}
