package services

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the ingestion and query pipelines. Callers match
// them with errors.Is; the wrapped cause stays reachable through errors.Unwrap.
var (
	ErrExtraction  = errors.New("could not extract text from document")
	ErrSplitConfig = errors.New("invalid chunk splitter configuration")
	ErrStorage     = errors.New("vector store operation failed")
	ErrRetrieval   = errors.New("similarity search failed")
	ErrGeneration  = errors.New("answer generation failed")
)

func wrapKind(kind error, op string, err error) error {
	return fmt.Errorf("%w: %s: %w", kind, op, err)
}
