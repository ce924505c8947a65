package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	"github/itish2003/pdfqa/logger"
)

// TextExtractor returns the text of every page of a document, in page order.
// Pages without extractable text come back as empty strings.
type TextExtractor interface {
	ExtractPages(ctx context.Context, path string) ([]string, error)
}

// NewTextExtractor picks the UniPDF backend when a license key is available
// and falls back to the pure-Go reader otherwise.
func NewTextExtractor(unidocKey string) (TextExtractor, error) {
	if unidocKey == "" {
		return GoPDFExtractor{}, nil
	}
	return NewUniPDFExtractor(unidocKey)
}

func checkPDFPath(path string) error {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".pdf" {
		return fmt.Errorf("%w: unsupported file type: %q", ErrExtraction, ext)
	}
	return nil
}

// UniPDFExtractor extracts text with UniPDF.
type UniPDFExtractor struct{}

// NewUniPDFExtractor registers the metered license key with UniPDF.
func NewUniPDFExtractor(key string) (*UniPDFExtractor, error) {
	if err := license.SetMeteredKey(key); err != nil {
		return nil, fmt.Errorf("failed to set unidoc license key: %w", err)
	}
	return &UniPDFExtractor{}, nil
}

// ExtractPages implements TextExtractor.
func (UniPDFExtractor) ExtractPages(ctx context.Context, path string) ([]string, error) {
	if err := checkPDFPath(path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, wrapKind(ErrExtraction, "open", err)
	}
	defer f.Close()

	pdfReader, err := model.NewPdfReader(f)
	if err != nil {
		return nil, wrapKind(ErrExtraction, "read pdf", err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return nil, wrapKind(ErrExtraction, "count pages", err)
	}

	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, wrapKind(ErrExtraction, "extract", err)
		}

		page, err := pdfReader.GetPage(i)
		if err != nil {
			return nil, wrapKind(ErrExtraction, fmt.Sprintf("page %d", i), err)
		}

		ex, err := extractor.New(page)
		if err != nil {
			return nil, wrapKind(ErrExtraction, fmt.Sprintf("page %d", i), err)
		}

		text, err := ex.ExtractText()
		if err != nil {
			logger.Warn("no extractable text on page", "page", i, "error", err)
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// GoPDFExtractor extracts text with github.com/ledongthuc/pdf.
type GoPDFExtractor struct{}

// ExtractPages implements TextExtractor.
func (GoPDFExtractor) ExtractPages(ctx context.Context, path string) ([]string, error) {
	if err := checkPDFPath(path); err != nil {
		return nil, err
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, wrapKind(ErrExtraction, "read pdf", err)
	}
	defer f.Close()

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, wrapKind(ErrExtraction, "extract", err)
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Warn("no extractable text on page", "page", i, "error", err)
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}
