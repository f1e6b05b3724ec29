package pdftext

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/akoreshkov/docfields/internal/core/domain"
	"github.com/akoreshkov/docfields/internal/core/ports"
)

// document abstracts one opened PDF so page access can be stubbed in tests.
type document interface {
	NumPages() int
	PageText(page int) (string, error)
	Close() error
}

// Extractor recovers document text page by page: the native text layer
// first, the OCR engine as fallback for pages without one.
type Extractor struct {
	ocr    ports.OCREngine
	logger *slog.Logger

	open func(path string) (document, error)
}

func NewExtractor(ocr ports.OCREngine, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{ocr: ocr, logger: logger, open: openPDF}
}

// Extract concatenates per-page text in page order, separated by newlines
// and trimmed at the edges. A page whose native layer is empty is rasterized
// and OCRed; an OCR failure on one page becomes an inline diagnostic
// placeholder instead of aborting the document. The run fails with ErrNoText
// only when no page produced any usable content at all.
func (e *Extractor) Extract(ctx context.Context, path string) (string, []domain.PageDiagnostic, error) {
	doc, err := e.open(path)
	if err != nil {
		return "", nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer doc.Close()

	var (
		b          strings.Builder
		diags      []domain.PageDiagnostic
		hasContent bool
	)
	pages := doc.NumPages()
	for page := 1; page <= pages; page++ {
		if err := ctx.Err(); err != nil {
			return "", diags, err
		}

		pageText, textErr := doc.PageText(page)
		if textErr == nil && strings.TrimSpace(pageText) != "" {
			b.WriteString(pageText)
			b.WriteString("\n")
			diags = append(diags, domain.PageDiagnostic{Page: page, Source: "text"})
			hasContent = true
			continue
		}
		if textErr != nil {
			e.logger.Debug("native_text_layer_unreadable", "path", path, "page", page, "error", textErr)
		}

		ocrText, ocrErr := e.ocr.RecognizePage(ctx, path, page)
		if ocrErr != nil {
			fmt.Fprintf(&b, "[OCR failed on page %d: %v]\n", page, ocrErr)
			diags = append(diags, domain.PageDiagnostic{Page: page, Source: "error", Detail: ocrErr.Error()})
			continue
		}
		b.WriteString(ocrText)
		b.WriteString("\n")
		diags = append(diags, domain.PageDiagnostic{Page: page, Source: "ocr"})
		if strings.TrimSpace(ocrText) != "" {
			hasContent = true
		}
	}

	text := strings.TrimSpace(b.String())
	if !hasContent {
		return "", diags, domain.WrapError(domain.ErrNoText, "extract text",
			errors.New("no text could be extracted from the document"))
	}
	return text, diags, nil
}
