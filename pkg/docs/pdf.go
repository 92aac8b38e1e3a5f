// Package docs handles document ingestion and generation: text extraction
// from uploaded contracts, deterministic clause segmentation, and .docx
// output for generated memos and reports.
package docs

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extractor pulls plain text out of uploaded files. PDF parsing is CPU-bound,
// so it runs through a bounded worker pool; callers block until a slot frees
// or their context is cancelled.
type Extractor struct {
	slots chan struct{}
}

// NewExtractor creates an extractor with the given parse concurrency.
func NewExtractor(workers int) *Extractor {
	if workers < 1 {
		workers = 2
	}
	return &Extractor{slots: make(chan struct{}, workers)}
}

// ExtractText returns the plain text of an uploaded file. Supported types:
// PDF and plain text (including markdown). Anything else is rejected.
func (e *Extractor) ExtractText(ctx context.Context, filename string, data []byte) (string, error) {
	switch {
	case strings.HasSuffix(strings.ToLower(filename), ".pdf"), bytes.HasPrefix(data, []byte("%PDF")):
		return e.extractPDF(ctx, data)
	case isLikelyText(data):
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported file type: %s", filename)
	}
}

func (e *Extractor) extractPDF(ctx context.Context, data []byte) (string, error) {
	select {
	case e.slots <- struct{}{}:
		defer func() { <-e.slots }()
	case <-ctx.Done():
		return "", ctx.Err()
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(textReader); err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}
	return buf.String(), nil
}

// isLikelyText accepts content without NUL bytes in its first kilobyte.
func isLikelyText(data []byte) bool {
	probe := data
	if len(probe) > 1024 {
		probe = probe[:1024]
	}
	return !bytes.ContainsRune(probe, 0)
}
