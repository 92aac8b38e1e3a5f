package docs

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/nguyenthenguyen/docx"
)

//go:embed template.docx
var templateDocx []byte

// GenerateDocx renders a titled document as .docx bytes. Newlines in the
// body become line breaks.
func GenerateDocx(title, body string, generatedAt time.Time) ([]byte, error) {
	tmpl, err := docx.ReadDocxFromMemory(bytes.NewReader(templateDocx), int64(len(templateDocx)))
	if err != nil {
		return nil, fmt.Errorf("failed to open docx template: %w", err)
	}
	defer tmpl.Close()

	doc := tmpl.Editable()
	if err := doc.Replace("DOCTITLE", title, -1); err != nil {
		return nil, fmt.Errorf("failed to render title: %w", err)
	}
	if err := doc.Replace("DOCDATE", generatedAt.UTC().Format("January 2, 2006"), -1); err != nil {
		return nil, fmt.Errorf("failed to render date: %w", err)
	}
	if err := doc.Replace("DOCBODY", body, -1); err != nil {
		return nil, fmt.Errorf("failed to render body: %w", err)
	}

	var buf bytes.Buffer
	if err := doc.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write docx: %w", err)
	}
	return buf.Bytes(), nil
}
