package invoice

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// PDFReader extracts the text layer from supplier quote PDFs.
type PDFReader struct {
	logger *zap.Logger
}

// NewPDFReader creates a new PDF text reader.
func NewPDFReader(logger *zap.Logger) *PDFReader {
	return &PDFReader{logger: logger}
}

// ReadText returns the concatenated text of every page. Pages that fail to
// render are skipped; the reader only errors when the document itself cannot
// be opened or yields no text at all.
func (r *PDFReader) ReadText(pdfPath string) (string, error) {
	if _, err := os.Stat(pdfPath); os.IsNotExist(err) {
		return "", fmt.Errorf("file not found: %s", pdfPath)
	}
	if ext := strings.ToLower(filepath.Ext(pdfPath)); ext != ".pdf" {
		return "", fmt.Errorf("unsupported file type: %s", ext)
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var b strings.Builder
	pageCount := doc.NumPage()
	for pageNum := 0; pageNum < pageCount; pageNum++ {
		text, err := doc.Text(pageNum)
		if err != nil {
			r.logger.Warn("Failed to extract page text",
				zap.Int("page", pageNum),
				zap.Error(err))
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("no text extracted from %s", filepath.Base(pdfPath))
	}

	r.logger.Debug("Extracted PDF text",
		zap.String("path", pdfPath),
		zap.Int("pages", pageCount),
		zap.Int("chars", b.Len()))
	return b.String(), nil
}
