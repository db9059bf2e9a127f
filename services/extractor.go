package services

import (
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"

	"slide-deck-platform/internal/logger"
)

// PagedDocument wraps an intermediate paginated document (the PDF produced
// by the renderer) and exposes per-page rasterization and text extraction.
// Pages are addressed 1-indexed to match slide numbering; each page is
// processed independently so one bad page never aborts the rest.
type PagedDocument struct {
	path string
	doc  *fitz.Document
}

// OpenDocument opens the intermediate PDF for page-level processing
func OpenDocument(path string) (*PagedDocument, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open paginated document: %w", err)
	}
	return &PagedDocument{path: path, doc: doc}, nil
}

// PageCount returns the real number of pages in the document
func (d *PagedDocument) PageCount() int {
	return d.doc.NumPage()
}

// RasterizePage renders page n (1-indexed) to a JPEG at outPath
func (d *PagedDocument) RasterizePage(n int, outPath string) error {
	if n < 1 || n > d.doc.NumPage() {
		return fmt.Errorf("page %d out of range (1..%d)", n, d.doc.NumPage())
	}

	img, err := d.doc.Image(n - 1)
	if err != nil {
		return fmt.Errorf("failed to rasterize page %d: %w", n, err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create image file for page %d: %w", n, err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, img, &jpeg.Options{Quality: 85}); err != nil {
		os.Remove(outPath)
		return fmt.Errorf("failed to encode page %d: %w", n, err)
	}

	return nil
}

// ExtractText extracts the text of page n (1-indexed). MuPDF extraction is
// tried first; when it yields nothing the slower go-pdf reader gets a turn,
// since the two engines fail on different classes of documents.
func (d *PagedDocument) ExtractText(n int) (string, error) {
	if n < 1 || n > d.doc.NumPage() {
		return "", fmt.Errorf("page %d out of range (1..%d)", n, d.doc.NumPage())
	}

	text, err := d.doc.Text(n - 1)
	if err == nil && strings.TrimSpace(text) != "" {
		return strings.TrimSpace(text), nil
	}
	if err != nil {
		logger.Debug("MuPDF text extraction failed, trying go-pdf", "page", n, "error", err.Error())
	}

	fallback, fbErr := d.extractWithGoPDF(n)
	if fbErr != nil {
		if err != nil {
			return "", fmt.Errorf("text extraction failed for page %d: %w", n, err)
		}
		return "", fmt.Errorf("text extraction failed for page %d: %w", n, fbErr)
	}

	return fallback, nil
}

// extractWithGoPDF reads a single page's plain text via ledongthuc/pdf
func (d *PagedDocument) extractWithGoPDF(n int) (string, error) {
	f, reader, err := pdf.Open(d.path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF reader: %w", err)
	}
	defer f.Close()

	if n > reader.NumPage() {
		return "", fmt.Errorf("page %d not present in PDF", n)
	}

	page := reader.Page(n)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d is empty", n)
	}

	fonts := make(map[string]*pdf.Font)
	text, err := page.GetPlainText(fonts)
	if err != nil {
		return "", fmt.Errorf("go-pdf extraction failed for page %d: %w", n, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("no text extracted from page %d", n)
	}

	return text, nil
}

// Close releases the underlying document
func (d *PagedDocument) Close() error {
	if d.doc != nil {
		err := d.doc.Close()
		d.doc = nil
		return err
	}
	return nil
}
