package service

import (
	"fmt"
	"strings"
	"time"

	"doc-reader-api/internal/domain"

	"github.com/gen2brain/go-fitz"
)

const pageTimeout = 90 * time.Second

// PDFProcessor counts and extracts document pages with MuPDF
type PDFProcessor struct {
	logger      domain.Logger
	pageTimeout time.Duration
}

// NewPDFProcessor creates a new PDF processor
func NewPDFProcessor(logger domain.Logger) *PDFProcessor {
	return &PDFProcessor{
		logger:      logger,
		pageTimeout: pageTimeout,
	}
}

// CountPages opens the document only far enough to read its page count.
func (p *PDFProcessor) CountPages(data []byte) (int, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidFile, err)
	}
	defer doc.Close()
	return doc.NumPage(), nil
}

// ExtractPages returns the text of every page (1-indexed). Pages that fail or
// time out come back empty so the page count is preserved.
func (p *PDFProcessor) ExtractPages(data []byte) ([]domain.OCRPage, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidFile, err)
	}
	defer doc.Close()

	type pageResult struct {
		text string
		err  error
	}

	numPages := doc.NumPage()
	pages := make([]domain.OCRPage, 0, numPages)
	for pageNum := 0; pageNum < numPages; pageNum++ {
		p.logger.Debug("PDF processing page", "page", pageNum+1, "total", numPages)

		resultCh := make(chan pageResult, 1)
		go func(idx int) {
			t, e := doc.Text(idx)
			resultCh <- pageResult{text: t, err: e}
		}(pageNum)

		var res pageResult
		select {
		case res = <-resultCh:
		case <-time.After(p.pageTimeout):
			res.err = fmt.Errorf("timeout after %v", p.pageTimeout)
			go func() { <-resultCh }()
		}
		if res.err != nil {
			p.logger.Warn("Failed to extract text from page", "page", pageNum+1, "total", numPages, "error", res.err)
		}

		pages = append(pages, domain.OCRPage{
			PageNumber: pageNum + 1,
			Text:       strings.TrimSpace(res.text),
		})
	}
	return pages, nil
}
