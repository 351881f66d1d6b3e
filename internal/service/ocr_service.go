package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"doc-reader-api/internal/domain"
)

var pdfMagic = []byte("%PDF-")

type ocrService struct {
	gate        domain.EntitlementService
	extractor   domain.PageExtractor
	maxFileSize int64
	logger      domain.Logger
	now         func() time.Time
}

// NewOCRService creates the page-metered text extraction service
func NewOCRService(gate domain.EntitlementService, extractor domain.PageExtractor, maxFileSize int64, logger domain.Logger) *ocrService {
	return &ocrService{
		gate:        gate,
		extractor:   extractor,
		maxFileSize: maxFileSize,
		logger:      logger,
		now:         time.Now,
	}
}

// Extract counts the pages of an uploaded PDF, checks ocr_pages for that many
// units and, when approved, extracts the text and commits the page count.
func (s *ocrService) Extract(ctx context.Context, account *domain.Account, file io.Reader) (*domain.OCRResult, error) {
	data, err := io.ReadAll(io.LimitReader(file, s.maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxFileSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", domain.ErrInvalidFile, s.maxFileSize)
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return nil, fmt.Errorf("%w: only PDF files are supported", domain.ErrInvalidFile)
	}

	pageCount, err := s.extractor.CountPages(data)
	if err != nil {
		return nil, err
	}
	if pageCount == 0 {
		return nil, fmt.Errorf("%w: document has no pages", domain.ErrInvalidFile)
	}

	now := s.now()
	dec, err := s.gate.CheckAndReserve(ctx, account, domain.FeatureOCRPages, int64(pageCount), now)
	if err != nil {
		return nil, err
	}
	if !dec.Approved {
		return &domain.OCRResult{PageCount: pageCount, Decision: dec}, nil
	}

	pages, err := s.extractor.ExtractPages(data)
	if err != nil {
		return nil, err
	}

	if err := s.gate.Commit(ctx, account.ID, domain.FeatureOCRPages, int64(pageCount), now); err != nil {
		s.logger.Warn("Usage not recorded for delivered OCR result", "user_id", account.ID, "pages", pageCount)
	}
	s.logger.Info("OCR extraction completed", "user_id", account.ID, "pages", pageCount)

	return &domain.OCRResult{PageCount: pageCount, Pages: pages, Decision: dec}, nil
}
