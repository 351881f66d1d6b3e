package handler

import (
	"net/http"

	"doc-reader-api/internal/domain"
)

// multipartOverhead leaves room for form boundaries around the file part.
const multipartOverhead = 1 << 20

type OCRHandler struct {
	ocrService  domain.OCRService
	maxFileSize int64
	logger      domain.Logger
}

func NewOCRHandler(ocrService domain.OCRService, maxFileSize int64, logger domain.Logger) *OCRHandler {
	return &OCRHandler{
		ocrService:  ocrService,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// Extract handles a multipart PDF upload in the "file" field.
func (h *OCRHandler) Extract(w http.ResponseWriter, r *http.Request) {
	account, ok := GetAccountFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	if header.Size > h.maxFileSize {
		writeError(w, http.StatusBadRequest, "File too large")
		return
	}

	res, err := h.ocrService.Extract(r.Context(), account, file)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if !res.Decision.Approved {
		writeDenial(w, res.Decision)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
