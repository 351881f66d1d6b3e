package handler

import (
	"encoding/json"
	"net/http"

	"doc-reader-api/internal/domain"

	"github.com/gorilla/mux"
)

// maxAIRequestBytes caps JSON bodies carrying document text.
const maxAIRequestBytes = 2 << 20

type AIHandler struct {
	aiService domain.DocumentAIService
	logger    domain.Logger
}

func NewAIHandler(aiService domain.DocumentAIService, logger domain.Logger) *AIHandler {
	return &AIHandler{
		aiService: aiService,
		logger:    logger,
	}
}

// RunAction handles summarize, translate and action-points.
func (h *AIHandler) RunAction(w http.ResponseWriter, r *http.Request) {
	account, ok := GetAccountFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	var req domain.DocumentActionRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxAIRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	action := domain.DocumentAction(mux.Vars(r)["action"])
	res, err := h.aiService.RunAction(r.Context(), account, action, req)
	h.respond(w, res, err)
}

// Chat answers a question about the supplied document text.
func (h *AIHandler) Chat(w http.ResponseWriter, r *http.Request) {
	account, ok := GetAccountFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	var req domain.ChatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxAIRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.aiService.Ask(r.Context(), account, req)
	h.respond(w, res, err)
}

func (h *AIHandler) respond(w http.ResponseWriter, res *domain.AIResult, err error) {
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if res.Decision != nil && !res.Decision.Approved {
		writeDenial(w, res.Decision)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
