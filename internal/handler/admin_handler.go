package handler

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"sort"

	"doc-reader-api/internal/domain"

	"github.com/gorilla/mux"
)

// AdminHandler exposes admin-only endpoints protected by X-Admin-Secret.
// These endpoints are intended for internal use (support tooling) and should not be exposed publicly without additional safeguards.
type AdminHandler struct {
	gate   domain.EntitlementService
	secret string
	logger domain.Logger
}

func NewAdminHandler(gate domain.EntitlementService, secret string, logger domain.Logger) *AdminHandler {
	return &AdminHandler{
		gate:   gate,
		secret: secret,
		logger: logger,
	}
}

func (h *AdminHandler) authorized(r *http.Request) bool {
	got := r.Header.Get("X-Admin-Secret")
	return h.secret != "" && got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) == 1
}

// ListLimits returns the catalog rows for ?tier=, or for every tier when omitted.
func (h *AdminHandler) ListLimits(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	tiers := domain.Tiers()
	if raw := r.URL.Query().Get("tier"); raw != "" {
		tier, err := domain.ParseTier(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid tier")
			return
		}
		tiers = []domain.Tier{tier}
	}

	out := make([]*domain.FeatureLimit, 0)
	for _, tier := range tiers {
		rows, err := h.gate.ListLimits(r.Context(), tier)
		if err != nil {
			writeAppError(w, h.logger, err)
			return
		}
		for _, row := range rows {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tier != out[j].Tier {
			return out[i].Tier < out[j].Tier
		}
		return out[i].Feature < out[j].Feature
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{"limits": out})
}

type upsertLimitRequest struct {
	DailyLimit   int64 `json:"daily_limit"`
	MonthlyLimit int64 `json:"monthly_limit"`
	IsUnlimited  bool  `json:"is_unlimited"`
}

// UpsertLimit creates or replaces one (tier, feature) row.
func (h *AdminHandler) UpsertLimit(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	vars := mux.Vars(r)
	var req upsertLimitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	limit := &domain.FeatureLimit{
		Tier:         domain.Tier(vars["tier"]),
		Feature:      domain.FeatureKey(vars["feature"]),
		DailyLimit:   req.DailyLimit,
		MonthlyLimit: req.MonthlyLimit,
		IsUnlimited:  req.IsUnlimited,
	}
	if err := h.gate.UpsertLimit(r.Context(), limit); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, limit)
}
