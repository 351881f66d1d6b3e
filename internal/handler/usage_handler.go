package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"doc-reader-api/internal/domain"

	"github.com/gorilla/mux"
)

// UsageHandler exposes the entitlement gate to clients. Besides the "my limits"
// summary it answers read-only checks and records client-reported usage.
type UsageHandler struct {
	gate   domain.EntitlementService
	logger domain.Logger
	now    func() time.Time
}

func NewUsageHandler(gate domain.EntitlementService, logger domain.Logger) *UsageHandler {
	return &UsageHandler{
		gate:   gate,
		logger: logger,
		now:    time.Now,
	}
}

type unitsRequest struct {
	Units *int64 `json:"units"`
}

// decodeUnits reads {"units": n}. An empty body yields def.
func decodeUnits(r *http.Request, def int64) (int64, error) {
	var req unitsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}
	if req.Units == nil {
		return def, nil
	}
	return *req.Units, nil
}

// GetUsage returns today's limits and consumption for the caller's tier.
func (h *UsageHandler) GetUsage(w http.ResponseWriter, r *http.Request) {
	account, ok := GetAccountFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	summary, err := h.gate.Summary(r.Context(), account, h.now())
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// CheckFeature asks the gate without consuming. units defaults to 0, which
// only reports the counters.
func (h *UsageHandler) CheckFeature(w http.ResponseWriter, r *http.Request) {
	account, ok := GetAccountFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	feature, err := domain.ParseFeatureKey(mux.Vars(r)["feature"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown feature")
		return
	}

	var units int64
	if raw := r.URL.Query().Get("units"); raw != "" {
		units, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || units < 0 {
			writeError(w, http.StatusBadRequest, "units must be a non-negative integer")
			return
		}
	}

	dec, err := h.gate.CheckAndReserve(r.Context(), account, feature, units, h.now())
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if !dec.Approved {
		writeDenial(w, dec)
		return
	}
	writeJSON(w, http.StatusOK, dec)
}

// ReportUsage records consumption the client measured itself (characters
// spoken, seconds listened, words read). The work already happened, so a
// storage failure is logged and acknowledged with 202 rather than failing
// the client.
func (h *UsageHandler) ReportUsage(w http.ResponseWriter, r *http.Request) {
	account, ok := GetAccountFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	feature := domain.FeatureKey(mux.Vars(r)["feature"])
	if !feature.IsCounter() {
		writeError(w, http.StatusBadRequest, "Unknown feature")
		return
	}

	units, err := decodeUnits(r, -1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if units < 0 {
		writeError(w, http.StatusBadRequest, "units must be a non-negative integer")
		return
	}

	if err := h.gate.Commit(r.Context(), account.ID, feature, units, h.now()); err != nil {
		if errors.Is(err, domain.ErrStorageUnavailable) {
			writeJSON(w, http.StatusAccepted, map[string]interface{}{
				"recorded": false,
				"feature":  feature,
				"units":    units,
			})
			return
		}
		writeAppError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"recorded": true,
		"feature":  feature,
		"units":    units,
	})
}

// Consume checks and commits in one call, for features whose cost is known
// up front. units defaults to 1.
func (h *UsageHandler) Consume(w http.ResponseWriter, r *http.Request) {
	account, ok := GetAccountFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	feature, err := domain.ParseFeatureKey(mux.Vars(r)["feature"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown feature")
		return
	}

	units, err := decodeUnits(r, 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if units < 0 {
		writeError(w, http.StatusBadRequest, "units must be a non-negative integer")
		return
	}

	dec, err := h.gate.Consume(r.Context(), account, feature, units, h.now())
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if !dec.Approved {
		writeDenial(w, dec)
		return
	}
	writeJSON(w, http.StatusOK, dec)
}
