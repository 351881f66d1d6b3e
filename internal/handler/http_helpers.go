package handler

import (
	"encoding/json"
	"net/http"

	"doc-reader-api/internal/domain"
	apperrors "doc-reader-api/pkg/errors"
)

type contextKey string

const (
	userContextKey    contextKey = "user"
	tokenContextKey   contextKey = "token"
	accountContextKey contextKey = "account"
)

// GetUserFromContext extracts the authenticated user from request context
func GetUserFromContext(r *http.Request) (*domain.SupabaseUser, bool) {
	user, ok := r.Context().Value(userContextKey).(*domain.SupabaseUser)
	return user, ok
}

// GetTokenFromContext extracts the authentication token from request context
func GetTokenFromContext(r *http.Request) (string, bool) {
	token, ok := r.Context().Value(tokenContextKey).(string)
	return token, ok
}

// GetAccountFromContext extracts the caller's billing snapshot from request context
func GetAccountFromContext(r *http.Request) (*domain.Account, bool) {
	account, ok := r.Context().Value(accountContextKey).(*domain.Account)
	return account, ok && account != nil
}

// writeError writes an error response (helper function)
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeAppError maps err onto a status code. Server-side failures are logged.
func writeAppError(w http.ResponseWriter, logger domain.Logger, err error) {
	appErr := apperrors.FromDomain(err)
	if appErr.StatusCode >= http.StatusInternalServerError {
		logger.Error(appErr.Message, err)
	}
	writeError(w, appErr.StatusCode, appErr.Message)
}

type denialResponse struct {
	Error     string              `json:"error"`
	Code      domain.DenialReason `json:"code"`
	Plan      domain.Tier         `json:"plan"`
	Feature   domain.FeatureKey   `json:"feature"`
	Used      int64               `json:"used"`
	Limit     int64               `json:"limit"`
	Remaining int64               `json:"remaining"`
}

// writeDenial answers a gate denial with 429 and the counters the client
// needs to render an upgrade prompt.
func writeDenial(w http.ResponseWriter, dec *domain.Decision) {
	msg := "Daily limit reached"
	switch dec.Reason {
	case domain.ReasonMonthlyLimitExceeded:
		msg = "Monthly limit reached"
	case domain.ReasonNotConfigured:
		msg = "Feature not available on your plan"
	}
	writeJSON(w, http.StatusTooManyRequests, denialResponse{
		Error:     msg,
		Code:      dec.Reason,
		Plan:      dec.Tier,
		Feature:   dec.Feature,
		Used:      dec.Used,
		Limit:     dec.Limit,
		Remaining: dec.Remaining,
	})
}
