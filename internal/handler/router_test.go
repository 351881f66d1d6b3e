package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"doc-reader-api/internal/domain"
	"doc-reader-api/internal/repository"
	"doc-reader-api/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAdminSecret = "admin-secret"

type stubGenerator struct{ calls int }

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (*domain.GeneratedText, error) {
	g.calls++
	return &domain.GeneratedText{Text: "summary"}, nil
}

type stubExtractor struct{ pages int }

func (e stubExtractor) CountPages(data []byte) (int, error) { return e.pages, nil }

func (e stubExtractor) ExtractPages(data []byte) ([]domain.OCRPage, error) {
	out := make([]domain.OCRPage, e.pages)
	for i := range out {
		out[i] = domain.OCRPage{PageNumber: i + 1, Text: "text"}
	}
	return out, nil
}

type testServer struct {
	handler   http.Handler
	usage     *repository.MemoryUsageRepository
	generator *stubGenerator
	auth      *mockAuthService
}

func newTestServer(t *testing.T, pages int, checks map[string]func(context.Context) error) *testServer {
	t.Helper()
	logger := NewMockHandlerLogger()
	limits := repository.NewMemoryLimitRepository()
	usage := repository.NewMemoryUsageRepository()
	_, err := service.SeedDefaultLimits(context.Background(), limits, logger)
	require.NoError(t, err)

	gate := service.NewEntitlementService(limits, usage, logger, nil)
	gen := &stubGenerator{}
	auth := &mockAuthService{
		user:    &domain.SupabaseUser{ID: "user-1"},
		account: &domain.Account{ID: "user-1", Plan: domain.FreePlan},
	}

	h := NewRouter(
		NewUsageHandler(gate, logger),
		NewAIHandler(service.NewDocumentAIService(gate, gen, logger), logger),
		NewOCRHandler(service.NewOCRService(gate, stubExtractor{pages: pages}, 1<<20, logger), 1<<20, logger),
		NewAdminHandler(gate, testAdminSecret, logger),
		NewAuthMiddleware(auth, logger).Middleware,
		RouterOptions{HealthChecks: checks},
	)
	return &testServer{handler: h, usage: usage, generator: gen, auth: auth}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer good")
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return body
}

func TestNewRouter_Health(t *testing.T) {
	srv := newTestServer(t, 1, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	srv.handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected response body: %s", rr.Body.String())
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected X-Request-ID header")
	}
}

func TestNewRouter_HealthDegraded(t *testing.T) {
	srv := newTestServer(t, 1, map[string]func(context.Context) error{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})

	rr := httptest.NewRecorder()
	srv.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "degraded", body["status"])
	checks := body["checks"].(map[string]interface{})
	assert.Equal(t, "ok", checks["postgres"])
	assert.Equal(t, "connection refused", checks["redis"])
}

func TestUsageRoutes_SummaryAfterConsumption(t *testing.T) {
	srv := newTestServer(t, 1, nil)

	rr := srv.do(t, http.MethodPost, "/api/v1/usage/words_read", `{"units":250}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = srv.do(t, http.MethodPost, "/api/v1/features/downloads/consume", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = srv.do(t, http.MethodGet, "/api/v1/usage", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "free", body["tier"])
	usage := body["usage"].(map[string]interface{})
	assert.Equal(t, float64(250), usage["words_read"])
	assert.Equal(t, float64(1), usage["downloads"])
	limits := body["limits"].(map[string]interface{})
	assert.Equal(t, float64(2), limits["downloads"])
}

func TestUsageRoutes_ConsumeUntilDenied(t *testing.T) {
	srv := newTestServer(t, 1, nil)

	for i := 0; i < 2; i++ {
		rr := srv.do(t, http.MethodPost, "/api/v1/features/downloads/consume", `{"units":1}`)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}

	rr := srv.do(t, http.MethodPost, "/api/v1/features/downloads/consume", `{"units":1}`)
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "LIMIT_EXCEEDED", body["code"])
	assert.Equal(t, "free", body["plan"])
	assert.Equal(t, float64(2), body["used"])
	assert.Equal(t, float64(0), body["remaining"])
}

func TestUsageRoutes_ConsumeHugeUnitsIsDenied(t *testing.T) {
	srv := newTestServer(t, 1, nil)

	rr := srv.do(t, http.MethodPost, "/api/v1/features/downloads/consume", `{"units":1}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = srv.do(t, http.MethodPost, "/api/v1/features/downloads/consume", `{"units":9223372036854775807}`)
	require.Equal(t, http.StatusTooManyRequests, rr.Code, rr.Body.String())
	assert.Equal(t, "LIMIT_EXCEEDED", decodeBody(t, rr)["code"])

	rr = srv.do(t, http.MethodPost, "/api/v1/features/downloads/consume", `{"units":1}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = srv.do(t, http.MethodPost, "/api/v1/features/downloads/consume", `{"units":1}`)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestUsageRoutes_TrialWithoutEndDate(t *testing.T) {
	srv := newTestServer(t, 1, nil)
	srv.auth.account = &domain.Account{ID: "user-1", Plan: domain.FreePlan, IsTrial: true}

	rr := srv.do(t, http.MethodGet, "/api/v1/usage", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "free", decodeBody(t, rr)["tier"])

	rr = srv.do(t, http.MethodPost, "/api/v1/features/downloads/consume", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "free", decodeBody(t, rr)["plan"])
}

func TestUsageRoutes_CheckFeature(t *testing.T) {
	srv := newTestServer(t, 1, nil)

	rr := srv.do(t, http.MethodGet, "/api/v1/entitlements/ocr_pages?units=3", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, true, decodeBody(t, rr)["approved"])

	rr = srv.do(t, http.MethodGet, "/api/v1/entitlements/ocr_pages?units=4", "")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	rr = srv.do(t, http.MethodGet, "/api/v1/entitlements/ocr_pages?units=-1", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = srv.do(t, http.MethodGet, "/api/v1/entitlements/teleport", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = srv.do(t, http.MethodGet, "/api/v1/entitlements/words_read", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code, "words_read is tracked, not gated")
}

func TestUsageRoutes_ReportValidation(t *testing.T) {
	srv := newTestServer(t, 1, nil)

	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodPost, "/api/v1/usage/characters", `{"units":-5}`).Code)
	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodPost, "/api/v1/usage/characters", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodPost, "/api/v1/usage/bogus", `{"units":1}`).Code)
	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodPost, "/api/v1/usage/characters", `not json`).Code)
}

func TestUsageRoutes_RequireAuth(t *testing.T) {
	srv := newTestServer(t, 1, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/usage", nil)
	rr := httptest.NewRecorder()
	srv.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAIRoutes(t *testing.T) {
	srv := newTestServer(t, 1, nil)

	rr := srv.do(t, http.MethodPost, "/api/v1/ai/summarize", `{"text":"a long document"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	output := decodeBody(t, rr)["output"].(map[string]interface{})
	assert.Equal(t, "summary", output["text"])

	// Free tier has no translations.
	rr = srv.do(t, http.MethodPost, "/api/v1/ai/translate", `{"text":"hola","target_language":"English"}`)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, 1, srv.generator.calls)

	rr = srv.do(t, http.MethodPost, "/api/v1/ai/rewrite", `{"text":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = srv.do(t, http.MethodPost, "/api/v1/chat", `{"document_text":"doc","prompt":"what?"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func multipartPDF(t *testing.T, field string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, "doc.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4\nbody"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestOCRRoute(t *testing.T) {
	tests := []struct {
		name   string
		pages  int
		field  string
		status int
	}{
		{"within limit", 3, "file", http.StatusOK},
		{"over limit", 4, "file", http.StatusTooManyRequests},
		{"missing file", 1, "upload", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.pages, nil)
			body, contentType := multipartPDF(t, tt.field)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/ocr", body)
			req.Header.Set("Authorization", "Bearer good")
			req.Header.Set("Content-Type", contentType)
			rr := httptest.NewRecorder()
			srv.handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
		})
	}
}

func TestAdminRoutes(t *testing.T) {
	srv := newTestServer(t, 1, nil)

	adminReq := func(method, path, body, secret string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		if secret != "" {
			req.Header.Set("X-Admin-Secret", secret)
		}
		rr := httptest.NewRecorder()
		srv.handler.ServeHTTP(rr, req)
		return rr
	}

	assert.Equal(t, http.StatusUnauthorized, adminReq(http.MethodGet, "/api/v1/admin/limits", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, adminReq(http.MethodGet, "/api/v1/admin/limits", "", "wrong").Code)

	rr := adminReq(http.MethodGet, "/api/v1/admin/limits?tier=premium", "", testAdminSecret)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeBody(t, rr)["limits"], 12)

	rr = adminReq(http.MethodGet, "/api/v1/admin/limits", "", testAdminSecret)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decodeBody(t, rr)["limits"], 36)

	assert.Equal(t, http.StatusBadRequest, adminReq(http.MethodGet, "/api/v1/admin/limits?tier=gold", "", testAdminSecret).Code)

	rr = adminReq(http.MethodPut, "/api/v1/admin/limits/free/downloads", `{"daily_limit":5}`, testAdminSecret)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = adminReq(http.MethodPut, "/api/v1/admin/limits/free/downloads", `{"daily_limit":-1}`, testAdminSecret)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = adminReq(http.MethodPut, "/api/v1/admin/limits/free/teleport", `{"daily_limit":1}`, testAdminSecret)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// The edit takes effect on the next check.
	rr = srv.do(t, http.MethodGet, "/api/v1/entitlements/downloads?units=5", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}
