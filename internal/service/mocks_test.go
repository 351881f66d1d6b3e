package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"doc-reader-api/internal/domain"

	"github.com/supabase-community/supabase-go"
)

// MockLogger records log lines; safe for concurrent use.
type MockLogger struct {
	mu       sync.Mutex
	messages []string
}

func NewMockLogger() *MockLogger {
	return &MockLogger{messages: []string{}}
}

func (m *MockLogger) record(line string) {
	m.mu.Lock()
	m.messages = append(m.messages, line)
	m.mu.Unlock()
}

func (m *MockLogger) Info(msg string, args ...interface{})  { m.record("INFO: " + msg) }
func (m *MockLogger) Debug(msg string, args ...interface{}) { m.record("DEBUG: " + msg) }
func (m *MockLogger) Warn(msg string, args ...interface{})  { m.record("WARN: " + msg) }

func (m *MockLogger) Error(msg string, err error, args ...interface{}) {
	line := "ERROR: " + msg
	if err != nil {
		line += " - " + err.Error()
	}
	m.record(line)
}

func (m *MockLogger) contains(prefix string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, line := range m.messages {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// failingUsageRepo fails every call with err.
type failingUsageRepo struct {
	err error
}

func (f failingUsageRepo) GetUsage(ctx context.Context, accountID, day string, feature domain.FeatureKey) (int64, error) {
	return 0, f.err
}

func (f failingUsageRepo) Increment(ctx context.Context, accountID, day string, feature domain.FeatureKey, amount int64) error {
	return f.err
}

func (f failingUsageRepo) GetUsageSnapshot(ctx context.Context, accountID, day string) (domain.UsageSnapshot, error) {
	return nil, f.err
}

func (f failingUsageRepo) SumSince(ctx context.Context, accountID, fromDay, toDay string, feature domain.FeatureKey) (int64, error) {
	return 0, f.err
}

// failingLimitRepo fails every call with err.
type failingLimitRepo struct {
	err error
}

func (f failingLimitRepo) GetLimit(ctx context.Context, tier domain.Tier, feature domain.FeatureKey) (*domain.FeatureLimit, error) {
	return nil, f.err
}

func (f failingLimitRepo) ListLimits(ctx context.Context, tier domain.Tier) (map[domain.FeatureKey]*domain.FeatureLimit, error) {
	return nil, f.err
}

func (f failingLimitRepo) UpsertLimit(ctx context.Context, limit *domain.FeatureLimit) error {
	return f.err
}

// MockTextGenerator returns a canned answer and records prompts.
type MockTextGenerator struct {
	mu      sync.Mutex
	prompts []string
	err     error
}

func (m *MockTextGenerator) Generate(ctx context.Context, prompt string) (*domain.GeneratedText, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return &domain.GeneratedText{Text: "generated", PromptTokens: 10, OutputTokens: 2}, nil
}

func (m *MockTextGenerator) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// MockPageExtractor reports a fixed page count.
type MockPageExtractor struct {
	pages     int
	countErr  error
	extracted int
}

func (m *MockPageExtractor) CountPages(data []byte) (int, error) {
	return m.pages, m.countErr
}

func (m *MockPageExtractor) ExtractPages(data []byte) ([]domain.OCRPage, error) {
	m.extracted++
	out := make([]domain.OCRPage, m.pages)
	for i := range out {
		out[i] = domain.OCRPage{PageNumber: i + 1, Text: "page text"}
	}
	return out, nil
}

// MockSupabaseClient validates the token "valid-token" only.
type MockSupabaseClient struct{}

func (m *MockSupabaseClient) Initialize() error   { return nil }
func (m *MockSupabaseClient) IsInitialized() bool { return true }

func (m *MockSupabaseClient) ValidateToken(token string) (*domain.SupabaseUser, error) {
	if token == "valid-token" {
		return &domain.SupabaseUser{ID: "user-123", Email: "test@example.com"}, nil
	}
	return nil, errors.New("token validation failed")
}

func (m *MockSupabaseClient) DB() *supabase.Client { return nil }

func (m *MockSupabaseClient) GetClientWithToken(token string) (*supabase.Client, error) {
	return nil, nil
}

// MockAccountRepository serves accounts from a map and counts lookups.
type MockAccountRepository struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	lookups  int
	err      error
}

func (m *MockAccountRepository) GetAccount(ctx context.Context, userID string, token string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if m.err != nil {
		return nil, m.err
	}
	if a, ok := m.accounts[userID]; ok {
		acct := *a
		return &acct, nil
	}
	return &domain.Account{ID: userID, Plan: domain.FreePlan}, nil
}
