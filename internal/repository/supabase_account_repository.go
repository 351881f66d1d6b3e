package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"doc-reader-api/internal/domain"
)

const accountColumns = "user_id,subscription_plan,is_trial,trial_end_date,subscription_status,subscription_end_date,account_disabled"

// SupabaseAccountRepository reads the billing snapshot from user_preferences
type SupabaseAccountRepository struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

// NewSupabaseAccountRepository creates a new Supabase-backed account repository
func NewSupabaseAccountRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) *SupabaseAccountRepository {
	return &SupabaseAccountRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

// GetAccount loads the account with the caller's token so RLS applies.
// Users without a preferences row yet are treated as free accounts.
func (r *SupabaseAccountRepository) GetAccount(ctx context.Context, userID string, token string) (*domain.Account, error) {
	client, err := r.supabaseClient.GetClientWithToken(token)
	if err != nil {
		return nil, storageErr("get client with token", err)
	}
	if client == nil {
		return nil, fmt.Errorf("get account: %w: supabase client not initialized", domain.ErrStorageUnavailable)
	}

	data, _, err := client.From("user_preferences").
		Select(accountColumns, "", false).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return nil, storageErr("get account", err)
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(rows) == 0 {
		r.logger.Debug("No preferences row, defaulting to free account", "user_id", userID)
		return &domain.Account{ID: userID, Plan: domain.FreePlan}, nil
	}
	return mapToAccount(userID, rows[0]), nil
}

// mapToAccount converts a user_preferences row into an Account
func mapToAccount(userID string, data map[string]interface{}) *domain.Account {
	account := &domain.Account{
		ID:                  userID,
		Plan:                getString(data, "subscription_plan"),
		IsTrial:             getBool(data, "is_trial"),
		TrialEndDate:        getTime(data, "trial_end_date"),
		SubscriptionStatus:  getString(data, "subscription_status"),
		SubscriptionEndDate: getTime(data, "subscription_end_date"),
		Disabled:            getBool(data, "account_disabled"),
	}
	if account.Plan == "" {
		account.Plan = domain.FreePlan
	}
	return account
}

func getString(data map[string]interface{}, key string) string {
	if val, ok := data[key]; ok && val != nil {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return ""
}

func getBool(data map[string]interface{}, key string) bool {
	if val, ok := data[key]; ok && val != nil {
		switch v := val.(type) {
		case bool:
			return v
		case string:
			return v == "true" || v == "1"
		case float64:
			return v != 0
		}
	}
	return false
}

func getTime(data map[string]interface{}, key string) *time.Time {
	raw := strings.TrimSpace(getString(data, key))
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
