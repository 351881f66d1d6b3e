package domain

import (
	"time"
)

// SupabaseUser represents a user from Supabase Auth
type SupabaseUser struct {
	ID           string                 `json:"id"`
	Email        string                 `json:"email"`
	UserMetadata map[string]interface{} `json:"user_metadata,omitempty"`
	CreatedAt    string                 `json:"created_at,omitempty"`
	UpdatedAt    string                 `json:"updated_at,omitempty"`
}

// Account is the billing snapshot of a user. It is owned by the auth and billing
// collaborators; the entitlement gate only reads it.
type Account struct {
	ID                  string     `json:"id"`
	Plan                string     `json:"plan"`
	IsTrial             bool       `json:"is_trial"`
	TrialEndDate        *time.Time `json:"trial_end_date,omitempty"`
	SubscriptionStatus  string     `json:"subscription_status,omitempty"`
	SubscriptionEndDate *time.Time `json:"subscription_end_date,omitempty"`
	Disabled            bool       `json:"account_disabled"`
}

// Validate checks the fields the gate depends on. Plan and trial data are not
// checked here; ResolveTier falls back to free for anything it cannot use.
func (a *Account) Validate() error {
	if a.ID == "" {
		return &ValidationError{Field: "id", Message: "account ID is required"}
	}
	return nil
}
