package domain

import "github.com/supabase-community/supabase-go"

// SupabaseClient wraps auth token validation and row access for the accounts table.
type SupabaseClient interface {
	Initialize() error
	IsInitialized() bool
	ValidateToken(token string) (*SupabaseUser, error)

	DB() *supabase.Client
	GetClientWithToken(token string) (*supabase.Client, error)
}
