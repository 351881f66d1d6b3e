package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"doc-reader-api/internal/domain"
)

const defaultAccountCacheTTL = 30 * time.Second

type accountCacheEntry struct {
	account   domain.Account
	expiresAt time.Time
}

type authService struct {
	supabaseClient domain.SupabaseClient
	accounts       domain.AccountRepository
	logger         domain.Logger
	cacheTTL       time.Duration
	now            func() time.Time

	accountCacheMu sync.RWMutex
	accountCache   map[string]accountCacheEntry
	nextSweep      time.Time
}

func NewAuthService(
	supabaseClient domain.SupabaseClient,
	accounts domain.AccountRepository,
	logger domain.Logger,
	cacheTTL time.Duration,
) *authService {
	if cacheTTL <= 0 {
		cacheTTL = defaultAccountCacheTTL
	}
	return &authService{
		supabaseClient: supabaseClient,
		accounts:       accounts,
		logger:         logger,
		cacheTTL:       cacheTTL,
		now:            time.Now,
		accountCache:   make(map[string]accountCacheEntry),
	}
}

// ValidateToken validates a token and returns user info
func (s *authService) ValidateToken(token string) (*domain.SupabaseUser, error) {
	user, err := s.supabaseClient.ValidateToken(token)
	if err != nil {
		s.logger.Error("Failed to validate token with Supabase", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
	}
	return user, nil
}

// GetAccount returns the caller's billing snapshot, cached briefly per user.
// Plan changes therefore take effect within one cache TTL.
func (s *authService) GetAccount(ctx context.Context, userID string, token string) (*domain.Account, error) {
	now := s.now()
	s.accountCacheMu.RLock()
	entry, ok := s.accountCache[userID]
	s.accountCacheMu.RUnlock()
	if ok && now.Before(entry.expiresAt) {
		account := entry.account
		return &account, nil
	}

	account, err := s.accounts.GetAccount(ctx, userID, token)
	if err != nil {
		if ok {
			s.accountCacheMu.Lock()
			if cur, found := s.accountCache[userID]; found && !now.Before(cur.expiresAt) {
				delete(s.accountCache, userID)
			}
			s.accountCacheMu.Unlock()
		}
		return nil, err
	}

	s.accountCacheMu.Lock()
	s.sweepExpiredLocked(now)
	s.accountCache[userID] = accountCacheEntry{account: *account, expiresAt: now.Add(s.cacheTTL)}
	s.accountCacheMu.Unlock()

	return account, nil
}

// sweepExpiredLocked drops expired entries at most once per TTL.
// Callers hold accountCacheMu for writing.
func (s *authService) sweepExpiredLocked(now time.Time) {
	if now.Before(s.nextSweep) {
		return
	}
	for id, entry := range s.accountCache {
		if !now.Before(entry.expiresAt) {
			delete(s.accountCache, id)
		}
	}
	s.nextSweep = now.Add(s.cacheTTL)
}
