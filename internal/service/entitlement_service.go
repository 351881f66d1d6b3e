package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"doc-reader-api/internal/domain"
	"doc-reader-api/internal/metrics"

	"golang.org/x/sync/errgroup"
)

// EntitlementService decides whether an account may consume units of a
// feature and records consumption in the usage ledger.
type EntitlementService struct {
	limits  domain.LimitRepository
	usage   domain.UsageRepository
	logger  domain.Logger
	metrics *metrics.EntitlementMetrics

	// loc is the zone usage days are keyed in. Nil means server local time.
	loc *time.Location
}

// EntitlementOption customises an EntitlementService.
type EntitlementOption func(*EntitlementService)

// WithLocation keys usage days in loc instead of the server's local zone.
func WithLocation(loc *time.Location) EntitlementOption {
	return func(s *EntitlementService) { s.loc = loc }
}

// NewEntitlementService creates the entitlement gate. m may be nil.
func NewEntitlementService(
	limits domain.LimitRepository,
	usage domain.UsageRepository,
	logger domain.Logger,
	m *metrics.EntitlementMetrics,
	opts ...EntitlementOption,
) *EntitlementService {
	s := &EntitlementService{
		limits:  limits,
		usage:   usage,
		logger:  logger,
		metrics: m,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckAndReserve answers whether requested units may be consumed now. It
// never mutates usage. Errors mean the check could not be completed and the
// caller must not proceed.
func (s *EntitlementService) CheckAndReserve(ctx context.Context, account *domain.Account, feature domain.FeatureKey, requested int64, now time.Time) (*domain.Decision, error) {
	if account == nil {
		return nil, &domain.ValidationError{Field: "account", Message: "account is required"}
	}
	if err := account.Validate(); err != nil {
		return nil, err
	}
	if requested < 0 {
		return nil, fmt.Errorf("%w: requested units %d", domain.ErrInvalidAmount, requested)
	}
	if !feature.IsMetered() {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownFeature, feature)
	}

	tier := domain.ResolveTier(account, now)
	dec, err := s.evaluate(ctx, account.ID, tier, feature, requested, now)
	if err != nil {
		s.metrics.ObserveDecision(string(feature), string(tier), metrics.OutcomeError)
		s.logger.Error("Entitlement check failed", err, "user_id", account.ID, "feature", feature, "tier", tier)
		return nil, err
	}

	if dec.Approved {
		s.metrics.ObserveDecision(string(feature), string(tier), metrics.OutcomeApproved)
	} else {
		s.metrics.ObserveDecision(string(feature), string(tier), metrics.OutcomeDenied)
		s.logger.Debug("Entitlement denied",
			"user_id", account.ID,
			"feature", feature,
			"tier", tier,
			"reason", dec.Reason,
			"used", dec.Used,
			"limit", dec.Limit,
			"requested", requested)
	}
	return dec, nil
}

func (s *EntitlementService) evaluate(ctx context.Context, accountID string, tier domain.Tier, feature domain.FeatureKey, requested int64, now time.Time) (*domain.Decision, error) {
	dec := &domain.Decision{Tier: tier, Feature: feature, Requested: requested}

	limit, err := s.limits.GetLimit(ctx, tier, feature)
	if errors.Is(err, domain.ErrNotConfigured) {
		dec.Reason = domain.ReasonNotConfigured
		return dec, nil
	}
	if err != nil {
		return nil, asStorageErr("get limit", err)
	}

	if limit.IsUnlimited {
		dec.Approved = true
		dec.IsUnlimited = true
		dec.Limit = domain.UnlimitedSentinel
		dec.Remaining = domain.UnlimitedSentinel
		return dec, nil
	}

	day := domain.UsageDay(now, s.loc)
	used, err := s.usage.GetUsage(ctx, accountID, day, feature)
	if err != nil {
		return nil, asStorageErr("get usage", err)
	}
	dec.Used = used
	dec.Limit = limit.DailyLimit
	dec.Remaining = remaining(limit.DailyLimit, used)

	var monthUsed int64
	if limit.MonthlyLimit > 0 {
		monthStart, err := domain.MonthStart(day)
		if err != nil {
			return nil, err
		}
		monthUsed, err = s.usage.SumSince(ctx, accountID, monthStart, day, feature)
		if err != nil {
			return nil, asStorageErr("sum monthly usage", err)
		}
		if r := remaining(limit.MonthlyLimit, monthUsed); r < dec.Remaining {
			dec.Remaining = r
		}
	}

	switch {
	case requested == 0:
		dec.Approved = true
	// Compared by subtraction so huge requests cannot wrap around.
	case requested > limit.DailyLimit-used:
		dec.Reason = domain.ReasonLimitExceeded
	case limit.MonthlyLimit > 0 && requested > limit.MonthlyLimit-monthUsed:
		dec.Reason = domain.ReasonMonthlyLimitExceeded
		dec.Used = monthUsed
		dec.Limit = limit.MonthlyLimit
	default:
		dec.Approved = true
	}
	return dec, nil
}

// Commit records actual consumption. It may push usage past the limit; the
// next check enforces it. Failures are logged and returned for the caller to
// decide, but already-delivered work must not be rolled back on error.
func (s *EntitlementService) Commit(ctx context.Context, accountID string, feature domain.FeatureKey, units int64, now time.Time) error {
	if accountID == "" {
		return &domain.ValidationError{Field: "account_id", Message: "account ID is required"}
	}
	if units < 0 {
		return fmt.Errorf("%w: units %d", domain.ErrInvalidAmount, units)
	}
	if !feature.IsCounter() {
		return fmt.Errorf("%w: %s", domain.ErrUnknownFeature, feature)
	}

	day := domain.UsageDay(now, s.loc)
	if err := s.usage.Increment(ctx, accountID, day, feature, units); err != nil {
		s.metrics.IncCommitFailure(string(feature))
		s.logger.Error("Failed to commit usage", err, "user_id", accountID, "feature", feature, "units", units, "day", day)
		return asStorageErr("commit usage", err)
	}
	s.metrics.AddCommitted(string(feature), units)
	return nil
}

// Consume checks and, when approved, commits in one call. It is meant for
// features whose cost is known before the work runs.
func (s *EntitlementService) Consume(ctx context.Context, account *domain.Account, feature domain.FeatureKey, units int64, now time.Time) (*domain.Decision, error) {
	dec, err := s.CheckAndReserve(ctx, account, feature, units, now)
	if err != nil || !dec.Approved || units == 0 {
		return dec, err
	}
	if err := s.Commit(ctx, account.ID, feature, units, now); err != nil {
		return dec, err
	}
	if !dec.IsUnlimited {
		dec.Used += units
		dec.Remaining = remaining(dec.Remaining, units)
	}
	return dec, nil
}

// Summary builds the "my limits" payload for the account's current tier.
func (s *EntitlementService) Summary(ctx context.Context, account *domain.Account, now time.Time) (*domain.UsageSummary, error) {
	if account == nil {
		return nil, &domain.ValidationError{Field: "account", Message: "account is required"}
	}
	if err := account.Validate(); err != nil {
		return nil, err
	}

	tier := domain.ResolveTier(account, now)
	day := domain.UsageDay(now, s.loc)

	var (
		rows     map[domain.FeatureKey]*domain.FeatureLimit
		snapshot domain.UsageSnapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.limits.ListLimits(gctx, tier)
		return asStorageErr("list limits", err)
	})
	g.Go(func() error {
		var err error
		snapshot, err = s.usage.GetUsageSnapshot(gctx, account.ID, day)
		return asStorageErr("get usage snapshot", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &domain.UsageSummary{
		Plan:               account.Plan,
		Tier:               tier,
		TrialDaysRemaining: domain.TrialDaysRemaining(account, now),
		Day:                day,
		Limits:             make(map[domain.FeatureKey]int64),
		Usage:              make(map[domain.FeatureKey]int64),
	}
	if summary.Plan == "" {
		summary.Plan = domain.FreePlan
	}
	for _, f := range domain.FeatureKeys() {
		switch row, ok := rows[f]; {
		case !ok:
			summary.Limits[f] = 0
		case row.IsUnlimited:
			summary.Limits[f] = domain.UnlimitedSentinel
		default:
			summary.Limits[f] = row.DailyLimit
		}
		summary.Usage[f] = snapshot[f]
	}
	summary.Usage[domain.CounterWordsRead] = snapshot[domain.CounterWordsRead]
	return summary, nil
}

// ListLimits returns every configured limit row for tier.
func (s *EntitlementService) ListLimits(ctx context.Context, tier domain.Tier) (map[domain.FeatureKey]*domain.FeatureLimit, error) {
	if _, err := domain.ParseTier(string(tier)); err != nil {
		return nil, err
	}
	rows, err := s.limits.ListLimits(ctx, tier)
	if err != nil {
		return nil, asStorageErr("list limits", err)
	}
	return rows, nil
}

// UpsertLimit validates and stores an admin edit to the limit catalog.
func (s *EntitlementService) UpsertLimit(ctx context.Context, limit *domain.FeatureLimit) error {
	if limit == nil {
		return &domain.ValidationError{Field: "limit", Message: "limit is required"}
	}
	if err := limit.Validate(); err != nil {
		return err
	}
	if err := s.limits.UpsertLimit(ctx, limit); err != nil {
		return asStorageErr("upsert limit", err)
	}
	s.logger.Info("Feature limit updated",
		"tier", limit.Tier,
		"feature", limit.Feature,
		"daily_limit", limit.DailyLimit,
		"monthly_limit", limit.MonthlyLimit,
		"is_unlimited", limit.IsUnlimited)
	return nil
}

func remaining(limit, used int64) int64 {
	if used >= limit {
		return 0
	}
	return limit - used
}

// asStorageErr tags unexpected repository failures as ErrStorageUnavailable.
// Typed domain errors pass through unchanged.
func asStorageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var vErr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrStorageUnavailable),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrUnknownFeature),
		errors.Is(err, domain.ErrInvalidTier),
		errors.As(err, &vErr):
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
}
