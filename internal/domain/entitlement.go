package domain

import (
	"context"
	"time"
)

// Tier is the coarse entitlement class derived from account state.
type Tier string

const (
	TierFree    Tier = "free"
	TierTrial   Tier = "trial"
	TierPremium Tier = "premium"
)

// Tiers lists every tier in display order.
func Tiers() []Tier {
	return []Tier{TierFree, TierTrial, TierPremium}
}

// ParseTier validates a tier string.
func ParseTier(s string) (Tier, error) {
	switch t := Tier(s); t {
	case TierFree, TierTrial, TierPremium:
		return t, nil
	}
	return "", ErrInvalidTier
}

// FeatureKey identifies one meterable capability.
type FeatureKey string

const (
	FeatureCharacters         FeatureKey = "characters"
	FeatureListeningTime      FeatureKey = "listening_time"
	FeatureTranslations       FeatureKey = "translations"
	FeatureVoiceCommands      FeatureKey = "voice_commands"
	FeatureOCRPages           FeatureKey = "ocr_pages"
	FeatureDownloads          FeatureKey = "downloads"
	FeatureActionPoints       FeatureKey = "action_points"
	FeatureSummaries          FeatureKey = "summaries"
	FeatureChatbotQuestions   FeatureKey = "chatbot_questions"
	FeatureNaturalVoices      FeatureKey = "natural_voices"
	FeatureAdsFree            FeatureKey = "ads_free"
	FeatureSocialMediaControl FeatureKey = "social_media_control"

	// CounterWordsRead is tracked on the daily usage row but never gated.
	CounterWordsRead FeatureKey = "words_read"
)

var meteredFeatures = []FeatureKey{
	FeatureCharacters,
	FeatureListeningTime,
	FeatureTranslations,
	FeatureVoiceCommands,
	FeatureOCRPages,
	FeatureDownloads,
	FeatureActionPoints,
	FeatureSummaries,
	FeatureChatbotQuestions,
	FeatureNaturalVoices,
	FeatureAdsFree,
	FeatureSocialMediaControl,
}

// FeatureKeys returns the closed set of metered feature keys.
func FeatureKeys() []FeatureKey {
	out := make([]FeatureKey, len(meteredFeatures))
	copy(out, meteredFeatures)
	return out
}

// IsMetered reports whether the key has limit rows and goes through the gate.
func (f FeatureKey) IsMetered() bool {
	for _, k := range meteredFeatures {
		if k == f {
			return true
		}
	}
	return false
}

// IsCounter reports whether the key has a column on the daily usage row.
func (f FeatureKey) IsCounter() bool {
	return f == CounterWordsRead || f.IsMetered()
}

// ParseFeatureKey validates a metered feature key.
func ParseFeatureKey(s string) (FeatureKey, error) {
	f := FeatureKey(s)
	if !f.IsMetered() {
		return "", ErrUnknownFeature
	}
	return f, nil
}

// UnlimitedSentinel is what the usage summary reports for unlimited features.
const UnlimitedSentinel int64 = 999999

// FeatureLimit is one row of the limit catalog.
type FeatureLimit struct {
	Tier         Tier       `json:"tier"`
	Feature      FeatureKey `json:"feature"`
	DailyLimit   int64      `json:"daily_limit"`
	MonthlyLimit int64      `json:"monthly_limit"`
	IsUnlimited  bool       `json:"is_unlimited"`
	UpdatedAt    time.Time  `json:"updated_at,omitempty"`
}

// Validate checks the row before it is written.
func (l *FeatureLimit) Validate() error {
	if _, err := ParseTier(string(l.Tier)); err != nil {
		return &ValidationError{Field: "tier", Message: "tier must be free, trial or premium"}
	}
	if !l.Feature.IsMetered() {
		return &ValidationError{Field: "feature", Message: "unknown feature key"}
	}
	if l.DailyLimit < 0 {
		return &ValidationError{Field: "daily_limit", Message: "daily limit cannot be negative"}
	}
	if l.MonthlyLimit < 0 {
		return &ValidationError{Field: "monthly_limit", Message: "monthly limit cannot be negative"}
	}
	return nil
}

// DenialReason explains why a decision was not approved.
type DenialReason string

const (
	ReasonLimitExceeded        DenialReason = "LIMIT_EXCEEDED"
	ReasonMonthlyLimitExceeded DenialReason = "MONTHLY_LIMIT_EXCEEDED"
	ReasonNotConfigured        DenialReason = "NOT_CONFIGURED"
)

// Decision is the outcome of an entitlement check.
type Decision struct {
	Approved    bool         `json:"approved"`
	Reason      DenialReason `json:"code,omitempty"`
	Tier        Tier         `json:"plan"`
	Feature     FeatureKey   `json:"feature"`
	Requested   int64        `json:"requested"`
	Used        int64        `json:"used"`
	Limit       int64        `json:"limit"`
	Remaining   int64        `json:"remaining"`
	IsUnlimited bool         `json:"is_unlimited"`
}

// UsageSnapshot maps every counter to today's consumption.
type UsageSnapshot map[FeatureKey]int64

// UsageSummary is the user-facing "my limits" payload.
type UsageSummary struct {
	Plan               string               `json:"plan"`
	Tier               Tier                 `json:"tier"`
	TrialDaysRemaining int                  `json:"trial_days_remaining"`
	Day                string               `json:"day"`
	Limits             map[FeatureKey]int64 `json:"limits"`
	Usage              map[FeatureKey]int64 `json:"usage"`
}

// LimitRepository is the limit catalog: (tier, feature) -> limit row.
type LimitRepository interface {
	// GetLimit returns ErrNotConfigured when no row exists for the pair.
	GetLimit(ctx context.Context, tier Tier, feature FeatureKey) (*FeatureLimit, error)
	ListLimits(ctx context.Context, tier Tier) (map[FeatureKey]*FeatureLimit, error)
	UpsertLimit(ctx context.Context, limit *FeatureLimit) error
}

// UsageRepository is the per-account, per-day usage ledger.
type UsageRepository interface {
	GetUsage(ctx context.Context, accountID, day string, feature FeatureKey) (int64, error)
	// Increment adds amount atomically, creating the day row when absent.
	Increment(ctx context.Context, accountID, day string, feature FeatureKey, amount int64) error
	GetUsageSnapshot(ctx context.Context, accountID, day string) (UsageSnapshot, error)
	// SumSince sums a counter over the inclusive day range [fromDay, toDay].
	SumSince(ctx context.Context, accountID, fromDay, toDay string, feature FeatureKey) (int64, error)
}

// AccountRepository loads account billing snapshots.
type AccountRepository interface {
	GetAccount(ctx context.Context, userID string, token string) (*Account, error)
}

// EntitlementService is the gate every feature-gated endpoint calls through.
type EntitlementService interface {
	CheckAndReserve(ctx context.Context, account *Account, feature FeatureKey, requested int64, now time.Time) (*Decision, error)
	Commit(ctx context.Context, accountID string, feature FeatureKey, units int64, now time.Time) error
	Consume(ctx context.Context, account *Account, feature FeatureKey, units int64, now time.Time) (*Decision, error)
	Summary(ctx context.Context, account *Account, now time.Time) (*UsageSummary, error)
	ListLimits(ctx context.Context, tier Tier) (map[FeatureKey]*FeatureLimit, error)
	UpsertLimit(ctx context.Context, limit *FeatureLimit) error
}

// AuthService validates tokens and resolves the caller's account.
type AuthService interface {
	ValidateToken(token string) (*SupabaseUser, error)
	GetAccount(ctx context.Context, userID string, token string) (*Account, error)
}
