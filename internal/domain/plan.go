package domain

import (
	"math"
	"strings"
	"time"
)

// FreePlan is the plan sentinel for accounts without a subscription.
const FreePlan = "free"

const usageDayLayout = "2006-01-02"

// ResolveTierForLimits maps a raw plan string to its base tier.
//
// Billing-period variants ("premium-yearly", "premium_monthly") collapse into
// premium; anything that does not mention premium, including an empty plan,
// is free.
func ResolveTierForLimits(plan string) Tier {
	p := strings.ToLower(strings.TrimSpace(plan))
	if p == "" || p == FreePlan {
		return TierFree
	}
	if strings.Contains(p, "premium") {
		return TierPremium
	}
	return TierFree
}

// ResolveTier derives the entitlement tier of an account at the given instant.
// It is a pure function of its inputs.
func ResolveTier(account *Account, now time.Time) Tier {
	if account == nil {
		return TierFree
	}
	if IsTrialActive(account, now) {
		return TierTrial
	}
	return ResolveTierForLimits(account.Plan)
}

// IsTrialActive reports whether the account's trial is still running at now.
func IsTrialActive(account *Account, now time.Time) bool {
	if account == nil || !account.IsTrial || account.TrialEndDate == nil {
		return false
	}
	return account.TrialEndDate.After(now)
}

// TrialDaysRemaining returns the number of started days left in an active trial.
func TrialDaysRemaining(account *Account, now time.Time) int {
	if !IsTrialActive(account, now) {
		return 0
	}
	left := account.TrialEndDate.Sub(now)
	return int(math.Ceil(left.Hours() / 24))
}

// UsageDay returns the calendar-day key usage is recorded under.
// A nil location means the server's local zone.
func UsageDay(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return now.In(loc).Format(usageDayLayout)
}

// MonthStart returns the day key of the first day of the month containing day.
func MonthStart(day string) (string, error) {
	t, err := time.Parse(usageDayLayout, day)
	if err != nil {
		return "", &ValidationError{Field: "day", Message: "day must be formatted as YYYY-MM-DD"}
	}
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).Format(usageDayLayout), nil
}
