package service

import (
	"context"
	"errors"

	"doc-reader-api/internal/domain"
)

type limitDefault struct {
	daily   int64
	monthly int64
}

// unlimited marks a default row as is_unlimited.
var unlimited = limitDefault{daily: -1}

var defaultLimits = map[domain.Tier]map[domain.FeatureKey]limitDefault{
	domain.TierFree: {
		domain.FeatureCharacters:         {daily: 10000},
		domain.FeatureListeningTime:      {daily: 1800},
		domain.FeatureTranslations:       {daily: 0},
		domain.FeatureVoiceCommands:      {daily: 10},
		domain.FeatureOCRPages:           {daily: 3},
		domain.FeatureDownloads:          {daily: 2},
		domain.FeatureActionPoints:       {daily: 1},
		domain.FeatureSummaries:          {daily: 2},
		domain.FeatureChatbotQuestions:   {daily: 5},
		domain.FeatureNaturalVoices:      {daily: 0},
		domain.FeatureAdsFree:            {daily: 0},
		domain.FeatureSocialMediaControl: {daily: 0},
	},
	domain.TierTrial: {
		domain.FeatureCharacters:         {daily: 100000},
		domain.FeatureListeningTime:      {daily: 14400},
		domain.FeatureTranslations:       {daily: 20},
		domain.FeatureVoiceCommands:      {daily: 100},
		domain.FeatureOCRPages:           {daily: 5},
		domain.FeatureDownloads:          {daily: 20},
		domain.FeatureActionPoints:       {daily: 20},
		domain.FeatureSummaries:          {daily: 20},
		domain.FeatureChatbotQuestions:   {daily: 50},
		domain.FeatureNaturalVoices:      unlimited,
		domain.FeatureAdsFree:            unlimited,
		domain.FeatureSocialMediaControl: unlimited,
	},
	domain.TierPremium: {
		domain.FeatureCharacters:         {daily: 500000},
		domain.FeatureListeningTime:      {daily: 86400},
		domain.FeatureTranslations:       {daily: 200, monthly: 3000},
		domain.FeatureVoiceCommands:      unlimited,
		domain.FeatureOCRPages:           {daily: 100, monthly: 1500},
		domain.FeatureDownloads:          unlimited,
		domain.FeatureActionPoints:       {daily: 200},
		domain.FeatureSummaries:          {daily: 200},
		domain.FeatureChatbotQuestions:   {daily: 300},
		domain.FeatureNaturalVoices:      unlimited,
		domain.FeatureAdsFree:            unlimited,
		domain.FeatureSocialMediaControl: unlimited,
	},
}

// DefaultLimits returns the bootstrap catalog: one row per tier and metered feature.
func DefaultLimits() []*domain.FeatureLimit {
	out := make([]*domain.FeatureLimit, 0, len(domain.Tiers())*len(domain.FeatureKeys()))
	for _, tier := range domain.Tiers() {
		for _, feature := range domain.FeatureKeys() {
			d := defaultLimits[tier][feature]
			row := &domain.FeatureLimit{Tier: tier, Feature: feature}
			if d == unlimited {
				row.IsUnlimited = true
			} else {
				row.DailyLimit = d.daily
				row.MonthlyLimit = d.monthly
			}
			out = append(out, row)
		}
	}
	return out
}

// SeedDefaultLimits inserts default rows for pairs that have none. Existing
// rows, including admin edits, are left untouched, so it is safe to run on
// every start.
func SeedDefaultLimits(ctx context.Context, repo domain.LimitRepository, logger domain.Logger) (int, error) {
	seeded := 0
	for _, row := range DefaultLimits() {
		_, err := repo.GetLimit(ctx, row.Tier, row.Feature)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotConfigured) {
			return seeded, err
		}
		if err := repo.UpsertLimit(ctx, row); err != nil {
			return seeded, err
		}
		seeded++
	}
	logger.Info("Feature limits seeded", "inserted", seeded)
	return seeded, nil
}
