package repository

import (
	"context"
	"errors"
	"fmt"

	"doc-reader-api/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of *pgxpool.Pool the Postgres repositories use.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// usageColumns whitelists counter columns. Column names are never built from
// caller input outside this map.
var usageColumns = map[domain.FeatureKey]string{
	domain.FeatureCharacters:         "characters",
	domain.FeatureListeningTime:      "listening_time",
	domain.FeatureTranslations:       "translations",
	domain.FeatureVoiceCommands:      "voice_commands",
	domain.FeatureOCRPages:           "ocr_pages",
	domain.FeatureDownloads:          "downloads",
	domain.FeatureActionPoints:       "action_points",
	domain.FeatureSummaries:          "summaries",
	domain.FeatureChatbotQuestions:   "chatbot_questions",
	domain.FeatureNaturalVoices:      "natural_voices",
	domain.FeatureAdsFree:            "ads_free",
	domain.FeatureSocialMediaControl: "social_media_control",
	domain.CounterWordsRead:          "words_read",
}

func usageColumn(feature domain.FeatureKey) (string, error) {
	col, ok := usageColumns[feature]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownFeature, feature)
	}
	return col, nil
}

// numericOutOfRange is the SQLSTATE Postgres raises when a bigint counter overflows.
const numericOutOfRange = "22003"

func storageErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == numericOutOfRange {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrInvalidAmount, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
}
