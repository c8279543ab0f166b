// Package workers holds the Asynq task handlers run by cmd/worker.
package workers

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/bartrekker/admin-api/internal/analytics"
	"github.com/bartrekker/admin-api/internal/models"
)

// HandleAnalyticsEvent persists one analytics event from the queue. Event
// rows are append-only; the type is the task type, the detail carries the
// event-specific tag.
func HandleAnalyticsEvent(ctx context.Context, t *asynq.Task, db *gorm.DB, log zerolog.Logger) error {
	payload, err := analytics.ParseEventPayload(t)
	if err != nil {
		log.Error().Err(err).Str("type", t.Type()).Msg("Malformed analytics payload, dropping")
		// Malformed payloads never become processable; drop instead of retry
		return nil
	}

	event := &models.AnalyticsEvent{
		Type:   t.Type(),
		Detail: payload.Detail,
	}
	if err := db.WithContext(ctx).Create(event).Error; err != nil {
		log.Error().Err(err).Str("type", t.Type()).Msg("Failed to persist analytics event")
		return err
	}

	log.Debug().Str("type", t.Type()).Str("detail", payload.Detail).Msg("Analytics event recorded")
	return nil
}
