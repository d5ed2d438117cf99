package processor

import (
	"context"
	"encoding/json"
	"time"

	"replyflow/internal/app/replies/entity"
	"replyflow/internal/app/replies/infrastructure"
	"replyflow/internal/app/replies/repository"
	"replyflow/pkg/logger"
	"replyflow/pkg/metrics"

	"github.com/robfig/cron/v3"
)

// SweepScheduler периодически переотправляет в очередь отзывы,
// у которых обработка не запустилась (отправка триггера из webhook
// fire-and-forget и могла провалиться)
type SweepScheduler struct {
	cron       *cron.Cron
	reviewRepo repository.ReviewRepository
	publisher  infrastructure.MessagePublisher
	cutoff     time.Duration
}

// NewSweepScheduler создает новый планировщик переотправки
func NewSweepScheduler(reviewRepo repository.ReviewRepository, publisher infrastructure.MessagePublisher, cutoff time.Duration) *SweepScheduler {
	return &SweepScheduler{
		cron:       cron.New(),
		reviewRepo: reviewRepo,
		publisher:  publisher,
		cutoff:     cutoff,
	}
}

// Start запускает планировщик по cron расписанию
func (s *SweepScheduler) Start(ctx context.Context, schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if err := s.Sweep(ctx); err != nil {
			logger.Error().Err(err).Msg("sweep run failed")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	logger.Info().Str("schedule", schedule).Msg("sweep scheduler started")

	return nil
}

// Stop останавливает планировщик, дожидаясь текущего прогона
func (s *SweepScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("sweep scheduler stopped")
}

// Sweep находит зависшие pending отзывы и переотправляет их события
func (s *SweepScheduler) Sweep(ctx context.Context) error {
	olderThan := time.Now().Add(-s.cutoff)

	stuck, err := s.reviewRepo.ListStuckPending(ctx, olderThan)
	if err != nil {
		return err
	}

	for _, review := range stuck {
		event := entity.ReviewReceivedEvent{
			EventType:  entity.EventTypeReviewReceived,
			BusinessID: review.BusinessID,
			ReviewID:   review.ID.Hex(),
			Timestamp:  time.Now(),
		}

		data, err := json.Marshal(event)
		if err != nil {
			logger.Error().Err(err).Str("review_id", review.ID.Hex()).Msg("failed to marshal sweep event")
			continue
		}

		if err := s.publisher.PublishMessage(ctx, review.ID.Hex(), data); err != nil {
			logger.Error().Err(err).Str("review_id", review.ID.Hex()).Msg("failed to re-enqueue stuck review")
			continue
		}

		metrics.SweepRequeued.Inc()
		logger.Info().Str("review_id", review.ID.Hex()).Msg("stuck review re-enqueued")
	}

	return nil
}
