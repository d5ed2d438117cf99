package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"replyflow/internal/app/replies/entity"
	"replyflow/internal/app/replies/infrastructure"
	"replyflow/internal/app/replies/repository"
	"replyflow/internal/app/replies/util"
	"replyflow/pkg/logger"
	"replyflow/pkg/metrics"
)

// IngestOutcome исход обработки входящего уведомления
// Все исходы кроме ingested - терминальные для этой доставки, очередь получает ack
type IngestOutcome string

const (
	OutcomeIngested             IngestOutcome = "ingested"
	OutcomeDuplicate            IngestOutcome = "duplicate"
	OutcomeUnknownType          IngestOutcome = "unknown_type"
	OutcomeBusinessNotFound     IngestOutcome = "business_not_found"
	OutcomeBusinessDisconnected IngestOutcome = "business_disconnected"
	OutcomeMissingCredentials   IngestOutcome = "missing_credentials"
)

// IngestResult результат приема уведомления
type IngestResult struct {
	Outcome  IngestOutcome `json:"outcome"`
	ReviewID string        `json:"review_id,omitempty"`
}

// IngestService принимает push уведомления платформы отзывов
// Гарантирует ровно одну строку Review на (business, external_review_id)
// при at-least-once доставке
type IngestService struct {
	businessRepo repository.BusinessRepository
	accountRepo  repository.AccountRepository
	reviewRepo   repository.ReviewRepository
	vault        *util.TokenVault
	platform     infrastructure.PlatformClient
	publisher    infrastructure.MessagePublisher
}

// NewIngestService создает новый сервис приема уведомлений
func NewIngestService(
	businessRepo repository.BusinessRepository,
	accountRepo repository.AccountRepository,
	reviewRepo repository.ReviewRepository,
	vault *util.TokenVault,
	platform infrastructure.PlatformClient,
	publisher infrastructure.MessagePublisher,
) *IngestService {
	return &IngestService{
		businessRepo: businessRepo,
		accountRepo:  accountRepo,
		reviewRepo:   reviewRepo,
		vault:        vault,
		platform:     platform,
		publisher:    publisher,
	}
}

// HandleNotification обрабатывает конверт push доставки
// Возврат ошибки означает nack: очередь доставит уведомление повторно
// Возврат результата без ошибки - всегда ack, независимо от исхода
func (s *IngestService) HandleNotification(ctx context.Context, envelope *entity.PushEnvelope) (*IngestResult, error) {
	notification, err := decodeNotification(envelope)
	if err != nil {
		return nil, err
	}

	// Неизвестные типы уведомлений не являются ошибкой
	if notification.Type != entity.NotificationNewReview && notification.Type != entity.NotificationUpdatedReview {
		logger.Debug().Str("type", notification.Type).Msg("ignoring unknown notification type")
		return s.skip(OutcomeUnknownType), nil
	}

	// Маршрутизация по внешнему ID локации
	business, err := s.businessRepo.GetByExternalLocationID(ctx, notification.Location)
	if err != nil {
		if errors.Is(err, repository.ErrBusinessNotFound) {
			// Повтор не поможет: уведомление никогда не найдет бизнес
			// Метрика отличает это состояние от тихой потери данных
			logger.Warn().Str("location", notification.Location).Msg("notification for unknown location")
			return s.skip(OutcomeBusinessNotFound), nil
		}
		return nil, fmt.Errorf("failed to resolve business: %w", err)
	}

	if !business.Connected {
		logger.Info().Str("business_id", business.ID.String()).Msg("business disconnected, skipping notification")
		return s.skip(OutcomeBusinessDisconnected), nil
	}

	account, err := s.accountRepo.GetByID(ctx, business.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			logger.Error().Str("business_id", business.ID.String()).Msg("business without account")
			return s.skip(OutcomeBusinessNotFound), nil
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	token, err := s.vault.Decrypt(account.RefreshTokenEnc)
	if err != nil {
		if errors.Is(err, util.ErrTokenMissing) {
			// Без токена детали отзыва не получить, повтор бесполезен
			logger.Warn().Str("account_id", account.ID.String()).Msg("account has no platform credentials")
			return s.skip(OutcomeMissingCredentials), nil
		}
		// Поврежденный шифртекст или ротированный секрет - жесткая ошибка
		metrics.VaultErrors.Inc()
		return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
	}

	detail, err := s.platform.GetReview(ctx, token, notification.Review)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch review detail: %w", err)
	}

	review, err := mapPlatformReview(business.ID.String(), notification.Review, detail)
	if err != nil {
		return nil, err
	}

	// Идемпотентная проверка перед вставкой
	if _, err := s.reviewRepo.FindByExternalReviewID(ctx, review.BusinessID, review.ExternalReviewID); err == nil {
		return s.skip(OutcomeDuplicate), nil
	} else if !errors.Is(err, repository.ErrReviewNotFound) {
		return nil, fmt.Errorf("idempotency check failed: %w", err)
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		// Уникальный индекс закрывает гонку между lookup и insert
		if errors.Is(err, repository.ErrDuplicateReview) {
			return s.skip(OutcomeDuplicate), nil
		}
		return nil, fmt.Errorf("failed to persist review: %w", err)
	}

	// Fire-and-forget: отзыв уже сохранен, неудачный триггер подберет sweep
	s.enqueueProcessing(ctx, account.ID.String(), business.ID.String(), review.ID.Hex())

	metrics.WebhookNotifications.WithLabelValues(string(OutcomeIngested)).Inc()
	return &IngestResult{Outcome: OutcomeIngested, ReviewID: review.ID.Hex()}, nil
}

// enqueueProcessing отправляет событие запуска обработки
// Ошибка только логируется: она не должна провалить ответ webhook'а
func (s *IngestService) enqueueProcessing(ctx context.Context, accountID, businessID, reviewID string) {
	event := entity.ReviewReceivedEvent{
		EventType:  entity.EventTypeReviewReceived,
		AccountID:  accountID,
		BusinessID: businessID,
		ReviewID:   reviewID,
		Timestamp:  time.Now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Str("review_id", reviewID).Msg("failed to marshal processing event")
		return
	}

	if err := s.publisher.PublishMessage(ctx, reviewID, data); err != nil {
		logger.Error().Err(err).Str("review_id", reviewID).Msg("failed to enqueue review processing")
	}
}

func (s *IngestService) skip(outcome IngestOutcome) *IngestResult {
	metrics.WebhookNotifications.WithLabelValues(string(outcome)).Inc()
	return &IngestResult{Outcome: outcome}
}

// decodeNotification декодирует base64 payload конверта
// Ошибка декодирования трактуется как транзиентная: очередь повторит доставку
func decodeNotification(envelope *entity.PushEnvelope) (*entity.ReviewNotification, error) {
	raw, err := base64.StdEncoding.DecodeString(envelope.Message.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}

	var notification entity.ReviewNotification
	if err := json.Unmarshal(raw, &notification); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}

	if notification.Type == "" || notification.Review == "" || notification.Location == "" {
		return nil, fmt.Errorf("%w: missing required fields", ErrMalformedEnvelope)
	}

	return &notification, nil
}

// mapPlatformReview валидирует и конвертирует отзыв из формата платформы
func mapPlatformReview(businessID, resourceName string, detail *entity.PlatformReview) (*entity.Review, error) {
	rating := entity.RatingFromStarEnum(detail.StarRating)
	if rating == 0 {
		return nil, fmt.Errorf("invalid star rating %q for review %s", detail.StarRating, resourceName)
	}

	externalID := detail.ReviewID
	if externalID == "" {
		// Последний сегмент имени ресурса: accounts/x/locations/y/reviews/z
		parts := strings.Split(resourceName, "/")
		externalID = parts[len(parts)-1]
	}
	if externalID == "" {
		return nil, fmt.Errorf("review %s has no identifier", resourceName)
	}

	return &entity.Review{
		BusinessID:       businessID,
		ExternalReviewID: externalID,
		ResourceName:     resourceName,
		ReviewerName:     detail.Reviewer.DisplayName,
		ReviewerPhotoURL: detail.Reviewer.ProfilePhotoURL,
		Rating:           rating,
		Text:             detail.Comment,
		ReviewDate:       detail.CreateTime,
		ReceivedAt:       time.Now(),
		Status:           entity.StatusPending,
	}, nil
}
