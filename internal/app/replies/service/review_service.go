package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"replyflow/internal/app/replies/entity"
	"replyflow/internal/app/replies/infrastructure"
	"replyflow/internal/app/replies/repository"
	"replyflow/internal/app/replies/util"
	"replyflow/pkg/logger"
	"replyflow/pkg/metrics"

	"github.com/google/uuid"
)

// ReviewService выполняет ручные действия пользователя над отзывами
// Все переходы используют optimistic условия по исходному статусу,
// чтобы не затереть конкурентно завершившуюся автоматическую публикацию
type ReviewService struct {
	reviewRepo   repository.ReviewRepository
	businessRepo repository.BusinessRepository
	accountRepo  repository.AccountRepository
	vault        *util.TokenVault
	platform     infrastructure.PlatformClient
	publisher    infrastructure.MessagePublisher
}

// NewReviewService создает новый сервис ручных действий
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	businessRepo repository.BusinessRepository,
	accountRepo repository.AccountRepository,
	vault *util.TokenVault,
	platform infrastructure.PlatformClient,
	publisher infrastructure.MessagePublisher,
) *ReviewService {
	return &ReviewService{
		reviewRepo:   reviewRepo,
		businessRepo: businessRepo,
		accountRepo:  accountRepo,
		vault:        vault,
		platform:     platform,
		publisher:    publisher,
	}
}

// GetReviewsByBusiness возвращает отзывы бизнеса
func (s *ReviewService) GetReviewsByBusiness(ctx context.Context, businessID string) ([]entity.Review, error) {
	reviews, err := s.reviewRepo.GetByBusinessID(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}

	return reviews, nil
}

// RejectReview отклоняет сгенерированный ответ
// Допустимо только из pending или failed
func (s *ReviewService) RejectReview(ctx context.Context, reviewID string) error {
	err := s.reviewRepo.SetStatusFrom(ctx, reviewID, entity.StatusRejected, entity.StatusPending, entity.StatusFailed)
	if err != nil {
		return s.mapTransitionError(err)
	}

	return nil
}

// PublishReply публикует ответ вручную, возможно отредактированный
// Переход posted допустим только из pending или failed
func (s *ReviewService) PublishReply(ctx context.Context, reviewID, userID, reply string) (*entity.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to load review: %w", err)
	}

	if review.Status != entity.StatusPending && review.Status != entity.StatusFailed {
		return nil, ErrStatusConflict
	}

	businessID, err := uuid.Parse(review.BusinessID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid business id", ErrBusinessNotFound)
	}

	business, err := s.businessRepo.GetByID(ctx, businessID)
	if err != nil {
		if errors.Is(err, repository.ErrBusinessNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, fmt.Errorf("failed to load business: %w", err)
	}

	account, err := s.accountRepo.GetByID(ctx, business.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	token, err := s.vault.Decrypt(account.RefreshTokenEnc)
	if err != nil {
		if errors.Is(err, util.ErrTokenMissing) {
			return nil, ErrNoCredentials
		}
		return nil, fmt.Errorf("failed to decrypt token: %w", err)
	}

	if err := s.platform.PostReply(ctx, token, review.ResourceName, reply); err != nil {
		metrics.RepliesPublished.WithLabelValues("manual", "failed").Inc()
		return nil, fmt.Errorf("failed to post reply: %w", err)
	}
	metrics.RepliesPublished.WithLabelValues("manual", "success").Inc()

	edited := reply != review.AIReply
	postedAt := time.Now()

	err = s.reviewRepo.MarkPosted(ctx, reviewID, reply, userID, postedAt, edited, entity.StatusPending, entity.StatusFailed)
	if err != nil {
		// Ответ уже на платформе, расхождение статуса логируем отдельно
		logger.Error().Err(err).Str("review_id", reviewID).Msg("manual publish succeeded but status update failed")
		return nil, s.mapTransitionError(err)
	}

	review.Status = entity.StatusPosted
	review.PostedReply = reply
	review.PostedAt = &postedAt
	review.PostedBy = userID
	review.Edited = edited

	return review, nil
}

// RegenerateReview сбрасывает неудавшийся отзыв в pending
// и переотправляет его в очередь обработки
func (s *ReviewService) RegenerateReview(ctx context.Context, reviewID string) error {
	review, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("failed to load review: %w", err)
	}

	err = s.reviewRepo.SetStatusFrom(ctx, reviewID, entity.StatusPending, entity.StatusFailed, entity.StatusQuotaExceeded)
	if err != nil {
		return s.mapTransitionError(err)
	}

	businessID, err := uuid.Parse(review.BusinessID)
	if err != nil {
		return fmt.Errorf("%w: invalid business id", ErrBusinessNotFound)
	}

	business, err := s.businessRepo.GetByID(ctx, businessID)
	if err != nil {
		return fmt.Errorf("failed to load business: %w", err)
	}

	event := entity.ReviewReceivedEvent{
		EventType:  entity.EventTypeReviewReceived,
		AccountID:  business.AccountID.String(),
		BusinessID: review.BusinessID,
		ReviewID:   reviewID,
		Timestamp:  time.Now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := s.publisher.PublishMessage(ctx, reviewID, data); err != nil {
		return fmt.Errorf("failed to enqueue regeneration: %w", err)
	}

	return nil
}

func (s *ReviewService) mapTransitionError(err error) error {
	if errors.Is(err, repository.ErrReviewNotFound) {
		return ErrReviewNotFound
	}
	if errors.Is(err, repository.ErrStatusConflict) {
		return ErrStatusConflict
	}
	return err
}
