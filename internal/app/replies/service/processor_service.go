package service

import (
	"context"
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

// Таймауты внешних вызовов: процессор не должен зависать вместе с триггером
const (
	generateTimeout = 45 * time.Second
	publishTimeout  = 15 * time.Second
	notifyTimeout   = 10 * time.Second
)

// ProcessorService владеет state machine жизненного цикла отзыва:
// pending -> quota_exceeded | posted | failed | pending (ручное подтверждение)
//
// Отказы публикации и квоты - статусы отзыва, не ошибки:
// наружу уходят только ошибки консистентности и инфраструктуры
type ProcessorService struct {
	reviewRepo   repository.ReviewRepository
	businessRepo repository.BusinessRepository
	accountRepo  repository.AccountRepository
	usageRepo    repository.UsageRepository
	quota        QuotaCheckerInterface
	generator    ReplyGenerator
	vault        *util.TokenVault
	platform     infrastructure.PlatformClient
	notifier     infrastructure.Notifier
	now          func() time.Time
}

// NewProcessorService создает новый процессор отзывов
func NewProcessorService(
	reviewRepo repository.ReviewRepository,
	businessRepo repository.BusinessRepository,
	accountRepo repository.AccountRepository,
	usageRepo repository.UsageRepository,
	quota QuotaCheckerInterface,
	generator ReplyGenerator,
	vault *util.TokenVault,
	platform infrastructure.PlatformClient,
	notifier infrastructure.Notifier,
) *ProcessorService {
	return &ProcessorService{
		reviewRepo:   reviewRepo,
		businessRepo: businessRepo,
		accountRepo:  accountRepo,
		usageRepo:    usageRepo,
		quota:        quota,
		generator:    generator,
		vault:        vault,
		platform:     platform,
		notifier:     notifier,
		now:          time.Now,
	}
}

// ProcessReview выполняет автоматическую обработку одного отзыва:
// проверка квоты -> генерация -> (auto-post ? публикация) -> уведомление
//
// Ошибки ErrReviewNotFound / ErrBusinessNotFound / ErrAccountNotFound сигналят
// о баге консистентности выше по потоку. Инфраструктурные ошибки (БД, Redis)
// тоже возвращаются - вызывающий может повторить. Бизнес-отказы фиксируются
// статусом отзыва и ошибкой не являются
func (p *ProcessorService) ProcessReview(ctx context.Context, reviewID string) error {
	review, err := p.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, repository.ErrReviewNotFound) {
			return fmt.Errorf("%w: %s", ErrReviewNotFound, reviewID)
		}
		return fmt.Errorf("failed to load review: %w", err)
	}

	businessID, err := uuid.Parse(review.BusinessID)
	if err != nil {
		return fmt.Errorf("%w: invalid business id %q", ErrBusinessNotFound, review.BusinessID)
	}

	business, err := p.businessRepo.GetByID(ctx, businessID)
	if err != nil {
		if errors.Is(err, repository.ErrBusinessNotFound) {
			return fmt.Errorf("%w: %s", ErrBusinessNotFound, review.BusinessID)
		}
		return fmt.Errorf("failed to load business: %w", err)
	}

	account, err := p.accountRepo.GetByID(ctx, business.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return fmt.Errorf("%w: %s", ErrAccountNotFound, business.AccountID)
		}
		return fmt.Errorf("failed to load account: %w", err)
	}

	// Квота проверяется до любых затрат на генерацию
	decision, err := p.quota.CheckReplyQuota(ctx, account)
	if err != nil {
		return fmt.Errorf("quota check failed: %w", err)
	}
	if !decision.Allowed {
		metrics.QuotaDenied.Inc()
		logger.Info().
			Str("review_id", reviewID).
			Int("current", decision.Current).
			Int("limit", decision.Limit).
			Msg("reply quota exceeded")
		return p.reviewRepo.SetStatus(ctx, reviewID, entity.StatusQuotaExceeded)
	}

	reply, err := p.generate(ctx, review, business.Settings)
	if err != nil {
		// Типизированная ошибка модели: фиксируем failed, не повторяем бесконечно
		metrics.RepliesGenerated.WithLabelValues("failed").Inc()
		logger.Error().Err(err).Str("review_id", reviewID).Msg("reply generation failed")
		return p.reviewRepo.SetStatus(ctx, reviewID, entity.StatusFailed)
	}

	generatedAt := p.now()
	if err := p.reviewRepo.SetAIReply(ctx, reviewID, reply, generatedAt); err != nil {
		return fmt.Errorf("failed to store generated reply: %w", err)
	}
	metrics.RepliesGenerated.WithLabelValues("success").Inc()

	// Счетчик квоты растет после успешной генерации
	period := repository.CurrentPeriod(generatedAt)
	if err := p.usageRepo.IncrReplyCount(ctx, account.ID.String(), period); err != nil {
		logger.Error().Err(err).Str("account_id", account.ID.String()).Msg("failed to increment usage counter")
	}

	review.AIReply = reply
	notification := entity.TemplateReplyGenerated

	if business.Settings.StarConfigFor(review.Rating).AutoReply {
		if err := p.autoPublish(ctx, account, review, reply); err != nil {
			// Провал публикации не распространяется на вызывающего
			metrics.RepliesPublished.WithLabelValues("auto", "failed").Inc()
			logger.Error().Err(err).Str("review_id", reviewID).Msg("auto publish failed")
			notification = entity.TemplatePublishFailed

			if err := p.reviewRepo.SetStatus(ctx, reviewID, entity.StatusFailed); err != nil {
				logger.Error().Err(err).Str("review_id", reviewID).Msg("failed to mark review failed")
			}
		} else {
			metrics.RepliesPublished.WithLabelValues("auto", "success").Inc()
		}
	}
	// При выключенном auto-reply отзыв остается pending до ручного подтверждения

	p.notify(ctx, notification, account, business, review)

	return nil
}

// generate вызывает языковую модель с ограниченным таймаутом
func (p *ProcessorService) generate(ctx context.Context, review *entity.Review, settings entity.ReplySettings) (string, error) {
	genCtx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	return p.generator.GenerateReply(genCtx, review, settings)
}

// autoPublish расшифровывает токен и публикует ответ
// Расшифрованный токен не покидает пределы этого вызова
func (p *ProcessorService) autoPublish(ctx context.Context, account *entity.Account, review *entity.Review, reply string) error {
	token, err := p.vault.Decrypt(account.RefreshTokenEnc)
	if err != nil {
		if !errors.Is(err, util.ErrTokenMissing) {
			metrics.VaultErrors.Inc()
		}
		return fmt.Errorf("failed to decrypt token: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.platform.PostReply(pubCtx, token, review.ResourceName, reply); err != nil {
		return fmt.Errorf("failed to post reply: %w", err)
	}

	if err := p.reviewRepo.MarkPosted(ctx, review.ID.Hex(), reply, entity.SystemActor, p.now(), false, entity.StatusPending); err != nil {
		// Ответ уже на платформе: статус failed здесь соврал бы,
		// оставляем pending и логируем расхождение отдельно
		logger.Error().Err(err).Str("review_id", review.ID.Hex()).Msg("reply published but status update failed")
	}

	return nil
}

// notify отправляет уведомление владельцу аккаунта
// Best-effort: ошибка никогда не меняет статус отзыва
func (p *ProcessorService) notify(ctx context.Context, template string, account *entity.Account, business *entity.Business, review *entity.Review) {
	payload := &entity.NotificationPayload{
		Template:     template,
		AccountEmail: account.Email,
		BusinessName: business.Name,
		ReviewerName: review.ReviewerName,
		Rating:       review.Rating,
		ReviewText:   review.Text,
		Reply:        review.AIReply,
	}

	notifyCtx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	if err := p.notifier.Send(notifyCtx, payload); err != nil {
		metrics.NotifierFailures.Inc()
		logger.Warn().Err(err).Str("review_id", review.ID.Hex()).Msg("notification send failed")
	}
}
