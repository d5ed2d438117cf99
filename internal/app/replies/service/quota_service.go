package service

import (
	"context"
	"fmt"
	"time"

	"replyflow/internal/app/replies/entity"
	"replyflow/internal/app/replies/repository"
)

// QuotaDecision результат проверки квоты
type QuotaDecision struct {
	Allowed bool `json:"allowed"`
	Current int  `json:"current"`
	Limit   int  `json:"limit"`
}

// QuotaService проверяет квоты тарифа аккаунта
// Само решение - чистая функция без побочных эффектов
type QuotaService struct {
	usageRepo    repository.UsageRepository
	businessRepo repository.BusinessRepository
	now          func() time.Time
}

// NewQuotaService создает новый сервис проверки квот
func NewQuotaService(usageRepo repository.UsageRepository, businessRepo repository.BusinessRepository) *QuotaService {
	return &QuotaService{
		usageRepo:    usageRepo,
		businessRepo: businessRepo,
		now:          time.Now,
	}
}

// Evaluate решает, допустим ли еще один элемент при текущем счетчике
// Ровно на лимите - уже запрещено: допускается только строго ниже
func Evaluate(current, limit int) QuotaDecision {
	return QuotaDecision{
		Allowed: current < limit,
		Current: current,
		Limit:   limit,
	}
}

// CheckReplyQuota проверяет, может ли аккаунт обработать еще один отзыв
// в текущем расчетном периоде
func (s *QuotaService) CheckReplyQuota(ctx context.Context, account *entity.Account) (QuotaDecision, error) {
	period := repository.CurrentPeriod(s.now())

	count, err := s.usageRepo.ReplyCount(ctx, account.ID.String(), period)
	if err != nil {
		return QuotaDecision{}, fmt.Errorf("failed to get reply usage: %w", err)
	}

	limits := entity.LimitsFor(account.SubscriptionTier)
	return Evaluate(count, limits.MaxReplies), nil
}

// CheckBusinessQuota проверяет, может ли аккаунт подключить еще одну локацию
func (s *QuotaService) CheckBusinessQuota(ctx context.Context, account *entity.Account) (QuotaDecision, error) {
	count, err := s.businessRepo.CountByAccount(ctx, account.ID)
	if err != nil {
		return QuotaDecision{}, fmt.Errorf("failed to count businesses: %w", err)
	}

	limits := entity.LimitsFor(account.SubscriptionTier)
	return Evaluate(int(count), limits.MaxBusinesses), nil
}
