package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Счетчики живут дольше расчетного периода с запасом,
// чтобы переживать скачки часов на границе месяца
const usageCounterTTL = 40 * 24 * time.Hour

// usageRepository реализует UsageRepository поверх Redis счетчиков
// Ключ: usage:replies:<account_id>:<YYYY-MM>
type usageRepository struct {
	client *redis.Client
}

// NewUsageRepository создает новый репозиторий счетчиков использования
func NewUsageRepository(client *redis.Client) UsageRepository {
	return &usageRepository{client: client}
}

// ReplyCount возвращает число обработанных отзывов аккаунта за период
func (r *usageRepository) ReplyCount(ctx context.Context, accountID string, period string) (int, error) {
	key := replyCountKey(accountID, period)

	count, err := r.client.Get(ctx, key).Int()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get reply count: %w", err)
	}

	return count, nil
}

// IncrReplyCount инкрементирует счетчик после успешной генерации ответа
func (r *usageRepository) IncrReplyCount(ctx context.Context, accountID string, period string) error {
	key := replyCountKey(accountID, period)

	pipe := r.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, usageCounterTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to increment reply count: %w", err)
	}

	return nil
}

func replyCountKey(accountID, period string) string {
	return fmt.Sprintf("usage:replies:%s:%s", accountID, period)
}

// CurrentPeriod возвращает ключ текущего расчетного периода (календарный месяц)
func CurrentPeriod(now time.Time) string {
	return now.UTC().Format("2006-01")
}
