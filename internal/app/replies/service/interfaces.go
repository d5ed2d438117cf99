package service

import (
	"context"

	"replyflow/internal/app/replies/entity"
)

// ReplyGenerator определяет интерфейс генерации AI ответов
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, review *entity.Review, settings entity.ReplySettings) (string, error)
}

// ReviewProcessorInterface определяет интерфейс процессора отзывов
// Используется Kafka consumer'ом и внутренним HTTP триггером
type ReviewProcessorInterface interface {
	ProcessReview(ctx context.Context, reviewID string) error
}

// QuotaCheckerInterface определяет интерфейс проверки квоты
type QuotaCheckerInterface interface {
	CheckReplyQuota(ctx context.Context, account *entity.Account) (QuotaDecision, error)
	CheckBusinessQuota(ctx context.Context, account *entity.Account) (QuotaDecision, error)
}
