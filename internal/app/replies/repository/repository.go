package repository

import (
	"context"
	"errors"
	"time"

	"replyflow/internal/app/replies/entity"

	"github.com/google/uuid"
)

var (
	// Стандартные ошибки репозиториев для обработки в service layer
	ErrAccountNotFound  = errors.New("account not found")
	ErrBusinessNotFound = errors.New("business not found")
	ErrReviewNotFound   = errors.New("review not found")
	// ErrDuplicateReview - нарушение уникальности (business_id, external_review_id)
	// Закрывает гонку между lookup и insert при конкурентной доставке
	ErrDuplicateReview = errors.New("review already exists")
	// ErrStatusConflict - отзыв уже не в допустимом исходном статусе
	ErrStatusConflict = errors.New("review status conflict")
)

// AccountRepository определяет методы для работы с аккаунтами в PostgreSQL
type AccountRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Account, error)
}

// BusinessRepository определяет методы для работы с бизнесами в PostgreSQL
type BusinessRepository interface {
	Create(ctx context.Context, business *entity.Business) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Business, error)
	GetByExternalLocationID(ctx context.Context, externalLocationID string) (*entity.Business, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
}

// ReviewRepository определяет методы для работы с отзывами в MongoDB
type ReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	GetByID(ctx context.Context, id string) (*entity.Review, error)
	FindByExternalReviewID(ctx context.Context, businessID, externalReviewID string) (*entity.Review, error)
	GetByBusinessID(ctx context.Context, businessID string) ([]entity.Review, error)
	SetAIReply(ctx context.Context, id string, reply string, generatedAt time.Time) error
	SetStatus(ctx context.Context, id string, status entity.ReviewStatus) error
	// SetStatusFrom меняет статус только если текущий входит в from
	// Возвращает ErrStatusConflict при несовпадении (optimistic условие для ручных действий)
	SetStatusFrom(ctx context.Context, id string, to entity.ReviewStatus, from ...entity.ReviewStatus) error
	// MarkPosted выставляет posted вместе с данными публикации, тоже под optimistic условием
	MarkPosted(ctx context.Context, id string, reply, actor string, postedAt time.Time, edited bool, from ...entity.ReviewStatus) error
	// ListStuckPending возвращает отзывы без сгенерированного ответа старше cutoff
	ListStuckPending(ctx context.Context, olderThan time.Time) ([]entity.Review, error)
}

// UsageRepository определяет счетчики использования за расчетный период в Redis
type UsageRepository interface {
	ReplyCount(ctx context.Context, accountID string, period string) (int, error)
	IncrReplyCount(ctx context.Context, accountID string, period string) error
}
