package repository

import (
	"context"
	"errors"
	"fmt"

	"replyflow/internal/app/replies/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// businessRepository реализует BusinessRepository для работы с PostgreSQL через GORM
type businessRepository struct {
	db *gorm.DB
}

// NewBusinessRepository создает новый репозиторий бизнесов
func NewBusinessRepository(db *gorm.DB) BusinessRepository {
	return &businessRepository{db: db}
}

// Create создает новый бизнес
func (r *businessRepository) Create(ctx context.Context, business *entity.Business) error {
	if business.ID == uuid.Nil {
		business.ID = uuid.New()
	}

	result := r.db.WithContext(ctx).Create(business)
	if result.Error != nil {
		return fmt.Errorf("failed to create business: %w", result.Error)
	}

	return nil
}

// GetByID получает бизнес по ID
func (r *businessRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Business, error) {
	var business entity.Business

	result := r.db.WithContext(ctx).Where("id = ?", id).First(&business)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, fmt.Errorf("failed to get business: %w", result.Error)
	}

	return &business, nil
}

// GetByExternalLocationID получает бизнес по внешнему ID локации
// external_location_id уникален во всей системе - по нему маршрутизируются уведомления
func (r *businessRepository) GetByExternalLocationID(ctx context.Context, externalLocationID string) (*entity.Business, error) {
	var business entity.Business

	result := r.db.WithContext(ctx).Where("external_location_id = ?", externalLocationID).First(&business)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, fmt.Errorf("failed to get business by location: %w", result.Error)
	}

	return &business, nil
}

// Delete удаляет бизнес
// Используется компенсирующим откатом при неудачной подписке на уведомления
func (r *businessRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Business{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete business: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return ErrBusinessNotFound
	}

	return nil
}

// CountByAccount считает подключенные бизнесы аккаунта (для проверки квоты)
func (r *businessRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var count int64

	result := r.db.WithContext(ctx).
		Model(&entity.Business{}).
		Where("account_id = ?", accountID).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count businesses: %w", result.Error)
	}

	return count, nil
}
