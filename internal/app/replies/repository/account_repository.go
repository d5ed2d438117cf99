package repository

import (
	"context"
	"errors"
	"fmt"

	"replyflow/internal/app/replies/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// accountRepository реализует AccountRepository для работы с PostgreSQL через GORM
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository создает новый репозиторий аккаунтов
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

// GetByID получает аккаунт по ID
func (r *accountRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	var account entity.Account

	result := r.db.WithContext(ctx).Where("id = ?", id).First(&account)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", result.Error)
	}

	return &account, nil
}
