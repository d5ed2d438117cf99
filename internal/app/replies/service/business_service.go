package service

import (
	"context"
	"errors"
	"fmt"

	"replyflow/internal/app/replies/entity"
	"replyflow/internal/app/replies/infrastructure"
	"replyflow/internal/app/replies/repository"
	"replyflow/internal/app/replies/util"
	"replyflow/pkg/logger"

	"github.com/google/uuid"
)

// BusinessService подключает локации платформы отзывов
type BusinessService struct {
	businessRepo repository.BusinessRepository
	accountRepo  repository.AccountRepository
	vault        *util.TokenVault
	platform     infrastructure.PlatformClient
	quota        QuotaCheckerInterface
}

// NewBusinessService создает новый сервис бизнесов
func NewBusinessService(
	businessRepo repository.BusinessRepository,
	accountRepo repository.AccountRepository,
	vault *util.TokenVault,
	platform infrastructure.PlatformClient,
	quota QuotaCheckerInterface,
) *BusinessService {
	return &BusinessService{
		businessRepo: businessRepo,
		accountRepo:  accountRepo,
		vault:        vault,
		platform:     platform,
		quota:        quota,
	}
}

// ConnectBusiness создает бизнес и подписывает его на push уведомления
// как одну логическую операцию. Подписка - внешний вызов, в транзакцию БД
// она не помещается, поэтому при ее провале созданная запись удаляется:
// бизнес не должен существовать в состоянии "создан, но недостижим"
func (s *BusinessService) ConnectBusiness(ctx context.Context, req *entity.ConnectBusinessRequest) (*entity.Business, error) {
	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		return nil, fmt.Errorf("invalid account id: %w", err)
	}

	account, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	decision, err := s.quota.CheckBusinessQuota(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("quota check failed: %w", err)
	}
	if !decision.Allowed {
		return nil, fmt.Errorf("%w: %d of %d businesses connected", ErrQuotaExceeded, decision.Current, decision.Limit)
	}

	token, err := s.vault.Decrypt(account.RefreshTokenEnc)
	if err != nil {
		if errors.Is(err, util.ErrTokenMissing) {
			return nil, ErrNoCredentials
		}
		return nil, fmt.Errorf("failed to decrypt token: %w", err)
	}

	business := &entity.Business{
		ID:                 uuid.New(),
		AccountID:          account.ID,
		Name:               req.Name,
		ExternalLocationID: req.ExternalLocationID,
		Connected:          true,
		Settings:           req.Settings,
	}

	if err := s.businessRepo.Create(ctx, business); err != nil {
		return nil, fmt.Errorf("failed to create business: %w", err)
	}

	if err := s.platform.SubscribeToNotifications(ctx, token, business.ExternalLocationID); err != nil {
		// Компенсирующий откат: запись без подписки бесполезна
		if delErr := s.businessRepo.Delete(ctx, business.ID); delErr != nil {
			logger.Error().
				Err(delErr).
				Str("business_id", business.ID.String()).
				Msg("rollback failed: orphaned business left behind")
		}
		return nil, fmt.Errorf("failed to subscribe location to notifications: %w", err)
	}

	logger.Info().
		Str("business_id", business.ID.String()).
		Str("location", business.ExternalLocationID).
		Msg("business connected")

	return business, nil
}

// ListLocations возвращает локации, доступные аккаунту на платформе
func (s *BusinessService) ListLocations(ctx context.Context, accountID string) ([]entity.PlatformLocation, error) {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return nil, fmt.Errorf("invalid account id: %w", err)
	}

	account, err := s.accountRepo.GetByID(ctx, id)
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

	locations, err := s.platform.ListLocations(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}

	return locations, nil
}
