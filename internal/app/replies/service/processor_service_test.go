package service

import (
	"context"
	"errors"
	"testing"

	"replyflow/internal/app/replies/entity"
	"replyflow/internal/app/replies/repository"
	"replyflow/internal/app/replies/repository/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockQuotaChecker мок для QuotaCheckerInterface
type MockQuotaChecker struct {
	mock.Mock
}

func (m *MockQuotaChecker) CheckReplyQuota(ctx context.Context, account *entity.Account) (QuotaDecision, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(QuotaDecision), args.Error(1)
}

func (m *MockQuotaChecker) CheckBusinessQuota(ctx context.Context, account *entity.Account) (QuotaDecision, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(QuotaDecision), args.Error(1)
}

// MockReplyGenerator мок для ReplyGenerator
type MockReplyGenerator struct {
	mock.Mock
}

func (m *MockReplyGenerator) GenerateReply(ctx context.Context, review *entity.Review, settings entity.ReplySettings) (string, error) {
	args := m.Called(ctx, review, settings)
	return args.String(0), args.Error(1)
}

type processorFixture struct {
	service      *ProcessorService
	reviewRepo   *mocks.MockReviewRepository
	businessRepo *mocks.MockBusinessRepository
	accountRepo  *mocks.MockAccountRepository
	usageRepo    *mocks.MockUsageRepository
	quota        *MockQuotaChecker
	generator    *MockReplyGenerator
	platform     *mocks.MockPlatformClient
	notifier     *mocks.MockNotifier

	review   *entity.Review
	business *entity.Business
	account  *entity.Account
}

// newProcessorFixture собирает процессор с согласованной связкой
// review -> business -> account и валидным зашифрованным токеном
func newProcessorFixture(t *testing.T, autoReply bool) *processorFixture {
	t.Helper()

	vault := newTestVault(t)
	f := &processorFixture{
		reviewRepo:   new(mocks.MockReviewRepository),
		businessRepo: new(mocks.MockBusinessRepository),
		accountRepo:  new(mocks.MockAccountRepository),
		usageRepo:    new(mocks.MockUsageRepository),
		quota:        new(MockQuotaChecker),
		generator:    new(MockReplyGenerator),
		platform:     new(mocks.MockPlatformClient),
		notifier:     new(mocks.MockNotifier),
	}

	f.service = NewProcessorService(
		f.reviewRepo, f.businessRepo, f.accountRepo, f.usageRepo,
		f.quota, f.generator, vault, f.platform, f.notifier,
	)

	businessID := uuid.New()
	accountID := uuid.New()

	f.business = &entity.Business{
		ID:        businessID,
		AccountID: accountID,
		Name:      "Cafe Aurora",
		Connected: true,
		Settings: entity.ReplySettings{
			StarConfigs: map[int]entity.StarConfig{
				5: {AutoReply: autoReply},
			},
		},
	}
	f.account = &entity.Account{
		ID:               accountID,
		Email:            "owner@example.com",
		SubscriptionTier: entity.TierStarter,
		RefreshTokenEnc:  encryptToken(t, vault, "refresh-token"),
	}
	f.review = &entity.Review{
		ID:           primitive.NewObjectID(),
		BusinessID:   businessID.String(),
		ResourceName: "accounts/1/locations/2/reviews/ext-1",
		ReviewerName: "Anna",
		Rating:       5,
		Text:         "Great!",
		Status:       entity.StatusPending,
	}

	return f
}

func (f *processorFixture) expectLoad(ctx context.Context) {
	f.reviewRepo.On("GetByID", ctx, f.review.ID.Hex()).Return(f.review, nil)
	f.businessRepo.On("GetByID", ctx, f.business.ID).Return(f.business, nil)
	f.accountRepo.On("GetByID", ctx, f.account.ID).Return(f.account, nil)
}

func TestProcessReview_QuotaExceeded(t *testing.T) {
	f := newProcessorFixture(t, true)
	ctx := context.Background()

	f.expectLoad(ctx)
	f.quota.On("CheckReplyQuota", ctx, f.account).Return(QuotaDecision{Allowed: false, Current: 100, Limit: 100}, nil)
	f.reviewRepo.On("SetStatus", ctx, f.review.ID.Hex(), entity.StatusQuotaExceeded).Return(nil)

	err := f.service.ProcessReview(ctx, f.review.ID.Hex())

	assert.NoError(t, err)
	// Квота проверяется до генерации: модель не вызывалась
	f.generator.AssertNotCalled(t, "GenerateReply", mock.Anything, mock.Anything, mock.Anything)
	f.reviewRepo.AssertCalled(t, "SetStatus", ctx, f.review.ID.Hex(), entity.StatusQuotaExceeded)
}

func TestProcessReview_GenerationFailed(t *testing.T) {
	f := newProcessorFixture(t, true)
	ctx := context.Background()

	f.expectLoad(ctx)
	f.quota.On("CheckReplyQuota", ctx, f.account).Return(QuotaDecision{Allowed: true, Current: 1, Limit: 100}, nil)
	f.generator.On("GenerateReply", mock.Anything, f.review, f.business.Settings).Return("", ErrGeneration)
	f.reviewRepo.On("SetStatus", ctx, f.review.ID.Hex(), entity.StatusFailed).Return(nil)

	err := f.service.ProcessReview(ctx, f.review.ID.Hex())

	assert.NoError(t, err)
	f.reviewRepo.AssertNotCalled(t, "SetAIReply", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.usageRepo.AssertNotCalled(t, "IncrReplyCount", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessReview_AutoPublishSuccess(t *testing.T) {
	f := newProcessorFixture(t, true)
	ctx := context.Background()

	f.expectLoad(ctx)
	f.quota.On("CheckReplyQuota", ctx, f.account).Return(QuotaDecision{Allowed: true, Current: 1, Limit: 100}, nil)
	f.generator.On("GenerateReply", mock.Anything, f.review, f.business.Settings).Return("Thank you, Anna!", nil)
	f.reviewRepo.On("SetAIReply", ctx, f.review.ID.Hex(), "Thank you, Anna!", mock.AnythingOfType("time.Time")).Return(nil)
	f.usageRepo.On("IncrReplyCount", ctx, f.account.ID.String(), mock.AnythingOfType("string")).Return(nil)
	f.platform.On("PostReply", mock.Anything, "refresh-token", f.review.ResourceName, "Thank you, Anna!").Return(nil)
	f.reviewRepo.On("MarkPosted", ctx, f.review.ID.Hex(), "Thank you, Anna!", entity.SystemActor,
		mock.AnythingOfType("time.Time"), false, []entity.ReviewStatus{entity.StatusPending}).Return(nil)
	f.notifier.On("Send", mock.Anything, mock.AnythingOfType("*entity.NotificationPayload")).Return(nil)

	err := f.service.ProcessReview(ctx, f.review.ID.Hex())

	assert.NoError(t, err)
	f.platform.AssertExpectations(t)
	f.reviewRepo.AssertExpectations(t)

	// Уведомление об успешной генерации
	payload := f.notifier.Calls[0].Arguments.Get(1).(*entity.NotificationPayload)
	assert.Equal(t, entity.TemplateReplyGenerated, payload.Template)
	assert.Equal(t, "owner@example.com", payload.AccountEmail)
}

func TestProcessReview_AutoReplyDisabledStaysPending(t *testing.T) {
	f := newProcessorFixture(t, false)
	ctx := context.Background()

	f.expectLoad(ctx)
	f.quota.On("CheckReplyQuota", ctx, f.account).Return(QuotaDecision{Allowed: true, Current: 1, Limit: 100}, nil)
	f.generator.On("GenerateReply", mock.Anything, f.review, f.business.Settings).Return("Thanks!", nil)
	f.reviewRepo.On("SetAIReply", ctx, f.review.ID.Hex(), "Thanks!", mock.AnythingOfType("time.Time")).Return(nil)
	f.usageRepo.On("IncrReplyCount", ctx, f.account.ID.String(), mock.AnythingOfType("string")).Return(nil)
	f.notifier.On("Send", mock.Anything, mock.Anything).Return(nil)

	err := f.service.ProcessReview(ctx, f.review.ID.Hex())

	assert.NoError(t, err)
	// Без auto-reply публикации нет, отзыв ждет ручного подтверждения
	f.platform.AssertNotCalled(t, "PostReply", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.reviewRepo.AssertNotCalled(t, "MarkPosted", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessReview_AutoPublishFailure(t *testing.T) {
	f := newProcessorFixture(t, true)
	ctx := context.Background()

	f.expectLoad(ctx)
	f.quota.On("CheckReplyQuota", ctx, f.account).Return(QuotaDecision{Allowed: true, Current: 1, Limit: 100}, nil)
	f.generator.On("GenerateReply", mock.Anything, f.review, f.business.Settings).Return("Thanks!", nil)
	f.reviewRepo.On("SetAIReply", ctx, f.review.ID.Hex(), "Thanks!", mock.AnythingOfType("time.Time")).Return(nil)
	f.usageRepo.On("IncrReplyCount", ctx, f.account.ID.String(), mock.AnythingOfType("string")).Return(nil)
	f.platform.On("PostReply", mock.Anything, "refresh-token", f.review.ResourceName, "Thanks!").Return(errors.New("rate limited"))
	f.reviewRepo.On("SetStatus", ctx, f.review.ID.Hex(), entity.StatusFailed).Return(nil)
	f.notifier.On("Send", mock.Anything, mock.AnythingOfType("*entity.NotificationPayload")).Return(nil)

	err := f.service.ProcessReview(ctx, f.review.ID.Hex())

	// Провал публикации не распространяется на вызывающего
	assert.NoError(t, err)
	f.reviewRepo.AssertCalled(t, "SetStatus", ctx, f.review.ID.Hex(), entity.StatusFailed)

	payload := f.notifier.Calls[0].Arguments.Get(1).(*entity.NotificationPayload)
	assert.Equal(t, entity.TemplatePublishFailed, payload.Template)
}

func TestProcessReview_NotifierFailureIgnored(t *testing.T) {
	f := newProcessorFixture(t, false)
	ctx := context.Background()

	f.expectLoad(ctx)
	f.quota.On("CheckReplyQuota", ctx, f.account).Return(QuotaDecision{Allowed: true, Current: 1, Limit: 100}, nil)
	f.generator.On("GenerateReply", mock.Anything, f.review, f.business.Settings).Return("Thanks!", nil)
	f.reviewRepo.On("SetAIReply", ctx, f.review.ID.Hex(), "Thanks!", mock.AnythingOfType("time.Time")).Return(nil)
	f.usageRepo.On("IncrReplyCount", ctx, f.account.ID.String(), mock.AnythingOfType("string")).Return(nil)
	f.notifier.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	err := f.service.ProcessReview(ctx, f.review.ID.Hex())

	assert.NoError(t, err)
}

func TestProcessReview_ReviewNotFound(t *testing.T) {
	f := newProcessorFixture(t, true)
	ctx := context.Background()

	f.reviewRepo.On("GetByID", ctx, "missing").Return(nil, repository.ErrReviewNotFound)

	err := f.service.ProcessReview(ctx, "missing")

	assert.ErrorIs(t, err, ErrReviewNotFound)
}

func TestProcessReview_QuotaCheckErrorPropagates(t *testing.T) {
	f := newProcessorFixture(t, true)
	ctx := context.Background()

	f.expectLoad(ctx)
	f.quota.On("CheckReplyQuota", ctx, f.account).Return(QuotaDecision{}, errors.New("redis down"))

	err := f.service.ProcessReview(ctx, f.review.ID.Hex())

	// Инфраструктурная ошибка возвращается - вызывающий повторит
	assert.Error(t, err)
	f.generator.AssertNotCalled(t, "GenerateReply", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessReview_UsageIncrementFailureIgnored(t *testing.T) {
	f := newProcessorFixture(t, false)
	ctx := context.Background()

	f.expectLoad(ctx)
	f.quota.On("CheckReplyQuota", ctx, f.account).Return(QuotaDecision{Allowed: true, Current: 1, Limit: 100}, nil)
	f.generator.On("GenerateReply", mock.Anything, f.review, f.business.Settings).Return("Thanks!", nil)
	f.reviewRepo.On("SetAIReply", ctx, f.review.ID.Hex(), "Thanks!", mock.AnythingOfType("time.Time")).Return(nil)
	f.usageRepo.On("IncrReplyCount", ctx, f.account.ID.String(), mock.AnythingOfType("string")).Return(errors.New("redis down"))
	f.notifier.On("Send", mock.Anything, mock.Anything).Return(nil)

	err := f.service.ProcessReview(ctx, f.review.ID.Hex())

	assert.NoError(t, err)
}

