package mocks

import (
	"context"
	"time"

	"replyflow/internal/app/replies/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockAccountRepository мок для AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Account), args.Error(1)
}

// MockBusinessRepository мок для BusinessRepository
type MockBusinessRepository struct {
	mock.Mock
}

func (m *MockBusinessRepository) Create(ctx context.Context, business *entity.Business) error {
	args := m.Called(ctx, business)
	return args.Error(0)
}

func (m *MockBusinessRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Business, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Business), args.Error(1)
}

func (m *MockBusinessRepository) GetByExternalLocationID(ctx context.Context, externalLocationID string) (*entity.Business, error) {
	args := m.Called(ctx, externalLocationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Business), args.Error(1)
}

func (m *MockBusinessRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBusinessRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

// MockReviewRepository мок для ReviewRepository
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Create(ctx context.Context, review *entity.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) GetByID(ctx context.Context, id string) (*entity.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Review), args.Error(1)
}

func (m *MockReviewRepository) FindByExternalReviewID(ctx context.Context, businessID, externalReviewID string) (*entity.Review, error) {
	args := m.Called(ctx, businessID, externalReviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Review), args.Error(1)
}

func (m *MockReviewRepository) GetByBusinessID(ctx context.Context, businessID string) ([]entity.Review, error) {
	args := m.Called(ctx, businessID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Review), args.Error(1)
}

func (m *MockReviewRepository) SetAIReply(ctx context.Context, id string, reply string, generatedAt time.Time) error {
	args := m.Called(ctx, id, reply, generatedAt)
	return args.Error(0)
}

func (m *MockReviewRepository) SetStatus(ctx context.Context, id string, status entity.ReviewStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockReviewRepository) SetStatusFrom(ctx context.Context, id string, to entity.ReviewStatus, from ...entity.ReviewStatus) error {
	args := m.Called(ctx, id, to, from)
	return args.Error(0)
}

func (m *MockReviewRepository) MarkPosted(ctx context.Context, id string, reply, actor string, postedAt time.Time, edited bool, from ...entity.ReviewStatus) error {
	args := m.Called(ctx, id, reply, actor, postedAt, edited, from)
	return args.Error(0)
}

func (m *MockReviewRepository) ListStuckPending(ctx context.Context, olderThan time.Time) ([]entity.Review, error) {
	args := m.Called(ctx, olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Review), args.Error(1)
}

// MockUsageRepository мок для UsageRepository
type MockUsageRepository struct {
	mock.Mock
}

func (m *MockUsageRepository) ReplyCount(ctx context.Context, accountID string, period string) (int, error) {
	args := m.Called(ctx, accountID, period)
	return args.Int(0), args.Error(1)
}

func (m *MockUsageRepository) IncrReplyCount(ctx context.Context, accountID string, period string) error {
	args := m.Called(ctx, accountID, period)
	return args.Error(0)
}

// MockMessagePublisher мок для Kafka MessagePublisher
type MockMessagePublisher struct {
	mock.Mock
	Messages [][]byte
}

func (m *MockMessagePublisher) PublishMessage(ctx context.Context, key string, value []byte) error {
	m.Messages = append(m.Messages, value)
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockPlatformClient мок для PlatformClient
type MockPlatformClient struct {
	mock.Mock
}

func (m *MockPlatformClient) GetReview(ctx context.Context, token, resourceName string) (*entity.PlatformReview, error) {
	args := m.Called(ctx, token, resourceName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.PlatformReview), args.Error(1)
}

func (m *MockPlatformClient) PostReply(ctx context.Context, token, resourceName, reply string) error {
	args := m.Called(ctx, token, resourceName, reply)
	return args.Error(0)
}

func (m *MockPlatformClient) SubscribeToNotifications(ctx context.Context, token, externalLocationID string) error {
	args := m.Called(ctx, token, externalLocationID)
	return args.Error(0)
}

func (m *MockPlatformClient) ListLocations(ctx context.Context, token string) ([]entity.PlatformLocation, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.PlatformLocation), args.Error(1)
}

// MockNotifier мок для Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, payload *entity.NotificationPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}
