package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// UsageRepositoryTestSuite тестовый suite для Redis счетчиков использования
type UsageRepositoryTestSuite struct {
	suite.Suite
	miniRedis *miniredis.Miniredis
	client    *redis.Client
	repo      UsageRepository
}

func TestUsageRepositorySuite(t *testing.T) {
	suite.Run(t, new(UsageRepositoryTestSuite))
}

func (s *UsageRepositoryTestSuite) SetupSuite() {
	var err error
	s.miniRedis, err = miniredis.Run()
	require.NoError(s.T(), err)

	s.client = redis.NewClient(&redis.Options{
		Addr: s.miniRedis.Addr(),
	})

	s.repo = NewUsageRepository(s.client)
}

func (s *UsageRepositoryTestSuite) SetupTest() {
	s.miniRedis.FlushAll()
}

func (s *UsageRepositoryTestSuite) TearDownSuite() {
	s.client.Close()
	s.miniRedis.Close()
}

func (s *UsageRepositoryTestSuite) TestReplyCount_Empty() {
	ctx := context.Background()

	count, err := s.repo.ReplyCount(ctx, "acc-1", "2026-08")

	s.NoError(err)
	s.Equal(0, count)
}

func (s *UsageRepositoryTestSuite) TestIncrReplyCount_Increments() {
	ctx := context.Background()

	s.NoError(s.repo.IncrReplyCount(ctx, "acc-1", "2026-08"))
	s.NoError(s.repo.IncrReplyCount(ctx, "acc-1", "2026-08"))
	s.NoError(s.repo.IncrReplyCount(ctx, "acc-1", "2026-08"))

	count, err := s.repo.ReplyCount(ctx, "acc-1", "2026-08")

	s.NoError(err)
	s.Equal(3, count)
}

func (s *UsageRepositoryTestSuite) TestIncrReplyCount_SetsTTL() {
	ctx := context.Background()

	s.NoError(s.repo.IncrReplyCount(ctx, "acc-1", "2026-08"))

	ttl := s.miniRedis.TTL("usage:replies:acc-1:2026-08")
	s.Equal(usageCounterTTL, ttl)
}

func (s *UsageRepositoryTestSuite) TestReplyCount_PeriodsAreIsolated() {
	ctx := context.Background()

	// Счетчик нового месяца начинается с нуля
	s.NoError(s.repo.IncrReplyCount(ctx, "acc-1", "2026-08"))

	count, err := s.repo.ReplyCount(ctx, "acc-1", "2026-09")

	s.NoError(err)
	s.Equal(0, count)
}

func (s *UsageRepositoryTestSuite) TestReplyCount_AccountsAreIsolated() {
	ctx := context.Background()

	s.NoError(s.repo.IncrReplyCount(ctx, "acc-1", "2026-08"))

	count, err := s.repo.ReplyCount(ctx, "acc-2", "2026-08")

	s.NoError(err)
	s.Equal(0, count)
}

func TestCurrentPeriod(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026-08", CurrentPeriod(now))
}

func TestCurrentPeriod_UsesUTC(t *testing.T) {
	// 31 августа 23:00 UTC-5 - это уже 1 сентября по UTC
	loc := time.FixedZone("UTC-5", -5*60*60)
	now := time.Date(2026, 8, 31, 23, 0, 0, 0, loc)

	assert.Equal(t, "2026-09", CurrentPeriod(now))
}
