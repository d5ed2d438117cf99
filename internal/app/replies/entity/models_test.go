package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimitsFor(t *testing.T) {
	assert.Equal(t, TierLimits{MaxBusinesses: 1, MaxReplies: 10}, LimitsFor(TierFree))
	assert.Equal(t, TierLimits{MaxBusinesses: 3, MaxReplies: 100}, LimitsFor(TierStarter))
	assert.Equal(t, TierLimits{MaxBusinesses: 10, MaxReplies: 1000}, LimitsFor(TierPro))
}

func TestLimitsFor_UnknownTierIsFree(t *testing.T) {
	assert.Equal(t, LimitsFor(TierFree), LimitsFor(SubscriptionTier("enterprise")))
}

func TestStarConfigFor_Configured(t *testing.T) {
	settings := ReplySettings{
		StarConfigs: map[int]StarConfig{
			5: {AutoReply: true, CustomInstructions: "Thank warmly"},
		},
	}

	cfg := settings.StarConfigFor(5)

	assert.True(t, cfg.AutoReply)
	assert.Equal(t, "Thank warmly", cfg.CustomInstructions)
}

func TestStarConfigFor_UnconfiguredDefaultsToManual(t *testing.T) {
	settings := ReplySettings{}

	cfg := settings.StarConfigFor(3)

	assert.False(t, cfg.AutoReply)
}

func TestRatingFromStarEnum(t *testing.T) {
	assert.Equal(t, 1, RatingFromStarEnum("ONE"))
	assert.Equal(t, 5, RatingFromStarEnum("FIVE"))
	assert.Equal(t, 0, RatingFromStarEnum("SIX"))
	assert.Equal(t, 0, RatingFromStarEnum(""))
}
