package service

import (
	"testing"
	"time"

	"replyflow/internal/app/replies/entity"

	"github.com/stretchr/testify/assert"
)

func TestNewGeneratorService_EmptyAPIKey(t *testing.T) {
	_, err := NewGeneratorService("", "gpt-4o-mini", 400, 0.7)

	assert.ErrorIs(t, err, ErrGeneration)
}

func TestBuildPrompt_Defaults(t *testing.T) {
	review := &entity.Review{
		ReviewerName: "Anna",
		Rating:       5,
		Text:         "Lovely place!",
		ReviewDate:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	prompt := buildPrompt(review, entity.ReplySettings{})

	assert.Contains(t, prompt, "friendly and professional")
	assert.Contains(t, prompt, "the language of the review")
	assert.Contains(t, prompt, "at most 4 sentences")
	assert.Contains(t, prompt, "Do not use any emojis.")
	assert.Contains(t, prompt, "Review by Anna, rated 5 out of 5 stars on 2026-03-01")
	assert.Contains(t, prompt, "Lovely place!")
}

func TestBuildPrompt_CustomSettings(t *testing.T) {
	review := &entity.Review{ReviewerName: "Ivan", Rating: 4, Text: "Good"}
	settings := entity.ReplySettings{
		ToneOfVoice:   "formal",
		LanguageMode:  "German",
		MaxSentences:  2,
		AllowedEmojis: []string{"🙂", "👍"},
		Signature:     "Team Aurora",
	}

	prompt := buildPrompt(review, settings)

	assert.Contains(t, prompt, "in German, in a formal tone, at most 2 sentences")
	assert.Contains(t, prompt, "You may use only these emojis: 🙂 👍.")
	assert.Contains(t, prompt, "End the reply with the signature: Team Aurora")
}

func TestBuildPrompt_NegativeReviewContactPhone(t *testing.T) {
	review := &entity.Review{ReviewerName: "Olga", Rating: 1, Text: "Terrible"}
	settings := entity.ReplySettings{ContactPhone: "+1-555-0100"}

	prompt := buildPrompt(review, settings)

	assert.Contains(t, prompt, "invite the customer to call +1-555-0100")
}

func TestBuildPrompt_PositiveReviewNoPhone(t *testing.T) {
	review := &entity.Review{ReviewerName: "Olga", Rating: 5, Text: "Great"}
	settings := entity.ReplySettings{ContactPhone: "+1-555-0100"}

	prompt := buildPrompt(review, settings)

	assert.NotContains(t, prompt, "+1-555-0100")
}

func TestBuildPrompt_StarInstructions(t *testing.T) {
	review := &entity.Review{ReviewerName: "Petr", Rating: 3, Text: "Average"}
	settings := entity.ReplySettings{
		StarConfigs: map[int]entity.StarConfig{
			3: {CustomInstructions: "Ask what could be improved."},
		},
	}

	prompt := buildPrompt(review, settings)

	assert.Contains(t, prompt, "Additional instructions for 3-star reviews: Ask what could be improved.")
}

func TestBuildPrompt_TextlessReview(t *testing.T) {
	review := &entity.Review{Rating: 4}

	prompt := buildPrompt(review, entity.ReplySettings{})

	assert.Contains(t, prompt, "Review by the customer")
	assert.Contains(t, prompt, "(the review has no text, only a star rating)")
}
