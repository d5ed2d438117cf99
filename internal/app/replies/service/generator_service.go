package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"replyflow/internal/app/replies/entity"
	"replyflow/pkg/metrics"

	"github.com/sashabaranov/go-openai"
)

// Значения по умолчанию: в промпте не бывает пустых подстановок
const (
	defaultTone         = "friendly and professional"
	defaultLanguageMode = "the language of the review"
	defaultMaxSentences = 4
)

// GeneratorService генерирует AI ответы на отзывы через языковую модель
type GeneratorService struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
}

// NewGeneratorService создает новый сервис генерации ответов
// Возвращает ошибку при пустом API ключе: без него каждый вызов обречен
func NewGeneratorService(apiKey, model string, maxTokens int, temperature float64) (*GeneratorService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: empty API key", ErrGeneration)
	}

	return &GeneratorService{
		client:      openai.NewClient(apiKey),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}, nil
}

// GenerateReply генерирует ответ на отзыв с учетом настроек бизнеса
// Любая ошибка модели оборачивается в ErrGeneration
func (s *GeneratorService) GenerateReply(ctx context.Context, review *entity.Review, settings entity.ReplySettings) (string, error) {
	prompt := buildPrompt(review, settings)

	start := time.Now()
	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			MaxTokens:   s.maxTokens,
			Temperature: float32(s.temperature),
		},
	)
	metrics.ModelCallDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", ErrGeneration)
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", fmt.Errorf("%w: empty reply text", ErrGeneration)
	}

	return reply, nil
}

// buildPrompt собирает детерминированный промпт из настроек бизнеса и отзыва
// Каждая переменная шаблона имеет значение по умолчанию
func buildPrompt(review *entity.Review, settings entity.ReplySettings) string {
	tone := settings.ToneOfVoice
	if tone == "" {
		tone = defaultTone
	}

	language := settings.LanguageMode
	if language == "" || language == "review" {
		language = defaultLanguageMode
	}

	maxSentences := settings.MaxSentences
	if maxSentences <= 0 {
		maxSentences = defaultMaxSentences
	}

	emojiRule := "Do not use any emojis."
	if len(settings.AllowedEmojis) > 0 {
		emojiRule = fmt.Sprintf("You may use only these emojis: %s.", strings.Join(settings.AllowedEmojis, " "))
	}

	reviewerName := review.ReviewerName
	if reviewerName == "" {
		reviewerName = "the customer"
	}

	reviewText := review.Text
	if reviewText == "" {
		reviewText = "(the review has no text, only a star rating)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are replying to a customer review on behalf of a business.\n\n")
	fmt.Fprintf(&b, "Write the reply in %s, in a %s tone, at most %d sentences.\n", language, tone, maxSentences)
	fmt.Fprintf(&b, "%s\n", emojiRule)

	starCfg := settings.StarConfigFor(review.Rating)
	if starCfg.CustomInstructions != "" {
		fmt.Fprintf(&b, "Additional instructions for %d-star reviews: %s\n", review.Rating, starCfg.CustomInstructions)
	}

	if review.Rating <= 2 && settings.ContactPhone != "" {
		fmt.Fprintf(&b, "This is a negative review: invite the customer to call %s to resolve the issue.\n", settings.ContactPhone)
	}

	if settings.Signature != "" {
		fmt.Fprintf(&b, "End the reply with the signature: %s\n", settings.Signature)
	}

	fmt.Fprintf(&b, "\nReview by %s, rated %d out of 5 stars on %s:\n%s\n",
		reviewerName, review.Rating, review.ReviewDate.Format("2006-01-02"), reviewText)
	fmt.Fprintf(&b, "\nReturn only the reply text, without quotes or explanations.")

	return b.String()
}
