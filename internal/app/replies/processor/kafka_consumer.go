package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"replyflow/internal/app/replies/entity"
	"replyflow/internal/app/replies/service"
	"replyflow/pkg/logger"
	"replyflow/pkg/metrics"

	"github.com/segmentio/kafka-go"
)

const serviceName = "replyflow"

// KafkaConsumer обрабатывает события REVIEW_RECEIVED
// Каждое событие запускает пайплайн одного отзыва; отзывы независимы,
// синхронизации между ними нет
type KafkaConsumer struct {
	reader    *kafka.Reader
	processor service.ReviewProcessorInterface
	topic     string
	groupID   string
	stopChan  chan struct{}
	doneChan  chan struct{}
}

// NewKafkaConsumer создает новый Kafka consumer
func NewKafkaConsumer(
	brokers []string,
	topic string,
	groupID string,
	minBytes int,
	maxBytes int,
	processor service.ReviewProcessorInterface,
) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       minBytes,
		MaxBytes:       maxBytes,
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: 1 * time.Second,
	})

	return &KafkaConsumer{
		reader:    reader,
		processor: processor,
		topic:     topic,
		groupID:   groupID,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}
}

// Start запускает consumer в отдельной горутине
func (c *KafkaConsumer) Start(ctx context.Context) {
	logger.Info().Str("topic", c.topic).Str("group", c.groupID).Msg("starting kafka consumer")
	go c.consume(ctx)
}

// Stop останавливает consumer
func (c *KafkaConsumer) Stop() {
	logger.Info().Msg("stopping kafka consumer")
	close(c.stopChan)
	<-c.doneChan
	c.reader.Close()
	logger.Info().Msg("kafka consumer stopped")
}

// consume читает и обрабатывает сообщения из Kafka
func (c *KafkaConsumer) consume(ctx context.Context) {
	defer close(c.doneChan)

	for {
		select {
		case <-c.stopChan:
			return
		default:
			readCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			message, err := c.reader.FetchMessage(readCtx)
			cancel()

			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if !errors.Is(err, context.DeadlineExceeded) {
					logger.Error().Err(err).Msg("error fetching message")
					time.Sleep(time.Second)
				}
				continue
			}

			if err := c.processMessage(ctx, message); err != nil {
				metrics.KafkaErrors.WithLabelValues(serviceName, c.topic, "consume").Inc()
				logger.Error().Err(err).Int64("offset", message.Offset).Msg("error processing message")
				// Offset не коммитится: сообщение будет доставлено повторно
			} else {
				if err := c.reader.CommitMessages(ctx, message); err != nil {
					logger.Error().Err(err).Msg("error committing message")
				}
			}
		}
	}
}

// processMessage обрабатывает одно событие REVIEW_RECEIVED
func (c *KafkaConsumer) processMessage(ctx context.Context, message kafka.Message) error {
	var event entity.ReviewReceivedEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal review event: %w", err)
	}

	metrics.KafkaMessagesConsumed.WithLabelValues(serviceName, c.topic, c.groupID).Inc()

	if event.EventType != entity.EventTypeReviewReceived {
		logger.Debug().Str("event_type", event.EventType).Msg("skipping unknown event type")
		return nil
	}

	logger.Info().
		Str("review_id", event.ReviewID).
		Str("business_id", event.BusinessID).
		Int64("offset", message.Offset).
		Msg("processing review event")

	if err := c.processor.ProcessReview(ctx, event.ReviewID); err != nil {
		// Баги консистентности не ретраятся: повторная доставка их не исправит
		if errors.Is(err, service.ErrReviewNotFound) || errors.Is(err, service.ErrBusinessNotFound) || errors.Is(err, service.ErrAccountNotFound) {
			logger.Error().Err(err).Str("review_id", event.ReviewID).Msg("data consistency error, dropping event")
			return nil
		}
		return fmt.Errorf("failed to process review: %w", err)
	}

	return nil
}
