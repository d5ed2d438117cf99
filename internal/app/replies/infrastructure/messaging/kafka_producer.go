package messaging

import (
	"context"
	"fmt"
	"time"

	"replyflow/pkg/metrics"

	"github.com/segmentio/kafka-go"
)

const serviceName = "replyflow"

// KafkaProducer отправляет события REVIEW_RECEIVED для асинхронной обработки
type KafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
		// Триггер обработки должен уйти сразу, не дожидаясь батча
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
	}

	return &KafkaProducer{writer: writer, topic: topic}
}

func (p *KafkaProducer) PublishMessage(ctx context.Context, key string, value []byte) error {
	message := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		metrics.KafkaErrors.WithLabelValues(serviceName, p.topic, "produce").Inc()
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	metrics.KafkaMessagesProduced.WithLabelValues(serviceName, p.topic).Inc()

	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
