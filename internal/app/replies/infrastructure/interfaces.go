package infrastructure

import (
	"context"

	"replyflow/internal/app/replies/entity"
)

// MessagePublisher интерфейс для отправки сообщений в очередь (Kafka)
// Используется для dependency injection и упрощения тестирования
type MessagePublisher interface {
	PublishMessage(ctx context.Context, key string, value []byte) error
	Close() error
}

// PlatformClient интерфейс API платформы отзывов
// Каждый метод требует расшифрованный bearer токен - он не хранится в клиенте
type PlatformClient interface {
	GetReview(ctx context.Context, token, resourceName string) (*entity.PlatformReview, error)
	PostReply(ctx context.Context, token, resourceName, reply string) error
	SubscribeToNotifications(ctx context.Context, token, externalLocationID string) error
	ListLocations(ctx context.Context, token string) ([]entity.PlatformLocation, error)
}

// Notifier интерфейс отправки уведомлений
// Best-effort: результат пайплайном не используется
type Notifier interface {
	Send(ctx context.Context, payload *entity.NotificationPayload) error
}
