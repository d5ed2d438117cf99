package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"replyflow/internal/app/replies/entity"
)

// NotifierClient отправляет данные для email уведомлений в сервис рассылки
// Best-effort: вызывающий логирует ошибку и продолжает работу
type NotifierClient struct {
	url        string
	httpClient *http.Client
}

// NewNotifierClient создает новый клиент сервиса рассылки
func NewNotifierClient(url string, timeout time.Duration) *NotifierClient {
	return &NotifierClient{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Send отправляет payload уведомления
func (c *NotifierClient) Send(ctx context.Context, payload *entity.NotificationPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notifier returned status %d", resp.StatusCode)
	}

	return nil
}
