package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"replyflow/internal/app/replies/entity"
	"replyflow/pkg/metrics"
)

var (
	// ErrPermissionDenied - проблема конфигурации доступа, повтор бесполезен
	ErrPermissionDenied = errors.New("platform permission denied")
	// ErrPlatformNotFound - отзыв или профиль исчез на стороне платформы, повтор бесполезен
	ErrPlatformNotFound = errors.New("platform resource not found")
	// ErrRateLimited - платформа ограничила частоту, вызывающий может повторить позже
	ErrRateLimited = errors.New("platform rate limited")
)

// PlatformAPIClient клиент API платформы отзывов
// Сам не повторяет запросы: retry политика на стороне вызывающего
type PlatformAPIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewPlatformAPIClient создает новый клиент платформы отзывов
func NewPlatformAPIClient(baseURL string, timeout time.Duration) *PlatformAPIClient {
	return &PlatformAPIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetReview получает полные данные отзыва по имени ресурса
func (c *PlatformAPIClient) GetReview(ctx context.Context, token, resourceName string) (*entity.PlatformReview, error) {
	defer observe("get_review", time.Now())

	url := fmt.Sprintf("%s/%s", c.baseURL, resourceName)

	body, err := c.do(ctx, http.MethodGet, url, token, nil)
	if err != nil {
		return nil, err
	}

	var review entity.PlatformReview
	if err := json.Unmarshal(body, &review); err != nil {
		return nil, fmt.Errorf("failed to decode review: %w", err)
	}

	return &review, nil
}

// PostReply публикует ответ на отзыв
func (c *PlatformAPIClient) PostReply(ctx context.Context, token, resourceName, reply string) error {
	defer observe("post_reply", time.Now())

	url := fmt.Sprintf("%s/%s/reply", c.baseURL, resourceName)

	payload, err := json.Marshal(map[string]string{"comment": reply})
	if err != nil {
		return fmt.Errorf("failed to marshal reply: %w", err)
	}

	if _, err := c.do(ctx, http.MethodPut, url, token, payload); err != nil {
		return err
	}

	return nil
}

// SubscribeToNotifications подписывает локацию на push уведомления о новых отзывах
func (c *PlatformAPIClient) SubscribeToNotifications(ctx context.Context, token, externalLocationID string) error {
	defer observe("subscribe", time.Now())

	url := fmt.Sprintf("%s/locations/%s/notifications", c.baseURL, externalLocationID)

	payload, err := json.Marshal(map[string][]string{
		"notificationTypes": {"NEW_REVIEW", "UPDATED_REVIEW"},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal subscription: %w", err)
	}

	if _, err := c.do(ctx, http.MethodPut, url, token, payload); err != nil {
		return err
	}

	return nil
}

// ListLocations возвращает локации, доступные владельцу токена
func (c *PlatformAPIClient) ListLocations(ctx context.Context, token string) ([]entity.PlatformLocation, error) {
	defer observe("list_locations", time.Now())

	url := fmt.Sprintf("%s/locations", c.baseURL)

	body, err := c.do(ctx, http.MethodGet, url, token, nil)
	if err != nil {
		return nil, err
	}

	var response struct {
		Locations []entity.PlatformLocation `json:"locations"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to decode locations: %w", err)
	}

	return response.Locations, nil
}

// do выполняет запрос и маппит статус коды на типизированные ошибки
func (c *PlatformAPIClient) do(ctx context.Context, method, url, token string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", ErrPermissionDenied, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrPlatformNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	default:
		return nil, fmt.Errorf("platform returned status %d: %s", resp.StatusCode, string(body))
	}
}

func observe(operation string, start time.Time) {
	metrics.PlatformCallDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
