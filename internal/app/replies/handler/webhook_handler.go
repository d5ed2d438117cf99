package handler

import (
	"context"
	"net/http"

	"replyflow/internal/app/replies/entity"
	"replyflow/internal/app/replies/service"
	"replyflow/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// IngestServiceInterface определяет интерфейс приема уведомлений
type IngestServiceInterface interface {
	HandleNotification(ctx context.Context, envelope *entity.PushEnvelope) (*service.IngestResult, error)
}

// WebhookHandler принимает push уведомления платформы отзывов
type WebhookHandler struct {
	ingestService IngestServiceInterface
	validator     *validator.Validate
}

// NewWebhookHandler создает новый обработчик webhook'ов
func NewWebhookHandler(ingestService IngestServiceInterface) *WebhookHandler {
	return &WebhookHandler{
		ingestService: ingestService,
		validator:     validator.New(),
	}
}

// HandleReviewNotification обрабатывает входящее уведомление
//
// Контракт с очередью: 2xx - ack (уведомление обработано либо терминально
// пропущено), 5xx - nack, очередь доставит повторно. 4xx не используется:
// очередь трактует его как терминальный отказ без различения причин
func (h *WebhookHandler) HandleReviewNotification(c *gin.Context) {
	var envelope entity.PushEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		// Нечитаемый конверт - транзиентная ошибка, пусть очередь повторит
		logger.Error().Err(err).Msg("failed to bind push envelope")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Invalid envelope"})
		return
	}

	if err := h.validator.Struct(envelope); err != nil {
		logger.Error().Err(err).Msg("push envelope failed validation")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Invalid envelope"})
		return
	}

	result, err := h.ingestService.HandleNotification(c.Request.Context(), &envelope)
	if err != nil {
		logger.Error().Err(err).Str("message_id", envelope.Message.MessageID).Msg("notification ingest failed")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Ingest failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}
