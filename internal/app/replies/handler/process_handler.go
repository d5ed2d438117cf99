package handler

import (
	"errors"
	"net/http"

	"replyflow/internal/app/replies/entity"
	"replyflow/internal/app/replies/service"
	"replyflow/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ProcessHandler внутренний триггер обработки отзыва
// Используется для replay и отладки; обычный путь - через Kafka consumer
type ProcessHandler struct {
	processor service.ReviewProcessorInterface
	validator *validator.Validate
}

// NewProcessHandler создает новый обработчик внутреннего триггера
func NewProcessHandler(processor service.ReviewProcessorInterface) *ProcessHandler {
	return &ProcessHandler{
		processor: processor,
		validator: validator.New(),
	}
}

// TriggerProcessing синхронно запускает пайплайн одного отзыва
func (h *ProcessHandler) TriggerProcessing(c *gin.Context) {
	var req entity.ProcessTriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: formatValidationError(err)})
		return
	}

	if err := h.processor.ProcessReview(c.Request.Context(), req.ReviewID); err != nil {
		if errors.Is(err, service.ErrReviewNotFound) || errors.Is(err, service.ErrBusinessNotFound) || errors.Is(err, service.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: err.Error()})
			return
		}
		logger.Error().Err(err).Str("review_id", req.ReviewID).Msg("manual processing trigger failed")
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Processing failed"})
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Message: "Review processed"})
}

func formatValidationError(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			return fieldError.Field() + " is " + fieldError.Tag()
		}
	}
	return "Validation failed"
}
