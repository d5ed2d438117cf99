package handler

import (
	"context"
	"errors"
	"net/http"

	"replyflow/internal/app/replies/entity"
	"replyflow/internal/app/replies/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ReviewServiceInterface определяет интерфейс ручных действий над отзывами
type ReviewServiceInterface interface {
	GetReviewsByBusiness(ctx context.Context, businessID string) ([]entity.Review, error)
	RejectReview(ctx context.Context, reviewID string) error
	PublishReply(ctx context.Context, reviewID, userID, reply string) (*entity.Review, error)
	RegenerateReview(ctx context.Context, reviewID string) error
}

// ReviewHandler обрабатывает ручные действия пользователя над отзывами
type ReviewHandler struct {
	reviewService ReviewServiceInterface
	validator     *validator.Validate
}

// NewReviewHandler создает новый обработчик отзывов
func NewReviewHandler(reviewService ReviewServiceInterface) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		validator:     validator.New(),
	}
}

// GetReviewsByBusiness возвращает отзывы бизнеса
func (h *ReviewHandler) GetReviewsByBusiness(c *gin.Context) {
	businessID := c.Param("business_id")
	if businessID == "" {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Business ID is required"})
		return
	}

	reviews, err := h.reviewService.GetReviewsByBusiness(c.Request.Context(), businessID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Failed to get reviews"})
		return
	}

	c.JSON(http.StatusOK, entity.ReviewListResponse{
		Reviews: reviews,
		Total:   len(reviews),
	})
}

// RejectReview отклоняет сгенерированный ответ
func (h *ReviewHandler) RejectReview(c *gin.Context) {
	reviewID := c.Param("review_id")

	if err := h.reviewService.RejectReview(c.Request.Context(), reviewID); err != nil {
		h.respondActionError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.SuccessResponse{Message: "Review rejected"})
}

// PublishReply публикует ответ вручную (возможно отредактированный)
func (h *ReviewHandler) PublishReply(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, entity.ErrorResponse{Error: "Unauthorized"})
		return
	}

	userIDStr, ok := userID.(string)
	if !ok {
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Invalid user ID"})
		return
	}

	reviewID := c.Param("review_id")

	var req entity.PublishReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: formatValidationError(err)})
		return
	}

	review, err := h.reviewService.PublishReply(c.Request.Context(), reviewID, userIDStr, req.Reply)
	if err != nil {
		h.respondActionError(c, err)
		return
	}

	c.JSON(http.StatusOK, review)
}

// RegenerateReview переотправляет отзыв в очередь обработки
func (h *ReviewHandler) RegenerateReview(c *gin.Context) {
	reviewID := c.Param("review_id")

	if err := h.reviewService.RegenerateReview(c.Request.Context(), reviewID); err != nil {
		h.respondActionError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, entity.SuccessResponse{Message: "Review queued for regeneration"})
}

func (h *ReviewHandler) respondActionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrReviewNotFound):
		c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "Review not found"})
	case errors.Is(err, service.ErrStatusConflict):
		c.JSON(http.StatusConflict, entity.ErrorResponse{Error: "Review is not in an applicable status"})
	case errors.Is(err, service.ErrNoCredentials):
		c.JSON(http.StatusUnprocessableEntity, entity.ErrorResponse{Error: "Account has no platform credentials"})
	default:
		c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Action failed"})
	}
}
