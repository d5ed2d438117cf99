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

// BusinessServiceInterface определяет интерфейс подключения бизнесов
type BusinessServiceInterface interface {
	ConnectBusiness(ctx context.Context, req *entity.ConnectBusinessRequest) (*entity.Business, error)
	ListLocations(ctx context.Context, accountID string) ([]entity.PlatformLocation, error)
}

// BusinessHandler обрабатывает подключение локаций
type BusinessHandler struct {
	businessService BusinessServiceInterface
	validator       *validator.Validate
}

// NewBusinessHandler создает новый обработчик бизнесов
func NewBusinessHandler(businessService BusinessServiceInterface) *BusinessHandler {
	return &BusinessHandler{
		businessService: businessService,
		validator:       validator.New(),
	}
}

// ConnectBusiness подключает локацию вместе с подпиской на уведомления
func (h *BusinessHandler) ConnectBusiness(c *gin.Context) {
	var req entity.ConnectBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: formatValidationError(err)})
		return
	}

	business, err := h.businessService.ConnectBusiness(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountNotFound):
			c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "Account not found"})
		case errors.Is(err, service.ErrQuotaExceeded):
			c.JSON(http.StatusForbidden, entity.ErrorResponse{Error: "Business quota exceeded"})
		case errors.Is(err, service.ErrNoCredentials):
			c.JSON(http.StatusUnprocessableEntity, entity.ErrorResponse{Error: "Account has no platform credentials"})
		default:
			c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Failed to connect business"})
		}
		return
	}

	c.JSON(http.StatusCreated, business)
}

// ListLocations возвращает локации, доступные аккаунту на платформе
func (h *BusinessHandler) ListLocations(c *gin.Context) {
	accountID := c.Param("account_id")
	if accountID == "" {
		c.JSON(http.StatusBadRequest, entity.ErrorResponse{Error: "Account ID is required"})
		return
	}

	locations, err := h.businessService.ListLocations(c.Request.Context(), accountID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountNotFound):
			c.JSON(http.StatusNotFound, entity.ErrorResponse{Error: "Account not found"})
		case errors.Is(err, service.ErrNoCredentials):
			c.JSON(http.StatusUnprocessableEntity, entity.ErrorResponse{Error: "Account has no platform credentials"})
		default:
			c.JSON(http.StatusInternalServerError, entity.ErrorResponse{Error: "Failed to list locations"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"locations": locations, "total": len(locations)})
}
