package entity

import "time"

// PushEnvelope - конверт push доставки уведомлений (Pub/Sub формат)
type PushEnvelope struct {
	Message      PushMessage `json:"message" validate:"required"`
	Subscription string      `json:"subscription"`
}

// PushMessage - сообщение внутри конверта, data закодирована в base64
type PushMessage struct {
	Data        string `json:"data" validate:"required"`
	MessageID   string `json:"messageId"`
	PublishTime string `json:"publishTime"`
}

// ReviewNotification - декодированный payload уведомления о новом отзыве
type ReviewNotification struct {
	Type     string `json:"type" validate:"required"`     // NEW_REVIEW | UPDATED_REVIEW
	Review   string `json:"review" validate:"required"`   // Имя ресурса отзыва на платформе
	Location string `json:"location" validate:"required"` // Внешний ID локации
}

// PlatformReview - отзыв в формате API платформы
// starRating приходит строковым enum, конвертируется на границе
type PlatformReview struct {
	Name       string           `json:"name"` // Имя ресурса
	ReviewID   string           `json:"reviewId"`
	Reviewer   PlatformReviewer `json:"reviewer"`
	StarRating string           `json:"starRating"` // ONE..FIVE
	Comment    string           `json:"comment"`
	CreateTime time.Time        `json:"createTime"`
}

// PlatformReviewer - автор отзыва в формате API платформы
type PlatformReviewer struct {
	DisplayName     string `json:"displayName"`
	ProfilePhotoURL string `json:"profilePhotoUrl"`
}

// PlatformLocation - локация в формате API платформы
type PlatformLocation struct {
	Name       string `json:"name"` // Имя ресурса локации
	LocationID string `json:"locationId"`
	Title      string `json:"title"`
}

// RatingFromStarEnum конвертирует строковый enum оценки в число 1..5
// Возвращает 0 для неизвестного значения
func RatingFromStarEnum(star string) int {
	switch star {
	case "ONE":
		return 1
	case "TWO":
		return 2
	case "THREE":
		return 3
	case "FOUR":
		return 4
	case "FIVE":
		return 5
	default:
		return 0
	}
}

// ProcessTriggerRequest - внутренний запрос на обработку отзыва
// Идентификаторы передаются явно, без контекста сессии
type ProcessTriggerRequest struct {
	UserID     string `json:"user_id" validate:"required"`
	AccountID  string `json:"account_id" validate:"required,uuid"`
	BusinessID string `json:"business_id" validate:"required,uuid"`
	ReviewID   string `json:"review_id" validate:"required"`
}

// ConnectBusinessRequest - запрос на подключение локации
type ConnectBusinessRequest struct {
	AccountID          string        `json:"account_id" validate:"required,uuid"`
	Name               string        `json:"name" validate:"required,min=1,max=255"`
	ExternalLocationID string        `json:"external_location_id" validate:"required"`
	Settings           ReplySettings `json:"settings"`
}

// PublishReplyRequest - ручная публикация ответа (возможно отредактированного)
type PublishReplyRequest struct {
	Reply string `json:"reply" validate:"required,min=1,max=4000"`
}

// NotificationPayload - данные для email уведомления
type NotificationPayload struct {
	Template     string `json:"template"` // reply_generated | publish_failed
	AccountEmail string `json:"account_email"`
	BusinessName string `json:"business_name"`
	ReviewerName string `json:"reviewer_name"`
	Rating       int    `json:"rating"`
	ReviewText   string `json:"review_text"`
	Reply        string `json:"reply"`
}

// Шаблоны уведомлений
const (
	TemplateReplyGenerated = "reply_generated"
	TemplatePublishFailed  = "publish_failed"
)

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse - стандартный ответ об успехе
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ReviewListResponse - ответ со списком отзывов
type ReviewListResponse struct {
	Reviews []Review `json:"reviews"`
	Total   int      `json:"total"`
}
