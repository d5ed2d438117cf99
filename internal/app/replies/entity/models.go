package entity

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubscriptionTier представляет тариф подписки аккаунта
type SubscriptionTier string

const (
	TierFree    SubscriptionTier = "free"
	TierStarter SubscriptionTier = "starter"
	TierPro     SubscriptionTier = "pro"
)

// TierLimits лимиты тарифа на один расчетный период
type TierLimits struct {
	MaxBusinesses int // Максимум подключенных локаций
	MaxReplies    int // Максимум обработанных отзывов в месяц
}

// LimitsFor возвращает лимиты тарифа
// Неизвестный тариф трактуется как free
func LimitsFor(tier SubscriptionTier) TierLimits {
	switch tier {
	case TierStarter:
		return TierLimits{MaxBusinesses: 3, MaxReplies: 100}
	case TierPro:
		return TierLimits{MaxBusinesses: 10, MaxReplies: 1000}
	default:
		return TierLimits{MaxBusinesses: 1, MaxReplies: 10}
	}
}

// Account владеет подключенными бизнесами и refresh токеном платформы отзывов
// Токен хранится только в зашифрованном виде
type Account struct {
	ID               uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	Email            string           `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	RefreshTokenEnc  string           `json:"-" gorm:"type:text"` // Зашифрованный refresh токен (Token Vault)
	SubscriptionTier SubscriptionTier `json:"subscription_tier" gorm:"type:varchar(20);not null;default:'free'"`
	CreatedAt        time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time        `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName указывает имя таблицы для GORM
func (Account) TableName() string {
	return "accounts"
}

// Business подключенная локация платформы отзывов
type Business struct {
	ID                 uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	AccountID          uuid.UUID     `json:"account_id" gorm:"type:uuid;not null;index"`
	Name               string        `json:"name" gorm:"type:varchar(255);not null"`
	ExternalLocationID string        `json:"external_location_id" gorm:"type:varchar(255);not null;uniqueIndex"` // Маршрутизация входящих уведомлений
	Connected          bool          `json:"connected" gorm:"not null;default:true"`
	Settings           ReplySettings `json:"settings" gorm:"type:jsonb;serializer:json"`
	CreatedAt          time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt          time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName указывает имя таблицы для GORM
func (Business) TableName() string {
	return "businesses"
}

// ReplySettings настройки генерации ответов для бизнеса
type ReplySettings struct {
	ToneOfVoice   string              `json:"tone_of_voice"`  // Например: "friendly", "formal"
	LanguageMode  string              `json:"language_mode"`  // "review" - язык отзыва, либо код языка
	MaxSentences  int                 `json:"max_sentences"`  // Ограничение длины ответа
	AllowedEmojis []string            `json:"allowed_emojis"` // Пустой список = без эмодзи
	Signature     string              `json:"signature"`      // Подпись в конце ответа
	ContactPhone  string              `json:"contact_phone"`  // Телефон для негативных отзывов
	StarConfigs   map[int]StarConfig  `json:"star_configs"`   // Настройки по оценке 1..5
}

// StarConfig настройки для конкретной оценки
type StarConfig struct {
	CustomInstructions string `json:"custom_instructions"`
	AutoReply          bool   `json:"auto_reply"`
}

// StarConfigFor возвращает настройки для оценки
// Для не настроенной оценки возвращается нулевая конфигурация (auto_reply = false)
func (s ReplySettings) StarConfigFor(rating int) StarConfig {
	if cfg, ok := s.StarConfigs[rating]; ok {
		return cfg
	}
	return StarConfig{}
}

// ReviewStatus статусы жизненного цикла отзыва
type ReviewStatus string

const (
	StatusPending       ReviewStatus = "pending"        // Ожидает обработки либо ручного подтверждения
	StatusQuotaExceeded ReviewStatus = "quota_exceeded" // Квота тарифа исчерпана
	StatusPosted        ReviewStatus = "posted"         // Ответ опубликован на платформе
	StatusFailed        ReviewStatus = "failed"         // Публикация не удалась, переобрабатывается через regenerate
	StatusRejected      ReviewStatus = "rejected"       // Отклонен пользователем
)

// SystemActor маркер автоматической публикации в поле posted_by
const SystemActor = "system"

// Review отзыв клиента на бизнес
// (business_id, external_review_id) уникальна - защита от повторной доставки
type Review struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	BusinessID       string             `json:"business_id" bson:"business_id"`
	ExternalReviewID string             `json:"external_review_id" bson:"external_review_id"`
	ResourceName     string             `json:"resource_name" bson:"resource_name"` // Полное имя ресурса для API платформы
	ReviewerName     string             `json:"reviewer_name" bson:"reviewer_name"`
	ReviewerPhotoURL string             `json:"reviewer_photo_url,omitempty" bson:"reviewer_photo_url,omitempty"`
	Rating           int                `json:"rating" bson:"rating"` // Оценка от 1 до 5
	Text             string             `json:"text,omitempty" bson:"text,omitempty"`
	ReviewDate       time.Time          `json:"review_date" bson:"review_date"`
	ReceivedAt       time.Time          `json:"received_at" bson:"received_at"`
	AIReply          string             `json:"ai_reply,omitempty" bson:"ai_reply,omitempty"`
	AIReplyAt        *time.Time         `json:"ai_reply_at,omitempty" bson:"ai_reply_at,omitempty"`
	Status           ReviewStatus       `json:"status" bson:"status"`
	PostedReply      string             `json:"posted_reply,omitempty" bson:"posted_reply,omitempty"` // Может отличаться от ai_reply после правки
	PostedAt         *time.Time         `json:"posted_at,omitempty" bson:"posted_at,omitempty"`
	PostedBy         string             `json:"posted_by,omitempty" bson:"posted_by,omitempty"`
	Edited           bool               `json:"edited" bson:"edited"`
}

// Типы входящих уведомлений платформы
const (
	NotificationNewReview     = "NEW_REVIEW"
	NotificationUpdatedReview = "UPDATED_REVIEW"
)

// ReviewReceivedEvent событие для асинхронного запуска обработки отзыва
type ReviewReceivedEvent struct {
	EventType  string    `json:"event_type"` // REVIEW_RECEIVED
	AccountID  string    `json:"account_id"`
	BusinessID string    `json:"business_id"`
	ReviewID   string    `json:"review_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// EventTypeReviewReceived тип события запуска обработки
const EventTypeReviewReceived = "REVIEW_RECEIVED"
