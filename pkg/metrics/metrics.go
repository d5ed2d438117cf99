package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// HTTP Метрики
// =============================================================================

// HttpRequestsTotal - счётчик всех HTTP запросов
// Labels: service, method, path, status
var HttpRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"service", "method", "path", "status"},
)

// HttpRequestDuration - гистограмма времени ответа
var HttpRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	[]string{"service", "method", "path"},
)

// HttpRequestsInFlight - текущее количество обрабатываемых запросов
var HttpRequestsInFlight = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Current number of HTTP requests being processed",
	},
	[]string{"service"},
)

// =============================================================================
// Kafka Метрики
// =============================================================================

// KafkaMessagesProduced - отправленные сообщения
var KafkaMessagesProduced = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_produced_total",
		Help: "Total number of Kafka messages produced",
	},
	[]string{"service", "topic"},
)

// KafkaMessagesConsumed - полученные сообщения
var KafkaMessagesConsumed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_consumed_total",
		Help: "Total number of Kafka messages consumed",
	},
	[]string{"service", "topic", "group"},
)

// KafkaErrors - ошибки Kafka
var KafkaErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_errors_total",
		Help: "Total number of Kafka errors",
	},
	[]string{"service", "topic", "operation"}, // operation: produce, consume
)

// =============================================================================
// Метрики пайплайна отзывов
// =============================================================================

// WebhookNotifications - входящие push уведомления по результату обработки
// result: ingested, duplicate, unknown_type, business_not_found,
// business_disconnected, missing_credentials, error
var WebhookNotifications = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "webhook_notifications_total",
		Help: "Inbound review notifications by ingestion outcome",
	},
	[]string{"result"},
)

// RepliesGenerated - сгенерированные AI ответы
var RepliesGenerated = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "replies_generated_total",
		Help: "Total number of AI replies generated",
	},
	[]string{"status"}, // success, failed
)

// RepliesPublished - опубликованные ответы
var RepliesPublished = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "replies_published_total",
		Help: "Total number of replies published to the review platform",
	},
	[]string{"mode", "status"}, // mode: auto, manual; status: success, failed
)

// QuotaDenied - отказы по квоте подписки
var QuotaDenied = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "quota_denied_total",
		Help: "Total number of reviews rejected by the subscription quota",
	},
)

// ModelCallDuration - время обращения к языковой модели
var ModelCallDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "model_call_duration_seconds",
		Help:    "Duration of language model calls",
		Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30},
	},
)

// PlatformCallDuration - время обращения к API платформы отзывов
var PlatformCallDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "platform_call_duration_seconds",
		Help:    "Duration of review platform API calls",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	[]string{"operation"}, // get_review, post_reply, subscribe, list_locations
)

// VaultErrors - ошибки расшифровки токенов
var VaultErrors = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "token_vault_errors_total",
		Help: "Total number of refresh token decryption failures",
	},
)

// NotifierFailures - неудачные отправки уведомлений (best-effort)
var NotifierFailures = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "notifier_failures_total",
		Help: "Total number of failed notification sends",
	},
)

// SweepRequeued - отзывы переотправленные на обработку sweep-джобой
var SweepRequeued = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "sweep_requeued_total",
		Help: "Total number of stuck reviews re-enqueued by the sweep job",
	},
)
