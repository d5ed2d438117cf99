package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	MongoDB  MongoDBConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Platform PlatformConfig
	OpenAI   OpenAIConfig
	Vault    VaultConfig
	Internal InternalConfig
	JWT      JWTConfig
	Notifier NotifierConfig
	Sweep    SweepConfig
}

type ServerConfig struct {
	Host string // Адрес хоста (по умолчанию 0.0.0.0)
	Port string // Порт сервера (по умолчанию 8085)
}

type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type MongoDBConfig struct {
	URI      string // URI подключения к MongoDB
	Database string // Имя базы данных для отзывов
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers  []string // Список брокеров Kafka (формат: host:port)
	Topic    string   // Топик событий REVIEW_RECEIVED
	GroupID  string   // Consumer group обработчика
	MinBytes int
	MaxBytes int
}

type PlatformConfig struct {
	BaseURL string        // Базовый URL API платформы отзывов
	Timeout time.Duration // Таймаут исходящих запросов
}

type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int // Ограничение длины сгенерированного ответа
	Temperature float64
	Timeout     time.Duration
}

type VaultConfig struct {
	Secret string // Серверный секрет для шифрования refresh токенов
}

type InternalConfig struct {
	Token string // Shared secret заголовка X-Internal-Token
}

type JWTConfig struct {
	Secret string // Секретный ключ для проверки JWT токенов дашборда
}

type NotifierConfig struct {
	URL     string // Endpoint сервиса рассылки
	Timeout time.Duration
}

type SweepConfig struct {
	Schedule string        // Cron расписание переотправки зависших отзывов
	Cutoff   time.Duration // Минимальный возраст отзыва без ответа
}

func Load() (*Config, error) {
	vaultSecret := getEnv("VAULT_SECRET", "")
	if vaultSecret == "" {
		return nil, fmt.Errorf("VAULT_SECRET is required")
	}

	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8085"),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			User:     getEnv("POSTGRES_USER", "replyflow"),
			Password: getEnv("POSTGRES_PASSWORD", "replyflow"),
			DBName:   getEnv("POSTGRES_DB", "replyflow"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "replyflow"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:  []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			Topic:    getEnv("KAFKA_TOPIC", "review_received"),
			GroupID:  getEnv("KAFKA_GROUP_ID", "replyflow-processor"),
			MinBytes: getEnvInt("KAFKA_MIN_BYTES", 1),
			MaxBytes: getEnvInt("KAFKA_MAX_BYTES", defaultKafkaMaxBytes),
		},
		Platform: PlatformConfig{
			BaseURL: getEnv("PLATFORM_API_URL", "https://mybusiness.googleapis.com/v4"),
			Timeout: getEnvDuration("PLATFORM_TIMEOUT", 15*time.Second),
		},
		OpenAI: OpenAIConfig{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			MaxTokens:   getEnvInt("OPENAI_MAX_TOKENS", 400),
			Temperature: getEnvFloat("OPENAI_TEMPERATURE", 0.7),
			Timeout:     getEnvDuration("OPENAI_TIMEOUT", 30*time.Second),
		},
		Vault: VaultConfig{
			Secret: vaultSecret,
		},
		Internal: InternalConfig{
			Token: getEnv("INTERNAL_TOKEN", ""),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key-change-this-in-production"),
		},
		Notifier: NotifierConfig{
			URL:     getEnv("NOTIFIER_URL", "http://localhost:8090/send"),
			Timeout: getEnvDuration("NOTIFIER_TIMEOUT", 10*time.Second),
		},
		Sweep: SweepConfig{
			Schedule: getEnv("SWEEP_SCHEDULE", "*/15 * * * *"),
			Cutoff:   getEnvDuration("SWEEP_CUTOFF", 10*time.Minute),
		},
	}, nil
}

// defaultKafkaMaxBytes - 10MB, максимальный размер fetch запроса
const defaultKafkaMaxBytes = 10 * 1024 * 1024

func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host, c.User, c.Password, c.DBName, c.Port, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
