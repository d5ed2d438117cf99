package service

import "errors"

var (
	// Ошибки консистентности данных: обработка запущена для несуществующих записей
	// Логируются отдельно от нормальных отказов пайплайна
	ErrReviewNotFound   = errors.New("review not found")
	ErrBusinessNotFound = errors.New("business not found")
	ErrAccountNotFound  = errors.New("account not found")

	// ErrGeneration - типизированная ошибка языковой модели
	// Отличается от бизнес-отказов: процессор не повторяет ее бесконечно
	ErrGeneration = errors.New("reply generation failed")

	// ErrQuotaExceeded - квота тарифа исчерпана (подключение бизнеса)
	ErrQuotaExceeded = errors.New("subscription quota exceeded")

	// ErrNoCredentials - у аккаунта нет refresh токена платформы
	ErrNoCredentials = errors.New("account has no platform credentials")

	// ErrStatusConflict - ручное действие не применимо к текущему статусу отзыва
	ErrStatusConflict = errors.New("review status conflict")

	// ErrMalformedEnvelope - конверт push доставки не декодируется
	// Транзиентная с точки зрения очереди: ответ 5xx вызовет повторную доставку
	ErrMalformedEnvelope = errors.New("malformed push envelope")
)
