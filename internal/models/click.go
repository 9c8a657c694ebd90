package models

import (
	"time"

	"github.com/google/uuid"
)

// LinkClick одно событие перехода по трекинговой ссылке.
// Запись неизменяемая: append-only лог, путь обновления отсутствует.
type LinkClick struct {
	ID               uuid.UUID `json:"id"`
	LinkID           uuid.UUID `json:"link_id"`
	PlatformName     *string   `json:"platform_name,omitempty"`
	CreatorUsername  *string   `json:"creator_username,omitempty"`
	SubmissionNumber *string   `json:"submission_number,omitempty"`
	IPAddress        *string   `json:"ip_address,omitempty"`
	UserAgent        string    `json:"user_agent"`
	Referrer         *string   `json:"referrer,omitempty"`
	Country          *string   `json:"country,omitempty"`
	City             *string   `json:"city,omitempty"`
	DeviceType       string    `json:"device_type"`
	Browser          string    `json:"browser"`
	OS               string    `json:"os"`
	ClickedAt        time.Time `json:"clicked_at"`
}

// TrackRequest разобранный трекинговый URL до резолвинга.
// Пустой ProjectSlug означает глобальный режим (поиск только по short code).
type TrackRequest struct {
	ProjectSlug     string
	ShortCode       string
	Creator         string
	SubmissionToken string
}

// TrackEvent событие для процессора кликов: результат резолвинга плюс
// сырые метаданные запроса. Геолокация и разбор user-agent выполняются
// уже внутри воркера, чтобы не задерживать редирект.
type TrackEvent struct {
	Link             *Link
	CreatorUsername  string
	SubmissionNumber string
	IPAddress        string
	UserAgent        string
	Referrer         string
}

// ClientSignals результат классификации user-agent строки.
type ClientSignals struct {
	DeviceType string `json:"device_type"`
	Browser    string `json:"browser"`
	OS         string `json:"os"`
}

// GeoLocation результат геолокации по IP. Нулевое значение означает,
// что все провайдеры недоступны.
type GeoLocation struct {
	Country string `json:"country,omitempty"`
	City    string `json:"city,omitempty"`
	IP      string `json:"ip,omitempty"`
}
