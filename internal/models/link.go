package models

import (
	"time"

	"github.com/google/uuid"
)

// Link трекинговая ссылка внутри проекта.
// Short code общий для всех ссылок одного проекта; конкретная ссылка
// различается по submission_number ("sub1", "sub2", ...).
type Link struct {
	ID               uuid.UUID `json:"id"`
	ProjectID        uuid.UUID `json:"project_id"`
	DestinationURL   string    `json:"destination_url"`
	ShortCode        string    `json:"short_code"`
	LinkTitle        string    `json:"link_title"`
	Platform         string    `json:"platform"`
	SubmissionNumber string    `json:"submission_number"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type CreateLinkInput struct {
	DestinationURL string `json:"destination_url" binding:"required,url"`
	LinkTitle      string `json:"link_title" binding:"required"`
	Platform       string `json:"platform,omitempty"`
}
