package models

import (
	"time"

	"github.com/google/uuid"
)

// Project группирует трекинговые ссылки одного владельца.
// Slug глобально уникален и используется в трекинговых URL.
type Project struct {
	ID          uuid.UUID `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Slug        string    `json:"slug"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateProjectInput struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description,omitempty"`
	Slug        *string `json:"slug,omitempty"`
}
