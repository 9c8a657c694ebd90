package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"link-tracker/internal/models"
)

type ClickRepository interface {
	RecordClick(ctx context.Context, click *models.LinkClick) error
	ListByLink(ctx context.Context, linkID uuid.UUID, from, to *time.Time) ([]models.LinkClick, error)
	ListByLinkAndCreator(ctx context.Context, linkID uuid.UUID, creator string) ([]models.LinkClick, error)
}

type clickRepository struct {
	db *PostgresDB
}

func NewClickRepository(db *PostgresDB) ClickRepository {
	return &clickRepository{db: db}
}

const clickColumns = `id, link_id, platform_name, creator_username, submission_number, ip_address, user_agent, referrer, country, city, device_type, browser, os, clicked_at`

// RecordClick вставляет ровно одну запись клика. Никаких upsert и
// дедупликации: повторные визиты - независимые строки.
func (r *clickRepository) RecordClick(ctx context.Context, click *models.LinkClick) error {
	query := `
		INSERT INTO link_clicks (id, link_id, platform_name, creator_username, submission_number,
			ip_address, user_agent, referrer, country, city, device_type, browser, os, clicked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		click.ID,
		click.LinkID,
		click.PlatformName,
		click.CreatorUsername,
		click.SubmissionNumber,
		click.IPAddress,
		click.UserAgent,
		click.Referrer,
		click.Country,
		click.City,
		click.DeviceType,
		click.Browser,
		click.OS,
		click.ClickedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to record click: %w", err)
	}

	return nil
}

// ListByLink возвращает клики ссылки по убыванию clicked_at,
// опционально ограниченные датами (включительно)
func (r *clickRepository) ListByLink(ctx context.Context, linkID uuid.UUID, from, to *time.Time) ([]models.LinkClick, error) {
	query := `
		SELECT ` + clickColumns + `
		FROM link_clicks
		WHERE link_id = $1
			AND ($2::timestamptz IS NULL OR clicked_at >= $2)
			AND ($3::timestamptz IS NULL OR clicked_at <= $3)
		ORDER BY clicked_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, linkID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list clicks: %w", err)
	}
	defer rows.Close()

	return scanClicks(rows)
}

func (r *clickRepository) ListByLinkAndCreator(ctx context.Context, linkID uuid.UUID, creator string) ([]models.LinkClick, error) {
	query := `
		SELECT ` + clickColumns + `
		FROM link_clicks
		WHERE link_id = $1 AND creator_username = $2
		ORDER BY clicked_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, linkID, creator)
	if err != nil {
		return nil, fmt.Errorf("failed to list creator clicks: %w", err)
	}
	defer rows.Close()

	return scanClicks(rows)
}

type clickRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanClicks(rows clickRows) ([]models.LinkClick, error) {
	var clicks []models.LinkClick
	for rows.Next() {
		var c models.LinkClick
		if err := rows.Scan(
			&c.ID, &c.LinkID, &c.PlatformName, &c.CreatorUsername, &c.SubmissionNumber,
			&c.IPAddress, &c.UserAgent, &c.Referrer, &c.Country, &c.City,
			&c.DeviceType, &c.Browser, &c.OS, &c.ClickedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan click: %w", err)
		}
		clicks = append(clicks, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clicks: %w", err)
	}

	return clicks, nil
}
