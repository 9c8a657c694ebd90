package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"link-tracker/internal/models"
)

var (
	ErrLinkNotFound         = errors.New("link not found")
	ErrDuplicateDestination = errors.New("destination URL already tracked in project")
)

type LinkRepository interface {
	Create(ctx context.Context, link *models.Link) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Link, error)
	GetByProjectAndCode(ctx context.Context, projectID uuid.UUID, code string) (*models.Link, error)
	GetActiveByCode(ctx context.Context, code string) (*models.Link, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Link, error)
	CountByProject(ctx context.Context, projectID uuid.UUID) (int64, error)
	ProjectShortCode(ctx context.Context, projectID uuid.UUID) (string, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type linkRepository struct {
	db *PostgresDB
}

func NewLinkRepository(db *PostgresDB) LinkRepository {
	return &linkRepository{db: db}
}

const linkColumns = `id, project_id, destination_url, short_code, link_title, platform, submission_number, is_active, created_at, updated_at`

func (r *linkRepository) Create(ctx context.Context, link *models.Link) error {
	query := `
		INSERT INTO links (id, project_id, destination_url, short_code, link_title, platform, submission_number, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(
		ctx,
		query,
		link.ID,
		link.ProjectID,
		link.DestinationURL,
		link.ShortCode,
		link.LinkTitle,
		link.Platform,
		link.SubmissionNumber,
		link.IsActive,
	).Scan(&link.CreatedAt, &link.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateDestination
		}
		return fmt.Errorf("failed to create link: %w", err)
	}

	return nil
}

func (r *linkRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE id = $1`
	return r.scanLink(r.db.Pool.QueryRow(ctx, query, id))
}

// GetByProjectAndCode ищет ссылку проекта по short code.
// Несколько ссылок проекта разделяют один код; возвращается первая по
// времени создания - какая именно, для редиректа не важно, а эффективный
// submission номер выбирает резолвер.
func (r *linkRepository) GetByProjectAndCode(ctx context.Context, projectID uuid.UUID, code string) (*models.Link, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM links
		WHERE project_id = $1 AND short_code = $2
		ORDER BY created_at
		LIMIT 1
	`
	return r.scanLink(r.db.Pool.QueryRow(ctx, query, projectID, code))
}

// GetActiveByCode глобальный режим: поиск по short code без проекта
func (r *linkRepository) GetActiveByCode(ctx context.Context, code string) (*models.Link, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM links
		WHERE short_code = $1 AND is_active
		ORDER BY created_at
		LIMIT 1
	`
	return r.scanLink(r.db.Pool.QueryRow(ctx, query, code))
}

func (r *linkRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE project_id = $1 ORDER BY created_at`

	rows, err := r.db.Pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	var links []models.Link
	for rows.Next() {
		var l models.Link
		if err := rows.Scan(
			&l.ID, &l.ProjectID, &l.DestinationURL, &l.ShortCode, &l.LinkTitle,
			&l.Platform, &l.SubmissionNumber, &l.IsActive, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", err)
	}

	return links, nil
}

func (r *linkRepository) CountByProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM links WHERE project_id = $1`, projectID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count links: %w", err)
	}
	return count, nil
}

// ProjectShortCode возвращает short code, уже закреплённый за проектом.
// ErrLinkNotFound означает, что у проекта ещё нет ссылок.
func (r *linkRepository) ProjectShortCode(ctx context.Context, projectID uuid.UUID) (string, error) {
	var code string
	query := `SELECT short_code FROM links WHERE project_id = $1 ORDER BY created_at LIMIT 1`
	err := r.db.Pool.QueryRow(ctx, query, projectID).Scan(&code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrLinkNotFound
		}
		return "", fmt.Errorf("failed to get project short code: %w", err)
	}
	return code, nil
}

func (r *linkRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM links WHERE short_code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check short code: %w", err)
	}
	return exists, nil
}

func (r *linkRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `UPDATE links SET is_active = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Pool.Exec(ctx, query, id, active)
	if err != nil {
		return fmt.Errorf("failed to update link: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrLinkNotFound
	}

	return nil
}

func (r *linkRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Pool.Exec(ctx, `DELETE FROM links WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrLinkNotFound
	}

	return nil
}

func (r *linkRepository) scanLink(row pgx.Row) (*models.Link, error) {
	link := &models.Link{}
	err := row.Scan(
		&link.ID,
		&link.ProjectID,
		&link.DestinationURL,
		&link.ShortCode,
		&link.LinkTitle,
		&link.Platform,
		&link.SubmissionNumber,
		&link.IsActive,
		&link.CreatedAt,
		&link.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	return link, nil
}
