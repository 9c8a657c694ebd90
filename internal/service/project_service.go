package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"link-tracker/internal/models"
	"link-tracker/internal/repository"
)

// ProjectService интерфейс сервиса проектов
type ProjectService interface {
	CreateProject(ctx context.Context, userID string, input *models.CreateProjectInput) (*models.Project, error)
	GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ListProjects(ctx context.Context, userID string) ([]models.Project, error)
	DeleteProject(ctx context.Context, id uuid.UUID) error
}

type projectService struct {
	projectRepo repository.ProjectRepository
	cacheRepo   repository.CacheRepository
	logger      *zap.Logger
}

func NewProjectService(projectRepo repository.ProjectRepository, cacheRepo repository.CacheRepository, logger *zap.Logger) ProjectService {
	return &projectService{
		projectRepo: projectRepo,
		cacheRepo:   cacheRepo,
		logger:      logger,
	}
}

// CreateProject создаёт проект. Slug либо задан явно (тогда должен быть
// свободен), либо генерируется прогрессивно: одна буква, буква и две
// цифры и так далее, пока не найдётся свободный.
func (s *projectService) CreateProject(ctx context.Context, userID string, input *models.CreateProjectInput) (*models.Project, error) {
	slug := ""
	if input.Slug != nil && *input.Slug != "" {
		taken, err := s.projectRepo.SlugExists(ctx, *input.Slug)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, repository.ErrSlugExists
		}
		slug = *input.Slug
	} else {
		generated, err := generateUnique(ctx, slugFormats, s.projectRepo.SlugExists)
		if err != nil {
			return nil, err
		}
		slug = generated
	}

	now := time.Now()
	project := &models.Project{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        input.Name,
		Description: input.Description,
		Slug:        slug,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}

	return project, nil
}

// GetProject получает проект по идентификатору
func (s *projectService) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return s.projectRepo.GetByID(ctx, id)
}

// ListProjects список проектов владельца
func (s *projectService) ListProjects(ctx context.Context, userID string) ([]models.Project, error) {
	return s.projectRepo.ListByOwner(ctx, userID)
}

// DeleteProject удаляет проект вместе со ссылками и кликами (каскад в БД).
// Кэш проекта сбрасывается сразу; записи ссылок доживают свой TTL.
func (s *projectService) DeleteProject(ctx context.Context, id uuid.UUID) error {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.projectRepo.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.cacheRepo.DeleteProject(ctx, project.Slug); err != nil {
		s.logger.Warn("Failed to invalidate project cache", zap.String("slug", project.Slug), zap.Error(err))
	}

	return nil
}
