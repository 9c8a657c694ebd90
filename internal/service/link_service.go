package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"link-tracker/internal/models"
	"link-tracker/internal/repository"
)

// LinkService интерфейс сервиса ссылок
type LinkService interface {
	CreateLink(ctx context.Context, projectID uuid.UUID, input *models.CreateLinkInput) (*models.Link, error)
	GetLink(ctx context.Context, id uuid.UUID) (*models.Link, error)
	ListLinks(ctx context.Context, projectID uuid.UUID) ([]models.Link, error)
	SetLinkActive(ctx context.Context, id uuid.UUID, active bool) (*models.Link, error)
	DeleteLink(ctx context.Context, id uuid.UUID) error
}

type linkService struct {
	linkRepo    repository.LinkRepository
	projectRepo repository.ProjectRepository
	cacheRepo   repository.CacheRepository
	logger      *zap.Logger
}

func NewLinkService(
	linkRepo repository.LinkRepository,
	projectRepo repository.ProjectRepository,
	cacheRepo repository.CacheRepository,
	logger *zap.Logger,
) LinkService {
	return &linkService{
		linkRepo:    linkRepo,
		projectRepo: projectRepo,
		cacheRepo:   cacheRepo,
		logger:      logger,
	}
}

// CreateLink создаёт ссылку проекта. Short code общий для всех ссылок
// проекта: у первой ссылки генерируется, остальные переиспользуют его.
// Submission номер назначается порядковым: "sub" + (число ссылок + 1).
// Два destination URL в одном проекте совпадать не могут.
func (s *linkService) CreateLink(ctx context.Context, projectID uuid.UUID, input *models.CreateLinkInput) (*models.Link, error) {
	// Проект должен существовать до любой генерации
	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		return nil, err
	}

	shortCode, err := s.projectShortCode(ctx, projectID)
	if err != nil {
		return nil, err
	}

	count, err := s.linkRepo.CountByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	link := &models.Link{
		ID:               uuid.New(),
		ProjectID:        projectID,
		DestinationURL:   input.DestinationURL,
		ShortCode:        shortCode,
		LinkTitle:        input.LinkTitle,
		Platform:         input.Platform,
		SubmissionNumber: "sub" + strconv.FormatInt(count+1, 10),
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.linkRepo.Create(ctx, link); err != nil {
		return nil, err
	}

	return link, nil
}

// GetLink получает ссылку по идентификатору
func (s *linkService) GetLink(ctx context.Context, id uuid.UUID) (*models.Link, error) {
	return s.linkRepo.GetByID(ctx, id)
}

// ListLinks список ссылок проекта
func (s *linkService) ListLinks(ctx context.Context, projectID uuid.UUID) ([]models.Link, error) {
	return s.linkRepo.ListByProject(ctx, projectID)
}

// SetLinkActive включает или выключает ссылку и сбрасывает её кэш,
// чтобы выключение сработало на редиректах без ожидания TTL
func (s *linkService) SetLinkActive(ctx context.Context, id uuid.UUID, active bool) (*models.Link, error) {
	if err := s.linkRepo.SetActive(ctx, id, active); err != nil {
		return nil, err
	}

	link, err := s.linkRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.invalidateLink(ctx, link)
	return link, nil
}

// DeleteLink удаляет ссылку и сбрасывает её кэш
func (s *linkService) DeleteLink(ctx context.Context, id uuid.UUID) error {
	link, err := s.linkRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.linkRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateLink(ctx, link)
	return nil
}

// projectShortCode возвращает code первой ссылки проекта либо, если
// ссылок ещё нет, генерирует новый глобально уникальный
func (s *linkService) projectShortCode(ctx context.Context, projectID uuid.UUID) (string, error) {
	code, err := s.linkRepo.ProjectShortCode(ctx, projectID)
	if err == nil {
		return code, nil
	}
	if !errors.Is(err, repository.ErrLinkNotFound) {
		return "", err
	}

	return generateUnique(ctx, codeFormats, s.linkRepo.CodeExists)
}

// invalidateLink сбрасывает оба ключа кэша резолвера: со slug проекта
// и глобальный. Ошибки кэша не фатальны, запись доживёт свой TTL.
func (s *linkService) invalidateLink(ctx context.Context, link *models.Link) {
	project, err := s.projectRepo.GetByID(ctx, link.ProjectID)
	if err == nil {
		if cacheErr := s.cacheRepo.DeleteLink(ctx, project.Slug+"/"+link.ShortCode); cacheErr != nil {
			s.logger.Warn("Failed to invalidate link cache", zap.Error(cacheErr))
		}
	}

	if cacheErr := s.cacheRepo.DeleteLink(ctx, "global/"+link.ShortCode); cacheErr != nil {
		s.logger.Warn("Failed to invalidate link cache", zap.Error(cacheErr))
	}
}
