package service

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.uber.org/zap"

	"link-tracker/internal/models"
	"link-tracker/internal/repository"
)

// Ошибки резолвера. Для посетителя все они неразличимы: диспетчер
// превращает любую из них в нейтральный редирект без записи клика.
var (
	ErrInvalidSubmission = errors.New("невалидный формат submission токена")
	ErrLinkInactive      = errors.New("ссылка деактивирована")
)

// Формат submission токена в URL: "sub" плюс цифры
var submissionPattern = regexp.MustCompile(`^sub\d+$`)

const resolverCacheTTL = 5 * time.Minute

// LinkResolver находит целевую ссылку для трекингового запроса.
// Один интерфейс, два явных режима: со slug проекта и глобальный
// (только short code, активные ссылки).
type LinkResolver interface {
	Resolve(ctx context.Context, req models.TrackRequest) (*models.Link, string, error)
}

type linkResolver struct {
	projectRepo repository.ProjectRepository
	linkRepo    repository.LinkRepository
	cacheRepo   repository.CacheRepository
	logger      *zap.Logger
}

func NewLinkResolver(
	projectRepo repository.ProjectRepository,
	linkRepo repository.LinkRepository,
	cacheRepo repository.CacheRepository,
	logger *zap.Logger,
) LinkResolver {
	return &linkResolver{
		projectRepo: projectRepo,
		linkRepo:    linkRepo,
		cacheRepo:   cacheRepo,
		logger:      logger,
	}
}

// Resolve возвращает найденную ссылку и эффективный submission номер.
// Токен из URL имеет приоритет над значением, сохранённым у ссылки.
// Невалидный токен прерывает резолвинг до любых обращений к хранилищу.
func (r *linkResolver) Resolve(ctx context.Context, req models.TrackRequest) (*models.Link, string, error) {
	if req.SubmissionToken != "" && !submissionPattern.MatchString(req.SubmissionToken) {
		return nil, "", ErrInvalidSubmission
	}

	var (
		link *models.Link
		err  error
	)

	if req.ProjectSlug != "" {
		link, err = r.resolveScoped(ctx, req.ProjectSlug, req.ShortCode)
	} else {
		link, err = r.resolveGlobal(ctx, req.ShortCode)
	}
	if err != nil {
		return nil, "", err
	}

	if !link.IsActive {
		return nil, "", ErrLinkInactive
	}

	// Эффективный submission номер: URL важнее сохранённого
	submission := link.SubmissionNumber
	if req.SubmissionToken != "" {
		submission = req.SubmissionToken
	}

	return link, submission, nil
}

// resolveScoped режим со slug: сначала проект, затем ссылка проекта
func (r *linkResolver) resolveScoped(ctx context.Context, slug, code string) (*models.Link, error) {
	project, err := r.cacheRepo.GetProject(ctx, slug)
	if err != nil {
		project, err = r.projectRepo.GetBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		if cacheErr := r.cacheRepo.SetProject(ctx, slug, project, resolverCacheTTL); cacheErr != nil {
			r.logger.Debug("Failed to cache project", zap.Error(cacheErr))
		}
	}

	cacheKey := slug + "/" + code
	link, err := r.cacheRepo.GetLink(ctx, cacheKey)
	if err == nil {
		return link, nil
	}

	link, err = r.linkRepo.GetByProjectAndCode(ctx, project.ID, code)
	if err != nil {
		return nil, err
	}

	if cacheErr := r.cacheRepo.SetLink(ctx, cacheKey, link, resolverCacheTTL); cacheErr != nil {
		r.logger.Debug("Failed to cache link", zap.Error(cacheErr))
	}

	return link, nil
}

// resolveGlobal режим без проекта: только активные ссылки по short code
func (r *linkResolver) resolveGlobal(ctx context.Context, code string) (*models.Link, error) {
	cacheKey := "global/" + code
	link, err := r.cacheRepo.GetLink(ctx, cacheKey)
	if err == nil {
		return link, nil
	}

	link, err = r.linkRepo.GetActiveByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if cacheErr := r.cacheRepo.SetLink(ctx, cacheKey, link, resolverCacheTTL); cacheErr != nil {
		r.logger.Debug("Failed to cache link", zap.Error(cacheErr))
	}

	return link, nil
}
