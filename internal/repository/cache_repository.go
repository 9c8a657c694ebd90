package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"link-tracker/internal/models"
)

// CacheRepository кэширует результаты резолвинга на горячем пути редиректа
type CacheRepository interface {
	GetProject(ctx context.Context, slug string) (*models.Project, error)
	SetProject(ctx context.Context, slug string, project *models.Project, ttl time.Duration) error
	GetLink(ctx context.Context, key string) (*models.Link, error)
	SetLink(ctx context.Context, key string, link *models.Link, ttl time.Duration) error
	DeleteProject(ctx context.Context, slug string) error
	DeleteLink(ctx context.Context, key string) error
}

type cacheRepository struct {
	redis *RedisDB
}

func NewCacheRepository(redis *RedisDB) CacheRepository {
	return &cacheRepository{redis: redis}
}

func (r *cacheRepository) GetProject(ctx context.Context, slug string) (*models.Project, error) {
	data, err := r.redis.Client.Get(ctx, r.projectKey(slug)).Bytes()
	if err != nil {
		return nil, err
	}

	var project models.Project
	if err := json.Unmarshal(data, &project); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project: %w", err)
	}

	return &project, nil
}

func (r *cacheRepository) SetProject(ctx context.Context, slug string, project *models.Project, ttl time.Duration) error {
	data, err := json.Marshal(project)
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}

	return r.redis.Client.Set(ctx, r.projectKey(slug), data, ttl).Err()
}

func (r *cacheRepository) GetLink(ctx context.Context, key string) (*models.Link, error) {
	data, err := r.redis.Client.Get(ctx, r.linkKey(key)).Bytes()
	if err != nil {
		return nil, err
	}

	var link models.Link
	if err := json.Unmarshal(data, &link); err != nil {
		return nil, fmt.Errorf("failed to unmarshal link: %w", err)
	}

	return &link, nil
}

func (r *cacheRepository) SetLink(ctx context.Context, key string, link *models.Link, ttl time.Duration) error {
	data, err := json.Marshal(link)
	if err != nil {
		return fmt.Errorf("failed to marshal link: %w", err)
	}

	return r.redis.Client.Set(ctx, r.linkKey(key), data, ttl).Err()
}

func (r *cacheRepository) DeleteProject(ctx context.Context, slug string) error {
	return r.redis.Client.Del(ctx, r.projectKey(slug)).Err()
}

func (r *cacheRepository) DeleteLink(ctx context.Context, key string) error {
	return r.redis.Client.Del(ctx, r.linkKey(key)).Err()
}

func (r *cacheRepository) projectKey(slug string) string {
	return "project:" + slug
}

func (r *cacheRepository) linkKey(key string) string {
	return "link:" + key
}
