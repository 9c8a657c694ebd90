package mocks

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"link-tracker/internal/models"
	"link-tracker/internal/repository"
)

// ErrCacheMiss возвращается мок-кэшем при отсутствии ключа
var ErrCacheMiss = errors.New("cache miss")

// MockProjectRepository implements repository.ProjectRepository for testing
type MockProjectRepository struct {
	mu       sync.RWMutex
	projects map[uuid.UUID]*models.Project
}

func NewMockProjectRepository() *MockProjectRepository {
	return &MockProjectRepository{
		projects: make(map[uuid.UUID]*models.Project),
	}
}

func (m *MockProjectRepository) Create(ctx context.Context, project *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.projects {
		if p.Slug == project.Slug {
			return repository.ErrSlugExists
		}
	}

	clone := *project
	m.projects[project.ID] = &clone
	return nil
}

func (m *MockProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	project, exists := m.projects[id]
	if !exists {
		return nil, repository.ErrProjectNotFound
	}
	clone := *project
	return &clone, nil
}

func (m *MockProjectRepository) GetBySlug(ctx context.Context, slug string) (*models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.projects {
		if p.Slug == slug {
			clone := *p
			return &clone, nil
		}
	}
	return nil, repository.ErrProjectNotFound
}

func (m *MockProjectRepository) ListByOwner(ctx context.Context, userID string) ([]models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []models.Project
	for _, p := range m.projects {
		if p.UserID == userID {
			result = append(result, *p)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockProjectRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.projects {
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.projects[id]; !exists {
		return repository.ErrProjectNotFound
	}
	delete(m.projects, id)
	return nil
}

// MockLinkRepository implements repository.LinkRepository for testing
type MockLinkRepository struct {
	mu    sync.RWMutex
	links map[uuid.UUID]*models.Link
}

func NewMockLinkRepository() *MockLinkRepository {
	return &MockLinkRepository{
		links: make(map[uuid.UUID]*models.Link),
	}
}

func (m *MockLinkRepository) Create(ctx context.Context, link *models.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.links {
		if l.ProjectID == link.ProjectID && l.DestinationURL == link.DestinationURL {
			return repository.ErrDuplicateDestination
		}
	}

	clone := *link
	m.links[link.ID] = &clone
	return nil
}

func (m *MockLinkRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, exists := m.links[id]
	if !exists {
		return nil, repository.ErrLinkNotFound
	}
	clone := *link
	return &clone, nil
}

func (m *MockLinkRepository) GetByProjectAndCode(ctx context.Context, projectID uuid.UUID, code string) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var found *models.Link
	for _, l := range m.links {
		if l.ProjectID != projectID || l.ShortCode != code {
			continue
		}
		if found == nil || l.CreatedAt.Before(found.CreatedAt) {
			found = l
		}
	}
	if found == nil {
		return nil, repository.ErrLinkNotFound
	}
	clone := *found
	return &clone, nil
}

func (m *MockLinkRepository) GetActiveByCode(ctx context.Context, code string) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var found *models.Link
	for _, l := range m.links {
		if l.ShortCode != code || !l.IsActive {
			continue
		}
		if found == nil || l.CreatedAt.Before(found.CreatedAt) {
			found = l
		}
	}
	if found == nil {
		return nil, repository.ErrLinkNotFound
	}
	clone := *found
	return &clone, nil
}

func (m *MockLinkRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []models.Link
	for _, l := range m.links {
		if l.ProjectID == projectID {
			result = append(result, *l)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockLinkRepository) CountByProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64
	for _, l := range m.links {
		if l.ProjectID == projectID {
			count++
		}
	}
	return count, nil
}

func (m *MockLinkRepository) ProjectShortCode(ctx context.Context, projectID uuid.UUID) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var found *models.Link
	for _, l := range m.links {
		if l.ProjectID != projectID {
			continue
		}
		if found == nil || l.CreatedAt.Before(found.CreatedAt) {
			found = l
		}
	}
	if found == nil {
		return "", repository.ErrLinkNotFound
	}
	return found.ShortCode, nil
}

func (m *MockLinkRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, l := range m.links {
		if l.ShortCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockLinkRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, exists := m.links[id]
	if !exists {
		return repository.ErrLinkNotFound
	}
	link.IsActive = active
	link.UpdatedAt = time.Now()
	return nil
}

func (m *MockLinkRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.links[id]; !exists {
		return repository.ErrLinkNotFound
	}
	delete(m.links, id)
	return nil
}

// MockClickRepository implements repository.ClickRepository for testing
type MockClickRepository struct {
	mu     sync.RWMutex
	clicks []models.LinkClick

	// FailWith если установлен, RecordClick возвращает эту ошибку
	FailWith error
}

func NewMockClickRepository() *MockClickRepository {
	return &MockClickRepository{}
}

func (m *MockClickRepository) RecordClick(ctx context.Context, click *models.LinkClick) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWith != nil {
		return m.FailWith
	}

	m.clicks = append(m.clicks, *click)
	return nil
}

func (m *MockClickRepository) ListByLink(ctx context.Context, linkID uuid.UUID, from, to *time.Time) ([]models.LinkClick, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []models.LinkClick
	for _, c := range m.clicks {
		if c.LinkID != linkID {
			continue
		}
		if from != nil && c.ClickedAt.Before(*from) {
			continue
		}
		if to != nil && c.ClickedAt.After(*to) {
			continue
		}
		result = append(result, c)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ClickedAt.After(result[j].ClickedAt)
	})
	return result, nil
}

func (m *MockClickRepository) ListByLinkAndCreator(ctx context.Context, linkID uuid.UUID, creator string) ([]models.LinkClick, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []models.LinkClick
	for _, c := range m.clicks {
		if c.LinkID != linkID {
			continue
		}
		if c.CreatorUsername == nil || *c.CreatorUsername != creator {
			continue
		}
		result = append(result, c)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ClickedAt.After(result[j].ClickedAt)
	})
	return result, nil
}

// Clicks возвращает копию всех записанных кликов
func (m *MockClickRepository) Clicks() []models.LinkClick {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]models.LinkClick, len(m.clicks))
	copy(result, m.clicks)
	return result
}

// MockCacheRepository implements repository.CacheRepository for testing
type MockCacheRepository struct {
	mu       sync.RWMutex
	projects map[string]*models.Project
	links    map[string]*models.Link
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		projects: make(map[string]*models.Project),
		links:    make(map[string]*models.Link),
	}
}

func (m *MockCacheRepository) GetProject(ctx context.Context, slug string) (*models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	project, exists := m.projects[slug]
	if !exists {
		return nil, ErrCacheMiss
	}
	clone := *project
	return &clone, nil
}

func (m *MockCacheRepository) SetProject(ctx context.Context, slug string, project *models.Project, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clone := *project
	m.projects[slug] = &clone
	return nil
}

func (m *MockCacheRepository) GetLink(ctx context.Context, key string) (*models.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, exists := m.links[key]
	if !exists {
		return nil, ErrCacheMiss
	}
	clone := *link
	return &clone, nil
}

func (m *MockCacheRepository) SetLink(ctx context.Context, key string, link *models.Link, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clone := *link
	m.links[key] = &clone
	return nil
}

func (m *MockCacheRepository) DeleteProject(ctx context.Context, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.projects, slug)
	return nil
}

func (m *MockCacheRepository) DeleteLink(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.links, key)
	return nil
}

// HasLink проверяет наличие ключа в мок-кэше без побочных эффектов
func (m *MockCacheRepository) HasLink(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.links[key]
	return exists
}
