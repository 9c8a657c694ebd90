package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"link-tracker/internal/handler"
	"link-tracker/internal/models"
	"link-tracker/internal/service"
	"link-tracker/internal/service/mocks"
)

// trackEnv тестовое окружение трекингового пути: моковые репозитории,
// настоящие резолвер и процессор кликов
type trackEnv struct {
	router    *gin.Engine
	clickRepo *mocks.MockClickRepository
	linkRepo  *mocks.MockLinkRepository
	processor service.ClickProcessor
	project   *models.Project
	link      *models.Link
}

func setupTrackEnv(t *testing.T) *trackEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	projectRepo := mocks.NewMockProjectRepository()
	linkRepo := mocks.NewMockLinkRepository()
	clickRepo := mocks.NewMockClickRepository()
	cacheRepo := mocks.NewMockCacheRepository()
	logger, _ := zap.NewDevelopment()

	ctx := context.Background()
	project := &models.Project{
		ID:        uuid.New(),
		UserID:    "owner",
		Name:      "Test",
		Slug:      "p1",
		CreatedAt: time.Now(),
	}
	require.NoError(t, projectRepo.Create(ctx, project))

	link := &models.Link{
		ID:               uuid.New(),
		ProjectID:        project.ID,
		DestinationURL:   "https://example.com/video",
		ShortCode:        "ab123",
		LinkTitle:        "Campaign",
		Platform:         "youtube",
		SubmissionNumber: "sub1",
		IsActive:         true,
		CreatedAt:        time.Now(),
	}
	require.NoError(t, linkRepo.Create(ctx, link))

	resolver := service.NewLinkResolver(projectRepo, linkRepo, cacheRepo, logger)
	geo := service.NewGeoResolverWithProviders(nil, logger)
	processor := service.NewClickProcessor(clickRepo, geo, logger)
	processor.Start()
	t.Cleanup(processor.Stop)

	trackHandler := handler.NewTrackHandler(resolver, processor, logger)

	router := gin.New()
	router.GET("/:projectSlug/:shortCode", trackHandler.Track)
	router.GET("/:projectSlug/:shortCode/:creator", trackHandler.Track)
	router.GET("/:projectSlug/:shortCode/:creator/:submission", trackHandler.Track)

	return &trackEnv{
		router:    router,
		clickRepo: clickRepo,
		linkRepo:  linkRepo,
		processor: processor,
		project:   project,
		link:      link,
	}
}

func (e *trackEnv) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", path, nil)
	e.router.ServeHTTP(w, req)
	return w
}

// waitClicks ждёт записи ожидаемого числа кликов воркерами
func (e *trackEnv) waitClicks(want int) []models.LinkClick {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if clicks := e.clickRepo.Clicks(); len(clicks) >= want {
			return clicks
		}
		time.Sleep(10 * time.Millisecond)
	}
	return e.clickRepo.Clicks()
}

// TestTrack_Success успешный резолвинг отдаёт 307 на destination и
// ровно одну запись клика
func TestTrack_Success(t *testing.T) {
	env := setupTrackEnv(t)

	w := env.get("/p1/ab123/alice/sub2")

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "https://example.com/video", w.Header().Get("Location"))

	clicks := env.waitClicks(1)
	require.Len(t, clicks, 1)
	assert.Equal(t, env.link.ID, clicks[0].LinkID)
	require.NotNil(t, clicks[0].CreatorUsername)
	assert.Equal(t, "alice", *clicks[0].CreatorUsername)
	// Токен из URL перекрывает submission номер ссылки
	require.NotNil(t, clicks[0].SubmissionNumber)
	assert.Equal(t, "sub2", *clicks[0].SubmissionNumber)
}

// TestTrack_NoToken без токена действует submission номер самой ссылки
func TestTrack_NoToken(t *testing.T) {
	env := setupTrackEnv(t)

	w := env.get("/p1/ab123/alice")

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	clicks := env.waitClicks(1)
	require.Len(t, clicks, 1)
	require.NotNil(t, clicks[0].SubmissionNumber)
	assert.Equal(t, "sub1", *clicks[0].SubmissionNumber)
}

// TestTrack_MalformedToken невалидный токен отдаёт нейтральный редирект
// и ноль записей
func TestTrack_MalformedToken(t *testing.T) {
	env := setupTrackEnv(t)

	w := env.get("/p1/ab123/alice/bonus")

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "about:blank", w.Header().Get("Location"))

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, env.clickRepo.Clicks())
}

// TestTrack_UnknownSlug промах по slug неотличим для посетителя
func TestTrack_UnknownSlug(t *testing.T) {
	env := setupTrackEnv(t)

	w := env.get("/nope/ab123")

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "about:blank", w.Header().Get("Location"))

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, env.clickRepo.Clicks())
}

// TestTrack_InactiveLink выключенная ссылка ведёт на нейтральный редирект
func TestTrack_InactiveLink(t *testing.T) {
	env := setupTrackEnv(t)
	require.NoError(t, env.linkRepo.SetActive(context.Background(), env.link.ID, false))

	w := env.get("/p1/ab123")

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "about:blank", w.Header().Get("Location"))
}

// TestTrack_GlobalMode сегмент "l" включает поиск только по short code
func TestTrack_GlobalMode(t *testing.T) {
	env := setupTrackEnv(t)

	w := env.get("/l/ab123")

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "https://example.com/video", w.Header().Get("Location"))

	clicks := env.waitClicks(1)
	require.Len(t, clicks, 1)
	assert.Nil(t, clicks[0].CreatorUsername)
}

// TestTrack_Concurrent N конкурентных запросов дают N независимых записей
func TestTrack_Concurrent(t *testing.T) {
	env := setupTrackEnv(t)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := env.get("/p1/ab123/alice/sub3")
			assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
		}()
	}
	wg.Wait()

	clicks := env.waitClicks(n)
	assert.Len(t, clicks, n)
}
