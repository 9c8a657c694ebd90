package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"link-tracker/internal/models"
	"link-tracker/internal/service"
	"link-tracker/internal/service/mocks"
)

func strPtr(s string) *string {
	return &s
}

// click хелпер для построения тестовых кликов
func click(linkID uuid.UUID, creator, submission, country, device, browser string, at time.Time) models.LinkClick {
	c := models.LinkClick{
		ID:         uuid.New(),
		LinkID:     linkID,
		UserAgent:  "test-agent",
		DeviceType: device,
		Browser:    browser,
		OS:         "Other",
		ClickedAt:  at,
	}
	if creator != "" {
		c.CreatorUsername = strPtr(creator)
	}
	if submission != "" {
		c.SubmissionNumber = strPtr(submission)
	}
	if country != "" {
		c.Country = strPtr(country)
	}
	return c
}

// TestAggregate_Empty пустой вход даёт нулевые счётчики и дневной ряд
// без пропусков, а не ошибку
func TestAggregate_Empty(t *testing.T) {
	start := time.Date(2025, 10, 6, 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 0, 6)

	result := service.Aggregate(nil, "My Link", start, end)

	assert.Equal(t, int64(0), result.TotalClicks)
	assert.Empty(t, result.ByCreator)
	assert.Empty(t, result.ByCountry)
	assert.Empty(t, result.Recent)

	// Ровно 7 дней, все с нулём
	require.Len(t, result.Daily, 7)
	assert.Equal(t, "2025-10-06", result.Daily[0].Date)
	assert.Equal(t, "Oct 6", result.Daily[0].Label)
	assert.Equal(t, "2025-10-12", result.Daily[6].Date)
	for _, day := range result.Daily {
		assert.Equal(t, int64(0), day.Clicks)
	}
}

// TestAggregate_Groupings группировки считаются по убыванию количества,
// NULL значения исключаются из своих группировок
func TestAggregate_Groupings(t *testing.T) {
	linkID := uuid.New()
	day := time.Date(2025, 10, 8, 12, 0, 0, 0, time.Local)

	clicks := []models.LinkClick{
		click(linkID, "alice", "sub1", "Germany", "desktop", "Chrome", day),
		click(linkID, "alice", "sub1", "Germany", "mobile", "Firefox", day),
		click(linkID, "bob", "sub2", "France", "desktop", "Chrome", day),
		// Клик без creator и страны: учитывается в totals, выпадает из группировок
		click(linkID, "", "", "", "desktop", "Chrome", day),
	}

	result := service.Aggregate(clicks, "Campaign", day, day)

	assert.Equal(t, int64(4), result.TotalClicks)

	// Название ссылки одно на все клики
	require.Len(t, result.ByLinkTitle, 1)
	assert.Equal(t, models.CountEntry{Key: "Campaign", Count: 4}, result.ByLinkTitle[0])

	require.Len(t, result.ByCreator, 2)
	assert.Equal(t, models.CountEntry{Key: "alice", Count: 2}, result.ByCreator[0])
	assert.Equal(t, models.CountEntry{Key: "bob", Count: 1}, result.ByCreator[1])

	require.Len(t, result.ByCountry, 2)
	assert.Equal(t, "Germany", result.ByCountry[0].Key)

	require.Len(t, result.ByBrowser, 2)
	assert.Equal(t, models.CountEntry{Key: "Chrome", Count: 3}, result.ByBrowser[0])
}

// TestAggregate_SubmissionSort submission ключи сортируются по числу,
// прочие ключи идут после по алфавиту. Порядок стабилен между вызовами.
func TestAggregate_SubmissionSort(t *testing.T) {
	linkID := uuid.New()
	day := time.Date(2025, 10, 8, 12, 0, 0, 0, time.Local)

	clicks := []models.LinkClick{
		click(linkID, "a", "sub2", "", "desktop", "Chrome", day),
		click(linkID, "a", "sub10", "", "desktop", "Chrome", day),
		click(linkID, "a", "sub1", "", "desktop", "Chrome", day),
		click(linkID, "a", "bonus", "", "desktop", "Chrome", day),
	}

	var previous []string
	for i := 0; i < 5; i++ {
		result := service.Aggregate(clicks, "t", day, day)

		keys := make([]string, len(result.BySubmission))
		for j, e := range result.BySubmission {
			keys[j] = e.Key
		}

		assert.Equal(t, []string{"sub1", "sub2", "sub10", "bonus"}, keys)
		if previous != nil {
			assert.Equal(t, previous, keys, "порядок должен быть стабилен")
		}
		previous = keys
	}
}

// TestAggregate_DailySeries дни без кликов присутствуют с нулём
func TestAggregate_DailySeries(t *testing.T) {
	linkID := uuid.New()
	start := time.Date(2025, 10, 6, 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 0, 6)

	clicks := []models.LinkClick{
		click(linkID, "a", "sub1", "", "desktop", "Chrome", start.Add(10*time.Hour)),
		click(linkID, "a", "sub1", "", "desktop", "Chrome", start.Add(11*time.Hour)),
		click(linkID, "a", "sub1", "", "desktop", "Chrome", start.AddDate(0, 0, 3).Add(time.Hour)),
	}

	result := service.Aggregate(clicks, "t", start, end)

	require.Len(t, result.Daily, 7)
	assert.Equal(t, int64(2), result.Daily[0].Clicks)
	assert.Equal(t, int64(0), result.Daily[1].Clicks)
	assert.Equal(t, int64(1), result.Daily[3].Clicks)
	assert.Equal(t, int64(0), result.Daily[6].Clicks)
}

// TestAggregate_RecentFeed лента берёт первые 10 записей входа как есть
func TestAggregate_RecentFeed(t *testing.T) {
	linkID := uuid.New()
	day := time.Date(2025, 10, 8, 0, 0, 0, 0, time.Local)

	var clicks []models.LinkClick
	for i := 0; i < 15; i++ {
		clicks = append(clicks, click(linkID, "a", "sub1", "", "desktop", "Chrome", day.Add(-time.Duration(i)*time.Minute)))
	}

	result := service.Aggregate(clicks, "t", day, day)

	require.Len(t, result.Recent, 10)
	// Поля записей ленты совпадают с входом дословно
	for i := 0; i < 10; i++ {
		assert.Equal(t, clicks[i].ID, result.Recent[i].ID)
		assert.Equal(t, clicks[i].ClickedAt, result.Recent[i].ClickedAt)
	}
}

// TestCurrentWeekRange понедельник-воскресенье в локальном времени
func TestCurrentWeekRange(t *testing.T) {
	tests := []struct {
		name   string
		now    time.Time
		monday string
		sunday string
	}{
		{"wednesday", time.Date(2025, 10, 8, 15, 30, 0, 0, time.Local), "2025-10-06", "2025-10-12"},
		{"monday", time.Date(2025, 10, 6, 0, 0, 1, 0, time.Local), "2025-10-06", "2025-10-12"},
		// Воскресенье относится к уходящей неделе, не к следующей
		{"sunday", time.Date(2025, 10, 12, 23, 0, 0, 0, time.Local), "2025-10-06", "2025-10-12"},
		{"saturday", time.Date(2025, 10, 11, 9, 0, 0, 0, time.Local), "2025-10-06", "2025-10-12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			monday, sunday := service.CurrentWeekRange(tt.now)
			assert.Equal(t, tt.monday, monday.Format("2006-01-02"))
			assert.Equal(t, tt.sunday, sunday.Format("2006-01-02"))
			assert.Equal(t, time.Monday, monday.Weekday())
			assert.Equal(t, time.Sunday, sunday.Weekday())
		})
	}
}

// TestAggregateCreator_SubmissionFilter фильтр по submission сужает
// подсчёты, но AllSubmissions остаётся полным
func TestAggregateCreator_SubmissionFilter(t *testing.T) {
	linkID := uuid.New()
	day := time.Date(2025, 10, 8, 12, 0, 0, 0, time.Local)

	clicks := []models.LinkClick{
		click(linkID, "alice", "sub1", "Germany", "desktop", "Chrome", day),
		click(linkID, "alice", "sub1", "France", "mobile", "Firefox", day),
		click(linkID, "alice", "sub2", "Germany", "desktop", "Chrome", day),
	}

	result := service.AggregateCreator(clicks, "alice", "sub1")

	assert.Equal(t, "alice", result.Creator)
	assert.Equal(t, int64(2), result.TotalClicks)
	assert.Equal(t, []string{"sub1", "sub2"}, result.AllSubmissions)
	require.Len(t, result.BySubmission, 1)
	assert.Equal(t, "sub1", result.BySubmission[0].Key)
	assert.Len(t, result.Recent, 2)
}

// TestAnalyticsService_LinkAnalytics сервис отдаёт агрегат с загрузкой
// кликов из репозитория
func TestAnalyticsService_LinkAnalytics(t *testing.T) {
	linkRepo := mocks.NewMockLinkRepository()
	clickRepo := mocks.NewMockClickRepository()
	svc := service.NewAnalyticsService(clickRepo, linkRepo)

	ctx := context.Background()
	linkID := uuid.New()
	link := &models.Link{
		ID:             linkID,
		ProjectID:      uuid.New(),
		DestinationURL: "https://example.com",
		ShortCode:      "ab123",
		LinkTitle:      "Campaign",
		IsActive:       true,
		CreatedAt:      time.Now(),
	}
	require.NoError(t, linkRepo.Create(ctx, link))

	c := click(linkID, "alice", "sub1", "Germany", "desktop", "Chrome", time.Now())
	require.NoError(t, clickRepo.RecordClick(ctx, &c))

	result, err := svc.LinkAnalytics(ctx, linkID, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, int64(1), result.TotalClicks)
	assert.Equal(t, "Campaign", result.ByLinkTitle[0].Key)
	// Без явного диапазона ряд строится за текущую неделю
	assert.Len(t, result.Daily, 7)
}

// TestAnalyticsService_LinkAnalytics_NotFound несуществующая ссылка
// отдаёт ошибку, а не пустой агрегат
func TestAnalyticsService_LinkAnalytics_NotFound(t *testing.T) {
	svc := service.NewAnalyticsService(mocks.NewMockClickRepository(), mocks.NewMockLinkRepository())

	_, err := svc.LinkAnalytics(context.Background(), uuid.New(), nil, nil)
	assert.Error(t, err)
}

// TestAnalyticsService_LinkAnalytics_BoundedRange явный диапазон
// ограничивает и множество кликов, и дневной ряд
func TestAnalyticsService_LinkAnalytics_BoundedRange(t *testing.T) {
	linkRepo := mocks.NewMockLinkRepository()
	clickRepo := mocks.NewMockClickRepository()
	svc := service.NewAnalyticsService(clickRepo, linkRepo)

	ctx := context.Background()
	linkID := uuid.New()
	require.NoError(t, linkRepo.Create(ctx, &models.Link{
		ID:             linkID,
		ProjectID:      uuid.New(),
		DestinationURL: "https://example.com",
		ShortCode:      "ab123",
		LinkTitle:      "Campaign",
		IsActive:       true,
		CreatedAt:      time.Now(),
	}))

	inside := time.Date(2025, 10, 7, 12, 0, 0, 0, time.Local)
	outside := inside.AddDate(0, 0, -30)
	c1 := click(linkID, "alice", "sub1", "", "desktop", "Chrome", inside)
	c2 := click(linkID, "bob", "sub2", "", "desktop", "Chrome", outside)
	require.NoError(t, clickRepo.RecordClick(ctx, &c1))
	require.NoError(t, clickRepo.RecordClick(ctx, &c2))

	start := time.Date(2025, 10, 6, 0, 0, 0, 0, time.Local)
	end := time.Date(2025, 10, 12, 0, 0, 0, 0, time.Local)
	result, err := svc.LinkAnalytics(ctx, linkID, &start, &end)

	require.NoError(t, err)
	assert.Equal(t, int64(1), result.TotalClicks)
	require.Len(t, result.Daily, 7)
	assert.Equal(t, int64(1), result.Daily[1].Clicks)
}
