package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"link-tracker/internal/models"
	"link-tracker/internal/repository"
)

const recentFeedSize = 10

// AnalyticsService read-сторона: агрегация записанных кликов.
// В отличие от трекингового пути ошибки чтения здесь не глотаются,
// а возвращаются вызывающему - дашборд должен знать, что данных нет.
type AnalyticsService interface {
	LinkAnalytics(ctx context.Context, linkID uuid.UUID, start, end *time.Time) (*models.LinkAnalytics, error)
	CreatorAnalytics(ctx context.Context, linkID uuid.UUID, creator, submission string) (*models.CreatorAnalytics, error)
}

type analyticsService struct {
	clickRepo repository.ClickRepository
	linkRepo  repository.LinkRepository
}

func NewAnalyticsService(clickRepo repository.ClickRepository, linkRepo repository.LinkRepository) AnalyticsService {
	return &analyticsService{
		clickRepo: clickRepo,
		linkRepo:  linkRepo,
	}
}

// LinkAnalytics агрегирует клики одной ссылки. Явные границы дат
// ограничивают само множество кликов; без них берётся полная история,
// а дневной ряд строится за текущую неделю (понедельник-воскресенье).
func (s *analyticsService) LinkAnalytics(ctx context.Context, linkID uuid.UUID, start, end *time.Time) (*models.LinkAnalytics, error) {
	link, err := s.linkRepo.GetByID(ctx, linkID)
	if err != nil {
		return nil, err
	}

	var from, to *time.Time
	rangeStart, rangeEnd := CurrentWeekRange(time.Now())
	if start != nil && end != nil {
		rangeStart, rangeEnd = *start, *end
		f := startOfDay(rangeStart)
		t := endOfDay(rangeEnd)
		from, to = &f, &t
	}

	clicks, err := s.clickRepo.ListByLink(ctx, linkID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load clicks: %w", err)
	}

	result := Aggregate(clicks, link.LinkTitle, rangeStart, rangeEnd)
	return &result, nil
}

// CreatorAnalytics статистика одного creator username с опциональным
// сужением до одного submission номера (пустая строка = все)
func (s *analyticsService) CreatorAnalytics(ctx context.Context, linkID uuid.UUID, creator, submission string) (*models.CreatorAnalytics, error) {
	clicks, err := s.clickRepo.ListByLinkAndCreator(ctx, linkID, creator)
	if err != nil {
		return nil, fmt.Errorf("failed to load creator clicks: %w", err)
	}

	result := AggregateCreator(clicks, creator, submission)
	return &result, nil
}

// Aggregate строит полную статистику за один проход по кликам.
// Тотальная функция: пустой вход даёт нулевые счётчики и дневной ряд
// без пропусков, а не ошибку. Вход обязан быть отсортирован по
// clicked_at по убыванию (так его отдаёт репозиторий).
func Aggregate(clicks []models.LinkClick, linkTitle string, rangeStart, rangeEnd time.Time) models.LinkAnalytics {
	byTitle := make(map[string]int64)
	byCreator := make(map[string]int64)
	bySubmission := make(map[string]int64)
	byCountry := make(map[string]int64)
	byDevice := make(map[string]int64)
	byBrowser := make(map[string]int64)
	byDay := make(map[string]int64)

	for _, click := range clicks {
		// Название берётся у самой ссылки, не из записи клика
		if linkTitle != "" {
			byTitle[linkTitle]++
		}

		// Пустые и NULL значения исключаются из своей группировки,
		// а не считаются как "Unknown"
		countInto(byCreator, click.CreatorUsername)
		countInto(bySubmission, click.SubmissionNumber)
		countInto(byCountry, click.Country)
		if click.DeviceType != "" {
			byDevice[click.DeviceType]++
		}
		if click.Browser != "" {
			byBrowser[click.Browser]++
		}

		byDay[click.ClickedAt.In(time.Local).Format("2006-01-02")]++
	}

	return models.LinkAnalytics{
		TotalClicks:  int64(len(clicks)),
		ByLinkTitle:  sortedByCount(byTitle),
		ByCreator:    sortedByCount(byCreator),
		BySubmission: sortedBySubmission(bySubmission),
		ByCountry:    sortedByCount(byCountry),
		ByDevice:     sortedByCount(byDevice),
		ByBrowser:    sortedByCount(byBrowser),
		Daily:        dailySeries(byDay, rangeStart, rangeEnd),
		Recent:       recentFeed(clicks),
	}
}

// AggregateCreator статистика подмножества кликов одного creator.
// submission сужает подмножество до одного номера; AllSubmissions
// всегда считается по полному множеству creator'а.
func AggregateCreator(clicks []models.LinkClick, creator, submission string) models.CreatorAnalytics {
	allSubmissions := distinctSubmissions(clicks)

	filtered := clicks
	if submission != "" {
		filtered = make([]models.LinkClick, 0, len(clicks))
		for _, click := range clicks {
			if click.SubmissionNumber != nil && *click.SubmissionNumber == submission {
				filtered = append(filtered, click)
			}
		}
	}

	bySubmission := make(map[string]int64)
	byCountry := make(map[string]int64)
	byDevice := make(map[string]int64)
	byBrowser := make(map[string]int64)

	for _, click := range filtered {
		countInto(bySubmission, click.SubmissionNumber)
		countInto(byCountry, click.Country)
		if click.DeviceType != "" {
			byDevice[click.DeviceType]++
		}
		if click.Browser != "" {
			byBrowser[click.Browser]++
		}
	}

	return models.CreatorAnalytics{
		Creator:        creator,
		Submission:     submission,
		TotalClicks:    int64(len(filtered)),
		BySubmission:   sortedBySubmission(bySubmission),
		ByCountry:      sortedByCount(byCountry),
		ByDevice:       sortedByCount(byDevice),
		ByBrowser:      sortedByCount(byBrowser),
		AllSubmissions: allSubmissions,
		Recent:         recentFeed(filtered),
	}
}

// CurrentWeekRange границы текущей недели в локальном времени:
// понедельник и воскресенье включительно. Для воскресенья понедельник
// отсчитывается назад на шесть дней.
func CurrentWeekRange(now time.Time) (time.Time, time.Time) {
	day := startOfDay(now)

	offset := int(day.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset = 6 // воскресенье
	}

	monday := day.AddDate(0, 0, -offset)
	sunday := monday.AddDate(0, 0, 6)
	return monday, sunday
}

func startOfDay(t time.Time) time.Time {
	t = t.In(time.Local)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// dailySeries один элемент на каждый календарный день диапазона
// включительно; дни без кликов присутствуют с нулём - ряд без пропусков
func dailySeries(byDay map[string]int64, start, end time.Time) []models.DayCount {
	series := []models.DayCount{}
	for day := startOfDay(start); !day.After(startOfDay(end)); day = day.AddDate(0, 0, 1) {
		date := day.Format("2006-01-02")
		series = append(series, models.DayCount{
			Date:   date,
			Label:  day.Format("Jan 2"),
			Clicks: byDay[date],
		})
	}
	return series
}

func recentFeed(clicks []models.LinkClick) []models.LinkClick {
	if len(clicks) > recentFeedSize {
		clicks = clicks[:recentFeedSize]
	}
	// Копия, чтобы вызывающий не держал весь исходный срез
	recent := make([]models.LinkClick, len(clicks))
	copy(recent, clicks)
	return recent
}

func countInto(counts map[string]int64, value *string) {
	if value != nil && *value != "" {
		counts[*value]++
	}
}

// sortedByCount порядок по умолчанию: убывание количества, при
// равенстве по ключу - чтобы результат был детерминированным
func sortedByCount(counts map[string]int64) []models.CountEntry {
	entries := make([]models.CountEntry, 0, len(counts))
	for key, count := range counts {
		entries = append(entries, models.CountEntry{Key: key, Count: count})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Key < entries[j].Key
	})

	return entries
}

// sortedBySubmission submission группировка сортируется по своему
// правилу, а не по количеству
func sortedBySubmission(counts map[string]int64) []models.CountEntry {
	entries := make([]models.CountEntry, 0, len(counts))
	for key, count := range counts {
		entries = append(entries, models.CountEntry{Key: key, Count: count})
	}

	sort.Slice(entries, func(i, j int) bool {
		return submissionLess(entries[i].Key, entries[j].Key)
	})

	return entries
}

// distinctSubmissions уникальные submission номера, отсортированные
// по правилу submission ключей
func distinctSubmissions(clicks []models.LinkClick) []string {
	seen := make(map[string]struct{})
	var submissions []string
	for _, click := range clicks {
		if click.SubmissionNumber == nil || *click.SubmissionNumber == "" {
			continue
		}
		if _, ok := seen[*click.SubmissionNumber]; ok {
			continue
		}
		seen[*click.SubmissionNumber] = struct{}{}
		submissions = append(submissions, *click.SubmissionNumber)
	}

	sort.Slice(submissions, func(i, j int) bool {
		return submissionLess(submissions[i], submissions[j])
	})

	return submissions
}

// submissionLess единое правило сортировки submission ключей.
// Исходный дашборд применял числовую сортировку непоследовательно;
// здесь зафиксировано одно правило: ключи вида "sub<число>" идут по
// возрастанию числа и раньше любых прочих ключей, прочие -
// по алфавиту между собой. Правило стабильно и воспроизводимо.
func submissionLess(a, b string) bool {
	aNum, aOK := submissionOrdinal(a)
	bNum, bOK := submissionOrdinal(b)

	switch {
	case aOK && bOK:
		if aNum != bNum {
			return aNum < bNum
		}
		return a < b
	case aOK:
		return true
	case bOK:
		return false
	default:
		return a < b
	}
}

// submissionOrdinal извлекает число из ключа вида "sub<число>"
func submissionOrdinal(key string) (int, bool) {
	rest, ok := strings.CutPrefix(key, "sub")
	if !ok || rest == "" {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
