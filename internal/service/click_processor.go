package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"link-tracker/internal/models"
	"link-tracker/internal/repository"
)

// Константы worker pool
const (
	defaultWorkerCount   = 3    // Количество воркеров
	defaultChannelBuffer = 1000 // Размер буфера канала
	processTimeout       = 10 * time.Second
)

// ClickProcessor асинхронно записывает события кликов.
// Запись fire-and-forget относительно редиректа: разбор user-agent,
// геолокация и вставка выполняются воркером уже после того, как
// посетитель получил редирект.
type ClickProcessor interface {
	Start()
	Stop()
	Record(ctx context.Context, event *models.TrackEvent) error
}

// clickProcessor реализация на worker pool (канал + горутины)
type clickProcessor struct {
	clickRepo   repository.ClickRepository
	geoResolver *GeoResolver
	logger      *zap.Logger
	events      chan *models.TrackEvent
	workerCount int
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewClickProcessor создаёт новый процессор кликов
func NewClickProcessor(
	clickRepo repository.ClickRepository,
	geoResolver *GeoResolver,
	logger *zap.Logger,
) ClickProcessor {
	return &clickProcessor{
		clickRepo:   clickRepo,
		geoResolver: geoResolver,
		logger:      logger,
		events:      make(chan *models.TrackEvent, defaultChannelBuffer),
		workerCount: defaultWorkerCount,
	}
}

// Start запускает worker pool
func (p *clickProcessor) Start() {
	p.ctx, p.cancel = context.WithCancel(context.Background())

	p.logger.Info("Запуск воркеров процессора кликов", zap.Int("count", p.workerCount))

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop корректно останавливает worker pool
func (p *clickProcessor) Stop() {
	p.logger.Info("Остановка процессора кликов...")
	p.cancel()
	p.wg.Wait()
	p.logger.Info("Процессор кликов остановлен")
}

// worker обрабатывает события кликов из канала
func (p *clickProcessor) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("Воркер кликов запущен", zap.Int("id", id))

	for {
		select {
		case <-p.ctx.Done():
			p.logger.Debug("Воркер кликов остановлен", zap.Int("id", id))
			return

		case event, ok := <-p.events:
			if !ok {
				return
			}
			p.processEvent(event)
		}
	}
}

// processEvent собирает и вставляет ровно одну запись клика.
// Ровно одна попытка вставки: неудачная запись логируется и теряется,
// ретраев нет - клик это побочная статистика, не транзакционные данные.
func (p *clickProcessor) processEvent(event *models.TrackEvent) {
	ctx, cancel := context.WithTimeout(p.ctx, processTimeout)
	defer cancel()

	// Разбор user-agent и геолокация независимы друг от друга;
	// геолокация ограничена таймаутом на каждого провайдера
	signals := ExtractSignals(event.UserAgent)
	location := p.geoResolver.Resolve(ctx, event.IPAddress)

	click := &models.LinkClick{
		ID:               uuid.New(),
		LinkID:           event.Link.ID,
		PlatformName:     nullable(event.Link.Platform),
		CreatorUsername:  nullable(event.CreatorUsername),
		SubmissionNumber: nullable(event.SubmissionNumber),
		IPAddress:        nullable(firstNonEmpty(location.IP, event.IPAddress)),
		UserAgent:        event.UserAgent,
		Referrer:         nullable(event.Referrer),
		Country:          nullable(location.Country),
		City:             nullable(location.City),
		DeviceType:       signals.DeviceType,
		Browser:          signals.Browser,
		OS:               signals.OS,
		ClickedAt:        time.Now(),
	}

	if err := p.clickRepo.RecordClick(ctx, click); err != nil {
		p.logger.Error("Не удалось записать клик",
			zap.String("short_code", event.Link.ShortCode),
			zap.Error(err),
		)
	}
}

// Record отправляет событие в worker pool (неблокирующая операция).
// Отправка происходит до редиректа, поэтому редирект никогда не
// наблюдается раньше, чем попытка записи поставлена в очередь.
func (p *clickProcessor) Record(ctx context.Context, event *models.TrackEvent) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.events <- event:
		return nil
	default:
		// Канал заполнен: предупреждаем и теряем событие, но не
		// задерживаем запрос посетителя
		p.logger.Warn("Буфер канала кликов заполнен, событие потеряно",
			zap.String("short_code", event.Link.ShortCode),
		)
		return nil
	}
}

// nullable превращает пустую строку в NULL
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
