package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"link-tracker/internal/models"
	"link-tracker/internal/service"
)

// Константы трекингового пути
const (
	// Нейтральная цель редиректа: любые промахи и сбои отправляют
	// посетителя сюда, не раскрывая причину
	blankTarget = "about:blank"

	// Первый сегмент глобального режима: /l/{shortCode} вместо
	// /{projectSlug}/{shortCode}
	globalPrefix = "l"
)

// TrackHandler обрабатывает трекинговые редиректы
type TrackHandler struct {
	resolver service.LinkResolver
	clicks   service.ClickProcessor
	logger   *zap.Logger
}

func NewTrackHandler(resolver service.LinkResolver, clicks service.ClickProcessor, logger *zap.Logger) *TrackHandler {
	return &TrackHandler{
		resolver: resolver,
		clicks:   clicks,
		logger:   logger,
	}
}

// Track godoc
// @Summary Tracking redirect
// @Description Resolve a tracked link, record the click and redirect the visitor
// @Tags tracking
// @Param projectSlug path string true "Project slug, or 'l' for global mode"
// @Param shortCode path string true "Short code"
// @Param creator path string false "Creator username"
// @Param submission path string false "Submission token (sub<digits>)"
// @Success 307 {object} nil
// @Router /{projectSlug}/{shortCode}/{creator}/{submission} [get]
func (h *TrackHandler) Track(c *gin.Context) {
	// Паника в трекинговом пути не должна уронить редирект посетителя
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("Panic in tracking pipeline", zap.Any("panic", rec))
			if !c.Writer.Written() {
				c.Redirect(http.StatusTemporaryRedirect, blankTarget)
			}
		}
	}()

	req := models.TrackRequest{
		ProjectSlug:     c.Param("projectSlug"),
		ShortCode:       c.Param("shortCode"),
		Creator:         c.Param("creator"),
		SubmissionToken: c.Param("submission"),
	}

	// Сегмент "l" занимает слот slug, но означает глобальный режим
	if req.ProjectSlug == globalPrefix {
		req.ProjectSlug = ""
	}

	link, submission, err := h.resolver.Resolve(c.Request.Context(), req)
	if err != nil {
		// Промах неотличим от успеха для посетителя, клик не пишется
		h.logger.Debug("Tracking resolution failed",
			zap.String("slug", req.ProjectSlug),
			zap.String("code", req.ShortCode),
			zap.Error(err),
		)
		c.Redirect(http.StatusTemporaryRedirect, blankTarget)
		return
	}

	// Запись клика поставлена в очередь до редиректа
	event := &models.TrackEvent{
		Link:             link,
		CreatorUsername:  req.Creator,
		SubmissionNumber: submission,
		IPAddress:        c.ClientIP(),
		UserAgent:        c.Request.UserAgent(),
		Referrer:         c.Request.Referer(),
	}
	if err := h.clicks.Record(c.Request.Context(), event); err != nil {
		h.logger.Debug("Failed to enqueue click (non-blocking)", zap.Error(err))
	}

	target := link.DestinationURL
	if target == "" {
		target = blankTarget
	}

	c.Redirect(http.StatusTemporaryRedirect, target)
}
