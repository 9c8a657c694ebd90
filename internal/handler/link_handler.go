package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"link-tracker/internal/models"
	"link-tracker/internal/repository"
	"link-tracker/internal/service"
)

// Формат query параметров start/end у аналитики
const dateLayout = "2006-01-02"

// LinkHandler обрабатывает CRUD ссылок и аналитику
type LinkHandler struct {
	service   service.LinkService
	analytics service.AnalyticsService
	logger    *zap.Logger
}

func NewLinkHandler(service service.LinkService, analytics service.AnalyticsService, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{
		service:   service,
		analytics: analytics,
		logger:    logger,
	}
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// CreateLink godoc
// @Summary Create a tracked link
// @Description Create a link inside a project. All links of a project share one short code; the submission number is assigned sequentially.
// @Tags links
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param request body models.CreateLinkInput true "Link creation request"
// @Success 201 {object} models.Link
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/projects/{id}/links [post]
func (h *LinkHandler) CreateLink(c *gin.Context) {
	projectID, ok := parseID(c)
	if !ok {
		return
	}

	var input models.CreateLinkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	link, err := h.service.CreateLink(c.Request.Context(), projectID, &input)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProjectNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Project not found",
			})
		case errors.Is(err, repository.ErrDuplicateDestination):
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "duplicate_destination",
				Message: "Destination URL already exists in this project",
			})
		default:
			h.logger.Error("Failed to create link", zap.Error(err))
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "internal_error",
				Message: "Failed to create link",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, link)
}

// ListLinks godoc
// @Summary List project links
// @Tags links
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {array} models.Link
// @Router /api/v1/projects/{id}/links [get]
func (h *LinkHandler) ListLinks(c *gin.Context) {
	projectID, ok := parseID(c)
	if !ok {
		return
	}

	links, err := h.service.ListLinks(c.Request.Context(), projectID)
	if err != nil {
		h.logger.Error("Failed to list links", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list links",
		})
		return
	}

	c.JSON(http.StatusOK, links)
}

// GetLink godoc
// @Summary Get a link
// @Tags links
// @Produce json
// @Param id path string true "Link ID"
// @Success 200 {object} models.Link
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/links/{id} [get]
func (h *LinkHandler) GetLink(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	link, err := h.service.GetLink(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Link not found",
			})
			return
		}
		h.logger.Error("Failed to get link", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to get link",
		})
		return
	}

	c.JSON(http.StatusOK, link)
}

// SetLinkActive godoc
// @Summary Enable or disable a link
// @Description A disabled link stops redirecting, the visitor gets a neutral redirect instead
// @Tags links
// @Accept json
// @Produce json
// @Param id path string true "Link ID"
// @Param request body SetActiveRequest true "Activation request"
// @Success 200 {object} models.Link
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/links/{id}/active [patch]
func (h *LinkHandler) SetLinkActive(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	link, err := h.service.SetLinkActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Link not found",
			})
			return
		}
		h.logger.Error("Failed to update link", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to update link",
		})
		return
	}

	c.JSON(http.StatusOK, link)
}

// DeleteLink godoc
// @Summary Delete a link
// @Tags links
// @Produce json
// @Param id path string true "Link ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/links/{id} [delete]
func (h *LinkHandler) DeleteLink(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteLink(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Link not found",
			})
			return
		}
		h.logger.Error("Failed to delete link", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to delete link",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Link deleted successfully"})
}

// GetAnalytics godoc
// @Summary Link analytics
// @Description Aggregated click statistics: totals, groupings, a gapless daily series and the recent feed
// @Tags analytics
// @Produce json
// @Param id path string true "Link ID"
// @Param start query string false "Range start (YYYY-MM-DD)"
// @Param end query string false "Range end (YYYY-MM-DD)"
// @Success 200 {object} models.LinkAnalytics
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/links/{id}/analytics [get]
func (h *LinkHandler) GetAnalytics(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	start, ok := parseDate(c, "start")
	if !ok {
		return
	}
	end, ok := parseDate(c, "end")
	if !ok {
		return
	}

	// Диапазон либо задан целиком, либо берётся неделя по умолчанию
	if (start == nil) != (end == nil) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_range",
			Message: "Both start and end must be provided together",
		})
		return
	}

	result, err := h.analytics.LinkAnalytics(c.Request.Context(), id, start, end)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Link not found",
			})
			return
		}
		// В отличие от трекингового пути, ошибка чтения здесь видима
		h.logger.Error("Failed to load analytics", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load analytics",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCreatorAnalytics godoc
// @Summary Creator drill-down analytics
// @Description Click statistics of a single creator username, optionally narrowed to one submission
// @Tags analytics
// @Produce json
// @Param id path string true "Link ID"
// @Param creator path string true "Creator username"
// @Param submission query string false "Submission number filter"
// @Success 200 {object} models.CreatorAnalytics
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/links/{id}/analytics/creators/{creator} [get]
func (h *LinkHandler) GetCreatorAnalytics(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	creator := c.Param("creator")
	submission := c.Query("submission")

	result, err := h.analytics.CreatorAnalytics(c.Request.Context(), id, creator, submission)
	if err != nil {
		h.logger.Error("Failed to load creator analytics", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load creator analytics",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// parseDate разбирает опциональный query параметр даты
func parseDate(c *gin.Context, name string) (*time.Time, bool) {
	value := c.Query(name)
	if value == "" {
		return nil, true
	}

	t, err := time.ParseInLocation(dateLayout, value, time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_date",
			Message: name + " must be in YYYY-MM-DD format",
		})
		return nil, false
	}

	return &t, true
}
