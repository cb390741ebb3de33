package handler

import (
	"log/slog"

	"github.com/cashday-ledger/internal/api_gateway/service"
	"github.com/cashday-ledger/internal/domain/businessday"
	"github.com/gin-gonic/gin"
)

// SummaryHandler serves daily summaries and streaks
type SummaryHandler struct {
	summaryService service.SummaryService
	logger         *slog.Logger
}

func NewSummaryHandler(logger *slog.Logger, summaryService service.SummaryService) *SummaryHandler {
	return &SummaryHandler{
		summaryService: summaryService,
		logger:         logger,
	}
}

// GetDay returns the cached summary for a business day
func (h *SummaryHandler) GetDay(c *gin.Context) {
	day, ok := h.parseDay(c)
	if !ok {
		return
	}

	doc, err := h.summaryService.GetDay(c.Request.Context(), c.Param("id"), day)
	if err != nil {
		respondServiceError(c, h.logger, "Failed to get daily summary", err)
		return
	}
	RespondOK(c, doc)
}

// Recompute rebuilds the summary from the transactions
func (h *SummaryHandler) Recompute(c *gin.Context) {
	day, ok := h.parseDay(c)
	if !ok {
		return
	}

	doc, err := h.summaryService.Recompute(c.Request.Context(), c.Param("id"), day)
	if err != nil {
		respondServiceError(c, h.logger, "Failed to recompute daily summary", err)
		return
	}
	RespondOK(c, doc)
}

func (h *SummaryHandler) GetStreak(c *gin.Context) {
	var params StreakParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.logger.Error("Invalid streak parameters", "error", err)
		RespondBadRequest(c, "Invalid streak parameters")
		return
	}

	view, err := h.summaryService.GetStreak(c.Request.Context(), c.Param("id"), params.Window)
	if err != nil {
		respondServiceError(c, h.logger, "Failed to get streak", err)
		return
	}
	RespondOK(c, view)
}

func (h *SummaryHandler) parseDay(c *gin.Context) (businessday.Day, bool) {
	day, err := businessday.ParseDay(c.Param("day"))
	if err != nil {
		h.logger.Error("Invalid day", "day", c.Param("day"), "error", err)
		RespondBadRequest(c, "Invalid day, expected YYYY-MM-DD")
		return "", false
	}
	return day, true
}
