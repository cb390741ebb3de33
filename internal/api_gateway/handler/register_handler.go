package handler

import (
	"log/slog"

	"github.com/cashday-ledger/internal/api_gateway/service"
	"github.com/cashday-ledger/internal/domain/businessday"
	"github.com/gin-gonic/gin"
)

// RegisterHandler exposes on-demand register automation and scheduler runs
type RegisterHandler struct {
	registerService service.RegisterService
	logger          *slog.Logger
}

func NewRegisterHandler(logger *slog.Logger, registerService service.RegisterService) *RegisterHandler {
	return &RegisterHandler{
		registerService: registerService,
		logger:          logger,
	}
}

// LazyClose closes yesterday when the operator left it open
func (h *RegisterHandler) LazyClose(c *gin.Context) {
	outcome, err := h.registerService.LazyClose(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, h.logger, "Failed to lazy-close", err)
		return
	}
	RespondOK(c, outcome)
}

// AutoOpen opens the requested day, today by default, from the latest closure
func (h *RegisterHandler) AutoOpen(c *gin.Context) {
	var req AutoOpenRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Error("Invalid request body", "error", err)
			RespondBadRequest(c, "Invalid request body: "+err.Error())
			return
		}
	}

	var day businessday.Day
	if req.Day != "" {
		parsed, err := businessday.ParseDay(req.Day)
		if err != nil {
			RespondBadRequest(c, "Invalid day, expected YYYY-MM-DD")
			return
		}
		day = parsed
	}

	outcome, err := h.registerService.OpenDay(c.Request.Context(), c.Param("id"), day)
	if err != nil {
		respondServiceError(c, h.logger, "Failed to auto-open", err)
		return
	}
	RespondOK(c, outcome)
}

// RunScheduler runs the daily pass now. It blocks until the run finishes.
func (h *RegisterHandler) RunScheduler(c *gin.Context) {
	run, err := h.registerService.RunNow(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.logger, "Failed to run scheduler", err)
		return
	}
	RespondOK(c, run)
}

func (h *RegisterHandler) RecentRuns(c *gin.Context) {
	var params RunsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.logger.Error("Invalid run parameters", "error", err)
		RespondBadRequest(c, "Invalid run parameters")
		return
	}

	runs, err := h.registerService.RecentRuns(c.Request.Context(), params.Limit)
	if err != nil {
		respondServiceError(c, h.logger, "Failed to list scheduler runs", err)
		return
	}
	RespondOK(c, runs)
}
