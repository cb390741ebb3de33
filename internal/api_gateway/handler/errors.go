package handler

import (
	"errors"
	"log/slog"

	"github.com/cashday-ledger/internal/api_gateway/service"
	"github.com/cashday-ledger/internal/domain/business"
	"github.com/cashday-ledger/internal/domain/summary"
	"github.com/cashday-ledger/internal/domain/transaction"
	"github.com/cashday-ledger/internal/scheduler"
	"github.com/gin-gonic/gin"
)

// respondServiceError maps domain errors onto the response envelope
func respondServiceError(c *gin.Context, logger *slog.Logger, msg string, err error) {
	var (
		invalid      transaction.ErrInvalidRecord
		notDeletable service.ErrNotDeletable
	)

	switch {
	case errors.Is(err, business.ErrBusinessNotFound{}):
		RespondNotFound(c, CodeBusinessNotFound, "Business not found")
	case errors.Is(err, summary.ErrSummaryNotFound{}):
		RespondNotFound(c, CodeSummaryNotFound, "Daily summary not found")
	case errors.Is(err, transaction.ErrTransactionNotFound{}):
		RespondNotFound(c, CodeTxNotFound, "Transaction not found")
	case errors.As(err, &invalid):
		RespondBadRequest(c, invalid.Error())
	case errors.As(err, &notDeletable):
		RespondConflict(c, CodeNotDeletable, notDeletable.Error())
	case errors.Is(err, scheduler.ErrRunAlreadyInProgress):
		RespondConflict(c, CodeRunInProgress, "A scheduler run is already in progress")
	default:
		logger.Error(msg, "error", err)
		RespondInternalError(c)
		return
	}
	logger.Warn(msg, "error", err)
}
