package handler

import (
	"log/slog"

	"github.com/cashday-ledger/internal/api_gateway/service"
	"github.com/cashday-ledger/internal/domain/transaction"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransactionHandler handles HTTP requests for register transactions
type TransactionHandler struct {
	transactionService service.TransactionService
	logger             *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, transactionService service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		logger:             logger,
	}
}

// Create records a transaction. The daily summary catches up asynchronously, hence 202.
func (h *TransactionHandler) Create(c *gin.Context) {
	businessID := c.Param("id")

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	rec := mapRequestToRecord(businessID, req)
	if req.UUID != "" {
		rec.UUID = uuid.MustParse(req.UUID)
	}

	event, err := h.transactionService.Record(c.Request.Context(), rec)
	if err != nil {
		respondServiceError(c, h.logger, "Failed to record transaction", err)
		return
	}

	RespondAccepted(c, TransactionResponse{
		TransactionID: event.TransactionID.String(),
		EventID:       event.EventID.String(),
		BusinessID:    businessID,
		Operation:     string(event.Operation),
		Type:          string(rec.Type),
	})
}

// Delete removes a transaction subject to the register deletion rules
func (h *TransactionHandler) Delete(c *gin.Context) {
	businessID := c.Param("id")

	idParam := c.Param("txId")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid transaction ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid transaction ID")
		return
	}

	event, err := h.transactionService.Delete(c.Request.Context(), businessID, id)
	if err != nil {
		respondServiceError(c, h.logger, "Failed to delete transaction", err)
		return
	}

	RespondAccepted(c, TransactionResponse{
		TransactionID: id.String(),
		EventID:       event.EventID.String(),
		BusinessID:    businessID,
		Operation:     string(event.Operation),
	})
}

func mapRequestToRecord(businessID string, req CreateTransactionRequest) *transaction.Record {
	rec := &transaction.Record{
		BusinessID:    businessID,
		Type:          transaction.Type(req.Type),
		Account:       transaction.Account(req.Account),
		Category:      req.Category,
		Subcategory:   req.Subcategory,
		Description:   req.Description,
		Amount:        req.Amount,
		PaymentStatus: transaction.PaymentStatus(req.PaymentStatus),
		FromAccount:   transaction.Account(req.FromAccount),
		ToAccount:     transaction.Account(req.ToAccount),
		Register:      req.Register,
		Source:        transaction.SourceManual,
		Metadata:      req.Metadata,
		CreatedAt:     req.CreatedAt,
	}
	for _, p := range req.Payments {
		rec.Payments = append(rec.Payments, transaction.Payment{
			Amount:  p.Amount,
			Account: transaction.Account(p.Account),
			Date:    p.Date,
		})
	}
	return rec
}
