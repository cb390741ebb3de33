package handler

import (
	"time"

	"github.com/cashday-ledger/internal/domain/transaction"
	"github.com/shopspring/decimal"
)

// CreateTransactionRequest represents a request to record a register transaction
type CreateTransactionRequest struct {
	UUID          string                       `json:"uuid" binding:"omitempty,uuid"`
	Type          string                       `json:"type" binding:"required,oneof=opening closure income expense transfer payment"`
	Account       string                       `json:"account"`
	Category      string                       `json:"category"`
	Subcategory   string                       `json:"subcategory"`
	Description   string                       `json:"description"`
	Amount        decimal.Decimal              `json:"amount"`
	Payments      []PaymentRequest             `json:"payments"`
	PaymentStatus string                       `json:"payment_status" binding:"omitempty,oneof=pending partial completed"`
	FromAccount   string                       `json:"from_account"`
	ToAccount     string                       `json:"to_account"`
	Register      *transaction.RegisterFigures `json:"register"`
	Metadata      map[string]any               `json:"metadata"`
	CreatedAt     *time.Time                   `json:"created_at"`
}

// PaymentRequest is one collected installment of an income
type PaymentRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	Account string          `json:"account"`
	Date    *time.Time      `json:"date"`
}

// TransactionResponse acknowledges a write and the change event it produced
type TransactionResponse struct {
	TransactionID string `json:"transaction_id"`
	EventID       string `json:"event_id"`
	BusinessID    string `json:"business_id"`
	Operation     string `json:"operation"`
	Type          string `json:"type,omitempty"`
}

// AutoOpenRequest optionally names the day to open
type AutoOpenRequest struct {
	Day string `json:"day"`
}

// StreakParams bounds the active-day window
type StreakParams struct {
	Window int `form:"window,default=30" binding:"min=1,max=366"`
}

// RunsParams bounds the run history listing
type RunsParams struct {
	Limit int `form:"limit,default=20" binding:"min=1,max=100"`
}
