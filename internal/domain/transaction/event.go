package transaction

import (
	"time"

	"github.com/google/uuid"
)

// Operation is the kind of write a change event reports
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// ChangeEvent is published for every write on the transactions table
type ChangeEvent struct {
	EventID       uuid.UUID `json:"event_id"`
	BusinessID    string    `json:"business_id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	Operation     Operation `json:"operation"`
	Before        *Record   `json:"before,omitempty"`
	After         *Record   `json:"after,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// NewCreatedEvent builds the event for a freshly inserted record
func NewCreatedEvent(r Record, at time.Time) ChangeEvent {
	after := r
	return ChangeEvent{
		EventID:       uuid.New(),
		BusinessID:    r.BusinessID,
		TransactionID: r.UUID,
		Operation:     OperationCreate,
		After:         &after,
		OccurredAt:    at,
	}
}

// NewDeletedEvent builds the event for a removed record
func NewDeletedEvent(r Record, at time.Time) ChangeEvent {
	before := r
	return ChangeEvent{
		EventID:       uuid.New(),
		BusinessID:    r.BusinessID,
		TransactionID: r.UUID,
		Operation:     OperationDelete,
		Before:        &before,
		OccurredAt:    at,
	}
}

// Subject is the document whose createdAt decides the affected day:
// the deleted row for deletes, the current row otherwise.
func (e ChangeEvent) Subject() *Record {
	if e.Operation == OperationDelete {
		return e.Before
	}
	return e.After
}

// IsPaymentAppendOnly reports an update that only appended installments to an income.
// The installment itself arrives as a payment transaction, so such updates carry no financial effect.
// ledger.Writer never emits updates; they come from other writers publishing to the change topic.
func (e ChangeEvent) IsPaymentAppendOnly() bool {
	if e.Operation != OperationUpdate || e.Before == nil || e.After == nil {
		return false
	}
	b, a := e.Before, e.After
	if b.Type != TypeIncome || a.Type != TypeIncome {
		return false
	}
	if len(a.Payments) <= len(b.Payments) {
		return false
	}
	for i := range b.Payments {
		if !samePayment(b.Payments[i], a.Payments[i]) {
			return false
		}
	}
	return sameIgnoringPayments(*b, *a)
}

func samePayment(x, y Payment) bool {
	if x.Account != y.Account || !x.Amount.Equal(y.Amount) {
		return false
	}
	if (x.Date == nil) != (y.Date == nil) {
		return false
	}
	return x.Date == nil || x.Date.Equal(*y.Date)
}

// sameIgnoringPayments compares the fields that affect aggregation
func sameIgnoringPayments(x, y Record) bool {
	if x.UUID != y.UUID || x.BusinessID != y.BusinessID || x.Type != y.Type ||
		x.Account != y.Account || x.Category != y.Category || x.Subcategory != y.Subcategory ||
		x.PaymentStatus != y.PaymentStatus || x.FromAccount != y.FromAccount || x.ToAccount != y.ToAccount {
		return false
	}
	if !x.Amount.Equal(y.Amount) {
		return false
	}
	if (x.CreatedAt == nil) != (y.CreatedAt == nil) {
		return false
	}
	return x.CreatedAt == nil || x.CreatedAt.Equal(*y.CreatedAt)
}
