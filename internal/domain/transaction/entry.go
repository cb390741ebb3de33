package transaction

import (
	"errors"
	"fmt"
	"time"

	"github.com/cashday-ledger/internal/domain/businessday"
	"github.com/cashday-ledger/internal/domain/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrMissingCreatedAt = errors.New("transaction has no createdAt")
	ErrUnknownType      = errors.New("unknown transaction type")
)

// Header carries the fields every entry shares
type Header struct {
	ID          uuid.UUID
	CreatedAt   time.Time
	Category    string
	Subcategory string
}

// Meta returns the shared header
func (h Header) Meta() Header { return h }

func (Header) entry() {}

// IsAdjustment reports whether the entry is a reconciliation adjustment
func (h Header) IsAdjustment() bool {
	return h.Category == CategoryAdjustment ||
		h.Subcategory == SubcategoryOpeningAdjustment ||
		h.Subcategory == SubcategoryClosureAdjustment
}

// Entry is a decoded transaction. The concrete type is one of
// Opening, Closure, Income, Expense, Transfer or PaymentEntry.
type Entry interface {
	Meta() Header
	entry()
}

type Opening struct {
	Header
	RealCashBalance decimal.Decimal
	RealBankBalance decimal.Decimal
	TotalCash       decimal.Decimal
	TotalBank       decimal.Decimal
}

// InitialCash is the counted cash, or the declared total when nothing was counted
func (o Opening) InitialCash() decimal.Decimal {
	return money.Round(money.FirstNonZero(o.RealCashBalance, o.TotalCash))
}

func (o Opening) InitialBank() decimal.Decimal {
	return money.Round(money.FirstNonZero(o.RealBankBalance, o.TotalBank))
}

// TotalBalance of the opening register
func (o Opening) TotalBalance() decimal.Decimal {
	return money.Add(o.InitialCash(), o.InitialBank())
}

type Closure struct {
	Header
	RealCashBalance decimal.Decimal
	RealBankBalance decimal.Decimal
	Source          string
	CopilotMode     string
}

// Automated reports whether the closure was written by the register automation
func (c Closure) Automated() bool {
	return c.Source == SourceCopilot
}

// DeletableOn reports whether the closure may still be removed at now.
// Closures can only be replaced during the business day they belong to.
func (c Closure) DeletableOn(now time.Time, loc *time.Location) bool {
	return now.In(loc).Format(businessday.Layout) == c.CreatedAt.In(loc).Format(businessday.Layout)
}

type Income struct {
	Header
	Account       Account
	Amount        decimal.Decimal
	Payments      []Payment
	PaymentStatus PaymentStatus
}

// Received resolves how much of the income was collected on the day and on which account.
// viaPayments is true when the figure came from the first installment.
func (i Income) Received() (amount decimal.Decimal, account Account, viaPayments bool) {
	switch {
	case i.PaymentStatus == PaymentStatusCompleted && len(i.Payments) > 1:
		return money.Round(i.Payments[0].Amount), i.Payments[0].Account, true
	case i.PaymentStatus == PaymentStatusPartial && len(i.Payments) > 0:
		return money.Round(i.Payments[0].Amount), i.Payments[0].Account, true
	case i.PaymentStatus == PaymentStatusPending:
		return money.Zero, i.Account, false
	default:
		return money.Round(i.Amount), i.Account, false
	}
}

type Expense struct {
	Header
	Account Account
	Amount  decimal.Decimal
}

type Transfer struct {
	Header
	From   Account
	To     Account
	Amount decimal.Decimal
}

// PaymentEntry is a standalone installment collected against an earlier income
type PaymentEntry struct {
	Header
	Account Account
	Amount  decimal.Decimal
}

// Decode validates r and classifies it into its entry variant
func Decode(r Record) (Entry, error) {
	if r.CreatedAt == nil || r.CreatedAt.IsZero() {
		return nil, fmt.Errorf("transaction %s: %w", r.UUID, ErrMissingCreatedAt)
	}

	h := Header{
		ID:          r.UUID,
		CreatedAt:   *r.CreatedAt,
		Category:    r.Category,
		Subcategory: r.Subcategory,
	}
	figures := RegisterFigures{}
	if r.Register != nil {
		figures = *r.Register
	}

	switch r.Type {
	case TypeOpening:
		return Opening{
			Header:          h,
			RealCashBalance: figures.RealCashBalance,
			RealBankBalance: figures.RealBankBalance,
			TotalCash:       figures.TotalCash,
			TotalBank:       figures.TotalBank,
		}, nil
	case TypeClosure:
		return Closure{
			Header:          h,
			RealCashBalance: figures.RealCashBalance,
			RealBankBalance: figures.RealBankBalance,
			Source:          r.Source,
			CopilotMode:     r.CopilotMode,
		}, nil
	case TypeIncome:
		payments := make([]Payment, len(r.Payments))
		copy(payments, r.Payments)
		return Income{
			Header:        h,
			Account:       r.Account,
			Amount:        r.Amount,
			Payments:      payments,
			PaymentStatus: r.PaymentStatus,
		}, nil
	case TypeExpense:
		return Expense{Header: h, Account: r.Account, Amount: r.Amount}, nil
	case TypeTransfer:
		return Transfer{Header: h, From: r.FromAccount, To: r.ToAccount, Amount: r.Amount}, nil
	case TypePayment:
		return PaymentEntry{Header: h, Account: r.Account, Amount: r.Amount}, nil
	default:
		return nil, fmt.Errorf("transaction %s type %q: %w", r.UUID, r.Type, ErrUnknownType)
	}
}

// ClosureOf decodes r and returns it only when it is a closure
func ClosureOf(r Record) (Closure, bool) {
	e, err := Decode(r)
	if err != nil {
		return Closure{}, false
	}
	c, ok := e.(Closure)
	return c, ok
}
