// Package transaction models register transactions as stored and as classified for aggregation.
package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type identifies the kind of register transaction
type Type string

const (
	TypeOpening  Type = "opening"
	TypeClosure  Type = "closure"
	TypeIncome   Type = "income"
	TypeExpense  Type = "expense"
	TypeTransfer Type = "transfer"
	TypePayment  Type = "payment"
)

// Account is the money account a transaction moves through
type Account string

const (
	AccountCash Account = "cash"
	AccountBank Account = "bank"
	AccountYape Account = "yape"
	AccountPlin Account = "plin"
)

// Bucket is the balance bucket an account rolls up into
type Bucket int

const (
	BucketNone Bucket = iota
	BucketCash
	BucketBank
)

// Bucket maps wallets onto the bank bucket; unknown accounts count toward totals only
func (a Account) Bucket() Bucket {
	switch a {
	case AccountCash:
		return BucketCash
	case AccountBank, AccountYape, AccountPlin:
		return BucketBank
	default:
		return BucketNone
	}
}

// PaymentStatus tracks how much of an income has been collected
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPartial   PaymentStatus = "partial"
	PaymentStatusCompleted PaymentStatus = "completed"
)

const (
	CategoryAdjustment           = "adjustment"
	SubcategoryOpeningAdjustment = "opening_adjustment"
	SubcategoryClosureAdjustment = "closure_adjustment"
)

// Source values for the record origin
const (
	SourceManual  = "manual"
	SourceCopilot = "copilot"
)

// Payment is one collected installment of an income
type Payment struct {
	Amount  decimal.Decimal `json:"amount"`
	Account Account         `json:"account"`
	Date    *time.Time      `json:"date,omitempty"`
}

// RegisterFigures holds the balance snapshot carried by opening and closure records
type RegisterFigures struct {
	RealCashBalance decimal.Decimal `json:"real_cash_balance"`
	RealBankBalance decimal.Decimal `json:"real_bank_balance"`
	TotalCash       decimal.Decimal `json:"total_cash"`
	TotalBank       decimal.Decimal `json:"total_bank"`
	TotalBalance    decimal.Decimal `json:"total_balance"`

	InitialCashBalance  decimal.Decimal `json:"initial_cash_balance"`
	InitialBankBalance  decimal.Decimal `json:"initial_bank_balance"`
	TotalIncome         decimal.Decimal `json:"total_income"`
	TotalExpense        decimal.Decimal `json:"total_expense"`
	IncomeCash          decimal.Decimal `json:"income_cash"`
	IncomeBank          decimal.Decimal `json:"income_bank"`
	ExpenseCash         decimal.Decimal `json:"expense_cash"`
	ExpenseBank         decimal.Decimal `json:"expense_bank"`
	ExpectedCashBalance decimal.Decimal `json:"expected_cash_balance"`
	ExpectedBankBalance decimal.Decimal `json:"expected_bank_balance"`
	CashDifference      decimal.Decimal `json:"cash_difference"`
	BankDifference      decimal.Decimal `json:"bank_difference"`

	OpeningReference         string `json:"opening_reference,omitempty"`
	PreviousClosureReference string `json:"previous_closure_reference,omitempty"`
}

// Record is a transaction row exactly as stored. It is only read through Decode.
type Record struct {
	UUID          uuid.UUID        `json:"uuid"`
	BusinessID    string           `json:"business_id"`
	Type          Type             `json:"type"`
	Account       Account          `json:"account,omitempty"`
	Category      string           `json:"category,omitempty"`
	Subcategory   string           `json:"subcategory,omitempty"`
	Description   string           `json:"description,omitempty"`
	Amount        decimal.Decimal  `json:"amount"`
	Payments      []Payment        `json:"payments,omitempty"`
	PaymentStatus PaymentStatus    `json:"payment_status,omitempty"`
	FromAccount   Account          `json:"from_account,omitempty"`
	ToAccount     Account          `json:"to_account,omitempty"`
	Register      *RegisterFigures `json:"register,omitempty"`
	Source        string           `json:"source,omitempty"`
	CopilotMode   string           `json:"copilot_mode,omitempty"`
	Metadata      map[string]any   `json:"metadata,omitempty"`
	CreatedAt     *time.Time       `json:"created_at,omitempty"`
}
