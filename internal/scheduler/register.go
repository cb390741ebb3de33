package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cashday-ledger/internal/domain/business"
	"github.com/cashday-ledger/internal/domain/businessday"
	"github.com/cashday-ledger/internal/domain/execution"
	"github.com/cashday-ledger/internal/domain/money"
	"github.com/cashday-ledger/internal/domain/summary"
	"github.com/cashday-ledger/internal/domain/transaction"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Non-error outcomes of the register automation
const (
	ReasonNoPreviousClosure    = "no_previous_closure"
	ReasonOpeningAlreadyExists = "opening_already_exists"
	ReasonNoOpening            = "no_opening"
	ReasonClosureExists        = "closure_already_exists"
	ReasonNoMissingClosure     = "no_missing_closure"
)

// OpenOutcome reports what AutoOpen did
type OpenOutcome struct {
	Opened            bool            `json:"opened"`
	Day               businessday.Day `json:"day"`
	OpeningID         string          `json:"opening_id,omitempty"`
	PreviousClosureID string          `json:"copied_from_closure,omitempty"`
	InitialBalances   *summary.Split  `json:"initial_balances,omitempty"`
	Reason            string          `json:"reason,omitempty"`

	aggregate *summary.Aggregate
}

// CloseOutcome reports what AutoClose or LazyClose did
type CloseOutcome struct {
	Closed    bool            `json:"closed"`
	Mode      string          `json:"mode,omitempty"`
	Day       businessday.Day `json:"day"`
	ClosureID string          `json:"closure_id,omitempty"`
	Reason    string          `json:"reason,omitempty"`

	aggregate *summary.Aggregate
}

// AutoOpen opens day by copying the final balances of the latest earlier closure.
// The opening and the recomputed summary are both written before it returns.
func (s *Scheduler) AutoOpen(ctx context.Context, b *business.Business, day businessday.Day, reason string) (OpenOutcome, error) {
	tz := b.TZ()

	agg, err := s.aggregator.Aggregate(ctx, b.ID, day, tz)
	if err != nil {
		return OpenOutcome{}, err
	}
	if agg.HasOpening {
		return OpenOutcome{Day: day, Reason: ReasonOpeningAlreadyExists, aggregate: &agg}, nil
	}

	start, _, err := s.resolver.Bounds(day, tz)
	if err != nil {
		return OpenOutcome{}, err
	}

	previous, err := s.closures.FindLatestBefore(ctx, b.ID, transaction.TypeClosure, start)
	if err != nil {
		if errors.Is(err, transaction.ErrTransactionNotFound{}) {
			s.logger.Info("No previous closure to open from",
				"business_id", b.ID, "day", day)
			return OpenOutcome{Day: day, Reason: ReasonNoPreviousClosure, aggregate: &agg}, nil
		}
		return OpenOutcome{}, err
	}

	opening := buildOpening(b.ID, day, previous, start, reason)
	if _, err := s.writer.Append(ctx, opening); err != nil {
		return OpenOutcome{}, fmt.Errorf("write opening for %s/%s: %w", b.ID, day, err)
	}

	now := s.now()
	agg, err = s.aggregator.Aggregate(ctx, b.ID, day, tz)
	if err != nil {
		return OpenOutcome{}, err
	}
	patch := summary.FromAggregate(agg).
		With(summary.AutoOpened(opening.UUID.String(), reason, now)).
		Touch(now)
	if err := s.summaries.Upsert(ctx, b.ID, day, patch); err != nil {
		return OpenOutcome{}, err
	}

	figures := opening.Register
	s.traceRegister(ctx, execution.AutoCloseLog{
		BusinessID:    b.ID,
		Day:           day,
		Operation:     execution.OperationAutoOpen,
		TransactionID: opening.UUID.String(),
		TriggerType:   reason,
		Financials: map[string]decimal.Decimal{
			"initialCashBalance": figures.RealCashBalance,
			"initialBankBalance": figures.RealBankBalance,
			"totalBalance":       figures.TotalBalance,
		},
		ExecutedAt: now,
	})

	s.logger.Info("Day auto-opened",
		"business_id", b.ID,
		"day", day,
		"opening_id", opening.UUID.String(),
		"copied_from_closure", previous.UUID.String())

	return OpenOutcome{
		Opened:            true,
		Day:               day,
		OpeningID:         opening.UUID.String(),
		PreviousClosureID: previous.UUID.String(),
		InitialBalances: &summary.Split{
			Cash:  figures.RealCashBalance,
			Bank:  figures.RealBankBalance,
			Total: figures.TotalBalance,
		},
		aggregate: &agg,
	}, nil
}

// AutoClose closes an opened day at its last instant with real balances equal to expected.
// Automated closes always break the streak.
func (s *Scheduler) AutoClose(ctx context.Context, b *business.Business, day businessday.Day, reason string) (CloseOutcome, error) {
	tz := b.TZ()

	agg, err := s.aggregator.Aggregate(ctx, b.ID, day, tz)
	if err != nil {
		return CloseOutcome{}, err
	}
	if !agg.HasOpening {
		return CloseOutcome{Day: day, Reason: ReasonNoOpening, aggregate: &agg}, nil
	}
	if agg.HasClosure {
		return CloseOutcome{Day: day, Reason: ReasonClosureExists, aggregate: &agg}, nil
	}

	last, err := s.resolver.LastInstant(day, tz)
	if err != nil {
		return CloseOutcome{}, err
	}

	closure := buildClosure(b.ID, day, agg, last, reason)
	if _, err := s.writer.Append(ctx, closure); err != nil {
		return CloseOutcome{}, fmt.Errorf("write closure for %s/%s: %w", b.ID, day, err)
	}

	now := s.now()
	agg, err = s.aggregator.Aggregate(ctx, b.ID, day, tz)
	if err != nil {
		return CloseOutcome{}, err
	}
	patch := summary.FromAggregate(agg).
		With(summary.AutoClosed(closure.UUID.String(), reason, now)).
		Touch(now)
	if err := s.summaries.Upsert(ctx, b.ID, day, patch); err != nil {
		return CloseOutcome{}, err
	}

	if _, err := s.streak.BreakStreak(ctx, b.ID); err != nil {
		s.logger.Error("Failed to break streak after automatic closure",
			"business_id", b.ID, "day", day, "error", err)
	}

	figures := closure.Register
	s.traceRegister(ctx, execution.AutoCloseLog{
		BusinessID:    b.ID,
		Day:           day,
		Operation:     execution.OperationAutoClose,
		TransactionID: closure.UUID.String(),
		TriggerType:   reason,
		Financials: map[string]decimal.Decimal{
			"totalIncome":         figures.TotalIncome,
			"totalExpense":        figures.TotalExpense,
			"expectedCashBalance": figures.ExpectedCashBalance,
			"expectedBankBalance": figures.ExpectedBankBalance,
			"realCashBalance":     figures.RealCashBalance,
			"realBankBalance":     figures.RealBankBalance,
		},
		ExecutedAt: now,
	})

	s.logger.Info("Day auto-closed",
		"business_id", b.ID,
		"day", day,
		"closure_id", closure.UUID.String(),
		"mode", reason)

	return CloseOutcome{
		Closed:    true,
		Mode:      reason,
		Day:       day,
		ClosureID: closure.UUID.String(),
		aggregate: &agg,
	}, nil
}

// LazyClose closes yesterday, relative to now in the business timezone,
// when it was opened and never closed.
func (s *Scheduler) LazyClose(ctx context.Context, businessID string, now time.Time) (CloseOutcome, error) {
	b, err := s.businesses.GetByID(ctx, businessID)
	if err != nil {
		return CloseOutcome{}, err
	}

	today, err := s.resolver.DayOf(now, b.TZ())
	if err != nil {
		return CloseOutcome{}, err
	}
	day := today.Previous()

	outcome, err := s.AutoClose(ctx, b, day, summary.ReasonLazyOpen)
	if err != nil {
		return CloseOutcome{}, err
	}
	if !outcome.Closed {
		return CloseOutcome{Day: day, Reason: ReasonNoMissingClosure}, nil
	}
	return outcome, nil
}

// OpenDay runs AutoOpen on demand. day defaults to today in the business timezone.
// Failures are also written to the error log.
func (s *Scheduler) OpenDay(ctx context.Context, businessID string, day businessday.Day) (OpenOutcome, error) {
	b, err := s.businesses.GetByID(ctx, businessID)
	if err != nil {
		return OpenOutcome{}, err
	}

	if day == "" {
		if day, err = s.resolver.DayOf(s.now(), b.TZ()); err != nil {
			return OpenOutcome{}, err
		}
	}

	outcome, err := s.AutoOpen(ctx, b, day, summary.ReasonManual)
	if err != nil {
		s.recordError(ctx, execution.ErrorLog{
			Type:       execution.ErrorTypeAutoOpening,
			BusinessID: businessID,
			Day:        day,
			Error:      err.Error(),
			Timestamp:  s.now(),
		})
		return OpenOutcome{}, err
	}
	return outcome, nil
}

func (s *Scheduler) traceRegister(ctx context.Context, entry execution.AutoCloseLog) {
	if err := s.sink.RecordAutoClose(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Warn("Failed to trace synthesized register transaction",
			"business_id", entry.BusinessID, "transaction_id", entry.TransactionID, "error", err)
	}
}

func buildOpening(businessID string, day businessday.Day, previous *transaction.Record, start time.Time, reason string) *transaction.Record {
	var prior transaction.RegisterFigures
	if previous.Register != nil {
		prior = *previous.Register
	}
	cash := money.Round(money.FirstNonZero(prior.RealCashBalance, prior.TotalCash))
	bank := money.Round(money.FirstNonZero(prior.RealBankBalance, prior.TotalBank))

	return &transaction.Record{
		UUID:        uuid.New(),
		BusinessID:  businessID,
		Type:        transaction.TypeOpening,
		Description: "Automatic opening",
		Amount:      money.Zero,
		Source:      transaction.SourceCopilot,
		CopilotMode: reason,
		Register: &transaction.RegisterFigures{
			RealCashBalance:          cash,
			RealBankBalance:          bank,
			TotalCash:                cash,
			TotalBank:                bank,
			TotalBalance:             money.Add(cash, bank),
			PreviousClosureReference: previous.UUID.String(),
		},
		Metadata: map[string]any{
			"day":           string(day),
			"triggerType":   "auto_opening",
			"autoGenerated": true,
			"copiedFrom":    previous.UUID.String(),
		},
		CreatedAt: &start,
	}
}

func buildClosure(businessID string, day businessday.Day, agg summary.Aggregate, at time.Time, mode string) *transaction.Record {
	expected := agg.Balances.Expected
	figures := &transaction.RegisterFigures{
		RealCashBalance:     expected.Cash,
		RealBankBalance:     expected.Bank,
		TotalCash:           expected.Cash,
		TotalBank:           expected.Bank,
		TotalBalance:        expected.Total,
		InitialCashBalance:  agg.Balances.Initial.Cash,
		InitialBankBalance:  agg.Balances.Initial.Bank,
		TotalIncome:         agg.Totals.Income,
		TotalExpense:        agg.Totals.Expense,
		IncomeCash:          agg.ByAccount.Cash.Income,
		IncomeBank:          agg.ByAccount.Bank.Income,
		ExpenseCash:         agg.ByAccount.Cash.Expense,
		ExpenseBank:         agg.ByAccount.Bank.Expense,
		ExpectedCashBalance: expected.Cash,
		ExpectedBankBalance: expected.Bank,
		CashDifference:      money.Zero,
		BankDifference:      money.Zero,
	}
	if agg.OpeningData != nil {
		figures.OpeningReference = agg.OpeningData.UUID
	}

	return &transaction.Record{
		UUID:        uuid.New(),
		BusinessID:  businessID,
		Type:        transaction.TypeClosure,
		Account:     transaction.AccountCash,
		Description: "Automatic closure",
		Amount:      money.Zero,
		Source:      transaction.SourceCopilot,
		CopilotMode: mode,
		Register:    figures,
		Metadata: map[string]any{
			"day":           string(day),
			"triggerType":   mode,
			"autoGenerated": true,
			"hasTxn":        agg.HasTxn,
		},
		CreatedAt: &at,
	}
}
