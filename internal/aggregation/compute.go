// Package aggregation derives the financial summary of one business day from its transactions.
package aggregation

import (
	"sort"
	"strings"

	"github.com/cashday-ledger/internal/domain/businessday"
	"github.com/cashday-ledger/internal/domain/money"
	"github.com/cashday-ledger/internal/domain/summary"
	"github.com/cashday-ledger/internal/domain/transaction"
	"github.com/shopspring/decimal"
)

// pair accumulates a cash and a bank figure
type pair struct {
	cash decimal.Decimal
	bank decimal.Decimal
}

func (p *pair) add(b transaction.Bucket, amount decimal.Decimal) {
	switch b {
	case transaction.BucketCash:
		p.cash = money.Add(p.cash, amount)
	case transaction.BucketBank:
		p.bank = money.Add(p.bank, amount)
	}
}

func (p pair) split() summary.Split {
	return summary.Split{Cash: p.cash, Bank: p.bank, Total: money.Add(p.cash, p.bank)}
}

type accumulator struct {
	agg summary.Aggregate

	totalIncome    decimal.Decimal
	totalExpense   decimal.Decimal
	totalTransfers decimal.Decimal

	income      pair
	expense     pair
	transferIn  pair
	transferOut pair
	openingAdj  pair
	closureAdj  pair
	initial     pair
}

// Compute is a pure function of the entry set: the result does not depend on input order.
// Amounts are rounded to cents on entry and after every operation.
func Compute(day businessday.Day, entries []transaction.Entry) summary.Aggregate {
	sorted := make([]transaction.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Meta(), sorted[j].Meta()
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return strings.Compare(a.ID.String(), b.ID.String()) < 0
	})

	acc := &accumulator{agg: summary.Aggregate{Day: day}}
	for _, e := range sorted {
		acc.apply(e)
	}
	return acc.result()
}

func (acc *accumulator) apply(e transaction.Entry) {
	switch e := e.(type) {
	case transaction.Opening:
		acc.agg.Openings++
		if acc.agg.HasOpening {
			return
		}
		acc.agg.HasOpening = true
		acc.initial = pair{cash: e.InitialCash(), bank: e.InitialBank()}
		acc.agg.OpeningData = &summary.OpeningData{
			UUID:            e.ID.String(),
			RealCashBalance: acc.initial.cash,
			RealBankBalance: acc.initial.bank,
			TotalBalance:    e.TotalBalance(),
		}

	case transaction.Closure:
		acc.agg.Closures++
		if acc.agg.HasClosure {
			return
		}
		acc.agg.HasClosure = true
		acc.agg.ClosureID = e.ID.String()
		acc.agg.ClosureAutomated = e.Automated()

	case transaction.Income:
		if e.Category != transaction.CategoryAdjustment {
			acc.agg.HasTxn = true
			amount, account, viaPayments := e.Received()
			acc.totalIncome = money.Add(acc.totalIncome, amount)
			if viaPayments || e.Subcategory != transaction.SubcategoryOpeningAdjustment {
				acc.income.add(account.Bucket(), amount)
			}
		}
		acc.adjust(e.Header, e.Account, money.Round(e.Amount))

	case transaction.Expense:
		amount := money.Round(e.Amount)
		if e.Category != transaction.CategoryAdjustment {
			acc.agg.HasTxn = true
			acc.totalExpense = money.Add(acc.totalExpense, amount)
			if e.Subcategory != transaction.SubcategoryOpeningAdjustment {
				acc.expense.add(e.Account.Bucket(), amount)
			}
		}
		acc.adjust(e.Header, e.Account, amount.Neg())

	case transaction.PaymentEntry:
		amount := money.Round(e.Amount)
		acc.agg.HasTxn = true
		acc.totalIncome = money.Add(acc.totalIncome, amount)
		acc.income.add(e.Account.Bucket(), amount)

	case transaction.Transfer:
		amount := money.Round(e.Amount)
		acc.totalTransfers = money.Add(acc.totalTransfers, amount)
		acc.transferOut.add(e.From.Bucket(), amount)
		acc.transferIn.add(e.To.Bucket(), amount)
	}
}

// adjust books signed reconciliation amounts into the opening or closure adjustments
func (acc *accumulator) adjust(h transaction.Header, account transaction.Account, signed decimal.Decimal) {
	switch h.Subcategory {
	case transaction.SubcategoryOpeningAdjustment:
		acc.openingAdj.add(account.Bucket(), signed)
	case transaction.SubcategoryClosureAdjustment:
		acc.closureAdj.add(account.Bucket(), signed)
	}
}

func (acc *accumulator) result() summary.Aggregate {
	agg := acc.agg

	transferNet := pair{
		cash: money.Sub(acc.transferIn.cash, acc.transferOut.cash),
		bank: money.Sub(acc.transferIn.bank, acc.transferOut.bank),
	}
	opening := acc.openingAdj.split()
	closure := acc.closureAdj.split()
	adjustmentsTotal := money.Add(opening.Total, closure.Total)

	resultCash := money.Sub(acc.income.cash, acc.expense.cash)
	resultBank := money.Sub(acc.income.bank, acc.expense.bank)
	result := money.Sub(acc.totalIncome, acc.totalExpense)

	expected := pair{
		cash: money.Add(acc.initial.cash, acc.income.cash, acc.expense.cash.Neg(), transferNet.cash),
		bank: money.Add(acc.initial.bank, acc.income.bank, acc.expense.bank.Neg(), transferNet.bank),
	}
	actual := pair{
		cash: money.Add(expected.cash, acc.closureAdj.cash),
		bank: money.Add(expected.bank, acc.closureAdj.bank),
	}

	agg.Totals = summary.Totals{
		Income:      acc.totalIncome,
		Expense:     acc.totalExpense,
		Net:         result,
		Transfers:   acc.totalTransfers,
		Adjustments: adjustmentsTotal,
	}
	agg.ByAccount = summary.ByAccount{
		Cash: summary.Flow{Income: acc.income.cash, Expense: acc.expense.cash, Net: resultCash},
		Bank: summary.Flow{Income: acc.income.bank, Expense: acc.expense.bank, Net: resultBank},
	}
	agg.Transfers = summary.Transfers{
		Cash:  summary.TransferFlow{In: acc.transferIn.cash, Out: acc.transferOut.cash, Net: transferNet.cash},
		Bank:  summary.TransferFlow{In: acc.transferIn.bank, Out: acc.transferOut.bank, Net: transferNet.bank},
		Total: acc.totalTransfers,
	}
	agg.Adjustments = summary.Adjustments{Opening: opening, Closure: closure, Total: adjustmentsTotal}
	agg.Balances = summary.Balances{
		Initial:  acc.initial.split(),
		Expected: expected.split(),
		Actual:   actual.split(),
	}
	agg.Operational = summary.Operational{
		Result:     result,
		ResultCash: resultCash,
		ResultBank: resultBank,
		FlowCash:   money.Add(resultCash, transferNet.cash),
		FlowBank:   money.Add(resultBank, transferNet.bank),
	}
	return agg
}
