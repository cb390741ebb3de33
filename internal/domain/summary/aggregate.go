// Package summary holds the derived per-day ledger aggregate and its cached document.
package summary

import (
	"github.com/shopspring/decimal"

	"github.com/cashday-ledger/internal/domain/businessday"
)

// Flow is income and expense for one account bucket
type Flow struct {
	Income  decimal.Decimal `bson:"income" json:"income"`
	Expense decimal.Decimal `bson:"expense" json:"expense"`
	Net     decimal.Decimal `bson:"net" json:"net"`
}

type Totals struct {
	Income      decimal.Decimal `bson:"income" json:"income"`
	Expense     decimal.Decimal `bson:"expense" json:"expense"`
	Net         decimal.Decimal `bson:"net" json:"net"`
	Transfers   decimal.Decimal `bson:"transfers" json:"transfers"`
	Adjustments decimal.Decimal `bson:"adjustments" json:"adjustments"`
}

type ByAccount struct {
	Cash Flow `bson:"cash" json:"cash"`
	Bank Flow `bson:"bank" json:"bank"`
}

// TransferFlow is the directional movement of transfers on one bucket
type TransferFlow struct {
	In  decimal.Decimal `bson:"in" json:"in"`
	Out decimal.Decimal `bson:"out" json:"out"`
	Net decimal.Decimal `bson:"net" json:"net"`
}

type Transfers struct {
	Cash  TransferFlow    `bson:"cash" json:"cash"`
	Bank  TransferFlow    `bson:"bank" json:"bank"`
	Total decimal.Decimal `bson:"total" json:"total"`
}

// Split is a cash/bank pair with its total
type Split struct {
	Cash  decimal.Decimal `bson:"cash" json:"cash"`
	Bank  decimal.Decimal `bson:"bank" json:"bank"`
	Total decimal.Decimal `bson:"total" json:"total"`
}

type Adjustments struct {
	Opening Split           `bson:"opening" json:"opening"`
	Closure Split           `bson:"closure" json:"closure"`
	Total   decimal.Decimal `bson:"total" json:"total"`
}

type Balances struct {
	Initial  Split `bson:"initial" json:"initial"`
	Expected Split `bson:"expected" json:"expected"`
	Actual   Split `bson:"actual" json:"actual"`
}

type Operational struct {
	Result     decimal.Decimal `bson:"result" json:"result"`
	ResultCash decimal.Decimal `bson:"resultCash" json:"result_cash"`
	ResultBank decimal.Decimal `bson:"resultBank" json:"result_bank"`
	FlowCash   decimal.Decimal `bson:"flowCash" json:"flow_cash"`
	FlowBank   decimal.Decimal `bson:"flowBank" json:"flow_bank"`
}

// OpeningData snapshots the opening that seeded the day
type OpeningData struct {
	UUID            string          `bson:"uuid" json:"uuid"`
	RealCashBalance decimal.Decimal `bson:"realCashBalance" json:"real_cash_balance"`
	RealBankBalance decimal.Decimal `bson:"realBankBalance" json:"real_bank_balance"`
	TotalBalance    decimal.Decimal `bson:"totalBalance" json:"total_balance"`
}

// Aggregate is everything derivable from one business day's transactions
type Aggregate struct {
	Day         businessday.Day `bson:"day" json:"day"`
	HasOpening  bool            `bson:"hasOpening" json:"has_opening"`
	HasClosure  bool            `bson:"hasClosure" json:"has_closure"`
	HasTxn      bool            `bson:"hasTxn" json:"has_txn"`
	Totals      Totals          `bson:"totals" json:"totals"`
	ByAccount   ByAccount       `bson:"byAccount" json:"by_account"`
	Transfers   Transfers       `bson:"transfers" json:"transfers"`
	Adjustments Adjustments     `bson:"adjustments" json:"adjustments"`
	Balances    Balances        `bson:"balances" json:"balances"`
	Operational Operational     `bson:"operational" json:"operational"`
	OpeningData *OpeningData    `bson:"openingData" json:"opening_data"`
	ClosureID   string          `bson:"closureId,omitempty" json:"closure_id,omitempty"`

	// ClosureAutomated is persisted as isAutoClosed
	ClosureAutomated bool `bson:"-" json:"-"`

	// Counts above one mean duplicate registers; not persisted
	Openings int `bson:"-" json:"-"`
	Closures int `bson:"-" json:"-"`
}

// Complete reports an organic-looking day: opened, operated and closed
func (a Aggregate) Complete() bool {
	return a.HasOpening && a.HasTxn && a.HasClosure
}
