package summary

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Patch is a field-level update keyed by dotted document path.
// Paths absent from a patch are left untouched by the store.
type Patch map[string]any

// FromAggregate sets every derived field of the aggregate
func FromAggregate(a Aggregate) Patch {
	p := Patch{
		"day":        string(a.Day),
		"hasOpening": a.HasOpening,
		"hasClosure": a.HasClosure,
		"hasTxn":     a.HasTxn,
		"closureId":  a.ClosureID,
	}

	p.amounts("totals", map[string]decimal.Decimal{
		"income":      a.Totals.Income,
		"expense":     a.Totals.Expense,
		"net":         a.Totals.Net,
		"transfers":   a.Totals.Transfers,
		"adjustments": a.Totals.Adjustments,
	})
	p.flow("byAccount.cash", a.ByAccount.Cash)
	p.flow("byAccount.bank", a.ByAccount.Bank)
	p.transferFlow("transfers.cash", a.Transfers.Cash)
	p.transferFlow("transfers.bank", a.Transfers.Bank)
	p["transfers.total"] = a.Transfers.Total
	p.split("adjustments.opening", a.Adjustments.Opening)
	p.split("adjustments.closure", a.Adjustments.Closure)
	p["adjustments.total"] = a.Adjustments.Total
	p.split("balances.initial", a.Balances.Initial)
	p.split("balances.expected", a.Balances.Expected)
	p.split("balances.actual", a.Balances.Actual)
	p.amounts("operational", map[string]decimal.Decimal{
		"result":     a.Operational.Result,
		"resultCash": a.Operational.ResultCash,
		"resultBank": a.Operational.ResultBank,
		"flowCash":   a.Operational.FlowCash,
		"flowBank":   a.Operational.FlowBank,
	})

	if a.OpeningData != nil {
		od := *a.OpeningData
		p["openingData"] = od
	} else {
		p["openingData"] = nil
	}

	// the winning closure's own source decides, so a change event that
	// outruns the AutoClosed marker still reads as automated
	p["isAutoClosed"] = a.HasClosure && a.ClosureAutomated
	return p
}

// AutoClosed marks the day as closed by automation
func AutoClosed(closureID, reason string, at time.Time) Patch {
	return Patch{
		"hasClosure":      true,
		"isAutoClosed":    true,
		"closureId":       closureID,
		"autoCloseReason": reason,
		"completedAt":     at,
	}
}

// AutoOpened marks the day as opened by automation
func AutoOpened(openingID, reason string, at time.Time) Patch {
	return Patch{
		"hasOpening":     true,
		"isAutoOpened":   true,
		"openingId":      openingID,
		"autoOpenReason": reason,
		"openedAt":       at,
	}
}

// Touch stamps lastUpdated
func (p Patch) Touch(now time.Time) Patch {
	p["lastUpdated"] = now
	return p
}

// With merges other into p; other wins on conflicts
func (p Patch) With(other Patch) Patch {
	for k, v := range other {
		p[k] = v
	}
	return p
}

// Paths lists the patched paths in lexical order
func (p Patch) Paths() []string {
	paths := make([]string, 0, len(p))
	for k := range p {
		paths = append(paths, k)
	}
	sort.Strings(paths)
	return paths
}

func (p Patch) amounts(prefix string, values map[string]decimal.Decimal) {
	for k, v := range values {
		p[prefix+"."+k] = v
	}
}

func (p Patch) flow(prefix string, f Flow) {
	p.amounts(prefix, map[string]decimal.Decimal{"income": f.Income, "expense": f.Expense, "net": f.Net})
}

func (p Patch) transferFlow(prefix string, f TransferFlow) {
	p.amounts(prefix, map[string]decimal.Decimal{"in": f.In, "out": f.Out, "net": f.Net})
}

func (p Patch) split(prefix string, s Split) {
	p.amounts(prefix, map[string]decimal.Decimal{"cash": s.Cash, "bank": s.Bank, "total": s.Total})
}
