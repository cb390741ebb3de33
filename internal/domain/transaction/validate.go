package transaction

import "fmt"

// ErrInvalidRecord rejects a record before it is written
type ErrInvalidRecord struct {
	Field  string
	Reason string
}

func (e ErrInvalidRecord) Error() string {
	return fmt.Sprintf("invalid transaction %s: %s", e.Field, e.Reason)
}

// Is matches any ErrInvalidRecord when the target has no field
func (e ErrInvalidRecord) Is(target error) bool {
	t, ok := target.(ErrInvalidRecord)
	if !ok {
		return false
	}
	return t.Field == "" || t.Field == e.Field
}

// Validate checks the fields the aggregator depends on
func (r Record) Validate() error {
	if r.BusinessID == "" {
		return ErrInvalidRecord{Field: "business_id", Reason: "is required"}
	}
	if r.CreatedAt == nil || r.CreatedAt.IsZero() {
		return ErrInvalidRecord{Field: "created_at", Reason: "is required"}
	}
	if r.Amount.IsNegative() {
		return ErrInvalidRecord{Field: "amount", Reason: "must not be negative"}
	}

	switch r.Type {
	case TypeOpening, TypeClosure:
		if r.Register == nil {
			return ErrInvalidRecord{Field: "register", Reason: "is required for " + string(r.Type)}
		}
	case TypeIncome, TypeExpense, TypePayment:
		if r.Account == "" {
			return ErrInvalidRecord{Field: "account", Reason: "is required for " + string(r.Type)}
		}
		for _, p := range r.Payments {
			if p.Amount.IsNegative() {
				return ErrInvalidRecord{Field: "payments", Reason: "amounts must not be negative"}
			}
		}
	case TypeTransfer:
		if r.FromAccount == "" || r.ToAccount == "" {
			return ErrInvalidRecord{Field: "from_account", Reason: "transfers need both accounts"}
		}
		if r.FromAccount == r.ToAccount {
			return ErrInvalidRecord{Field: "to_account", Reason: "must differ from from_account"}
		}
	default:
		return ErrInvalidRecord{Field: "type", Reason: fmt.Sprintf("unknown type %q", r.Type)}
	}
	return nil
}
