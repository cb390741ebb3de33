package transaction

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestChangeEvent_Subject(t *testing.T) {
	r := Record{UUID: uuid.New(), BusinessID: "biz-1", Type: TypeExpense}
	now := time.Now()

	created := NewCreatedEvent(r, now)
	assert.Equal(t, OperationCreate, created.Operation)
	assert.Equal(t, r.UUID, created.Subject().UUID)
	assert.Nil(t, created.Before)

	deleted := NewDeletedEvent(r, now)
	assert.Equal(t, OperationDelete, deleted.Operation)
	assert.Equal(t, r.UUID, deleted.Subject().UUID)
	assert.Nil(t, deleted.After)
	assert.NotEqual(t, created.EventID, deleted.EventID)
}

func TestChangeEvent_IsPaymentAppendOnly(t *testing.T) {
	created := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	base := func() *Record {
		return &Record{
			UUID:          uuid.MustParse("2b0a2f4e-3f7e-4f5c-9a3e-6f1c1f3d0a11"),
			BusinessID:    "biz-1",
			Type:          TypeIncome,
			Account:       AccountCash,
			Amount:        dec("100"),
			PaymentStatus: PaymentStatusPartial,
			Payments:      []Payment{{Amount: dec("30"), Account: AccountCash}},
			CreatedAt:     at(created),
		}
	}

	testCases := []struct {
		name   string
		mutate func(before, after *Record)
		op     Operation
		want   bool
	}{
		{
			name: "AppendedInstallment",
			op:   OperationUpdate,
			mutate: func(_, after *Record) {
				after.Payments = append(after.Payments, Payment{Amount: dec("20.00"), Account: AccountYape})
			},
			want: true,
		},
		{
			name:   "NothingAppended",
			op:     OperationUpdate,
			mutate: func(_, _ *Record) {},
			want:   false,
		},
		{
			name: "AppendedAndAmountChanged",
			op:   OperationUpdate,
			mutate: func(_, after *Record) {
				after.Payments = append(after.Payments, Payment{Amount: dec("20"), Account: AccountYape})
				after.Amount = dec("120")
			},
			want: false,
		},
		{
			name: "AppendedAndStatusChanged",
			op:   OperationUpdate,
			mutate: func(_, after *Record) {
				after.Payments = append(after.Payments, Payment{Amount: dec("70"), Account: AccountCash})
				after.PaymentStatus = PaymentStatusCompleted
			},
			want: false,
		},
		{
			name: "FirstInstallmentRewritten",
			op:   OperationUpdate,
			mutate: func(_, after *Record) {
				after.Payments = []Payment{{Amount: dec("31"), Account: AccountCash}, {Amount: dec("20"), Account: AccountCash}}
			},
			want: false,
		},
		{
			name: "NotAnIncome",
			op:   OperationUpdate,
			mutate: func(before, after *Record) {
				before.Type = TypeExpense
				after.Type = TypeExpense
				after.Payments = append(after.Payments, Payment{Amount: dec("20"), Account: AccountCash})
			},
			want: false,
		},
		{
			name: "CreateIsNeverFiltered",
			op:   OperationCreate,
			mutate: func(_, after *Record) {
				after.Payments = append(after.Payments, Payment{Amount: dec("20"), Account: AccountCash})
			},
			want: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			before, after := base(), base()
			tc.mutate(before, after)
			e := ChangeEvent{Operation: tc.op, Before: before, After: after}
			assert.Equal(t, tc.want, e.IsPaymentAppendOnly())
		})
	}
}
