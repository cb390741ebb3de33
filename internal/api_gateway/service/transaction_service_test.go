package service

import (
	"context"
	"testing"
	"time"

	"github.com/cashday-ledger/internal/domain/business"
	"github.com/cashday-ledger/internal/domain/businessday"
	"github.com/cashday-ledger/internal/domain/transaction"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTransactionServiceImpl_Record(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)

	t.Run("defaults createdAt and source", func(t *testing.T) {
		writer := new(MockLedgerWriter)
		businesses := new(MockBusinessReader)
		svc := NewTransactionService(newTestLogger(), writer, businesses, businessday.NewResolver()).(*TransactionServiceImpl)
		svc.now = func() time.Time { return now }

		businesses.On("GetByID", ctx, "biz-1").Return(&business.Business{ID: "biz-1"}, nil)
		writer.On("Append", ctx, mock.MatchedBy(func(rec *transaction.Record) bool {
			return rec.CreatedAt != nil && rec.CreatedAt.Equal(now) && rec.Source == transaction.SourceManual
		})).Return(transaction.ChangeEvent{EventID: uuid.New()}, nil)

		_, err := svc.Record(ctx, &transaction.Record{
			BusinessID: "biz-1",
			Type:       transaction.TypeIncome,
			Account:    transaction.AccountCash,
			Amount:     decimal.RequireFromString("80"),
		})
		require.NoError(t, err)
		writer.AssertExpectations(t)
	})

	t.Run("unknown business", func(t *testing.T) {
		writer := new(MockLedgerWriter)
		businesses := new(MockBusinessReader)
		svc := NewTransactionService(newTestLogger(), writer, businesses, businessday.NewResolver())

		businesses.On("GetByID", ctx, "ghost").Return(nil, business.ErrBusinessNotFound{BusinessID: "ghost"})

		_, err := svc.Record(ctx, &transaction.Record{BusinessID: "ghost"})
		assert.ErrorIs(t, err, business.ErrBusinessNotFound{})
		writer.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})
}

func TestTransactionServiceImpl_Delete(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	lima := &business.Business{ID: "biz-1", Timezone: "America/Lima"}
	// 2024-03-01 22:00 in Lima
	now := time.Date(2024, 3, 2, 3, 0, 0, 0, time.UTC)

	closureAt := func(at time.Time) *transaction.Record {
		return &transaction.Record{
			UUID:       id,
			BusinessID: "biz-1",
			Type:       transaction.TypeClosure,
			Register:   &transaction.RegisterFigures{},
			CreatedAt:  &at,
		}
	}

	tests := []struct {
		name    string
		stored  *transaction.Record
		wantErr bool
	}{
		{
			name:   "closure of the same business day",
			stored: closureAt(time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)),
		},
		{
			name:    "closure of an earlier business day",
			stored:  closureAt(time.Date(2024, 3, 1, 4, 0, 0, 0, time.UTC)),
			wantErr: true,
		},
		{
			name:    "opening",
			stored:  &transaction.Record{UUID: id, BusinessID: "biz-1", Type: transaction.TypeOpening},
			wantErr: true,
		},
		{
			name:   "expense",
			stored: &transaction.Record{UUID: id, BusinessID: "biz-1", Type: transaction.TypeExpense},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer := new(MockLedgerWriter)
			businesses := new(MockBusinessReader)
			svc := NewTransactionService(newTestLogger(), writer, businesses, businessday.NewResolver()).(*TransactionServiceImpl)
			svc.now = func() time.Time { return now }

			businesses.On("GetByID", ctx, "biz-1").Return(lima, nil)
			writer.On("Remove", ctx, "biz-1", id).Return(tt.stored, transaction.ChangeEvent{}, nil)

			_, err := svc.Delete(ctx, "biz-1", id)
			if tt.wantErr {
				assert.ErrorAs(t, err, &ErrNotDeletable{})
				return
			}
			assert.NoError(t, err)
		})
	}
}
