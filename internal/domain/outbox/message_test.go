package outbox

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/cashday-ledger/internal/domain/transaction"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	t.Run("SuccessfulCreation", func(t *testing.T) {
		created := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
		record := transaction.Record{
			UUID:       uuid.New(),
			BusinessID: "biz-1",
			Type:       transaction.TypeExpense,
			Account:    transaction.AccountCash,
			Amount:     decimal.RequireFromString("20.50"),
			CreatedAt:  &created,
		}
		event := transaction.NewCreatedEvent(record, created)

		beforeCreation := time.Now()
		msg, err := NewMessage(event)
		afterCreation := time.Now()

		require.NoError(t, err)
		require.NotNil(t, msg)

		assert.Equal(t, event.EventID, msg.EventID)
		assert.Equal(t, record.UUID, msg.TransactionID)
		assert.Equal(t, "biz-1", msg.BusinessID)
		assert.Equal(t, StatusPending, msg.Status)
		assert.Equal(t, 0, msg.Attempts)
		assert.Nil(t, msg.LastAttemptAt)
		assert.WithinDuration(t, beforeCreation, msg.CreatedAt, afterCreation.Sub(beforeCreation)+time.Millisecond)

		var decoded transaction.ChangeEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
		assert.Equal(t, transaction.OperationCreate, decoded.Operation)
		require.NotNil(t, decoded.After)
		assert.True(t, record.Amount.Equal(decoded.After.Amount))
	})
}

func TestMessage_StatusTransitions(t *testing.T) {
	testCases := []struct {
		name       string
		apply      func(m *Message)
		wantStatus Status
		wantTries  int
	}{
		{"IncrementAttempts", (*Message).IncrementAttempts, StatusPending, 2},
		{"MarkAsProcessed", (*Message).MarkAsProcessed, StatusProcessed, 1},
		{"MarkAsFailed", (*Message).MarkAsFailed, StatusFailedToPublish, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			initialTime := time.Now().Add(-time.Hour)
			msg := &Message{Status: StatusPending, Attempts: 1, LastAttemptAt: &initialTime}

			tc.apply(msg)

			assert.Equal(t, tc.wantStatus, msg.Status)
			assert.Equal(t, tc.wantTries, msg.Attempts)
			require.NotNil(t, msg.LastAttemptAt)
			assert.True(t, msg.LastAttemptAt.After(initialTime))
		})
	}
}

func TestMessage_ChangeEvent(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		created := time.Now().UTC().Truncate(time.Millisecond)
		record := transaction.Record{UUID: uuid.New(), BusinessID: "biz-1", Type: transaction.TypeClosure, CreatedAt: &created}
		event := transaction.NewDeletedEvent(record, created)
		payload, err := json.Marshal(event)
		require.NoError(t, err)

		msg := &Message{Payload: payload}
		decoded, err := msg.ChangeEvent()

		require.NoError(t, err)
		assert.Equal(t, event.EventID, decoded.EventID)
		assert.Equal(t, transaction.OperationDelete, decoded.Operation)
		require.NotNil(t, decoded.Before)
		assert.True(t, created.Equal(*decoded.Before.CreatedAt))
	})

	t.Run("InvalidPayload", func(t *testing.T) {
		msg := &Message{Payload: json.RawMessage(`{"operation":`)}
		_, err := msg.ChangeEvent()
		assert.Error(t, err)
	})
}
