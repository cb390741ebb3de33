package outbox_poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cashday-ledger/internal/config"
	"github.com/cashday-ledger/internal/domain/outbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestPoller_ProcessPendingMessages(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.OutboxConfig{
		PollingInterval:  time.Second,
		BatchSize:        10,
		MaxRetryAttempts: 3,
	}

	message1 := &outbox.Message{ID: 1, BusinessID: "biz-1", Status: outbox.StatusPending}
	message2 := &outbox.Message{ID: 2, BusinessID: "biz-2", Status: outbox.StatusPending}
	exhausted := &outbox.Message{ID: 3, BusinessID: "biz-1", Status: outbox.StatusPending, Attempts: 2}

	tests := []struct {
		name          string
		setupMocks    func(*MockOutboxRepo, *MockEventRelay)
		expectedError string
	}{
		{
			name: "relays every pending message",
			setupMocks: func(repo *MockOutboxRepo, relay *MockEventRelay) {
				repo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{message1, message2}, nil).Once()
				relay.On("Relay", mock.Anything, message1).Return(nil).Once()
				relay.On("Relay", mock.Anything, message2).Return(nil).Once()
			},
		},
		{
			name: "error getting pending messages",
			setupMocks: func(repo *MockOutboxRepo, _ *MockEventRelay) {
				repo.On("GetPending", mock.Anything, 10).Return(nil, errors.New("db error")).Once()
			},
			expectedError: "failed to get pending outbox messages",
		},
		{
			name: "no pending messages",
			setupMocks: func(repo *MockOutboxRepo, _ *MockEventRelay) {
				repo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{}, nil).Once()
			},
		},
		{
			name: "failure on one message does not stop the batch",
			setupMocks: func(repo *MockOutboxRepo, relay *MockEventRelay) {
				repo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{message1, message2}, nil).Once()
				relay.On("Relay", mock.Anything, message1).Return(errors.New("broker down")).Once()
				repo.On("IncrementAttempts", mock.Anything, int64(1)).Return(nil).Once()
				relay.On("Relay", mock.Anything, message2).Return(nil).Once()
			},
		},
		{
			name: "max retry attempts reached",
			setupMocks: func(repo *MockOutboxRepo, relay *MockEventRelay) {
				repo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{exhausted}, nil).Once()
				relay.On("Relay", mock.Anything, exhausted).Return(errors.New("broker down")).Once()
				repo.On("IncrementAttempts", mock.Anything, int64(3)).Return(nil).Once()
				repo.On("UpdateStatus", mock.Anything, int64(3), outbox.StatusFailedToPublish).Return(nil).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockOutboxRepo{}
			relay := &MockEventRelay{}
			tt.setupMocks(repo, relay)

			err := NewPoller(cfg, repo, relay, logger).processPendingMessages(context.Background())

			if tt.expectedError != "" {
				assert.ErrorContains(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
			relay.AssertExpectations(t)
		})
	}
}

func TestPoller_Start(t *testing.T) {
	repo := &MockOutboxRepo{}
	relay := &MockEventRelay{}
	cfg := &config.OutboxConfig{PollingInterval: 10 * time.Millisecond, BatchSize: 10, MaxRetryAttempts: 3}

	repo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		NewPoller(cfg, repo, relay, slog.New(slog.NewTextHandler(io.Discard, nil))).Start(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancellation")
	}
	repo.AssertCalled(t, "GetPending", mock.Anything, 10)
}
