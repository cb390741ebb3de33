package lock

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	args := m.Called(ctx, key, value, expiration)
	return redis.NewBoolResult(args.Bool(0), args.Error(1))
}

func (m *MockClient) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	called := m.Called(ctx, script, keys, args)
	return redis.NewCmdResult(called.Get(0), called.Error(1))
}

func (m *MockClient) EvalSha(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	called := m.Called(ctx, sha1, keys, args)
	return redis.NewCmdResult(called.Get(0), called.Error(1))
}

func (m *MockClient) EvalRO(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	called := m.Called(ctx, script, keys, args)
	return redis.NewCmdResult(called.Get(0), called.Error(1))
}

func (m *MockClient) EvalShaRO(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	called := m.Called(ctx, sha1, keys, args)
	return redis.NewCmdResult(called.Get(0), called.Error(1))
}

func (m *MockClient) ScriptExists(ctx context.Context, hashes ...string) *redis.BoolSliceCmd {
	args := m.Called(ctx, hashes)
	return redis.NewBoolSliceResult(nil, args.Error(0))
}

func (m *MockClient) ScriptLoad(ctx context.Context, script string) *redis.StringCmd {
	args := m.Called(ctx, script)
	return redis.NewStringResult(args.String(0), args.Error(1))
}

func newTestLocker(client Client) *Locker {
	return NewLocker(slog.New(slog.NewTextHandler(io.Discard, nil)), client, time.Minute, "scheduler:run:")
}

func TestLocker_Acquire(t *testing.T) {
	ctx := context.Background()
	key := "scheduler:run:2024-03-02T04:59:00Z"

	t.Run("acquired and released by owner", func(t *testing.T) {
		client := new(MockClient)
		var token interface{}
		client.On("SetNX", ctx, key, mock.AnythingOfType("string"), time.Minute).
			Run(func(args mock.Arguments) { token = args.Get(2) }).
			Return(true, nil)

		release, err := newTestLocker(client).Acquire(ctx, "2024-03-02T04:59:00Z")
		require.NoError(t, err)
		require.NotNil(t, release)

		client.On("EvalSha", ctx, mock.Anything, []string{key}, mock.MatchedBy(func(args []interface{}) bool {
			return len(args) == 1 && args[0] == token
		})).Return(int64(1), nil)

		assert.NoError(t, release(ctx))
		client.AssertExpectations(t)
	})

	t.Run("held by another owner", func(t *testing.T) {
		client := new(MockClient)
		client.On("SetNX", ctx, key, mock.Anything, time.Minute).Return(false, nil)

		release, err := newTestLocker(client).Acquire(ctx, "2024-03-02T04:59:00Z")
		assert.Nil(t, release)
		assert.ErrorIs(t, err, ErrNotAcquired)
	})

	t.Run("redis unavailable", func(t *testing.T) {
		client := new(MockClient)
		client.On("SetNX", ctx, key, mock.Anything, time.Minute).Return(false, errors.New("connection refused"))

		_, err := newTestLocker(client).Acquire(ctx, "2024-03-02T04:59:00Z")
		assert.ErrorContains(t, err, "connection refused")
		assert.NotErrorIs(t, err, ErrNotAcquired)
	})
}
