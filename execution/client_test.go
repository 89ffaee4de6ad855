package execution

import (
	"context"
	"io"
	"syscall"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/lidofinance/validator-ejector/testing/assert"
	"github.com/lidofinance/validator-ejector/testing/require"
	"github.com/pkg/errors"
)

func testClient() *Client {
	return &Client{cfg: clientConfig{
		callTimeout:  time.Second,
		maxRetries:   3,
		retryBackoff: time.Millisecond,
	}}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, true},
		{"eof", io.EOF, true},
		{"connrefused", syscall.ECONNREFUSED, true},
		{"connreset", errors.New("read tcp 127.0.0.1: connection reset by peer"), true},
		{"http 429", rpc.HTTPError{StatusCode: 429}, true},
		{"http 503", rpc.HTTPError{StatusCode: 503}, true},
		{"http 400", rpc.HTTPError{StatusCode: 400}, false},
		{"revert", errors.New("execution reverted"), false},
		{"wrapped refused", errors.Wrap(syscall.ECONNREFUSED, "dial"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTransient(tt.err))
		})
	}
}

func TestRetry_TransientExhaustsAttempts(t *testing.T) {
	c := testClient()
	calls := 0
	err := c.retry(context.Background(), "eth_test", func(_ context.Context) error {
		calls++
		return syscall.ECONNREFUSED
	})
	require.ErrorContains(t, "failed after 3 attempts", err)
	assert.Equal(t, 3, calls)
}

func TestRetry_NonTransientFailsFast(t *testing.T) {
	c := testClient()
	calls := 0
	wantErr := errors.New("execution reverted")
	err := c.retry(context.Background(), "eth_call", func(_ context.Context) error {
		calls++
		return wantErr
	})
	require.ErrorIs(t, err, wantErr)
	assert.Equal(t, 1, calls)
}

func TestRetry_SucceedsAfterTransientFailure(t *testing.T) {
	c := testClient()
	calls := 0
	err := c.retry(context.Background(), "eth_getLogs", func(_ context.Context) error {
		calls++
		if calls == 1 {
			return io.EOF
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetry_ParentCancelStops(t *testing.T) {
	c := testClient()
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := c.retry(ctx, "eth_chainId", func(_ context.Context) error {
		calls++
		cancel()
		return io.EOF
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
