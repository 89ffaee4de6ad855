// Package execution provides the execution layer JSON-RPC adapter used by the
// event verification chain. Every call runs under a bounded timeout and
// transient transport faults are retried a fixed number of times; semantic
// failures surface to the caller on the first attempt.
package execution

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
)

const (
	defaultCallTimeout  = 30 * time.Second
	defaultMaxRetries   = 3
	defaultRetryBackoff = time.Second
)

type clientConfig struct {
	callTimeout  time.Duration
	maxRetries   int
	retryBackoff time.Duration
}

// Client wraps an execution layer RPC connection.
type Client struct {
	cfg      clientConfig
	rpc      *rpc.Client
	eth      *ethclient.Client
	endpoint string
}

// NewClient dials the given execution layer endpoint.
func NewClient(ctx context.Context, endpoint string, opts ...Option) (*Client, error) {
	c := &Client{
		cfg: clientConfig{
			callTimeout:  defaultCallTimeout,
			maxRetries:   defaultMaxRetries,
			retryBackoff: defaultRetryBackoff,
		},
		endpoint: endpoint,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	rpcClient, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "could not dial execution node")
	}
	c.rpc = rpcClient
	c.eth = ethclient.NewClient(rpcClient)
	return c, nil
}

// Close terminates the underlying RPC connection.
func (c *Client) Close() {
	if c.rpc != nil {
		c.rpc.Close()
	}
}

// ChainID fetches the chain id of the attached node.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	var id *big.Int
	err := c.retry(ctx, "eth_chainId", func(ctx context.Context) error {
		var err error
		id, err = c.eth.ChainID(ctx)
		return err
	})
	return id, err
}

// SyncProgress reports the node's sync progress. A nil progress means the
// node is not syncing.
func (c *Client) SyncProgress(ctx context.Context) (*ethereum.SyncProgress, error) {
	var progress *ethereum.SyncProgress
	err := c.retry(ctx, "eth_syncing", func(ctx context.Context) error {
		var err error
		progress, err = c.eth.SyncProgress(ctx)
		return err
	})
	return progress, err
}

// FinalizedHeader returns the latest finalized block header.
func (c *Client) FinalizedHeader(ctx context.Context) (*types.Header, error) {
	var header *types.Header
	err := c.retry(ctx, "eth_getBlockByNumber", func(ctx context.Context) error {
		var err error
		header, err = c.eth.HeaderByNumber(ctx, big.NewInt(rpc.FinalizedBlockNumber.Int64()))
		return err
	})
	return header, err
}

// TransactionByHash fetches a transaction by its hash.
func (c *Client) TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, error) {
	var tx *types.Transaction
	err := c.retry(ctx, "eth_getTransactionByHash", func(ctx context.Context) error {
		var err error
		var pending bool
		tx, pending, err = c.eth.TransactionByHash(ctx, hash)
		if err != nil {
			return err
		}
		if pending {
			return errors.Errorf("transaction %#x is still pending", hash)
		}
		return nil
	})
	return tx, err
}

// FilterLogs fetches logs matching the given query.
func (c *Client) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	var logs []types.Log
	err := c.retry(ctx, "eth_getLogs", func(ctx context.Context) error {
		var err error
		logs, err = c.eth.FilterLogs(ctx, q)
		return err
	})
	return logs, err
}

// CallContract executes a read only contract call at the latest block.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	var res []byte
	err := c.retry(ctx, "eth_call", func(ctx context.Context) error {
		var err error
		res, err = c.eth.CallContract(ctx, msg, nil)
		return err
	})
	return res, err
}

// retry runs fn under the per call timeout, retrying transient failures with
// a linear backoff. Semantic errors are returned as is on first occurrence.
func (c *Client) retry(ctx context.Context, method string, fn func(ctx context.Context) error) error {
	var err error
	for i := 0; i < c.cfg.maxRetries; i++ {
		rpcRequestsTotal.WithLabelValues(method).Inc()
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.callTimeout)
		err = fn(callCtx)
		cancel()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			rpcErrorsTotal.WithLabelValues(method).Inc()
			return ctx.Err()
		}
		if !isTransient(err) {
			rpcErrorsTotal.WithLabelValues(method).Inc()
			return err
		}
		rpcRetriesTotal.WithLabelValues(method).Inc()
		log.WithError(err).WithField("method", method).Debug("Retrying transient RPC failure")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.cfg.retryBackoff * time.Duration(i+1)):
		}
	}
	rpcErrorsTotal.WithLabelValues(method).Inc()
	return errors.Wrapf(err, "%s failed after %d attempts", method, c.cfg.maxRetries)
}
