package onchain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/time/rate"
)

const (
	// Backfill resolves one header per distinct block; keep the RPC happy.
	headerRatePerSec = 20
	headerBurst      = 10
)

// Client implements ports.ChainReader over an ethclient connection, with a
// rate-limited, cached block-timestamp lookup. Block timestamps are immutable
// so the cache never invalidates.
type Client struct {
	eth     *ethclient.Client
	limiter *rate.Limiter

	mu      sync.Mutex
	tsCache map[uint64]int64 // block number → unix seconds
}

// Dial connects to the given RPC endpoint. Live subscriptions require a
// websocket (ws://, wss://) or IPC endpoint; plain HTTP still serves
// backfill and block queries.
func Dial(rpcURL string) (*Client, error) {
	eth, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("onchain.Dial: %s: %w", rpcURL, err)
	}
	return &Client{
		eth:     eth,
		limiter: rate.NewLimiter(headerRatePerSec, headerBurst),
		tsCache: make(map[uint64]int64),
	}, nil
}

// BlockNumber returns the current chain head height.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	return c.eth.BlockNumber(ctx)
}

// FilterLogs returns historical logs matching the query.
func (c *Client) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	return c.eth.FilterLogs(ctx, q)
}

// SubscribeFilterLogs opens a live log subscription.
func (c *Client) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return c.eth.SubscribeFilterLogs(ctx, q, ch)
}

// TimestampAt resolves the unix timestamp (seconds) of the given block.
func (c *Client) TimestampAt(ctx context.Context, blockNumber uint64) (int64, error) {
	c.mu.Lock()
	ts, ok := c.tsCache[blockNumber]
	c.mu.Unlock()
	if ok {
		return ts, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	header, err := c.eth.HeaderByNumber(ctx, new(big.Int).SetUint64(blockNumber))
	if err != nil {
		return 0, fmt.Errorf("onchain.TimestampAt: header %d: %w", blockNumber, err)
	}

	ts = int64(header.Time)
	c.mu.Lock()
	c.tsCache[blockNumber] = ts
	c.mu.Unlock()
	return ts, nil
}

// Close tears down the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}
