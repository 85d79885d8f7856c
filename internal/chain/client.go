package chain

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/charlesjhongc/evm-event-parser/internal/query"
)

// Client wraps go-ethereum RPC and provides the chain capability the query
// engine consumes.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client

	mu      sync.RWMutex
	tsCache map[uint64]uint64
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		tsCache:   make(map[uint64]uint64),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// ChainID returns the chain ID.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return c.ethClient.ChainID(ctx)
}

// HeadNumber returns the current chain head height. Callers resolve both
// range endpoints of one query against a single HeadNumber result.
func (c *Client) HeadNumber(ctx context.Context) (uint64, error) {
	return c.ethClient.BlockNumber(ctx)
}

// BlockTimestamp returns the block timestamp, using an in-memory cache.
func (c *Client) BlockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	c.mu.RLock()
	ts, ok := c.tsCache[number]
	c.mu.RUnlock()
	if ok {
		return ts, nil
	}

	header, err := c.ethClient.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return 0, err
	}

	ts = header.Time
	c.mu.Lock()
	c.tsCache[number] = ts
	c.mu.Unlock()

	return ts, nil
}

// FetchLogs issues one eth_getLogs range query for the event described by
// q. Topic position 0 is the event's signature hash; the following
// positions carry the coerced indexed-filter value sets in declaration
// order.
func (c *Client) FetchLogs(ctx context.Context, q query.LogQuery) ([]types.Log, error) {
	fromBlock, err := blockNumArg(q.From)
	if err != nil {
		return nil, err
	}
	toBlock, err := blockNumArg(q.To)
	if err != nil {
		return nil, err
	}

	topics, err := BuildTopics(q.Event, q.Filters)
	if err != nil {
		return nil, err
	}

	return c.ethClient.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: fromBlock,
		ToBlock:   toBlock,
		Addresses: []common.Address{q.Address},
		Topics:    topics,
	})
}

// blockNumArg converts a resolved endpoint into the *big.Int form that
// ethclient encodes. Pass-through tags are interpreted here via
// rpc.BlockNumber ("latest", "earliest", "pending", "safe", "finalized");
// anything else is rejected. Negative heights pass through for the node to
// reject.
func blockNumArg(endpoint query.BlockEndpoint) (*big.Int, error) {
	if !endpoint.IsTag() {
		return endpoint.Height(), nil
	}

	var bn rpc.BlockNumber
	if err := bn.UnmarshalJSON([]byte(strconv.Quote(endpoint.Tag()))); err != nil {
		return nil, fmt.Errorf("unrecognized block tag %q: %w", endpoint.Tag(), err)
	}
	return big.NewInt(bn.Int64()), nil
}
