// Package chains dials the EVM node the engine talks to and keeps the
// latest block header cached for fee estimation.
package chains

import (
	"context"
	"math/big"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/quantumauth-io/quantum-go-utils/log"
	"github.com/quantumauth-io/quantum-go-utils/retry"
)

var ErrChainMismatch = errors.New("chains: node reports a different chain id")

type Config struct {
	RPCURL string
	// ChainID is checked against the node when non-zero.
	ChainID       uint64
	HeaderRefresh time.Duration
}

// Client is an ethclient.Client whose HeaderByNumber(nil) answers from a
// header refreshed in the background.
type Client struct {
	*ethclient.Client

	chainID        *big.Int
	latestHeader   atomic.Pointer[types.Header]
	headerReceived atomic.Pointer[time.Time]
}

func Dial(ctx context.Context, cfg Config) (*Client, error) {
	url := strings.TrimSpace(cfg.RPCURL)
	if url == "" {
		return nil, errors.New("chains: rpc url is empty")
	}

	eclient, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", url)
	}

	c := &Client{Client: eclient}

	id, err := eclient.ChainID(ctx)
	if err != nil {
		eclient.Close()
		return nil, errors.Wrap(err, "chain id")
	}
	if cfg.ChainID != 0 && id.Uint64() != cfg.ChainID {
		eclient.Close()
		return nil, errors.Wrapf(ErrChainMismatch, "want %d, node has %s", cfg.ChainID, id)
	}
	c.chainID = id

	if err := c.refreshHeader(ctx); err != nil {
		eclient.Close()
		return nil, err
	}

	refresh := cfg.HeaderRefresh
	if refresh <= 0 {
		refresh = 12 * time.Second
	}
	go c.maintainHeader(ctx, refresh)

	log.Info("connected to chain", "chain_id", id, "rpc", url)
	return c, nil
}

func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	if c.chainID != nil {
		return new(big.Int).Set(c.chainID), nil
	}
	return c.Client.ChainID(ctx)
}

func (c *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	if number == nil {
		if h := c.latestHeader.Load(); h != nil {
			return h, nil
		}
	}
	return c.Client.HeaderByNumber(ctx, number)
}

// HeaderAge is how long ago the cached header was fetched.
func (c *Client) HeaderAge() time.Duration {
	t := c.headerReceived.Load()
	if t == nil {
		return 0
	}
	return time.Since(*t)
}

func (c *Client) maintainHeader(ctx context.Context, every time.Duration) {
	cfg := retry.DefaultConfig()
	cfg.MaxDelayBeforeRetrying = every
	cfg.InitialDelayBeforeRetrying = every / 10

	timer := time.NewTimer(every)
	defer timer.Stop()
	calls := 0
	for {
		timer.Reset(every)
		select {
		case <-ctx.Done():
			log.Info("header refresh exiting", "calls", calls)
			return
		case <-timer.C:
			_, _ = retry.Retry(ctx, cfg,
				func(ctx context.Context) ([]interface{}, error) {
					calls++
					return nil, c.refreshHeader(ctx)
				},
				nil,
				"refresh latest header")
		}
	}
}

func (c *Client) refreshHeader(ctx context.Context) error {
	header, err := c.Client.HeaderByNumber(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "latest header")
	}
	now := time.Now().UTC()
	c.latestHeader.Store(header)
	c.headerReceived.Store(&now)
	return nil
}
