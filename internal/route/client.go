package route

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/quantumauth-io/quantum-go-utils/log"
	"github.com/quantumauth-io/quantum-go-utils/retry"

	"github.com/quantumauth-io/nft-checkout/internal/nft"
)

var ErrNoRoute = errors.New("route: router returned no route")

const DefaultMaxRetries = 3

// Client talks to the router backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxDelay   time.Duration
	maxRetries int32
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithMaxRetryDelay bounds the backoff between attempts on transient
// router failures.
func WithMaxRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) { c.maxDelay = d }
}

// WithMaxRetries caps how many times a transient failure is retried before
// FetchRoute gives up. Negative values are treated as zero.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		if n < 0 {
			n = 0
		}
		c.maxRetries = int32(n)
	}
}

func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("route: router url is empty")
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 20 * time.Second},
		maxDelay:   2 * time.Second,
		maxRetries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchRoute asks the router how to buy the requested trades. Transport
// errors and 5xx answers are retried up to the client's retry cap or until
// ctx ends; any other non-2xx answer fails immediately.
func (c *Client) FetchRoute(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "route: marshal request")
	}

	cfg := retry.DefaultConfig()
	cfg.MaxDelayBeforeRetrying = c.maxDelay
	cfg.InitialDelayBeforeRetrying = c.maxDelay / 10
	cfg.MaxNumRetries = c.maxRetries

	var (
		out       *Response
		permanent error
	)
	_, err = retry.Retry(ctx, cfg,
		func(ctx context.Context) ([]interface{}, error) {
			resp, status, err := c.post(ctx, "/nft/route", body)
			switch {
			case err != nil:
				log.Warn("route fetch failed, retrying", "error", err)
				return nil, err
			case status >= 500:
				return nil, errors.Newf("route: status %d", status)
			case status >= 300:
				permanent = errors.Newf("route: status %d: %s", status, strings.TrimSpace(string(resp)))
				return nil, nil
			}
			out, permanent = decodeResponse(resp)
			return nil, nil
		},
		nil,
		"fetch nft route")
	if err != nil {
		return nil, errors.Wrap(err, "route: fetch")
	}
	if permanent != nil {
		return nil, permanent
	}
	if out.Empty() {
		return out, ErrNoRoute
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) ([]byte, int, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return b, resp.StatusCode, nil
}

func decodeResponse(b []byte) (*Response, error) {
	var w wireResponse
	if err := json.Unmarshal(b, &w); err != nil {
		return nil, errors.Wrap(err, "route: decode response")
	}

	out := &Response{Data: w.Data}
	if w.To != "" {
		if !common.IsHexAddress(w.To) {
			return nil, errors.Newf("route: invalid to address %q", w.To)
		}
		out.To = common.HexToAddress(w.To)
	}

	value := w.ValueToSend
	if value == "" {
		value = w.Value
	}
	if value != "" {
		v, ok := math.ParseBig256(value)
		if !ok {
			return nil, errors.Newf("route: invalid value %q", value)
		}
		out.Value = v
	}

	out.Route = make([]nft.RoutingItem, 0, len(w.Route))
	for i, leg := range w.Route {
		in, err := leg.AssetIn.toAsset()
		if err != nil {
			return nil, errors.Wrapf(err, "route leg %d asset in", i)
		}
		outAsset, err := leg.AssetOut.toAsset()
		if err != nil {
			return nil, errors.Wrapf(err, "route leg %d asset out", i)
		}
		out.Route = append(out.Route, nft.RoutingItem{
			Action:      leg.Action,
			Marketplace: leg.Marketplace,
			AmountIn:    leg.AmountIn,
			AssetIn:     in,
			AmountOut:   leg.AmountOut,
			AssetOut:    outAsset,
		})
	}
	return out, nil
}

func (w wireRouteAsset) toAsset() (nft.RouteAsset, error) {
	pi, err := w.PriceInfo.toPriceInfo()
	if err != nil {
		return nft.RouteAsset{}, err
	}
	return nft.RouteAsset{
		ID:          w.ID,
		Address:     w.Address,
		TokenID:     w.TokenID,
		TokenType:   w.TokenType,
		PriceInfo:   pi,
		OrderSource: w.OrderSource,
	}, nil
}

func (w wirePriceInfo) toPriceInfo() (nft.PriceInfo, error) {
	base, err := parseAmount(w.BasePrice)
	if err != nil {
		return nft.PriceInfo{}, errors.Wrap(err, "basePrice")
	}
	ethPrice, err := parseAmount(w.ETHPrice)
	if err != nil {
		return nft.PriceInfo{}, errors.Wrap(err, "ETHPrice")
	}
	return nft.PriceInfo{BaseAsset: w.BaseAsset, BasePrice: base, ETHPrice: ethPrice, USDPrice: w.USDPrice}, nil
}

func parseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, ok := math.ParseBig256(s)
	if !ok {
		return nil, errors.Newf("invalid amount %q", s)
	}
	return v, nil
}
