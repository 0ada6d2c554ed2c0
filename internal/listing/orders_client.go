package listing

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/quantumauth-io/quantum-go-utils/retry"

	"github.com/quantumauth-io/nft-checkout/internal/nft"
)

var ErrOrderRejected = errors.New("listing: order service rejected the order")

// OrderService is the backend that relays signed orders to each venue.
type OrderService struct {
	baseURL    string
	httpClient *http.Client
	maxDelay   time.Duration
}

var (
	_ OrderPoster  = (*OrderService)(nil)
	_ NonceFetcher = (*OrderService)(nil)
)

type orderResponse struct {
	Success bool   `json:"success"`
	OrderID string `json:"orderId"`
	Error   string `json:"error,omitempty"`
}

func NewOrderService(baseURL string, hc *http.Client) (*OrderService, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("listing: order service url is empty")
	}
	if hc == nil {
		hc = &http.Client{Timeout: 20 * time.Second}
	}
	return &OrderService{baseURL: baseURL, httpClient: hc, maxDelay: 2 * time.Second}, nil
}

// PostOrder submits body to POST /{market}/orders. It is not retried: a
// resubmitted order could be listed twice.
func (s *OrderService) PostOrder(ctx context.Context, market nft.Marketplace, body map[string]any) (string, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return "", errors.Wrap(err, "listing: marshal order")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/"+string(market)+"/orders", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "listing: post %s order", market)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 300 {
		return "", errors.Wrapf(ErrOrderRejected, "%s: status %d: %s", market, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out orderResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", errors.Wrap(err, "listing: decode order response")
	}
	if !out.Success {
		return "", errors.Wrapf(ErrOrderRejected, "%s: %s", market, out.Error)
	}
	return out.OrderID, nil
}

// Nonce reads GET /looksrare/nonce?address=, retrying transport errors.
func (s *OrderService) Nonce(ctx context.Context, signer common.Address) (*big.Int, error) {
	u := s.baseURL + "/looksrare/nonce?address=" + url.QueryEscape(signer.Hex())

	cfg := retry.DefaultConfig()
	cfg.MaxDelayBeforeRetrying = s.maxDelay
	cfg.InitialDelayBeforeRetrying = s.maxDelay / 10
	cfg.MaxNumRetries = 3

	var (
		nonce     *big.Int
		permanent error
	)
	_, err := retry.Retry(ctx, cfg,
		func(ctx context.Context) ([]interface{}, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
			if err != nil {
				permanent = err
				return nil, nil
			}
			resp, err := s.httpClient.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 500 {
				return nil, errors.Newf("nonce: status %d", resp.StatusCode)
			}
			if resp.StatusCode >= 300 {
				permanent = errors.Newf("nonce: status %d", resp.StatusCode)
				return nil, nil
			}

			var body struct {
				Nonce json.RawMessage `json:"nonce"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				permanent = errors.Wrap(err, "nonce: decode")
				return nil, nil
			}
			v, ok := math.ParseBig256(strings.Trim(string(body.Nonce), `"`))
			if !ok {
				permanent = errors.Newf("nonce: invalid value %s", body.Nonce)
				return nil, nil
			}
			nonce = v
			return nil, nil
		},
		nil,
		"fetch looksrare nonce")
	if err != nil {
		return nil, errors.Wrap(err, "listing: nonce")
	}
	if permanent != nil {
		return nil, permanent
	}
	return nonce, nil
}
