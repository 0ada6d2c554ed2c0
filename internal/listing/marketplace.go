// Package listing builds, signs and submits marketplace sell orders and
// tracks the listing flow of a batch of assets.
package listing

import (
	"context"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/quantumauth-io/nft-checkout/internal/ethwallet/wtypes"
	"github.com/quantumauth-io/nft-checkout/internal/nft"
)

var (
	ErrUnsupportedMarketplace = errors.New("listing: unsupported marketplace")
	ErrInvalidRow             = errors.New("listing: invalid listing row")
	ErrWrongOrder             = errors.New("listing: order built by another marketplace")
	ErrNotOwned               = errors.New("listing: signer does not own the token")
)

// Order is a marketplace-specific unsigned order.
type Order interface {
	Marketplace() nft.Marketplace
}

// SignedOrder is what gets submitted to the order service. Body is the
// marketplace's JSON order payload, signature included.
type SignedOrder struct {
	Marketplace nft.Marketplace
	Hash        common.Hash
	Signature   hexutil.Bytes
	Body        map[string]any
}

// Marketplace is the capability each supported sell venue implements.
type Marketplace interface {
	Name() nft.Marketplace
	BuildOrder(ctx context.Context, row nft.ListingRow, signer common.Address) (Order, error)
	Sign(ctx context.Context, order Order, w wtypes.Wallet) (*SignedOrder, error)
	// Submit posts the order and returns the id the venue assigned.
	Submit(ctx context.Context, signed *SignedOrder) (string, error)
}

// OrderPoster sends a signed order payload to the order service.
type OrderPoster interface {
	PostOrder(ctx context.Context, market nft.Marketplace, body map[string]any) (string, error)
}

// CounterFetcher returns the Seaport counter of an offerer.
type CounterFetcher interface {
	Counter(ctx context.Context, offerer common.Address) (*big.Int, error)
}

// NonceFetcher returns the next LooksRare maker nonce of a signer.
type NonceFetcher interface {
	Nonce(ctx context.Context, signer common.Address) (*big.Int, error)
}

type rowTerms struct {
	collection common.Address
	tokenID    *big.Int
	price      *big.Int
	expiration *big.Int
	amount     *big.Int
}

func termsOf(row nft.ListingRow) (rowTerms, error) {
	if !common.IsHexAddress(row.Asset.Address) {
		return rowTerms{}, errors.Wrapf(ErrInvalidRow, "collection %q", row.Asset.Address)
	}
	id, ok := row.Asset.TokenIDBig()
	if !ok {
		return rowTerms{}, errors.Wrapf(ErrInvalidRow, "token id %q", row.Asset.TokenID)
	}
	if row.Price == nil || row.Price.Sign() <= 0 {
		return rowTerms{}, errors.Wrap(ErrInvalidRow, "price must be positive")
	}
	if row.Expiration <= 0 {
		return rowTerms{}, errors.Wrap(ErrInvalidRow, "expiration is not set")
	}
	return rowTerms{
		collection: common.HexToAddress(row.Asset.Address),
		tokenID:    id,
		price:      new(big.Int).Set(row.Price),
		expiration: big.NewInt(row.Expiration),
		amount:     big.NewInt(1),
	}, nil
}

func submitVia(ctx context.Context, poster OrderPoster, want nft.Marketplace, signed *SignedOrder) (string, error) {
	if signed == nil || signed.Marketplace != want {
		return "", ErrWrongOrder
	}
	if poster == nil {
		return "", errors.New("listing: no order service configured")
	}
	return poster.PostOrder(ctx, want, signed.Body)
}

func bpsOf(amount *big.Int, bps int64) *big.Int {
	v := new(big.Int).Mul(amount, big.NewInt(bps))
	return v.Div(v, big.NewInt(10_000))
}
