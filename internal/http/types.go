package http

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/quantumauth-io/nft-checkout/internal/bag"
	"github.com/quantumauth-io/nft-checkout/internal/checkout"
	"github.com/quantumauth-io/nft-checkout/internal/listing"
	"github.com/quantumauth-io/nft-checkout/internal/nft"
	"github.com/quantumauth-io/nft-checkout/internal/txexec"
	"github.com/quantumauth-io/nft-checkout/internal/utils"
)

// CheckoutService is implemented by *checkout.Service.
type CheckoutService interface {
	Checkout(ctx context.Context, sender string) (*checkout.Result, error)
	ReviewAsset(asset nft.Asset, keep bool) bag.State
	Confirm(ctx context.Context) (*checkout.Result, error)
}

// ListingRunner is implemented by *listing.Lister.
type ListingRunner interface {
	Run(ctx context.Context, rows []nft.ListingRow) (listing.Result, error)
}

// -------- DTOs --------

type assetsReq struct {
	Assets []nft.Asset `json:"assets" binding:"required,min=1"`
}

type checkoutReq struct {
	Sender string `json:"sender"`
}

type reviewReq struct {
	Asset nft.Asset `json:"asset"`
	Keep  bool      `json:"keep"`
}

type poolPriceReq struct {
	Asset    nft.Asset `json:"asset"`
	Position int       `json:"position" binding:"min=0"`
}

type poolPriceRes struct {
	Price   *big.Int `json:"price"`
	Display string   `json:"display"`
}

type listingsReq struct {
	Rows []nft.ListingRow `json:"rows" binding:"required,min=1"`
}

type feesRes struct {
	Fees      []listing.Fees `json:"fees"`
	MaxFeeBps int64          `json:"maxMarketplaceFeeBps"`
}

type outcomeRes struct {
	State         txexec.TxState `json:"state"`
	TxHash        string         `json:"txHash,omitempty"`
	Purchased     []nft.Asset    `json:"purchased"`
	NotPurchased  []nft.Asset    `json:"notPurchased"`
	Refund        *big.Int       `json:"refund,omitempty"`
	RefundDisplay string         `json:"refundDisplay,omitempty"`
	Error         string         `json:"error,omitempty"`
}

type checkoutRes struct {
	Bag     bag.State         `json:"bag"`
	Review  *checkout.Summary `json:"review,omitempty"`
	Outcome *outcomeRes       `json:"outcome,omitempty"`
	Error   string            `json:"error,omitempty"`
}

func toCheckoutRes(r *checkout.Result, err error) checkoutRes {
	var out checkoutRes
	if r != nil {
		out.Bag = r.Bag
		out.Review = r.Review
		out.Outcome = toOutcomeRes(r.Outcome)
	}
	if err != nil {
		out.Error = err.Error()
	}
	return out
}

func toOutcomeRes(o *txexec.Outcome) *outcomeRes {
	if o == nil {
		return nil
	}
	out := &outcomeRes{
		State:        o.State,
		Purchased:    o.Purchased,
		NotPurchased: o.NotPurchased,
		Refund:       o.Refund,
	}
	if o.TxHash != (common.Hash{}) {
		out.TxHash = o.TxHash.Hex()
	}
	if o.Refund != nil && o.Refund.Sign() > 0 {
		out.RefundDisplay = utils.FormatWeiToDecimal(o.Refund)
	}
	if o.Err != nil {
		out.Error = o.Err.Error()
	}
	return out
}
