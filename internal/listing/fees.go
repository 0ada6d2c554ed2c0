package listing

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/quantumauth-io/nft-checkout/internal/constants"
	"github.com/quantumauth-io/nft-checkout/internal/nft"
)

type Fees struct {
	MarketplaceBps int64    `json:"marketplaceBps"`
	CreatorBps     int64    `json:"creatorBps"`
	Marketplace    *big.Int `json:"marketplace"`
	Creator        *big.Int `json:"creator"`
	UserReceives   *big.Int `json:"userReceives"`
}

func MarketplaceFeeBps(m nft.Marketplace) int64 {
	switch m {
	case nft.MarketplaceOpenSea:
		return constants.OpenSeaFeeBps
	case nft.MarketplaceLooksRare:
		return constants.LooksRareFeeBps
	case nft.MarketplaceX2Y2:
		return constants.X2Y2FeeBps
	default:
		return 0
	}
}

// MaxMarketFeeBps is the fee shown when one price is listed on several
// venues at once.
func MaxMarketFeeBps(markets []nft.Marketplace) int64 {
	var max int64
	for _, m := range markets {
		if fee := MarketplaceFeeBps(m); fee > max {
			max = fee
		}
	}
	return max
}

// CreatorBps is the royalty a venue pays the creator. LooksRare pays a
// flat 0.5% regardless of the collection's setting.
func CreatorBps(row nft.ListingRow) int64 {
	if row.Marketplace == nft.MarketplaceLooksRare {
		return constants.LooksRareRoyaltyBps
	}
	if row.Asset.CreatorPercentage <= 0 {
		return 0
	}
	return decimal.NewFromFloat(row.Asset.CreatorPercentage).
		Mul(decimal.NewFromInt(10_000)).
		Round(0).
		IntPart()
}

// ListingFees splits row.Price into venue fee, creator royalty and what
// the seller receives.
func ListingFees(row nft.ListingRow) Fees {
	f := Fees{
		MarketplaceBps: MarketplaceFeeBps(row.Marketplace),
		CreatorBps:     CreatorBps(row),
		Marketplace:    new(big.Int),
		Creator:        new(big.Int),
		UserReceives:   new(big.Int),
	}
	if row.Price == nil || row.Price.Sign() <= 0 {
		return f
	}
	f.Marketplace = bpsOf(row.Price, f.MarketplaceBps)
	f.Creator = bpsOf(row.Price, f.CreatorBps)
	f.UserReceives = new(big.Int).Sub(row.Price, f.Marketplace)
	f.UserReceives.Sub(f.UserReceives, f.Creator)
	return f
}
