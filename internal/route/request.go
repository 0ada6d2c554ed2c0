package route

import (
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"

	"github.com/quantumauth-io/nft-checkout/internal/nft"
)

var ErrMissingSender = errors.New("route: sender address is required")

// BuildRequest turns the bag into a router request. Each item is quoted at
// the price the user last saw for it.
func BuildRequest(sender string, items []nft.BagItem, tokenTrade *TokenTrade) (Request, error) {
	if !common.IsHexAddress(sender) {
		return Request{}, ErrMissingSender
	}

	trades := make([]NFTTrade, 0, len(items))
	for _, it := range items {
		price := it.CurrentPrice()
		quote := price.Price()
		if quote == nil {
			return Request{}, errors.Newf("route: %s has no price", it.Asset.Key())
		}
		currency := price.BaseAsset
		if currency == "" {
			currency = "ETH"
		}
		trades = append(trades, NFTTrade{
			Marketplace:   it.Asset.Marketplace,
			Contract:      it.Asset.Address,
			TokenID:       it.Asset.TokenID,
			TokenType:     it.Asset.TokenType,
			Quote:         quote.String(),
			QuoteCurrency: currency,
			Amount:        1,
			ID:            it.Asset.ID,
		})
	}

	return Request{
		Sender:     common.HexToAddress(sender).Hex(),
		NFTTrades:  trades,
		TokenTrade: tokenTrade,
	}, nil
}
