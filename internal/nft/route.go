package nft

import "strings"

type RouteAction string

const (
	RouteActionBuy  RouteAction = "Buy"
	RouteActionSell RouteAction = "Sell"
	RouteActionSwap RouteAction = "Swap"
)

type RouteAsset struct {
	ID          string    `json:"id,omitempty"`
	Address     string    `json:"address"`
	TokenID     string    `json:"tokenId,omitempty"`
	TokenType   TokenType `json:"tokenType,omitempty"`
	PriceInfo   PriceInfo `json:"priceInfo"`
	OrderSource string    `json:"orderSource,omitempty"`
}

// RoutingItem is one leg of a route returned by the router backend.
type RoutingItem struct {
	Action      RouteAction `json:"action"`
	Marketplace Marketplace `json:"marketplace"`
	AmountIn    string      `json:"amountIn,omitempty"`
	AssetIn     RouteAsset  `json:"assetIn"`
	AmountOut   string      `json:"amountOut,omitempty"`
	AssetOut    RouteAsset  `json:"assetOut"`
}

// Matches reports whether this leg delivers the given asset. A bag item id
// on both sides decides on its own; without one only Buy legs whose asset
// out has the same address and token id match.
func (r RoutingItem) Matches(a Asset) bool {
	if a.ID != "" && r.AssetOut.ID != "" {
		return r.AssetOut.ID == a.ID
	}
	if r.Action != RouteActionBuy {
		return false
	}
	return strings.EqualFold(r.AssetOut.Address, a.Address) && r.AssetOut.TokenID == a.TokenID
}
