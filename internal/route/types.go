package route

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/quantumauth-io/nft-checkout/internal/nft"
)

// NFTTrade is one token the sender wants to buy.
type NFTTrade struct {
	Marketplace   nft.Marketplace `json:"marketplace"`
	Contract      string          `json:"contractAddress"`
	TokenID       string          `json:"tokenId"`
	TokenType     nft.TokenType   `json:"tokenType"`
	Quote         string          `json:"quote"`
	QuoteCurrency string          `json:"quoteCurrency"`
	Amount        int             `json:"amount"`
	ID            string          `json:"id,omitempty"`
}

// TokenTrade pays for the purchase with an ERC-20 instead of ETH.
type TokenTrade struct {
	Address  string `json:"address"`
	Amount   string `json:"amount"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol,omitempty"`
}

type Request struct {
	Sender     string      `json:"sender"`
	NFTTrades  []NFTTrade  `json:"nftTrades"`
	TokenTrade *TokenTrade `json:"tokenTrade,omitempty"`
}

// Response is the router's execution plan: the legs it could source and
// the single transaction that executes them.
type Response struct {
	Route []nft.RoutingItem
	To    common.Address
	Data  []byte
	Value *big.Int
}

// Empty reports whether the router found nothing to execute.
func (r *Response) Empty() bool {
	return r == nil || len(r.Route) == 0
}

type wirePriceInfo struct {
	BaseAsset string `json:"baseAsset"`
	BasePrice string `json:"basePrice"`
	ETHPrice  string `json:"ETHPrice"`
	USDPrice  string `json:"USDPrice,omitempty"`
}

type wireRouteAsset struct {
	ID          string        `json:"id,omitempty"`
	Address     string        `json:"address"`
	TokenID     string        `json:"tokenId,omitempty"`
	TokenType   nft.TokenType `json:"tokenType,omitempty"`
	PriceInfo   wirePriceInfo `json:"priceInfo"`
	OrderSource string        `json:"orderSource,omitempty"`
}

type wireRoutingItem struct {
	Action      nft.RouteAction `json:"action"`
	Marketplace nft.Marketplace `json:"marketplace"`
	AmountIn    string          `json:"amountIn,omitempty"`
	AssetIn     wireRouteAsset  `json:"assetIn"`
	AmountOut   string          `json:"amountOut,omitempty"`
	AssetOut    wireRouteAsset  `json:"assetOut"`
}

type wireResponse struct {
	Route       []wireRoutingItem `json:"route"`
	To          string            `json:"to"`
	Data        hexutil.Bytes     `json:"data"`
	Value       string            `json:"value"`
	ValueToSend string            `json:"valueToSend"`
}
