package nft

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

type Marketplace string

const (
	MarketplaceOpenSea     Marketplace = "opensea"
	MarketplaceLooksRare   Marketplace = "looksrare"
	MarketplaceX2Y2        Marketplace = "x2y2"
	MarketplaceSudoswap    Marketplace = "sudoswap"
	MarketplaceNFTX        Marketplace = "nftx"
	MarketplaceNFT20       Marketplace = "nft20"
	MarketplaceCryptoPunks Marketplace = "cryptopunks"
	MarketplaceFoundation  Marketplace = "foundation"
)

// IsPooled reports whether listings on m are priced by a pool curve
// instead of a fixed seller price.
func (m Marketplace) IsPooled() bool {
	switch m {
	case MarketplaceSudoswap, MarketplaceNFTX, MarketplaceNFT20:
		return true
	default:
		return false
	}
}

func ParseMarketplace(raw string) (Marketplace, error) {
	m := Marketplace(strings.ToLower(strings.TrimSpace(raw)))
	switch m {
	case MarketplaceOpenSea, MarketplaceLooksRare, MarketplaceX2Y2, MarketplaceSudoswap,
		MarketplaceNFTX, MarketplaceNFT20, MarketplaceCryptoPunks, MarketplaceFoundation:
		return m, nil
	}
	return "", fmt.Errorf("nft: unknown marketplace %q", raw)
}

type TokenType string

const (
	TokenTypeERC721  TokenType = "ERC721"
	TokenTypeERC1155 TokenType = "ERC1155"
	TokenTypeDust    TokenType = "Dust"
)

// PriceInfo amounts are in wei.
type PriceInfo struct {
	BaseAsset string   `json:"baseAsset"`
	BasePrice *big.Int `json:"basePrice"`
	ETHPrice  *big.Int `json:"ETHPrice"`
	USDPrice  string   `json:"USDPrice,omitempty"`
}

func (p PriceInfo) Clone() PriceInfo {
	out := p
	out.BasePrice = cloneInt(p.BasePrice)
	out.ETHPrice = cloneInt(p.ETHPrice)
	return out
}

// Price returns the amount used when comparing or quoting, preferring the
// base price.
func (p PriceInfo) Price() *big.Int {
	if p.BasePrice != nil {
		return p.BasePrice
	}
	return p.ETHPrice
}

type CollectionInfo struct {
	Name       string `json:"name,omitempty"`
	IsVerified bool   `json:"isVerified,omitempty"`
}

type SellOrder struct {
	Marketplace Marketplace     `json:"marketplace"`
	Pool        *PoolParameters `json:"pool,omitempty"`
}

type Asset struct {
	ID                string         `json:"id,omitempty"`
	Address           string         `json:"address"`
	TokenID           string         `json:"tokenId"`
	TokenType         TokenType      `json:"tokenType"`
	Name              string         `json:"name,omitempty"`
	Marketplace       Marketplace    `json:"marketplace"`
	PriceInfo         PriceInfo      `json:"priceInfo"`
	SellOrder         *SellOrder     `json:"sellOrder,omitempty"`
	Collection        CollectionInfo `json:"collection"`
	CreatorPercentage float64        `json:"creatorPercentage,omitempty"`
	CreatorAddress    string         `json:"creatorAddress,omitempty"`
}

// Key identifies the token independently of the listing it came from.
func (a Asset) Key() string {
	return strings.ToLower(a.Address) + ":" + a.TokenID
}

func (a Asset) Pool() *PoolParameters {
	if a.SellOrder == nil {
		return nil
	}
	return a.SellOrder.Pool
}

func (a Asset) TokenIDBig() (*big.Int, bool) {
	return new(big.Int).SetString(strings.TrimSpace(a.TokenID), 10)
}

func (a Asset) Clone() Asset {
	out := a
	out.PriceInfo = a.PriceInfo.Clone()
	if a.SellOrder != nil {
		so := *a.SellOrder
		if so.Pool != nil {
			p := so.Pool.Clone()
			so.Pool = &p
		}
		out.SellOrder = &so
	}
	return out
}

// NormalizeAddress returns the checksummed form of addr.
func NormalizeAddress(addr string) (string, error) {
	a := strings.TrimSpace(addr)
	if a == "" {
		return "", fmt.Errorf("empty address")
	}
	if !strings.HasPrefix(a, "0x") && !strings.HasPrefix(a, "0X") {
		a = "0x" + a
	}
	a = strings.ToLower(a)
	if !common.IsHexAddress(a) {
		return "", fmt.Errorf("invalid address: %q", addr)
	}
	return common.HexToAddress(a).Hex(), nil
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
