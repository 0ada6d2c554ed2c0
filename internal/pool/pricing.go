// Package pool prices items bought out of pooled listings (Sudoswap
// bonding curves and NFTX/NFT20 constant-product vaults) by their position
// within a purchase batch. All amounts are wei and all division floors.
package pool

import (
	"math/big"

	"github.com/quantumauth-io/nft-checkout/internal/nft"
)

var (
	wad = big.NewInt(1e18)

	// 0.5% Sudoswap protocol fee, 1e18-scaled.
	sudoswapProtocolFee = big.NewInt(5e15)

	nftxUnit     = big.NewInt(1e16)
	nft20ItemLen = new(big.Int).Mul(big.NewInt(100), wad)

	ammFeeNumerator   = big.NewInt(1000)
	ammFeeDenominator = big.NewInt(997)
)

// Price returns the price of the item bought at the 0-indexed position of
// a batch from the asset's pool. ok is false when the asset cannot be
// priced; callers treat that as a stale price.
func Price(asset nft.Asset, position int) (*big.Int, bool) {
	p := asset.Pool()
	if p == nil {
		return nil, false
	}
	switch p.Kind {
	case nft.PoolKindSudoswap:
		return SudoswapPrice(asset, position)
	case nft.PoolKindConstantProduct:
		return ConstantProductPrice(asset, position)
	default:
		return nil, false
	}
}

// SudoswapPrice walks the bonding curve position+1 steps from the spot
// price and adds the protocol and pool fees.
func SudoswapPrice(asset nft.Asset, position int) (*big.Int, bool) {
	p := asset.Pool()
	if p == nil || p.Kind != nft.PoolKindSudoswap || p.Validate() != nil || position < 0 {
		return nil, false
	}
	s := p.Sudoswap

	price := new(big.Int).Set(s.SpotPrice)
	for i := 0; i <= position; i++ {
		switch s.BondingCurve {
		case nft.BondingCurveLinear:
			price.Add(price, s.Delta)
		case nft.BondingCurveExponential:
			price.Mul(price, s.Delta)
			price.Quo(price, wad)
		}
	}

	protocolFee := new(big.Int).Mul(price, sudoswapProtocolFee)
	protocolFee.Quo(protocolFee, wad)
	poolFee := new(big.Int).Mul(price, s.Fee)
	poolFee.Quo(poolFee, wad)

	return price.Add(price, protocolFee).Add(price, poolFee), true
}

// ConstantProductPrice is the marginal cost of the (position+1)-th vault
// token under x*y=k with a 0.3% swap fee, plus a 1% slippage buffer.
func ConstantProductPrice(asset nft.Asset, position int) (*big.Int, bool) {
	p := asset.Pool()
	if p == nil || p.Kind != nft.PoolKindConstantProduct || p.Validate() != nil || position < 0 {
		return nil, false
	}
	c := p.ConstantProduct

	size := itemSize(asset.Marketplace, c)
	if size == nil {
		return nil, false
	}

	amountToBuy := new(big.Int).Mul(size, big.NewInt(int64(position+1)))
	marginalBuy := new(big.Int).Mul(size, big.NewInt(int64(position)))

	total, ok := amountIn(c, amountToBuy)
	if !ok {
		return nil, false
	}
	previous, ok := amountIn(c, marginalBuy)
	if !ok {
		return nil, false
	}

	price := new(big.Int).Sub(total, previous)
	price.Mul(price, big.NewInt(101))
	return price.Quo(price, big.NewInt(100)), true
}

// AvgGroupPrice is the integer mean of the first n positional prices. It is
// used when items of a cohort no longer have a reliable order.
func AvgGroupPrice(asset nft.Asset, n int) (*big.Int, bool) {
	if n <= 0 {
		return nil, false
	}
	sum := new(big.Int)
	for i := 0; i < n; i++ {
		price, ok := Price(asset, i)
		if !ok {
			return nil, false
		}
		sum.Add(sum, price)
	}
	return sum.Quo(sum, big.NewInt(int64(n))), true
}

// itemSize is the amount of vault token one NFT costs.
func itemSize(m nft.Marketplace, c *nft.ConstantProductPool) *big.Int {
	switch m {
	case nft.MarketplaceNFTX:
		fee := c.AmmFeePercent
		if fee < 0 {
			fee = 0
		}
		return new(big.Int).Mul(big.NewInt(100+fee), nftxUnit)
	case nft.MarketplaceNFT20:
		return new(big.Int).Set(nft20ItemLen)
	default:
		return nil
	}
}

// amountIn = floor(reserveETH*amount*1000 / ((reserveToken-amount)*997)).
func amountIn(c *nft.ConstantProductPool, amount *big.Int) (*big.Int, bool) {
	remaining := new(big.Int).Sub(c.ReserveToken, amount)
	if remaining.Sign() <= 0 {
		return nil, false
	}
	num := new(big.Int).Mul(c.ReserveETH, amount)
	num.Mul(num, ammFeeNumerator)
	den := remaining.Mul(remaining, ammFeeDenominator)
	return num.Quo(num, den), true
}
