package pool

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quantumauth-io/nft-checkout/internal/nft"
)

func eth(milli int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(milli), big.NewInt(1e15))
}

func mustBig(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok)
	return v
}

func sudoswapAsset(curve nft.BondingCurve, spot, delta, fee *big.Int) nft.Asset {
	return nft.Asset{
		Address:     "0x1111111111111111111111111111111111111111",
		TokenID:     "1",
		Marketplace: nft.MarketplaceSudoswap,
		SellOrder: &nft.SellOrder{
			Marketplace: nft.MarketplaceSudoswap,
			Pool: &nft.PoolParameters{
				Kind: nft.PoolKindSudoswap,
				Sudoswap: &nft.SudoswapPool{
					PoolAddress:  "0xpool",
					BondingCurve: curve,
					Delta:        delta,
					Fee:          fee,
					SpotPrice:    spot,
				},
			},
		},
	}
}

func vaultAsset(m nft.Marketplace, reserveETH, reserveToken *big.Int) nft.Asset {
	return nft.Asset{
		Address:     "0x2222222222222222222222222222222222222222",
		TokenID:     "7",
		Marketplace: m,
		SellOrder: &nft.SellOrder{
			Marketplace: m,
			Pool: &nft.PoolParameters{
				Kind: nft.PoolKindConstantProduct,
				ConstantProduct: &nft.ConstantProductPool{
					ReserveETH:    reserveETH,
					ReserveToken:  reserveToken,
					AmmFeePercent: 10,
				},
			},
		},
	}
}

func TestSudoswapPrice_LinearTwoItemBatch(t *testing.T) {
	asset := sudoswapAsset(nft.BondingCurveLinear, eth(1000), eth(50), big.NewInt(0))

	first, ok := SudoswapPrice(asset, 0)
	require.True(t, ok)
	second, ok := SudoswapPrice(asset, 1)
	require.True(t, ok)

	// 1.05 and 1.10 ETH plus the 0.5% protocol fee
	require.Equal(t, mustBig(t, "1055250000000000000"), first)
	require.Equal(t, mustBig(t, "1105500000000000000"), second)
}

func TestSudoswapPrice_LinearStepIsScaledDelta(t *testing.T) {
	delta := eth(50)
	fee := eth(10) // 1%
	asset := sudoswapAsset(nft.BondingCurveLinear, eth(1000), delta, fee)

	// delta * (1 + 0.5% + 1%)
	want := mustBig(t, "50750000000000000")
	for k := 0; k < 5; k++ {
		a, ok := SudoswapPrice(asset, k)
		require.True(t, ok)
		b, ok := SudoswapPrice(asset, k+1)
		require.True(t, ok)
		require.Equal(t, want, new(big.Int).Sub(b, a), "position %d", k)
	}
}

func TestSudoswapPrice_Exponential(t *testing.T) {
	asset := sudoswapAsset(nft.BondingCurveExponential, eth(1000), eth(1100), big.NewInt(0))

	first, ok := SudoswapPrice(asset, 0)
	require.True(t, ok)
	require.Equal(t, mustBig(t, "1105500000000000000"), first)

	second, ok := SudoswapPrice(asset, 1)
	require.True(t, ok)
	require.Equal(t, mustBig(t, "1216050000000000000"), second)
}

func TestSudoswapPrice_MissingParameters(t *testing.T) {
	asset := sudoswapAsset(nft.BondingCurveLinear, eth(1000), nil, big.NewInt(0))
	_, ok := SudoswapPrice(asset, 0)
	require.False(t, ok)

	_, ok = SudoswapPrice(nft.Asset{Marketplace: nft.MarketplaceSudoswap}, 0)
	require.False(t, ok)
}

func TestConstantProductPrice_NFT20(t *testing.T) {
	asset := vaultAsset(nft.MarketplaceNFT20, eth(10_000), eth(1_000_000))

	first, ok := ConstantProductPrice(asset, 0)
	require.True(t, ok)
	require.Equal(t, mustBig(t, "1125599019280062408"), first)

	second, ok := ConstantProductPrice(asset, 1)
	require.True(t, ok)
	require.Equal(t, mustBig(t, "1406998774100078011"), second)
}

func TestConstantProductPrice_NFTX(t *testing.T) {
	asset := vaultAsset(nft.MarketplaceNFTX, eth(5_000), eth(20_000))

	want := []string{"294799743144778249", "331235666454807022", "374871502754242678"}
	for i, w := range want {
		got, ok := ConstantProductPrice(asset, i)
		require.True(t, ok)
		require.Equal(t, mustBig(t, w), got, "position %d", i)
	}
}

func TestConstantProductPrice_MonotonicInPosition(t *testing.T) {
	asset := vaultAsset(nft.MarketplaceNFTX, eth(3_000), eth(40_000))

	prev := big.NewInt(0)
	for i := 0; i < 20; i++ {
		got, ok := ConstantProductPrice(asset, i)
		require.True(t, ok)
		require.True(t, got.Cmp(prev) >= 0, "position %d priced below position %d", i, i-1)
		prev = got
	}
}

func TestConstantProductPrice_PoolExhausted(t *testing.T) {
	asset := vaultAsset(nft.MarketplaceNFT20, eth(10_000), eth(150_000))

	_, ok := ConstantProductPrice(asset, 0)
	require.True(t, ok)
	_, ok = ConstantProductPrice(asset, 1)
	require.False(t, ok)
}

func TestAvgGroupPrice_IsTruncatedMean(t *testing.T) {
	assets := []nft.Asset{
		sudoswapAsset(nft.BondingCurveExponential, eth(777), eth(1033), eth(3)),
		vaultAsset(nft.MarketplaceNFTX, eth(5_000), eth(20_000)),
	}
	for _, asset := range assets {
		for n := 1; n <= 4; n++ {
			sum := new(big.Int)
			for i := 0; i < n; i++ {
				p, ok := Price(asset, i)
				require.True(t, ok)
				sum.Add(sum, p)
			}
			want := sum.Quo(sum, big.NewInt(int64(n)))

			got, ok := AvgGroupPrice(asset, n)
			require.True(t, ok)
			require.Equal(t, want, got, "%s n=%d", asset.Marketplace, n)
		}
	}

	_, ok := AvgGroupPrice(assets[0], 0)
	require.False(t, ok)
}
