package listing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quantumauth-io/nft-checkout/internal/nft"
)

func TestListingFees(t *testing.T) {
	row := testRow(nft.MarketplaceOpenSea, "1")
	row.Asset.CreatorPercentage = 0.05

	f := ListingFees(row)
	require.Equal(t, int64(250), f.MarketplaceBps)
	require.Equal(t, int64(500), f.CreatorBps)
	require.Equal(t, eth(25), f.Marketplace)
	require.Equal(t, eth(50), f.Creator)
	require.Equal(t, eth(925), f.UserReceives)
}

func TestListingFees_LooksRareFlatRoyalty(t *testing.T) {
	row := testRow(nft.MarketplaceLooksRare, "1")
	row.Asset.CreatorPercentage = 0.1

	f := ListingFees(row)
	require.Equal(t, int64(50), f.CreatorBps)
	require.Equal(t, eth(980), f.UserReceives)
}

func TestListingFees_NoPrice(t *testing.T) {
	row := testRow(nft.MarketplaceX2Y2, "1")
	row.Price = nil
	f := ListingFees(row)
	require.Equal(t, 0, f.UserReceives.Sign())
}

func TestMaxMarketFeeBps(t *testing.T) {
	require.Equal(t, int64(250), MaxMarketFeeBps([]nft.Marketplace{nft.MarketplaceX2Y2, nft.MarketplaceOpenSea}))
	require.Equal(t, int64(0), MaxMarketFeeBps(nil))
}
