package nft

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoutingItem_Matches(t *testing.T) {
	a := Asset{ID: "bag-1", Address: "0x00000000000000000000000000000000000000Aa", TokenID: "7"}

	cases := []struct {
		name string
		leg  RoutingItem
		want bool
	}{
		{
			name: "same id",
			leg:  RoutingItem{Action: RouteActionBuy, AssetOut: RouteAsset{ID: "bag-1", Address: "0x00000000000000000000000000000000000000bb", TokenID: "1"}},
			want: true,
		},
		{
			name: "other id wins over same address",
			leg:  RoutingItem{Action: RouteActionBuy, AssetOut: RouteAsset{ID: "bag-2", Address: a.Address, TokenID: a.TokenID}},
			want: false,
		},
		{
			name: "same id on a swap leg",
			leg:  RoutingItem{Action: RouteActionSwap, AssetOut: RouteAsset{ID: "bag-1"}},
			want: true,
		},
		{
			name: "address on a buy leg",
			leg:  RoutingItem{Action: RouteActionBuy, AssetOut: RouteAsset{Address: "0x00000000000000000000000000000000000000AA", TokenID: "7"}},
			want: true,
		},
		{
			name: "address on a sell leg",
			leg:  RoutingItem{Action: RouteActionSell, AssetOut: RouteAsset{Address: a.Address, TokenID: "7"}},
			want: false,
		},
		{
			name: "other token",
			leg:  RoutingItem{Action: RouteActionBuy, AssetOut: RouteAsset{Address: a.Address, TokenID: "8"}},
			want: false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.leg.Matches(a))
		})
	}
}
