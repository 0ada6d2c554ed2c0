package route

import (
	"math/big"

	"github.com/quantumauth-io/nft-checkout/internal/nft"
	"github.com/quantumauth-io/nft-checkout/internal/pool"
	"github.com/quantumauth-io/nft-checkout/internal/utils"
)

// Result is the outcome of reconciling the bag with a route.
// HasPriceAdjustment is true when at least one item changed price in a way
// the user has to confirm.
type Result struct {
	HasPriceAdjustment bool
	Items              []nft.BagItem
}

// Compare reconciles items against the legs of an authoritative route.
//
// A nil route means none was supplied; items are then left available.
// With a route, an item no Buy leg delivers is marked unavailable. A quoted
// price that renders the same as the held one is accepted silently. A
// visible change on a pooled item is also accepted when it equals the
// cohort's average pool price, since that difference comes from buying
// several items out of the same pool. Any other change is put on
// UpdatedPriceInfo for review.
//
// The returned items are copies; the input is not modified.
func Compare(items []nft.BagItem, route []nft.RoutingItem) Result {
	routed := route != nil

	cohorts := map[string]int{}
	for _, it := range items {
		if it.Asset.Marketplace.IsPooled() {
			cohorts[pool.CohortKey(it.Asset)]++
		}
	}

	res := Result{Items: make([]nft.BagItem, len(items))}
	for i, it := range items {
		it = it.Clone()

		leg, found := findLeg(route, it.Asset)
		if !found {
			if routed {
				it.IsUnavailable = true
			}
			res.Items[i] = it
			continue
		}
		it.IsUnavailable = false

		quoted := leg.AssetOut.PriceInfo.Clone()
		switch {
		case samePrice(it.CurrentPrice(), quoted):
			accept(&it, quoted, leg.AssetOut.OrderSource)
		case it.Asset.Marketplace.IsPooled() && isPoolAverage(it.Asset, cohorts[pool.CohortKey(it.Asset)], quoted):
			accept(&it, quoted, leg.AssetOut.OrderSource)
		default:
			it.UpdatedPriceInfo = &quoted
			it.OrderSource = leg.AssetOut.OrderSource
			res.HasPriceAdjustment = true
		}
		res.Items[i] = it
	}
	return res
}

func findLeg(route []nft.RoutingItem, a nft.Asset) (nft.RoutingItem, bool) {
	for _, leg := range route {
		if leg.Matches(a) {
			return leg, true
		}
	}
	return nft.RoutingItem{}, false
}

func accept(it *nft.BagItem, quoted nft.PriceInfo, orderSource string) {
	if quoted.Price() != nil {
		it.Asset.PriceInfo = quoted
	}
	it.UpdatedPriceInfo = nil
	it.OrderSource = orderSource
}

// samePrice treats two prices as equal when they are identical or when
// their difference does not survive formatting.
func samePrice(held, quoted nft.PriceInfo) bool {
	a, b := held.Price(), quoted.Price()
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Cmp(b) == 0 {
		return true
	}
	return utils.FormatWeiToDecimal(ethAmount(held)) == utils.FormatWeiToDecimal(ethAmount(quoted))
}

func isPoolAverage(a nft.Asset, cohortSize int, quoted nft.PriceInfo) bool {
	avg, ok := pool.AvgGroupPrice(a, cohortSize)
	if !ok {
		return false
	}
	return utils.FormatWeiToDecimal(avg) == utils.FormatWeiToDecimal(ethAmount(quoted))
}

func ethAmount(p nft.PriceInfo) *big.Int {
	if p.ETHPrice != nil {
		return p.ETHPrice
	}
	return p.BasePrice
}
