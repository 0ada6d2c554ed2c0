package bag

import (
	"github.com/quantumauth-io/nft-checkout/internal/nft"
	"github.com/quantumauth-io/nft-checkout/internal/pool"
)

// Recalculate reprices pooled items for the current bag composition. Item k
// of a cohort is priced as if items 0..k-1 were already bought; every
// cohort member takes a position, in bag order. Items that carry an
// UpdatedPriceInfo get the average over the whole cohort instead, since
// their order no longer matches the route's. That is the same average
// route.Compare accepts without review.
//
// The returned slice is new; items are copied before being repriced.
// Items that cannot be priced keep their previous price.
func Recalculate(items []nft.BagItem) []nft.BagItem {
	if !needsRecalculation(items) {
		return items
	}

	cohorts := map[string]int{}
	for _, it := range items {
		if it.Asset.Marketplace.IsPooled() {
			cohorts[pool.CohortKey(it.Asset)]++
		}
	}

	positions := map[string]int{}
	out := make([]nft.BagItem, len(items))
	for i, it := range items {
		if !it.Asset.Marketplace.IsPooled() {
			out[i] = it
			continue
		}
		it = it.Clone()
		key := pool.CohortKey(it.Asset)
		pos := positions[key]
		positions[key] = pos + 1

		if it.UpdatedPriceInfo != nil {
			if price, ok := pool.AvgGroupPrice(it.Asset, cohorts[key]); ok {
				it.UpdatedPriceInfo.ETHPrice = price
				it.UpdatedPriceInfo.BasePrice = clone(price)
			}
			out[i] = it
			continue
		}

		if price, ok := pool.Price(it.Asset, pos); ok {
			it.Asset.PriceInfo.ETHPrice = price
			it.Asset.PriceInfo.BasePrice = clone(price)
		}
		out[i] = it
	}
	return out
}

func needsRecalculation(items []nft.BagItem) bool {
	hasPooled := false
	allReviewed := true
	for _, it := range items {
		if it.Asset.Marketplace.IsPooled() {
			hasPooled = true
		}
		if it.Status != nft.BagItemReviewed && it.Status != nft.BagItemReviewingPriceChange {
			allReviewed = false
		}
	}
	return hasPooled && !allReviewed
}
