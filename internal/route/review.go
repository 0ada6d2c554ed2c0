package route

import "github.com/quantumauth-io/nft-checkout/internal/nft"

type Diff string

const (
	DiffUnchanged    Diff = "unchanged"
	DiffPriceChanged Diff = "price_changed"
	DiffUnavailable  Diff = "unavailable"
)

func Classify(it nft.BagItem) Diff {
	switch {
	case it.IsUnavailable:
		return DiffUnavailable
	case it.UpdatedPriceInfo != nil:
		return DiffPriceChanged
	default:
		return DiffUnchanged
	}
}

// Review splits reconciled items into the groups shown on the review
// screen and assigns each item its bag status.
type Review struct {
	Unavailable  []nft.BagItem
	PriceChanged []nft.BagItem
	Unchanged    []nft.BagItem
}

func NewReview(items []nft.BagItem) Review {
	var r Review
	for _, it := range items {
		switch Classify(it) {
		case DiffUnavailable:
			it.Status = nft.BagItemUnavailable
			r.Unavailable = append(r.Unavailable, it)
		case DiffPriceChanged:
			it.Status = nft.BagItemReviewingPriceChange
			r.PriceChanged = append(r.PriceChanged, it)
		default:
			it.Status = nft.BagItemReviewed
			r.Unchanged = append(r.Unchanged, it)
		}
	}
	return r
}

// Ordered lists unavailable items first, then price changes, then the
// rest.
func (r Review) Ordered() []nft.BagItem {
	out := make([]nft.BagItem, 0, len(r.Unavailable)+len(r.PriceChanged)+len(r.Unchanged))
	out = append(out, r.Unavailable...)
	out = append(out, r.PriceChanged...)
	return append(out, r.Unchanged...)
}

// Purchasable lists the items the route will buy.
func (r Review) Purchasable() []nft.BagItem {
	out := make([]nft.BagItem, 0, len(r.PriceChanged)+len(r.Unchanged))
	out = append(out, r.PriceChanged...)
	return append(out, r.Unchanged...)
}

func (r Review) Len() int {
	return len(r.Unavailable) + len(r.PriceChanged) + len(r.Unchanged)
}
