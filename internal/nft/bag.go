package nft

type BagItemStatus string

const (
	BagItemAddedToBag           BagItemStatus = "ADDED_TO_BAG"
	BagItemReviewed             BagItemStatus = "REVIEWED"
	BagItemReviewingPriceChange BagItemStatus = "REVIEWING_PRICE_CHANGE"
	BagItemUnavailable          BagItemStatus = "UNAVAILABLE"
)

type BagStatus string

const (
	BagStatusAddingToBag           BagStatus = "ADDING_TO_BAG"
	BagStatusFetchingRoute         BagStatus = "FETCHING_ROUTE"
	BagStatusInReview              BagStatus = "IN_REVIEW"
	BagStatusWarning               BagStatus = "WARNING"
	BagStatusConfirmReview         BagStatus = "CONFIRM_REVIEW"
	BagStatusConfirmingInWallet    BagStatus = "CONFIRMING_IN_WALLET"
	BagStatusProcessingTransaction BagStatus = "PROCESSING_TRANSACTION"
)

// BagItem is an asset the user intends to buy. UpdatedPriceInfo is set once
// a route quoted a visibly different price.
type BagItem struct {
	Asset            Asset         `json:"asset"`
	Status           BagItemStatus `json:"status"`
	UpdatedPriceInfo *PriceInfo    `json:"updatedPriceInfo,omitempty"`
	IsUnavailable    bool          `json:"isUnavailable,omitempty"`
	OrderSource      string        `json:"orderSource,omitempty"`
}

func (b BagItem) Clone() BagItem {
	out := b
	out.Asset = b.Asset.Clone()
	if b.UpdatedPriceInfo != nil {
		p := b.UpdatedPriceInfo.Clone()
		out.UpdatedPriceInfo = &p
	}
	return out
}

// CurrentPrice is the price the user last agreed to see.
func (b BagItem) CurrentPrice() PriceInfo {
	if b.UpdatedPriceInfo != nil {
		return *b.UpdatedPriceInfo
	}
	return b.Asset.PriceInfo
}

func CloneItems(items []BagItem) []BagItem {
	if items == nil {
		return nil
	}
	out := make([]BagItem, len(items))
	for i := range items {
		out[i] = items[i].Clone()
	}
	return out
}

func Assets(items []BagItem) []Asset {
	out := make([]Asset, 0, len(items))
	for _, it := range items {
		out = append(out, it.Asset)
	}
	return out
}
