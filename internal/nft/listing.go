package nft

import "math/big"

type ListingStatus string

const (
	ListingDefined  ListingStatus = "DEFINED"
	ListingSigning  ListingStatus = "SIGNING"
	ListingPending  ListingStatus = "PENDING"
	ListingApproved ListingStatus = "APPROVED"
	ListingRejected ListingStatus = "REJECTED"
	ListingFailed   ListingStatus = "FAILED"
	ListingContinue ListingStatus = "CONTINUE"
	ListingPaused   ListingStatus = "PAUSED"
)

// ListingRow is a sell intent for one asset on one marketplace.
// OrderID carries a previous order of the same asset so the marketplace
// treats the listing as a price change.
type ListingRow struct {
	Asset       Asset         `json:"asset"`
	Marketplace Marketplace   `json:"marketplace"`
	Price       *big.Int      `json:"price"`
	Expiration  int64         `json:"expiration"`
	Status      ListingStatus `json:"status"`
	OrderID     string        `json:"orderId,omitempty"`
}

// CollectionRow tracks the operator approval a marketplace needs before
// any listing of the collection can be filled.
type CollectionRow struct {
	Address     string        `json:"address"`
	Name        string        `json:"name,omitempty"`
	Marketplace Marketplace   `json:"marketplace"`
	TokenType   TokenType     `json:"tokenType"`
	Status      ListingStatus `json:"status"`
}
