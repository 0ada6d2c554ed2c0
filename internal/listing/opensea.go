package listing

import (
	"context"
	"math/big"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/quantumauth-io/nft-checkout/internal/constants"
	"github.com/quantumauth-io/nft-checkout/internal/ethwallet/wtypes"
	"github.com/quantumauth-io/nft-checkout/internal/nft"
)

// Seaport item types.
const (
	ItemTypeNative  uint8 = 0
	ItemTypeERC721  uint8 = 2
	ItemTypeERC1155 uint8 = 3
)

const seaportFullRestricted uint8 = 2

var seaportTypes = apitypes.Types{
	"EIP712Domain": domainType,
	"OrderComponents": {
		{Name: "offerer", Type: "address"},
		{Name: "zone", Type: "address"},
		{Name: "offer", Type: "OfferItem[]"},
		{Name: "consideration", Type: "ConsiderationItem[]"},
		{Name: "orderType", Type: "uint8"},
		{Name: "startTime", Type: "uint256"},
		{Name: "endTime", Type: "uint256"},
		{Name: "zoneHash", Type: "bytes32"},
		{Name: "salt", Type: "uint256"},
		{Name: "conduitKey", Type: "bytes32"},
		{Name: "counter", Type: "uint256"},
	},
	"OfferItem": {
		{Name: "itemType", Type: "uint8"},
		{Name: "token", Type: "address"},
		{Name: "identifierOrCriteria", Type: "uint256"},
		{Name: "startAmount", Type: "uint256"},
		{Name: "endAmount", Type: "uint256"},
	},
	"ConsiderationItem": {
		{Name: "itemType", Type: "uint8"},
		{Name: "token", Type: "address"},
		{Name: "identifierOrCriteria", Type: "uint256"},
		{Name: "startAmount", Type: "uint256"},
		{Name: "endAmount", Type: "uint256"},
		{Name: "recipient", Type: "address"},
	},
}

var domainType = []apitypes.Type{
	{Name: "name", Type: "string"},
	{Name: "version", Type: "string"},
	{Name: "chainId", Type: "uint256"},
	{Name: "verifyingContract", Type: "address"},
}

type OfferItem struct {
	ItemType             uint8
	Token                common.Address
	IdentifierOrCriteria *big.Int
	StartAmount          *big.Int
	EndAmount            *big.Int
}

type ConsiderationItem struct {
	OfferItem
	Recipient common.Address
}

// SeaportOrder is a Seaport 1.1 OrderComponents struct.
type SeaportOrder struct {
	Offerer       common.Address
	Zone          common.Address
	Offer         []OfferItem
	Consideration []ConsiderationItem
	OrderType     uint8
	StartTime     *big.Int
	EndTime       *big.Int
	ZoneHash      common.Hash
	Salt          *big.Int
	ConduitKey    common.Hash
	Counter       *big.Int
}

func (*SeaportOrder) Marketplace() nft.Marketplace { return nft.MarketplaceOpenSea }

// OpenSea lists through Seaport with the OpenSea conduit and zone.
type OpenSea struct {
	chainID  *big.Int
	counters CounterFetcher
	orders   OrderPoster
	now      func() time.Time
}

func NewOpenSea(chainID *big.Int, counters CounterFetcher, orders OrderPoster) *OpenSea {
	return &OpenSea{chainID: chainID, counters: counters, orders: orders, now: time.Now}
}

func (*OpenSea) Name() nft.Marketplace { return nft.MarketplaceOpenSea }

func (m *OpenSea) BuildOrder(ctx context.Context, row nft.ListingRow, signer common.Address) (Order, error) {
	t, err := termsOf(row)
	if err != nil {
		return nil, err
	}

	counter := new(big.Int)
	if m.counters != nil {
		if counter, err = m.counters.Counter(ctx, signer); err != nil {
			return nil, errors.Wrap(err, "seaport counter")
		}
	}

	itemType := ItemTypeERC721
	if row.Asset.TokenType == nft.TokenTypeERC1155 {
		itemType = ItemTypeERC1155
	}

	return &SeaportOrder{
		Offerer: signer,
		Zone:    common.HexToAddress(constants.OpenSeaZoneAddr),
		Offer: []OfferItem{{
			ItemType:             itemType,
			Token:                t.collection,
			IdentifierOrCriteria: t.tokenID,
			StartAmount:          t.amount,
			EndAmount:            t.amount,
		}},
		Consideration: seaportConsideration(row, signer),
		OrderType:     seaportFullRestricted,
		StartTime:     big.NewInt(m.now().Unix()),
		EndTime:       t.expiration,
		Salt:          randomSalt(),
		ConduitKey:    common.HexToHash(constants.OpenSeaConduitKey),
		Counter:       counter,
	}, nil
}

// seaportConsideration pays the seller the price minus the OpenSea fee and
// the creator royalty. Without a creator address the royalty stays with
// the seller.
func seaportConsideration(row nft.ListingRow, seller common.Address) []ConsiderationItem {
	fees := ListingFees(row)
	sellerGets := new(big.Int).Set(fees.UserReceives)

	native := func(amount *big.Int, to common.Address) ConsiderationItem {
		return ConsiderationItem{
			OfferItem: OfferItem{
				ItemType:             ItemTypeNative,
				IdentifierOrCriteria: new(big.Int),
				StartAmount:          amount,
				EndAmount:            amount,
			},
			Recipient: to,
		}
	}

	var royalty *ConsiderationItem
	if fees.Creator.Sign() > 0 {
		if common.IsHexAddress(row.Asset.CreatorAddress) {
			item := native(fees.Creator, common.HexToAddress(row.Asset.CreatorAddress))
			royalty = &item
		} else {
			sellerGets.Add(sellerGets, fees.Creator)
		}
	}

	out := []ConsiderationItem{
		native(sellerGets, seller),
		native(fees.Marketplace, common.HexToAddress(constants.OpenSeaFeeRecipient)),
	}
	if royalty != nil {
		out = append(out, *royalty)
	}
	return out
}

func (m *OpenSea) TypedData(o *SeaportOrder) apitypes.TypedData {
	offer := make([]interface{}, 0, len(o.Offer))
	for _, it := range o.Offer {
		offer = append(offer, it.message())
	}
	consideration := make([]interface{}, 0, len(o.Consideration))
	for _, it := range o.Consideration {
		msg := it.OfferItem.message()
		msg["recipient"] = it.Recipient.Hex()
		consideration = append(consideration, msg)
	}

	return apitypes.TypedData{
		Types:       seaportTypes,
		PrimaryType: "OrderComponents",
		Domain: apitypes.TypedDataDomain{
			Name:              constants.SeaportName,
			Version:           constants.SeaportVersion,
			ChainId:           (*math.HexOrDecimal256)(m.chainID),
			VerifyingContract: constants.SeaportAddr,
		},
		Message: apitypes.TypedDataMessage{
			"offerer":       o.Offerer.Hex(),
			"zone":          o.Zone.Hex(),
			"offer":         offer,
			"consideration": consideration,
			"orderType":     new(big.Int).SetUint64(uint64(o.OrderType)),
			"startTime":     o.StartTime,
			"endTime":       o.EndTime,
			"zoneHash":      o.ZoneHash.Bytes(),
			"salt":          o.Salt,
			"conduitKey":    o.ConduitKey.Bytes(),
			"counter":       o.Counter,
		},
	}
}

func (it OfferItem) message() map[string]interface{} {
	return map[string]interface{}{
		"itemType":             new(big.Int).SetUint64(uint64(it.ItemType)),
		"token":                it.Token.Hex(),
		"identifierOrCriteria": it.IdentifierOrCriteria,
		"startAmount":          it.StartAmount,
		"endAmount":            it.EndAmount,
	}
}

func (m *OpenSea) Sign(ctx context.Context, order Order, w wtypes.Wallet) (*SignedOrder, error) {
	o, ok := order.(*SeaportOrder)
	if !ok {
		return nil, ErrWrongOrder
	}
	td := m.TypedData(o)
	digest, err := wtypes.TypedDataDigest(td)
	if err != nil {
		return nil, errors.Wrap(err, "seaport digest")
	}
	sig, err := wtypes.SignTypedData(ctx, w, td)
	if err != nil {
		return nil, err
	}

	return &SignedOrder{
		Marketplace: nft.MarketplaceOpenSea,
		Hash:        common.BytesToHash(digest),
		Signature:   sig,
		Body: map[string]any{
			"parameters": seaportParameters(o),
			"signature":  hexutil.Encode(sig),
		},
	}, nil
}

func (m *OpenSea) Submit(ctx context.Context, signed *SignedOrder) (string, error) {
	return submitVia(ctx, m.orders, nft.MarketplaceOpenSea, signed)
}

func seaportParameters(o *SeaportOrder) map[string]any {
	item := func(it OfferItem) map[string]any {
		return map[string]any{
			"itemType":             it.ItemType,
			"token":                it.Token.Hex(),
			"identifierOrCriteria": it.IdentifierOrCriteria.String(),
			"startAmount":          it.StartAmount.String(),
			"endAmount":            it.EndAmount.String(),
		}
	}
	offer := make([]map[string]any, 0, len(o.Offer))
	for _, it := range o.Offer {
		offer = append(offer, item(it))
	}
	consideration := make([]map[string]any, 0, len(o.Consideration))
	for _, it := range o.Consideration {
		c := item(it.OfferItem)
		c["recipient"] = it.Recipient.Hex()
		consideration = append(consideration, c)
	}
	return map[string]any{
		"offerer":                         o.Offerer.Hex(),
		"zone":                            o.Zone.Hex(),
		"offer":                           offer,
		"consideration":                   consideration,
		"orderType":                       o.OrderType,
		"startTime":                       o.StartTime.String(),
		"endTime":                         o.EndTime.String(),
		"zoneHash":                        o.ZoneHash.Hex(),
		"salt":                            o.Salt.String(),
		"conduitKey":                      o.ConduitKey.Hex(),
		"counter":                         o.Counter.String(),
		"totalOriginalConsiderationItems": len(o.Consideration),
	}
}
