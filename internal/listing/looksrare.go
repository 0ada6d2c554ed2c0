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

var looksRareTypes = apitypes.Types{
	"EIP712Domain": domainType,
	"MakerOrder": {
		{Name: "isOrderAsk", Type: "bool"},
		{Name: "signer", Type: "address"},
		{Name: "collection", Type: "address"},
		{Name: "price", Type: "uint256"},
		{Name: "tokenId", Type: "uint256"},
		{Name: "amount", Type: "uint256"},
		{Name: "strategy", Type: "address"},
		{Name: "currency", Type: "address"},
		{Name: "nonce", Type: "uint256"},
		{Name: "startTime", Type: "uint256"},
		{Name: "endTime", Type: "uint256"},
		{Name: "minPercentageToAsk", Type: "uint256"},
		{Name: "params", Type: "bytes"},
	},
}

// MakerOrder is a LooksRare v1 maker ask.
type MakerOrder struct {
	IsOrderAsk         bool
	Signer             common.Address
	Collection         common.Address
	Price              *big.Int
	TokenID            *big.Int
	Amount             *big.Int
	Strategy           common.Address
	Currency           common.Address
	Nonce              *big.Int
	StartTime          *big.Int
	EndTime            *big.Int
	MinPercentageToAsk *big.Int
	Params             []byte
}

func (*MakerOrder) Marketplace() nft.Marketplace { return nft.MarketplaceLooksRare }

type LooksRare struct {
	chainID *big.Int
	nonces  NonceFetcher
	orders  OrderPoster
	now     func() time.Time
}

func NewLooksRare(chainID *big.Int, nonces NonceFetcher, orders OrderPoster) *LooksRare {
	return &LooksRare{chainID: chainID, nonces: nonces, orders: orders, now: time.Now}
}

func (*LooksRare) Name() nft.Marketplace { return nft.MarketplaceLooksRare }

// BuildOrder prices the ask in WETH with the fixed-price strategy.
func (m *LooksRare) BuildOrder(ctx context.Context, row nft.ListingRow, signer common.Address) (Order, error) {
	t, err := termsOf(row)
	if err != nil {
		return nil, err
	}
	if m.nonces == nil {
		return nil, errors.New("listing: looksrare needs a nonce source")
	}
	nonce, err := m.nonces.Nonce(ctx, signer)
	if err != nil {
		return nil, errors.Wrap(err, "looksrare nonce")
	}

	return &MakerOrder{
		IsOrderAsk:         true,
		Signer:             signer,
		Collection:         t.collection,
		Price:              t.price,
		TokenID:            t.tokenID,
		Amount:             t.amount,
		Strategy:           common.HexToAddress(constants.LooksRareStrategyFixed),
		Currency:           common.HexToAddress(constants.WETHAddr),
		Nonce:              nonce,
		StartTime:          big.NewInt(m.now().Unix()),
		EndTime:            t.expiration,
		MinPercentageToAsk: big.NewInt(constants.LooksRareMinPercentToAsk),
		Params:             []byte{},
	}, nil
}

func (m *LooksRare) TypedData(o *MakerOrder) apitypes.TypedData {
	return apitypes.TypedData{
		Types:       looksRareTypes,
		PrimaryType: "MakerOrder",
		Domain: apitypes.TypedDataDomain{
			Name:              constants.LooksRareName,
			Version:           constants.LooksRareVersion,
			ChainId:           (*math.HexOrDecimal256)(m.chainID),
			VerifyingContract: constants.LooksRareExchangeAddr,
		},
		Message: apitypes.TypedDataMessage{
			"isOrderAsk":         o.IsOrderAsk,
			"signer":             o.Signer.Hex(),
			"collection":         o.Collection.Hex(),
			"price":              o.Price,
			"tokenId":            o.TokenID,
			"amount":             o.Amount,
			"strategy":           o.Strategy.Hex(),
			"currency":           o.Currency.Hex(),
			"nonce":              o.Nonce,
			"startTime":          o.StartTime,
			"endTime":            o.EndTime,
			"minPercentageToAsk": o.MinPercentageToAsk,
			"params":             o.Params,
		},
	}
}

func (m *LooksRare) Sign(ctx context.Context, order Order, w wtypes.Wallet) (*SignedOrder, error) {
	o, ok := order.(*MakerOrder)
	if !ok {
		return nil, ErrWrongOrder
	}
	td := m.TypedData(o)
	digest, err := wtypes.TypedDataDigest(td)
	if err != nil {
		return nil, errors.Wrap(err, "looksrare digest")
	}
	sig, err := wtypes.SignTypedData(ctx, w, td)
	if err != nil {
		return nil, err
	}

	return &SignedOrder{
		Marketplace: nft.MarketplaceLooksRare,
		Hash:        common.BytesToHash(digest),
		Signature:   sig,
		Body: map[string]any{
			"hash":               common.BytesToHash(digest).Hex(),
			"signer":             o.Signer.Hex(),
			"collection":         o.Collection.Hex(),
			"price":              o.Price.String(),
			"tokenId":            o.TokenID.String(),
			"amount":             o.Amount.String(),
			"strategy":           o.Strategy.Hex(),
			"currency":           o.Currency.Hex(),
			"nonce":              o.Nonce.String(),
			"startTime":          o.StartTime.String(),
			"endTime":            o.EndTime.String(),
			"minPercentageToAsk": o.MinPercentageToAsk.String(),
			"params":             hexutil.Encode(o.Params),
			"isOrderAsk":         o.IsOrderAsk,
			"signature":          hexutil.Encode(sig),
		},
	}, nil
}

func (m *LooksRare) Submit(ctx context.Context, signed *SignedOrder) (string, error) {
	return submitVia(ctx, m.orders, nft.MarketplaceLooksRare, signed)
}
