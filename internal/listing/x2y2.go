package listing

import (
	"context"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"github.com/quantumauth-io/nft-checkout/internal/constants"
	"github.com/quantumauth-io/nft-checkout/internal/ethwallet/wtypes"
	"github.com/quantumauth-io/nft-checkout/internal/nft"
)

type X2Y2Item struct {
	Price *big.Int
	Data  []byte
}

type X2Y2Order struct {
	Salt         *big.Int
	User         common.Address
	Network      *big.Int
	Intent       *big.Int
	DelegateType *big.Int
	Deadline     *big.Int
	Currency     common.Address
	DataMask     []byte
	Items        []X2Y2Item
	// PriorOrderID turns the listing into a price change of that order.
	PriorOrderID string
}

func (*X2Y2Order) Marketplace() nft.Marketplace { return nft.MarketplaceX2Y2 }

var (
	x2y2OrderArgs   abi.Arguments
	x2y2ERC721Data  abi.Arguments
	x2y2ERC1155Data abi.Arguments
)

func init() {
	mustType := func(t string, comps []abi.ArgumentMarshaling) abi.Type {
		typ, err := abi.NewType(t, "", comps)
		if err != nil {
			panic(err)
		}
		return typ
	}
	uint256 := mustType("uint256", nil)
	address := mustType("address", nil)
	bytesT := mustType("bytes", nil)
	items := mustType("tuple[]", []abi.ArgumentMarshaling{
		{Name: "price", Type: "uint256"},
		{Name: "data", Type: "bytes"},
	})

	x2y2OrderArgs = abi.Arguments{
		{Type: uint256}, // salt
		{Type: address}, // user
		{Type: uint256}, // network
		{Type: uint256}, // intent
		{Type: uint256}, // delegateType
		{Type: uint256}, // deadline
		{Type: address}, // currency
		{Type: bytesT},  // dataMask
		{Type: uint256}, // items length
		{Type: items},
	}
	x2y2ERC721Data = abi.Arguments{{Type: mustType("tuple[]", []abi.ArgumentMarshaling{
		{Name: "token", Type: "address"},
		{Name: "tokenId", Type: "uint256"},
	})}}
	x2y2ERC1155Data = abi.Arguments{{Type: mustType("tuple[]", []abi.ArgumentMarshaling{
		{Name: "token", Type: "address"},
		{Name: "tokenId", Type: "uint256"},
		{Name: "amount", Type: "uint256"},
	})}}
}

type X2Y2 struct {
	orders OrderPoster
}

func NewX2Y2(orders OrderPoster) *X2Y2 {
	return &X2Y2{orders: orders}
}

func (*X2Y2) Name() nft.Marketplace { return nft.MarketplaceX2Y2 }

func (m *X2Y2) BuildOrder(_ context.Context, row nft.ListingRow, signer common.Address) (Order, error) {
	t, err := termsOf(row)
	if err != nil {
		return nil, err
	}

	delegateType := int64(constants.X2Y2DelegateType721)
	var data []byte
	if row.Asset.TokenType == nft.TokenTypeERC1155 {
		delegateType = constants.X2Y2DelegateType1155
		data, err = x2y2ERC1155Data.Pack([]struct {
			Token   common.Address
			TokenId *big.Int
			Amount  *big.Int
		}{{Token: t.collection, TokenId: t.tokenID, Amount: t.amount}})
	} else {
		data, err = x2y2ERC721Data.Pack([]struct {
			Token   common.Address
			TokenId *big.Int
		}{{Token: t.collection, TokenId: t.tokenID}})
	}
	if err != nil {
		return nil, errors.Wrap(err, "x2y2 item data")
	}

	return &X2Y2Order{
		Salt:         randomSalt(),
		User:         signer,
		Network:      big.NewInt(constants.X2Y2Network),
		Intent:       big.NewInt(constants.X2Y2IntentSell),
		DelegateType: big.NewInt(delegateType),
		Deadline:     t.expiration,
		Currency:     common.HexToAddress(constants.NativeAddr),
		DataMask:     []byte{},
		Items:        []X2Y2Item{{Price: t.price, Data: data}},
		PriorOrderID: row.OrderID,
	}, nil
}

// Hash is keccak256 of the ABI encoded order head and items.
func (o *X2Y2Order) Hash() (common.Hash, error) {
	items := make([]struct {
		Price *big.Int
		Data  []byte
	}, len(o.Items))
	for i, it := range o.Items {
		items[i].Price = it.Price
		items[i].Data = it.Data
	}
	enc, err := x2y2OrderArgs.Pack(
		o.Salt, o.User, o.Network, o.Intent, o.DelegateType, o.Deadline,
		o.Currency, o.DataMask, big.NewInt(int64(len(o.Items))), items,
	)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "x2y2 encode order")
	}
	return crypto.Keccak256Hash(enc), nil
}

// Sign personal_signs the order hash.
func (m *X2Y2) Sign(ctx context.Context, order Order, w wtypes.Wallet) (*SignedOrder, error) {
	o, ok := order.(*X2Y2Order)
	if !ok {
		return nil, ErrWrongOrder
	}
	hash, err := o.Hash()
	if err != nil {
		return nil, err
	}
	sig, err := wtypes.SignPersonal(ctx, w, hash.Bytes())
	if err != nil {
		return nil, err
	}
	r, s, v, err := wtypes.SplitSig(sig)
	if err != nil {
		return nil, err
	}

	items := make([]map[string]any, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, map[string]any{"price": it.Price.String(), "data": hexutil.Encode(it.Data)})
	}
	body := map[string]any{
		"order": map[string]any{
			"salt":         o.Salt.String(),
			"user":         o.User.Hex(),
			"network":      o.Network.String(),
			"intent":       o.Intent.String(),
			"delegateType": o.DelegateType.String(),
			"deadline":     o.Deadline.String(),
			"currency":     o.Currency.Hex(),
			"dataMask":     hexutil.Encode(o.DataMask),
			"items":        items,
			"r":            hexutil.Encode(r[:]),
			"s":            hexutil.Encode(s[:]),
			"v":            v,
			"signVersion":  constants.X2Y2SignVersion,
		},
		"isBundle":    false,
		"changePrice": o.PriorOrderID != "",
	}
	if o.PriorOrderID != "" {
		body["orderIds"] = []string{o.PriorOrderID}
	}

	return &SignedOrder{
		Marketplace: nft.MarketplaceX2Y2,
		Hash:        hash,
		Signature:   sig,
		Body:        body,
	}, nil
}

func (m *X2Y2) Submit(ctx context.Context, signed *SignedOrder) (string, error) {
	return submitVia(ctx, m.orders, nft.MarketplaceX2Y2, signed)
}

func randomSalt() *big.Int {
	id := uuid.New()
	return new(big.Int).SetBytes(id[:])
}
