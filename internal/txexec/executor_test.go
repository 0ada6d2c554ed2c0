package txexec

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/quantumauth-io/nft-checkout/internal/ethwallet/userwallet"
	"github.com/quantumauth-io/nft-checkout/internal/ethwallet/wtypes"
	"github.com/quantumauth-io/nft-checkout/internal/nft"
)

type fakeBackend struct {
	mu        sync.Mutex
	baseFee   *big.Int
	estimate  uint64
	sendErr   error
	sent      []*types.Transaction
	receipt   func(tx *types.Transaction) *types.Receipt
	notFound  int
	estimated []ethereum.CallMsg
}

func (f *fakeBackend) ChainID(context.Context) (*big.Int, error) { return big.NewInt(1), nil }

func (f *fakeBackend) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.estimated = append(f.estimated, msg)
	return f.estimate, nil
}

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return 7, nil
}

func (f *fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(100), BaseFee: f.baseFee}, nil
}

func (f *fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(2_000_000_000), nil
}

func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(30_000_000_000), nil
}

func (f *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeBackend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.notFound > 0 {
		f.notFound--
		return nil, ethereum.NotFound
	}
	for _, tx := range f.sent {
		if tx.Hash() == hash {
			return f.receipt(tx), nil
		}
	}
	return nil, ethereum.NotFound
}

type rejectingWallet struct{ addr common.Address }

func (w rejectingWallet) Address() common.Address { return w.addr }

func (w rejectingWallet) SignHash(context.Context, []byte) ([]byte, error) {
	return nil, wtypes.ErrUserRejected
}

var (
	collection = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	router     = common.HexToAddress("0x00000000000000000000000000000000000000c0")
)

func assetAt(tokenID int64, milli int64) nft.Asset {
	return nft.Asset{
		ID:          "a-" + big.NewInt(tokenID).String(),
		Address:     collection.Hex(),
		TokenID:     big.NewInt(tokenID).String(),
		TokenType:   nft.TokenTypeERC721,
		Marketplace: nft.MarketplaceLooksRare,
		PriceInfo: nft.PriceInfo{
			BaseAsset: "ETH",
			ETHPrice:  new(big.Int).Mul(big.NewInt(milli), big.NewInt(1e15)),
		},
	}
}

func erc721Log(contract, to common.Address, tokenID int64) *types.Log {
	return &types.Log{
		Address: contract,
		Topics: []common.Hash{
			erc721TransferTopic,
			common.BytesToHash(router.Bytes()),
			common.BytesToHash(to.Bytes()),
			common.BigToHash(big.NewInt(tokenID)),
		},
	}
}

func newTestExecutor(t *testing.T, b Backend) (*Executor, *userwallet.Wallet) {
	t.Helper()
	w, err := userwallet.NewRandomWallet()
	require.NoError(t, err)
	return NewExecutor(b, w, WithPollInterval(time.Millisecond, 5*time.Millisecond)), w
}

func TestPurchase_PartialFill(t *testing.T) {
	b := &fakeBackend{baseFee: big.NewInt(10_000_000_000), estimate: 200_000, notFound: 2}
	ex, w := newTestExecutor(t, b)
	b.receipt = func(tx *types.Transaction) *types.Receipt {
		return &types.Receipt{
			Status: types.ReceiptStatusSuccessful,
			TxHash: tx.Hash(),
			Logs:   []*types.Log{erc721Log(collection, w.Address(), 1)},
		}
	}

	var states []TxState
	assets := []nft.Asset{assetAt(1, 1000), assetAt(2, 1500)}
	out, err := ex.Purchase(context.Background(), Call{To: router, Data: []byte{0x01}, Value: big.NewInt(1)}, assets, func(s TxState) {
		states = append(states, s)
	})
	require.NoError(t, err)
	require.Equal(t, []TxState{TxSigning, TxConfirming, TxSuccess}, states)
	require.Equal(t, TxSuccess, out.State)
	require.Len(t, out.Purchased, 1)
	require.Equal(t, "1", out.Purchased[0].TokenID)
	require.Len(t, out.NotPurchased, 1)
	require.Equal(t, new(big.Int).Mul(big.NewInt(1500), big.NewInt(1e15)), out.Refund)

	require.Len(t, b.sent, 1)
	tx := b.sent[0]
	require.Equal(t, uint8(types.DynamicFeeTxType), tx.Type())
	require.Equal(t, uint64(210_000), tx.Gas())
	require.Equal(t, uint64(7), tx.Nonce())
	require.Equal(t, big.NewInt(22_000_000_000), tx.GasFeeCap())

	sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(1)), tx)
	require.NoError(t, err)
	require.Equal(t, w.Address(), sender)
}

func TestPurchase_LegacyWhenNoBaseFee(t *testing.T) {
	b := &fakeBackend{estimate: 100_000}
	ex, _ := newTestExecutor(t, b)
	b.receipt = func(tx *types.Transaction) *types.Receipt {
		return &types.Receipt{Status: types.ReceiptStatusFailed, TxHash: tx.Hash()}
	}

	out, err := ex.Purchase(context.Background(), Call{To: router, Data: []byte{0x01}}, []nft.Asset{assetAt(1, 1000)}, nil)
	require.NoError(t, err)
	require.Equal(t, TxFailed, out.State)
	require.Empty(t, out.Purchased)
	require.Len(t, out.NotPurchased, 1)
	require.Equal(t, uint8(types.LegacyTxType), b.sent[0].Type())
	require.Equal(t, big.NewInt(30_000_000_000), b.sent[0].GasPrice())
}

func TestPurchase_UserRejectionIsDenied(t *testing.T) {
	b := &fakeBackend{estimate: 100_000}
	ex := NewExecutor(b, rejectingWallet{addr: common.HexToAddress("0x01")})

	var states []TxState
	out, err := ex.Purchase(context.Background(), Call{To: router, Data: []byte{0x01}}, nil, func(s TxState) {
		states = append(states, s)
	})
	require.NoError(t, err)
	require.Equal(t, TxDenied, out.State)
	require.Equal(t, []TxState{TxSigning, TxDenied}, states)
	require.True(t, wtypes.IsUserRejection(out.Err))
	require.Empty(t, b.sent)
}

func TestPurchase_SendErrorIsInvalid(t *testing.T) {
	b := &fakeBackend{estimate: 100_000, sendErr: &wtypes.CodedError{Code: -32000, Message: "insufficient funds"}}
	ex, _ := newTestExecutor(t, b)

	out, err := ex.Purchase(context.Background(), Call{To: router, Data: []byte{0x01}}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, TxInvalid, out.State)
	require.Error(t, out.Err)
}

func TestPurchase_Preconditions(t *testing.T) {
	b := &fakeBackend{}
	_, err := NewExecutor(b, nil).Purchase(context.Background(), Call{To: router, Data: []byte{1}}, nil, nil)
	require.ErrorIs(t, err, ErrMissingSigner)

	ex, _ := newTestExecutor(t, b)
	_, err = ex.Purchase(context.Background(), Call{To: router}, nil, nil)
	require.ErrorIs(t, err, ErrMissingRouteData)
	_, err = ex.Purchase(context.Background(), Call{Data: []byte{1}}, nil, nil)
	require.ErrorIs(t, err, ErrMissingRouteData)
}

func TestWaitMined_ContextCancel(t *testing.T) {
	b := &fakeBackend{}
	ex, _ := newTestExecutor(t, b)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := ex.WaitMined(ctx, common.HexToHash("0x01"))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
