package listing

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quantumauth-io/nft-checkout/internal/ethwallet/userwallet"
	"github.com/quantumauth-io/nft-checkout/internal/ethwallet/wtypes"
	"github.com/quantumauth-io/nft-checkout/internal/nft"
	"github.com/quantumauth-io/nft-checkout/internal/txexec"
)

type mockPoster struct{ mock.Mock }

func (m *mockPoster) PostOrder(ctx context.Context, market nft.Marketplace, body map[string]any) (string, error) {
	args := m.Called(ctx, market, body)
	return args.String(0), args.Error(1)
}

type mockNonces struct{ mock.Mock }

func (m *mockNonces) Nonce(ctx context.Context, signer common.Address) (*big.Int, error) {
	args := m.Called(ctx, signer)
	n, _ := args.Get(0).(*big.Int)
	return n, args.Error(1)
}

type mockCaller struct{ mock.Mock }

func (m *mockCaller) CallContract(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
	args := m.Called(ctx, msg, block)
	out, _ := args.Get(0).([]byte)
	return out, args.Error(1)
}

type mockTransactor struct{ mock.Mock }

func (m *mockTransactor) Transact(ctx context.Context, call txexec.Call) (*types.Receipt, error) {
	args := m.Called(ctx, call)
	r, _ := args.Get(0).(*types.Receipt)
	return r, args.Error(1)
}

type rejectingWallet struct{ addr common.Address }

func (w rejectingWallet) Address() common.Address { return w.addr }

func (w rejectingWallet) SignHash(context.Context, []byte) ([]byte, error) {
	return nil, wtypes.ErrUserRejected
}

const testCollection = "0x00000000000000000000000000000000000000Aa"

func eth(milli int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(milli), big.NewInt(1e15))
}

func testRow(m nft.Marketplace, tokenID string) nft.ListingRow {
	return nft.ListingRow{
		Asset: nft.Asset{
			Address:   testCollection,
			TokenID:   tokenID,
			TokenType: nft.TokenTypeERC721,
		},
		Marketplace: m,
		Price:       eth(1000),
		Expiration:  1_900_000_000,
		Status:      nft.ListingDefined,
	}
}

func newWallet(t *testing.T) *userwallet.Wallet {
	t.Helper()
	w, err := userwallet.NewRandomWallet()
	require.NoError(t, err)
	return w
}

// recoverSigner recovers the address that produced a 27/28 signature.
func recoverSigner(t *testing.T, digest, sig []byte) common.Address {
	t.Helper()
	require.Len(t, sig, 65)
	raw := append([]byte(nil), sig...)
	raw[64] -= 27
	pub, err := crypto.SigToPub(digest, raw)
	require.NoError(t, err)
	return crypto.PubkeyToAddress(*pub)
}
