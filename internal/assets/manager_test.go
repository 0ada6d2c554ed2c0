package assets

import (
	"bytes"
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/quantumauth-io/nft-checkout/internal/constants"
	"github.com/quantumauth-io/nft-checkout/internal/nft"
)

type fakeChain struct {
	balance *big.Int
	// keyed by contract then 4-byte selector
	results map[common.Address]map[string][]byte
	calls   []ethereum.CallMsg
}

func (f *fakeChain) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return f.balance, nil
}

func (f *fakeChain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls = append(f.calls, msg)
	return f.results[*msg.To][string(msg.Data[:4])], nil
}

func (f *fakeChain) answer(t *testing.T, contract common.Address, method string, fromERC1155 bool, out ...interface{}) {
	t.Helper()
	parsed := holdingsABI
	if fromERC1155 {
		parsed = erc1155ABI
	}
	m := parsed.Methods[method]
	packed, err := m.Outputs.Pack(out...)
	require.NoError(t, err)
	if f.results == nil {
		f.results = map[common.Address]map[string][]byte{}
	}
	if f.results[contract] == nil {
		f.results[contract] = map[string][]byte{}
	}
	f.results[contract][string(m.ID)] = packed
}

var (
	owner       = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	someoneElse = common.HexToAddress("0x00000000000000000000000000000000000000e2")
	collection  = common.HexToAddress("0x00000000000000000000000000000000000000Aa")
)

func TestHasFunds(t *testing.T) {
	chain := &fakeChain{balance: big.NewInt(1000)}
	m := NewManager(chain)

	ok, bal, err := m.HasFunds(context.Background(), owner, big.NewInt(999))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, big.NewInt(1000), bal)

	ok, _, err = m.HasFunds(context.Background(), owner, big.NewInt(1001))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBalanceOf_ERC20AndZeroOwner(t *testing.T) {
	weth := common.HexToAddress(constants.WETHAddr)
	chain := &fakeChain{}
	chain.answer(t, weth, "balanceOf", false, big.NewInt(42))
	m := NewManager(chain)

	bal, err := m.WETHBalance(context.Background(), owner)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(42), bal)
	require.Len(t, chain.calls, 1)
	require.True(t, bytes.Equal(common.LeftPadBytes(owner.Bytes(), 32), chain.calls[0].Data[4:]))

	bal, err = m.BalanceOf(context.Background(), weth, common.Address{})
	require.NoError(t, err)
	require.Zero(t, bal.Sign())
	require.Len(t, chain.calls, 1)
}

func TestOwns(t *testing.T) {
	chain := &fakeChain{}
	chain.answer(t, collection, "ownerOf", false, owner)
	m := NewManager(chain)

	a := nft.Asset{Address: collection.Hex(), TokenID: "7", TokenType: nft.TokenTypeERC721}
	ok, err := m.Owns(context.Background(), owner, a)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = m.Owns(context.Background(), someoneElse, a)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOwns_ERC1155(t *testing.T) {
	chain := &fakeChain{}
	chain.answer(t, collection, "balanceOf", true, big.NewInt(3))
	m := NewManager(chain)

	a := nft.Asset{Address: collection.Hex(), TokenID: "7", TokenType: nft.TokenTypeERC1155}
	ok, err := m.Owns(context.Background(), owner, a)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestOwns_Punks(t *testing.T) {
	punks := common.HexToAddress(constants.CryptoPunksAddr)
	chain := &fakeChain{}
	chain.answer(t, punks, "punkIndexToAddress", false, owner)
	m := NewManager(chain)

	a := nft.Asset{Address: punks.Hex(), TokenID: "1234", Marketplace: nft.MarketplaceCryptoPunks}
	ok, err := m.Owns(context.Background(), owner, a)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestOwns_BadInput(t *testing.T) {
	m := NewManager(&fakeChain{})
	_, err := m.Owns(context.Background(), owner, nft.Asset{Address: "nope", TokenID: "1"})
	require.Error(t, err)

	_, err = m.Owns(context.Background(), owner, nft.Asset{Address: collection.Hex(), TokenID: "1", TokenType: nft.TokenTypeDust})
	require.ErrorIs(t, err, ErrUnsupportedToken)
}
