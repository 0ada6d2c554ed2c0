package assets

import (
	"context"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"

	"github.com/quantumauth-io/nft-checkout/internal/constants"
	"github.com/quantumauth-io/nft-checkout/internal/nft"
)

// Owns reports whether owner holds the asset's token. CryptoPunks are
// read from the punks contract itself.
func (m *Manager) Owns(ctx context.Context, owner common.Address, a nft.Asset) (bool, error) {
	id, ok := a.TokenIDBig()
	if !ok || !common.IsHexAddress(a.Address) {
		return false, errors.Newf("assets: bad token %s", a.Key())
	}
	contract := common.HexToAddress(a.Address)

	switch {
	case a.Marketplace == nft.MarketplaceCryptoPunks || contract == common.HexToAddress(constants.CryptoPunksAddr):
		return m.addressIs(ctx, common.HexToAddress(constants.CryptoPunksAddr), "punkIndexToAddress", id, owner)
	case a.TokenType == nft.TokenTypeERC1155:
		values, err := m.call(ctx, contract, erc1155ABI, "balanceOf", owner, id)
		if err != nil {
			return false, err
		}
		bal, ok := values[0].(*big.Int)
		return ok && bal.Sign() > 0, nil
	case a.TokenType == nft.TokenTypeERC721 || a.TokenType == "":
		return m.addressIs(ctx, contract, "ownerOf", id, owner)
	default:
		return false, errors.Wrapf(ErrUnsupportedToken, "%q", a.TokenType)
	}
}

func (m *Manager) addressIs(ctx context.Context, contract common.Address, method string, id *big.Int, want common.Address) (bool, error) {
	values, err := m.call(ctx, contract, holdingsABI, method, id)
	if err != nil {
		return false, err
	}
	got, ok := values[0].(common.Address)
	return ok && got == want, nil
}
