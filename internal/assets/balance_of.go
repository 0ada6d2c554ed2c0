package assets

import (
	"context"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"

	"github.com/quantumauth-io/nft-checkout/internal/constants"
)

// BalanceOf returns the balance for owner.
// - If token == NativeAddr (0x000..0): returns ETH balance (wei)
// - Else: returns ERC20 balance (raw units)
func (m *Manager) BalanceOf(ctx context.Context, token common.Address, owner common.Address) (*big.Int, error) {
	if owner == (common.Address{}) {
		return big.NewInt(0), nil
	}

	if token == common.HexToAddress(constants.NativeAddr) {
		wei, err := m.backend.BalanceAt(ctx, owner, nil)
		if err != nil {
			return nil, errors.Wrap(err, "assets: native balance")
		}
		return wei, nil
	}

	values, err := m.call(ctx, token, holdingsABI, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	bal, ok := values[0].(*big.Int)
	if !ok {
		return nil, errors.Newf("assets: unexpected balanceOf result %T", values[0])
	}
	return bal, nil
}

// HasFunds reports whether owner holds at least need wei of ETH, along
// with the balance it saw.
func (m *Manager) HasFunds(ctx context.Context, owner common.Address, need *big.Int) (bool, *big.Int, error) {
	bal, err := m.BalanceOf(ctx, common.HexToAddress(constants.NativeAddr), owner)
	if err != nil {
		return false, nil, err
	}
	if need == nil {
		return true, bal, nil
	}
	return bal.Cmp(need) >= 0, bal, nil
}

func (m *Manager) WETHBalance(ctx context.Context, owner common.Address) (*big.Int, error) {
	return m.BalanceOf(ctx, common.HexToAddress(constants.WETHAddr), owner)
}
