package pool

import (
	"strings"

	"github.com/quantumauth-io/nft-checkout/internal/nft"
)

// CohortKey groups assets drawn from the same pool: the Sudoswap pair
// address, or collection and marketplace for vault pools.
func CohortKey(a nft.Asset) string {
	if p := a.Pool(); p != nil && p.Kind == nft.PoolKindSudoswap && p.Sudoswap != nil && p.Sudoswap.PoolAddress != "" {
		return strings.ToLower(p.Sudoswap.PoolAddress)
	}
	return strings.ToLower(a.Address) + "|" + string(a.Marketplace)
}
