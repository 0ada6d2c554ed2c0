package nft

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/quantumauth-io/nft-checkout/internal/constants"
)

var ErrInvalidPoolParameters = errors.New("nft: invalid pool parameters")

type PoolKind string

const (
	PoolKindSudoswap        PoolKind = "sudoswap"
	PoolKindConstantProduct PoolKind = "constantProduct"
)

type BondingCurve string

const (
	BondingCurveLinear      BondingCurve = "Linear"
	BondingCurveExponential BondingCurve = "Exponential"
)

// SudoswapPool holds the bonding-curve state of a Sudoswap pair. Delta is
// a wei step for linear curves and a 1e18-scaled multiplier for exponential
// ones. Fee is 1e18-scaled.
type SudoswapPool struct {
	PoolAddress  string       `json:"poolAddress"`
	BondingCurve BondingCurve `json:"bondingCurve"`
	Delta        *big.Int     `json:"delta"`
	Fee          *big.Int     `json:"fee"`
	SpotPrice    *big.Int     `json:"spotPrice"`
}

// ConstantProductPool holds the reserves of an NFTX or NFT20 vault pair.
type ConstantProductPool struct {
	ReserveETH    *big.Int `json:"ethReserves"`
	ReserveToken  *big.Int `json:"tokenReserves"`
	AmmFeePercent int64    `json:"ammFeePercent,omitempty"`
}

// PoolParameters is a tagged union: exactly one variant is set and it
// matches Kind.
type PoolParameters struct {
	Kind            PoolKind             `json:"kind"`
	Sudoswap        *SudoswapPool        `json:"sudoswap,omitempty"`
	ConstantProduct *ConstantProductPool `json:"constantProduct,omitempty"`
}

func (p *PoolParameters) Validate() error {
	if p == nil {
		return ErrInvalidPoolParameters
	}
	switch p.Kind {
	case PoolKindSudoswap:
		s := p.Sudoswap
		if s == nil || p.ConstantProduct != nil {
			return fmt.Errorf("%w: sudoswap variant missing", ErrInvalidPoolParameters)
		}
		if s.Delta == nil || s.Fee == nil || s.SpotPrice == nil {
			return fmt.Errorf("%w: sudoswap delta/fee/spotPrice required", ErrInvalidPoolParameters)
		}
		if s.BondingCurve != BondingCurveLinear && s.BondingCurve != BondingCurveExponential {
			return fmt.Errorf("%w: unknown bonding curve %q", ErrInvalidPoolParameters, s.BondingCurve)
		}
	case PoolKindConstantProduct:
		c := p.ConstantProduct
		if c == nil || p.Sudoswap != nil {
			return fmt.Errorf("%w: constant product variant missing", ErrInvalidPoolParameters)
		}
		if c.ReserveETH == nil || c.ReserveToken == nil || c.ReserveETH.Sign() <= 0 || c.ReserveToken.Sign() <= 0 {
			return fmt.Errorf("%w: reserves must be positive", ErrInvalidPoolParameters)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidPoolParameters, p.Kind)
	}
	return nil
}

func (p PoolParameters) Clone() PoolParameters {
	out := PoolParameters{Kind: p.Kind}
	if p.Sudoswap != nil {
		s := *p.Sudoswap
		s.Delta = cloneInt(s.Delta)
		s.Fee = cloneInt(s.Fee)
		s.SpotPrice = cloneInt(s.SpotPrice)
		out.Sudoswap = &s
	}
	if p.ConstantProduct != nil {
		c := *p.ConstantProduct
		c.ReserveETH = cloneInt(c.ReserveETH)
		c.ReserveToken = cloneInt(c.ReserveToken)
		out.ConstantProduct = &c
	}
	return out
}

// ParsePoolParameters converts the untyped protocol parameters of a sell
// order into a validated PoolParameters. Non-pooled marketplaces return
// (nil, nil).
func ParsePoolParameters(m Marketplace, raw map[string]any) (*PoolParameters, error) {
	if !m.IsPooled() {
		return nil, nil
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: no protocol parameters for %s", ErrInvalidPoolParameters, m)
	}

	var p PoolParameters
	switch m {
	case MarketplaceSudoswap:
		curve, err := parseCurve(raw["bondingCurve"])
		if err != nil {
			return nil, err
		}
		s := &SudoswapPool{BondingCurve: curve}
		if v, ok := raw["poolAddress"].(string); ok {
			s.PoolAddress = strings.ToLower(strings.TrimSpace(v))
		}
		if s.Delta, err = bigFromAny("delta", raw["delta"]); err != nil {
			return nil, err
		}
		if s.Fee, err = bigFromAny("fee", raw["fee"]); err != nil {
			return nil, err
		}
		if s.SpotPrice, err = bigFromAny("spotPrice", raw["spotPrice"]); err != nil {
			return nil, err
		}
		p = PoolParameters{Kind: PoolKindSudoswap, Sudoswap: s}

	default:
		c := &ConstantProductPool{AmmFeePercent: constants.DefaultNFTXAmmFeePct}
		var err error
		if c.ReserveETH, err = bigFromAny("ethReserves", firstOf(raw, "ethReserves", "ethReserve")); err != nil {
			return nil, err
		}
		if c.ReserveToken, err = bigFromAny("tokenReserves", firstOf(raw, "tokenReserves", "tokenReserve")); err != nil {
			return nil, err
		}
		if v, ok := raw["ammFeePercent"]; ok && v != nil {
			fee, err := bigFromAny("ammFeePercent", v)
			if err != nil {
				return nil, err
			}
			c.AmmFeePercent = fee.Int64()
		}
		p = PoolParameters{Kind: PoolKindConstantProduct, ConstantProduct: c}
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func parseCurve(v any) (BondingCurve, error) {
	s, _ := v.(string)
	s = strings.TrimSpace(s)
	switch {
	case strings.EqualFold(s, string(BondingCurveLinear)), strings.EqualFold(s, constants.SudoswapLinearCurve):
		return BondingCurveLinear, nil
	case strings.EqualFold(s, string(BondingCurveExponential)), strings.EqualFold(s, constants.SudoswapExponentialCurve):
		return BondingCurveExponential, nil
	}
	return "", fmt.Errorf("%w: unknown bonding curve %q", ErrInvalidPoolParameters, s)
}

func firstOf(raw map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func bigFromAny(field string, v any) (*big.Int, error) {
	switch t := v.(type) {
	case nil:
		return nil, fmt.Errorf("%w: %s missing", ErrInvalidPoolParameters, field)
	case *big.Int:
		return new(big.Int).Set(t), nil
	case string:
		if out, ok := new(big.Int).SetString(strings.TrimSpace(t), 0); ok {
			return out, nil
		}
	case json.Number:
		if out, ok := new(big.Int).SetString(t.String(), 10); ok {
			return out, nil
		}
	case float64:
		if t == math.Trunc(t) {
			out, _ := new(big.Float).SetFloat64(t).Int(nil)
			return out, nil
		}
	case int:
		return big.NewInt(int64(t)), nil
	case int64:
		return big.NewInt(t), nil
	}
	return nil, fmt.Errorf("%w: %s has unsupported value %v", ErrInvalidPoolParameters, field, v)
}
