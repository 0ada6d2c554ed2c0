package listing

import (
	"context"
	"math/big"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/quantumauth-io/nft-checkout/internal/constants"
	"github.com/quantumauth-io/nft-checkout/internal/nft"
)

const erc721ApprovalABI = `[
 {"type":"function","name":"isApprovedForAll","stateMutability":"view",
  "inputs":[{"name":"owner","type":"address"},{"name":"operator","type":"address"}],
  "outputs":[{"name":"","type":"bool"}]},
 {"type":"function","name":"setApprovalForAll","stateMutability":"nonpayable",
  "inputs":[{"name":"operator","type":"address"},{"name":"approved","type":"bool"}],
  "outputs":[]}
]`

const seaportCounterABI = `[
 {"type":"function","name":"getCounter","stateMutability":"view",
  "inputs":[{"name":"offerer","type":"address"}],
  "outputs":[{"name":"counter","type":"uint256"}]}
]`

var (
	approvalABI = mustABI(erc721ApprovalABI)
	counterABI  = mustABI(seaportCounterABI)
)

func mustABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

// ContractCaller is satisfied by ethclient.Client.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Operator is the contract a venue transfers sold tokens through.
func Operator(m nft.Marketplace, tokenType nft.TokenType) (common.Address, bool) {
	erc1155 := tokenType == nft.TokenTypeERC1155
	switch m {
	case nft.MarketplaceOpenSea:
		return common.HexToAddress(constants.OpenSeaConduitAddr), true
	case nft.MarketplaceLooksRare:
		if erc1155 {
			return common.HexToAddress(constants.LooksRareTransferERC1155), true
		}
		return common.HexToAddress(constants.LooksRareTransferERC721), true
	case nft.MarketplaceX2Y2:
		if erc1155 {
			return common.HexToAddress(constants.X2Y2DelegateERC1155), true
		}
		return common.HexToAddress(constants.X2Y2DelegateERC721), true
	default:
		return common.Address{}, false
	}
}

type ApprovalChecker struct {
	caller ContractCaller
}

func NewApprovalChecker(caller ContractCaller) *ApprovalChecker {
	return &ApprovalChecker{caller: caller}
}

func (c *ApprovalChecker) IsApprovedForAll(ctx context.Context, collection, owner, operator common.Address) (bool, error) {
	data, err := approvalABI.Pack("isApprovedForAll", owner, operator)
	if err != nil {
		return false, errors.Wrap(err, "pack isApprovedForAll")
	}
	out, err := c.caller.CallContract(ctx, ethereum.CallMsg{To: &collection, Data: data}, nil)
	if err != nil {
		return false, errors.Wrapf(err, "isApprovedForAll on %s", collection.Hex())
	}
	res, err := approvalABI.Unpack("isApprovedForAll", out)
	if err != nil {
		return false, errors.Wrap(err, "unpack isApprovedForAll")
	}
	approved, ok := res[0].(bool)
	if !ok {
		return false, errors.New("isApprovedForAll: unexpected result type")
	}
	return approved, nil
}

// RequiringApproval returns one Defined collection row per distinct
// (collection, venue) among rows whose operator is not yet approved by
// owner.
func (c *ApprovalChecker) RequiringApproval(ctx context.Context, owner common.Address, rows []nft.ListingRow) ([]nft.CollectionRow, error) {
	seen := map[string]bool{}
	var out []nft.CollectionRow
	for _, row := range rows {
		key := strings.ToLower(row.Asset.Address) + "|" + string(row.Marketplace)
		if seen[key] {
			continue
		}
		seen[key] = true

		operator, ok := Operator(row.Marketplace, row.Asset.TokenType)
		if !ok || !common.IsHexAddress(row.Asset.Address) {
			continue
		}
		approved, err := c.IsApprovedForAll(ctx, common.HexToAddress(row.Asset.Address), owner, operator)
		if err != nil {
			return nil, err
		}
		if approved {
			continue
		}
		out = append(out, nft.CollectionRow{
			Address:     row.Asset.Address,
			Name:        row.Asset.Collection.Name,
			Marketplace: row.Marketplace,
			TokenType:   row.Asset.TokenType,
			Status:      nft.ListingDefined,
		})
	}
	return out, nil
}

// ApprovalCalldata encodes setApprovalForAll(operator, true).
func ApprovalCalldata(operator common.Address) ([]byte, error) {
	return approvalABI.Pack("setApprovalForAll", operator, true)
}

// SeaportCounter reads the offerer counter from the Seaport contract.
type SeaportCounter struct {
	caller ContractCaller
}

var _ CounterFetcher = (*SeaportCounter)(nil)

func NewSeaportCounter(caller ContractCaller) *SeaportCounter {
	return &SeaportCounter{caller: caller}
}

func (s *SeaportCounter) Counter(ctx context.Context, offerer common.Address) (*big.Int, error) {
	data, err := counterABI.Pack("getCounter", offerer)
	if err != nil {
		return nil, err
	}
	seaport := common.HexToAddress(constants.SeaportAddr)
	out, err := s.caller.CallContract(ctx, ethereum.CallMsg{To: &seaport, Data: data}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "getCounter")
	}
	res, err := counterABI.Unpack("getCounter", out)
	if err != nil {
		return nil, errors.Wrap(err, "unpack getCounter")
	}
	counter, ok := res[0].(*big.Int)
	if !ok {
		return nil, errors.New("getCounter: unexpected result type")
	}
	return counter, nil
}
