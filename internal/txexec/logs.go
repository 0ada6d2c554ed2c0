package txexec

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/quantumauth-io/nft-checkout/internal/constants"
	"github.com/quantumauth-io/nft-checkout/internal/nft"
)

var (
	erc721TransferTopic = common.HexToHash(constants.ERC721TransferTopic)
	erc1155SingleTopic  = common.HexToHash(constants.ERC1155SingleTopic)
	punkTransferTopic   = crypto.Keccak256Hash([]byte(constants.PunkTransferSig))
	cryptoPunksAddress  = common.HexToAddress(constants.CryptoPunksAddr)
)

// Transfer is a token movement decoded from a receipt log.
type Transfer struct {
	Contract common.Address
	TokenID  *big.Int
	To       common.Address
}

// DecodeTransfers returns the token transfers in receipt that credit
// recipient. ERC-721 Transfer, ERC-1155 TransferSingle and CryptoPunks
// PunkTransfer are understood; ERC-20 Transfer logs have three topics and
// are skipped.
func DecodeTransfers(receipt *types.Receipt, recipient common.Address) []Transfer {
	if receipt == nil {
		return nil
	}
	var out []Transfer
	for _, lg := range receipt.Logs {
		if lg == nil || len(lg.Topics) == 0 {
			continue
		}
		var (
			to common.Address
			id *big.Int
		)
		switch lg.Topics[0] {
		case erc721TransferTopic:
			if len(lg.Topics) != 4 {
				continue
			}
			to = common.BytesToAddress(lg.Topics[2].Bytes())
			id = lg.Topics[3].Big()
		case erc1155SingleTopic:
			if len(lg.Topics) != 4 || len(lg.Data) < 32 {
				continue
			}
			to = common.BytesToAddress(lg.Topics[3].Bytes())
			id = new(big.Int).SetBytes(lg.Data[:32])
		case punkTransferTopic:
			if len(lg.Topics) != 3 || len(lg.Data) < 32 {
				continue
			}
			to = common.BytesToAddress(lg.Topics[2].Bytes())
			id = new(big.Int).SetBytes(lg.Data[:32])
		default:
			continue
		}
		if to != recipient {
			continue
		}
		out = append(out, Transfer{Contract: lg.Address, TokenID: id, To: to})
	}
	return out
}

// FindPurchased returns the assets that a transfer in receipt delivered to
// buyer. A reverted receipt purchased nothing.
func FindPurchased(receipt *types.Receipt, buyer common.Address, assets []nft.Asset) []nft.Asset {
	purchased, _ := Split(receipt, buyer, assets)
	return purchased
}

// FindNotPurchased is the complement of FindPurchased over assets.
func FindNotPurchased(receipt *types.Receipt, buyer common.Address, assets []nft.Asset) []nft.Asset {
	_, notPurchased := Split(receipt, buyer, assets)
	return notPurchased
}

// Split partitions assets into purchased and not purchased.
func Split(receipt *types.Receipt, buyer common.Address, assets []nft.Asset) (purchased, notPurchased []nft.Asset) {
	seen := map[string]bool{}
	if receipt != nil && receipt.Status == types.ReceiptStatusSuccessful {
		for _, tr := range DecodeTransfers(receipt, buyer) {
			seen[transferKey(tr.Contract, tr.TokenID)] = true
		}
	}

	for _, a := range assets {
		if isTransferred(seen, a) {
			purchased = append(purchased, a)
		} else {
			notPurchased = append(notPurchased, a)
		}
	}
	return purchased, notPurchased
}

// RefundTotal sums the ETH price of assets the transaction did not buy.
func RefundTotal(notPurchased []nft.Asset) *big.Int {
	total := new(big.Int)
	for _, a := range notPurchased {
		if a.PriceInfo.ETHPrice != nil {
			total.Add(total, a.PriceInfo.ETHPrice)
		}
	}
	return total
}

func isTransferred(seen map[string]bool, a nft.Asset) bool {
	id, ok := a.TokenIDBig()
	if !ok || !common.IsHexAddress(a.Address) {
		return false
	}
	contract := common.HexToAddress(a.Address)
	if seen[transferKey(contract, id)] {
		return true
	}
	// punks listed under the marketplace tag may use the wrapped address
	return a.Marketplace == nft.MarketplaceCryptoPunks && seen[transferKey(cryptoPunksAddress, id)]
}

func transferKey(contract common.Address, id *big.Int) string {
	return strings.ToLower(contract.Hex()) + ":" + id.String()
}
