package wtypes

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Wallet is an EOA able to sign 32-byte digests. SignHash returns a
// 65-byte R || S || V signature with V = 0/1, as crypto.Sign does.
// Wallets that prompt a user return an error carrying UserRejectedCode
// when the user declines.
type Wallet interface {
	Address() common.Address
	SignHash(ctx context.Context, digest32 []byte) ([]byte, error)
}

// PersonalMessageHash is the EIP-191 personal_sign digest of msg.
func PersonalMessageHash(msg []byte) []byte {
	prefix := fmt.Sprintf("\x19Ethereum Signed Message:\n%d", len(msg))
	return crypto.Keccak256([]byte(prefix), msg)
}

// TypedDataDigest is the EIP-712 v4 digest of td.
func TypedDataDigest(td apitypes.TypedData) ([]byte, error) {
	domainSep, err := td.HashStruct("EIP712Domain", td.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("hash domain: %w", err)
	}
	msgHash, err := td.HashStruct(td.PrimaryType, td.Message)
	if err != nil {
		return nil, fmt.Errorf("hash message: %w", err)
	}
	return crypto.Keccak256([]byte{0x19, 0x01}, domainSep, msgHash), nil
}

// SignPersonal signs msg the way personal_sign does and returns a
// signature with V = 27/28.
func SignPersonal(ctx context.Context, w Wallet, msg []byte) ([]byte, error) {
	sig, err := w.SignHash(ctx, PersonalMessageHash(msg))
	if err != nil {
		return nil, err
	}
	return SigToV27(sig)
}

// SignTypedData signs td (eth_signTypedData_v4) and returns a signature
// with V = 27/28.
func SignTypedData(ctx context.Context, w Wallet, td apitypes.TypedData) ([]byte, error) {
	digest, err := TypedDataDigest(td)
	if err != nil {
		return nil, err
	}
	sig, err := w.SignHash(ctx, digest)
	if err != nil {
		return nil, err
	}
	return SigToV27(sig)
}
