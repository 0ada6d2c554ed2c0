package userwallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/quantumauth-io/nft-checkout/internal/constants"
	"github.com/quantumauth-io/nft-checkout/internal/ethwallet/wtypes"
	"github.com/quantumauth-io/nft-checkout/internal/securefile"
)

const (
	WalletFile  = "wallet.json"
	AADConstant = "nft-checkout:userwallet:v1"
)

// Wallet is a local secp256k1 key. It never prompts, so it never returns
// a user rejection.
type Wallet struct {
	Version    int    `json:"version"`
	AddressHex string `json:"address"`
	PrivKeyHex string `json:"priv_key_hex"`
	CreatedAt  string `json:"created_at,omitempty"`
}

var _ wtypes.Wallet = (*Wallet)(nil)

func (w *Wallet) Address() common.Address {
	return common.HexToAddress(w.AddressHex)
}

func (w *Wallet) SignHash(_ context.Context, digest32 []byte) ([]byte, error) {
	if err := wtypes.EnsureDigest32(digest32); err != nil {
		return nil, err
	}
	key, err := w.privateKey()
	if err != nil {
		return nil, err
	}
	return crypto.Sign(digest32, key)
}

func (w *Wallet) privateKey() (*ecdsa.PrivateKey, error) {
	k, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimPrefix(w.PrivKeyHex, "0x"), "0X"))
	if err != nil {
		return nil, fmt.Errorf("userwallet: parse key: %w", err)
	}
	return k, nil
}

func FromKey(key *ecdsa.PrivateKey) *Wallet {
	return &Wallet{
		Version:    constants.SchemaV1,
		AddressHex: crypto.PubkeyToAddress(key.PublicKey).Hex(),
		PrivKeyHex: fmt.Sprintf("%x", crypto.FromECDSA(key)),
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
}

// FromHex loads a wallet from a hex private key, with or without 0x.
func FromHex(privHex string) (*Wallet, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(privHex), "0x"), "0X")
	key, err := crypto.HexToECDSA(trimmed)
	if err != nil {
		return nil, fmt.Errorf("userwallet: parse key: %w", err)
	}
	return FromKey(key), nil
}

func NewRandomWallet() (*Wallet, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return FromKey(key), nil
}

// Store keeps the wallet sealed under a password in the config dir.
type Store struct {
	Path string
}

func NewStore() (*Store, error) {
	path, err := securefile.ResolvePath(constants.AppName, WalletFile)
	if err != nil {
		return nil, err
	}
	return &Store{Path: path}, nil
}

// Ensure opens the sealed wallet, creating one when the file is missing.
func (s *Store) Ensure(password []byte) (*Wallet, error) {
	w, err := securefile.ReadSealedJSON[Wallet](s.Path, password, []byte(AADConstant))
	if err == nil {
		return &w, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load wallet %s: %w", s.Path, err)
	}

	nw, err := NewRandomWallet()
	if err != nil {
		return nil, err
	}
	if err := securefile.WriteSealedJSON(s.Path, *nw, password, []byte(AADConstant)); err != nil {
		return nil, err
	}
	return nw, nil
}
