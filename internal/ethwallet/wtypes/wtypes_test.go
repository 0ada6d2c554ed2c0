package wtypes

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestIsUserRejection(t *testing.T) {
	require.True(t, IsUserRejection(ErrUserRejected))
	require.True(t, IsUserRejection(errors.Wrap(ErrUserRejected, "sign order")))
	require.False(t, IsUserRejection(&CodedError{Code: -32000, Message: "execution reverted"}))
	require.False(t, IsUserRejection(errors.New("boom")))
	require.False(t, IsUserRejection(nil))
}

func TestSigToV27(t *testing.T) {
	sig := make([]byte, 65)
	sig[64] = 1
	out, err := SigToV27(sig)
	require.NoError(t, err)
	require.Equal(t, byte(28), out[64])
	require.Equal(t, byte(1), sig[64])

	sig[64] = 5
	_, err = SigToV27(sig)
	require.Error(t, err)
}

func TestPersonalMessageHashRecoversSigner(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey)

	digest := PersonalMessageHash([]byte("hello"))
	sig, err := crypto.Sign(digest, key)
	require.NoError(t, err)

	pub, err := crypto.SigToPub(digest, sig)
	require.NoError(t, err)
	require.Equal(t, addr, crypto.PubkeyToAddress(*pub))
	require.NotEqual(t, common.Hash{}, common.BytesToHash(digest))
}
