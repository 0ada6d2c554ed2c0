package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom([]string{t.TempDir()})
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1", cfg.Server.Host)
	require.Equal(t, "7420", cfg.Server.Port)
	require.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowOrigins)
	require.Equal(t, uint64(1), cfg.Chain.ChainID)
	require.Equal(t, 12*time.Second, cfg.Chain.HeaderRefresh)
	require.Equal(t, 15*time.Second, cfg.Router.Timeout)
	require.Equal(t, 3, cfg.Router.MaxRetries)
	require.Equal(t, 750*time.Millisecond, cfg.Receipts.PollInterval)
	require.True(t, cfg.Bag.Persist)
	require.Empty(t, cfg.Wallet.PrivateKey)
}

func TestLoadFrom_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	override := []byte("server:\n  port: \"9000\"\nchain:\n  chain_id: 5\nbag:\n  persist: false\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), override, 0o600))

	t.Setenv("NFT_CHECKOUT_ROUTER_URL", "http://router.test/v1")
	t.Setenv("NFT_CHECKOUT_CHAIN_CHAIN_ID", "11155111")

	cfg, err := LoadFrom([]string{dir})
	require.NoError(t, err)

	require.Equal(t, "9000", cfg.Server.Port)
	require.False(t, cfg.Bag.Persist)
	require.Equal(t, "http://router.test/v1", cfg.Router.URL)
	require.Equal(t, uint64(11155111), cfg.Chain.ChainID)
	// untouched keys keep the embedded defaults
	require.Equal(t, "127.0.0.1", cfg.Server.Host)
}

func TestLoadFrom_RejectsBadPrivateKey(t *testing.T) {
	t.Setenv("NFT_CHECKOUT_WALLET_PRIVATE_KEY", "0x1234")
	_, err := LoadFrom([]string{t.TempDir()})
	require.Error(t, err)

	t.Setenv("NFT_CHECKOUT_WALLET_PRIVATE_KEY", "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	cfg, err := LoadFrom([]string{t.TempDir()})
	require.NoError(t, err)
	require.NotEmpty(t, cfg.Wallet.PrivateKey)
}

func TestValidate(t *testing.T) {
	cfg, err := LoadFrom([]string{t.TempDir()})
	require.NoError(t, err)

	bad := *cfg
	bad.Router.URL = " "
	require.Error(t, bad.Validate())

	bad = *cfg
	bad.Router.MaxRetries = -1
	require.Error(t, bad.Validate())

	bad = *cfg
	bad.Chain.ChainID = 0
	require.Error(t, bad.Validate())
}
