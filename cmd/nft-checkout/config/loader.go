package config

import (
	"bytes"
	_ "embed"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/quantumauth-io/nft-checkout/internal/constants"
)

//go:embed config.yaml
var EmbeddedConfigYAML []byte

const EnvPrefix = "NFT_CHECKOUT"

type ServerSettings struct {
	Host         string   `mapstructure:"host"`
	Port         string   `mapstructure:"port"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type RouterSettings struct {
	URL           string        `mapstructure:"url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetryDelay time.Duration `mapstructure:"max_retry_delay"`
	MaxRetries    int           `mapstructure:"max_retries"`
}

type OrdersSettings struct {
	URL string `mapstructure:"url"`
}

type ChainSettings struct {
	RPCURL        string        `mapstructure:"rpc_url"`
	ChainID       uint64        `mapstructure:"chain_id"`
	HeaderRefresh time.Duration `mapstructure:"header_refresh"`
}

// WalletSettings selects the signer. A private key wins; otherwise a
// password opens (or creates) the sealed wallet file. With neither the
// service runs without a signer and cannot purchase or list.
type WalletSettings struct {
	PrivateKey string `mapstructure:"private_key"`
	Password   string `mapstructure:"password"`
}

type BagSettings struct {
	Persist bool `mapstructure:"persist"`
}

type ReceiptSettings struct {
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	MaxPollInterval time.Duration `mapstructure:"max_poll_interval"`
}

type Config struct {
	Server   ServerSettings  `mapstructure:"server"`
	Router   RouterSettings  `mapstructure:"router"`
	Orders   OrdersSettings  `mapstructure:"orders"`
	Chain    ChainSettings   `mapstructure:"chain"`
	Wallet   WalletSettings  `mapstructure:"wallet"`
	Bag      BagSettings     `mapstructure:"bag"`
	Receipts ReceiptSettings `mapstructure:"receipts"`
}

func Load() (*Config, error) {
	home, _ := os.UserHomeDir()
	paths := []string{
		filepath.Join(home, ".config", constants.AppName),
		filepath.Join(home, "config"),
		".",
	}
	// a missing .env is fine
	_ = godotenv.Load()

	return LoadFrom(paths)
}

// LoadFrom reads the embedded defaults, merges the first config.yaml found
// in paths over them and applies NFT_CHECKOUT_* environment overrides
// (NFT_CHECKOUT_ROUTER_URL sets router.url).
func LoadFrom(paths []string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(EmbeddedConfigYAML)); err != nil {
		return nil, errors.Wrap(err, "read embedded config")
	}

	v.SetConfigName("config")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config file")
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Port) == "" {
		return errors.New("config: server.port is empty")
	}
	if strings.TrimSpace(c.Router.URL) == "" {
		return errors.New("config: router.url is empty")
	}
	if strings.TrimSpace(c.Chain.RPCURL) == "" {
		return errors.New("config: chain.rpc_url is empty")
	}
	if c.Router.MaxRetries < 0 {
		return errors.New("config: router.max_retries is negative")
	}
	if c.Chain.ChainID == 0 {
		return errors.New("config: chain.chain_id is zero")
	}
	if k := strings.TrimSpace(c.Wallet.PrivateKey); k != "" {
		k = strings.TrimPrefix(strings.TrimPrefix(k, "0x"), "0X")
		if b, err := hexutil.Decode("0x" + k); err != nil || len(b) != 32 {
			return errors.New("config: wallet.private_key must be 32 hex bytes")
		}
	}
	return nil
}
