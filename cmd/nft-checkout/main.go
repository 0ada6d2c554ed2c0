package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/quantumauth-io/quantum-go-utils/log"

	appconfig "github.com/quantumauth-io/nft-checkout/cmd/nft-checkout/config"
	"github.com/quantumauth-io/nft-checkout/internal/assets"
	"github.com/quantumauth-io/nft-checkout/internal/bag"
	"github.com/quantumauth-io/nft-checkout/internal/chains"
	"github.com/quantumauth-io/nft-checkout/internal/checkout"
	"github.com/quantumauth-io/nft-checkout/internal/ethwallet/userwallet"
	"github.com/quantumauth-io/nft-checkout/internal/ethwallet/wtypes"
	apihttp "github.com/quantumauth-io/nft-checkout/internal/http"
	"github.com/quantumauth-io/nft-checkout/internal/listing"
	"github.com/quantumauth-io/nft-checkout/internal/metrics"
	"github.com/quantumauth-io/nft-checkout/internal/nft"
	"github.com/quantumauth-io/nft-checkout/internal/route"
	"github.com/quantumauth-io/nft-checkout/internal/txexec"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	log.Info("nft-checkout",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := appconfig.Load()
	if err != nil {
		log.Fatal("failed to parse config", "error", err)
	}

	m := metrics.New()

	var bagOpts []bag.Option
	if cfg.Bag.Persist {
		p, err := bag.NewPersister()
		if err != nil {
			log.Error("bag persistence disabled", "error", err)
		} else {
			bagOpts = append(bagOpts, bag.WithPersister(p))
		}
	}
	store := bag.NewStore(bagOpts...)
	m.SetBagSize(len(store.State().Items))

	chain, err := chains.Dial(ctx, chains.Config{
		RPCURL:        cfg.Chain.RPCURL,
		ChainID:       cfg.Chain.ChainID,
		HeaderRefresh: cfg.Chain.HeaderRefresh,
	})
	if err != nil {
		log.Error("chain init failed", "error", err)
		return
	}
	defer chain.Close()

	chainID, err := chain.ChainID(ctx)
	if err != nil {
		log.Error("chain id lookup failed", "error", err)
		return
	}

	wallet, err := openWallet(cfg.Wallet)
	if err != nil {
		log.Error("wallet init failed", "error", err)
		return
	}

	hc := &http.Client{Timeout: cfg.Router.Timeout}
	router, err := route.NewClient(cfg.Router.URL,
		route.WithHTTPClient(hc),
		route.WithMaxRetryDelay(cfg.Router.MaxRetryDelay),
		route.WithMaxRetries(cfg.Router.MaxRetries),
	)
	if err != nil {
		log.Error("router client init failed", "error", err)
		return
	}

	executor := txexec.NewExecutor(chain, wallet,
		txexec.WithChainID(chainID),
		txexec.WithPollInterval(cfg.Receipts.PollInterval, cfg.Receipts.MaxPollInterval),
	)
	holdings := assets.NewManager(chain)
	co := checkout.NewService(store, router, executor, m, checkout.WithFundsCheck(holdings))

	var lister apihttp.ListingRunner
	if wallet != nil {
		orders, err := listing.NewOrderService(cfg.Orders.URL, hc)
		if err != nil {
			log.Error("order service init failed", "error", err)
			return
		}
		markets := []listing.Marketplace{
			listing.NewOpenSea(chainID, listing.NewSeaportCounter(chain), orders),
			listing.NewLooksRare(chainID, orders, orders),
			listing.NewX2Y2(orders),
		}
		lister = listing.NewLister(wallet, markets,
			listing.WithApprovals(listing.NewApprovalChecker(chain), executor),
			listing.WithOwnership(holdings),
			listing.WithObservers(func(row nft.ListingRow) {
				m.ObserveListing(string(row.Marketplace), string(row.Status))
			}, nil),
		)
	} else {
		log.Warn("no wallet configured; purchases and listings are disabled")
	}

	handler := apihttp.NewHandler(store, co, lister, m)
	server := apihttp.NewServer(cfg.Server.Host, cfg.Server.Port, apihttp.NewRouter(handler, m, cfg.Server.AllowOrigins))

	if err = server.Run(ctx); err != nil {
		log.Error("HTTP server error", "error", err)
	}
}

// openWallet returns nil when no signer is configured.
func openWallet(cfg appconfig.WalletSettings) (wtypes.Wallet, error) {
	if cfg.PrivateKey != "" {
		w, err := userwallet.FromHex(cfg.PrivateKey)
		if err != nil {
			return nil, err
		}
		log.Info("using configured private key", "address", w.Address().Hex())
		return w, nil
	}
	if cfg.Password == "" {
		return nil, nil
	}

	ws, err := userwallet.NewStore()
	if err != nil {
		return nil, err
	}
	w, err := ws.Ensure([]byte(cfg.Password))
	if err != nil {
		return nil, err
	}
	log.Info("opened sealed wallet", "path", ws.Path, "address", w.Address().Hex())
	return w, nil
}
