// Package checkout runs the buy flow over the bag: fetch a route, reconcile
// it with what the user saw, and send the purchase when nothing needs
// review.
package checkout

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/quantumauth-io/nft-checkout/internal/bag"
	"github.com/quantumauth-io/nft-checkout/internal/metrics"
	"github.com/quantumauth-io/nft-checkout/internal/nft"
	"github.com/quantumauth-io/nft-checkout/internal/route"
	"github.com/quantumauth-io/nft-checkout/internal/txexec"
)

var (
	ErrEmptyBag     = errors.New("checkout: bag is empty")
	ErrStaleRoute   = errors.New("checkout: bag changed while the route was fetched")
	ErrNothingToBuy = errors.New("checkout: no reviewed route to confirm")
	ErrBusy         = errors.New("checkout: a checkout is already running")

	ErrInsufficientFunds = errors.New("checkout: wallet balance does not cover the route")
)

type RouteFetcher interface {
	FetchRoute(ctx context.Context, req route.Request) (*route.Response, error)
}

// Purchaser is implemented by *txexec.Executor.
type Purchaser interface {
	Signer() (common.Address, bool)
	Purchase(ctx context.Context, call txexec.Call, assets []nft.Asset, onState func(txexec.TxState)) (*txexec.Outcome, error)
}

// FundsChecker is implemented by *assets.Manager.
type FundsChecker interface {
	HasFunds(ctx context.Context, owner common.Address, need *big.Int) (bool, *big.Int, error)
}

type Service struct {
	store   *bag.Store
	router  RouteFetcher
	buyer   Purchaser
	funds   FundsChecker
	metrics *metrics.Collector

	mu      sync.Mutex
	running bool
	pending *route.Response
}

type Option func(*Service)

// WithFundsCheck refuses to send a route whose value the signer cannot pay.
func WithFundsCheck(f FundsChecker) Option {
	return func(s *Service) { s.funds = f }
}

func NewService(store *bag.Store, router RouteFetcher, buyer Purchaser, m *metrics.Collector, opts ...Option) *Service {
	s := &Service{store: store, router: router, buyer: buyer, metrics: m}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result is what one checkout step left behind.
type Result struct {
	Bag     bag.State       `json:"bag"`
	Review  *Summary        `json:"review,omitempty"`
	Outcome *txexec.Outcome `json:"outcome,omitempty"`
}

type Summary struct {
	Unavailable  int  `json:"unavailable"`
	PriceChanged int  `json:"priceChanged"`
	Unchanged    int  `json:"unchanged"`
	Adjusted     bool `json:"hasPriceAdjustment"`
}

// Checkout fetches a route for the bag and reconciles it. When no item
// needs the user's attention the purchase is sent right away; otherwise
// the bag is left in review and the route is held for Confirm. A router
// failure or an empty route puts the bag back in AddingToBag and returns
// route.ErrNoRoute.
func (s *Service) Checkout(ctx context.Context, sender string) (*Result, error) {
	if !s.begin() {
		return nil, ErrBusy
	}
	defer s.end()
	return s.checkout(ctx, sender)
}

func (s *Service) checkout(ctx context.Context, sender string) (*Result, error) {
	if sender == "" {
		if addr, ok := s.buyer.Signer(); ok {
			sender = addr.Hex()
		}
	}

	st := s.store.State()
	if len(st.Items) == 0 {
		return &Result{Bag: st}, ErrEmptyBag
	}
	req, err := route.BuildRequest(sender, st.Items, nil)
	if err != nil {
		return &Result{Bag: st}, err
	}

	revision := st.Revision
	s.store.Dispatch(bag.Lock{})
	s.store.Dispatch(bag.SetStatus{Status: nft.BagStatusFetchingRoute})

	resp, err := s.fetch(ctx, req)
	if err != nil || resp.Empty() {
		s.store.Dispatch(bag.SetStatus{Status: nft.BagStatusAddingToBag})
		st = s.store.Dispatch(bag.Unlock{})
		if err == nil {
			return &Result{Bag: st}, route.ErrNoRoute
		}
		return &Result{Bag: st}, errors.Mark(err, route.ErrNoRoute)
	}

	current := s.store.State()
	cmp := route.Compare(current.Items, resp.Route)
	review := route.NewReview(cmp.Items)
	ordered := review.Ordered()

	if _, applied := s.store.DispatchIfCurrent(revision, bag.SetItems{Items: ordered}); !applied {
		s.store.Dispatch(bag.SetStatus{Status: nft.BagStatusAddingToBag})
		st = s.store.Dispatch(bag.Unlock{})
		return &Result{Bag: st}, ErrStaleRoute
	}

	summary := &Summary{
		Unavailable:  len(review.Unavailable),
		PriceChanged: len(review.PriceChanged),
		Unchanged:    len(review.Unchanged),
		Adjusted:     cmp.HasPriceAdjustment,
	}
	needsReview := cmp.HasPriceAdjustment || len(review.Unavailable) > 0
	log.Info("route reconciled",
		"unavailable", summary.Unavailable,
		"price_changed", summary.PriceChanged,
		"unchanged", summary.Unchanged,
		"needs_review", needsReview,
	)

	if !needsReview {
		s.store.Dispatch(bag.SetStatus{Status: nft.BagStatusConfirmingInWallet})
		outcome, err := s.purchase(ctx, resp, nft.Assets(review.Purchasable()))
		return &Result{Bag: s.store.State(), Review: summary, Outcome: outcome}, err
	}

	s.store.Dispatch(bag.Unlock{})
	switch {
	case len(review.Purchasable()) == 0:
		st = s.store.Dispatch(bag.SetStatus{Status: nft.BagStatusAddingToBag})
	case len(review.PriceChanged) == 0:
		st = s.store.Dispatch(bag.SetStatus{Status: nft.BagStatusConfirmReview})
		s.hold(resp)
	default:
		st = s.store.Dispatch(bag.SetStatus{Status: nft.BagStatusInReview})
		s.hold(resp)
	}
	return &Result{Bag: st, Review: summary}, nil
}

// ReviewAsset accepts or drops one price-changed item. Once nothing is left
// to review the bag moves to ConfirmReview.
func (s *Service) ReviewAsset(asset nft.Asset, keep bool) bag.State {
	st := s.store.Dispatch(bag.ReviewAsset{Asset: asset, Keep: keep})
	if st.Status != nft.BagStatusInReview {
		return st
	}
	for _, it := range st.Items {
		if it.Status == nft.BagItemReviewingPriceChange {
			return st
		}
	}
	return s.store.Dispatch(bag.SetStatus{Status: nft.BagStatusConfirmReview})
}

// Confirm sends the held route for the items still purchasable. If the
// user dropped an item during review the held route would still buy it,
// so a fresh checkout runs instead.
func (s *Service) Confirm(ctx context.Context) (*Result, error) {
	if !s.begin() {
		return nil, ErrBusy
	}
	defer s.end()

	s.mu.Lock()
	resp := s.pending
	s.mu.Unlock()

	st := s.store.Dispatch(bag.Lock{})
	if resp == nil || (st.Status != nft.BagStatusConfirmReview && st.Status != nft.BagStatusInReview) {
		return &Result{Bag: s.store.Dispatch(bag.Unlock{})}, ErrNothingToBuy
	}

	var assets []nft.Asset
	for _, it := range st.Items {
		if !it.IsUnavailable {
			assets = append(assets, it.Asset)
		}
	}
	if len(assets) == 0 {
		return &Result{Bag: s.store.Dispatch(bag.Unlock{})}, ErrNothingToBuy
	}
	if !coversExactly(resp.Route, assets) {
		s.hold(nil)
		s.store.Dispatch(bag.Unlock{})
		return s.checkout(ctx, "")
	}

	s.store.Dispatch(bag.SetStatus{Status: nft.BagStatusConfirmingInWallet})
	outcome, err := s.purchase(ctx, resp, assets)
	return &Result{Bag: s.store.State(), Outcome: outcome}, err
}

// Purchase sends resp for assets. The bag stays locked until the
// transaction is settled. Transaction states drive the bag: a pending
// transaction shows ProcessingTransaction, a wallet rejection goes back
// to ConfirmReview, any other submission error to Warning, and a mined
// transaction resets the bag to what was not bought.
func (s *Service) Purchase(ctx context.Context, resp *route.Response, assets []nft.Asset) (*txexec.Outcome, error) {
	return s.purchase(ctx, resp, assets)
}

func (s *Service) purchase(ctx context.Context, resp *route.Response, assets []nft.Asset) (*txexec.Outcome, error) {
	s.store.Dispatch(bag.Lock{})
	if err := s.checkFunds(ctx, resp.Value); err != nil {
		s.store.Dispatch(bag.SetStatus{Status: nft.BagStatusWarning})
		s.store.Dispatch(bag.Unlock{})
		return nil, err
	}

	call := txexec.Call{To: resp.To, Data: resp.Data, Value: resp.Value}
	outcome, err := s.buyer.Purchase(ctx, call, assets, func(state txexec.TxState) {
		switch state {
		case txexec.TxConfirming:
			s.store.Dispatch(bag.SetStatus{Status: nft.BagStatusProcessingTransaction})
		case txexec.TxDenied:
			s.store.Dispatch(bag.SetStatus{Status: nft.BagStatusConfirmReview})
		case txexec.TxInvalid:
			s.store.Dispatch(bag.SetStatus{Status: nft.BagStatusWarning})
		}
	})
	if err != nil {
		s.store.Dispatch(bag.SetStatus{Status: nft.BagStatusWarning})
		s.store.Dispatch(bag.Unlock{})
		return nil, err
	}

	switch outcome.State {
	case txexec.TxSuccess, txexec.TxFailed:
		// unlocks
		st := s.store.Dispatch(bag.ResetAfterPurchase{Purchased: outcome.Purchased})
		s.hold(nil)
		s.metrics.SetBagSize(len(st.Items))
	case txexec.TxDenied:
		s.hold(resp)
		s.store.Dispatch(bag.Unlock{})
	default:
		s.store.Dispatch(bag.Unlock{})
	}
	s.metrics.ObservePurchase(string(outcome.State), len(outcome.Purchased), len(outcome.NotPurchased))
	return outcome, nil
}

// checkFunds only fails on a known shortfall; a balance lookup error is
// left to the wallet to surface.
func (s *Service) checkFunds(ctx context.Context, value *big.Int) error {
	if s.funds == nil || value == nil || value.Sign() == 0 {
		return nil
	}
	signer, ok := s.buyer.Signer()
	if !ok {
		return nil
	}
	enough, balance, err := s.funds.HasFunds(ctx, signer, value)
	if err != nil {
		log.Warn("balance check failed", "error", err)
		return nil
	}
	if !enough {
		return errors.Wrapf(ErrInsufficientFunds, "balance %s, route needs %s", balance, value)
	}
	return nil
}

func (s *Service) fetch(ctx context.Context, req route.Request) (*route.Response, error) {
	start := time.Now()
	resp, err := s.router.FetchRoute(ctx, req)
	outcome := "ok"
	switch {
	case errors.Is(err, route.ErrNoRoute) || (err == nil && resp.Empty()):
		outcome = "empty"
	case err != nil:
		outcome = "error"
	}
	s.metrics.ObserveRoute(outcome, time.Since(start))
	if err != nil {
		log.Warn("route fetch failed", "error", err)
	}
	return resp, err
}

func coversExactly(legs []nft.RoutingItem, assets []nft.Asset) bool {
	buys := 0
	for _, leg := range legs {
		if leg.Action != nft.RouteActionBuy {
			continue
		}
		buys++
		found := false
		for _, a := range assets {
			if leg.Matches(a) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return buys == len(assets)
}

func (s *Service) hold(resp *route.Response) {
	s.mu.Lock()
	s.pending = resp
	s.mu.Unlock()
}

func (s *Service) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *Service) end() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}
