package http

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"github.com/quantumauth-io/nft-checkout/internal/bag"
	"github.com/quantumauth-io/nft-checkout/internal/checkout"
	"github.com/quantumauth-io/nft-checkout/internal/listing"
	"github.com/quantumauth-io/nft-checkout/internal/metrics"
	"github.com/quantumauth-io/nft-checkout/internal/nft"
	"github.com/quantumauth-io/nft-checkout/internal/pool"
	"github.com/quantumauth-io/nft-checkout/internal/route"
	"github.com/quantumauth-io/nft-checkout/internal/txexec"
	"github.com/quantumauth-io/nft-checkout/internal/utils"
)

type Handler struct {
	store    *bag.Store
	checkout CheckoutService
	lister   ListingRunner
	metrics  *metrics.Collector
}

// NewHandler wires the API to the engine. lister may be nil when no
// wallet is configured; the listing endpoint then answers 503.
func NewHandler(store *bag.Store, co CheckoutService, lister ListingRunner, m *metrics.Collector) *Handler {
	return &Handler{
		store:    store,
		checkout: co,
		lister:   lister,
		metrics:  m,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// GET /api/bag
func (h *Handler) GetBag(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.State())
}

// POST /api/bag/assets
func (h *Handler) AddAssets(c *gin.Context) {
	var req assetsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !h.requireUnlocked(c) {
		return
	}
	for _, a := range req.Assets {
		if _, err := nft.NormalizeAddress(a.Address); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if pp := a.Pool(); pp != nil {
			if err := pp.Validate(); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}
	}

	st := h.store.AddAssets(req.Assets...)
	h.metrics.SetBagSize(len(st.Items))
	c.JSON(http.StatusOK, st)
}

// DELETE /api/bag/assets
func (h *Handler) RemoveAssets(c *gin.Context) {
	var req assetsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !h.requireUnlocked(c) {
		return
	}

	st := h.store.RemoveAssets(req.Assets...)
	h.metrics.SetBagSize(len(st.Items))
	c.JSON(http.StatusOK, st)
}

// POST /api/bag/clear
func (h *Handler) ClearBag(c *gin.Context) {
	if !h.requireUnlocked(c) {
		return
	}
	st := h.store.Dispatch(bag.Clear{})
	h.metrics.SetBagSize(len(st.Items))
	c.JSON(http.StatusOK, st)
}

// POST /api/bag/unavailable/seen
func (h *Handler) MarkUnavailableSeen(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Dispatch(bag.MarkUnavailableSeen{}))
}

// POST /api/checkout
func (h *Handler) Checkout(c *gin.Context) {
	var req checkoutReq
	// empty body means "use the configured wallet"
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	res, err := h.checkout.Checkout(c.Request.Context(), req.Sender)
	c.JSON(statusFor(err), toCheckoutRes(res, err))
}

// POST /api/checkout/review
func (h *Handler) ReviewAsset(c *gin.Context) {
	var req reviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Asset.Address == "" || req.Asset.TokenID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrAssetRequired.Error()})
		return
	}
	c.JSON(http.StatusOK, h.checkout.ReviewAsset(req.Asset, req.Keep))
}

// POST /api/checkout/confirm
func (h *Handler) Confirm(c *gin.Context) {
	res, err := h.checkout.Confirm(c.Request.Context())
	c.JSON(statusFor(err), toCheckoutRes(res, err))
}

// POST /api/pool/price
func (h *Handler) PoolPrice(c *gin.Context) {
	var req poolPriceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pp := req.Asset.Pool()
	if pp == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrNotPooled.Error()})
		return
	}
	if err := pp.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	price, ok := pool.Price(req.Asset, req.Position)
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": ErrUnpriceable.Error()})
		return
	}
	c.JSON(http.StatusOK, poolPriceRes{Price: price, Display: utils.FormatWeiToDecimal(price)})
}

// POST /api/listings
func (h *Handler) CreateListings(c *gin.Context) {
	if h.lister == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": txexec.ErrMissingSigner.Error()})
		return
	}
	var req listingsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.lister.Run(c.Request.Context(), req.Rows)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/listings/fees
func (h *Handler) ListingFees(c *gin.Context) {
	var req listingsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := feesRes{Fees: make([]listing.Fees, 0, len(req.Rows))}
	markets := make([]nft.Marketplace, 0, len(req.Rows))
	for _, row := range req.Rows {
		res.Fees = append(res.Fees, listing.ListingFees(row))
		markets = append(markets, row.Marketplace)
	}
	res.MaxFeeBps = listing.MaxMarketFeeBps(markets)
	c.JSON(http.StatusOK, res)
}

func (h *Handler) requireUnlocked(c *gin.Context) bool {
	if h.store.State().Locked {
		c.JSON(http.StatusConflict, gin.H{"error": ErrBagLocked.Error()})
		return false
	}
	return true
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, checkout.ErrBusy), errors.Is(err, checkout.ErrStaleRoute):
		return http.StatusConflict
	case errors.Is(err, route.ErrNoRoute):
		return http.StatusBadGateway
	case errors.Is(err, txexec.ErrMissingSigner):
		return http.StatusServiceUnavailable
	case errors.Is(err, checkout.ErrEmptyBag),
		errors.Is(err, checkout.ErrNothingToBuy),
		errors.Is(err, route.ErrMissingSender),
		errors.Is(err, txexec.ErrMissingRouteData):
		return http.StatusBadRequest
	case errors.Is(err, checkout.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}
