package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	c := New()
	c.ObserveRoute("ok", 120*time.Millisecond)
	c.ObserveRoute("empty", 10*time.Millisecond)
	c.ObservePurchase("SUCCESS", 2, 1)
	c.ObserveListing("x2y2", "APPROVED")
	c.SetBagSize(3)

	require.Equal(t, 1.0, testutil.ToFloat64(c.routeFetches.WithLabelValues("ok")))
	require.Equal(t, 2.0, testutil.ToFloat64(c.purchased))
	require.Equal(t, 1.0, testutil.ToFloat64(c.refunded))
	require.Equal(t, 1.0, testutil.ToFloat64(c.listings.WithLabelValues("x2y2", "APPROVED")))
	require.Equal(t, 3.0, testutil.ToFloat64(c.bagSize))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "nft_checkout_purchase_transactions_total")
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.ObserveRoute("ok", time.Second)
	c.ObservePurchase("FAILED", 0, 1)
	c.SetBagSize(1)
}
