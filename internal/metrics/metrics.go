// Package metrics exposes checkout and listing counters on a private
// prometheus registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nft_checkout"

type Collector struct {
	registry *prometheus.Registry

	routeFetches *prometheus.CounterVec
	routeLatency prometheus.Histogram
	txOutcomes   *prometheus.CounterVec
	purchased    prometheus.Counter
	refunded     prometheus.Counter
	listings     *prometheus.CounterVec
	bagSize      prometheus.Gauge
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		routeFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_fetches_total",
			Help:      "Router requests by outcome.",
		}, []string{"outcome"}),
		routeLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "route_fetch_seconds",
			Help:      "Router request latency.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		txOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purchase_transactions_total",
			Help:      "Purchase transactions by final state.",
		}, []string{"state"}),
		purchased: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assets_purchased_total",
			Help:      "Assets delivered by mined purchases.",
		}),
		refunded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assets_refunded_total",
			Help:      "Assets a mined purchase did not deliver.",
		}),
		listings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_total",
			Help:      "Listing rows by marketplace and final status.",
		}, []string{"marketplace", "status"}),
		bagSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bag_items",
			Help:      "Items currently in the bag.",
		}),
	}
	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.routeFetches,
		c.routeLatency,
		c.txOutcomes,
		c.purchased,
		c.refunded,
		c.listings,
		c.bagSize,
	)
	return c
}

// ObserveRoute records one router request. outcome is "ok", "empty" or
// "error".
func (c *Collector) ObserveRoute(outcome string, took time.Duration) {
	if c == nil {
		return
	}
	c.routeFetches.WithLabelValues(outcome).Inc()
	c.routeLatency.Observe(took.Seconds())
}

func (c *Collector) ObservePurchase(state string, purchased, refunded int) {
	if c == nil {
		return
	}
	c.txOutcomes.WithLabelValues(state).Inc()
	c.purchased.Add(float64(purchased))
	c.refunded.Add(float64(refunded))
}

func (c *Collector) ObserveListing(marketplace, status string) {
	if c == nil {
		return
	}
	c.listings.WithLabelValues(marketplace, status).Inc()
}

func (c *Collector) SetBagSize(n int) {
	if c == nil {
		return
	}
	c.bagSize.Set(float64(n))
}

func (c *Collector) Registry() *prometheus.Registry { return c.registry }

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
