package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics exports cart activity.
type CartMetrics struct {
	mutations *prometheus.CounterVec
	items     *prometheus.GaugeVec
	checkouts prometheus.Counter
	resets    prometheus.Counter
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart state changes by action.",
	}, []string{"action"})
	items := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cart_items",
		Help: "Total item quantity currently in the cart.",
	}, []string{"scope"})
	checkouts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_checkouts_total",
		Help: "Orders placed from a cart.",
	})
	resets := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_storage_resets_total",
		Help: "Stored carts replaced by an empty cart because they were unreadable.",
	})
	reg.MustRegister(mutations, items, checkouts, resets)
	return &CartMetrics{
		mutations: mutations,
		items:     items,
		checkouts: checkouts,
		resets:    resets,
	}
}

// IncMutation counts one state change.
func (c *CartMetrics) IncMutation(action string) {
	if c == nil || c.mutations == nil {
		return
	}
	c.mutations.WithLabelValues(normalizeLabel(action)).Inc()
}

// SetItems records the total quantity held by the cart of scope.
func (c *CartMetrics) SetItems(scope string, count int) {
	if c == nil || c.items == nil {
		return
	}
	c.items.WithLabelValues(normalizeLabel(scope)).Set(float64(count))
}

func (c *CartMetrics) IncCheckout() {
	if c == nil || c.checkouts == nil {
		return
	}
	c.checkouts.Inc()
}

func (c *CartMetrics) IncStorageReset() {
	if c == nil || c.resets == nil {
		return
	}
	c.resets.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
