// Package metrics defines and registers all custom Prometheus metrics for
// the shipping agent. It is the single source of truth for metric names,
// labels, and help strings. Metrics register with the default registry at
// package load; the router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shipping_agent"

// QuotesFetchedTotal counts completed quote flows.
var QuotesFetchedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quotes_fetched_total",
		Help:      "Total number of quote requests that returned a rate list.",
	},
)

// LabelsPurchasedTotal counts purchased labels.
// Label:
//   - carrier: the carrier the label was bought from (e.g. "USPS")
var LabelsPurchasedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "labels_purchased_total",
		Help:      "Total number of shipping labels purchased, by carrier.",
	},
	[]string{"carrier"},
)

// ModelFallbacksTotal counts times a model reply was replaced by the
// documented fallback value.
// Label:
//   - component: "extractor" or "advisor"
var ModelFallbacksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "model_fallbacks_total",
		Help:      "Total number of model calls whose result was replaced by the fallback.",
	},
	[]string{"component"},
)

// PaymentChallengesTotal counts 402 challenges issued to callers without
// payment proof.
// Label:
//   - scheme: "x402" or "txhash"
var PaymentChallengesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_challenges_total",
		Help:      "Total number of 402 payment-required responses, by scheme.",
	},
	[]string{"scheme"},
)

// PaymentVerificationsTotal counts payment proof checks.
// Labels:
//   - scheme: "x402" or "txhash"
//   - result: "accepted" or "rejected"
var PaymentVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_verifications_total",
		Help:      "Total number of payment proof verification attempts, by scheme and result.",
	},
	[]string{"scheme", "result"},
)
