package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	CheckoutSessionsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_sessions_created_total",
			Help: "Total number of hosted checkout sessions created",
		},
	)

	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stripe_webhook_events_total",
			Help: "Total number of Stripe webhook deliveries by outcome",
		},
		[]string{"outcome"},
	)

	EmailsDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emails_dispatched_total",
			Help: "Total number of email dispatch attempts by template and outcome",
		},
		[]string{"template", "outcome"},
	)
)

func Register() {
	prometheus.MustRegister(
		CheckoutSessionsCreated,
		WebhookEvents,
		EmailsDispatched,
	)
}
