// Package metrics holds the service's business counters, registered on the
// default Prometheus registry next to the HTTP and Kafka metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CheckoutSessionsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parafort_checkout_sessions_started_total",
			Help: "Checkout sessions started, by service type",
		},
		[]string{"service_type"},
	)

	CheckoutStepsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parafort_checkout_steps_completed_total",
			Help: "Checkout wizard steps completed, by step name",
		},
		[]string{"step"},
	)

	VerificationCodesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parafort_verification_codes_sent_total",
			Help: "Email verification codes sent",
		},
	)

	VerificationResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parafort_verification_results_total",
			Help: "Email verification attempts, by result (matched, mismatch, missing, locked)",
		},
		[]string{"result"},
	)

	PaymentIntentsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parafort_payment_intents_created_total",
			Help: "PaymentIntents created, by provider",
		},
		[]string{"provider"},
	)

	OrdersCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parafort_formation_orders_created_total",
			Help: "Formation orders created, by completion source (client, webhook)",
		},
		[]string{"source"},
	)

	OrderStatusTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parafort_formation_order_transitions_total",
			Help: "Formation order status transitions",
		},
		[]string{"from", "to"},
	)

	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parafort_emails_sent_total",
			Help: "Emails handed to the sender, by template and result",
		},
		[]string{"template", "result"},
	)
)

// Result labels.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// ResultLabel maps an error to ResultSuccess or ResultFailure.
func ResultLabel(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
