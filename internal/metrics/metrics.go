package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gymdesk_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	SubscriptionsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_subscriptions_created_total",
			Help: "Total number of subscriptions created",
		},
		[]string{"kind", "source"},
	)

	SubscriptionTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_subscription_transitions_total",
			Help: "Lifecycle transitions applied to subscriptions",
		},
		[]string{"kind", "to"},
	)

	PaymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_payments_total",
			Help: "Total number of recorded payments",
		},
		[]string{"kind", "method", "status"},
	)

	PaymentAmountTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_payment_amount_total",
			Help: "Sum of paid payment amounts",
		},
		[]string{"kind"},
	)

	RefundsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_refunds_total",
			Help: "Total number of refunded payments",
		},
		[]string{"kind"},
	)

	ExpirySweepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_expiry_sweeps_total",
			Help: "Expiry sweeper runs by outcome",
		},
		[]string{"status"},
	)

	ExpiredSubscriptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_expired_subscriptions_total",
			Help: "Subscriptions flipped to expired or renewed by the sweeper",
		},
		[]string{"outcome"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gymdesk_notifications_total",
			Help: "Total number of notification deliveries",
		},
		[]string{"kind", "status"},
	)

	NotificationQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gymdesk_notification_queue_length",
			Help: "Current length of the notification queue",
		},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymdesk_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)

	IdempotentReplaysTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gymdesk_idempotent_replays_total",
			Help: "Mutations answered from the idempotency store",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordSubscription counts a new subscription. source is "enrollment" or "renewal".
func RecordSubscription(kind, source string) {
	SubscriptionsCreatedTotal.WithLabelValues(kind, source).Inc()
}

func RecordTransition(kind, to string) {
	SubscriptionTransitionsTotal.WithLabelValues(kind, to).Inc()
}

func RecordPayment(kind, method, status string, amount float64) {
	PaymentsTotal.WithLabelValues(kind, method, status).Inc()
	if status == "paid" {
		PaymentAmountTotal.WithLabelValues(kind).Add(amount)
	}
}

func RecordRefund(kind string) {
	RefundsTotal.WithLabelValues(kind).Inc()
}

func RecordExpirySweep(status string, expired, renewed int) {
	ExpirySweepsTotal.WithLabelValues(status).Inc()
	ExpiredSubscriptionsTotal.WithLabelValues("expired").Add(float64(expired))
	ExpiredSubscriptionsTotal.WithLabelValues("renewed").Add(float64(renewed))
}

func RecordNotification(kind, status string) {
	NotificationsTotal.WithLabelValues(kind, status).Inc()
}

func RecordRateLimited() {
	RateLimitedTotal.Inc()
}

func RecordIdempotentReplay() {
	IdempotentReplaysTotal.Inc()
}
