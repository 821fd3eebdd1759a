package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ordersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "escrow_orders_created_total",
		Help: "Number of orders created",
	})

	orderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "escrow_order_transitions_total",
		Help: "Order status transitions",
	}, []string{"from", "to"})

	escrowSettlements = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "escrow_settlements_total",
		Help: "Escrow settlements by outcome",
	}, []string{"outcome"})

	escrowSettledAmount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "escrow_settled_amount_total",
		Help: "Settled escrow amount by outcome",
	}, []string{"outcome"})

	disputeActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "escrow_dispute_actions_total",
		Help: "Dispute lifecycle actions",
	}, []string{"action"})

	withdrawalActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "escrow_withdrawal_actions_total",
		Help: "Withdrawal pipeline actions",
	}, []string{"action"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

func OrderCreated() {
	ordersCreated.Inc()
}

func OrderTransition(from, to string) {
	orderTransitions.WithLabelValues(from, to).Inc()
}

// EscrowSettled учитывает выплату (released) или возврат (refunded).
func EscrowSettled(outcome string, amount float64) {
	escrowSettlements.WithLabelValues(outcome).Inc()
	escrowSettledAmount.WithLabelValues(outcome).Add(amount)
}

func DisputeAction(action string) {
	disputeActions.WithLabelValues(action).Inc()
}

func WithdrawalAction(action string) {
	withdrawalActions.WithLabelValues(action).Inc()
}

// Middleware замеряет длительность запросов по шаблону маршрута.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler отдаёт метрики в формате Prometheus.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
