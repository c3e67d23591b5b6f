// Package metrics 定义 Prometheus 指标
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "milkdesk"

// HTTPRequests HTTP 请求计数
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "Total HTTP requests by route, method and status.",
}, []string{"route", "method", "status"})

// HTTPDuration HTTP 请求耗时
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency by route and method.",
	Buckets:   prometheus.DefBuckets,
}, []string{"route", "method"})

// LedgerMutations 余额变动次数
var LedgerMutations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "mutations_total",
	Help:      "Token ledger mutations by direction and reason.",
}, []string{"direction", "reason"})

// LedgerTokens 余额变动张数
var LedgerTokens = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "tokens_total",
	Help:      "Token quantity moved through the ledger by direction.",
}, []string{"direction"})

// LedgerRejected 因余额不足被拒绝的扣减
var LedgerRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "rejected_total",
	Help:      "Debits rejected for insufficient balance, by reason.",
}, []string{"reason"})

// LedgerDrift 最近一次对账发现的偏差行数
var LedgerDrift = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "drift_rows",
	Help:      "Balance rows that disagreed with their journal in the last audit.",
})

// OrderTransitions 订单状态流转次数
var OrderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "orders",
	Name:      "transitions_total",
	Help:      "Order status transitions by target status and mode.",
}, []string{"status", "mode"})

// OtpEvents OTP 登录事件
var OtpEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "otp",
	Name:      "events_total",
	Help:      "OTP login events by kind and outcome.",
}, []string{"event", "outcome"})

// RateLimited 被限流拒绝的登录类请求
var RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "auth",
	Name:      "rate_limited_total",
	Help:      "Auth requests rejected by a rate limit rule.",
}, []string{"rule"})

// RefreshSubscribers 当前刷新订阅者数量
var RefreshSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "refresh",
	Name:      "subscribers",
	Help:      "Connected refresh subscribers.",
})

// RefreshDropped 因订阅者缓冲已满而丢弃的事件
var RefreshDropped = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "refresh",
	Name:      "dropped_total",
	Help:      "Refresh events dropped because a subscriber buffer was full.",
})

// ObserveHTTP 记录一次 HTTP 请求
func ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// ObserveLedger 记录一次余额变动
func ObserveLedger(direction, reason string, quantity int) {
	LedgerMutations.WithLabelValues(direction, reason).Inc()
	if quantity > 0 {
		LedgerTokens.WithLabelValues(direction).Add(float64(quantity))
	}
}

// ObserveOrderTransition 记录订单状态流转
func ObserveOrderTransition(status, mode string, count int) {
	if count <= 0 {
		return
	}
	OrderTransitions.WithLabelValues(status, mode).Add(float64(count))
}

// ObserveOtp 记录 OTP 事件
func ObserveOtp(event, outcome string) {
	OtpEvents.WithLabelValues(event, outcome).Inc()
}

// ObserveRateLimited 记录一次限流拒绝
func ObserveRateLimited(rule string) {
	if rule == "" {
		rule = "unnamed"
	}
	RateLimited.WithLabelValues(rule).Inc()
}
