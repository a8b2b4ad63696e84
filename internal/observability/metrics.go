package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 追溯增强步骤
const (
	StepLedger = "ledger"
	StepQR     = "qr"
	StepNotary = "notary"
	StepPDF    = "certificate_pdf"
)

var (
	// HTTPRequests 按方法/路由/状态计数
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ayutrace_http_requests_total",
		Help: "Total HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	// HTTPDuration 请求耗时
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ayutrace_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// EnrichmentFailures 追溯增强（账本/二维码/公证/证书PDF）失败次数
	EnrichmentFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ayutrace_enrichment_failures_total",
		Help: "Best-effort enrichment failures by step.",
	}, []string{"step"})

	// LedgerEvents 已写入的供应链事件
	LedgerEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ayutrace_ledger_events_total",
		Help: "Supply chain events written by type.",
	}, []string{"event_type"})
)
