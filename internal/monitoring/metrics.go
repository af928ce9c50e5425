package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 提交结果标签
const (
	OutcomeAccepted    = "accepted"
	OutcomeInvalid     = "invalid"
	OutcomeRateLimited = "rate_limited"
	OutcomeFailed      = "failed"
)

// Metrics 监控指标
//
// 所有 Record 方法对 nil 接收者安全，未启用监控时可直接传 nil。
type Metrics struct {
	registry *prometheus.Registry

	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	PanicsTotal         prometheus.Counter

	// 表单提交指标
	SubmissionsTotal   *prometheus.CounterVec
	SubmissionDuration *prometheus.HistogramVec
	EmailsTotal        *prometheus.CounterVec

	// 限流指标
	RateLimitBlocks *prometheus.CounterVec

	// 聊天代理指标
	ChatRequestsTotal *prometheus.CounterVec
	ChatInquiryHints  prometheus.Counter
}

// NewMetrics 在独立的注册表上创建监控指标
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "openlang_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "openlang_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		PanicsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "openlang_panics_total",
				Help: "Total number of recovered panics",
			},
		),

		SubmissionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "openlang_submissions_total",
				Help: "Form submissions by form and outcome",
			},
			[]string{"form", "outcome"},
		),

		SubmissionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "openlang_submission_duration_seconds",
				Help:    "Time spent processing an accepted submission, including email delivery",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"form"},
		),

		EmailsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "openlang_emails_total",
				Help: "Transactional emails by form, kind and result",
			},
			[]string{"form", "kind", "result"},
		),

		RateLimitBlocks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "openlang_rate_limit_blocks_total",
				Help: "Requests rejected by rate limiting",
			},
			[]string{"limit_type"},
		),

		ChatRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "openlang_chat_requests_total",
				Help: "Chat proxy requests by result",
			},
			[]string{"result"},
		),

		ChatInquiryHints: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "openlang_chat_inquiry_hints_total",
				Help: "Chat responses that asked the visitor to submit an inquiry",
			},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordPanic 记录 panic
func (m *Metrics) RecordPanic() {
	if m == nil {
		return
	}
	m.PanicsTotal.Inc()
}

// RecordSubmission 记录一次表单提交的结果
func (m *Metrics) RecordSubmission(form, outcome string) {
	if m == nil {
		return
	}
	m.SubmissionsTotal.WithLabelValues(form, outcome).Inc()
}

// ObserveSubmission 记录已接受提交的处理耗时
func (m *Metrics) ObserveSubmission(form string, duration time.Duration) {
	if m == nil {
		return
	}
	m.SubmissionDuration.WithLabelValues(form).Observe(duration.Seconds())
}

// RecordEmail 记录邮件投递结果，kind 为 confirmation 或 notification
func (m *Metrics) RecordEmail(form, kind, result string) {
	if m == nil {
		return
	}
	m.EmailsTotal.WithLabelValues(form, kind, result).Inc()
}

// RecordRateLimitBlock 记录限流阻止
func (m *Metrics) RecordRateLimitBlock(limitType string) {
	if m == nil {
		return
	}
	m.RateLimitBlocks.WithLabelValues(limitType).Inc()
}

// RecordChatRequest 记录聊天代理请求
func (m *Metrics) RecordChatRequest(result string) {
	if m == nil {
		return
	}
	m.ChatRequestsTotal.WithLabelValues(result).Inc()
}

// RecordInquiryHint 记录模型输出了转人工标记
func (m *Metrics) RecordInquiryHint() {
	if m == nil {
		return
	}
	m.ChatInquiryHints.Inc()
}

// Registry 返回指标注册表
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// HTTPHandler 返回 Prometheus HTTP 处理器
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
