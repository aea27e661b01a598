// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層から利用する。
type MetricsCollector interface {
	RecordIdentityResolved(source string)
	RecordIdentityCreated()
	RecordConnectionRequested()
	RecordConnectionTransition(status string)
	RecordConnectionRemoved()
	RecordNotificationEmitted(notificationType string)
	RecordNotificationFailure()
	RecordSuggestionLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	identityResolved     *prometheus.CounterVec
	identityCreated      prometheus.Counter
	connectionRequested  prometheus.Counter
	connectionTransition *prometheus.CounterVec
	connectionRemoved    prometheus.Counter
	notificationEmitted  *prometheus.CounterVec
	notificationFail     prometheus.Counter
	suggestionLatency    prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		identityResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "careerlink_identity_resolved_total",
			Help: "ID解決成功のソース別合計数",
		}, []string{"source"}),
		identityCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "careerlink_identity_created_total",
			Help: "遅延作成された統合ユーザーの合計数",
		}),
		connectionRequested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "careerlink_connection_requested_total",
			Help: "作成されたコネクション申請の合計数",
		}),
		connectionTransition: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "careerlink_connection_transition_total",
			Help: "コネクションの状態遷移の遷移先別合計数",
		}, []string{"status"}),
		connectionRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "careerlink_connection_removed_total",
			Help: "削除されたコネクションの合計数",
		}),
		notificationEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "careerlink_notification_emitted_total",
			Help: "発行された通知の種類別合計数",
		}, []string{"type"}),
		notificationFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "careerlink_notification_fail_total",
			Help: "発行に失敗した通知の合計数",
		}),
		suggestionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "careerlink_suggestion_latency_seconds",
			Help:    "サジェスト計算のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.identityResolved,
		c.identityCreated,
		c.connectionRequested,
		c.connectionTransition,
		c.connectionRemoved,
		c.notificationEmitted,
		c.notificationFail,
		c.suggestionLatency,
	)

	return c
}

// RecordIdentityResolved はID解決の成功をソース別に記録する。
func (c *Collector) RecordIdentityResolved(source string) {
	c.identityResolved.WithLabelValues(source).Inc()
}

// RecordIdentityCreated は統合ユーザーの遅延作成を記録する。
func (c *Collector) RecordIdentityCreated() {
	c.identityCreated.Inc()
}

// RecordConnectionRequested はコネクション申請の作成を記録する。
func (c *Collector) RecordConnectionRequested() {
	c.connectionRequested.Inc()
}

// RecordConnectionTransition はコネクションの状態遷移を記録する。
func (c *Collector) RecordConnectionTransition(status string) {
	c.connectionTransition.WithLabelValues(status).Inc()
}

// RecordConnectionRemoved はコネクションの削除を記録する。
func (c *Collector) RecordConnectionRemoved() {
	c.connectionRemoved.Inc()
}

// RecordNotificationEmitted は通知の発行を種類別に記録する。
func (c *Collector) RecordNotificationEmitted(notificationType string) {
	c.notificationEmitted.WithLabelValues(notificationType).Inc()
}

// RecordNotificationFailure は通知の発行失敗を記録する。
func (c *Collector) RecordNotificationFailure() {
	c.notificationFail.Inc()
}

// RecordSuggestionLatency はサジェスト計算のレイテンシを記録する。
func (c *Collector) RecordSuggestionLatency(duration time.Duration) {
	c.suggestionLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
