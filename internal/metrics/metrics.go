// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェア、ハンドラー、ワーカーから利用する。
type MetricsCollector interface {
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
	RecordLogin(provider string, success bool)
	RecordSessionResolution(resolved bool)
	RecordRecipeMutation(operation string)
	RecordCleanupDeleted(table string, count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	logins          *prometheus.CounterVec
	sessionResolves *prometheus.CounterVec
	recipeMutations *prometheus.CounterVec
	cleanupDeleted  *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recipebox_http_requests_total",
			Help: "ルート・メソッド・ステータスコード別のHTTPリクエスト数",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recipebox_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recipebox_logins_total",
			Help: "プロバイダー・結果別のログイン数",
		}, []string{"provider", "result"}),
		sessionResolves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recipebox_session_resolutions_total",
			Help: "セッション解決の結果別の件数",
		}, []string{"result"}),
		recipeMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recipebox_recipe_mutations_total",
			Help: "操作別のレシピ変更数",
		}, []string{"operation"}),
		cleanupDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recipebox_cleanup_deleted_total",
			Help: "クリーンアップジョブで削除された行数",
		}, []string{"table"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.logins,
		c.sessionResolves,
		c.recipeMutations,
		c.cleanupDeleted,
	)

	return c
}

// RecordHTTPRequest はHTTPリクエストの件数と処理時間を記録する。
// routeにはパスそのものではなくchiのルートパターンを渡すこと。
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordLogin はログイン結果を記録する。
func (c *Collector) RecordLogin(provider string, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.logins.WithLabelValues(provider, result).Inc()
}

// RecordSessionResolution はセッション解決の結果を記録する。
func (c *Collector) RecordSessionResolution(resolved bool) {
	result := "anonymous"
	if resolved {
		result = "resolved"
	}
	c.sessionResolves.WithLabelValues(result).Inc()
}

// RecordRecipeMutation はレシピの作成・更新・削除を記録する。
func (c *Collector) RecordRecipeMutation(operation string) {
	c.recipeMutations.WithLabelValues(operation).Inc()
}

// RecordCleanupDeleted はクリーンアップで削除された行数を記録する。
func (c *Collector) RecordCleanupDeleted(table string, count int64) {
	c.cleanupDeleted.WithLabelValues(table).Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// NopCollector は何も記録しないMetricsCollector。
type NopCollector struct{}

func (NopCollector) RecordHTTPRequest(string, string, int, time.Duration) {}
func (NopCollector) RecordLogin(string, bool)                            {}
func (NopCollector) RecordSessionResolution(bool)                        {}
func (NopCollector) RecordRecipeMutation(string)                         {}
func (NopCollector) RecordCleanupDeleted(string, int64)                  {}

// compile-time interface check
var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = NopCollector{}
)
