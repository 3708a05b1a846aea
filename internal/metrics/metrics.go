// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// インポータとハンドラー層から利用する。
type MetricsCollector interface {
	RecordPageCreated(pageType string)
	RecordPageUpdated(pageType string)
	RecordPostSkipped(reason string)
	RecordPostFailed(reason string)
	RecordAssetFetched(kind string)
	RecordAssetFetchFailure(kind string)
	RecordResidualShortcode()
	RecordFetchLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	pagesCreated      *prometheus.CounterVec
	pagesUpdated      *prometheus.CounterVec
	postsSkipped      *prometheus.CounterVec
	postsFailed       *prometheus.CounterVec
	assetsFetched     *prometheus.CounterVec
	assetFetchFail    *prometheus.CounterVec
	residualShortcode prometheus.Counter
	fetchLatency      prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		pagesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "migcontrol_import_pages_created_total",
			Help: "インポートで新規作成されたページの合計数",
		}, []string{"page_type"}),
		pagesUpdated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "migcontrol_import_pages_updated_total",
			Help: "インポートで更新されたページの合計数",
		}, []string{"page_type"}),
		postsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "migcontrol_import_posts_skipped_total",
			Help: "スキップされた投稿の合計数",
		}, []string{"reason"}),
		postsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "migcontrol_import_posts_failed_total",
			Help: "インポートに失敗した投稿の合計数",
		}, []string{"reason"}),
		assetsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "migcontrol_import_assets_fetched_total",
			Help: "取得に成功したアセットの合計数",
		}, []string{"kind"}),
		assetFetchFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "migcontrol_import_asset_fetch_fail_total",
			Help: "取得に失敗したアセットの合計数",
		}, []string{"kind"}),
		residualShortcode: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "migcontrol_import_residual_shortcode_total",
			Help: "未処理ショートコードの残存により中断した投稿の合計数",
		}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "migcontrol_import_fetch_latency_seconds",
			Help:    "アセット取得のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.pagesCreated,
		c.pagesUpdated,
		c.postsSkipped,
		c.postsFailed,
		c.assetsFetched,
		c.assetFetchFail,
		c.residualShortcode,
		c.fetchLatency,
	)

	return c
}

// RecordPageCreated はページの新規作成を記録する。
func (c *Collector) RecordPageCreated(pageType string) {
	c.pagesCreated.WithLabelValues(pageType).Inc()
}

// RecordPageUpdated はページの更新を記録する。
func (c *Collector) RecordPageUpdated(pageType string) {
	c.pagesUpdated.WithLabelValues(pageType).Inc()
}

// RecordPostSkipped は投稿のスキップを記録する。
func (c *Collector) RecordPostSkipped(reason string) {
	c.postsSkipped.WithLabelValues(reason).Inc()
}

// RecordPostFailed は投稿のインポート失敗を記録する。
func (c *Collector) RecordPostFailed(reason string) {
	c.postsFailed.WithLabelValues(reason).Inc()
}

// RecordAssetFetched はアセット取得成功を記録する。
func (c *Collector) RecordAssetFetched(kind string) {
	c.assetsFetched.WithLabelValues(kind).Inc()
}

// RecordAssetFetchFailure はアセット取得失敗を記録する。
func (c *Collector) RecordAssetFetchFailure(kind string) {
	c.assetFetchFail.WithLabelValues(kind).Inc()
}

// RecordResidualShortcode は未処理ショートコードによる中断を記録する。
func (c *Collector) RecordResidualShortcode() {
	c.residualShortcode.Inc()
}

// RecordFetchLatency はアセット取得のレイテンシを記録する。
func (c *Collector) RecordFetchLatency(duration time.Duration) {
	c.fetchLatency.Observe(duration.Seconds())
}

// SetupMetricsRoute はメトリクス公開用のHTTPハンドラーを返す。
func SetupMetricsRoute(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
