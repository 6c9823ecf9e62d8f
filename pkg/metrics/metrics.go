package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics はWebhook処理の監視用メトリクス一式。
// テストごとに独立したRegistryを持てるよう、パッケージ変数ではなく
// 構造体として生成してサーバーに注入する。
type Metrics struct {
	// registry はこのメトリクス一式を登録したRegistry。
	registry *prometheus.Registry

	// WebhookEventsTotal は受信したWebhookイベントの総数。
	WebhookEventsTotal prometheus.Counter
	// WebhookEventsRejectedTotal は認証ゲートで拒否されたイベントの総数。
	WebhookEventsRejectedTotal prometheus.Counter
	// TokenExchangesTotal はインストールトークン交換の実行回数。
	TokenExchangesTotal prometheus.Counter
	// EventProcessingDuration はイベント1件の処理時間（秒）。
	EventProcessingDuration prometheus.Histogram
}

// New は新しいメトリクス一式を生成してRegistryに登録する。
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		WebhookEventsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Total number of webhook events received",
		}),
		WebhookEventsRejectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "webhook_events_rejected_total",
			Help: "Total number of webhook events rejected by the auth gate",
		}),
		TokenExchangesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "token_exchanges_total",
			Help: "Total number of installation token exchanges",
		}),
		EventProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "event_processing_duration_seconds",
			Help:    "Duration of webhook event processing",
			Buckets: prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		m.WebhookEventsTotal,
		m.WebhookEventsRejectedTotal,
		m.TokenExchangesTotal,
		m.EventProcessingDuration,
	)
	return m
}

// Handler は /metrics エンドポイント用のHTTPハンドラを返す。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
