// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// スケジューラや決済エンジンから利用する。
type MetricsCollector interface {
	RecordSettlement(amount int64)
	RecordInsufficientFunds()
	RecordTransition(from, to string)
	RecordProcessFailure()
	RecordTickLatency(duration time.Duration)
	RecordSessionsSwept(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	settlements       prometheus.Counter
	settlementAmount  prometheus.Counter
	insufficientFunds prometheus.Counter
	transitions       *prometheus.CounterVec
	processFail       prometheus.Counter
	tickLatency       prometheus.Histogram
	sessionsSwept     prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		settlements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "careman_settlements_total",
			Help: "完了した精算の合計数",
		}),
		settlementAmount: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "careman_settlement_amount_total",
			Help: "精算で移動した金額の合計",
		}),
		insufficientFunds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "careman_insufficient_funds_total",
			Help: "残高不足で拒否された決済の合計数",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "careman_transitions_total",
			Help: "予約の状態遷移の合計数",
		}, []string{"from", "to"}),
		processFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "careman_lifecycle_process_fail_total",
			Help: "スケジューラの予約処理失敗の合計数",
		}),
		tickLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "careman_tick_latency_seconds",
			Help:    "スケジューラティック全体のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		sessionsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "careman_sessions_swept_total",
			Help: "掃除された期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.settlements,
		c.settlementAmount,
		c.insufficientFunds,
		c.transitions,
		c.processFail,
		c.tickLatency,
		c.sessionsSwept,
	)

	return c
}

// RecordSettlement は精算の完了と金額を記録する。
func (c *Collector) RecordSettlement(amount int64) {
	c.settlements.Inc()
	c.settlementAmount.Add(float64(amount))
}

// RecordInsufficientFunds は残高不足による決済拒否を記録する。
func (c *Collector) RecordInsufficientFunds() {
	c.insufficientFunds.Inc()
}

// RecordTransition は予約の状態遷移を記録する。
func (c *Collector) RecordTransition(from, to string) {
	c.transitions.WithLabelValues(from, to).Inc()
}

// RecordProcessFailure はスケジューラの予約処理失敗を記録する。
// 処理失敗は他の予約の処理を止めないため、この集計が唯一の観測点になる。
func (c *Collector) RecordProcessFailure() {
	c.processFail.Inc()
}

// RecordTickLatency はティック全体のレイテンシを記録する。
func (c *Collector) RecordTickLatency(duration time.Duration) {
	c.tickLatency.Observe(duration.Seconds())
}

// RecordSessionsSwept は掃除された期限切れセッション数を記録する。
func (c *Collector) RecordSessionsSwept(count int64) {
	c.sessionsSwept.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
