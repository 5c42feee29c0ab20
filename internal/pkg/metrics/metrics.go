package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ラベル値
const (
	StatusSuccess  = "success"
	StatusConflict = "conflict"
	StatusInvalid  = "invalid"
	StatusReplay   = "replay"
	StatusError    = "error"
	StatusSkipped  = "skipped"
	StatusFailed   = "failed"
)

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 仮押さえの試行数（status: success, conflict, invalid, error）
	HoldsTotal *prometheus.CounterVec

	// 予約確定の試行数（status: success, replay, conflict, invalid, error）
	BookingsTotal *prometheus.CounterVec

	// 期限切れで回収した座席数
	SeatsReclaimedTotal prometheus.Counter

	// 回収処理の実行回数（status: success, skipped, error）
	ReclaimRunsTotal *prometheus.CounterVec

	// 返金通知の送信数（status: success, failed）
	RefundNotificationsTotal *prometheus.CounterVec

	// 空席数キャッシュの参照結果（result: hit, miss）
	SeatCacheLookupsTotal *prometheus.CounterVec
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HoldsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "holds_total",
				Help: "Total number of seat hold attempts",
			},
			[]string{"status"},
		),
		BookingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookings_total",
				Help: "Total number of booking finalization attempts",
			},
			[]string{"status"},
		),
		SeatsReclaimedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "seats_reclaimed_total",
				Help: "Total number of expired holds returned to available",
			},
		),
		ReclaimRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reclaim_runs_total",
				Help: "Total number of expired hold sweeps",
			},
			[]string{"status"},
		),
		RefundNotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "refund_notifications_total",
				Help: "Total number of refund notifications sent",
			},
			[]string{"status"},
		),
		SeatCacheLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seat_cache_lookups_total",
				Help: "Available seat count cache lookups",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HoldsTotal,
		m.BookingsTotal,
		m.SeatsReclaimedTotal,
		m.ReclaimRunsTotal,
		m.RefundNotificationsTotal,
		m.SeatCacheLookupsTotal,
	)

	return m
}

// 以下のヘルパーは m が nil のとき何もしない

func (m *Metrics) Hold(status string) {
	if m != nil {
		m.HoldsTotal.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) Booking(status string) {
	if m != nil {
		m.BookingsTotal.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) Reclaimed(n int) {
	if m != nil && n > 0 {
		m.SeatsReclaimedTotal.Add(float64(n))
	}
}

func (m *Metrics) ReclaimRun(status string) {
	if m != nil {
		m.ReclaimRunsTotal.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) RefundNotification(status string) {
	if m != nil {
		m.RefundNotificationsTotal.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.SeatCacheLookupsTotal.WithLabelValues(result).Inc()
}
