package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	redisinfra "github.com/sanosuguru/go-seat-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/metrics"
)

const reclaimLeaseName = "reclaimer"

// HoldReclaimer は期限切れの仮押さえを解放するインターフェース
type HoldReclaimer interface {
	ReclaimExpiredHolds(ctx context.Context) (int, error)
}

// LeaseAcquirer は複数インスタンスで回収を1台に絞るためのリースを発行する
type LeaseAcquirer interface {
	TryAcquire(ctx context.Context, name string, ttl time.Duration) (*redisinfra.Lease, error)
}

// ExpiredHoldReclaimer は期限切れの仮押さえを定期的に回収するワーカー
type ExpiredHoldReclaimer struct {
	reservationService HoldReclaimer
	leases             LeaseAcquirer
	interval           time.Duration
	leaseTTL           time.Duration
	metrics            *metrics.Metrics
	stopCh             chan struct{}
	doneCh             chan struct{}
}

// Option はワーカーの任意設定
type Option func(*ExpiredHoldReclaimer)

// WithLease はリースを取得できた場合のみ回収するようにする
func WithLease(l LeaseAcquirer, ttl time.Duration) Option {
	return func(r *ExpiredHoldReclaimer) {
		r.leases = l
		r.leaseTTL = ttl
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *ExpiredHoldReclaimer) { r.metrics = m }
}

// NewExpiredHoldReclaimer は新しいワーカーを作成
func NewExpiredHoldReclaimer(rs HoldReclaimer, interval time.Duration, opts ...Option) *ExpiredHoldReclaimer {
	r := &ExpiredHoldReclaimer{
		reservationService: rs,
		interval:           interval,
		stopCh:             make(chan struct{}),
		doneCh:             make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start はワーカーを開始。ctx のキャンセルか Stop で戻る
func (r *ExpiredHoldReclaimer) Start(ctx context.Context) {
	logger.Info("期限切れ仮押さえ回収ワーカー開始",
		zap.Duration("interval", r.interval),
		zap.Bool("lease", r.leases != nil),
	)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	defer close(r.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("期限切れ仮押さえ回収ワーカー停止（コンテキストキャンセル）")
			return
		case <-r.stopCh:
			logger.Info("期限切れ仮押さえ回収ワーカー停止（シグナル受信）")
			return
		case <-ticker.C:
			r.reclaim(ctx)
		}
	}
}

// Stop はワーカーを停止し、実行中の回収が終わるまで待つ
func (r *ExpiredHoldReclaimer) Stop() {
	close(r.stopCh)
	<-r.doneCh
}

// reclaim は1回分の回収を行う。
// 成功時のリースはTTLまで保持し、同じ間隔内に他のインスタンスが回収しないようにする。失敗時は解放して他に譲る
func (r *ExpiredHoldReclaimer) reclaim(ctx context.Context) {
	log := logger.Get()

	var lease *redisinfra.Lease
	if r.leases != nil {
		acquired, err := r.leases.TryAcquire(ctx, reclaimLeaseName, r.leaseTTL)
		switch {
		case errors.Is(err, redisinfra.ErrLeaseNotAcquired):
			log.Debug("他のインスタンスが回収中のためスキップ")
			r.metrics.ReclaimRun(metrics.StatusSkipped)
			return
		case err != nil:
			// 回収は冪等なのでリースが取れなくても実行する
			log.Warn("リース取得に失敗、リースなしで回収します", zap.Error(err))
		default:
			lease = acquired
		}
	}

	count, err := r.reservationService.ReclaimExpiredHolds(ctx)
	if err != nil {
		r.metrics.ReclaimRun(metrics.StatusError)
		log.Error("期限切れ仮押さえの回収失敗", zap.Error(err))
		if lease != nil {
			if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
				log.Warn("リース解放に失敗", zap.Error(err))
			}
		}
		return
	}
	r.metrics.ReclaimRun(metrics.StatusSuccess)

	if count > 0 {
		log.Info("期限切れ仮押さえを回収", zap.Int("count", count))
	} else {
		log.Debug("期限切れ仮押さえなし")
	}
}
