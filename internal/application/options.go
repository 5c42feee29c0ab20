package application

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sanosuguru/go-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/metrics"
)

const (
	defaultRefundTimeout   = 5 * time.Second
	defaultRefundRecipient = "refunds@example.com"
)

// SeatCache はイベントごとの空席数キャッシュ
type SeatCache interface {
	GetAvailableCount(ctx context.Context, eventID string) (int, error)
	Generation(ctx context.Context, eventID string) (int64, error)
	SetAvailableCount(ctx context.Context, eventID string, count int, gen int64) error
	Invalidate(ctx context.Context, eventIDs ...string) error
}

type options struct {
	holdDuration    time.Duration
	now             func() time.Time
	metrics         *metrics.Metrics
	refundRecipient string
	refundTimeout   time.Duration
}

func defaultOptions() options {
	return options{
		holdDuration:    seat.HoldDuration,
		now:             time.Now,
		refundRecipient: defaultRefundRecipient,
		refundTimeout:   defaultRefundTimeout,
	}
}

// Option はサービスの挙動を変更する
type Option func(*options)

// WithHoldDuration は仮押さえの有効期間を設定する
func WithHoldDuration(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.holdDuration = d
		}
	}
}

// WithClock は現在時刻の取得方法を差し替える
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithMetrics はメトリクスの記録先を設定する
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithRefundRecipient は返金通知の宛先を設定する
func WithRefundRecipient(recipient string) Option {
	return func(o *options) {
		if recipient != "" {
			o.refundRecipient = recipient
		}
	}
}

// WithRefundTimeout は返金通知の送信タイムアウトを設定する
func WithRefundTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.refundTimeout = d
		}
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// canonicalID はUUID形式のIDを小文字の正規形にそろえる。UUIDでなければそのまま返す
func canonicalID(id string) string {
	if u, err := uuid.Parse(id); err == nil {
		return u.String()
	}
	return id
}

func canonicalIDs(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = canonicalID(id)
	}
	return out
}

// normalizeSeatIDs は座席IDを正規化し、空・重複を検出する
func normalizeSeatIDs(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, seat.ErrSeatIDsRequired
	}
	out := canonicalIDs(ids)
	seen := make(map[string]struct{}, len(out))
	for _, id := range out {
		if id == "" {
			return nil, seat.ErrSeatIDsRequired
		}
		if _, ok := seen[id]; ok {
			return nil, seat.ErrDuplicateSeatIDs
		}
		seen[id] = struct{}{}
	}
	return out, nil
}
