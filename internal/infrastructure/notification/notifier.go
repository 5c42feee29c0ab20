package notification

import (
	"context"
	"time"
)

// RefundMessage は返金対象者に送る本文
const RefundMessage = "Seats selected by you were purchased by someone else, you will be refunded."

// RefundSubject は返金通知の件名
const RefundSubject = "返金のお知らせ"

// RefundNotice は決済済みだが予約確定できなかった支払いの返金依頼
type RefundNotice struct {
	Recipient     string    `json:"recipient"`
	UserID        string    `json:"user_id"`
	EventID       string    `json:"event_id"`
	SeatIDs       []string  `json:"seat_ids"`
	Amount        int       `json:"amount"`
	TransactionID string    `json:"transaction_id"`
	Reason        string    `json:"reason"`
	Subject       string    `json:"subject"`
	Body          string    `json:"body"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Notifier は返金チャネルへの送信を抽象化する
type Notifier interface {
	NotifyRefund(ctx context.Context, notice RefundNotice) error
}
