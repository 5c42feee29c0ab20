package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-seat-booking/internal/pkg/logger"
)

// LogNotifier は返金依頼をログに出力するだけの Notifier。
// ブローカー未設定の環境で使う
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) NotifyRefund(_ context.Context, notice RefundNotice) error {
	logger.Warn("返金が必要です",
		zap.String("recipient", notice.Recipient),
		zap.String("user_id", notice.UserID),
		zap.String("event_id", notice.EventID),
		zap.Strings("seat_ids", notice.SeatIDs),
		zap.Int("amount", notice.Amount),
		zap.String("transaction_id", notice.TransactionID),
		zap.String("reason", notice.Reason),
	)
	return nil
}

var _ Notifier = (*LogNotifier)(nil)
