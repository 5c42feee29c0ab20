package booking

import (
	"context"

	"github.com/sanosuguru/go-seat-booking/internal/domain/transaction"
)

// Repository は予約確定リポジトリのインターフェース
type Repository interface {
	// Create は予約確定と座席の関連を作成する（トランザクション必須）
	// transaction_id が重複する場合は ErrDuplicateTransactionID を返す
	Create(ctx context.Context, tx transaction.Tx, b *Booking) error

	// GetByID はIDから予約確定を取得する
	GetByID(ctx context.Context, id string) (*Booking, error)

	// GetByTransactionID は決済トランザクションIDから予約確定を取得する
	GetByTransactionID(ctx context.Context, transactionID string) (*Booking, error)

	// GetByUserID はユーザーIDから予約確定一覧を取得する
	GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*Booking, error)
}
