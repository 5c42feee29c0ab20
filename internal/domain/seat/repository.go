package seat

import (
	"context"
	"time"

	"github.com/sanosuguru/go-seat-booking/internal/domain/transaction"
)

// Repository は座席リポジトリのインターフェース
type Repository interface {
	// CreateBulk は複数の座席を一括作成する（トランザクション必須）
	CreateBulk(ctx context.Context, tx transaction.Tx, seats []*Seat) error

	// GetByID はIDから座席を取得する
	GetByID(ctx context.Context, id string) (*Seat, error)

	// GetByIDs はイベント内の指定座席のみを取得する
	GetByIDs(ctx context.Context, eventID string, ids []string) ([]*Seat, error)

	// GetByEventID はイベントIDから座席一覧を取得する
	GetByEventID(ctx context.Context, eventID string) ([]*Seat, error)

	// GetAvailableByEventID はイベントIDから利用可能な座席一覧を取得する
	GetAvailableByEventID(ctx context.Context, eventID string) ([]*Seat, error)

	// CountAvailableByEventID はイベントの利用可能座席数を取得する
	CountAvailableByEventID(ctx context.Context, eventID string) (int, error)

	// HoldSeat は available かつ version が一致する場合のみ仮押さえする（CAS、トランザクション必須）
	// 条件に一致しない場合は ErrSeatsAlreadyReserved を返す
	HoldSeat(ctx context.Context, tx transaction.Tx, s *Seat, userID string, expiry time.Time) (*Seat, error)

	// SellSeat は userID が仮押さえ中の座席を販売済みにする（CAS、トランザクション必須）
	// 条件に一致しない場合は ErrSeatNotHeldByUser を返す
	SellSeat(ctx context.Context, tx transaction.Tx, eventID, seatID, userID string) (*Seat, error)

	// ReleaseSeat は userID が仮押さえ中の座席を解放する（CAS、トランザクション必須）
	ReleaseSeat(ctx context.Context, tx transaction.Tx, eventID, seatID, userID string) error

	// ReleaseExpired は now 時点で期限切れの仮押さえをすべて解放し、影響したイベントIDごとの件数を返す
	ReleaseExpired(ctx context.Context, now time.Time) (map[string]int, error)
}
