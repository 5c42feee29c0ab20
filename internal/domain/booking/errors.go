package booking

import "errors"

// Booking ドメインのエラー定義
var (
	ErrBookingNotFound        = errors.New("予約確定が見つかりません")
	ErrEventIDRequired        = errors.New("イベントIDは必須です")
	ErrUserIDRequired         = errors.New("ユーザーIDは必須です")
	ErrSeatIDsRequired        = errors.New("座席IDは必須です")
	ErrDuplicateSeatIDs       = errors.New("座席IDが重複しています")
	ErrTransactionIDRequired  = errors.New("トランザクションIDは必須です")
	ErrInvalidAmount          = errors.New("金額は0以上である必要があります")
	ErrAmountMismatch         = errors.New("支払金額が座席価格の合計と一致しません")
	ErrDuplicateTransactionID = errors.New("同じトランザクションIDの予約確定が既に存在します")
	ErrTransactionIDConflict  = errors.New("トランザクションIDは別の予約確定で使用されています")
	ErrSeatsAlreadyBooked     = errors.New("選択した座席は他のユーザーに購入されました。返金されます")
)
