package seat

import "errors"

// Seat ドメインのエラー定義
var (
	ErrSeatNotFound            = errors.New("座席が見つかりません")
	ErrSeatsNotAvailable       = errors.New("1つ以上の座席が予約できません")
	ErrSeatsAlreadyReserved    = errors.New("1つ以上の座席の仮押さえに失敗しました")
	ErrSeatNotHeldByUser       = errors.New("座席はこのユーザーによって仮押さえされていません")
	ErrSeatIDsRequired         = errors.New("座席IDは必須です")
	ErrDuplicateSeatIDs        = errors.New("座席IDが重複しています")
	ErrEventIDRequired         = errors.New("イベントIDは必須です")
	ErrUserIDRequired          = errors.New("ユーザーIDは必須です")
	ErrSeatNumberRequired      = errors.New("座席番号は必須です")
	ErrInvalidPrice            = errors.New("価格は0以上である必要があります")
	ErrInvalidLayout           = errors.New("行数と1行あたりの座席数は1以上、座席の総数は10000以下である必要があります")
	ErrMissingRowPrice         = errors.New("すべての行に価格を指定する必要があります")
	ErrInvalidHoldExpiry       = errors.New("仮押さえの期限は未来である必要があります")
	ErrSeatsAlreadyProvisioned = errors.New("座席番号が既に登録されています")
)
