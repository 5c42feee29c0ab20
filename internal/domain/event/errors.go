package event

import "errors"

// Event ドメインのエラー定義
var (
	ErrEventNotFound     = errors.New("イベントが見つかりません")
	ErrEventNameRequired = errors.New("イベント名は必須です")
	ErrOwnerIDRequired   = errors.New("主催者IDは必須です")
	ErrNotEventOwner     = errors.New("このIDのイベントを所有していません")
)
