package event

import "time"

// Event はイベントエンティティを表す（座席管理に必要な項目のみ）
type Event struct {
	ID        string
	OwnerID   string // 主催者（eventManager）のユーザーID
	Name      string
	StartAt   time.Time
	CreatedAt time.Time
}

// NewEvent は新しいイベントを作成する
func NewEvent(ownerID, name string, startAt time.Time) *Event {
	return &Event{
		OwnerID:   ownerID,
		Name:      name,
		StartAt:   startAt,
		CreatedAt: time.Now(),
	}
}

// IsOwnedBy は指定ユーザーがイベントの主催者かを返す
func (e *Event) IsOwnedBy(userID string) bool {
	return userID != "" && e.OwnerID == userID
}

// Validate はイベントの検証を行う
func (e *Event) Validate() error {
	if e.OwnerID == "" {
		return ErrOwnerIDRequired
	}
	if e.Name == "" {
		return ErrEventNameRequired
	}
	return nil
}
