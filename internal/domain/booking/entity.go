package booking

import "time"

// Booking は確定した購入を表す
type Booking struct {
	ID            string
	UserID        string
	EventID       string
	SeatIDs       []string // 順序を保持する
	TransactionID string   // 外部決済の参照。一意
	Amount        int
	CreatedAt     time.Time
}

// NewBooking は新しい予約確定レコードを作成する
func NewBooking(eventID, userID, transactionID string, seatIDs []string, amount int) *Booking {
	ids := make([]string, len(seatIDs))
	copy(ids, seatIDs)
	return &Booking{
		EventID:       eventID,
		UserID:        userID,
		SeatIDs:       ids,
		TransactionID: transactionID,
		Amount:        amount,
		CreatedAt:     time.Now(),
	}
}

// IsReplayOf は同じ決済の再送とみなせるかを返す
func (b *Booking) IsReplayOf(eventID, userID string) bool {
	return b.EventID == eventID && b.UserID == userID
}

// Validate は予約確定レコードの検証を行う
func (b *Booking) Validate() error {
	if b.EventID == "" {
		return ErrEventIDRequired
	}
	if b.UserID == "" {
		return ErrUserIDRequired
	}
	if len(b.SeatIDs) == 0 {
		return ErrSeatIDsRequired
	}
	seen := make(map[string]struct{}, len(b.SeatIDs))
	for _, id := range b.SeatIDs {
		if _, ok := seen[id]; ok {
			return ErrDuplicateSeatIDs
		}
		seen[id] = struct{}{}
	}
	if b.TransactionID == "" {
		return ErrTransactionIDRequired
	}
	if b.Amount < 0 {
		return ErrInvalidAmount
	}
	return nil
}
