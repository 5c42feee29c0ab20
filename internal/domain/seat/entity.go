package seat

import (
	"strconv"
	"time"
)

// Status は座席の状態を表す
type Status string

const (
	StatusAvailable Status = "available"
	StatusHeld      Status = "held"
	StatusSold      Status = "sold"
)

// HoldDuration は仮押さえの有効期間（デフォルト15分）
const HoldDuration = 15 * time.Minute

// MaxSeatsPerEvent は1イベントに登録できる座席数の上限
const MaxSeatsPerEvent = 10000

// Seat は座席エンティティを表す
type Seat struct {
	ID         string
	EventID    string
	SeatNumber string
	Row        int
	Column     int
	Status     Status
	Price      int
	HolderID   *string // held / sold のときのみ設定
	HoldExpiry *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int // 楽観的ロック用
}

// NewSeat は新しい座席を作成する
func NewSeat(eventID, seatNumber string, row, column, price int) *Seat {
	now := time.Now()
	return &Seat{
		EventID:    eventID,
		SeatNumber: seatNumber,
		Row:        row,
		Column:     column,
		Status:     StatusAvailable,
		Price:      price,
		CreatedAt:  now,
		UpdatedAt:  now,
		Version:    0,
	}
}

// IsAvailable は座席が仮押さえ可能かを返す
func (s *Seat) IsAvailable() bool {
	return s.Status == StatusAvailable
}

// IsHeldBy は指定ユーザーが座席を仮押さえ中かを返す
func (s *Seat) IsHeldBy(userID string) bool {
	return s.Status == StatusHeld && s.HolderID != nil && *s.HolderID == userID
}

// Hold は座席を仮押さえ状態にする
func (s *Seat) Hold(userID string, expiry, now time.Time) error {
	if s.Status != StatusAvailable {
		return ErrSeatsNotAvailable
	}
	if !expiry.After(now) {
		return ErrInvalidHoldExpiry
	}
	s.Status = StatusHeld
	s.HolderID = &userID
	s.HoldExpiry = &expiry
	s.UpdatedAt = now
	s.Version++
	return nil
}

// Validate は座席の検証を行う
func (s *Seat) Validate() error {
	if s.EventID == "" {
		return ErrEventIDRequired
	}
	if s.SeatNumber == "" {
		return ErrSeatNumberRequired
	}
	if s.Row <= 0 || s.Column <= 0 {
		return ErrInvalidLayout
	}
	if s.Price < 0 {
		return ErrInvalidPrice
	}
	return nil
}

// BuildGrid は rows × seatsPerRow の座席を連番で生成する。
// 座席番号は "1" から始まり、行ごとの価格は priceByRow から取る
func BuildGrid(eventID string, rows, seatsPerRow int, priceByRow map[int]int) ([]*Seat, error) {
	if rows <= 0 || seatsPerRow <= 0 {
		return nil, ErrInvalidLayout
	}
	// 乗算のオーバーフローを避けるため除算で比較する
	if rows > MaxSeatsPerEvent || seatsPerRow > MaxSeatsPerEvent/rows {
		return nil, ErrInvalidLayout
	}
	for r := 1; r <= rows; r++ {
		price, ok := priceByRow[r]
		if !ok {
			return nil, ErrMissingRowPrice
		}
		if price < 0 {
			return nil, ErrInvalidPrice
		}
	}

	seats := make([]*Seat, 0, rows*seatsPerRow)
	for i := 0; i < rows*seatsPerRow; i++ {
		row := i/seatsPerRow + 1
		column := i%seatsPerRow + 1
		s := NewSeat(eventID, strconv.Itoa(i+1), row, column, priceByRow[row])
		if err := s.Validate(); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, nil
}
