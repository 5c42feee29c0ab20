package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-seat-booking/internal/domain/event"
	"github.com/sanosuguru/go-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-seat-booking/internal/domain/transaction"
)

// 制約名はマイグレーションと揃える
const (
	constraintBookingTransactionID = "bookings_transaction_id_key"
	constraintBookingSeatID        = "booking_seats_seat_id_key"
)

type bookingRow struct {
	ID            string    `db:"id"`
	UserID        string    `db:"user_id"`
	EventID       string    `db:"event_id"`
	TransactionID string    `db:"transaction_id"`
	Amount        int       `db:"amount"`
	CreatedAt     time.Time `db:"created_at"`
}

func (r *bookingRow) toEntity(seatIDs []string) *booking.Booking {
	if seatIDs == nil {
		seatIDs = []string{}
	}
	return &booking.Booking{
		ID: r.ID, UserID: r.UserID, EventID: r.EventID,
		TransactionID: r.TransactionID, Amount: r.Amount,
		SeatIDs: seatIDs, CreatedAt: r.CreatedAt,
	}
}

type bookingSeatRow struct {
	BookingID string `db:"booking_id"`
	SeatID    string `db:"seat_id"`
}

type BookingRepository struct{ db *sqlx.DB }

func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create は予約確定と座席の関連（順序付き）を作成する
func (r *BookingRepository) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	sqlxTx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}

	query := `INSERT INTO bookings (user_id, event_id, transaction_id, amount, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := sqlxTx.QueryRowContext(ctx, query, b.UserID, b.EventID, b.TransactionID, b.Amount, b.CreatedAt).Scan(&b.ID); err != nil {
		if isUniqueViolation(err, constraintBookingTransactionID) {
			return booking.ErrDuplicateTransactionID
		}
		if isMissingReference(err) {
			return event.ErrEventNotFound
		}
		return fmt.Errorf("予約確定の作成に失敗: %w", classify(err))
	}

	if len(b.SeatIDs) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(b.SeatIDs)*3)
	placeholders := make([]string, 0, len(b.SeatIDs))
	for i, seatID := range b.SeatIDs {
		base := i * 3
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d)", base+1, base+2, base+3))
		args = append(args, b.ID, seatID, i)
	}
	seatQuery := `INSERT INTO booking_seats (booking_id, seat_id, position) VALUES ` + strings.Join(placeholders, ", ")
	if _, err := sqlxTx.ExecContext(ctx, seatQuery, args...); err != nil {
		if isUniqueViolation(err, constraintBookingSeatID) {
			return booking.ErrSeatsAlreadyBooked
		}
		if isMissingReference(err) {
			return seat.ErrSeatNotFound
		}
		return fmt.Errorf("予約座席関連付けに失敗: %w", classify(err))
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	return r.getOne(ctx, `SELECT id, user_id, event_id, transaction_id, amount, created_at FROM bookings WHERE id = $1`, id)
}

func (r *BookingRepository) GetByTransactionID(ctx context.Context, transactionID string) (*booking.Booking, error) {
	return r.getOne(ctx, `SELECT id, user_id, event_id, transaction_id, amount, created_at FROM bookings WHERE transaction_id = $1`, transactionID)
}

func (r *BookingRepository) getOne(ctx context.Context, query string, arg string) (*booking.Booking, error) {
	var row bookingRow
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("予約確定の取得に失敗: %w", classify(err))
	}
	seatIDs, err := r.loadSeatIDs(ctx, []string{row.ID})
	if err != nil {
		return nil, err
	}
	return row.toEntity(seatIDs[row.ID]), nil
}

func (r *BookingRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error) {
	query := `SELECT id, user_id, event_id, transaction_id, amount, created_at FROM bookings WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	var rows []bookingRow
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("予約確定一覧の取得に失敗: %w", classify(err))
	}
	if len(rows) == 0 {
		return []*booking.Booking{}, nil
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	seatIDs, err := r.loadSeatIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	bookings := make([]*booking.Booking, len(rows))
	for i := range rows {
		bookings[i] = rows[i].toEntity(seatIDs[rows[i].ID])
	}
	return bookings, nil
}

// loadSeatIDs は予約確定IDごとの座席IDを position 順に返す
func (r *BookingRepository) loadSeatIDs(ctx context.Context, bookingIDs []string) (map[string][]string, error) {
	query := `SELECT booking_id, seat_id FROM booking_seats WHERE booking_id = ANY($1::uuid[]) ORDER BY booking_id, position`
	var rows []bookingSeatRow
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(bookingIDs)); err != nil {
		return nil, fmt.Errorf("予約座席の取得に失敗: %w", classify(err))
	}
	result := make(map[string][]string, len(bookingIDs))
	for _, row := range rows {
		result[row.BookingID] = append(result[row.BookingID], row.SeatID)
	}
	return result, nil
}

var _ booking.Repository = (*BookingRepository)(nil)
