package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-seat-booking/internal/domain/transaction"
)

const constraintSeatNumber = "seats_event_seat_number_key"

const seatColumns = `id, event_id, seat_number, row_no, column_no, status, price, holder_id, hold_expiry, created_at, updated_at, version`

type seatRow struct {
	ID         string     `db:"id"`
	EventID    string     `db:"event_id"`
	SeatNumber string     `db:"seat_number"`
	RowNo      int        `db:"row_no"`
	ColumnNo   int        `db:"column_no"`
	Status     string     `db:"status"`
	Price      int        `db:"price"`
	HolderID   *string    `db:"holder_id"`
	HoldExpiry *time.Time `db:"hold_expiry"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
	Version    int        `db:"version"`
}

func (r *seatRow) toEntity() *seat.Seat {
	return &seat.Seat{
		ID: r.ID, EventID: r.EventID, SeatNumber: r.SeatNumber,
		Row: r.RowNo, Column: r.ColumnNo,
		Status: seat.Status(r.Status), Price: r.Price,
		HolderID: r.HolderID, HoldExpiry: r.HoldExpiry,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt, Version: r.Version,
	}
}

func toSeats(rows []seatRow) []*seat.Seat {
	seats := make([]*seat.Seat, len(rows))
	for i := range rows {
		seats[i] = rows[i].toEntity()
	}
	return seats
}

type SeatRepository struct{ db *sqlx.DB }

func NewSeatRepository(db *sqlx.DB) *SeatRepository { return &SeatRepository{db: db} }

// CreateBulk は座席をマルチバリューINSERTで一括作成する。IDは未設定ならここで採番する
func (r *SeatRepository) CreateBulk(ctx context.Context, tx transaction.Tx, seats []*seat.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	sqlxTx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}

	const batchSize = 1000
	for i := 0; i < len(seats); i += batchSize {
		end := i + batchSize
		if end > len(seats) {
			end = len(seats)
		}
		if err := r.createBulkBatch(ctx, sqlxTx, seats[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *SeatRepository) createBulkBatch(ctx context.Context, tx *sqlx.Tx, seats []*seat.Seat) error {
	const cols = 10
	query := `INSERT INTO seats (id, event_id, seat_number, row_no, column_no, status, price, created_at, updated_at, version) VALUES `
	args := make([]interface{}, 0, len(seats)*cols)
	placeholders := make([]string, 0, len(seats))

	for i, s := range seats {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		base := i * cols
		ph := make([]string, cols)
		for j := range ph {
			ph[j] = fmt.Sprintf("$%d", base+j+1)
		}
		placeholders = append(placeholders, "("+strings.Join(ph, ", ")+")")
		args = append(args, s.ID, s.EventID, s.SeatNumber, s.Row, s.Column, string(s.Status), s.Price, s.CreatedAt, s.UpdatedAt, s.Version)
	}

	query += strings.Join(placeholders, ", ")
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err, constraintSeatNumber) {
			return seat.ErrSeatsAlreadyProvisioned
		}
		return fmt.Errorf("座席一括作成に失敗: %w", classify(err))
	}
	return nil
}

func (r *SeatRepository) GetByID(ctx context.Context, id string) (*seat.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE id = $1`
	var row seatRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
			return nil, seat.ErrSeatNotFound
		}
		return nil, fmt.Errorf("座席取得に失敗: %w", classify(err))
	}
	return row.toEntity(), nil
}

// GetByIDs はイベント内の指定座席を取得する。他イベントの座席や存在しないIDは結果に含まれない
func (r *SeatRepository) GetByIDs(ctx context.Context, eventID string, ids []string) ([]*seat.Seat, error) {
	// UUID形式でないIDは存在し得ないので問い合わせ前に除外する
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return []*seat.Seat{}, nil
	}
	query := `SELECT ` + seatColumns + ` FROM seats WHERE event_id = $1 AND id = ANY($2::uuid[]) ORDER BY id`
	var rows []seatRow
	if err := r.db.SelectContext(ctx, &rows, query, eventID, pq.Array(valid)); err != nil {
		if isInvalidText(err) {
			return []*seat.Seat{}, nil
		}
		return nil, fmt.Errorf("座席取得に失敗: %w", classify(err))
	}
	return toSeats(rows), nil
}

func (r *SeatRepository) GetByEventID(ctx context.Context, eventID string) ([]*seat.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE event_id = $1 ORDER BY row_no, column_no`
	var rows []seatRow
	if err := r.db.SelectContext(ctx, &rows, query, eventID); err != nil {
		return nil, fmt.Errorf("座席一覧取得に失敗: %w", classify(err))
	}
	return toSeats(rows), nil
}

func (r *SeatRepository) GetAvailableByEventID(ctx context.Context, eventID string) ([]*seat.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE event_id = $1 AND status = 'available' ORDER BY row_no, column_no`
	var rows []seatRow
	if err := r.db.SelectContext(ctx, &rows, query, eventID); err != nil {
		return nil, fmt.Errorf("座席一覧取得に失敗: %w", classify(err))
	}
	return toSeats(rows), nil
}

func (r *SeatRepository) CountAvailableByEventID(ctx context.Context, eventID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM seats WHERE event_id = $1 AND status = 'available'`, eventID); err != nil {
		return 0, fmt.Errorf("空席数取得に失敗: %w", classify(err))
	}
	return count, nil
}

// HoldSeat は読み取り時の version と available 状態が維持されている場合のみ仮押さえする
func (r *SeatRepository) HoldSeat(ctx context.Context, tx transaction.Tx, s *seat.Seat, userID string, expiry time.Time) (*seat.Seat, error) {
	sqlxTx, err := UnwrapTx(tx)
	if err != nil {
		return nil, err
	}
	query := `UPDATE seats SET status = 'held', holder_id = $1, hold_expiry = $2, updated_at = NOW(), version = version + 1
		WHERE id = $3 AND event_id = $4 AND status = 'available' AND version = $5
		RETURNING ` + seatColumns
	var row seatRow
	if err := sqlxTx.GetContext(ctx, &row, query, userID, expiry, s.ID, s.EventID, s.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isConflict(err) {
			return nil, seat.ErrSeatsAlreadyReserved
		}
		return nil, fmt.Errorf("座席仮押さえに失敗: %w", classify(err))
	}
	return row.toEntity(), nil
}

// SellSeat は userID が仮押さえ中の座席を販売済みにする
func (r *SeatRepository) SellSeat(ctx context.Context, tx transaction.Tx, eventID, seatID, userID string) (*seat.Seat, error) {
	sqlxTx, err := UnwrapTx(tx)
	if err != nil {
		return nil, err
	}
	query := `UPDATE seats SET status = 'sold', hold_expiry = NULL, updated_at = NOW(), version = version + 1
		WHERE id = $1 AND event_id = $2 AND status = 'held' AND holder_id = $3
		RETURNING ` + seatColumns
	var row seatRow
	if err := sqlxTx.GetContext(ctx, &row, query, seatID, eventID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isConflict(err) {
			return nil, seat.ErrSeatNotHeldByUser
		}
		return nil, fmt.Errorf("座席確定に失敗: %w", classify(err))
	}
	return row.toEntity(), nil
}

// ReleaseSeat は userID が仮押さえ中の座席を available に戻す
func (r *SeatRepository) ReleaseSeat(ctx context.Context, tx transaction.Tx, eventID, seatID, userID string) error {
	sqlxTx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}
	query := `UPDATE seats SET status = 'available', holder_id = NULL, hold_expiry = NULL, updated_at = NOW(), version = version + 1
		WHERE id = $1 AND event_id = $2 AND status = 'held' AND holder_id = $3`
	result, err := sqlxTx.ExecContext(ctx, query, seatID, eventID, userID)
	if err != nil {
		if isConflict(err) {
			return seat.ErrSeatNotHeldByUser
		}
		return fmt.Errorf("座席解放に失敗: %w", classify(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("座席解放に失敗: %w", err)
	}
	if rows != 1 {
		return seat.ErrSeatNotHeldByUser
	}
	return nil
}

// ReleaseExpired は期限切れの仮押さえを1文で解放し、イベントIDごとの解放数を返す
func (r *SeatRepository) ReleaseExpired(ctx context.Context, now time.Time) (map[string]int, error) {
	query := `UPDATE seats SET status = 'available', holder_id = NULL, hold_expiry = NULL, updated_at = NOW(), version = version + 1
		WHERE status = 'held' AND hold_expiry < $1
		RETURNING event_id`
	var eventIDs []string
	if err := r.db.SelectContext(ctx, &eventIDs, query, now); err != nil {
		return nil, fmt.Errorf("期限切れ仮押さえの解放に失敗: %w", classify(err))
	}
	released := make(map[string]int)
	for _, id := range eventIDs {
		released[id]++
	}
	return released, nil
}

var _ seat.Repository = (*SeatRepository)(nil)
