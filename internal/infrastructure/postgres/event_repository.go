package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-seat-booking/internal/domain/event"
)

// eventRow はDBの行を表す構造体
type eventRow struct {
	ID        string    `db:"id"`
	OwnerID   string    `db:"owner_id"`
	Name      string    `db:"name"`
	StartAt   time.Time `db:"start_at"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *eventRow) toEntity() *event.Event {
	return &event.Event{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		Name:      r.Name,
		StartAt:   r.StartAt,
		CreatedAt: r.CreatedAt,
	}
}

// EventRepository はイベントリポジトリのPostgreSQL実装
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository はEventRepositoryを作成する
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create は新しいイベントを作成する
func (r *EventRepository) Create(ctx context.Context, e *event.Event) error {
	query := `INSERT INTO events (owner_id, name, start_at, created_at) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, e.OwnerID, e.Name, e.StartAt, e.CreatedAt).Scan(&e.ID); err != nil {
		return fmt.Errorf("イベント作成に失敗: %w", classify(err))
	}
	return nil
}

// GetByID はIDからイベントを取得する
func (r *EventRepository) GetByID(ctx context.Context, id string) (*event.Event, error) {
	query := `SELECT id, owner_id, name, start_at, created_at FROM events WHERE id = $1`
	var row eventRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
			return nil, event.ErrEventNotFound
		}
		return nil, fmt.Errorf("イベント取得に失敗: %w", classify(err))
	}
	return row.toEntity(), nil
}

var _ event.Repository = (*EventRepository)(nil)
