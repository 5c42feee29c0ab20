package application

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-seat-booking/internal/domain/transaction"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/metrics"
)

type ReservationService struct {
	txManager transaction.Manager
	seatRepo  seat.Repository
	cache     SeatCache
	opts      options
}

func NewReservationService(tm transaction.Manager, sr seat.Repository, cache SeatCache, opts ...Option) *ReservationService {
	return &ReservationService{txManager: tm, seatRepo: sr, cache: cache, opts: applyOptions(opts)}
}

type HoldSeatsInput struct {
	EventID string
	UserID  string
	SeatIDs []string
}

// HoldSeats は指定座席をすべて仮押さえする。1席でも取れなければ何も変更しない
func (s *ReservationService) HoldSeats(ctx context.Context, input HoldSeatsInput) ([]*seat.Seat, error) {
	eventID, seatIDs, err := normalizeHoldInput(input.EventID, input.UserID, input.SeatIDs)
	if err != nil {
		s.opts.metrics.Hold(metrics.StatusInvalid)
		return nil, err
	}

	seats, err := s.seatRepo.GetByIDs(ctx, eventID, seatIDs)
	if err != nil {
		s.opts.metrics.Hold(metrics.StatusError)
		return nil, fmt.Errorf("座席取得に失敗: %w", err)
	}
	if len(seats) != len(seatIDs) {
		s.opts.metrics.Hold(metrics.StatusInvalid)
		return nil, seat.ErrSeatNotFound
	}

	now := s.opts.now()
	expiry := now.Add(s.opts.holdDuration)
	for _, se := range seats {
		// 状態と期限の検証のみ。実際の更新は条件付きUPDATEで行う
		next := *se
		if err := next.Hold(input.UserID, expiry, now); err != nil {
			if errors.Is(err, seat.ErrSeatsNotAvailable) {
				s.opts.metrics.Hold(metrics.StatusConflict)
			} else {
				s.opts.metrics.Hold(metrics.StatusInvalid)
			}
			return nil, err
		}
	}

	// 座席IDをソートしてロック順序を揃える
	sort.Slice(seats, func(i, j int) bool { return seats[i].ID < seats[j].ID })

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		s.opts.metrics.Hold(metrics.StatusError)
		return nil, err
	}
	defer tx.Rollback()

	held := make(map[string]*seat.Seat, len(seats))
	for _, se := range seats {
		updated, err := s.seatRepo.HoldSeat(ctx, tx, se, input.UserID, expiry)
		if err != nil {
			if errors.Is(err, seat.ErrSeatsAlreadyReserved) {
				s.opts.metrics.Hold(metrics.StatusConflict)
			} else {
				s.opts.metrics.Hold(metrics.StatusError)
			}
			return nil, err
		}
		held[updated.ID] = updated
	}

	// 応答を組み立ててからコミットする
	result := make([]*seat.Seat, len(seatIDs))
	for i, id := range seatIDs {
		se, ok := held[id]
		if !ok {
			s.opts.metrics.Hold(metrics.StatusError)
			return nil, fmt.Errorf("仮押さえ結果に座席 %s がありません: %w", id, seat.ErrSeatNotFound)
		}
		result[i] = se
	}

	if err := tx.Commit(); err != nil {
		s.opts.metrics.Hold(metrics.StatusError)
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	invalidateCache(ctx, s.cache, eventID)
	s.opts.metrics.Hold(metrics.StatusSuccess)
	return result, nil
}

type ReleaseHoldInput struct {
	EventID string
	UserID  string
	SeatIDs []string
}

// ReleaseHold は保持者自身の仮押さえを期限前に解除する
func (s *ReservationService) ReleaseHold(ctx context.Context, input ReleaseHoldInput) error {
	eventID, ids, err := normalizeHoldInput(input.EventID, input.UserID, input.SeatIDs)
	if err != nil {
		return err
	}
	sort.Strings(ids)

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, id := range ids {
		if err := s.seatRepo.ReleaseSeat(ctx, tx, eventID, id, input.UserID); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("コミットに失敗: %w", err)
	}

	invalidateCache(ctx, s.cache, eventID)
	return nil
}

// ReclaimExpiredHolds は期限切れの仮押さえを available に戻し、戻した座席数を返す
func (s *ReservationService) ReclaimExpiredHolds(ctx context.Context) (int, error) {
	released, err := s.seatRepo.ReleaseExpired(ctx, s.opts.now())
	if err != nil {
		return 0, err
	}

	total := 0
	eventIDs := make([]string, 0, len(released))
	for eventID, n := range released {
		total += n
		eventIDs = append(eventIDs, eventID)
	}
	if total == 0 {
		return 0, nil
	}

	sort.Strings(eventIDs)
	invalidateCache(ctx, s.cache, eventIDs...)
	s.opts.metrics.Reclaimed(total)
	logger.Info("期限切れの仮押さえを解放しました",
		zap.Int("count", total),
		zap.Strings("event_ids", eventIDs),
	)
	return total, nil
}

// normalizeHoldInput は入力を検証し、正規化したイベントIDと座席IDを返す
func normalizeHoldInput(eventID, userID string, seatIDs []string) (string, []string, error) {
	if eventID == "" {
		return "", nil, seat.ErrEventIDRequired
	}
	if userID == "" {
		return "", nil, seat.ErrUserIDRequired
	}
	ids, err := normalizeSeatIDs(seatIDs)
	if err != nil {
		return "", nil, err
	}
	return canonicalID(eventID), ids, nil
}
