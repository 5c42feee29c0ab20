package application

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-seat-booking/internal/domain/event"
	"github.com/sanosuguru/go-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-seat-booking/internal/domain/transaction"
	redisinfra "github.com/sanosuguru/go-seat-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/logger"
)

type SeatService struct {
	txManager transaction.Manager
	seatRepo  seat.Repository
	eventRepo event.Repository
	cache     SeatCache
	opts      options
}

// NewSeatService は SeatService を作成する。cache は nil でもよい
func NewSeatService(tm transaction.Manager, sr seat.Repository, er event.Repository, cache SeatCache, opts ...Option) *SeatService {
	return &SeatService{txManager: tm, seatRepo: sr, eventRepo: er, cache: cache, opts: applyOptions(opts)}
}

type ProvisionSeatsInput struct {
	EventID     string
	CallerID    string
	Rows        int
	SeatsPerRow int
	PriceByRow  map[int]int
}

// ProvisionSeats はイベント主催者の指定した格子状の座席を一括作成する
func (s *SeatService) ProvisionSeats(ctx context.Context, input ProvisionSeatsInput) ([]*seat.Seat, error) {
	seats, err := seat.BuildGrid(input.EventID, input.Rows, input.SeatsPerRow, input.PriceByRow)
	if err != nil {
		return nil, err
	}

	ev, err := s.eventRepo.GetByID(ctx, input.EventID)
	if err != nil {
		return nil, fmt.Errorf("イベント取得に失敗: %w", err)
	}
	if !ev.IsOwnedBy(input.CallerID) {
		return nil, event.ErrNotEventOwner
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.seatRepo.CreateBulk(ctx, tx, seats); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	s.invalidate(ctx, input.EventID)
	logger.Info("座席を作成しました",
		zap.String("event_id", input.EventID),
		zap.Int("rows", input.Rows),
		zap.Int("seats_per_row", input.SeatsPerRow),
		zap.Int("count", len(seats)),
	)
	return seats, nil
}

func (s *SeatService) GetSeat(ctx context.Context, id string) (*seat.Seat, error) {
	return s.seatRepo.GetByID(ctx, id)
}

func (s *SeatService) GetSeatsByEvent(ctx context.Context, eventID string) ([]*seat.Seat, error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.seatRepo.GetByEventID(ctx, eventID)
}

func (s *SeatService) GetAvailableSeats(ctx context.Context, eventID string) ([]*seat.Seat, error) {
	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.seatRepo.GetAvailableByEventID(ctx, eventID)
}

// CountAvailableSeats は空席数を返す。キャッシュにあればDBを参照しない
func (s *SeatService) CountAvailableSeats(ctx context.Context, eventID string) (int, error) {
	var (
		gen       int64
		cacheable bool
	)
	if s.cache != nil {
		count, err := s.cache.GetAvailableCount(ctx, eventID)
		if err == nil {
			s.opts.metrics.CacheLookup(true)
			return count, nil
		}
		s.opts.metrics.CacheLookup(false)
		if !errors.Is(err, redisinfra.ErrCacheMiss) {
			logger.Warn("キャッシュ取得エラー", zap.String("event_id", eventID), zap.Error(err))
		}
		// 世代はDBを読む前に取得する。読んでいる間に無効化されたら保存されない
		if gen, err = s.cache.Generation(ctx, eventID); err == nil {
			cacheable = true
		} else {
			logger.Warn("キャッシュ世代の取得エラー", zap.String("event_id", eventID), zap.Error(err))
		}
	}

	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return 0, err
	}
	count, err := s.seatRepo.CountAvailableByEventID(ctx, eventID)
	if err != nil {
		return 0, err
	}

	if cacheable {
		err := s.cache.SetAvailableCount(ctx, eventID, count, gen)
		switch {
		case errors.Is(err, redisinfra.ErrCacheStale):
			logger.Debug("読み取り中に無効化されたため空席数を保存しません", zap.String("event_id", eventID))
		case err != nil:
			logger.Warn("キャッシュ保存エラー", zap.String("event_id", eventID), zap.Error(err))
		}
	}
	return count, nil
}

func (s *SeatService) invalidate(ctx context.Context, eventIDs ...string) {
	invalidateCache(ctx, s.cache, eventIDs...)
}

// invalidateCache はキャッシュを無効化する。失敗は警告ログのみ
func invalidateCache(ctx context.Context, cache SeatCache, eventIDs ...string) {
	if cache == nil || len(eventIDs) == 0 {
		return
	}
	if err := cache.Invalidate(ctx, eventIDs...); err != nil {
		logger.Warn("キャッシュ無効化エラー", zap.Strings("event_ids", eventIDs), zap.Error(err))
	}
}
