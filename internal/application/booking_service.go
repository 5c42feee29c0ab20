package application

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-seat-booking/internal/domain/event"
	"github.com/sanosuguru/go-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-seat-booking/internal/domain/transaction"
	"github.com/sanosuguru/go-seat-booking/internal/infrastructure/notification"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/metrics"
)

// 返金理由
const (
	RefundReasonSeatsAlreadyBooked = "seats_already_booked"
	RefundReasonAmountMismatch     = "amount_mismatch"
	RefundReasonNotFound           = "not_found"
)

type BookingService struct {
	txManager   transaction.Manager
	bookingRepo booking.Repository
	seatRepo    seat.Repository
	notifier    notification.Notifier
	cache       SeatCache
	opts        options
}

func NewBookingService(tm transaction.Manager, br booking.Repository, sr seat.Repository, n notification.Notifier, cache SeatCache, opts ...Option) *BookingService {
	return &BookingService{txManager: tm, bookingRepo: br, seatRepo: sr, notifier: n, cache: cache, opts: applyOptions(opts)}
}

type FinalizeBookingInput struct {
	EventID       string
	UserID        string
	SeatIDs       []string
	Amount        int
	TransactionID string
}

// FinalizeBooking は決済済みの仮押さえを予約確定にする。
// 座席がすべて販売済みになった場合のみ予約確定が残り、そうでなければ返金通知を送って競合を返す
func (s *BookingService) FinalizeBooking(ctx context.Context, input FinalizeBookingInput) (*booking.Booking, error) {
	input.EventID = canonicalID(input.EventID)
	input.SeatIDs = canonicalIDs(input.SeatIDs)
	b := booking.NewBooking(input.EventID, input.UserID, input.TransactionID, input.SeatIDs, input.Amount)
	if err := b.Validate(); err != nil {
		s.opts.metrics.Booking(metrics.StatusInvalid)
		return nil, err
	}

	// 冪等性チェック
	existing, err := s.bookingRepo.GetByTransactionID(ctx, input.TransactionID)
	if err == nil {
		return s.resolveReplay(existing, input)
	}
	if !errors.Is(err, booking.ErrBookingNotFound) {
		s.opts.metrics.Booking(metrics.StatusError)
		return nil, fmt.Errorf("冪等性チェックに失敗: %w", err)
	}

	err = s.finalize(ctx, b)
	switch {
	case err == nil:
		invalidateCache(ctx, s.cache, input.EventID)
		s.opts.metrics.Booking(metrics.StatusSuccess)
		logger.Info("予約を確定しました",
			zap.String("booking_id", b.ID),
			zap.String("event_id", b.EventID),
			zap.String("user_id", b.UserID),
			zap.Int("seat_count", len(b.SeatIDs)),
		)
		return b, nil

	case errors.Is(err, booking.ErrDuplicateTransactionID):
		// 同じ決済が並行して確定された
		existing, getErr := s.bookingRepo.GetByTransactionID(ctx, input.TransactionID)
		if getErr != nil {
			s.opts.metrics.Booking(metrics.StatusError)
			return nil, fmt.Errorf("予約確定の再取得に失敗: %w", getErr)
		}
		return s.resolveReplay(existing, input)

	case errors.Is(err, booking.ErrSeatsAlreadyBooked):
		s.opts.metrics.Booking(metrics.StatusConflict)
		s.requestRefund(ctx, input, RefundReasonSeatsAlreadyBooked)
		return nil, err

	case errors.Is(err, booking.ErrAmountMismatch):
		s.opts.metrics.Booking(metrics.StatusInvalid)
		s.requestRefund(ctx, input, RefundReasonAmountMismatch)
		return nil, err

	case errors.Is(err, event.ErrEventNotFound), errors.Is(err, seat.ErrSeatNotFound):
		// 決済済みなので存在しないイベント・座席でも返金する
		s.opts.metrics.Booking(metrics.StatusInvalid)
		s.requestRefund(ctx, input, RefundReasonNotFound)
		return nil, err

	default:
		s.opts.metrics.Booking(metrics.StatusError)
		return nil, err
	}
}

// finalize は予約確定の作成と座席の販売済み化を1トランザクションで行う
func (s *BookingService) finalize(ctx context.Context, b *booking.Booking) error {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.bookingRepo.Create(ctx, tx, b); err != nil {
		return err
	}

	ids := make([]string, len(b.SeatIDs))
	copy(ids, b.SeatIDs)
	sort.Strings(ids)

	total := 0
	for _, id := range ids {
		sold, err := s.seatRepo.SellSeat(ctx, tx, b.EventID, id, b.UserID)
		if err != nil {
			if errors.Is(err, seat.ErrSeatNotHeldByUser) {
				return booking.ErrSeatsAlreadyBooked
			}
			return err
		}
		total += sold.Price
	}
	if total != b.Amount {
		return booking.ErrAmountMismatch
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("コミットに失敗: %w", err)
	}
	return nil
}

func (s *BookingService) resolveReplay(existing *booking.Booking, input FinalizeBookingInput) (*booking.Booking, error) {
	if !existing.IsReplayOf(input.EventID, input.UserID) {
		s.opts.metrics.Booking(metrics.StatusConflict)
		return nil, booking.ErrTransactionIDConflict
	}
	s.opts.metrics.Booking(metrics.StatusReplay)
	return existing, nil
}

// requestRefund は返金通知を送る。呼び出し元のキャンセルに影響されないよう独立したコンテキストで送信する
func (s *BookingService) requestRefund(ctx context.Context, input FinalizeBookingInput, reason string) {
	notice := notification.RefundNotice{
		Recipient:     s.opts.refundRecipient,
		UserID:        input.UserID,
		EventID:       input.EventID,
		SeatIDs:       append([]string(nil), input.SeatIDs...),
		Amount:        input.Amount,
		TransactionID: input.TransactionID,
		Reason:        reason,
		Subject:       notification.RefundSubject,
		Body:          notification.RefundMessage,
		OccurredAt:    s.opts.now(),
	}
	fields := []zap.Field{
		zap.String("transaction_id", notice.TransactionID),
		zap.String("user_id", notice.UserID),
		zap.String("event_id", notice.EventID),
		zap.Strings("seat_ids", notice.SeatIDs),
		zap.Int("amount", notice.Amount),
		zap.String("reason", reason),
	}

	if s.notifier == nil {
		s.opts.metrics.RefundNotification(metrics.StatusFailed)
		logger.Error("返金通知先が設定されていません", fields...)
		return
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.refundTimeout)
	defer cancel()
	if err := s.notifier.NotifyRefund(sendCtx, notice); err != nil {
		s.opts.metrics.RefundNotification(metrics.StatusFailed)
		logger.Error("返金通知の送信に失敗しました", append(fields, zap.Error(err))...)
		return
	}
	s.opts.metrics.RefundNotification(metrics.StatusSuccess)
	logger.Warn("返金通知を送信しました", fields...)
}

func (s *BookingService) GetBooking(ctx context.Context, id, userID string) (*booking.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// 他人の予約確定は存在しないものとして扱う
	if b.UserID != userID {
		return nil, booking.ErrBookingNotFound
	}
	return b, nil
}

func (s *BookingService) GetUserBookings(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.bookingRepo.GetByUserID(ctx, userID, limit, offset)
}
