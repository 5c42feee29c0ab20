package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-seat-booking/internal/domain/event"
	"github.com/sanosuguru/go-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-seat-booking/internal/infrastructure/notification"
)

// testClock は手動で進める時計
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingNotifier は送信された返金通知を記録する
type recordingNotifier struct {
	mu      sync.Mutex
	notices []notification.RefundNotice
	err     error
}

func (n *recordingNotifier) NotifyRefund(ctx context.Context, notice notification.RefundNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
	return n.err
}

func (n *recordingNotifier) sent() []notification.RefundNotice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification.RefundNotice(nil), n.notices...)
}

type testEnv struct {
	store       *memStore
	clock       *testClock
	notifier    *recordingNotifier
	events      *EventService
	seats       *SeatService
	reservation *ReservationService
	bookings    *BookingService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newMemStore()
	clock := newTestClock()
	notifier := &recordingNotifier{}

	eventRepo := memEventRepo{store}
	seatRepo := memSeatRepo{store}
	bookingRepo := memBookingRepo{store}

	return &testEnv{
		store:       store,
		clock:       clock,
		notifier:    notifier,
		events:      NewEventService(eventRepo),
		seats:       NewSeatService(store, seatRepo, eventRepo, nil, WithClock(clock.Now)),
		reservation: NewReservationService(store, seatRepo, nil, WithClock(clock.Now)),
		bookings:    NewBookingService(store, bookingRepo, seatRepo, notifier, nil, WithClock(clock.Now)),
	}
}

// provision は主催者 "manager-1" のイベントに rows×perRow の座席を作る
func (e *testEnv) provision(t *testing.T, rows, perRow int, priceByRow map[int]int) (*event.Event, []*seat.Seat) {
	t.Helper()
	ctx := context.Background()
	ev, err := e.events.CreateEvent(ctx, CreateEventInput{OwnerID: "manager-1", Name: "テストイベント", StartAt: e.clock.Now().Add(24 * time.Hour)})
	require.NoError(t, err)

	seats, err := e.seats.ProvisionSeats(ctx, ProvisionSeatsInput{
		EventID: ev.ID, CallerID: "manager-1", Rows: rows, SeatsPerRow: perRow, PriceByRow: priceByRow,
	})
	require.NoError(t, err)
	return ev, seats
}

func seatIDs(seats ...*seat.Seat) []string {
	ids := make([]string, len(seats))
	for i, s := range seats {
		ids[i] = s.ID
	}
	return ids
}
