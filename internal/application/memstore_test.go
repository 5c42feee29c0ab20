package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sanosuguru/go-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-seat-booking/internal/domain/event"
	"github.com/sanosuguru/go-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-seat-booking/internal/domain/transaction"
)

// memStore はテスト用のインメモリストア。
// 更新は条件付きで行い、未コミットの行は更新したトランザクションがロックする（待たずに競合として失敗する）。
// ロールバックは変更前のスナップショットを戻す。
// 予約確定の一意キー（transaction_id と seat_id）は未コミットの挿入が終わるまで待ってから判定する
type memStore struct {
	mu       sync.Mutex
	cond     *sync.Cond
	seq      int
	events   map[string]*event.Event
	seats    map[string]*seat.Seat
	locks    map[string]*memTx
	bookings map[string]*booking.Booking
	byTxnID  map[string]string
	seatOf   map[string]string // seat_id -> booking_id
	pending  map[string]*memTx // 未コミットの一意キー -> 挿入したトランザクション
}

func newMemStore() *memStore {
	m := &memStore{
		events:   make(map[string]*event.Event),
		seats:    make(map[string]*seat.Seat),
		locks:    make(map[string]*memTx),
		bookings: make(map[string]*booking.Booking),
		byTxnID:  make(map[string]string),
		seatOf:   make(map[string]string),
		pending:  make(map[string]*memTx),
	}
	m.cond = sync.NewCond(&m.mu)
	return m
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%04d", prefix, m.seq)
}

func copySeat(s *seat.Seat) *seat.Seat {
	c := *s
	if s.HolderID != nil {
		h := *s.HolderID
		c.HolderID = &h
	}
	if s.HoldExpiry != nil {
		e := *s.HoldExpiry
		c.HoldExpiry = &e
	}
	return &c
}

func copyBooking(b *booking.Booking) *booking.Booking {
	c := *b
	c.SeatIDs = append([]string(nil), b.SeatIDs...)
	return &c
}

// --- transaction.Manager ---

type memTx struct {
	store    *memStore
	undo     []func()
	bookings []*booking.Booking
	done     bool
}

func (m *memStore) Begin(ctx context.Context) (transaction.Tx, error) {
	return &memTx{store: m}, nil
}

func (t *memTx) Commit() error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.done {
		return errors.New("トランザクションは終了しています")
	}
	for _, b := range t.bookings {
		t.store.bookings[b.ID] = b
		t.store.byTxnID[b.TransactionID] = b.ID
		for _, id := range b.SeatIDs {
			t.store.seatOf[id] = b.ID
		}
	}
	t.release()
	return nil
}

func (t *memTx) Rollback() error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.done {
		return nil
	}
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.release()
	return nil
}

// release は mu を保持して呼ぶ
func (t *memTx) release() {
	for id, owner := range t.store.locks {
		if owner == t {
			delete(t.store.locks, id)
		}
	}
	for key, owner := range t.store.pending {
		if owner == t {
			delete(t.store.pending, key)
		}
	}
	t.store.cond.Broadcast()
	t.done = true
	t.undo = nil
	t.bookings = nil
}

func asMemTx(tx transaction.Tx) *memTx {
	mt, ok := tx.(*memTx)
	if !ok || mt.done {
		panic("memTx ではないか終了済みのトランザクション")
	}
	return mt
}

// lockRow は行ロックを取る。他トランザクションが保持していれば false。mu を保持して呼ぶ
func (t *memTx) lockRow(id string) bool {
	if owner, ok := t.store.locks[id]; ok && owner != t {
		return false
	}
	if _, ok := t.store.locks[id]; !ok {
		t.store.locks[id] = t
		before := copySeat(t.store.seats[id])
		t.undo = append(t.undo, func() { t.store.seats[id] = before })
	}
	return true
}

// --- event.Repository ---

type memEventRepo struct{ *memStore }

func (r memEventRepo) Create(ctx context.Context, e *event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = r.nextID("event")
	c := *e
	r.events[e.ID] = &c
	return nil
}

func (r memEventRepo) GetByID(ctx context.Context, id string) (*event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, event.ErrEventNotFound
	}
	c := *e
	return &c, nil
}

// --- seat.Repository ---

type memSeatRepo struct{ *memStore }

func (r memSeatRepo) CreateBulk(ctx context.Context, tx transaction.Tx, seats []*seat.Seat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	mt := asMemTx(tx)
	for _, s := range seats {
		for _, existing := range r.seats {
			if existing.EventID == s.EventID && existing.SeatNumber == s.SeatNumber {
				return seat.ErrSeatsAlreadyProvisioned
			}
		}
		if s.ID == "" {
			s.ID = r.nextID("seat")
		}
		id := s.ID
		r.seats[id] = copySeat(s)
		r.locks[id] = mt
		mt.undo = append(mt.undo, func() { delete(r.seats, id) })
	}
	return nil
}

func (r memSeatRepo) GetByID(ctx context.Context, id string) (*seat.Seat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.seats[id]
	if !ok {
		return nil, seat.ErrSeatNotFound
	}
	return copySeat(s), nil
}

func (r memSeatRepo) GetByIDs(ctx context.Context, eventID string, ids []string) ([]*seat.Seat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*seat.Seat, 0, len(ids))
	for _, id := range ids {
		if s, ok := r.seats[id]; ok && s.EventID == eventID {
			result = append(result, copySeat(s))
		}
	}
	return result, nil
}

func (r memSeatRepo) list(eventID string, onlyAvailable bool) []*seat.Seat {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*seat.Seat, 0)
	for _, s := range r.seats {
		if s.EventID != eventID || (onlyAvailable && !s.IsAvailable()) {
			continue
		}
		result = append(result, copySeat(s))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Row != result[j].Row {
			return result[i].Row < result[j].Row
		}
		return result[i].Column < result[j].Column
	})
	return result
}

func (r memSeatRepo) GetByEventID(ctx context.Context, eventID string) ([]*seat.Seat, error) {
	return r.list(eventID, false), nil
}

func (r memSeatRepo) GetAvailableByEventID(ctx context.Context, eventID string) ([]*seat.Seat, error) {
	return r.list(eventID, true), nil
}

func (r memSeatRepo) CountAvailableByEventID(ctx context.Context, eventID string) (int, error) {
	return len(r.list(eventID, true)), nil
}

func (r memSeatRepo) HoldSeat(ctx context.Context, tx transaction.Tx, s *seat.Seat, userID string, expiry time.Time) (*seat.Seat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mt := asMemTx(tx)
	cur, ok := r.seats[s.ID]
	if !ok || cur.EventID != s.EventID || cur.Status != seat.StatusAvailable || cur.Version != s.Version {
		return nil, seat.ErrSeatsAlreadyReserved
	}
	if !mt.lockRow(s.ID) {
		return nil, seat.ErrSeatsAlreadyReserved
	}
	holder := userID
	exp := expiry
	cur.Status = seat.StatusHeld
	cur.HolderID = &holder
	cur.HoldExpiry = &exp
	cur.Version++
	return copySeat(cur), nil
}

func (r memSeatRepo) SellSeat(ctx context.Context, tx transaction.Tx, eventID, seatID, userID string) (*seat.Seat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mt := asMemTx(tx)
	cur, ok := r.seats[seatID]
	if !ok || cur.EventID != eventID || !cur.IsHeldBy(userID) {
		return nil, seat.ErrSeatNotHeldByUser
	}
	if !mt.lockRow(seatID) {
		return nil, seat.ErrSeatNotHeldByUser
	}
	cur.Status = seat.StatusSold
	cur.HoldExpiry = nil
	cur.Version++
	return copySeat(cur), nil
}

func (r memSeatRepo) ReleaseSeat(ctx context.Context, tx transaction.Tx, eventID, seatID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	mt := asMemTx(tx)
	cur, ok := r.seats[seatID]
	if !ok || cur.EventID != eventID || !cur.IsHeldBy(userID) {
		return seat.ErrSeatNotHeldByUser
	}
	if !mt.lockRow(seatID) {
		return seat.ErrSeatNotHeldByUser
	}
	cur.Status = seat.StatusAvailable
	cur.HolderID = nil
	cur.HoldExpiry = nil
	cur.Version++
	return nil
}

func (r memSeatRepo) ReleaseExpired(ctx context.Context, now time.Time) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	released := make(map[string]int)
	for id, cur := range r.seats {
		if _, locked := r.locks[id]; locked {
			continue
		}
		if cur.Status == seat.StatusHeld && cur.HoldExpiry != nil && cur.HoldExpiry.Before(now) {
			cur.Status = seat.StatusAvailable
			cur.HolderID = nil
			cur.HoldExpiry = nil
			cur.Version++
			released[cur.EventID]++
		}
	}
	return released, nil
}

// setSeat はテスト用に座席の状態を直接書き換える
func (m *memStore) setSeat(id string, mutate func(s *seat.Seat)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mutate(m.seats[id])
}

func (m *memStore) seatByID(id string) *seat.Seat {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copySeat(m.seats[id])
}

func (m *memStore) bookingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bookings)
}

// --- booking.Repository ---

type memBookingRepo struct{ *memStore }

func (r memBookingRepo) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	mt := asMemTx(tx)
	keys := make([]string, 0, len(b.SeatIDs)+1)
	keys = append(keys, "txn:"+b.TransactionID)
	for _, id := range b.SeatIDs {
		keys = append(keys, "seat:"+id)
	}
	r.waitPending(mt, keys)

	if _, ok := r.byTxnID[b.TransactionID]; ok {
		return booking.ErrDuplicateTransactionID
	}
	for _, id := range b.SeatIDs {
		if _, ok := r.seatOf[id]; ok {
			return booking.ErrSeatsAlreadyBooked
		}
	}
	for _, key := range keys {
		r.pending[key] = mt
	}
	b.ID = r.nextID("booking")
	mt.bookings = append(mt.bookings, copyBooking(b))
	return nil
}

// waitPending は他トランザクションが未コミットで挿入した一意キーが確定するまで待つ。mu を保持して呼ぶ
func (m *memStore) waitPending(mt *memTx, keys []string) {
	for {
		blocked := false
		for _, key := range keys {
			if owner, ok := m.pending[key]; ok && owner != mt {
				blocked = true
				break
			}
		}
		if !blocked {
			return
		}
		m.cond.Wait()
	}
}

func (r memBookingRepo) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	return copyBooking(b), nil
}

func (r memBookingRepo) GetByTransactionID(ctx context.Context, transactionID string) (*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byTxnID[transactionID]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	return copyBooking(r.bookings[id]), nil
}

func (r memBookingRepo) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*booking.Booking
	for _, b := range r.bookings {
		if b.UserID == userID {
			result = append(result, copyBooking(b))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	if offset >= len(result) {
		return []*booking.Booking{}, nil
	}
	result = result[offset:]
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

var (
	_ transaction.Manager = (*memStore)(nil)
	_ event.Repository    = memEventRepo{}
	_ seat.Repository     = memSeatRepo{}
	_ booking.Repository  = memBookingRepo{}
)
