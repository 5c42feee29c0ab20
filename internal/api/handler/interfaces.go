package handler

import (
	"context"

	"github.com/sanosuguru/go-seat-booking/internal/application"
	"github.com/sanosuguru/go-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-seat-booking/internal/domain/event"
	"github.com/sanosuguru/go-seat-booking/internal/domain/seat"
)

// EventServiceInterface はイベントサービスのインターフェース
type EventServiceInterface interface {
	CreateEvent(ctx context.Context, input application.CreateEventInput) (*event.Event, error)
	GetEvent(ctx context.Context, id string) (*event.Event, error)
}

// SeatServiceInterface は座席サービスのインターフェース
type SeatServiceInterface interface {
	ProvisionSeats(ctx context.Context, input application.ProvisionSeatsInput) ([]*seat.Seat, error)
	GetSeat(ctx context.Context, id string) (*seat.Seat, error)
	GetSeatsByEvent(ctx context.Context, eventID string) ([]*seat.Seat, error)
	GetAvailableSeats(ctx context.Context, eventID string) ([]*seat.Seat, error)
	CountAvailableSeats(ctx context.Context, eventID string) (int, error)
}

// ReservationServiceInterface は仮押さえサービスのインターフェース
type ReservationServiceInterface interface {
	HoldSeats(ctx context.Context, input application.HoldSeatsInput) ([]*seat.Seat, error)
	ReleaseHold(ctx context.Context, input application.ReleaseHoldInput) error
}

// BookingServiceInterface は予約確定サービスのインターフェース
type BookingServiceInterface interface {
	FinalizeBooking(ctx context.Context, input application.FinalizeBookingInput) (*booking.Booking, error)
	GetBooking(ctx context.Context, id, userID string) (*booking.Booking, error)
	GetUserBookings(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error)
}
