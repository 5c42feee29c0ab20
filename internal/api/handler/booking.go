package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-seat-booking/internal/api/middleware"
	"github.com/sanosuguru/go-seat-booking/internal/application"
	"github.com/sanosuguru/go-seat-booking/internal/domain/booking"
)

type BookingHandler struct {
	service BookingServiceInterface
}

func NewBookingHandler(s BookingServiceInterface) *BookingHandler {
	return &BookingHandler{service: s}
}

type FinalizeBookingRequest struct {
	EventID       string   `json:"event_id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	SeatIDs       []string `json:"seat_ids" validate:"required,min=1,dive,required"`
	Amount        int      `json:"amount" validate:"gte=0" example:"1000"`
	TransactionID string   `json:"transaction_id" validate:"required,max=255" example:"pay_2026_0001"`
}

type BookingResponse struct {
	ID            string    `json:"id"`
	EventID       string    `json:"event_id"`
	UserID        string    `json:"user_id"`
	SeatIDs       []string  `json:"seat_ids"`
	Amount        int       `json:"amount"`
	TransactionID string    `json:"transaction_id"`
	CreatedAt     time.Time `json:"created_at"`
}

func toBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID: b.ID, EventID: b.EventID, UserID: b.UserID,
		SeatIDs: b.SeatIDs, Amount: b.Amount,
		TransactionID: b.TransactionID, CreatedAt: b.CreatedAt,
	}
}

// Finalize godoc
// @Summary 予約を確定
// @Description 決済済みの仮押さえを予約確定にします。同じ transaction_id の再送は既存の予約確定を返します
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body FinalizeBookingRequest true "決済情報"
// @Success 201 {object} BookingResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse "他のユーザーに購入されました。返金されます"
// @Failure 503 {object} api.ErrorResponse
// @Router /bookings [post]
func (h *BookingHandler) Finalize(c echo.Context) error {
	var req FinalizeBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	b, err := h.service.FinalizeBooking(c.Request().Context(), application.FinalizeBookingInput{
		EventID:       req.EventID,
		UserID:        middleware.UserID(c),
		SeatIDs:       req.SeatIDs,
		Amount:        req.Amount,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toBookingResponse(b))
}

// GetByID godoc
// @Summary 予約確定を取得
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "予約確定ID"
// @Success 200 {object} BookingResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /bookings/{id} [get]
func (h *BookingHandler) GetByID(c echo.Context) error {
	b, err := h.service.GetBooking(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// List godoc
// @Summary 自分の予約確定一覧
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param limit query int false "取得件数" default(20)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {array} BookingResponse
// @Router /bookings [get]
func (h *BookingHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	bookings, err := h.service.GetUserBookings(c.Request().Context(), middleware.UserID(c), limit, offset)
	if err != nil {
		return err
	}
	resp := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = toBookingResponse(b)
	}
	return c.JSON(http.StatusOK, resp)
}
