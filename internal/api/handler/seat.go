package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-seat-booking/internal/api/middleware"
	"github.com/sanosuguru/go-seat-booking/internal/application"
	"github.com/sanosuguru/go-seat-booking/internal/domain/seat"
)

type SeatHandler struct {
	service SeatServiceInterface
}

func NewSeatHandler(s SeatServiceInterface) *SeatHandler {
	return &SeatHandler{service: s}
}

// ProvisionSeatsRequest の price_by_row は行番号（1始まり）ごとの価格
type ProvisionSeatsRequest struct {
	Rows        int         `json:"rows" validate:"required,min=1,max=10000" example:"3"`
	SeatsPerRow int         `json:"seats_per_row" validate:"required,min=1,max=10000" example:"5"`
	PriceByRow  map[int]int `json:"price_by_row" validate:"required" example:"1:500,2:400,3:300"`
}

type SeatResponse struct {
	ID         string     `json:"id"`
	EventID    string     `json:"event_id"`
	SeatNumber string     `json:"seat_number"`
	Row        int        `json:"row"`
	Column     int        `json:"column"`
	Status     string     `json:"status"`
	Price      int        `json:"price"`
	HoldExpiry *time.Time `json:"hold_expiry,omitempty"`
}

// 保持者のIDは公開しない
func toSeatResponse(s *seat.Seat) SeatResponse {
	return SeatResponse{
		ID: s.ID, EventID: s.EventID, SeatNumber: s.SeatNumber,
		Row: s.Row, Column: s.Column,
		Status: string(s.Status), Price: s.Price, HoldExpiry: s.HoldExpiry,
	}
}

func toSeatResponses(seats []*seat.Seat) []SeatResponse {
	resp := make([]SeatResponse, len(seats))
	for i, s := range seats {
		resp[i] = toSeatResponse(s)
	}
	return resp
}

// Provision godoc
// @Summary 座席を一括登録
// @Description 行×列のグリッドで座席を登録します（イベントの主催者のみ）
// @Tags seats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event_id path string true "イベントID"
// @Param request body ProvisionSeatsRequest true "座席レイアウト"
// @Success 201 {array} SeatResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 403 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse "登録済み"
// @Router /events/{event_id}/seats/provision [post]
func (h *SeatHandler) Provision(c echo.Context) error {
	var req ProvisionSeatsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	seats, err := h.service.ProvisionSeats(c.Request().Context(), application.ProvisionSeatsInput{
		EventID:     c.Param("event_id"),
		CallerID:    middleware.UserID(c),
		Rows:        req.Rows,
		SeatsPerRow: req.SeatsPerRow,
		PriceByRow:  req.PriceByRow,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toSeatResponses(seats))
}

// GetByEvent godoc
// @Summary イベントの座席一覧
// @Tags seats
// @Produce json
// @Param event_id path string true "イベントID"
// @Param available query bool false "空席のみ"
// @Success 200 {array} SeatResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /events/{event_id}/seats [get]
func (h *SeatHandler) GetByEvent(c echo.Context) error {
	eventID := c.Param("event_id")
	var (
		seats []*seat.Seat
		err   error
	)
	if c.QueryParam("available") == "true" {
		seats, err = h.service.GetAvailableSeats(c.Request().Context(), eventID)
	} else {
		seats, err = h.service.GetSeatsByEvent(c.Request().Context(), eventID)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSeatResponses(seats))
}

func (h *SeatHandler) GetByID(c echo.Context) error {
	s, err := h.service.GetSeat(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSeatResponse(s))
}

// CountAvailable godoc
// @Summary 空席数
// @Tags seats
// @Produce json
// @Param event_id path string true "イベントID"
// @Success 200 {object} map[string]int
// @Router /events/{event_id}/seats/available/count [get]
func (h *SeatHandler) CountAvailable(c echo.Context) error {
	count, err := h.service.CountAvailableSeats(c.Request().Context(), c.Param("event_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int{"count": count})
}
