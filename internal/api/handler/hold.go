package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-seat-booking/internal/api/middleware"
	"github.com/sanosuguru/go-seat-booking/internal/application"
)

type HoldHandler struct {
	service ReservationServiceInterface
}

func NewHoldHandler(s ReservationServiceInterface) *HoldHandler {
	return &HoldHandler{service: s}
}

type HoldSeatsRequest struct {
	SeatIDs []string `json:"seat_ids" validate:"required,min=1,dive,required" example:"550e8400-e29b-41d4-a716-446655440001"`
}

type HoldResponse struct {
	EventID string         `json:"event_id"`
	Seats   []SeatResponse `json:"seats"`
}

// Hold godoc
// @Summary 座席を仮押さえ
// @Description 指定座席をすべて仮押さえします（15分間有効）。1席でも取れなければ何も変更しません
// @Tags holds
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event_id path string true "イベントID"
// @Param request body HoldSeatsRequest true "座席ID"
// @Success 200 {object} HoldResponse
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse "1つ以上の座席が予約できません"
// @Router /events/{event_id}/holds [post]
func (h *HoldHandler) Hold(c echo.Context) error {
	var req HoldSeatsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	eventID := c.Param("event_id")
	seats, err := h.service.HoldSeats(c.Request().Context(), application.HoldSeatsInput{
		EventID: eventID, UserID: middleware.UserID(c), SeatIDs: req.SeatIDs,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, HoldResponse{EventID: eventID, Seats: toSeatResponses(seats)})
}

// Release godoc
// @Summary 仮押さえを解除
// @Tags holds
// @Accept json
// @Security BearerAuth
// @Param event_id path string true "イベントID"
// @Param request body HoldSeatsRequest true "座席ID"
// @Success 204
// @Failure 409 {object} api.ErrorResponse "このユーザーの仮押さえではありません"
// @Router /events/{event_id}/holds/release [post]
func (h *HoldHandler) Release(c echo.Context) error {
	var req HoldSeatsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := h.service.ReleaseHold(c.Request().Context(), application.ReleaseHoldInput{
		EventID: c.Param("event_id"), UserID: middleware.UserID(c), SeatIDs: req.SeatIDs,
	}); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
