package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-seat-booking/internal/domain/booking"
	"github.com/sanosuguru/go-seat-booking/internal/domain/event"
	"github.com/sanosuguru/go-seat-booking/internal/domain/seat"
	"github.com/sanosuguru/go-seat-booking/internal/domain/transaction"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/logger"
)

// ErrorResponse はエラーレスポンスの統一フォーマット
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type errorStatus struct {
	err  error
	code int
}

// 上から順に errors.Is で照合する
var domainErrors = []errorStatus{
	// 400
	{seat.ErrInvalidLayout, http.StatusBadRequest},
	{seat.ErrMissingRowPrice, http.StatusBadRequest},
	{seat.ErrInvalidPrice, http.StatusBadRequest},
	{seat.ErrSeatNumberRequired, http.StatusBadRequest},
	{seat.ErrSeatIDsRequired, http.StatusBadRequest},
	{seat.ErrDuplicateSeatIDs, http.StatusBadRequest},
	{seat.ErrEventIDRequired, http.StatusBadRequest},
	{seat.ErrUserIDRequired, http.StatusBadRequest},
	{seat.ErrInvalidHoldExpiry, http.StatusBadRequest},
	{booking.ErrEventIDRequired, http.StatusBadRequest},
	{booking.ErrUserIDRequired, http.StatusBadRequest},
	{booking.ErrSeatIDsRequired, http.StatusBadRequest},
	{booking.ErrDuplicateSeatIDs, http.StatusBadRequest},
	{booking.ErrTransactionIDRequired, http.StatusBadRequest},
	{booking.ErrInvalidAmount, http.StatusBadRequest},
	{booking.ErrAmountMismatch, http.StatusBadRequest},
	{event.ErrEventNameRequired, http.StatusBadRequest},
	{event.ErrOwnerIDRequired, http.StatusBadRequest},
	// 403
	{event.ErrNotEventOwner, http.StatusForbidden},
	// 404
	{event.ErrEventNotFound, http.StatusNotFound},
	{seat.ErrSeatNotFound, http.StatusNotFound},
	{booking.ErrBookingNotFound, http.StatusNotFound},
	// 409
	{seat.ErrSeatsNotAvailable, http.StatusConflict},
	{seat.ErrSeatsAlreadyReserved, http.StatusConflict},
	{seat.ErrSeatNotHeldByUser, http.StatusConflict},
	{seat.ErrSeatsAlreadyProvisioned, http.StatusConflict},
	{booking.ErrSeatsAlreadyBooked, http.StatusConflict},
	{booking.ErrTransactionIDConflict, http.StatusConflict},
	{booking.ErrDuplicateTransactionID, http.StatusConflict},
	// 503
	{transaction.ErrStorageUnavailable, http.StatusServiceUnavailable},
}

// StatusFor はドメインエラーに対応するHTTPステータスとメッセージを返す
func StatusFor(err error) (int, string) {
	for _, d := range domainErrors {
		if errors.Is(err, d.err) {
			return d.code, d.err.Error()
		}
	}
	return http.StatusInternalServerError, "内部サーバーエラー"
}

// CustomHTTPErrorHandler はカスタムエラーハンドラー
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		code    int
		message string
	)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	} else {
		code, message = StatusFor(err)
	}

	// エラーログを出力（5xx エラーの場合）
	if code >= 500 {
		logger.Error("サーバーエラー",
			zap.Int("status", code),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	}

	if err := c.JSON(code, ErrorResponse{
		Error: message,
		Code:  code,
	}); err != nil {
		logger.Error("エラーレスポンス送信失敗", zap.Error(err))
	}
}
