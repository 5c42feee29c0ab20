package postgres

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/lib/pq"

	"github.com/sanosuguru/go-seat-booking/internal/domain/transaction"
)

// PostgreSQLのSQLSTATE
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeInvalidText          = "22P02"
)

func pqError(err error) (*pq.Error, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr, true
	}
	return nil, false
}

// isUniqueViolation は一意制約違反かを返す。constraint が空でなければ制約名も一致させる
func isUniqueViolation(err error, constraint string) bool {
	pqErr, ok := pqError(err)
	if !ok || pqErr.Code != codeUniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// isMissingReference は外部キー違反、または参照先IDの形式不正により参照先が存在しないかを返す
func isMissingReference(err error) bool {
	pqErr, ok := pqError(err)
	if !ok {
		return false
	}
	return pqErr.Code == codeForeignKeyViolation || pqErr.Code == codeInvalidText
}

// isInvalidText はUUID列に不正な文字列を渡した場合などの入力形式エラーかを返す
func isInvalidText(err error) bool {
	pqErr, ok := pqError(err)
	return ok && pqErr.Code == codeInvalidText
}

// isConflict は直列化失敗・デッドロックなど同時更新の競合かを返す
func isConflict(err error) bool {
	pqErr, ok := pqError(err)
	if !ok {
		return false
	}
	return pqErr.Code == codeSerializationFailure || pqErr.Code == codeDeadlockDetected
}

// isUnavailable は接続断など一時的にストレージへ到達できないエラーかを返す
func isUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	if pqErr, ok := pqError(err); ok {
		// クラス08: connection exception
		return strings.HasPrefix(string(pqErr.Code), "08")
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// classify は接続系のエラーを transaction.ErrStorageUnavailable として扱えるようにする
func classify(err error) error {
	if err == nil {
		return nil
	}
	if isUnavailable(err) {
		return fmt.Errorf("%w: %v", transaction.ErrStorageUnavailable, err)
	}
	return err
}
