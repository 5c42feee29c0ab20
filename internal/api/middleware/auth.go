package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// RoleEventManager は座席を登録できる主催者ロール
const RoleEventManager = "eventManager"

const (
	contextKeyUserID = "user_id"
	contextKeyRole   = "role"
)

// JWTAuth は HS256 の Bearer トークンを検証し、sub と role をコンテキストに設定する
func JWTAuth(secret string) echo.MiddlewareFunc {
	key := []byte(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "認証トークンが必要です")
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims := jwt.MapClaims{}
			tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
				return key, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !tok.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "無効な認証トークンです")
			}

			sub, err := claims.GetSubject()
			if err != nil || sub == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "無効な認証トークンです")
			}
			role, _ := claims[contextKeyRole].(string)

			c.Set(contextKeyUserID, sub)
			c.Set(contextKeyRole, role)
			return next(c)
		}
	}
}

// RequireRole は指定ロールのいずれかを持つ利用者のみ通す
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := allowed[Role(c)]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "この操作を行う権限がありません")
			}
			return next(c)
		}
	}
}

// UserID は認証済みユーザーIDを返す。未認証なら空文字
func UserID(c echo.Context) string {
	v, _ := c.Get(contextKeyUserID).(string)
	return v
}

func Role(c echo.Context) string {
	v, _ := c.Get(contextKeyRole).(string)
	return v
}

// SetIdentity はテストなどで認証済みの状態を作る
func SetIdentity(c echo.Context, userID, role string) {
	c.Set(contextKeyUserID, userID)
	c.Set(contextKeyRole, role)
}
