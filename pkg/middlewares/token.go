package middlewares

import (
	"strings"

	"realtime_chat_service/pkg/logger"
	t_token "realtime_chat_service/pkg/token"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	//QueryToken token in query name
	QueryToken = "auth"

	//CookieToken token in cookie name
	CookieToken = "auth_token"

	//TokenMemberID get member form token, set c.locals name
	TokenMemberID = "MemberID"
	//TokenRole get role form token, set c.locals name
	TokenRole = "role"
)

// TokenVerifier 驗證 token 取得 claims
type TokenVerifier interface {
	Verify(tokenStr string) (*t_token.Claims, error)
}

// JWTMiddleware 驗證 token, 成功後把 member id 放進 c.Locals
// token 來源順序: query auth -> cookie auth_token -> Authorization: Bearer
func JWTMiddleware(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := c.Query(QueryToken)

		if tokenStr == "" {
			tokenStr = c.Cookies(CookieToken)
		}

		if tokenStr == "" {
			if h := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
				tokenStr = strings.TrimPrefix(h, "Bearer ")
			}
		}

		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing token",
			})
		}

		claims, err := verifier.Verify(tokenStr)
		if err != nil {
			logger.Log.Debug("token rejected", zap.String("path", c.Path()), zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		c.Locals(TokenMemberID, claims.UserID())
		c.Locals(TokenRole, claims.Role)
		return c.Next()
	}
}

// MemberID 取出 middleware 設定的 member id
func MemberID(c *fiber.Ctx) string {
	id, _ := c.Locals(TokenMemberID).(string)
	return id
}
