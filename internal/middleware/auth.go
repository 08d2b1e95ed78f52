package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"belajar-todo/pkg/logger"
	"belajar-todo/pkg/token"
)

var (
	// ErrMissingToken berarti request tidak membawa token sama sekali (401).
	ErrMissingToken = errors.New("missing access token")
	// ErrForbidden berarti token ada tapi formatnya salah, tidak valid, atau expired (403).
	ErrForbidden = errors.New("invalid or expired token")
)

// Verifier memvalidasi token mentah. Dipenuhi oleh *token.Codec.
type Verifier interface {
	Verify(raw string) (token.Claims, error)
}

// Authenticate memeriksa nilai header Authorization dan mengembalikan claims.
func Authenticate(header string, v Verifier) (token.Claims, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return token.Claims{}, ErrMissingToken
	}
	scheme, raw, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return token.Claims{}, ErrForbidden
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return token.Claims{}, ErrForbidden
	}
	claims, err := v.Verify(raw)
	if err != nil {
		return token.Claims{}, ErrForbidden
	}
	return claims, nil
}

// UseToken hanya menerima token dari header Authorization.
func UseToken(v Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return guard(c, v, c.Get(fiber.HeaderAuthorization))
	}
}

// UseTokenOrQuery juga menerima token dari query param, untuk upgrade WebSocket
// dari browser yang tidak bisa mengirim header.
func UseTokenOrQuery(v Verifier, param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if strings.TrimSpace(header) == "" {
			if raw := c.Query(param); raw != "" {
				header = "Bearer " + raw
			}
		}
		return guard(c, v, header)
	}
}

func guard(c *fiber.Ctx, v Verifier, header string) error {
	claims, err := Authenticate(header, v)
	switch {
	case errors.Is(err, ErrMissingToken):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": err.Error()})
	case err != nil:
		logger.SecurityLogger.Warn("Rejected token",
			zap.String("ip", c.IP()),
			zap.String("path", c.Path()),
		)
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": err.Error()})
	}
	c.Locals("userID", claims.UserID)
	c.Locals("username", claims.Username)
	return c.Next()
}

// UserID mengambil id user yang diset oleh UseToken.
func UserID(c *fiber.Ctx) int {
	id, _ := c.Locals("userID").(int)
	return id
}
