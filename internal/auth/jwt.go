package auth

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const tokenTTL = 24 * time.Hour

// GenerateToken signs a JWT carrying the user id, valid for 24 hours.
func GenerateToken(secret []byte, userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(tokenTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

// ParseToken validates a signed token and returns the user id claim.
func ParseToken(secret []byte, tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return "", fiber.NewError(fiber.StatusUnauthorized, "invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fiber.NewError(fiber.StatusUnauthorized, "invalid token")
	}
	userID, ok := claims["user_id"].(string)
	if !ok || strings.TrimSpace(userID) == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "invalid token")
	}
	return userID, nil
}

// Middleware guards routes with bearer-token auth. The authenticated user id
// lands in locals under "user_id". When pool is non-nil, last_seen_at is
// updated best-effort without blocking the request.
func Middleware(secret []byte, pool *pgxpool.Pool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing token")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		userID, err := ParseToken(secret, parts[1])
		if err != nil {
			return err
		}

		c.Locals("user_id", userID)

		if pool != nil {
			go func(uid string) {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_, _ = pool.Exec(ctx, `UPDATE users SET last_seen_at = NOW() WHERE id = $1::uuid`, uid)
			}(userID)
		}

		return c.Next()
	}
}

// UserID extracts the authenticated user id placed in locals by Middleware.
func UserID(c *fiber.Ctx) (string, error) {
	if uid, ok := c.Locals("user_id").(string); ok && strings.TrimSpace(uid) != "" {
		return uid, nil
	}
	return "", fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
}

// UserContext returns the request-scoped context for DB calls.
func UserContext(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}
