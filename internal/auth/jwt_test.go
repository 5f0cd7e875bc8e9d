package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateToken(secret, "11111111-1111-1111-1111-111111111111")
	require.NoError(t, err)

	uid, err := ParseToken(secret, token)
	require.NoError(t, err)
	require.Equal(t, "11111111-1111-1111-1111-111111111111", uid)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken([]byte("secret-a"), "u1")
	require.NoError(t, err)

	_, err = ParseToken([]byte("secret-b"), token)
	require.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	secret := []byte("test-secret")

	app := fiber.New()
	app.Get("/protected", Middleware(secret, nil), func(c *fiber.Ctx) error {
		uid, err := UserID(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"user_id": uid})
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/protected", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Basic abc")
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := GenerateToken(secret, "u1")
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}
