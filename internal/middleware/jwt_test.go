package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newProtectedApp() *fiber.App {
	app := fiber.New()
	app.Use(JWTProtected(testSecret))
	app.Get("/me", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"id": UserID(c), "role": c.Locals(LocalUserRole)})
	})
	return app
}

func TestJWTProtectedStoresSubjectAndRole(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":  "stu-42",
		"role": "Student",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}, testSecret)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := newProtectedApp().Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload map[string]string
	decodeJSON(t, resp, &payload)
	require.Equal(t, "stu-42", payload["id"])
	require.Equal(t, "student", payload["role"])
}

func TestJWTProtectedRejectsBadTokens(t *testing.T) {
	expired := signToken(t, jwt.MapClaims{"sub": "a", "exp": time.Now().Add(-time.Hour).Unix()}, testSecret)
	foreign := signToken(t, jwt.MapClaims{"sub": "a"}, "other-secret")

	cases := map[string]string{
		"missing":    "",
		"not bearer": "Basic abc",
		"empty":      "Bearer ",
		"expired":    "Bearer " + expired,
		"foreign":    "Bearer " + foreign,
	}

	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := newProtectedApp().Test(req, -1)
		require.NoError(t, err, name)
		require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, name)
	}
}

func TestNormalizeUserID(t *testing.T) {
	require.Equal(t, "12", normalizeUserID(float64(12)))
	require.Equal(t, "abc", normalizeUserID(" abc "))
	require.Equal(t, "", normalizeUserID(float64(-1)))
	require.Equal(t, "", normalizeUserID(true))
}

func TestRateLimitRejectsBurst(t *testing.T) {
	app := fiber.New()
	app.Use(RateLimit("test", 2, time.Minute))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestCorrelationIDEchoesIncomingHeader(t *testing.T) {
	app := fiber.New()
	app.Use(CorrelationID())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(GetCorrelationID(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-1")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, "req-1", resp.Header.Get("X-Correlation-ID"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Header.Get("X-Correlation-ID"))
}
