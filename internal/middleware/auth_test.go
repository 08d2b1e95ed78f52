package middleware

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"belajar-todo/pkg/token"
)

func newCodec(t *testing.T) *token.Codec {
	t.Helper()
	codec, err := token.NewCodec(token.Config{Secret: []byte("middleware-secret"), TTL: time.Hour})
	require.NoError(t, err)
	return codec
}

func TestAuthenticate(t *testing.T) {
	codec := newCodec(t)
	valid, err := codec.Issue(7, "alice")
	require.NoError(t, err)

	other, err := token.NewCodec(token.Config{Secret: []byte("other-secret")})
	require.NoError(t, err)
	foreign, err := other.Issue(7, "alice")
	require.NoError(t, err)

	past := codec.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	expired, err := past.Issue(7, "alice")
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		want   error
	}{
		{"empty", "", ErrMissingToken},
		{"blank", "   ", ErrMissingToken},
		{"no scheme", valid, ErrForbidden},
		{"wrong scheme", "Basic " + valid, ErrForbidden},
		{"scheme only", "Bearer ", ErrForbidden},
		{"garbage", "Bearer not-a-jwt", ErrForbidden},
		{"wrong secret", "Bearer " + foreign, ErrForbidden},
		{"expired", "Bearer " + expired, ErrForbidden},
		{"valid", "Bearer " + valid, nil},
		{"lowercase scheme", "bearer " + valid, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			claims, err := Authenticate(tc.header, codec)
			if tc.want != nil {
				assert.ErrorIs(t, err, tc.want)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 7, claims.UserID)
			assert.Equal(t, "alice", claims.Username)
		})
	}
}

func guardedApp(h fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Get("/me", h, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": UserID(c), "username": c.Locals("username")})
	})
	return app
}

func TestUseToken(t *testing.T) {
	codec := newCodec(t)
	app := guardedApp(UseToken(codec))
	valid, err := codec.Issue(3, "budi")
	require.NoError(t, err)

	tests := []struct {
		description  string
		header       string
		expectedCode int
		expectedBody string
	}{
		{"missing header", "", fiber.StatusUnauthorized, `{"message":"missing access token"}`},
		{"malformed header", "Token abc", fiber.StatusForbidden, `{"message":"invalid or expired token"}`},
		{"invalid token", "Bearer abc.def.ghi", fiber.StatusForbidden, `{"message":"invalid or expired token"}`},
		{"valid token", "Bearer " + valid, fiber.StatusOK, `{"user_id":3,"username":"budi"}`},
	}
	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if test.header != "" {
				req.Header.Set("Authorization", test.header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, test.expectedCode, resp.StatusCode)
			body, _ := io.ReadAll(resp.Body)
			assert.JSONEq(t, test.expectedBody, string(body))
		})
	}
}

func TestUseTokenOrQuery(t *testing.T) {
	codec := newCodec(t)
	app := guardedApp(UseTokenOrQuery(codec, "access_token"))
	valid, err := codec.Issue(5, "citra")
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest("GET", "/me?access_token="+valid, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, float64(5), out["user_id"])

	resp, err = app.Test(httptest.NewRequest("GET", "/me", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/me?access_token=nope", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// Header tetap diutamakan jika ada.
	req := httptest.NewRequest("GET", "/me?access_token="+valid, nil)
	req.Header.Set("Authorization", "Bearer broken")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestErrorHandlerRecoversPanic(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandler())
	app.Get("/boom", func(c *fiber.Ctx) error {
		panic("database exploded")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"message":"Internal server error"}`, string(body))
	assert.NotContains(t, string(body), "exploded")
}
