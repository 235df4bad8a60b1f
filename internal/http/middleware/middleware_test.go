package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localmart/internal/auth"
)

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendString(GetRequestID(c))
	})

	t.Run("should generate new request id if not present", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		ridHeader := resp.Header.Get(RequestIDHeader)
		assert.NotEmpty(t, ridHeader)

		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		assert.Equal(t, ridHeader, buf.String())
	})

	t.Run("should preserve existing request id", func(t *testing.T) {
		existingID := "test-id-123"
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, existingID)

		resp, _ := app.Test(req)

		assert.Equal(t, existingID, resp.Header.Get(RequestIDHeader))
		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		assert.Equal(t, existingID, buf.String())
	})

	t.Run("should replace oversized request id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("x", 200))

		resp, _ := app.Test(req)

		assert.Len(t, resp.Header.Get(RequestIDHeader), 36)
	})
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()

	app.Use(RequestID())
	app.Use(LoggerWithWriter(&buf, time.UTC))

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusAccepted)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	var logData map[string]any
	err := json.Unmarshal(buf.Bytes(), &logData)
	assert.NoError(t, err)

	assert.NotEmpty(t, logData["request_id"])
	assert.Equal(t, "GET", logData["method"])
	assert.Equal(t, "/test", logData["path"])
	assert.Equal(t, float64(fiber.StatusAccepted), logData["status"])
	assert.Equal(t, "info", logData["level"])
	assert.NotNil(t, logData["latency"])
	assert.NotEmpty(t, logData["ts"])
}

func TestLogger_InternalError(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	app.Use(LoggerWithWriter(&buf, time.UTC))
	app.Get("/boom", func(c *fiber.Ctx) error {
		c.Locals(ErrorLocalKey, errors.New("connection refused"))
		return c.SendStatus(fiber.StatusInternalServerError)
	})

	app.Test(httptest.NewRequest("GET", "/boom", nil))

	var logData map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logData))
	assert.Equal(t, "error", logData["level"])
	assert.Equal(t, "connection refused", logData["error_message"])
}

type staticTokens map[string]*auth.Claims

func (s staticTokens) Parse(token string) (*auth.Claims, error) {
	if c, ok := s[token]; ok {
		return c, nil
	}
	return nil, auth.ErrInvalidToken
}

func claimsFor(userID, role string) *auth.Claims {
	c := &auth.Claims{Role: role}
	c.Subject = userID
	return c
}

func TestAuth(t *testing.T) {
	tokens := staticTokens{"good": claimsFor("u1", "Seller")}
	app := fiber.New()
	app.Get("/me", Auth(tokens, nil), func(c *fiber.Ctx) error {
		return c.SendString(GetClaims(c).UserID())
	})
	app.Get("/seller", Auth(tokens, nil), RequireRoles("Seller"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/admin", Auth(tokens, nil), RequireRoles("Admin"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	cases := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"missing token", "/me", "", fiber.StatusUnauthorized},
		{"wrong scheme", "/me", "Basic good", fiber.StatusUnauthorized},
		{"bad token", "/me", "Bearer nope", fiber.StatusUnauthorized},
		{"valid token", "/me", "Bearer good", fiber.StatusOK},
		{"lowercase scheme", "/me", "bearer good", fiber.StatusOK},
		{"role allowed", "/seller", "Bearer good", fiber.StatusNoContent},
		{"role denied", "/admin", "Bearer good", fiber.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	tokens := staticTokens{"good": claimsFor("u1", "Buyer")}
	app := fiber.New()
	app.Get("/p", OptionalAuth(tokens, nil), func(c *fiber.Ctx) error {
		if cl := GetClaims(c); cl != nil {
			return c.SendString(cl.UserID())
		}
		return c.SendString("anonymous")
	})

	for header, want := range map[string]string{"": "anonymous", "Bearer bad": "anonymous", "Bearer good": "u1"} {
		req := httptest.NewRequest("GET", "/p", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		assert.Equal(t, want, buf.String())
	}
}

func TestQueryAuth(t *testing.T) {
	tokens := staticTokens{"good": claimsFor("u1", "Buyer")}
	app := fiber.New()
	app.Get("/ws", QueryAuth(tokens, nil), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, _ := app.Test(httptest.NewRequest("GET", "/ws?token=good", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = app.Test(httptest.NewRequest("GET", "/ws", nil))
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

type staticAccounts map[string][2]string

func (s staticAccounts) Standing(_ context.Context, userID string) (string, string, error) {
	if userID == "broken" {
		return "", "", errors.New("mongo unavailable")
	}
	a := s[userID]
	return a[0], a[1], nil
}

func TestAuth_ChecksStoredAccount(t *testing.T) {
	tokens := staticTokens{
		"active":   claimsFor("u1", "Buyer"),
		"promoted": claimsFor("u2", "Buyer"),
		"disabled": claimsFor("u3", "Seller"),
		"gone":     claimsFor("u4", "Seller"),
		"broken":   claimsFor("broken", "Buyer"),
	}
	accounts := staticAccounts{
		"u1": {"Buyer", "Active"},
		"u2": {"Seller", "Active"},
		"u3": {"Seller", "Disabled"},
	}
	app := fiber.New()
	app.Get("/role", Auth(tokens, accounts), func(c *fiber.Ctx) error {
		return c.SendString(GetClaims(c).Role)
	})
	app.Get("/seller", Auth(tokens, accounts), RequireRoles("Seller"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	app.Get("/feed", OptionalAuth(tokens, accounts), func(c *fiber.Ctx) error {
		if cl := GetClaims(c); cl != nil {
			return c.SendString(cl.UserID())
		}
		return c.SendString("anonymous")
	})
	app.Get("/ws", QueryAuth(tokens, accounts), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	get := func(path, token string) *http.Response {
		req := httptest.NewRequest("GET", path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}
	body := func(resp *http.Response) string {
		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		return buf.String()
	}

	resp := get("/role", "active")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Buyer", body(resp))

	resp = get("/seller", "promoted")
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode, "stored role wins over the token role")
	assert.Equal(t, "Buyer", tokens["promoted"].Role, "shared claims are not mutated")

	assert.Equal(t, fiber.StatusForbidden, get("/role", "disabled").StatusCode)
	assert.Equal(t, fiber.StatusForbidden, get("/role", "gone").StatusCode)
	assert.Equal(t, fiber.StatusInternalServerError, get("/role", "broken").StatusCode)

	assert.Equal(t, "anonymous", body(get("/feed", "disabled")))
	assert.Equal(t, "u1", body(get("/feed", "active")))

	resp, _ = app.Test(httptest.NewRequest("GET", "/ws?token=disabled", nil))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
