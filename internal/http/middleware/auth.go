package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"localmart/internal/auth"
	"localmart/internal/model"
)

// ClaimsLocalKey holds the *auth.Claims of an authenticated request.
const ClaimsLocalKey = "claims"

// TokenParser validates access tokens.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// AccountSource reports the current role and status of a token's subject, so a
// disabled account or a changed role takes effect before the token expires.
type AccountSource interface {
	Standing(ctx context.Context, userID string) (role, status string, err error)
}

var errInactive = fiber.NewError(fiber.StatusForbidden, "account is not active")

func bearer(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// resolve parses raw and, when accounts is set, replaces the token role with the
// stored one. A non-nil *fiber.Error is returned for rejected callers.
func resolve(c *fiber.Ctx, tokens TokenParser, accounts AccountSource, raw string) (*auth.Claims, error) {
	claims, err := tokens.Parse(raw)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
	}
	if accounts == nil {
		return claims, nil
	}
	role, status, err := accounts.Standing(c.UserContext(), claims.UserID())
	if err != nil {
		return nil, err
	}
	if status != model.UserActive {
		return nil, errInactive
	}
	live := *claims
	live.Role = role
	return &live, nil
}

// Auth rejects requests without a valid bearer token with 401 and inactive
// accounts with 403. accounts may be nil, in which case the token is trusted as is.
func Auth(tokens TokenParser, accounts AccountSource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearer(c)
		if raw == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}
		claims, err := resolve(c, tokens, accounts, raw)
		if err != nil {
			return err
		}
		c.Locals(ClaimsLocalKey, claims)
		return c.Next()
	}
}

// OptionalAuth stores claims when a valid token of an active account is present and
// otherwise lets the request through anonymously.
func OptionalAuth(tokens TokenParser, accounts AccountSource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if raw := bearer(c); raw != "" {
			if claims, err := resolve(c, tokens, accounts, raw); err == nil {
				c.Locals(ClaimsLocalKey, claims)
			}
		}
		return c.Next()
	}
}

// QueryAuth reads the token from the "token" query parameter. Browsers cannot set
// headers on a websocket handshake.
func QueryAuth(tokens TokenParser, accounts AccountSource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := resolve(c, tokens, accounts, c.Query("token"))
		if err != nil {
			return err
		}
		c.Locals(ClaimsLocalKey, claims)
		return c.Next()
	}
}

// RequireRoles allows the request only for the listed roles. It must run after Auth.
func RequireRoles(roles ...string) fiber.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *fiber.Ctx) error {
		claims := GetClaims(c)
		if claims == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}
		if !allowed[claims.Role] {
			return fiber.NewError(fiber.StatusForbidden, "insufficient role")
		}
		return c.Next()
	}
}

// GetClaims returns the caller's claims or nil for anonymous requests.
func GetClaims(c *fiber.Ctx) *auth.Claims {
	return GetClaimsFrom(c.Locals(ClaimsLocalKey))
}

// GetClaimsFrom converts a stored local value, as read from a websocket connection.
func GetClaimsFrom(v any) *auth.Claims {
	claims, _ := v.(*auth.Claims)
	return claims
}
