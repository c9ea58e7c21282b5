package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/anonto42/socialgraph/backend/internal/auth"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CookieName is the cookie carrying the session token
const CookieName = "jwt"

const userIDKey = "userID"

// TokenResolver turns a bearer token the session tokens do not recognise
// into an account id
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (primitive.ObjectID, error)
}

// JWTAuthMiddleware requires a valid session token, from the jwt cookie or an
// Authorization: Bearer header, and stores the caller's account id. A cookie
// that fails to parse falls through to the header. Bearer tokens that fail to
// parse are offered to the fallback resolvers in order.
func JWTAuthMiddleware(tokens *auth.TokenManager, fallbacks ...TokenResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, hasCookie := cookieToken(c)
			if hasCookie {
				if id, ok := sessionUserID(tokens, cookie); ok {
					c.Set(userIDKey, id)
					return next(c)
				}
			}

			bearer, err := bearerToken(c)
			if err != nil {
				if hasCookie && c.Request().Header.Get("Authorization") == "" {
					// only a stale cookie was sent
					return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized: Invalid Token")
				}
				return err
			}

			if id, ok := sessionUserID(tokens, bearer); ok {
				c.Set(userIDKey, id)
				return next(c)
			}
			for _, resolver := range fallbacks {
				if id, err := resolver.Resolve(c.Request().Context(), bearer); err == nil {
					c.Set(userIDKey, id)
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized: Invalid Token")
		}
	}
}

func sessionUserID(tokens *auth.TokenManager, token string) (primitive.ObjectID, bool) {
	claims, err := tokens.Parse(token)
	if err != nil {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

func cookieToken(c echo.Context) (string, bool) {
	cookie, err := c.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized: No Token Provided")
	}

	// Expecting "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
	}
	return parts[1], nil
}

// UserID returns the authenticated caller set by JWTAuthMiddleware
func UserID(c echo.Context) (primitive.ObjectID, bool) {
	id, ok := c.Get(userIDKey).(primitive.ObjectID)
	return id, ok && !id.IsZero()
}

// SetUserID marks c as authenticated as id
func SetUserID(c echo.Context, id primitive.ObjectID) {
	c.Set(userIDKey, id)
}
