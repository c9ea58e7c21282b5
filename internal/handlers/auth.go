package handlers

import (
	"net/http"
	"time"

	"github.com/anonto42/socialgraph/backend/internal/auth"
	"github.com/anonto42/socialgraph/backend/internal/middleware"
	"github.com/anonto42/socialgraph/backend/internal/models"
	"github.com/anonto42/socialgraph/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	accounts     *services.AccountService
	tokens       *auth.TokenManager
	cookieSecure bool
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(accounts *services.AccountService, tokens *auth.TokenManager, cookieSecure bool) *AuthHandler {
	return &AuthHandler{accounts: accounts, tokens: tokens, cookieSecure: cookieSecure}
}

// RegisterAuthRoutes registers authentication routes. Only /me needs a
// session, so protect is applied to it alone.
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group, protect echo.MiddlewareFunc) {
	g.POST("/signup", h.Signup)
	g.POST("/login", h.Login)
	g.POST("/logout", h.Logout)
	g.POST("/firebase-login", h.FirebaseLogin)
	g.GET("/me", h.Me, protect)
}

// authResponse is the account plus the session token also set as a cookie
type authResponse struct {
	models.Account
	Token string `json:"token"`
}

func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.SignupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	account, err := h.accounts.Signup(c.Request().Context(), req)
	if err != nil {
		return toHTTPError(err)
	}
	return h.startSession(c, http.StatusCreated, account)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	account, err := h.accounts.Login(c.Request().Context(), req)
	if err != nil {
		return toHTTPError(err)
	}
	return h.startSession(c, http.StatusOK, account)
}

// FirebaseLogin exchanges a Firebase ID token for a local session
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req models.FirebaseLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	account, err := h.accounts.FirebaseLogin(c.Request().Context(), req.IDToken)
	if err != nil {
		return toHTTPError(err)
	}
	return h.startSession(c, http.StatusOK, account)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(h.cookie("", -1))
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}

func (h *AuthHandler) Me(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	account, err := h.accounts.Me(c.Request().Context(), userID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, account)
}

func (h *AuthHandler) startSession(c echo.Context, status int, account *models.Account) error {
	token, err := h.tokens.Issue(account.ID.Hex())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token").SetInternal(err)
	}
	c.SetCookie(h.cookie(token, int(h.tokens.TTL()/time.Second)))
	return c.JSON(status, authResponse{Account: *account, Token: token})
}

func (h *AuthHandler) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	}
}
