package handlers

import (
	"net/http"

	"github.com/anonto42/socialgraph/backend/internal/models"
	"github.com/anonto42/socialgraph/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// UserHandler handles profile and suggestion requests
type UserHandler struct {
	accounts    *services.AccountService
	suggestions *services.SuggestionService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(accounts *services.AccountService, suggestions *services.SuggestionService) *UserHandler {
	return &UserHandler{accounts: accounts, suggestions: suggestions}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile/:username", h.GetProfile)
	g.GET("/suggested", h.GetSuggested)
	g.POST("/update", h.UpdateProfile)
}

func (h *UserHandler) GetProfile(c echo.Context) error {
	account, err := h.accounts.Profile(c.Request().Context(), c.Param("username"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, account)
}

// GetSuggested returns up to a handful of accounts the caller does not follow
func (h *UserHandler) GetSuggested(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	suggested, err := h.suggestions.Suggest(c.Request().Context(), userID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, suggested)
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	var req models.UpdateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	account, err := h.accounts.UpdateProfile(c.Request().Context(), userID, req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, account)
}
