package handlers

import (
	"net/http"

	"github.com/anonto42/socialgraph/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow graph HTTP requests
type FollowHandler struct {
	graph *services.GraphService
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(graph *services.GraphService) *FollowHandler {
	return &FollowHandler{graph: graph}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/follow/:id", h.FollowUnfollow)
	g.POST("/remove-follower/:id", h.RemoveFollower)
	g.GET("/:username/followers", h.GetFollowers)
	g.GET("/:username/following", h.GetFollowing)
}

// FollowUnfollow follows the user, or unfollows when already following
func (h *FollowHandler) FollowUnfollow(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	targetID, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	result, err := h.graph.FollowUnfollow(c.Request().Context(), userID, targetID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": result.Message})
}

// RemoveFollower makes the given user stop following the caller
func (h *FollowHandler) RemoveFollower(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	followerID, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.graph.RemoveFollower(c.Request().Context(), userID, followerID); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": services.MsgRemoved})
}

func (h *FollowHandler) GetFollowers(c echo.Context) error {
	followers, err := h.graph.Followers(c.Request().Context(), c.Param("username"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, followers)
}

func (h *FollowHandler) GetFollowing(c echo.Context) error {
	following, err := h.graph.Following(c.Request().Context(), c.Param("username"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, following)
}
