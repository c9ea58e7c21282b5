package handlers

import (
	"net/http"

	"github.com/anonto42/socialgraph/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	engagement *services.EngagementService
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(engagement *services.EngagementService) *LikeHandler {
	return &LikeHandler{engagement: engagement}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/like/:id", h.LikeUnlikePost)
}

// LikeUnlikePost toggles the caller's like and responds with the post's likes
func (h *LikeHandler) LikeUnlikePost(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	postID, err := objectIDParam(c, "id")
	if err != nil {
		return err
	}

	likes, err := h.engagement.LikeUnlike(c.Request().Context(), userID, postID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, likes)
}
