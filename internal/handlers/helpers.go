package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/circle/backend/internal/middleware"
	"github.com/anonto42/circle/backend/internal/models"
	"github.com/anonto42/circle/backend/internal/repositories"
	"github.com/anonto42/circle/backend/pkg/logger"
)

// FeedInvalidator drops cached feed pages after writes.
type FeedInvalidator interface {
	InvalidateAll(ctx context.Context)
	InvalidateViewer(ctx context.Context, viewerID uint)
}

func getUserIDFromContext(c echo.Context) uint {
	id, _ := middleware.UserIDFromContext(c)
	return id
}

func requireUser(c echo.Context) (uint, error) {
	id := getUserIDFromContext(c)
	if id == 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	return id, nil
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	return c.Validate(req)
}

func parseUintParam(c echo.Context, name, label string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+label)
	}
	return uint(id), nil
}

// storeError maps repository sentinels to HTTP errors. Anything unexpected is
// logged and reported as a generic 500.
func storeError(c echo.Context, err error, notFound string) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, notFound)
	case errors.Is(err, repositories.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, "Resource already exists")
	default:
		logger.Ctx(c.Request().Context()).Error().Err(err).Msg("store operation failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
}

func success(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

// notify stores notifications without failing the request that caused them.
func notify(ctx context.Context, repo repositories.NotificationRepository, notifications ...models.Notification) {
	if err := repo.CreateNotifications(ctx, notifications); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Int("count", len(notifications)).Msg("failed to store notifications")
	}
}

// postVisibility decides whether viewerID may read post, consulting the
// friendship graph only for friends-only posts.
func postVisibility(ctx context.Context, friendships repositories.FriendshipRepository, viewerID uint, post *models.Post) (bool, error) {
	if post.Visibility != models.VisibilityFriends || post.AuthorID == viewerID {
		return post.VisibleTo(viewerID, false), nil
	}
	edge, err := friendships.GetFriendshipBetween(ctx, viewerID, post.AuthorID)
	if errors.Is(err, repositories.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return post.VisibleTo(viewerID, edge.Status == models.FriendshipAccepted), nil
}

// loadVisiblePost fetches a post and hides it as 404 when the viewer may not see it.
func loadVisiblePost(c echo.Context, posts repositories.PostRepository, friendships repositories.FriendshipRepository, viewerID uint, postID string) (*models.Post, error) {
	ctx := c.Request().Context()
	post, err := posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, storeError(c, err, "Post not found")
	}
	ok, err := postVisibility(ctx, friendships, viewerID, post)
	if err != nil {
		return nil, storeError(c, err, "Post not found")
	}
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	return post, nil
}
