package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/circle/backend/internal/models"
	"github.com/anonto42/circle/backend/internal/repositories"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	followRepository       repositories.FollowRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	feed                   FeedInvalidator
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(followRepo repositories.FollowRepository, userRepo repositories.UserRepository, notifRepo repositories.NotificationRepository, feed FeedInvalidator) *FollowHandler {
	return &FollowHandler{
		followRepository:       followRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		feed:                   feed,
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
	g.GET("/users/:id/followers", h.GetFollowers)
	g.GET("/users/:id/following", h.GetFollowing)
}

// FollowUser follows a user
func (h *FollowHandler) FollowUser(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	targetID, err := parseUintParam(c, "id", "user ID")
	if err != nil {
		return err
	}
	if userID == targetID {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot follow yourself")
	}

	ctx := c.Request().Context()
	if _, err := h.userRepository.GetUserByID(ctx, targetID); err != nil {
		return storeError(c, err, "User not found")
	}

	follow := &models.Follow{FollowerID: userID, FollowingID: targetID}
	if err := h.followRepository.CreateFollow(ctx, follow); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return echo.NewHTTPError(http.StatusConflict, "Already following this user")
		}
		return storeError(c, err, "User not found")
	}

	h.feed.InvalidateViewer(ctx, userID)
	notify(ctx, h.notificationRepository, models.Notification{
		Type:        models.NotificationFollow,
		ActorID:     userID,
		RecipientID: targetID,
		TargetID:    fmt.Sprint(userID),
		TargetType:  "user",
		Message:     "started following you",
	})

	return success(c, http.StatusOK, echo.Map{"following": true})
}

// UnfollowUser unfollows a user
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	targetID, err := parseUintParam(c, "id", "user ID")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.followRepository.DeleteFollow(ctx, userID, targetID); err != nil {
		return storeError(c, err, "Not following this user")
	}

	h.feed.InvalidateViewer(ctx, userID)
	return success(c, http.StatusOK, echo.Map{"following": false})
}

func (h *FollowHandler) GetFollowers(c echo.Context) error {
	targetID, err := parseUintParam(c, "id", "user ID")
	if err != nil {
		return err
	}
	users, err := h.followRepository.GetFollowers(c.Request().Context(), targetID)
	if err != nil {
		return storeError(c, err, "User not found")
	}
	return success(c, http.StatusOK, compactUsers(users))
}

func (h *FollowHandler) GetFollowing(c echo.Context) error {
	targetID, err := parseUintParam(c, "id", "user ID")
	if err != nil {
		return err
	}
	users, err := h.followRepository.GetFollowing(c.Request().Context(), targetID)
	if err != nil {
		return storeError(c, err, "User not found")
	}
	return success(c, http.StatusOK, compactUsers(users))
}

func compactUsers(users []models.User) []models.UserCompact {
	out := make([]models.UserCompact, len(users))
	for i := range users {
		out[i] = users[i].ToCompact()
	}
	return out
}
