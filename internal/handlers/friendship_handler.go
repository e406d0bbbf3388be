package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/circle/backend/internal/models"
	"github.com/anonto42/circle/backend/internal/repositories"
)

// FriendshipHandler handles HTTP requests related to friendships
type FriendshipHandler struct {
	friendshipRepository   repositories.FriendshipRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	feed                   FeedInvalidator
}

// NewFriendshipHandler creates a new FriendshipHandler
func NewFriendshipHandler(friendshipRepo repositories.FriendshipRepository, userRepo repositories.UserRepository, notifRepo repositories.NotificationRepository, feed FeedInvalidator) *FriendshipHandler {
	return &FriendshipHandler{
		friendshipRepository:   friendshipRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		feed:                   feed,
	}
}

// RegisterFriendshipRoutes registers friendship-related routes
func (h *FriendshipHandler) RegisterFriendshipRoutes(g *echo.Group) {
	g.POST("/friends/request", h.SendFriendRequest)
	g.GET("/friends/requests/pending", h.GetPendingFriendRequests)
	g.PUT("/friends/request/:id/status", h.UpdateFriendRequestStatus)
	g.GET("/friends", h.GetFriends)
	g.DELETE("/friends/:id", h.DeleteFriend) // unfriend
}

// FriendRequestView is a pending request with the requester's profile
type FriendRequestView struct {
	models.Friendship
	Requester models.UserCompact `json:"requester"`
}

// SendFriendRequest handles sending a friend request
func (h *FriendshipHandler) SendFriendRequest(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req models.CreateFriendRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.AddresseeID == userID {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot send a friend request to yourself")
	}

	ctx := c.Request().Context()
	if _, err := h.userRepository.GetUserByID(ctx, req.AddresseeID); err != nil {
		return storeError(c, err, "Addressee user not found")
	}

	friendship := &models.Friendship{RequesterID: userID, AddresseeID: req.AddresseeID}
	if err := h.friendshipRepository.SendFriendRequest(ctx, friendship); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return echo.NewHTTPError(http.StatusConflict, "A friendship or request already exists")
		}
		return storeError(c, err, "Friend request not found")
	}

	notify(ctx, h.notificationRepository, models.Notification{
		Type:        models.NotificationFriend,
		ActorID:     userID,
		RecipientID: req.AddresseeID,
		TargetID:    fmt.Sprint(friendship.ID),
		TargetType:  "friendship",
		Message:     "sent you a friend request",
	})

	return success(c, http.StatusCreated, friendship)
}

// GetPendingFriendRequests lists requests waiting on the authenticated user
func (h *FriendshipHandler) GetPendingFriendRequests(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	requests, err := h.friendshipRepository.GetPendingForAddressee(ctx, userID)
	if err != nil {
		return storeError(c, err, "Friend request not found")
	}

	ids := make([]uint, len(requests))
	for i, r := range requests {
		ids[i] = r.RequesterID
	}
	users, err := h.userRepository.GetUsersByIDs(ctx, ids)
	if err != nil {
		return storeError(c, err, "User not found")
	}

	views := make([]FriendRequestView, len(requests))
	for i, r := range requests {
		u := users[r.RequesterID]
		views[i] = FriendRequestView{Friendship: r, Requester: u.ToCompact()}
	}
	return success(c, http.StatusOK, views)
}

// UpdateFriendRequestStatus accepts or rejects a request; only the addressee may answer.
func (h *FriendshipHandler) UpdateFriendRequestStatus(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	requestID, err := parseUintParam(c, "id", "request ID")
	if err != nil {
		return err
	}

	var req models.UpdateFriendRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	friendship, err := h.friendshipRepository.GetFriendshipByID(ctx, requestID)
	if err != nil {
		return storeError(c, err, "Friend request not found")
	}
	if friendship.AddresseeID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to modify this friend request")
	}
	if friendship.Status != models.FriendshipPending {
		return echo.NewHTTPError(http.StatusConflict, "Friend request already answered")
	}

	if err := h.friendshipRepository.UpdateStatus(ctx, requestID, req.Status); err != nil {
		return storeError(c, err, "Friend request not found")
	}
	friendship.Status = req.Status

	if req.Status == models.FriendshipAccepted {
		h.feed.InvalidateViewer(ctx, friendship.RequesterID)
		h.feed.InvalidateViewer(ctx, friendship.AddresseeID)
	}
	return success(c, http.StatusOK, friendship)
}

// GetFriends lists the authenticated user's accepted friends
func (h *FriendshipHandler) GetFriends(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	ids, err := h.friendshipRepository.GetAcceptedFriendIDs(ctx, userID)
	if err != nil {
		return storeError(c, err, "Friend not found")
	}
	users, err := h.userRepository.GetUsersByIDs(ctx, ids)
	if err != nil {
		return storeError(c, err, "Friend not found")
	}

	friends := make([]models.UserCompact, 0, len(users))
	for _, id := range ids {
		if u, ok := users[id]; ok {
			friends = append(friends, u.ToCompact())
		}
	}
	return success(c, http.StatusOK, friends)
}

// DeleteFriend removes an accepted friendship in either direction
func (h *FriendshipHandler) DeleteFriend(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	friendID, err := parseUintParam(c, "id", "friend user ID")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	friendship, err := h.friendshipRepository.GetFriendshipBetween(ctx, userID, friendID)
	if err != nil {
		return storeError(c, err, "Friendship not found")
	}
	if friendship.Status != models.FriendshipAccepted {
		return echo.NewHTTPError(http.StatusBadRequest, "Users are not friends")
	}

	if err := h.friendshipRepository.DeleteFriendship(ctx, friendship.ID); err != nil {
		return storeError(c, err, "Friendship not found")
	}

	h.feed.InvalidateViewer(ctx, userID)
	h.feed.InvalidateViewer(ctx, friendID)
	return c.NoContent(http.StatusNoContent)
}
