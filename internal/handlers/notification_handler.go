package handlers

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/circle/backend/internal/models"
	"github.com/anonto42/circle/backend/internal/repositories"
	"github.com/anonto42/circle/backend/pkg/logger"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	userRepository         repositories.UserRepository
	now                    func() time.Time
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifRepo repositories.NotificationRepository, userRepo repositories.UserRepository) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notifRepo,
		userRepository:         userRepo,
		now:                    time.Now,
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/grouped", h.GetGroupedNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
}

// EnrichedNotification includes actor info
type EnrichedNotification struct {
	models.Notification
	Actor models.UserCompact `json:"actor"`
}

// loadActors resolves every actor across the given batches in one query.
func (h *NotificationHandler) loadActors(ctx context.Context, batches ...[]models.Notification) map[uint]models.User {
	seen := make(map[uint]struct{})
	var ids []uint
	for _, batch := range batches {
		for _, n := range batch {
			if _, ok := seen[n.ActorID]; !ok {
				seen[n.ActorID] = struct{}{}
				ids = append(ids, n.ActorID)
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}
	actors, err := h.userRepository.GetUsersByIDs(ctx, ids)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("failed to load notification actors")
		return nil
	}
	return actors
}

func enrichNotifications(notifications []models.Notification, actors map[uint]models.User) []EnrichedNotification {
	enriched := make([]EnrichedNotification, len(notifications))
	for i, n := range notifications {
		enriched[i] = EnrichedNotification{Notification: n}
		if actor, ok := actors[n.ActorID]; ok {
			enriched[i].Actor = actor.ToCompact()
		}
	}
	return enriched
}

// GetNotifications returns paginated notifications
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	ctx := c.Request().Context()
	notifications, total, err := h.notificationRepository.GetByRecipientID(ctx, userID, page, limit)
	if err != nil {
		return storeError(c, err, "Notifications not found")
	}

	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	enriched := enrichNotifications(notifications, h.loadActors(ctx, notifications))

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"notifications": enriched,
		},
		"meta": echo.Map{
			"currentPage":     page,
			"totalPages":      totalPages,
			"totalItems":      total,
			"itemsPerPage":    limit,
			"hasNextPage":     page < totalPages,
			"hasPreviousPage": page > 1,
		},
	})
}

// GetGroupedNotifications returns notifications grouped by time period
func (h *NotificationHandler) GetGroupedNotifications(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	groups, err := h.notificationRepository.GetGrouped(ctx, userID, h.now())
	if err != nil {
		return storeError(c, err, "Notifications not found")
	}
	unreadCount, err := h.notificationRepository.GetUnreadCount(ctx, userID)
	if err != nil {
		return storeError(c, err, "Notifications not found")
	}

	actors := h.loadActors(ctx, groups.Today, groups.Yesterday, groups.ThisWeek, groups.Older)
	return success(c, http.StatusOK, echo.Map{
		"notifications": echo.Map{
			"today":     enrichNotifications(groups.Today, actors),
			"yesterday": enrichNotifications(groups.Yesterday, actors),
			"thisWeek":  enrichNotifications(groups.ThisWeek, actors),
			"older":     enrichNotifications(groups.Older, actors),
		},
		"unreadCount": unreadCount,
	})
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	count, err := h.notificationRepository.GetUnreadCount(c.Request().Context(), userID)
	if err != nil {
		return storeError(c, err, "Notifications not found")
	}
	return success(c, http.StatusOK, echo.Map{"count": count})
}

// MarkAsRead marks one of the user's notifications as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	notifID, err := parseUintParam(c, "id", "notification ID")
	if err != nil {
		return err
	}

	if err := h.notificationRepository.MarkAsRead(c.Request().Context(), notifID, userID); err != nil {
		return storeError(c, err, "Notification not found")
	}
	return success(c, http.StatusOK, echo.Map{"success": true})
}

// MarkAllAsRead marks all notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	if err := h.notificationRepository.MarkAllAsRead(c.Request().Context(), userID); err != nil {
		return storeError(c, err, "Notifications not found")
	}
	return success(c, http.StatusOK, echo.Map{"success": true})
}
