package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/circle/backend/internal/models"
	"github.com/anonto42/circle/backend/internal/repositories"
	"github.com/anonto42/circle/backend/pkg/logger"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	likeRepository         repositories.LikeRepository
	postRepository         repositories.PostRepository
	friendshipRepository   repositories.FriendshipRepository
	notificationRepository repositories.NotificationRepository
	feed                   FeedInvalidator
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(
	likeRepo repositories.LikeRepository,
	postRepo repositories.PostRepository,
	friendshipRepo repositories.FriendshipRepository,
	notifRepo repositories.NotificationRepository,
	feed FeedInvalidator,
) *LikeHandler {
	return &LikeHandler{
		likeRepository:         likeRepo,
		postRepository:         postRepo,
		friendshipRepository:   friendshipRepo,
		notificationRepository: notifRepo,
		feed:                   feed,
	}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:id/likes", h.LikePost)
	g.DELETE("/posts/:id/likes", h.UnlikePost)
	g.GET("/posts/:id/likes", h.GetLikes)
}

// LikePost handles liking a post
func (h *LikeHandler) LikePost(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	post, err := loadVisiblePost(c, h.postRepository, h.friendshipRepository, userID, c.Param("id"))
	if err != nil {
		return err
	}
	postID := post.ID.Hex()

	ctx := c.Request().Context()
	like := &models.Like{PostID: postID, UserID: userID}
	if err := h.likeRepository.CreateLike(ctx, like); err != nil {
		return storeError(c, err, "Post not found")
	}
	adjustCounter(ctx, h.postRepository, postID, repositories.CounterLikes, 1)
	h.feed.InvalidateViewer(ctx, userID)

	if post.AuthorID != userID {
		notify(ctx, h.notificationRepository, models.Notification{
			Type:        models.NotificationLike,
			ActorID:     userID,
			RecipientID: post.AuthorID,
			TargetID:    postID,
			TargetType:  "post",
			Message:     "liked your post",
		})
	}
	return success(c, http.StatusCreated, like)
}

// UnlikePost handles unliking a post
func (h *LikeHandler) UnlikePost(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	postID := c.Param("id")

	ctx := c.Request().Context()
	if err := h.likeRepository.DeleteLike(ctx, postID, userID); err != nil {
		return storeError(c, err, "Like not found")
	}
	adjustCounter(ctx, h.postRepository, postID, repositories.CounterLikes, -1)
	h.feed.InvalidateViewer(ctx, userID)
	return c.NoContent(http.StatusNoContent)
}

// GetLikes lists the likes on a visible post
func (h *LikeHandler) GetLikes(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	post, err := loadVisiblePost(c, h.postRepository, h.friendshipRepository, userID, c.Param("id"))
	if err != nil {
		return err
	}

	likes, err := h.likeRepository.GetLikesByPostID(c.Request().Context(), post.ID.Hex())
	if err != nil {
		return storeError(c, err, "Post not found")
	}
	if likes == nil {
		likes = []models.Like{}
	}
	return success(c, http.StatusOK, echo.Map{"likes": likes, "count": len(likes)})
}

// adjustCounter keeps the denormalized counters in step with the engagement
// tables. The engagement row is already committed, so a failure is logged only.
func adjustCounter(ctx context.Context, posts repositories.PostRepository, postID string, counter repositories.Counter, delta int) {
	if err := posts.AdjustCounter(ctx, postID, counter, delta); err != nil {
		logger.Ctx(ctx).Warn().Err(err).
			Str("post_id", postID).
			Str("counter", string(counter)).
			Msg("failed to adjust post counter")
	}
}
