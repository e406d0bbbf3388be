package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/circle/backend/internal/models"
	"github.com/anonto42/circle/backend/internal/repositories"
)

// RepostHandler handles reposting posts to the user's own followers
type RepostHandler struct {
	repostRepository     repositories.RepostRepository
	postRepository       repositories.PostRepository
	friendshipRepository repositories.FriendshipRepository
	feed                 FeedInvalidator
}

func NewRepostHandler(
	repostRepo repositories.RepostRepository,
	postRepo repositories.PostRepository,
	friendshipRepo repositories.FriendshipRepository,
	feed FeedInvalidator,
) *RepostHandler {
	return &RepostHandler{
		repostRepository:     repostRepo,
		postRepository:       postRepo,
		friendshipRepository: friendshipRepo,
		feed:                 feed,
	}
}

func (h *RepostHandler) RegisterRepostRoutes(g *echo.Group) {
	g.POST("/posts/:id/repost", h.Repost)
	g.DELETE("/posts/:id/repost", h.Unrepost)
}

// Repost records a repost with an optional comment. Private posts cannot be
// reposted, not even by their author.
func (h *RepostHandler) Repost(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	var req models.CreateRepostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	post, err := loadVisiblePost(c, h.postRepository, h.friendshipRepository, userID, c.Param("id"))
	if err != nil {
		return err
	}
	if post.Visibility == models.VisibilityPrivate {
		return echo.NewHTTPError(http.StatusForbidden, "Private posts cannot be reposted")
	}
	postID := post.ID.Hex()

	repost := &models.Repost{UserID: userID, PostID: postID}
	if comment := strings.TrimSpace(req.Comment); comment != "" {
		repost.Comment = &comment
	}

	ctx := c.Request().Context()
	if err := h.repostRepository.CreateRepost(ctx, repost); err != nil {
		return storeError(c, err, "Post not found")
	}
	adjustCounter(ctx, h.postRepository, postID, repositories.CounterReposts, 1)
	h.feed.InvalidateViewer(ctx, userID)
	return success(c, http.StatusCreated, repost)
}

func (h *RepostHandler) Unrepost(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	postID := c.Param("id")

	ctx := c.Request().Context()
	if err := h.repostRepository.DeleteRepost(ctx, userID, postID); err != nil {
		return storeError(c, err, "Repost not found")
	}
	adjustCounter(ctx, h.postRepository, postID, repositories.CounterReposts, -1)
	h.feed.InvalidateViewer(ctx, userID)
	return c.NoContent(http.StatusNoContent)
}
