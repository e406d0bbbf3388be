package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/circle/backend/internal/feed"
	"github.com/anonto42/circle/backend/internal/models"
	"github.com/anonto42/circle/backend/internal/repositories"
)

// PostEnricher renders posts for a viewer.
type PostEnricher interface {
	Enrich(ctx context.Context, viewerID uint, posts []models.Post) ([]feed.EnrichedPost, error)
}

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	postRepository         repositories.PostRepository
	friendshipRepository   repositories.FriendshipRepository
	notificationRepository repositories.NotificationRepository
	enricher               PostEnricher
	feed                   FeedInvalidator
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(
	postRepo repositories.PostRepository,
	friendshipRepo repositories.FriendshipRepository,
	notifRepo repositories.NotificationRepository,
	enricher PostEnricher,
	feed FeedInvalidator,
) *PostHandler {
	return &PostHandler{
		postRepository:         postRepo,
		friendshipRepository:   friendshipRepo,
		notificationRepository: notifRepo,
		enricher:               enricher,
		feed:                   feed,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:id", h.GetPost)
	g.DELETE("/posts/:id", h.DeletePost)
	g.GET("/users/:id/posts", h.GetPostsByUser)
}

// CreatePost creates a new post and drops every cached feed page
func (h *PostHandler) CreatePost(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req models.CreatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" && len(req.MediaURLs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Post needs content or media")
	}

	post := &models.Post{
		AuthorID:   userID,
		Content:    content,
		MediaURLs:  req.MediaURLs,
		MediaType:  mediaTypeFor(req),
		Visibility: req.Visibility,
	}
	if post.Visibility == "" {
		post.Visibility = models.VisibilityPublic
	}

	ctx := c.Request().Context()
	if err := h.postRepository.CreatePost(ctx, post); err != nil {
		return storeError(c, err, "Post not found")
	}
	h.feed.InvalidateAll(ctx)
	h.notifyFriends(ctx, post)

	enriched, err := h.enricher.Enrich(ctx, userID, []models.Post{*post})
	if err != nil {
		return storeError(c, err, "Post not found")
	}
	return success(c, http.StatusCreated, enriched[0])
}

func mediaTypeFor(req models.CreatePostRequest) models.MediaType {
	switch {
	case len(req.MediaURLs) == 0:
		return models.MediaNone
	case req.MediaType == "" || req.MediaType == models.MediaNone:
		return models.MediaImage
	default:
		return req.MediaType
	}
}

// notifyFriends tells accepted friends about a new post they can see.
func (h *PostHandler) notifyFriends(ctx context.Context, post *models.Post) {
	if post.Visibility == models.VisibilityPrivate {
		return
	}
	friendIDs, err := h.friendshipRepository.GetAcceptedFriendIDs(ctx, post.AuthorID)
	if err != nil || len(friendIDs) == 0 {
		return
	}
	notifications := make([]models.Notification, len(friendIDs))
	for i, id := range friendIDs {
		notifications[i] = models.Notification{
			Type:        models.NotificationNewPost,
			ActorID:     post.AuthorID,
			RecipientID: id,
			TargetID:    post.ID.Hex(),
			TargetType:  "post",
			Message:     "shared a new post",
		}
	}
	notify(ctx, h.notificationRepository, notifications...)
}

// GetPost retrieves a post by ID if the viewer may see it
func (h *PostHandler) GetPost(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	post, err := loadVisiblePost(c, h.postRepository, h.friendshipRepository, userID, c.Param("id"))
	if err != nil {
		return err
	}

	enriched, err := h.enricher.Enrich(c.Request().Context(), userID, []models.Post{*post})
	if err != nil {
		return storeError(c, err, "Post not found")
	}
	return success(c, http.StatusOK, enriched[0])
}

// GetPostsByUser lists an author's posts the viewer may see, newest first
func (h *PostHandler) GetPostsByUser(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	authorID, err := parseUintParam(c, "id", "user ID")
	if err != nil {
		return err
	}

	page, _ := strconv.ParseInt(c.QueryParam("page"), 10, 64)
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	ctx := c.Request().Context()
	visibilities := []models.Visibility{models.VisibilityPublic}
	switch {
	case authorID == userID:
		visibilities = append(visibilities, models.VisibilityFriends, models.VisibilityPrivate)
	default:
		edge, err := h.friendshipRepository.GetFriendshipBetween(ctx, userID, authorID)
		if err == nil && edge.Status == models.FriendshipAccepted {
			visibilities = append(visibilities, models.VisibilityFriends)
		} else if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return storeError(c, err, "User not found")
		}
	}

	posts, err := h.postRepository.GetPostsByAuthor(ctx, authorID, visibilities, (page-1)*limit, limit)
	if err != nil {
		return storeError(c, err, "User not found")
	}
	enriched, err := h.enricher.Enrich(ctx, userID, posts)
	if err != nil {
		return storeError(c, err, "User not found")
	}
	return success(c, http.StatusOK, echo.Map{"posts": enriched, "page": page, "limit": limit})
}

// DeletePost deletes a post owned by the authenticated user
func (h *PostHandler) DeletePost(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	postID := c.Param("id")

	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, postID)
	if err != nil {
		return storeError(c, err, "Post not found")
	}
	if post.AuthorID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "You can only delete your own posts")
	}

	if err := h.postRepository.DeletePost(ctx, postID); err != nil {
		return storeError(c, err, "Post not found")
	}
	h.feed.InvalidateAll(ctx)
	return c.NoContent(http.StatusNoContent)
}
