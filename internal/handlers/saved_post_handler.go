package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/circle/backend/internal/models"
	"github.com/anonto42/circle/backend/internal/repositories"
)

// SavedPostHandler handles saved post HTTP requests
type SavedPostHandler struct {
	savedPostRepository  repositories.SavedPostRepository
	postRepository       repositories.PostRepository
	friendshipRepository repositories.FriendshipRepository
	enricher             PostEnricher
	feed                 FeedInvalidator
}

// NewSavedPostHandler creates a new SavedPostHandler
func NewSavedPostHandler(
	savedPostRepo repositories.SavedPostRepository,
	postRepo repositories.PostRepository,
	friendshipRepo repositories.FriendshipRepository,
	enricher PostEnricher,
	feed FeedInvalidator,
) *SavedPostHandler {
	return &SavedPostHandler{
		savedPostRepository:  savedPostRepo,
		postRepository:       postRepo,
		friendshipRepository: friendshipRepo,
		enricher:             enricher,
		feed:                 feed,
	}
}

// RegisterSavedPostRoutes registers saved post routes
func (h *SavedPostHandler) RegisterSavedPostRoutes(g *echo.Group) {
	g.POST("/posts/:id/save", h.SavePost)
	g.DELETE("/posts/:id/save", h.UnsavePost)
	g.GET("/saved", h.GetSavedPosts)
}

// SavePost saves/bookmarks a post
func (h *SavedPostHandler) SavePost(c echo.Context) error {
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
	saved := &models.SavedPost{UserID: userID, PostID: postID}
	if err := h.savedPostRepository.SavePost(ctx, saved); err != nil {
		return storeError(c, err, "Post not found")
	}
	adjustCounter(ctx, h.postRepository, postID, repositories.CounterSaves, 1)
	h.feed.InvalidateViewer(ctx, userID)
	return success(c, http.StatusCreated, saved)
}

// UnsavePost removes a post from the user's saved list
func (h *SavedPostHandler) UnsavePost(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	postID := c.Param("id")

	ctx := c.Request().Context()
	if err := h.savedPostRepository.UnsavePost(ctx, userID, postID); err != nil {
		return storeError(c, err, "Saved post not found")
	}
	adjustCounter(ctx, h.postRepository, postID, repositories.CounterSaves, -1)
	h.feed.InvalidateViewer(ctx, userID)
	return c.NoContent(http.StatusNoContent)
}

// GetSavedPosts lists the user's saved posts, most recently saved first.
// Posts that were deleted or are no longer visible are left out.
func (h *SavedPostHandler) GetSavedPosts(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	saved, err := h.savedPostRepository.GetSavedPostsByUser(ctx, userID)
	if err != nil {
		return storeError(c, err, "User not found")
	}
	ids := make([]string, len(saved))
	for i, s := range saved {
		ids[i] = s.PostID
	}

	posts, err := h.postRepository.GetPostsByIDs(ctx, ids)
	if err != nil {
		return storeError(c, err, "Post not found")
	}
	friendIDs, err := h.friendshipRepository.GetAcceptedFriendIDs(ctx, userID)
	if err != nil {
		return storeError(c, err, "User not found")
	}
	friends := make(map[uint]bool, len(friendIDs))
	for _, id := range friendIDs {
		friends[id] = true
	}

	byID := make(map[string]models.Post, len(posts))
	for _, p := range posts {
		byID[p.ID.Hex()] = p
	}
	ordered := make([]models.Post, 0, len(posts))
	for _, id := range ids {
		p, ok := byID[id]
		if ok && p.VisibleTo(userID, friends[p.AuthorID]) {
			ordered = append(ordered, p)
		}
	}

	enriched, err := h.enricher.Enrich(ctx, userID, ordered)
	if err != nil {
		return storeError(c, err, "Post not found")
	}
	return success(c, http.StatusOK, enriched)
}
