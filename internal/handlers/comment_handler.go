package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/circle/backend/internal/models"
	"github.com/anonto42/circle/backend/internal/repositories"
	"github.com/anonto42/circle/backend/pkg/logger"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	commentRepository      repositories.CommentRepository
	postRepository         repositories.PostRepository
	userRepository         repositories.UserRepository
	friendshipRepository   repositories.FriendshipRepository
	notificationRepository repositories.NotificationRepository
	feed                   FeedInvalidator
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(
	commentRepo repositories.CommentRepository,
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	friendshipRepo repositories.FriendshipRepository,
	notifRepo repositories.NotificationRepository,
	feed FeedInvalidator,
) *CommentHandler {
	return &CommentHandler{
		commentRepository:      commentRepo,
		postRepository:         postRepo,
		userRepository:         userRepo,
		friendshipRepository:   friendshipRepo,
		notificationRepository: notifRepo,
		feed:                   feed,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:id/comments", h.CreateComment)
	g.GET("/posts/:id/comments", h.GetCommentsByPostID)
	g.DELETE("/comments/:id", h.DeleteComment)
}

// CommentView is a comment with its author
type CommentView struct {
	models.Comment
	Author models.UserCompact `json:"author"`
}

// CreateComment creates a new comment on a post
func (h *CommentHandler) CreateComment(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	post, err := loadVisiblePost(c, h.postRepository, h.friendshipRepository, userID, c.Param("id"))
	if err != nil {
		return err
	}
	postID := post.ID.Hex()

	ctx := c.Request().Context()
	comment := &models.Comment{PostID: postID, UserID: userID, Content: req.Content}
	if err := h.commentRepository.CreateComment(ctx, comment); err != nil {
		return storeError(c, err, "Post not found")
	}
	adjustCounter(ctx, h.postRepository, postID, repositories.CounterComments, 1)
	h.feed.InvalidateViewer(ctx, userID)

	if post.AuthorID != userID {
		notify(ctx, h.notificationRepository, models.Notification{
			Type:        models.NotificationComment,
			ActorID:     userID,
			RecipientID: post.AuthorID,
			TargetID:    postID,
			TargetType:  "post",
			Message:     "commented on your post",
		})
	}
	return success(c, http.StatusCreated, comment)
}

// GetCommentsByPostID lists the comments of a visible post, oldest first
func (h *CommentHandler) GetCommentsByPostID(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	post, err := loadVisiblePost(c, h.postRepository, h.friendshipRepository, userID, c.Param("id"))
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	comments, err := h.commentRepository.GetCommentsByPostID(ctx, post.ID.Hex())
	if err != nil {
		return storeError(c, err, "Post not found")
	}

	seen := make(map[uint]struct{}, len(comments))
	var authorIDs []uint
	for _, cm := range comments {
		if _, ok := seen[cm.UserID]; !ok {
			seen[cm.UserID] = struct{}{}
			authorIDs = append(authorIDs, cm.UserID)
		}
	}
	var authors map[uint]models.User
	if len(authorIDs) > 0 {
		if authors, err = h.userRepository.GetUsersByIDs(ctx, authorIDs); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("failed to load comment authors")
		}
	}

	views := make([]CommentView, len(comments))
	for i, cm := range comments {
		views[i] = CommentView{Comment: cm}
		if author, ok := authors[cm.UserID]; ok {
			views[i].Author = author.ToCompact()
		}
	}
	return success(c, http.StatusOK, views)
}

// DeleteComment deletes a comment owned by the authenticated user
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	commentID, err := parseUintParam(c, "id", "comment ID")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	comment, err := h.commentRepository.GetCommentByID(ctx, commentID)
	if err != nil {
		return storeError(c, err, "Comment not found")
	}
	if comment.UserID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this comment")
	}

	if err := h.commentRepository.DeleteComment(ctx, commentID); err != nil {
		return storeError(c, err, "Comment not found")
	}
	adjustCounter(ctx, h.postRepository, comment.PostID, repositories.CounterComments, -1)
	h.feed.InvalidateViewer(ctx, userID)
	return c.NoContent(http.StatusNoContent)
}
