package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/circle/backend/internal/models"
	"github.com/anonto42/circle/backend/internal/repositories"
)

// ReactionHandler handles the typed reactions (love, applaud, salute, shine).
// Reactions are independent of likes and carry no post counter.
type ReactionHandler struct {
	reactionRepository   repositories.ReactionRepository
	postRepository       repositories.PostRepository
	friendshipRepository repositories.FriendshipRepository
	feed                 FeedInvalidator
}

func NewReactionHandler(
	reactionRepo repositories.ReactionRepository,
	postRepo repositories.PostRepository,
	friendshipRepo repositories.FriendshipRepository,
	feed FeedInvalidator,
) *ReactionHandler {
	return &ReactionHandler{
		reactionRepository:   reactionRepo,
		postRepository:       postRepo,
		friendshipRepository: friendshipRepo,
		feed:                 feed,
	}
}

func (h *ReactionHandler) RegisterReactionRoutes(g *echo.Group) {
	g.POST("/posts/:id/reactions", h.AddReaction)
	g.DELETE("/posts/:id/reactions", h.RemoveReaction)
}

func bindReactionKind(c echo.Context) (models.ReactionKind, error) {
	var req models.ReactionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return "", err
	}
	kind, ok := models.ParseReactionKind(req.Type)
	if !ok {
		return "", echo.NewHTTPError(http.StatusBadRequest, "Unknown reaction type")
	}
	return kind, nil
}

// AddReaction is idempotent: adding a kind the user already holds succeeds.
func (h *ReactionHandler) AddReaction(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	kind, err := bindReactionKind(c)
	if err != nil {
		return err
	}
	post, err := loadVisiblePost(c, h.postRepository, h.friendshipRepository, userID, c.Param("id"))
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	reaction := &models.Reaction{PostID: post.ID.Hex(), UserID: userID, Kind: kind}
	if err := h.reactionRepository.AddReaction(ctx, reaction); err != nil {
		return storeError(c, err, "Post not found")
	}
	h.feed.InvalidateViewer(ctx, userID)
	return success(c, http.StatusCreated, echo.Map{"postId": reaction.PostID, "type": kind})
}

func (h *ReactionHandler) RemoveReaction(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	kind, err := bindReactionKind(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.reactionRepository.RemoveReaction(ctx, c.Param("id"), userID, kind); err != nil {
		return storeError(c, err, "Reaction not found")
	}
	h.feed.InvalidateViewer(ctx, userID)
	return c.NoContent(http.StatusNoContent)
}
