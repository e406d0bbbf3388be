package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/circle/backend/internal/feed"
	"github.com/anonto42/circle/backend/internal/trending"
	"github.com/anonto42/circle/backend/pkg/logger"
)

type FeedService interface {
	GetFeed(ctx context.Context, viewerID uint, limit int, cursor string) (*feed.Page, error)
}

type TrendingService interface {
	GetTrending(ctx context.Context) (*trending.Result, error)
}

// FeedHandler serves the home feed and the explore/trending view
type FeedHandler struct {
	feed     FeedService
	trending TrendingService
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(feedService FeedService, trendingService TrendingService) *FeedHandler {
	return &FeedHandler{feed: feedService, trending: trendingService}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
	g.GET("/trending", h.GetTrending)
}

// GetFeed returns {posts, nextCursor} for the authenticated user.
func (h *FeedHandler) GetFeed(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	limit := feed.ParseLimit(c.QueryParam("limit"))
	page, err := h.feed.GetFeed(c.Request().Context(), userID, limit, c.QueryParam("cursor"))
	if err != nil {
		logger.Ctx(c.Request().Context()).Error().Err(err).Uint("viewer_id", userID).Msg("failed to build feed")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load feed")
	}
	return c.JSON(http.StatusOK, page)
}

// GetTrending returns {hashtags, posts}; the result is the same for every user.
func (h *FeedHandler) GetTrending(c echo.Context) error {
	if _, err := requireUser(c); err != nil {
		return err
	}

	res, err := h.trending.GetTrending(c.Request().Context())
	if err != nil {
		logger.Ctx(c.Request().Context()).Error().Err(err).Msg("failed to compute trending")
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load trending")
	}
	return c.JSON(http.StatusOK, res)
}
