package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/circle/backend/internal/models"
	"github.com/anonto42/circle/backend/internal/repositories"
	"github.com/anonto42/circle/backend/internal/suggestions"
)

// SuggestionService proposes people a user may know.
type SuggestionService interface {
	Suggest(ctx context.Context, viewerID uint, limit int) ([]suggestions.Suggestion, error)
}

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	userRepository repositories.UserRepository
	suggestions    SuggestionService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, suggestionService SuggestionService) *UserHandler {
	return &UserHandler{userRepository: userRepo, suggestions: suggestionService}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.GET("/users/search", h.SearchUsers)
	g.GET("/users/suggestions", h.GetSuggestions)
	g.GET("/users/:id", h.GetUser)
}

func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseUintParam(c, "id", "user ID")
	if err != nil {
		return err
	}
	user, err := h.userRepository.GetUserByID(c.Request().Context(), id)
	if err != nil {
		return storeError(c, err, "User profile not found")
	}
	return success(c, http.StatusOK, user)
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	user, err := h.userRepository.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		return storeError(c, err, "User profile not found")
	}
	return success(c, http.StatusOK, user)
}

// UpdateProfile updates the authenticated user's profile
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req models.UpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return storeError(c, err, "User profile not found")
	}

	if req.DisplayName != "" {
		user.DisplayName = req.DisplayName
	}
	if req.Avatar != "" {
		user.Avatar = req.Avatar
	}
	if req.Profession != "" {
		user.Profession = req.Profession
	}

	if err := h.userRepository.UpdateUser(ctx, user); err != nil {
		return storeError(c, err, "User profile not found")
	}
	return success(c, http.StatusOK, user)
}

// SearchUsers searches for users by username or display name
func (h *UserHandler) SearchUsers(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Search query 'q' is required")
	}

	users, err := h.userRepository.SearchUsers(c.Request().Context(), query, 20)
	if err != nil {
		return storeError(c, err, "User not found")
	}

	return success(c, http.StatusOK, compactUsers(users))
}

// GetSuggestions lists friend suggestions for the authenticated user
func (h *UserHandler) GetSuggestions(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	out, err := h.suggestions.Suggest(c.Request().Context(), userID, limit)
	if err != nil {
		return storeError(c, err, "User not found")
	}
	return success(c, http.StatusOK, out)
}
