package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/circle/backend/internal/models"
	"github.com/anonto42/circle/backend/internal/repositories"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 100
	messagePreviewRunes = 100
)

// ConversationHandler serves direct messages between two users.
type ConversationHandler struct {
	conversationRepository repositories.ConversationRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
}

func NewConversationHandler(convRepo repositories.ConversationRepository, userRepo repositories.UserRepository, notifRepo repositories.NotificationRepository) *ConversationHandler {
	return &ConversationHandler{
		conversationRepository: convRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
	}
}

func (h *ConversationHandler) RegisterConversationRoutes(g *echo.Group) {
	g.POST("/conversations", h.StartConversation)
	g.GET("/conversations", h.ListConversations)
	g.GET("/conversations/:id/messages", h.GetMessages)
	g.POST("/conversations/:id/messages", h.SendMessage)
	g.PUT("/conversations/:id/read", h.MarkConversationRead)
}

// ConversationView is a thread from the point of view of one participant.
type ConversationView struct {
	ID               uint               `json:"id"`
	OtherParticipant models.UserCompact `json:"otherParticipant"`
	LastMessage      *models.Message    `json:"lastMessage"`
	UnreadCount      int                `json:"unreadCount"`
	LastMessageAt    *time.Time         `json:"lastMessageAt"`
}

type MessageView struct {
	models.Message
	Sender models.UserCompact `json:"sender"`
}

// MessagePage holds messages oldest first. NextCursor fetches the page before it.
type MessagePage struct {
	Messages   []MessageView `json:"messages"`
	NextCursor *uint         `json:"nextCursor"`
	HasMore    bool          `json:"hasMore"`
}

// StartConversation returns the thread with participantId, creating it on first contact.
func (h *ConversationHandler) StartConversation(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	var req models.CreateConversationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.ParticipantID == userID {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot start a conversation with yourself")
	}

	ctx := c.Request().Context()
	other, err := h.userRepository.GetUserByID(ctx, req.ParticipantID)
	if err != nil {
		return storeError(c, err, "Participant not found")
	}

	conv, created, err := h.conversationRepository.GetOrCreate(ctx, userID, req.ParticipantID)
	if err != nil {
		return storeError(c, err, "Conversation not found")
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return success(c, status, ConversationView{
		ID:               conv.ID,
		OtherParticipant: other.ToCompact(),
		LastMessageAt:    conv.LastMessageAt,
	})
}

// ListConversations lists the caller's threads with the latest message and unread count.
func (h *ConversationHandler) ListConversations(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	convs, err := h.conversationRepository.ListForUser(ctx, userID)
	if err != nil {
		return storeError(c, err, "Conversation not found")
	}

	ids := make([]uint, len(convs))
	others := make([]uint, len(convs))
	for i, conv := range convs {
		ids[i] = conv.ID
		others[i] = conv.Other(userID)
	}

	last, err := h.conversationRepository.LastMessages(ctx, ids)
	if err != nil {
		return storeError(c, err, "Conversation not found")
	}
	unread, err := h.conversationRepository.UnreadCounts(ctx, userID, ids)
	if err != nil {
		return storeError(c, err, "Conversation not found")
	}
	users, err := h.userRepository.GetUsersByIDs(ctx, others)
	if err != nil {
		return storeError(c, err, "User not found")
	}

	views := make([]ConversationView, 0, len(convs))
	for _, conv := range convs {
		u, ok := users[conv.Other(userID)]
		if !ok {
			continue // participant deleted
		}
		view := ConversationView{
			ID:               conv.ID,
			OtherParticipant: u.ToCompact(),
			UnreadCount:      unread[conv.ID],
			LastMessageAt:    conv.LastMessageAt,
		}
		if m, ok := last[conv.ID]; ok {
			view.LastMessage = &m
		}
		views = append(views, view)
	}
	return success(c, http.StatusOK, views)
}

// GetMessages pages backwards through a thread and marks what the caller
// received on that page as read.
func (h *ConversationHandler) GetMessages(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	conv, err := h.loadConversation(c, userID)
	if err != nil {
		return err
	}
	limit, err := parseMessageLimit(c.QueryParam("limit"))
	if err != nil {
		return err
	}
	var before uint
	if raw := c.QueryParam("cursor"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid cursor")
		}
		before = uint(n)
	}

	ctx := c.Request().Context()
	// one extra row tells whether an older page exists
	msgs, err := h.conversationRepository.ListMessages(ctx, conv.ID, before, limit+1)
	if err != nil {
		return storeError(c, err, "Conversation not found")
	}
	page := MessagePage{Messages: []MessageView{}}
	if len(msgs) > limit {
		msgs = msgs[:limit]
		page.HasMore = true
		cursor := msgs[limit-1].ID
		page.NextCursor = &cursor
	}

	users, err := h.userRepository.GetUsersByIDs(ctx, []uint{conv.Participant1ID, conv.Participant2ID})
	if err != nil {
		return storeError(c, err, "User not found")
	}

	var unread []uint
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m.SenderID != userID && !m.IsRead {
			unread = append(unread, m.ID)
		}
		sender := users[m.SenderID]
		page.Messages = append(page.Messages, MessageView{Message: m, Sender: sender.ToCompact()})
	}
	if _, err := h.conversationRepository.MarkMessagesRead(ctx, conv.ID, userID, unread); err != nil {
		return storeError(c, err, "Conversation not found")
	}
	return success(c, http.StatusOK, page)
}

// SendMessage appends a message to the thread and notifies the other participant.
func (h *ConversationHandler) SendMessage(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	conv, err := h.loadConversation(c, userID)
	if err != nil {
		return err
	}
	var req models.SendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Message content is required")
	}

	ctx := c.Request().Context()
	msg := &models.Message{ConversationID: conv.ID, SenderID: userID, Content: content}
	if err := h.conversationRepository.CreateMessage(ctx, msg); err != nil {
		return storeError(c, err, "Conversation not found")
	}

	sender, err := h.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return storeError(c, err, "User not found")
	}

	notify(ctx, h.notificationRepository, models.Notification{
		Type:        models.NotificationMessage,
		ActorID:     userID,
		RecipientID: conv.Other(userID),
		TargetID:    fmt.Sprint(conv.ID),
		TargetType:  "conversation",
		Message:     preview(content, messagePreviewRunes),
	})

	return success(c, http.StatusCreated, MessageView{Message: *msg, Sender: sender.ToCompact()})
}

// MarkConversationRead marks everything the caller received in the thread as read.
func (h *ConversationHandler) MarkConversationRead(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	conv, err := h.loadConversation(c, userID)
	if err != nil {
		return err
	}
	n, err := h.conversationRepository.MarkConversationRead(c.Request().Context(), conv.ID, userID)
	if err != nil {
		return storeError(c, err, "Conversation not found")
	}
	return success(c, http.StatusOK, echo.Map{"updated": n})
}

// loadConversation resolves :id and refuses callers outside the thread.
func (h *ConversationHandler) loadConversation(c echo.Context, userID uint) (*models.Conversation, error) {
	id, err := parseUintParam(c, "id", "conversation ID")
	if err != nil {
		return nil, err
	}
	conv, err := h.conversationRepository.GetConversationByID(c.Request().Context(), id)
	if err != nil {
		return nil, storeError(c, err, "Conversation not found")
	}
	if !conv.HasParticipant(userID) {
		return nil, echo.NewHTTPError(http.StatusForbidden, "You are not a participant in this conversation")
	}
	return conv, nil
}

func parseMessageLimit(raw string) (int, error) {
	if raw == "" {
		return defaultMessageLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
	}
	if n > maxMessageLimit {
		n = maxMessageLimit
	}
	return n, nil
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
