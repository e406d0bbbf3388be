package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/anonto42/circle/backend/internal/models"
	"github.com/anonto42/circle/backend/internal/repositories"
)

type messagingFixture struct {
	db      *gorm.DB
	handler *ConversationHandler
}

func newMessagingFixture(t *testing.T) *messagingFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(&models.User{}, &models.Notification{}, &models.Conversation{}, &models.Message{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	for id := uint(1); id <= 3; id++ {
		u := models.User{ID: id, Username: fmt.Sprintf("user%d", id), Email: fmt.Sprintf("user%d@example.com", id)}
		if err := db.Create(&u).Error; err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}

	return &messagingFixture{
		db: db,
		handler: NewConversationHandler(
			repositories.NewPostgresConversationRepository(db),
			repositories.NewPostgresUserRepository(db),
			repositories.NewPostgresNotificationRepository(db),
		),
	}
}

// as returns a server that authenticates every request as userID.
func (f *messagingFixture) as(userID uint) func(method, target, body string) (int, json.RawMessage) {
	e, g := newServer(userID)
	f.handler.RegisterConversationRoutes(g)
	return func(method, target, body string) (int, json.RawMessage) {
		rec := do(e, method, target, body)
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
		return rec.Code, env.Data
	}
}

func TestStartConversation(t *testing.T) {
	f := newMessagingFixture(t)
	alice := f.as(1)

	code, data := alice(http.MethodPost, "/api/v1/conversations", `{"participantId":2}`)
	if code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	var first ConversationView
	if err := json.Unmarshal(data, &first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if first.OtherParticipant.ID != 2 || first.OtherParticipant.Username != "user2" {
		t.Fatalf("unexpected participant %+v", first.OtherParticipant)
	}

	code, data = f.as(2)(http.MethodPost, "/api/v1/conversations", `{"participantId":1}`)
	if code != http.StatusOK {
		t.Fatalf("expected 200 for an existing thread, got %d", code)
	}
	var again ConversationView
	_ = json.Unmarshal(data, &again)
	if again.ID != first.ID {
		t.Fatalf("expected thread %d, got %d", first.ID, again.ID)
	}

	tests := []struct {
		body string
		want int
	}{
		{`{"participantId":1}`, http.StatusBadRequest},
		{`{"participantId":99}`, http.StatusNotFound},
		{`{}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		if code, _ := alice(http.MethodPost, "/api/v1/conversations", tt.body); code != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.body, tt.want, code)
		}
	}
}

func TestSendAndReadMessages(t *testing.T) {
	f := newMessagingFixture(t)
	alice, bob, carol := f.as(1), f.as(2), f.as(3)

	_, data := alice(http.MethodPost, "/api/v1/conversations", `{"participantId":2}`)
	var conv ConversationView
	_ = json.Unmarshal(data, &conv)
	messages := fmt.Sprintf("/api/v1/conversations/%d/messages", conv.ID)

	if code, _ := alice(http.MethodPost, messages, `{"content":"   "}`); code != http.StatusBadRequest {
		t.Fatalf("blank message: expected 400, got %d", code)
	}
	for _, text := range []string{"  hello ", "are you there?"} {
		code, data := alice(http.MethodPost, messages, fmt.Sprintf(`{"content":%q}`, text))
		if code != http.StatusCreated {
			t.Fatalf("send: expected 201, got %d", code)
		}
		var sent MessageView
		_ = json.Unmarshal(data, &sent)
		if sent.Sender.ID != 1 || sent.Content == "" || sent.Content[0] == ' ' {
			t.Fatalf("unexpected sent message %+v", sent)
		}
	}

	if code, _ := carol(http.MethodGet, messages, ""); code != http.StatusForbidden {
		t.Fatalf("outsider: expected 403, got %d", code)
	}
	if code, _ := carol(http.MethodPost, messages, `{"content":"hi"}`); code != http.StatusForbidden {
		t.Fatalf("outsider send: expected 403, got %d", code)
	}
	if code, _ := bob(http.MethodGet, "/api/v1/conversations/999/messages", ""); code != http.StatusNotFound {
		t.Fatalf("missing thread: expected 404, got %d", code)
	}

	_, data = bob(http.MethodGet, "/api/v1/conversations", "")
	var list []ConversationView
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].UnreadCount != 2 || list[0].OtherParticipant.ID != 1 {
		t.Fatalf("unexpected conversation list %+v", list)
	}
	if list[0].LastMessage == nil || list[0].LastMessage.Content != "are you there?" {
		t.Fatalf("unexpected last message %+v", list[0].LastMessage)
	}

	code, data := bob(http.MethodGet, messages+"?limit=1", "")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	var page MessagePage
	_ = json.Unmarshal(data, &page)
	if len(page.Messages) != 1 || !page.HasMore || page.NextCursor == nil {
		t.Fatalf("unexpected first page %+v", page)
	}
	if page.Messages[0].Content != "are you there?" {
		t.Fatalf("expected the newest message first, got %q", page.Messages[0].Content)
	}

	_, data = bob(http.MethodGet, "/api/v1/conversations", "")
	_ = json.Unmarshal(data, &list)
	if list[0].UnreadCount != 1 {
		t.Fatalf("reading a page marks only that page read, unread=%d", list[0].UnreadCount)
	}

	_, data = bob(http.MethodGet, fmt.Sprintf("%s?cursor=%d", messages, *page.NextCursor), "")
	_ = json.Unmarshal(data, &page)
	if len(page.Messages) != 1 || page.HasMore || page.Messages[0].Content != "hello" {
		t.Fatalf("unexpected second page %+v", page)
	}

	if code, _ := bob(http.MethodGet, messages+"?limit=0", ""); code != http.StatusBadRequest {
		t.Fatalf("limit=0: expected 400, got %d", code)
	}

	var notified int64
	f.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND type = ?", 2, models.NotificationMessage).
		Count(&notified)
	if notified != 2 {
		t.Fatalf("expected 2 message notifications for the recipient, got %d", notified)
	}
}

func TestMarkConversationRead(t *testing.T) {
	f := newMessagingFixture(t)
	alice, bob := f.as(1), f.as(2)

	_, data := alice(http.MethodPost, "/api/v1/conversations", `{"participantId":2}`)
	var conv ConversationView
	_ = json.Unmarshal(data, &conv)
	alice(http.MethodPost, fmt.Sprintf("/api/v1/conversations/%d/messages", conv.ID), `{"content":"ping"}`)

	code, data := bob(http.MethodPut, fmt.Sprintf("/api/v1/conversations/%d/read", conv.ID), "")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	var res struct {
		Updated int64 `json:"updated"`
	}
	_ = json.Unmarshal(data, &res)
	if res.Updated != 1 {
		t.Fatalf("expected 1 message marked read, got %d", res.Updated)
	}

	_, data = bob(http.MethodGet, "/api/v1/conversations", "")
	var list []ConversationView
	_ = json.Unmarshal(data, &list)
	if len(list) != 1 || list[0].UnreadCount != 0 {
		t.Fatalf("expected nothing unread, got %+v", list)
	}
}
