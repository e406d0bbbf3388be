package models

import "time"

// Conversation is a one-to-one thread. The participants are stored low id
// first so each pair has a single row.
type Conversation struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	Participant1ID uint       `json:"participant1Id" gorm:"not null;index;uniqueIndex:idx_conversation_pair"`
	Participant2ID uint       `json:"participant2Id" gorm:"not null;index;uniqueIndex:idx_conversation_pair"`
	LastMessageAt  *time.Time `json:"lastMessageAt" gorm:"index"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// NewConversation orders the pair so (a, b) and (b, a) map to the same row.
func NewConversation(a, b uint) Conversation {
	if a > b {
		a, b = b, a
	}
	return Conversation{Participant1ID: a, Participant2ID: b}
}

func (c Conversation) HasParticipant(userID uint) bool {
	return c.Participant1ID == userID || c.Participant2ID == userID
}

// Other returns the participant that is not userID.
func (c Conversation) Other(userID uint) uint {
	if c.Participant1ID == userID {
		return c.Participant2ID
	}
	return c.Participant1ID
}

type Message struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ConversationID uint      `json:"conversationId" gorm:"not null;index:idx_message_conversation"`
	SenderID       uint      `json:"senderId" gorm:"not null;index"`
	Content        string    `json:"content" gorm:"type:text;not null"`
	IsRead         bool      `json:"read" gorm:"default:false;index"`
	CreatedAt      time.Time `json:"createdAt"`
}

type CreateConversationRequest struct {
	ParticipantID uint `json:"participantId" validate:"required"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required,max=5000"`
}
