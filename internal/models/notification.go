package models

import "time"

const (
	NotificationFollow  = "follow"
	NotificationLike    = "like"
	NotificationComment = "comment"
	NotificationNewPost = "new_post"
	NotificationFriend  = "friend_request"
	NotificationMessage = "message"
)

// Notification represents a user notification (PostgreSQL)
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Type        string    `json:"type" gorm:"size:30;index"`
	ActorID     uint      `json:"actorId" gorm:"index"`
	RecipientID uint      `json:"recipientId" gorm:"index"`
	TargetID    string    `json:"targetId"`                   // post ID, comment ID, etc.
	TargetType  string    `json:"targetType" gorm:"size:20"` // post, comment, user
	Message     string    `json:"message"`
	IsRead      bool      `json:"isRead" gorm:"default:false;index"`
	CreatedAt   time.Time `json:"createdAt" gorm:"index"`
}
