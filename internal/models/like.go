package models

import "time"

// Like is the legacy single "like" on a post, separate from reactions.
type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    string    `json:"postId" gorm:"index;uniqueIndex:idx_post_user_like"`
	UserID    uint      `json:"userId" gorm:"index;uniqueIndex:idx_post_user_like"`
	CreatedAt time.Time `json:"createdAt"`
}
