package models

import "time"

type Repost struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"userId" gorm:"index;uniqueIndex:idx_user_post_repost"`
	PostID    string    `json:"postId" gorm:"index;uniqueIndex:idx_user_post_repost"`
	Comment   *string   `json:"comment,omitempty" gorm:"size:500"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateRepostRequest struct {
	Comment string `json:"comment,omitempty" validate:"omitempty,max=500"`
}
