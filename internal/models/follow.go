package models

import "time"

// Follow is a directed follower -> following edge. Existence means active.
type Follow struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FollowerID  uint      `json:"followerId" gorm:"index;uniqueIndex:idx_follower_following"`
	FollowingID uint      `json:"followingId" gorm:"index;uniqueIndex:idx_follower_following"`
	CreatedAt   time.Time `json:"createdAt"`
}
