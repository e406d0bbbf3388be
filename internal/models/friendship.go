package models

import "time"

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
	FriendshipRejected FriendshipStatus = "rejected"
)

// Friendship is an edge between two users. Either side may be the requester;
// only accepted edges count for visibility and mutual friends.
type Friendship struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	RequesterID uint             `json:"requesterId" gorm:"not null;index;uniqueIndex:idx_friendship_users"`
	AddresseeID uint             `json:"addresseeId" gorm:"not null;index;uniqueIndex:idx_friendship_users"`
	Status      FriendshipStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// Other returns the user on the opposite side of the edge from userID.
func (f Friendship) Other(userID uint) uint {
	if f.RequesterID == userID {
		return f.AddresseeID
	}
	return f.RequesterID
}

// CreateFriendRequest defines the request body for sending a friend request
type CreateFriendRequest struct {
	AddresseeID uint `json:"addresseeId" validate:"required"`
}

// UpdateFriendRequest defines the request body for accepting/rejecting a friend request
type UpdateFriendRequest struct {
	Status FriendshipStatus `json:"status" validate:"required,oneof=accepted rejected"`
}
