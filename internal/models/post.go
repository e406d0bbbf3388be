package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Visibility is the access tier of a post.
type Visibility string

const (
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityFriends Visibility = "FRIENDS"
	VisibilityPrivate Visibility = "PRIVATE"
)

type MediaType string

const (
	MediaNone  MediaType = "NONE"
	MediaImage MediaType = "IMAGE"
	MediaVideo MediaType = "VIDEO"
)

// Post represents a social media post stored in MongoDB. The counters are
// denormalized and maintained by the like, comment, repost and save write paths.
type Post struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	AuthorID     uint               `json:"authorId" bson:"author_id"`
	Content      string             `json:"content" bson:"content"`
	MediaURLs    []string           `json:"mediaUrls" bson:"media_urls"`
	MediaType    MediaType          `json:"mediaType" bson:"media_type"`
	Visibility   Visibility         `json:"visibility" bson:"visibility"`
	LikeCount    int                `json:"likeCount" bson:"like_count"`
	CommentCount int                `json:"commentCount" bson:"comment_count"`
	RepostCount  int                `json:"repostCount" bson:"repost_count"`
	SaveCount    int                `json:"saveCount" bson:"save_count"`
	CreatedAt    time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updated_at"`
}

// VisibleTo reports whether viewerID may read the post given whether the
// viewer and the author are accepted friends.
func (p *Post) VisibleTo(viewerID uint, friends bool) bool {
	switch {
	case p.AuthorID == viewerID:
		return true
	case p.Visibility == VisibilityPublic:
		return true
	case p.Visibility == VisibilityFriends:
		return friends
	default:
		return false
	}
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Content    string     `json:"content" validate:"max=5000,required_without=MediaURLs"`
	MediaURLs  []string   `json:"mediaUrls,omitempty" validate:"omitempty,max=10,dive,url"`
	MediaType  MediaType  `json:"mediaType,omitempty" validate:"omitempty,oneof=NONE IMAGE VIDEO"`
	Visibility Visibility `json:"visibility,omitempty" validate:"omitempty,oneof=PUBLIC FRIENDS PRIVATE"`
}
