package models

import (
	"strings"
	"time"
)

type ReactionKind string

const (
	ReactionLove    ReactionKind = "love"
	ReactionApplaud ReactionKind = "applaud"
	ReactionSalute  ReactionKind = "salute"
	ReactionShine   ReactionKind = "shine"
)

// ReactionKinds lists every kind in display order.
var ReactionKinds = []ReactionKind{ReactionLove, ReactionApplaud, ReactionSalute, ReactionShine}

// ParseReactionKind accepts any casing ("LOVE", "love").
func ParseReactionKind(s string) (ReactionKind, bool) {
	k := ReactionKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ReactionKinds {
		if k == known {
			return k, true
		}
	}
	return "", false
}

// Reaction is one (post, user, kind) triple. A user may hold several kinds on
// the same post but each kind only once.
type Reaction struct {
	ID        uint         `json:"id" gorm:"primaryKey"`
	PostID    string       `json:"postId" gorm:"index;uniqueIndex:idx_post_user_kind"`
	UserID    uint         `json:"userId" gorm:"index;uniqueIndex:idx_post_user_kind"`
	Kind      ReactionKind `json:"kind" gorm:"type:varchar(16);uniqueIndex:idx_post_user_kind"`
	CreatedAt time.Time    `json:"createdAt"`
}

type ReactionRequest struct {
	Type string `json:"type" validate:"required"`
}
