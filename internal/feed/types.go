package feed

import (
	"time"

	"github.com/anonto42/circle/backend/internal/models"
)

// ReactionCounts holds per-kind totals across all users. A struct rather than
// a map keeps the JSON key order fixed.
type ReactionCounts struct {
	Love    int `json:"love"`
	Applaud int `json:"applaud"`
	Salute  int `json:"salute"`
	Shine   int `json:"shine"`
}

func (rc *ReactionCounts) set(kind models.ReactionKind, n int) {
	switch kind {
	case models.ReactionLove:
		rc.Love = n
	case models.ReactionApplaud:
		rc.Applaud = n
	case models.ReactionSalute:
		rc.Salute = n
	case models.ReactionShine:
		rc.Shine = n
	}
}

// EnrichedPost is a post as rendered for one viewer.
type EnrichedPost struct {
	ID            string                `json:"id"`
	Content       string                `json:"content"`
	MediaURLs     []string              `json:"mediaUrls"`
	MediaType     models.MediaType      `json:"mediaType"`
	Visibility    models.Visibility     `json:"visibility"`
	Author        models.UserCompact    `json:"author"`
	Reactions     ReactionCounts        `json:"reactions"`
	UserReactions []models.ReactionKind `json:"userReactions"`
	HasLiked      bool                  `json:"hasLiked"`
	LikeCount     int                   `json:"likeCount"`
	CommentCount  int                   `json:"commentCount"`
	RepostCount   int                   `json:"repostCount"`
	SaveCount     int                   `json:"saveCount"`
	HasReposted   bool                  `json:"hasReposted"`
	HasSaved      bool                  `json:"hasSaved"`
	CreatedAt     time.Time             `json:"createdAt"`
}

// Page is one page of a feed. NextCursor is nil when the page came back short.
type Page struct {
	Posts      []EnrichedPost `json:"posts"`
	NextCursor *string        `json:"nextCursor"`
}
