package trending

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/anonto42/circle/backend/internal/models"
)

var hashtagPattern = regexp.MustCompile(`#\w+`)

// RankedHashtag is a tag with the number of distinct posts using it and its
// total number of occurrences.
type RankedHashtag struct {
	Tag      string `json:"tag"`
	Count    int    `json:"count"`
	Mentions int    `json:"mentions"`
}

// ExtractHashtags returns every hashtag occurrence in content, lowercased and
// without the leading '#'. Repeats are kept.
func ExtractHashtags(content string) []string {
	matches := hashtagPattern.FindAllString(content, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, strings.ToLower(m[1:]))
	}
	return tags
}

// RankHashtags aggregates tags over posts created at or after since and
// returns the top limit by distinct posts, then mentions, then tag.
func RankHashtags(posts []models.Post, since time.Time, limit int) []RankedHashtag {
	stats := make(map[string]*RankedHashtag)
	for _, p := range posts {
		if p.CreatedAt.Before(since) {
			continue
		}
		seen := make(map[string]struct{})
		for _, tag := range ExtractHashtags(p.Content) {
			s, ok := stats[tag]
			if !ok {
				s = &RankedHashtag{Tag: tag}
				stats[tag] = s
			}
			s.Mentions++
			if _, dup := seen[tag]; !dup {
				seen[tag] = struct{}{}
				s.Count++
			}
		}
	}

	ranked := make([]RankedHashtag, 0, len(stats))
	for _, s := range stats {
		ranked = append(ranked, *s)
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.Mentions != b.Mentions {
			return a.Mentions > b.Mentions
		}
		return a.Tag < b.Tag
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// EngagementScore weighs likes once, comments twice and reposts three times.
func EngagementScore(p models.Post) int {
	return p.LikeCount*1 + p.CommentCount*2 + p.RepostCount*3
}

type scoredPost struct {
	post  models.Post
	score int
}

// RankPosts scores candidates created at or after since and returns the top
// limit by score, newest first on ties, then by id.
func RankPosts(candidates []models.Post, since time.Time, limit int) []scoredPost {
	scored := make([]scoredPost, 0, len(candidates))
	for _, p := range candidates {
		if p.CreatedAt.Before(since) {
			continue
		}
		scored = append(scored, scoredPost{post: p, score: EngagementScore(p)})
	}
	sort.Slice(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if !a.post.CreatedAt.Equal(b.post.CreatedAt) {
			return a.post.CreatedAt.After(b.post.CreatedAt)
		}
		return a.post.ID.Hex() < b.post.ID.Hex()
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}
