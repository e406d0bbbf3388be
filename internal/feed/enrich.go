package feed

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/anonto42/circle/backend/internal/models"
)

type UserReader interface {
	GetUsersByIDs(ctx context.Context, ids []uint) (map[uint]models.User, error)
}

type ReactionReader interface {
	GetUserReactions(ctx context.Context, userID uint, postIDs []string) (map[string][]models.ReactionKind, error)
	CountByKind(ctx context.Context, postIDs []string) (map[string]map[models.ReactionKind]int, error)
}

type LikeReader interface {
	GetLikedPostIDs(ctx context.Context, userID uint, postIDs []string) (map[string]bool, error)
}

type SaveReader interface {
	GetSavedPostIDs(ctx context.Context, userID uint, postIDs []string) (map[string]bool, error)
}

type RepostReader interface {
	GetRepostedPostIDs(ctx context.Context, userID uint, postIDs []string) (map[string]bool, error)
}

// Enricher attaches authors, reaction totals and viewer flags to posts.
type Enricher struct {
	users     UserReader
	reactions ReactionReader
	likes     LikeReader
	saves     SaveReader
	reposts   RepostReader
}

func NewEnricher(users UserReader, reactions ReactionReader, likes LikeReader, saves SaveReader, reposts RepostReader) *Enricher {
	return &Enricher{users: users, reactions: reactions, likes: likes, saves: saves, reposts: reposts}
}

// Enrich renders posts for viewerID, preserving their order. A zero viewerID
// skips the viewer lookups and leaves every flag false. All lookups are batched
// over the page and run concurrently; any failure fails the whole call.
func (e *Enricher) Enrich(ctx context.Context, viewerID uint, posts []models.Post) ([]EnrichedPost, error) {
	out := make([]EnrichedPost, 0, len(posts))
	if len(posts) == 0 {
		return out, nil
	}

	postIDs := make([]string, len(posts))
	authorIDs := make([]uint, 0, len(posts))
	seen := make(map[uint]struct{}, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID.Hex()
		if _, ok := seen[p.AuthorID]; !ok {
			seen[p.AuthorID] = struct{}{}
			authorIDs = append(authorIDs, p.AuthorID)
		}
	}

	var (
		authors  map[uint]models.User
		counts   map[string]map[models.ReactionKind]int
		mine     map[string][]models.ReactionKind
		liked    map[string]bool
		saved    map[string]bool
		reposted map[string]bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		authors, err = e.users.GetUsersByIDs(gctx, authorIDs)
		return err
	})
	g.Go(func() (err error) {
		counts, err = e.reactions.CountByKind(gctx, postIDs)
		return err
	})
	if viewerID != 0 {
		g.Go(func() (err error) {
			mine, err = e.reactions.GetUserReactions(gctx, viewerID, postIDs)
			return err
		})
		g.Go(func() (err error) {
			liked, err = e.likes.GetLikedPostIDs(gctx, viewerID, postIDs)
			return err
		})
		g.Go(func() (err error) {
			saved, err = e.saves.GetSavedPostIDs(gctx, viewerID, postIDs)
			return err
		})
		g.Go(func() (err error) {
			reposted, err = e.reposts.GetRepostedPostIDs(gctx, viewerID, postIDs)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, p := range posts {
		id := postIDs[i]

		author := models.UserCompact{ID: p.AuthorID}
		if u, ok := authors[p.AuthorID]; ok {
			author = u.ToCompact()
		}

		var rc ReactionCounts
		for kind, n := range counts[id] {
			rc.set(kind, n)
		}

		media := p.MediaURLs
		if media == nil {
			media = []string{}
		}

		out = append(out, EnrichedPost{
			ID:            id,
			Content:       p.Content,
			MediaURLs:     media,
			MediaType:     p.MediaType,
			Visibility:    p.Visibility,
			Author:        author,
			Reactions:     rc,
			UserReactions: orderedKinds(mine[id]),
			HasLiked:      liked[id],
			LikeCount:     p.LikeCount,
			CommentCount:  p.CommentCount,
			RepostCount:   p.RepostCount,
			SaveCount:     p.SaveCount,
			HasReposted:   reposted[id],
			HasSaved:      saved[id],
			CreatedAt:     p.CreatedAt,
		})
	}
	return out, nil
}

// orderedKinds dedupes kinds into display order and never returns nil.
func orderedKinds(kinds []models.ReactionKind) []models.ReactionKind {
	out := []models.ReactionKind{}
	for _, known := range models.ReactionKinds {
		for _, k := range kinds {
			if k == known {
				out = append(out, known)
				break
			}
		}
	}
	return out
}
