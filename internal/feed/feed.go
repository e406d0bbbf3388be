package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/anonto42/circle/backend/internal/cache"
	"github.com/anonto42/circle/backend/internal/models"
	"github.com/anonto42/circle/backend/internal/repositories"
	"github.com/anonto42/circle/backend/pkg/logger"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100

	DefaultCacheTTL = 5 * time.Minute
)

type PostFinder interface {
	FindFeedPosts(ctx context.Context, q repositories.FeedQuery) ([]models.Post, error)
}

type FriendLister interface {
	GetAcceptedFriendIDs(ctx context.Context, userID uint) ([]uint, error)
}

type FolloweeLister interface {
	GetFollowingIDs(ctx context.Context, userID uint) ([]uint, error)
}

// Assembler builds a viewer's paginated home feed and caches each page.
type Assembler struct {
	posts    PostFinder
	friends  FriendLister
	follows  FolloweeLister
	enricher *Enricher
	cache    cache.Cache
	ttl      time.Duration
}

func NewAssembler(posts PostFinder, friends FriendLister, follows FolloweeLister, enricher *Enricher, c cache.Cache, ttl time.Duration) *Assembler {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Assembler{
		posts:    posts,
		friends:  friends,
		follows:  follows,
		enricher: enricher,
		cache:    c,
		ttl:      ttl,
	}
}

// ParseLimit reads the limit query value; anything unparsable falls back to the default.
func ParseLimit(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultLimit
	}
	return NormalizeLimit(n)
}

func NormalizeLimit(n int) int {
	switch {
	case n < 1:
		return DefaultLimit
	case n > MaxLimit:
		return MaxLimit
	default:
		return n
	}
}

// CacheKey identifies one page: viewer, page size and cursor. A cursor that
// is not a post id yields the first page and shares its key.
func CacheKey(viewerID uint, limit int, cursor string) string {
	if !primitive.IsValidObjectID(cursor) {
		cursor = "initial"
	}
	return fmt.Sprintf("feed:%d:%d:%s", viewerID, limit, cursor)
}

// GetFeed returns the page of posts after cursor that viewerID may see from
// themselves, their accepted friends and the users they follow.
func (a *Assembler) GetFeed(ctx context.Context, viewerID uint, limit int, cursor string) (*Page, error) {
	limit = NormalizeLimit(limit)
	key := CacheKey(viewerID, limit, cursor)

	if page, ok := a.cached(ctx, key); ok {
		return page, nil
	}

	page, err := a.assemble(ctx, viewerID, limit, cursor)
	if err != nil {
		return nil, err
	}

	a.store(ctx, key, page)
	return page, nil
}

func (a *Assembler) assemble(ctx context.Context, viewerID uint, limit int, cursor string) (*Page, error) {
	var friendIDs, followingIDs []uint

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		friendIDs, err = a.friends.GetAcceptedFriendIDs(gctx, viewerID)
		return err
	})
	g.Go(func() (err error) {
		followingIDs, err = a.follows.GetFollowingIDs(gctx, viewerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load relationships: %w", err)
	}

	posts, err := a.posts.FindFeedPosts(ctx, repositories.FeedQuery{
		ViewerID:  viewerID,
		AuthorIDs: authorSet(viewerID, friendIDs, followingIDs),
		FriendIDs: friendIDs,
		Cursor:    cursor,
		Limit:     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("find feed posts: %w", err)
	}

	enriched, err := a.enricher.Enrich(ctx, viewerID, posts)
	if err != nil {
		return nil, fmt.Errorf("enrich feed posts: %w", err)
	}

	page := &Page{Posts: enriched}
	if len(posts) == limit {
		next := posts[len(posts)-1].ID.Hex()
		page.NextCursor = &next
	}
	return page, nil
}

// authorSet is the viewer, friends and followees without duplicates.
func authorSet(viewerID uint, groups ...[]uint) []uint {
	seen := map[uint]struct{}{viewerID: {}}
	for _, ids := range groups {
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}
	out := make([]uint, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (a *Assembler) cached(ctx context.Context, key string) (*Page, bool) {
	data, err := a.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("feed cache read failed")
		}
		return nil, false
	}

	var page Page
	if err := json.Unmarshal(data, &page); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("discarding undecodable feed cache entry")
		return nil, false
	}
	return &page, true
}

func (a *Assembler) store(ctx context.Context, key string, page *Page) {
	data, err := json.Marshal(page)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("feed page not cacheable")
		return
	}
	if err := a.cache.Set(ctx, key, data, a.ttl); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("feed cache write failed")
	}
}

// InvalidateAll drops every cached feed page. Called when posts are created or deleted.
func (a *Assembler) InvalidateAll(ctx context.Context) {
	a.invalidate(ctx, "feed:*")
}

// InvalidateViewer drops the cached pages of one viewer, used after their own
// likes, reactions, saves and reposts so the flags refresh.
func (a *Assembler) InvalidateViewer(ctx context.Context, viewerID uint) {
	a.invalidate(ctx, fmt.Sprintf("feed:%d:*", viewerID))
}

func (a *Assembler) invalidate(ctx context.Context, pattern string) {
	if err := a.cache.InvalidatePattern(ctx, pattern); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("pattern", pattern).Msg("feed cache invalidation failed")
	}
}
