package trending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/anonto42/circle/backend/internal/cache"
	"github.com/anonto42/circle/backend/internal/feed"
	"github.com/anonto42/circle/backend/internal/models"
	"github.com/anonto42/circle/backend/pkg/logger"
)

const (
	HashtagWindow = 7 * 24 * time.Hour
	PostWindow    = 24 * time.Hour

	TopHashtags = 10
	TopPosts    = 5

	// DefaultCandidates bounds how many posts, ordered by raw likes then
	// comments then reposts, are scored. A post that wins mostly on reposts
	// can fall outside it.
	DefaultCandidates = 50
	DefaultCacheTTL   = time.Minute
)

type PostSource interface {
	FindPublicSince(ctx context.Context, since time.Time) ([]models.Post, error)
	FindTopPublicSince(ctx context.Context, since time.Time, limit int64) ([]models.Post, error)
}

// RankedPost is a trending post rendered like a feed post.
type RankedPost struct {
	feed.EnrichedPost
	EngagementScore int `json:"engagementScore"`
}

type Result struct {
	Hashtags []RankedHashtag `json:"hashtags"`
	Posts    []RankedPost    `json:"posts"`
}

// Engine ranks hashtags and posts across all public posts. The output does
// not depend on the viewer.
type Engine struct {
	posts      PostSource
	enricher   *feed.Enricher
	cache      cache.Cache
	ttl        time.Duration
	candidates int
	now        func() time.Time
	group      singleflight.Group
}

type Option func(*Engine)

// WithCache caches results per wall-clock minute.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(e *Engine) {
		e.cache = c
		if ttl > 0 {
			e.ttl = ttl
		}
	}
}

// WithCandidates sets how many counter-sorted posts are scored.
func WithCandidates(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.candidates = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(posts PostSource, enricher *feed.Enricher, opts ...Option) *Engine {
	e := &Engine{
		posts:      posts,
		enricher:   enricher,
		ttl:        DefaultCacheTTL,
		candidates: DefaultCandidates,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func cacheKey(now time.Time) string {
	return fmt.Sprintf("trending:%d", now.Unix()/60)
}

// GetTrending returns the top hashtags of the last week and the most engaging
// posts of the last day.
func (e *Engine) GetTrending(ctx context.Context) (*Result, error) {
	now := e.now()
	if e.cache == nil {
		return e.compute(ctx, now)
	}

	key := cacheKey(now)
	if res, ok := e.cached(ctx, key); ok {
		return res, nil
	}

	// Callers share one computation, so it must not die with the first caller.
	shared := context.WithoutCancel(ctx)
	v, err, _ := e.group.Do(key, func() (interface{}, error) {
		res, err := e.compute(shared, now)
		if err != nil {
			return nil, err
		}
		e.store(shared, key, res)
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

func (e *Engine) compute(ctx context.Context, now time.Time) (*Result, error) {
	hashtagSince := now.Add(-HashtagWindow)
	recent, err := e.posts.FindPublicSince(ctx, hashtagSince)
	if err != nil {
		return nil, fmt.Errorf("load recent public posts: %w", err)
	}

	postSince := now.Add(-PostWindow)
	candidates, err := e.posts.FindTopPublicSince(ctx, postSince, int64(e.candidates))
	if err != nil {
		return nil, fmt.Errorf("load trending candidates: %w", err)
	}

	top := RankPosts(candidates, postSince, TopPosts)
	posts := make([]models.Post, len(top))
	for i, s := range top {
		posts[i] = s.post
	}
	enriched, err := e.enricher.Enrich(ctx, 0, posts)
	if err != nil {
		return nil, fmt.Errorf("enrich trending posts: %w", err)
	}

	ranked := make([]RankedPost, len(enriched))
	for i := range enriched {
		ranked[i] = RankedPost{EnrichedPost: enriched[i], EngagementScore: top[i].score}
	}

	return &Result{
		Hashtags: RankHashtags(recent, hashtagSince, TopHashtags),
		Posts:    ranked,
	}, nil
}

func (e *Engine) cached(ctx context.Context, key string) (*Result, bool) {
	data, err := e.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("trending cache read failed")
		}
		return nil, false
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("discarding undecodable trending cache entry")
		return nil, false
	}
	return &res, true
}

func (e *Engine) store(ctx context.Context, key string, res *Result) {
	data, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := e.cache.Set(ctx, key, data, e.ttl); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("trending cache write failed")
	}
}
