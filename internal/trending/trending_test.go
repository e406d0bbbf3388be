package trending

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/circle/backend/internal/cache"
	"github.com/anonto42/circle/backend/internal/feed"
	"github.com/anonto42/circle/backend/internal/models"
)

var now = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

// fakePosts returns every post it holds; the engine applies the exact window.
type fakePosts struct {
	posts []models.Post
	calls atomic.Int32
	err   error
}

func (f *fakePosts) FindPublicSince(context.Context, time.Time) ([]models.Post, error) {
	f.calls.Add(1)
	return f.posts, f.err
}

// FindTopPublicSince orders by raw counters the way the store does.
func (f *fakePosts) FindTopPublicSince(_ context.Context, _ time.Time, limit int64) ([]models.Post, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := append([]models.Post(nil), f.posts...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.LikeCount != b.LikeCount {
			return a.LikeCount > b.LikeCount
		}
		if a.CommentCount != b.CommentCount {
			return a.CommentCount > b.CommentCount
		}
		return a.RepostCount > b.RepostCount
	})
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

// readers satisfies every enrichment dependency with empty data.
type readers struct{}

func (readers) GetUsersByIDs(_ context.Context, ids []uint) (map[uint]models.User, error) {
	out := map[uint]models.User{}
	for _, id := range ids {
		out[id] = models.User{ID: id, Username: "u"}
	}
	return out, nil
}
func (readers) GetUserReactions(context.Context, uint, []string) (map[string][]models.ReactionKind, error) {
	return nil, errors.New("viewer lookups must not run for trending")
}
func (readers) CountByKind(context.Context, []string) (map[string]map[models.ReactionKind]int, error) {
	return map[string]map[models.ReactionKind]int{}, nil
}
func (readers) GetLikedPostIDs(context.Context, uint, []string) (map[string]bool, error) {
	return nil, errors.New("viewer lookups must not run for trending")
}
func (readers) GetSavedPostIDs(context.Context, uint, []string) (map[string]bool, error) {
	return nil, errors.New("viewer lookups must not run for trending")
}
func (readers) GetRepostedPostIDs(context.Context, uint, []string) (map[string]bool, error) {
	return nil, errors.New("viewer lookups must not run for trending")
}

func newEngine(src PostSource, opts ...Option) *Engine {
	r := readers{}
	opts = append([]Option{WithClock(func() time.Time { return now })}, opts...)
	return NewEngine(src, feed.NewEnricher(r, r, r, r, r), opts...)
}

func publicPost(content string, age time.Duration, likes, comments, reposts int) models.Post {
	created := now.Add(-age)
	return models.Post{
		ID:           primitive.NewObjectIDFromTimestamp(created),
		AuthorID:     1,
		Content:      content,
		Visibility:   models.VisibilityPublic,
		LikeCount:    likes,
		CommentCount: comments,
		RepostCount:  reposts,
		CreatedAt:    created,
	}
}

func TestExtractHashtags(t *testing.T) {
	got := ExtractHashtags("Check out #BlackExcellence and #blackexcellence again, #go_lang2! #")
	want := []string{"blackexcellence", "blackexcellence", "go_lang2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractHashtags = %v, want %v", got, want)
	}
}

func TestRankHashtagsCountsDistinctPosts(t *testing.T) {
	posts := []models.Post{
		publicPost("Check out #BlackExcellence and #blackexcellence again", time.Hour, 0, 0, 0),
	}
	got := RankHashtags(posts, now.Add(-HashtagWindow), TopHashtags)
	want := []RankedHashtag{{Tag: "blackexcellence", Count: 1, Mentions: 2}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("RankHashtags = %+v, want %+v", got, want)
	}
}

func TestRankHashtagsWindowBoundary(t *testing.T) {
	posts := []models.Post{
		publicPost("#stale", HashtagWindow+time.Second, 0, 0, 0),
		publicPost("#fresh", 6*24*time.Hour+23*time.Hour, 0, 0, 0),
		publicPost("#edge", HashtagWindow, 0, 0, 0),
	}
	got := RankHashtags(posts, now.Add(-HashtagWindow), TopHashtags)

	tags := map[string]bool{}
	for _, h := range got {
		tags[h.Tag] = true
	}
	if tags["stale"] {
		t.Errorf("post 7d+1s old must be excluded")
	}
	if !tags["fresh"] {
		t.Errorf("post 6d23h old must be included")
	}
	if !tags["edge"] {
		t.Errorf("post exactly 7d old is inside the window")
	}
}

func TestRankHashtagsTieOrder(t *testing.T) {
	posts := []models.Post{
		publicPost("#beta #alpha", time.Hour, 0, 0, 0),
		publicPost("#beta #alpha #alpha #gamma", time.Hour, 0, 0, 0),
		publicPost("#delta #delta #delta", time.Hour, 0, 0, 0),
	}
	got := RankHashtags(posts, now.Add(-HashtagWindow), TopHashtags)
	want := []RankedHashtag{
		{Tag: "alpha", Count: 2, Mentions: 3},
		{Tag: "beta", Count: 2, Mentions: 2},
		{Tag: "delta", Count: 1, Mentions: 3},
		{Tag: "gamma", Count: 1, Mentions: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("RankHashtags = %+v, want %+v", got, want)
	}
}

func TestRankHashtagsTopTen(t *testing.T) {
	var posts []models.Post
	for _, tag := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
		posts = append(posts, publicPost("#"+tag, time.Hour, 0, 0, 0))
	}
	if got := RankHashtags(posts, now.Add(-HashtagWindow), TopHashtags); len(got) != TopHashtags {
		t.Fatalf("expected %d hashtags, got %d", TopHashtags, len(got))
	}
}

func TestEngagementScore(t *testing.T) {
	p := models.Post{LikeCount: 10, CommentCount: 5, RepostCount: 2}
	if got := EngagementScore(p); got != 26 {
		t.Fatalf("EngagementScore = %d, want 26", got)
	}
}

func TestGetTrendingResortsByScore(t *testing.T) {
	likesHeavy := publicPost("likes", time.Hour, 10, 0, 0)     // 10
	repostHeavy := publicPost("reposts", time.Hour, 2, 1, 5)   // 19
	commentHeavy := publicPost("comments", time.Hour, 4, 6, 0) // 16
	old := publicPost("yesterday", PostWindow+time.Minute, 100, 100, 100)

	src := &fakePosts{posts: []models.Post{likesHeavy, repostHeavy, commentHeavy, old}}
	res, err := newEngine(src).GetTrending(context.Background())
	if err != nil {
		t.Fatalf("GetTrending: %v", err)
	}

	var gotIDs []string
	var gotScores []int
	for _, p := range res.Posts {
		gotIDs = append(gotIDs, p.ID)
		gotScores = append(gotScores, p.EngagementScore)
	}
	wantIDs := []string{repostHeavy.ID.Hex(), commentHeavy.ID.Hex(), likesHeavy.ID.Hex()}
	if !reflect.DeepEqual(gotIDs, wantIDs) {
		t.Fatalf("order = %v, want %v", gotIDs, wantIDs)
	}
	if !reflect.DeepEqual(gotScores, []int{19, 16, 10}) {
		t.Fatalf("scores = %v", gotScores)
	}
	for _, p := range res.Posts {
		if p.HasLiked || p.HasSaved || p.HasReposted || len(p.UserReactions) != 0 {
			t.Fatalf("trending posts carry no viewer state: %+v", p)
		}
	}
}

func TestGetTrendingTopFive(t *testing.T) {
	var posts []models.Post
	for i := 0; i < 8; i++ {
		posts = append(posts, publicPost("p", time.Duration(i+1)*time.Minute, i, 0, 0))
	}
	res, err := newEngine(&fakePosts{posts: posts}).GetTrending(context.Background())
	if err != nil {
		t.Fatalf("GetTrending: %v", err)
	}
	if len(res.Posts) != TopPosts {
		t.Fatalf("expected %d posts, got %d", TopPosts, len(res.Posts))
	}
	if res.Posts[0].EngagementScore != 7 {
		t.Fatalf("expected the highest score first, got %d", res.Posts[0].EngagementScore)
	}
}

func TestGetTrendingStoreFailure(t *testing.T) {
	src := &fakePosts{err: errors.New("mongo unavailable")}
	if _, err := newEngine(src).GetTrending(context.Background()); err == nil {
		t.Fatalf("expected store error to propagate")
	}
}

func TestGetTrendingCachesPerMinute(t *testing.T) {
	src := &fakePosts{posts: []models.Post{publicPost("#go", time.Hour, 1, 0, 0)}}
	c := cache.NewMemoryCache()
	e := newEngine(src, WithCache(c, time.Minute))
	ctx := context.Background()

	first, err := e.GetTrending(ctx)
	if err != nil {
		t.Fatalf("GetTrending: %v", err)
	}
	second, err := e.GetTrending(ctx)
	if err != nil {
		t.Fatalf("GetTrending: %v", err)
	}
	if src.calls.Load() != 1 {
		t.Fatalf("expected one store read, got %d", src.calls.Load())
	}
	if !reflect.DeepEqual(first.Hashtags, second.Hashtags) || len(second.Posts) != 1 {
		t.Fatalf("cached result differs: %+v vs %+v", first, second)
	}
	if _, err := c.Get(ctx, cacheKey(now)); err != nil {
		t.Fatalf("expected entry under %s: %v", cacheKey(now), err)
	}
}

// ctxPosts fails once the context it is handed is cancelled.
type ctxPosts struct{ *fakePosts }

func (c ctxPosts) FindPublicSince(ctx context.Context, since time.Time) ([]models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.fakePosts.FindPublicSince(ctx, since)
}

func (c ctxPosts) FindTopPublicSince(ctx context.Context, since time.Time, limit int64) ([]models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.fakePosts.FindTopPublicSince(ctx, since, limit)
}

func TestGetTrendingSharedComputationOutlivesCaller(t *testing.T) {
	src := ctxPosts{&fakePosts{posts: []models.Post{publicPost("#go", time.Hour, 1, 0, 0)}}}
	c := cache.NewMemoryCache()
	e := newEngine(src, WithCache(c, time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := e.GetTrending(ctx)
	if err != nil {
		t.Fatalf("a cancelled caller must not fail the shared computation: %v", err)
	}
	if len(res.Posts) != 1 {
		t.Fatalf("expected 1 trending post, got %d", len(res.Posts))
	}
	if _, err := c.Get(context.Background(), cacheKey(now)); err != nil {
		t.Fatalf("expected the result cached for later callers: %v", err)
	}
}

func TestGetTrendingCandidateWindow(t *testing.T) {
	src := &fakePosts{posts: []models.Post{
		publicPost("liked", time.Hour, 5, 0, 0),
		publicPost("reposted", time.Hour, 0, 0, 10),
	}}

	narrow, err := newEngine(src, WithCandidates(1)).GetTrending(context.Background())
	if err != nil {
		t.Fatalf("GetTrending: %v", err)
	}
	if len(narrow.Posts) != 1 || narrow.Posts[0].Content != "liked" {
		t.Fatalf("a one-post window only sees the most liked post, got %+v", narrow.Posts)
	}

	wide, err := newEngine(src).GetTrending(context.Background())
	if err != nil {
		t.Fatalf("GetTrending: %v", err)
	}
	if len(wide.Posts) != 2 || wide.Posts[0].Content != "reposted" || wide.Posts[0].EngagementScore != 30 {
		t.Fatalf("expected the repost-heavy post first once it is a candidate, got %+v", wide.Posts)
	}
}
