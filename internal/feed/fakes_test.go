package feed

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/circle/backend/internal/cache"
	"github.com/anonto42/circle/backend/internal/models"
	"github.com/anonto42/circle/backend/internal/repositories"
)

// world is an in-memory stand-in for every store the assembler reads.
type world struct {
	mu        sync.Mutex
	users     map[uint]models.User
	posts     []models.Post
	friends   [][2]uint
	follows   [][2]uint
	reactions []models.Reaction
	likes     map[string]map[uint]bool
	saves     map[string]map[uint]bool
	reposts   map[string]map[uint]bool

	failPosts bool
	postCalls int
	clock     time.Time
}

func newWorld() *world {
	return &world{
		users:   map[uint]models.User{},
		likes:   map[string]map[uint]bool{},
		saves:   map[string]map[uint]bool{},
		reposts: map[string]map[uint]bool{},
		clock:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (w *world) addUser(id uint, username string) {
	w.users[id] = models.User{ID: id, Username: username, DisplayName: username, Avatar: username + ".png"}
}

func (w *world) befriend(a, b uint) { w.friends = append(w.friends, [2]uint{a, b}) }

func (w *world) follow(follower, following uint) {
	w.follows = append(w.follows, [2]uint{follower, following})
}

// post adds a post one minute newer than the previous one and returns its id.
func (w *world) post(author uint, vis models.Visibility, content string) string {
	w.clock = w.clock.Add(time.Minute)
	p := models.Post{
		ID:         primitive.NewObjectIDFromTimestamp(w.clock),
		AuthorID:   author,
		Content:    content,
		MediaType:  models.MediaNone,
		Visibility: vis,
		CreatedAt:  w.clock,
	}
	w.posts = append(w.posts, p)
	return p.ID.Hex()
}

func (w *world) react(postID string, userID uint, kind models.ReactionKind) {
	w.reactions = append(w.reactions, models.Reaction{PostID: postID, UserID: userID, Kind: kind})
}

func (w *world) like(postID string, userID uint) {
	mark(w.likes, postID, userID)
	for i := range w.posts {
		if w.posts[i].ID.Hex() == postID {
			w.posts[i].LikeCount++
		}
	}
}

func mark(m map[string]map[uint]bool, postID string, userID uint) {
	if m[postID] == nil {
		m[postID] = map[uint]bool{}
	}
	m[postID][userID] = true
}

func (w *world) GetAcceptedFriendIDs(_ context.Context, userID uint) ([]uint, error) {
	var ids []uint
	for _, f := range w.friends {
		if f[0] == userID {
			ids = append(ids, f[1])
		} else if f[1] == userID {
			ids = append(ids, f[0])
		}
	}
	return ids, nil
}

func (w *world) GetFollowingIDs(_ context.Context, userID uint) ([]uint, error) {
	var ids []uint
	for _, f := range w.follows {
		if f[0] == userID {
			ids = append(ids, f[1])
		}
	}
	return ids, nil
}

func contains(ids []uint, id uint) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// FindFeedPosts mirrors the Mongo filter: author set, visibility, keyset cursor.
func (w *world) FindFeedPosts(_ context.Context, q repositories.FeedQuery) ([]models.Post, error) {
	w.mu.Lock()
	w.postCalls++
	w.mu.Unlock()
	if w.failPosts {
		return nil, errors.New("mongo unavailable")
	}

	sorted := append([]models.Post(nil), w.posts...)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		}
		return sorted[i].ID.Hex() > sorted[j].ID.Hex()
	})

	var after *models.Post
	for i := range sorted {
		if sorted[i].ID.Hex() == q.Cursor {
			after = &sorted[i]
		}
	}

	out := []models.Post{}
	for _, p := range sorted {
		if !contains(q.AuthorIDs, p.AuthorID) {
			continue
		}
		if !p.VisibleTo(q.ViewerID, contains(q.FriendIDs, p.AuthorID)) {
			continue
		}
		if after != nil {
			older := p.CreatedAt.Before(after.CreatedAt) ||
				(p.CreatedAt.Equal(after.CreatedAt) && p.ID.Hex() < after.ID.Hex())
			if !older {
				continue
			}
		}
		out = append(out, p)
		if len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (w *world) GetUsersByIDs(_ context.Context, ids []uint) (map[uint]models.User, error) {
	out := map[uint]models.User{}
	for _, id := range ids {
		if u, ok := w.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (w *world) GetUserReactions(_ context.Context, userID uint, postIDs []string) (map[string][]models.ReactionKind, error) {
	out := map[string][]models.ReactionKind{}
	for _, r := range w.reactions {
		if r.UserID == userID {
			out[r.PostID] = append(out[r.PostID], r.Kind)
		}
	}
	return out, nil
}

func (w *world) CountByKind(_ context.Context, postIDs []string) (map[string]map[models.ReactionKind]int, error) {
	out := map[string]map[models.ReactionKind]int{}
	for _, r := range w.reactions {
		if out[r.PostID] == nil {
			out[r.PostID] = map[models.ReactionKind]int{}
		}
		out[r.PostID][r.Kind]++
	}
	return out, nil
}

func flagged(m map[string]map[uint]bool, userID uint, postIDs []string) map[string]bool {
	out := map[string]bool{}
	for _, id := range postIDs {
		if m[id][userID] {
			out[id] = true
		}
	}
	return out
}

func (w *world) GetLikedPostIDs(_ context.Context, userID uint, postIDs []string) (map[string]bool, error) {
	return flagged(w.likes, userID, postIDs), nil
}

func (w *world) GetSavedPostIDs(_ context.Context, userID uint, postIDs []string) (map[string]bool, error) {
	return flagged(w.saves, userID, postIDs), nil
}

func (w *world) GetRepostedPostIDs(_ context.Context, userID uint, postIDs []string) (map[string]bool, error) {
	return flagged(w.reposts, userID, postIDs), nil
}

func (w *world) assembler(c cache.Cache) *Assembler {
	enricher := NewEnricher(w, w, w, w, w)
	return NewAssembler(w, w, w, enricher, c, time.Minute)
}

// brokenCache fails every operation.
type brokenCache struct{}

var errCacheDown = errors.New("redis down")

func (brokenCache) Get(context.Context, string) ([]byte, error)                { return nil, errCacheDown }
func (brokenCache) Set(context.Context, string, []byte, time.Duration) error { return errCacheDown }
func (brokenCache) Delete(context.Context, ...string) error                  { return errCacheDown }
func (brokenCache) InvalidatePattern(context.Context, string) error          { return errCacheDown }
func (brokenCache) Close() error                                             { return nil }
