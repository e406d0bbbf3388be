package suggestions

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/anonto42/circle/backend/internal/models"
)

type fakeGraph struct {
	edges []models.Friendship
	users map[uint]models.User
}

func (f *fakeGraph) connect(a, b uint, status models.FriendshipStatus) {
	f.edges = append(f.edges, models.Friendship{RequesterID: a, AddresseeID: b, Status: status})
}

func (f *fakeGraph) peers(userID uint, status models.FriendshipStatus) []uint {
	var out []uint
	for _, e := range f.edges {
		if e.Status == status && (e.RequesterID == userID || e.AddresseeID == userID) {
			out = append(out, e.Other(userID))
		}
	}
	return out
}

func (f *fakeGraph) GetAcceptedFriendIDs(_ context.Context, userID uint) ([]uint, error) {
	return f.peers(userID, models.FriendshipAccepted), nil
}

func (f *fakeGraph) GetPendingPeerIDs(_ context.Context, userID uint) ([]uint, error) {
	return f.peers(userID, models.FriendshipPending), nil
}

func (f *fakeGraph) GetAcceptedEdgesTouching(_ context.Context, ids []uint) ([]models.Friendship, error) {
	in := map[uint]bool{}
	for _, id := range ids {
		in[id] = true
	}
	var out []models.Friendship
	for _, e := range f.edges {
		if e.Status == models.FriendshipAccepted && (in[e.RequesterID] || in[e.AddresseeID]) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeGraph) GetUsersByIDs(_ context.Context, ids []uint) (map[uint]models.User, error) {
	out := map[uint]models.User{}
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

// GetNewestUsers treats a higher id as a newer account.
func (f *fakeGraph) GetNewestUsers(_ context.Context, exclude []uint, limit int) ([]models.User, error) {
	skip := map[uint]bool{}
	for _, id := range exclude {
		skip[id] = true
	}
	var out []models.User
	for id := uint(100); id > 0 && len(out) < limit; id-- {
		if u, ok := f.users[id]; ok && !skip[id] {
			out = append(out, u)
		}
	}
	return out, nil
}

func newGraph(n uint) *fakeGraph {
	g := &fakeGraph{users: map[uint]models.User{}}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for id := uint(1); id <= n; id++ {
		g.users[id] = models.User{ID: id, Username: "user", CreatedAt: base.Add(time.Duration(id) * time.Hour)}
	}
	return g
}

func result(s []Suggestion) [][2]uint {
	out := make([][2]uint, len(s))
	for i, x := range s {
		out[i] = [2]uint{x.ID, uint(x.MutualFriends)}
	}
	return out
}

func TestSuggestRanksByMutualFriends(t *testing.T) {
	g := newGraph(8)
	const viewer = 1
	g.connect(viewer, 2, models.FriendshipAccepted)
	g.connect(3, viewer, models.FriendshipAccepted)
	// 4 shares friends 2 and 3, 5 shares only 2
	g.connect(2, 4, models.FriendshipAccepted)
	g.connect(4, 3, models.FriendshipAccepted)
	g.connect(2, 5, models.FriendshipAccepted)
	// pending either way is excluded
	g.connect(2, 6, models.FriendshipAccepted)
	g.connect(viewer, 6, models.FriendshipPending)
	g.connect(3, 7, models.FriendshipAccepted)
	g.connect(7, viewer, models.FriendshipPending)
	// a pending friend-of-friend edge does not count
	g.connect(3, 8, models.FriendshipPending)

	got, err := NewService(g, g).Suggest(context.Background(), viewer, 2)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	want := [][2]uint{{4, 2}, {5, 1}}
	if !reflect.DeepEqual(result(got), want) {
		t.Fatalf("Suggest = %v, want %v", result(got), want)
	}
}

func TestSuggestTieBreaksByID(t *testing.T) {
	g := newGraph(6)
	g.connect(1, 2, models.FriendshipAccepted)
	g.connect(2, 6, models.FriendshipAccepted)
	g.connect(2, 4, models.FriendshipAccepted)
	g.connect(5, 2, models.FriendshipAccepted)

	got, err := NewService(g, g).Suggest(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	want := [][2]uint{{4, 1}, {5, 1}, {6, 1}}
	if !reflect.DeepEqual(result(got), want) {
		t.Fatalf("Suggest = %v, want %v", result(got), want)
	}
}

func TestSuggestFillsWithNewestUsers(t *testing.T) {
	g := newGraph(6)
	g.connect(1, 2, models.FriendshipAccepted)
	g.connect(2, 3, models.FriendshipAccepted)
	g.connect(1, 6, models.FriendshipPending)

	got, err := NewService(g, g).Suggest(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	// 3 via mutual friend, then newest not excluded: 5, 4
	want := [][2]uint{{3, 1}, {5, 0}, {4, 0}}
	if !reflect.DeepEqual(result(got), want) {
		t.Fatalf("Suggest = %v, want %v", result(got), want)
	}
}

func TestSuggestWithoutFriends(t *testing.T) {
	g := newGraph(3)
	got, err := NewService(g, g).Suggest(context.Background(), 3, 0)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	want := [][2]uint{{2, 0}, {1, 0}}
	if !reflect.DeepEqual(result(got), want) {
		t.Fatalf("Suggest = %v, want %v", result(got), want)
	}
}

func TestNormalizeLimit(t *testing.T) {
	for in, want := range map[int]int{-1: DefaultLimit, 0: DefaultLimit, 3: 3, 20: 20, 50: MaxLimit} {
		if got := NormalizeLimit(in); got != want {
			t.Errorf("NormalizeLimit(%d) = %d, want %d", in, got, want)
		}
	}
}
