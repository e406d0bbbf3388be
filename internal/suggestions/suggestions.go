package suggestions

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/anonto42/circle/backend/internal/models"
)

const (
	DefaultLimit = 5
	MaxLimit     = 20
)

type FriendGraph interface {
	GetAcceptedFriendIDs(ctx context.Context, userID uint) ([]uint, error)
	GetPendingPeerIDs(ctx context.Context, userID uint) ([]uint, error)
	GetAcceptedEdgesTouching(ctx context.Context, userIDs []uint) ([]models.Friendship, error)
}

type UserSource interface {
	GetUsersByIDs(ctx context.Context, ids []uint) (map[uint]models.User, error)
	GetNewestUsers(ctx context.Context, exclude []uint, limit int) ([]models.User, error)
}

type Suggestion struct {
	models.UserCompact
	Profession    string `json:"profession"`
	MutualFriends int    `json:"mutualFriends"`
}

type Service struct {
	graph FriendGraph
	users UserSource
}

func NewService(graph FriendGraph, users UserSource) *Service {
	return &Service{graph: graph, users: users}
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

// Suggest proposes people the viewer may know: friends of friends ranked by
// how many friends they share with the viewer, topped up with the newest
// users. The viewer, their friends and anyone with a pending request either
// way are never suggested.
func (s *Service) Suggest(ctx context.Context, viewerID uint, limit int) ([]Suggestion, error) {
	limit = NormalizeLimit(limit)

	var friendIDs, pendingIDs []uint
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		friendIDs, err = s.graph.GetAcceptedFriendIDs(gctx, viewerID)
		return err
	})
	g.Go(func() (err error) {
		pendingIDs, err = s.graph.GetPendingPeerIDs(gctx, viewerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load viewer graph: %w", err)
	}

	excluded := map[uint]bool{viewerID: true}
	friends := make(map[uint]bool, len(friendIDs))
	for _, id := range friendIDs {
		excluded[id] = true
		friends[id] = true
	}
	for _, id := range pendingIDs {
		excluded[id] = true
	}

	edges, err := s.graph.GetAcceptedEdgesTouching(ctx, friendIDs)
	if err != nil {
		return nil, fmt.Errorf("load friends of friends: %w", err)
	}
	ranked := rankByMutualFriends(edges, friends, excluded)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	ids := make([]uint, len(ranked))
	for i, r := range ranked {
		ids[i] = r.userID
	}
	users, err := s.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load suggested users: %w", err)
	}

	out := make([]Suggestion, 0, limit)
	for _, r := range ranked {
		u, ok := users[r.userID]
		if !ok {
			continue
		}
		out = append(out, suggestion(u, r.mutual))
		excluded[r.userID] = true
	}

	if len(out) < limit {
		newest, err := s.users.GetNewestUsers(ctx, keys(excluded), limit-len(out))
		if err != nil {
			return nil, fmt.Errorf("load newest users: %w", err)
		}
		for _, u := range newest {
			out = append(out, suggestion(u, 0))
		}
	}
	return out, nil
}

type candidate struct {
	userID uint
	mutual int
}

// rankByMutualFriends counts, for every non-excluded user on the far side of a
// friend's accepted edge, how many distinct viewer friends they are linked to.
func rankByMutualFriends(edges []models.Friendship, friends, excluded map[uint]bool) []candidate {
	mutual := make(map[uint]map[uint]bool)
	for _, e := range edges {
		for _, f := range []uint{e.RequesterID, e.AddresseeID} {
			if !friends[f] {
				continue
			}
			other := e.Other(f)
			if excluded[other] {
				continue
			}
			if mutual[other] == nil {
				mutual[other] = make(map[uint]bool)
			}
			mutual[other][f] = true
		}
	}

	out := make([]candidate, 0, len(mutual))
	for id, via := range mutual {
		out = append(out, candidate{userID: id, mutual: len(via)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].mutual != out[j].mutual {
			return out[i].mutual > out[j].mutual
		}
		return out[i].userID < out[j].userID
	})
	return out
}

func suggestion(u models.User, mutual int) Suggestion {
	return Suggestion{UserCompact: u.ToCompact(), Profession: u.Profession, MutualFriends: mutual}
}

func keys(m map[uint]bool) []uint {
	out := make([]uint, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
