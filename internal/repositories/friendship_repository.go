package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/circle/backend/internal/models"
	"gorm.io/gorm"
)

// FriendshipRepository defines the interface for friendship data operations
type FriendshipRepository interface {
	SendFriendRequest(ctx context.Context, req *models.Friendship) error
	GetFriendshipByID(ctx context.Context, id uint) (*models.Friendship, error)
	GetFriendshipBetween(ctx context.Context, a, b uint) (*models.Friendship, error)
	GetPendingForAddressee(ctx context.Context, userID uint) ([]models.Friendship, error)
	GetAcceptedFriendIDs(ctx context.Context, userID uint) ([]uint, error)
	GetPendingPeerIDs(ctx context.Context, userID uint) ([]uint, error)
	GetAcceptedEdgesTouching(ctx context.Context, userIDs []uint) ([]models.Friendship, error)
	UpdateStatus(ctx context.Context, id uint, status models.FriendshipStatus) error
	DeleteFriendship(ctx context.Context, id uint) error
}

// PostgresFriendshipRepository implements FriendshipRepository on gorm
type PostgresFriendshipRepository struct {
	db *gorm.DB
}

// NewPostgresFriendshipRepository creates a new PostgresFriendshipRepository
func NewPostgresFriendshipRepository(db *gorm.DB) *PostgresFriendshipRepository {
	return &PostgresFriendshipRepository{db: db}
}

// SendFriendRequest creates a pending request unless an edge already exists in
// either direction. A previously rejected edge is reopened as pending.
func (r *PostgresFriendshipRepository) SendFriendRequest(ctx context.Context, req *models.Friendship) error {
	existing, err := r.GetFriendshipBetween(ctx, req.RequesterID, req.AddresseeID)
	switch {
	case err == nil && existing.Status == models.FriendshipRejected:
		existing.RequesterID, existing.AddresseeID = req.RequesterID, req.AddresseeID
		existing.Status = models.FriendshipPending
		if err := r.db.WithContext(ctx).Save(existing).Error; err != nil {
			return translate(err)
		}
		*req = *existing
		return nil
	case err == nil:
		return ErrConflict
	case !errors.Is(err, ErrNotFound):
		return err
	}

	req.Status = models.FriendshipPending
	return translate(r.db.WithContext(ctx).Create(req).Error)
}

func (r *PostgresFriendshipRepository) GetFriendshipByID(ctx context.Context, id uint) (*models.Friendship, error) {
	var f models.Friendship
	if err := r.db.WithContext(ctx).First(&f, id).Error; err != nil {
		return nil, translate(err)
	}
	return &f, nil
}

// GetFriendshipBetween finds the edge between a and b regardless of direction.
func (r *PostgresFriendshipRepository) GetFriendshipBetween(ctx context.Context, a, b uint) (*models.Friendship, error) {
	var f models.Friendship
	err := r.db.WithContext(ctx).
		Where("(requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)", a, b, b, a).
		First(&f).Error
	if err != nil {
		return nil, translate(err)
	}
	return &f, nil
}

// GetPendingForAddressee retrieves requests waiting on userID's answer
func (r *PostgresFriendshipRepository) GetPendingForAddressee(ctx context.Context, userID uint) ([]models.Friendship, error) {
	var requests []models.Friendship
	err := r.db.WithContext(ctx).
		Where("addressee_id = ? AND status = ?", userID, models.FriendshipPending).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

// GetAcceptedFriendIDs returns the other side of every accepted edge of userID.
func (r *PostgresFriendshipRepository) GetAcceptedFriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	return r.peerIDs(ctx, userID, models.FriendshipAccepted)
}

// GetPendingPeerIDs returns users with a pending request to or from userID.
func (r *PostgresFriendshipRepository) GetPendingPeerIDs(ctx context.Context, userID uint) ([]uint, error) {
	return r.peerIDs(ctx, userID, models.FriendshipPending)
}

func (r *PostgresFriendshipRepository) peerIDs(ctx context.Context, userID uint, status models.FriendshipStatus) ([]uint, error) {
	var edges []models.Friendship
	err := r.db.WithContext(ctx).
		Select("requester_id", "addressee_id").
		Where("status = ? AND (requester_id = ? OR addressee_id = ?)", status, userID, userID).
		Find(&edges).Error
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.Other(userID))
	}
	return ids, nil
}

// GetAcceptedEdgesTouching returns accepted edges with either side in userIDs.
func (r *PostgresFriendshipRepository) GetAcceptedEdgesTouching(ctx context.Context, userIDs []uint) ([]models.Friendship, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var edges []models.Friendship
	err := r.db.WithContext(ctx).
		Where("status = ? AND (requester_id IN ? OR addressee_id IN ?)", models.FriendshipAccepted, userIDs, userIDs).
		Find(&edges).Error
	return edges, err
}

func (r *PostgresFriendshipRepository) UpdateStatus(ctx context.Context, id uint, status models.FriendshipStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Friendship{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresFriendshipRepository) DeleteFriendship(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Friendship{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
