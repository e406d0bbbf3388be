package repositories

import (
	"context"

	"github.com/anonto42/circle/backend/internal/models"
	"gorm.io/gorm"
)

// LikeRepository defines the interface for like data operations
type LikeRepository interface {
	CreateLike(ctx context.Context, like *models.Like) error
	DeleteLike(ctx context.Context, postID string, userID uint) error
	GetLikesByPostID(ctx context.Context, postID string) ([]models.Like, error)
	HasUserLikedPost(ctx context.Context, postID string, userID uint) (bool, error)
	GetLikedPostIDs(ctx context.Context, userID uint, postIDs []string) (map[string]bool, error)
}

// PostgresLikeRepository implements LikeRepository on gorm
type PostgresLikeRepository struct {
	db *gorm.DB
}

// NewPostgresLikeRepository creates a new PostgresLikeRepository
func NewPostgresLikeRepository(db *gorm.DB) *PostgresLikeRepository {
	return &PostgresLikeRepository{db: db}
}

// CreateLike stores a like; a second like by the same user is ErrConflict.
func (r *PostgresLikeRepository) CreateLike(ctx context.Context, like *models.Like) error {
	return translate(r.db.WithContext(ctx).Create(like).Error)
}

func (r *PostgresLikeRepository) DeleteLike(ctx context.Context, postID string, userID uint) error {
	res := r.db.WithContext(ctx).Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Like{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresLikeRepository) GetLikesByPostID(ctx context.Context, postID string) ([]models.Like, error) {
	var likes []models.Like
	err := r.db.WithContext(ctx).Where("post_id = ?", postID).Order("created_at DESC").Find(&likes).Error
	return likes, err
}

func (r *PostgresLikeRepository) HasUserLikedPost(ctx context.Context, postID string, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).Where("post_id = ? AND user_id = ?", postID, userID).Count(&count).Error
	return count > 0, err
}

// GetLikedPostIDs reports which of postIDs userID has liked.
func (r *PostgresLikeRepository) GetLikedPostIDs(ctx context.Context, userID uint, postIDs []string) (map[string]bool, error) {
	return postIDSet(r.db.WithContext(ctx).Model(&models.Like{}), userID, postIDs)
}

// postIDSet plucks post_id for userID over postIDs from the scoped model.
func postIDSet(scope *gorm.DB, userID uint, postIDs []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if len(postIDs) == 0 {
		return result, nil
	}
	var ids []string
	if err := scope.Where("user_id = ? AND post_id IN ?", userID, postIDs).Pluck("post_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}
