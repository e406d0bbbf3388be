package repositories

import (
	"context"

	"github.com/anonto42/circle/backend/internal/models"
	"gorm.io/gorm"
)

// SavedPostRepository defines the interface for saved post operations
type SavedPostRepository interface {
	SavePost(ctx context.Context, savedPost *models.SavedPost) error
	UnsavePost(ctx context.Context, userID uint, postID string) error
	GetSavedPostsByUser(ctx context.Context, userID uint) ([]models.SavedPost, error)
	GetSavedPostIDs(ctx context.Context, userID uint, postIDs []string) (map[string]bool, error)
}

// PostgresSavedPostRepository implements SavedPostRepository
type PostgresSavedPostRepository struct {
	db *gorm.DB
}

func NewPostgresSavedPostRepository(db *gorm.DB) *PostgresSavedPostRepository {
	return &PostgresSavedPostRepository{db: db}
}

func (r *PostgresSavedPostRepository) SavePost(ctx context.Context, savedPost *models.SavedPost) error {
	return translate(r.db.WithContext(ctx).Create(savedPost).Error)
}

func (r *PostgresSavedPostRepository) UnsavePost(ctx context.Context, userID uint, postID string) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.SavedPost{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresSavedPostRepository) GetSavedPostsByUser(ctx context.Context, userID uint) ([]models.SavedPost, error) {
	var saved []models.SavedPost
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&saved).Error
	return saved, err
}

func (r *PostgresSavedPostRepository) GetSavedPostIDs(ctx context.Context, userID uint, postIDs []string) (map[string]bool, error) {
	return postIDSet(r.db.WithContext(ctx).Model(&models.SavedPost{}), userID, postIDs)
}
