package repositories

import (
	"context"

	"github.com/anonto42/circle/backend/internal/models"
	"gorm.io/gorm"
)

type RepostRepository interface {
	CreateRepost(ctx context.Context, repost *models.Repost) error
	DeleteRepost(ctx context.Context, userID uint, postID string) error
	GetRepostedPostIDs(ctx context.Context, userID uint, postIDs []string) (map[string]bool, error)
}

type PostgresRepostRepository struct {
	db *gorm.DB
}

func NewPostgresRepostRepository(db *gorm.DB) *PostgresRepostRepository {
	return &PostgresRepostRepository{db: db}
}

func (r *PostgresRepostRepository) CreateRepost(ctx context.Context, repost *models.Repost) error {
	return translate(r.db.WithContext(ctx).Create(repost).Error)
}

func (r *PostgresRepostRepository) DeleteRepost(ctx context.Context, userID uint, postID string) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Repost{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepostRepository) GetRepostedPostIDs(ctx context.Context, userID uint, postIDs []string) (map[string]bool, error) {
	return postIDSet(r.db.WithContext(ctx).Model(&models.Repost{}), userID, postIDs)
}
