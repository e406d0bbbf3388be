package repositories

import (
	"context"

	"github.com/anonto42/circle/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReactionRepository defines the interface for reaction data operations
type ReactionRepository interface {
	AddReaction(ctx context.Context, reaction *models.Reaction) error
	RemoveReaction(ctx context.Context, postID string, userID uint, kind models.ReactionKind) error
	GetUserReactions(ctx context.Context, userID uint, postIDs []string) (map[string][]models.ReactionKind, error)
	CountByKind(ctx context.Context, postIDs []string) (map[string]map[models.ReactionKind]int, error)
}

// PostgresReactionRepository implements ReactionRepository on gorm
type PostgresReactionRepository struct {
	db *gorm.DB
}

// NewPostgresReactionRepository creates a new PostgresReactionRepository
func NewPostgresReactionRepository(db *gorm.DB) *PostgresReactionRepository {
	return &PostgresReactionRepository{db: db}
}

// AddReaction is idempotent: reacting twice with the same kind is a no-op.
func (r *PostgresReactionRepository) AddReaction(ctx context.Context, reaction *models.Reaction) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(reaction).Error
}

func (r *PostgresReactionRepository) RemoveReaction(ctx context.Context, postID string, userID uint, kind models.ReactionKind) error {
	res := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ? AND kind = ?", postID, userID, kind).
		Delete(&models.Reaction{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetUserReactions groups userID's reactions by post.
func (r *PostgresReactionRepository) GetUserReactions(ctx context.Context, userID uint, postIDs []string) (map[string][]models.ReactionKind, error) {
	result := make(map[string][]models.ReactionKind)
	if len(postIDs) == 0 {
		return result, nil
	}
	var rows []models.Reaction
	err := r.db.WithContext(ctx).
		Select("post_id", "kind").
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.PostID] = append(result[row.PostID], row.Kind)
	}
	return result, nil
}

type kindCount struct {
	PostID string
	Kind   models.ReactionKind
	Total  int
}

// CountByKind aggregates reactions from every user per post and kind.
func (r *PostgresReactionRepository) CountByKind(ctx context.Context, postIDs []string) (map[string]map[models.ReactionKind]int, error) {
	result := make(map[string]map[models.ReactionKind]int)
	if len(postIDs) == 0 {
		return result, nil
	}
	var rows []kindCount
	err := r.db.WithContext(ctx).Model(&models.Reaction{}).
		Select("post_id, kind, COUNT(*) AS total").
		Where("post_id IN ?", postIDs).
		Group("post_id, kind").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if result[row.PostID] == nil {
			result[row.PostID] = make(map[models.ReactionKind]int)
		}
		result[row.PostID][row.Kind] = row.Total
	}
	return result, nil
}
