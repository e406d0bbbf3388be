package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/circle/backend/internal/models"
	"gorm.io/gorm"
)

// ConversationRepository stores direct message threads and their messages.
type ConversationRepository interface {
	GetOrCreate(ctx context.Context, a, b uint) (*models.Conversation, bool, error)
	GetConversationByID(ctx context.Context, id uint) (*models.Conversation, error)
	ListForUser(ctx context.Context, userID uint) ([]models.Conversation, error)
	LastMessages(ctx context.Context, conversationIDs []uint) (map[uint]models.Message, error)
	UnreadCounts(ctx context.Context, userID uint, conversationIDs []uint) (map[uint]int, error)
	CreateMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, conversationID, beforeID uint, limit int) ([]models.Message, error)
	MarkMessagesRead(ctx context.Context, conversationID, readerID uint, messageIDs []uint) (int64, error)
	MarkConversationRead(ctx context.Context, conversationID, readerID uint) (int64, error)
}

type PostgresConversationRepository struct {
	db *gorm.DB
}

func NewPostgresConversationRepository(db *gorm.DB) *PostgresConversationRepository {
	return &PostgresConversationRepository{db: db}
}

// GetOrCreate returns the thread between a and b, creating it when missing.
// The bool reports whether this call created it.
func (r *PostgresConversationRepository) GetOrCreate(ctx context.Context, a, b uint) (*models.Conversation, bool, error) {
	conv := models.NewConversation(a, b)
	existing, err := r.findPair(ctx, conv.Participant1ID, conv.Participant2ID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	err = translate(r.db.WithContext(ctx).Create(&conv).Error)
	if errors.Is(err, ErrConflict) {
		// the other participant created it first
		existing, err := r.findPair(ctx, conv.Participant1ID, conv.Participant2ID)
		return existing, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return &conv, true, nil
}

func (r *PostgresConversationRepository) findPair(ctx context.Context, p1, p2 uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.WithContext(ctx).
		Where("participant1_id = ? AND participant2_id = ?", p1, p2).
		First(&conv).Error
	if err != nil {
		return nil, translate(err)
	}
	return &conv, nil
}

func (r *PostgresConversationRepository) GetConversationByID(ctx context.Context, id uint) (*models.Conversation, error) {
	var conv models.Conversation
	if err := r.db.WithContext(ctx).First(&conv, id).Error; err != nil {
		return nil, translate(err)
	}
	return &conv, nil
}

// ListForUser returns userID's threads, most recently active first. Threads
// without messages sort by creation time.
func (r *PostgresConversationRepository) ListForUser(ctx context.Context, userID uint) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := r.db.WithContext(ctx).
		Where("participant1_id = ? OR participant2_id = ?", userID, userID).
		Order("COALESCE(last_message_at, created_at) DESC").
		Order("id DESC").
		Find(&convs).Error
	return convs, err
}

// LastMessages returns the newest message of each conversation that has one.
func (r *PostgresConversationRepository) LastMessages(ctx context.Context, conversationIDs []uint) (map[uint]models.Message, error) {
	out := make(map[uint]models.Message, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return out, nil
	}
	latest := r.db.Model(&models.Message{}).
		Select("MAX(id)").
		Where("conversation_id IN ?", conversationIDs).
		Group("conversation_id")

	var msgs []models.Message
	if err := r.db.WithContext(ctx).Where("id IN (?)", latest).Find(&msgs).Error; err != nil {
		return nil, err
	}
	for _, m := range msgs {
		out[m.ConversationID] = m
	}
	return out, nil
}

// UnreadCounts counts messages sent to userID that are still unread, per conversation.
func (r *PostgresConversationRepository) UnreadCounts(ctx context.Context, userID uint, conversationIDs []uint) (map[uint]int, error) {
	out := make(map[uint]int, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		ConversationID uint
		Count          int
	}
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Select("conversation_id, COUNT(*) AS count").
		Where("conversation_id IN ? AND sender_id <> ? AND is_read = ?", conversationIDs, userID, false).
		Group("conversation_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ConversationID] = row.Count
	}
	return out, nil
}

// CreateMessage stores msg and bumps the thread's last activity in one transaction.
func (r *PostgresConversationRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return translate(err)
		}
		res := tx.Model(&models.Conversation{}).
			Where("id = ?", msg.ConversationID).
			Update("last_message_at", msg.CreatedAt)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ListMessages returns up to limit messages older than beforeID, newest
// first. A zero beforeID starts from the newest message.
func (r *PostgresConversationRepository) ListMessages(ctx context.Context, conversationID, beforeID uint, limit int) ([]models.Message, error) {
	q := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID)
	if beforeID > 0 {
		q = q.Where("id < ?", beforeID)
	}
	var msgs []models.Message
	err := q.Order("id DESC").Limit(limit).Find(&msgs).Error
	return msgs, err
}

// MarkMessagesRead marks the listed messages read when readerID received them.
func (r *PostgresConversationRepository) MarkMessagesRead(ctx context.Context, conversationID, readerID uint, messageIDs []uint) (int64, error) {
	if len(messageIDs) == 0 {
		return 0, nil
	}
	return r.markRead(r.db.WithContext(ctx).Where("id IN ?", messageIDs), conversationID, readerID)
}

// MarkConversationRead marks every message readerID received in the thread read.
func (r *PostgresConversationRepository) MarkConversationRead(ctx context.Context, conversationID, readerID uint) (int64, error) {
	return r.markRead(r.db.WithContext(ctx), conversationID, readerID)
}

func (r *PostgresConversationRepository) markRead(q *gorm.DB, conversationID, readerID uint) (int64, error) {
	res := q.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, readerID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
