package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/redchat/redchat/internal/domain"
	"github.com/redchat/redchat/internal/infra/database/models"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create appends one message. SentAt is assigned by the database and read
// back on insert; stored rows are never mutated or deleted.
func (r *MessageRepository) Create(ctx context.Context, message domain.Message) (domain.Message, error) {
	record := models.Message{
		ID:         message.ID,
		SenderID:   message.SenderID,
		ReceiverID: message.ReceiverID,
		Envelope:   message.Envelope,
	}

	err := r.db.WithContext(ctx).Create(&record).Error
	if err != nil {
		return domain.Message{}, err
	}
	return toDomainMessage(record), nil
}

// GetBetween returns every message exchanged between the two users in
// either direction, ascending by SentAt.
func (r *MessageRepository) GetBetween(ctx context.Context, userID, otherID string) ([]domain.Message, error) {
	var records []models.Message
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, otherID, otherID, userID).
		Order("sent_at asc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(records))
	for _, record := range records {
		messages = append(messages, toDomainMessage(record))
	}
	return messages, nil
}

func toDomainMessage(record models.Message) domain.Message {
	return domain.Message{
		ID:         record.ID,
		SenderID:   record.SenderID,
		ReceiverID: record.ReceiverID,
		Envelope:   record.Envelope,
		SentAt:     record.SentAt,
	}
}
