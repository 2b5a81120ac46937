package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"palchat/internal/common"
	"palchat/internal/dbmysql"
)

//go:generate mockgen -source=message_repository.go -destination=../service/mocks/mock_repository.go -package=mocks

// MessageRepository is the durable message log. Soft-deleted rows stay in
// the table but are excluded from History and MessagesInvolving.
type MessageRepository interface {
	Append(ctx context.Context, msg *dbmysql.Message) error
	History(ctx context.Context, userA, userB, productID string) ([]*dbmysql.Message, error)
	FindByID(ctx context.Context, id uint) (*dbmysql.Message, error)
	MarkDeleted(ctx context.Context, id uint) error
	MarkRead(ctx context.Context, readerID, otherID, productID string) error
	MessagesInvolving(ctx context.Context, userID string) ([]*dbmysql.Message, error)
}

type messageRepo struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepo{db: db}
}

func (r *messageRepo) Append(ctx context.Context, msg *dbmysql.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// History returns the full room history ascending. Both sender/receiver
// orderings of the pair belong to the same room.
func (r *messageRepo) History(ctx context.Context, userA, userB, productID string) ([]*dbmysql.Message, error) {
	var messages []*dbmysql.Message
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND deleted = ?", productID, false).
		Where(
			r.db.Where("sender_id = ? AND receiver_id = ?", userA, userB).
				Or("sender_id = ? AND receiver_id = ?", userB, userA),
		).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// FindByID does not filter on the deleted flag so callers can distinguish
// "already deleted" from "never existed".
func (r *messageRepo) FindByID(ctx context.Context, id uint) (*dbmysql.Message, error) {
	var msg dbmysql.Message
	err := r.db.WithContext(ctx).First(&msg, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepo) MarkDeleted(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&dbmysql.Message{}).
		Where("id = ? AND deleted = ?", id, false).
		Update("deleted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound
	}
	return nil
}

// MarkRead flips the read flag on every unread message addressed to
// readerID within the room.
func (r *messageRepo) MarkRead(ctx context.Context, readerID, otherID, productID string) error {
	return r.db.WithContext(ctx).Model(&dbmysql.Message{}).
		Where("receiver_id = ? AND sender_id = ? AND product_id = ? AND `read` = ? AND deleted = ?",
			readerID, otherID, productID, false, false).
		Update("read", true).Error
}

// MessagesInvolving feeds the inbox reduce: every non-deleted message where
// the user is on either end, newest first so the reduce can keep the first
// message it sees per room.
func (r *messageRepo) MessagesInvolving(ctx context.Context, userID string) ([]*dbmysql.Message, error) {
	var messages []*dbmysql.Message
	err := r.db.WithContext(ctx).
		Where("deleted = ?", false).
		Where(
			r.db.Where("sender_id = ?", userID).Or("receiver_id = ?", userID),
		).
		Order("created_at DESC, id DESC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}
