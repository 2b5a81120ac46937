package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"palchat/internal/chat"
	"palchat/internal/chat/repository"
	"palchat/internal/common"
	"palchat/internal/dbmysql"
)

//go:generate mockgen -source=chat_service.go -destination=../handler/mocks/mock_service.go -package=mocks

// SendRequest is the payload of one send intent. SenderID never appears
// here: it always comes from the caller's bound identity.
type SendRequest struct {
	ReceiverID    string
	ProductID     string
	Body          string
	AttachmentURL string
}

// InboxEntry is one row of the chat list: the latest message exchanged with
// one counterpart about one product, plus how many of their messages the
// requesting user has not read yet.
type InboxEntry struct {
	OtherUserID string           `json:"otherUserId"`
	ProductID   string           `json:"productId"`
	LastMessage *dbmysql.Message `json:"lastMessage"`
	Unread      int              `json:"unread"`
}

// ChatService defines the interface exposed to the handler layer
type ChatService interface {
	SendMessage(ctx context.Context, senderID string, req SendRequest) (*dbmysql.Message, error)
	History(ctx context.Context, callerID, otherID, productID string) ([]*dbmysql.Message, error)
	DeleteMessage(ctx context.Context, requesterID string, messageID uint) error
	ListRooms(ctx context.Context, userID string) ([]InboxEntry, error)
	MarkRead(ctx context.Context, readerID, otherID, productID string) error
}

type chatService struct {
	repo repository.MessageRepository
}

// Constructor used in DI/wire
func NewChatService(r repository.MessageRepository) ChatService {
	return &chatService{repo: r}
}

// SendMessage validates the payload, stamps the server-side timestamp and
// appends to the store. The message is only handed back once the write is
// durable; fan-out happens strictly after that.
func (s *chatService) SendMessage(ctx context.Context, senderID string, req SendRequest) (*dbmysql.Message, error) {
	if senderID == "" {
		return nil, fmt.Errorf("sender identity not bound: %w", common.ErrAuth)
	}
	if req.ReceiverID == "" {
		return nil, fmt.Errorf("receiver ID cannot be empty: %w", common.ErrValidation)
	}
	if req.ProductID == "" {
		return nil, fmt.Errorf("product ID cannot be empty: %w", common.ErrValidation)
	}
	if strings.TrimSpace(req.Body) == "" && req.AttachmentURL == "" {
		return nil, fmt.Errorf("message needs text or an image: %w", common.ErrValidation)
	}

	msg := &dbmysql.Message{
		SenderID:      senderID,
		ReceiverID:    req.ReceiverID,
		ProductID:     req.ProductID,
		Body:          req.Body,
		AttachmentURL: req.AttachmentURL,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.repo.Append(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// History returns the full room history, ascending by creation time. The
// full default (no pagination) is what makes reconnect backfill gapless.
func (s *chatService) History(ctx context.Context, callerID, otherID, productID string) ([]*dbmysql.Message, error) {
	if callerID == "" {
		return nil, fmt.Errorf("caller identity not bound: %w", common.ErrAuth)
	}
	if otherID == "" || productID == "" {
		return nil, fmt.Errorf("other user and product are required: %w", common.ErrValidation)
	}
	return s.repo.History(ctx, callerID, otherID, productID)
}

// DeleteMessage soft-deletes a message. Only the original sender may delete,
// and deleting twice fails with not-found rather than silently succeeding.
func (s *chatService) DeleteMessage(ctx context.Context, requesterID string, messageID uint) error {
	msg, err := s.repo.FindByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.Deleted {
		return fmt.Errorf("message %d already deleted: %w", messageID, common.ErrNotFound)
	}
	if msg.SenderID != requesterID {
		return fmt.Errorf("only the sender can delete a message: %w", common.ErrAuth)
	}
	return s.repo.MarkDeleted(ctx, messageID)
}

// ListRooms reduces every message involving the user down to one entry per
// (counterpart, product) pair, keeping the newest message and counting the
// counterpart's unread ones. Entries come back newest-first; equal
// timestamps break on id descending so ordering stays deterministic under
// concurrent writes.
func (s *chatService) ListRooms(ctx context.Context, userID string) ([]InboxEntry, error) {
	if userID == "" {
		return nil, fmt.Errorf("caller identity not bound: %w", common.ErrAuth)
	}

	messages, err := s.repo.MessagesInvolving(ctx, userID)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		entry InboxEntry
	}
	buckets := make(map[string]*bucket)
	order := make([]string, 0)

	for _, msg := range messages {
		other := msg.SenderID
		if other == userID {
			other = msg.ReceiverID
		}
		key := chat.RoomKey(userID, other, msg.ProductID)

		b, ok := buckets[key]
		if !ok {
			// messages arrive newest-first, so the first one per room
			// is that room's last message
			b = &bucket{entry: InboxEntry{
				OtherUserID: other,
				ProductID:   msg.ProductID,
				LastMessage: msg,
			}}
			buckets[key] = b
			order = append(order, key)
		}
		if msg.ReceiverID == userID && !msg.Read {
			b.entry.Unread++
		}
	}

	entries := make([]InboxEntry, 0, len(order))
	for _, key := range order {
		entries = append(entries, buckets[key].entry)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].LastMessage, entries[j].LastMessage
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID > b.ID
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return entries, nil
}

// MarkRead clears the unread state of the room from the reader's side.
func (s *chatService) MarkRead(ctx context.Context, readerID, otherID, productID string) error {
	if readerID == "" {
		return fmt.Errorf("caller identity not bound: %w", common.ErrAuth)
	}
	if otherID == "" || productID == "" {
		return fmt.Errorf("other user and product are required: %w", common.ErrValidation)
	}
	return s.repo.MarkRead(ctx, readerID, otherID, productID)
}
