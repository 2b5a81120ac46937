package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"palchat/internal/chat/service/mocks"
	"palchat/internal/common"
	"palchat/internal/dbmysql"
)

func TestChatService_SendMessage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockMessageRepository(ctrl)
	svc := NewChatService(mockRepo)

	tests := []struct {
		name        string
		senderID    string
		req         SendRequest
		mockSetup   func()
		expectError error
	}{
		{
			name:     "successful text send",
			senderID: "user-a",
			req:      SendRequest{ReceiverID: "user-b", ProductID: "prod-1", Body: "hi"},
			mockSetup: func() {
				mockRepo.EXPECT().
					Append(gomock.Any(), gomock.Any()).
					DoAndReturn(func(ctx context.Context, msg *dbmysql.Message) error {
						assert.Equal(t, "user-a", msg.SenderID)
						assert.Equal(t, "user-b", msg.ReceiverID)
						assert.WithinDuration(t, time.Now().UTC(), msg.CreatedAt, time.Second)
						return nil
					}).
					Times(1)
			},
		},
		{
			name:     "image-only send is valid",
			senderID: "user-a",
			req:      SendRequest{ReceiverID: "user-b", ProductID: "prod-1", AttachmentURL: "/media/abc"},
			mockSetup: func() {
				mockRepo.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil).Times(1)
			},
		},
		{
			name:        "unbound sender",
			senderID:    "",
			req:         SendRequest{ReceiverID: "user-b", ProductID: "prod-1", Body: "hi"},
			mockSetup:   func() {},
			expectError: common.ErrAuth,
		},
		{
			name:        "empty receiver",
			senderID:    "user-a",
			req:         SendRequest{ProductID: "prod-1", Body: "hi"},
			mockSetup:   func() {},
			expectError: common.ErrValidation,
		},
		{
			name:        "empty product",
			senderID:    "user-a",
			req:         SendRequest{ReceiverID: "user-b", Body: "hi"},
			mockSetup:   func() {},
			expectError: common.ErrValidation,
		},
		{
			name:        "no body and no attachment",
			senderID:    "user-a",
			req:         SendRequest{ReceiverID: "user-b", ProductID: "prod-1", Body: "   "},
			mockSetup:   func() {},
			expectError: common.ErrValidation,
		},
		{
			name:     "repository append error",
			senderID: "user-a",
			req:      SendRequest{ReceiverID: "user-b", ProductID: "prod-1", Body: "hi"},
			mockSetup: func() {
				mockRepo.EXPECT().
					Append(gomock.Any(), gomock.Any()).
					Return(errors.New("database connection failed")).
					Times(1)
			},
			expectError: errors.New("database connection failed"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			msg, err := svc.SendMessage(context.Background(), tt.senderID, tt.req)

			if tt.expectError != nil {
				assert.Error(t, err)
				assert.Nil(t, msg)
				if errors.Is(tt.expectError, common.ErrAuth) || errors.Is(tt.expectError, common.ErrValidation) {
					assert.ErrorIs(t, err, tt.expectError)
				}
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, msg)
			}
		})
	}
}

func TestChatService_History(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockMessageRepository(ctrl)
	svc := NewChatService(mockRepo)

	now := time.Now().UTC()
	stored := []*dbmysql.Message{
		{ID: 1, SenderID: "user-a", ReceiverID: "user-b", ProductID: "prod-1", Body: "hi", CreatedAt: now.Add(-2 * time.Minute)},
		{ID: 2, SenderID: "user-b", ReceiverID: "user-a", ProductID: "prod-1", Body: "hello", CreatedAt: now.Add(-time.Minute)},
	}

	mockRepo.EXPECT().
		History(gomock.Any(), "user-a", "user-b", "prod-1").
		Return(stored, nil).
		Times(2)

	// fetching twice without new sends returns identical sequences
	first, err := svc.History(context.Background(), "user-a", "user-b", "prod-1")
	assert.NoError(t, err)
	second, err := svc.History(context.Background(), "user-a", "user-b", "prod-1")
	assert.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first, 2)
	assert.True(t, first[0].CreatedAt.Before(first[1].CreatedAt))

	_, err = svc.History(context.Background(), "", "user-b", "prod-1")
	assert.ErrorIs(t, err, common.ErrAuth)

	_, err = svc.History(context.Background(), "user-a", "", "prod-1")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestChatService_DeleteMessage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockMessageRepository(ctrl)
	svc := NewChatService(mockRepo)

	tests := []struct {
		name        string
		requesterID string
		messageID   uint
		mockSetup   func()
		expectError error
	}{
		{
			name:        "sender deletes own message",
			requesterID: "user-a",
			messageID:   7,
			mockSetup: func() {
				mockRepo.EXPECT().FindByID(gomock.Any(), uint(7)).
					Return(&dbmysql.Message{ID: 7, SenderID: "user-a"}, nil)
				mockRepo.EXPECT().MarkDeleted(gomock.Any(), uint(7)).Return(nil)
			},
		},
		{
			name:        "non-sender delete fails with auth error",
			requesterID: "user-b",
			messageID:   7,
			mockSetup: func() {
				mockRepo.EXPECT().FindByID(gomock.Any(), uint(7)).
					Return(&dbmysql.Message{ID: 7, SenderID: "user-a"}, nil)
			},
			expectError: common.ErrAuth,
		},
		{
			name:        "missing message",
			requesterID: "user-a",
			messageID:   99,
			mockSetup: func() {
				mockRepo.EXPECT().FindByID(gomock.Any(), uint(99)).
					Return(nil, common.ErrNotFound)
			},
			expectError: common.ErrNotFound,
		},
		{
			name:        "second delete fails, not silent success",
			requesterID: "user-a",
			messageID:   7,
			mockSetup: func() {
				mockRepo.EXPECT().FindByID(gomock.Any(), uint(7)).
					Return(&dbmysql.Message{ID: 7, SenderID: "user-a", Deleted: true}, nil)
			},
			expectError: common.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			err := svc.DeleteMessage(context.Background(), tt.requesterID, tt.messageID)

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestChatService_ListRooms(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockMessageRepository(ctrl)
	svc := NewChatService(mockRepo)

	now := time.Now().UTC()
	// newest first, the repository's order
	involving := []*dbmysql.Message{
		{ID: 6, SenderID: "user-b", ReceiverID: "user-a", ProductID: "prod-2", Body: "newest p2", CreatedAt: now},
		{ID: 5, SenderID: "user-a", ReceiverID: "user-b", ProductID: "prod-2", Body: "older p2", CreatedAt: now.Add(-time.Minute)},
		{ID: 4, SenderID: "user-b", ReceiverID: "user-a", ProductID: "prod-1", Body: "newest p1", CreatedAt: now.Add(-2 * time.Minute)},
		{ID: 3, SenderID: "user-b", ReceiverID: "user-a", ProductID: "prod-1", Body: "older p1", CreatedAt: now.Add(-3 * time.Minute)},
		{ID: 2, SenderID: "user-c", ReceiverID: "user-a", ProductID: "prod-3", Body: "from carol", Read: true, CreatedAt: now.Add(-4 * time.Minute)},
	}

	mockRepo.EXPECT().
		MessagesInvolving(gomock.Any(), "user-a").
		Return(involving, nil)

	entries, err := svc.ListRooms(context.Background(), "user-a")
	assert.NoError(t, err)
	assert.Len(t, entries, 3)

	// descending by last message recency
	assert.Equal(t, "prod-2", entries[0].ProductID)
	assert.Equal(t, "user-b", entries[0].OtherUserID)
	assert.Equal(t, "newest p2", entries[0].LastMessage.Body)
	assert.Equal(t, "prod-1", entries[1].ProductID)
	assert.Equal(t, "newest p1", entries[1].LastMessage.Body)
	assert.Equal(t, "prod-3", entries[2].ProductID)
	assert.Equal(t, "user-c", entries[2].OtherUserID)

	// unread counts only count the counterpart's unread messages
	assert.Equal(t, 1, entries[0].Unread) // ID 6 unread, ID 5 is ours
	assert.Equal(t, 2, entries[1].Unread) // IDs 3 and 4
	assert.Equal(t, 0, entries[2].Unread) // already read
}

func TestChatService_ListRooms_TieBreakOnEqualTimestamps(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockMessageRepository(ctrl)
	svc := NewChatService(mockRepo)

	now := time.Now().UTC()
	involving := []*dbmysql.Message{
		{ID: 11, SenderID: "user-b", ReceiverID: "user-a", ProductID: "prod-1", Body: "same instant, higher id", CreatedAt: now},
		{ID: 10, SenderID: "user-c", ReceiverID: "user-a", ProductID: "prod-2", Body: "same instant, lower id", CreatedAt: now},
	}

	mockRepo.EXPECT().
		MessagesInvolving(gomock.Any(), "user-a").
		Return(involving, nil)

	entries, err := svc.ListRooms(context.Background(), "user-a")
	assert.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, uint(11), entries[0].LastMessage.ID)
	assert.Equal(t, uint(10), entries[1].LastMessage.ID)
}

func TestChatService_ListRooms_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockMessageRepository(ctrl)
	svc := NewChatService(mockRepo)

	mockRepo.EXPECT().
		MessagesInvolving(gomock.Any(), "user-a").
		Return(nil, nil)

	entries, err := svc.ListRooms(context.Background(), "user-a")
	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestChatService_MarkRead(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockMessageRepository(ctrl)
	svc := NewChatService(mockRepo)

	mockRepo.EXPECT().
		MarkRead(gomock.Any(), "user-a", "user-b", "prod-1").
		Return(nil)

	assert.NoError(t, svc.MarkRead(context.Background(), "user-a", "user-b", "prod-1"))
	assert.ErrorIs(t, svc.MarkRead(context.Background(), "", "user-b", "prod-1"), common.ErrAuth)
	assert.ErrorIs(t, svc.MarkRead(context.Background(), "user-a", "", "prod-1"), common.ErrValidation)
}
