package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"palchat/internal/common"
	"palchat/internal/dbmysql"
)

func setupTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
	}

	return gormDB, mock, cleanup
}

func TestMessageRepository_Append(t *testing.T) {
	tests := []struct {
		name        string
		message     *dbmysql.Message
		mockSetup   func(sqlmock.Sqlmock)
		expectError bool
	}{
		{
			name: "successful append",
			message: &dbmysql.Message{
				SenderID:   "user-a",
				ReceiverID: "user-b",
				ProductID:  "prod-1",
				Body:       "hi",
				CreatedAt:  time.Now().UTC(),
			},
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO `messages`").
					WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectCommit()
			},
			expectError: false,
		},
		{
			name: "database error",
			message: &dbmysql.Message{
				SenderID:   "user-a",
				ReceiverID: "user-b",
				ProductID:  "prod-1",
				Body:       "hi",
				CreatedAt:  time.Now().UTC(),
			},
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO `messages`").
					WillReturnError(assert.AnError)
				mock.ExpectRollback()
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := setupTestDB(t)
			defer cleanup()

			tt.mockSetup(mock)

			repo := NewMessageRepository(db)
			err := repo.Append(context.Background(), tt.message)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMessageRepository_History(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "sender_id", "receiver_id", "product_id", "body", "attachment_url", "read", "deleted", "created_at"}).
		AddRow(1, "user-a", "user-b", "prod-1", "hi", "", false, false, now.Add(-time.Minute)).
		AddRow(2, "user-b", "user-a", "prod-1", "hello", "", false, false, now)

	mock.ExpectQuery("SELECT (.+) FROM `messages`").
		WillReturnRows(rows)

	repo := NewMessageRepository(db)
	messages, err := repo.History(context.Background(), "user-a", "user-b", "prod-1")

	assert.NoError(t, err)
	assert.Len(t, messages, 2)
	// both directions of the pair land in the same room, ascending
	assert.Equal(t, "user-a", messages[0].SenderID)
	assert.Equal(t, "user-b", messages[1].SenderID)
	assert.True(t, messages[0].CreatedAt.Before(messages[1].CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_FindByID(t *testing.T) {
	t.Run("found, deleted rows included", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()

		rows := sqlmock.NewRows([]string{"id", "sender_id", "receiver_id", "product_id", "body", "deleted"}).
			AddRow(7, "user-a", "user-b", "prod-1", "hi", true)
		mock.ExpectQuery("SELECT (.+) FROM `messages`").
			WillReturnRows(rows)

		repo := NewMessageRepository(db)
		msg, err := repo.FindByID(context.Background(), 7)

		assert.NoError(t, err)
		assert.True(t, msg.Deleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing maps to ErrNotFound", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()

		mock.ExpectQuery("SELECT (.+) FROM `messages`").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		repo := NewMessageRepository(db)
		_, err := repo.FindByID(context.Background(), 99)

		assert.ErrorIs(t, err, common.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMessageRepository_MarkDeleted(t *testing.T) {
	t.Run("flips the flag", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `messages`").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		repo := NewMessageRepository(db)
		assert.NoError(t, repo.MarkDeleted(context.Background(), 7))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already deleted row affects nothing and errors", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `messages`").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		repo := NewMessageRepository(db)
		assert.ErrorIs(t, repo.MarkDeleted(context.Background(), 7), common.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMessageRepository_MarkRead(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `messages`").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	repo := NewMessageRepository(db)
	assert.NoError(t, repo.MarkRead(context.Background(), "user-a", "user-b", "prod-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_MessagesInvolving(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "sender_id", "receiver_id", "product_id", "body", "read", "deleted", "created_at"}).
		AddRow(3, "user-b", "user-a", "prod-2", "newest", false, false, now).
		AddRow(1, "user-a", "user-b", "prod-1", "oldest", true, false, now.Add(-time.Hour))

	mock.ExpectQuery("SELECT (.+) FROM `messages`").
		WillReturnRows(rows)

	repo := NewMessageRepository(db)
	messages, err := repo.MessagesInvolving(context.Background(), "user-a")

	assert.NoError(t, err)
	assert.Len(t, messages, 2)
	assert.Equal(t, uint(3), messages[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
