// internal/store/postgres_test.go
package store

import (
	"context"
	"testing"
	"time"

	"interview-agent/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db), mock
}

func TestGetChat_Found(t *testing.T) {
	store, mock := newPostgresStore(t)
	created := time.Now()

	mock.ExpectQuery("SELECT id, user_id, title, visibility, last_context, created_at").
		WithArgs("chat-1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "user_id", "title", "visibility", "last_context", "created_at"}).
			AddRow("chat-1", "user-1", "Resume help", "private", `{"totalTokens":42}`, created))

	chat, err := store.GetChat(context.Background(), "chat-1")

	require.NoError(t, err)
	require.NotNil(t, chat)
	assert.Equal(t, "user-1", chat.UserID)
	assert.Equal(t, models.VisibilityPrivate, chat.Visibility)
	assert.JSONEq(t, `{"totalTokens":42}`, string(chat.LastContext))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetChat_NotFoundIsNilNotError(t *testing.T) {
	store, mock := newPostgresStore(t)

	mock.ExpectQuery("SELECT id, user_id, title, visibility, last_context, created_at").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "user_id", "title", "visibility", "last_context", "created_at"}))

	chat, err := store.GetChat(context.Background(), "missing")

	require.NoError(t, err)
	assert.Nil(t, chat)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveMessages_RunsInOneTransaction(t *testing.T) {
	store, mock := newPostgresStore(t)
	now := time.Now()

	messages := []models.Message{
		{
			ID:     "msg-1",
			ChatID: "chat-1",
			Role:   models.RoleUser,
			Parts:  []models.Part{{Type: models.PartText, Text: "review my resume"}},
		},
		{
			ID:     "msg-2",
			ChatID: "chat-1",
			Role:   models.RoleAssistant,
			Parts:  []models.Part{{Type: models.PartText, Text: "sure"}},
		},
	}
	messages[0].CreatedAt = now
	messages[1].CreatedAt = now

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO messages")
	prep.ExpectExec().
		WithArgs("msg-1", "chat-1", "user", sqlmock.AnyArg(), now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs("msg-2", "chat-1", "assistant", sqlmock.AnyArg(), now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.SaveMessages(context.Background(), messages))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveMessages_EmptyIsNoOp(t *testing.T) {
	store, mock := newPostgresStore(t)

	require.NoError(t, store.SaveMessages(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMessages_DecodesParts(t *testing.T) {
	store, mock := newPostgresStore(t)
	created := time.Now()

	mock.ExpectQuery("SELECT id, chat_id, role, parts, created_at").
		WithArgs("chat-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "chat_id", "role", "parts", "created_at"}).
			AddRow("msg-1", "chat-1", "user",
				`[{"type":"text","text":"hello"}]`, created))

	messages, err := store.GetMessages(context.Background(), "chat-1")

	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, models.RoleUser, messages[0].Role)
	require.Len(t, messages[0].Parts, 1)
	assert.Equal(t, "hello", messages[0].Parts[0].Text)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMessageCount_QueriesRollingWindow(t *testing.T) {
	store, mock := newPostgresStore(t)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("user-1", float64(24)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(17))

	count, err := store.GetMessageCount(context.Background(), "user-1", 24*time.Hour)

	require.NoError(t, err)
	assert.Equal(t, 17, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateChatLastContext(t *testing.T) {
	store, mock := newPostgresStore(t)

	mock.ExpectExec("UPDATE chats SET last_context").
		WithArgs("chat-1", []byte(`{"totalTokens":99}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.UpdateChatLastContext(context.Background(), "chat-1", []byte(`{"totalTokens":99}`))

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
