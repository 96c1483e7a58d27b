// Package store implements the persistence collaborator: chats and
// messages in Postgres, rolling-window quota counters and the stream
// registry in Redis.
package store

import (
	"context"
	"time"

	"interview-agent/internal/models"
)

// ChatStore is the chat/message persistence surface consumed by the
// pipeline.
type ChatStore interface {
	GetChat(ctx context.Context, id string) (*models.Chat, error)
	CreateChat(ctx context.Context, chat *models.Chat) error
	DeleteChat(ctx context.Context, id string) error
	GetMessages(ctx context.Context, chatID string) ([]models.Message, error)
	SaveMessages(ctx context.Context, messages []models.Message) error
	UpdateChatLastContext(ctx context.Context, chatID string, context []byte) error
	GetMessageCount(ctx context.Context, userID string, window time.Duration) (int, error)
}

// CounterStore tracks per-user API-call units over a rolling window and
// registers stream ids.
type CounterStore interface {
	GetAPICallCount(ctx context.Context, userID string, window time.Duration) (int, error)
	RecordAPICall(ctx context.Context, userID string, window time.Duration) error
	CreateStreamID(ctx context.Context, streamID, chatID string, ttl time.Duration) error
}
