package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"interview-agent/internal/models"
)

// PostgresStore implements ChatStore on a lib/pq connection.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetChat(ctx context.Context, id string) (*models.Chat, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, visibility, last_context, created_at
		FROM chats WHERE id = $1`, id)

	var chat models.Chat
	var lastContext sql.NullString
	err := row.Scan(&chat.ID, &chat.UserID, &chat.Title, &chat.Visibility, &lastContext, &chat.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chat: %w", err)
	}
	if lastContext.Valid {
		chat.LastContext = json.RawMessage(lastContext.String)
	}
	return &chat, nil
}

func (s *PostgresStore) CreateChat(ctx context.Context, chat *models.Chat) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chats (id, user_id, title, visibility, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		chat.ID, chat.UserID, chat.Title, chat.Visibility, chat.CreatedAt)
	if err != nil {
		return fmt.Errorf("create chat: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteChat(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetMessages(ctx context.Context, chatID string) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chat_id, role, parts, created_at
		FROM messages WHERE chat_id = $1
		ORDER BY created_at ASC`, chatID)
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	defer rows.Close()

	var out []models.Message
	for rows.Next() {
		var m models.Message
		var parts []byte
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Role, &parts, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if err := json.Unmarshal(parts, &m.Parts); err != nil {
			return nil, fmt.Errorf("decode message parts: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SaveMessages(ctx context.Context, messages []models.Message) error {
	if len(messages) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save messages: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO messages (id, chat_id, role, parts, created_at)
		VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return fmt.Errorf("prepare save messages: %w", err)
	}
	defer stmt.Close()

	for _, m := range messages {
		parts, err := json.Marshal(m.Parts)
		if err != nil {
			return fmt.Errorf("encode message parts: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, m.ID, m.ChatID, m.Role, parts, m.CreatedAt); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
	}

	return tx.Commit()
}

func (s *PostgresStore) UpdateChatLastContext(ctx context.Context, chatID string, context []byte) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE chats SET last_context = $2 WHERE id = $1`, chatID, context)
	if err != nil {
		return fmt.Errorf("update chat last context: %w", err)
	}
	return nil
}

// GetMessageCount counts user-authored messages across the user's chats
// within the rolling window.
func (s *PostgresStore) GetMessageCount(ctx context.Context, userID string, window time.Duration) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM messages m
		JOIN chats c ON m.chat_id = c.id
		WHERE c.user_id = $1
		  AND m.role = 'user'
		  AND m.created_at >= NOW() - ($2 * INTERVAL '1 hour')`,
		userID, window.Hours()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("get message count: %w", err)
	}
	return count, nil
}
