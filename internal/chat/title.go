package chat

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"interview-agent/internal/common/logger"
	"interview-agent/internal/models"
)

const titleSystemPrompt = `You will generate a short title based on the first message a user begins a conversation with.
Ensure it is not more than 80 characters long.
The title should be a summary of the user's message.
Do not use quotes or colons.`

const (
	titleMaxOutputTokens = 64
	titleMaxLength       = 80
	titleTimeout         = 10 * time.Second
)

// Completer is the plain-text generation capability the titler consumes.
type Completer interface {
	Complete(ctx context.Context, model, system, prompt string, maxTokens int) (string, error)
}

// TitleGenerator names a new chat from its opening message.
type TitleGenerator interface {
	GenerateTitle(ctx context.Context, first models.Message) string
}

type Titler struct {
	backend Completer
	model   string
	logger  logger.Logger
}

func NewTitler(backend Completer, model string, log logger.Logger) *Titler {
	return &Titler{
		backend: backend,
		model:   model,
		logger:  log.With(map[string]interface{}{"component": "titler"}),
	}
}

// GenerateTitle asks the title model for a summary of the opening
// message. Any failure falls back to a truncation of the message text so
// chat creation never blocks on a title.
func (t *Titler) GenerateTitle(ctx context.Context, first models.Message) string {
	text := strings.TrimSpace(first.TextContent())
	if text == "" {
		text = "New chat"
	}

	ctx, cancel := context.WithTimeout(ctx, titleTimeout)
	defer cancel()

	title, err := t.backend.Complete(ctx, t.model, titleSystemPrompt, text, titleMaxOutputTokens)
	if err != nil {
		t.logger.Warn("title generation failed, falling back to message text", map[string]interface{}{
			"error": err.Error(),
		})
		return truncateTitle(text)
	}
	title = strings.Trim(strings.TrimSpace(title), `"'`)
	if title == "" {
		return truncateTitle(text)
	}
	return truncateTitle(title)
}

func truncateTitle(s string) string {
	if utf8.RuneCountInString(s) <= titleMaxLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:titleMaxLength])
}
