// Package chat orchestrates one conversational turn end to end: quota
// admission, intent classification, strategy dispatch, stream merging
// and persistence.
package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	cerrors "interview-agent/internal/common/errors"
	"interview-agent/internal/common/logger"
	"interview-agent/internal/common/metrics"
	"interview-agent/internal/common/observability"
	"interview-agent/internal/intent"
	"interview-agent/internal/models"
	"interview-agent/internal/quota"
	"interview-agent/internal/store"
	"interview-agent/internal/strategy"
	"interview-agent/internal/stream"
	"interview-agent/internal/usage"
)

const (
	// streamTimeout bounds one generation run once it is detached from
	// the client connection.
	streamTimeout = 5 * time.Minute

	// streamIDTTL is how long a registered stream id stays resolvable.
	streamIDTTL = 24 * time.Hour
)

// IntentClassifier is the classification collaborator. Errors are the
// caller's to handle; the classifier never degrades silently.
type IntentClassifier interface {
	Classify(ctx context.Context, history []models.Message) (intent.Classification, error)
}

// TurnRequest is one submitted user turn.
type TurnRequest struct {
	ChatID     string
	UserID     string
	UserClass  models.UserClass
	Message    models.Message
	Visibility models.Visibility
	Hints      strategy.RequestHints
	ModelAlias string
}

type Service struct {
	gate       *quota.Gate
	chats      store.ChatStore
	counters   store.CounterStore
	classifier IntentClassifier
	registry   *strategy.Registry
	merger     *stream.Merger
	titler     TitleGenerator
	obs        *observability.Observability
	logger     logger.Logger
}

func NewService(
	gate *quota.Gate,
	chats store.ChatStore,
	counters store.CounterStore,
	classifier IntentClassifier,
	registry *strategy.Registry,
	merger *stream.Merger,
	titler TitleGenerator,
	obs *observability.Observability,
	log logger.Logger,
) *Service {
	return &Service{
		gate:       gate,
		chats:      chats,
		counters:   counters,
		classifier: classifier,
		registry:   registry,
		merger:     merger,
		titler:     titler,
		obs:        obs,
		logger:     log.With(map[string]interface{}{"component": "chat"}),
	}
}

// ProcessTurn runs the full pipeline for one turn and returns the merged
// event sequence. The returned channel is closed once the turn is fully
// settled; persistence of the transcript and usage record happens even
// if ctx is torn down mid-stream.
func (s *Service) ProcessTurn(ctx context.Context, req TurnRequest) (<-chan stream.OutputEvent, error) {
	if req.ChatID == "" || req.UserID == "" {
		return nil, cerrors.NewBadRequestError("chat id and user id are required")
	}
	if req.Message.TextContent() == "" && len(req.Message.Parts) == 0 {
		return nil, cerrors.NewBadRequestError("message must not be empty")
	}

	if err := s.gate.Admit(ctx, req.UserID, req.UserClass); err != nil {
		return nil, err
	}

	history, err := s.prepareChat(ctx, &req)
	if err != nil {
		return nil, err
	}

	// The user message is durable before any generation starts, so a
	// mid-stream crash never loses the user's side of the turn.
	userMsg := req.Message
	userMsg.ChatID = req.ChatID
	userMsg.Role = models.RoleUser
	if userMsg.ID == "" {
		userMsg.ID = uuid.NewString()
	}
	userMsg.CreatedAt = time.Now()
	if err := s.chats.SaveMessages(ctx, []models.Message{userMsg}); err != nil {
		return nil, cerrors.NewInternalError(err)
	}
	history = append(history, userMsg)

	// The stream registry is advisory; a failed registration degrades
	// resumability, not the turn.
	streamID := uuid.NewString()
	if err := s.counters.CreateStreamID(ctx, streamID, req.ChatID, streamIDTTL); err != nil {
		s.logger.Warn("stream id registration failed", map[string]interface{}{
			"chatId": req.ChatID,
			"error":  err.Error(),
		})
	}

	strat := s.selectStrategy(ctx, history)

	spanCtx, span := s.obs.StartTurnSpan(ctx, req.ChatID, strat.Name())
	started := time.Now()

	// Generation survives client disconnects; only the stream timeout
	// bounds it once detached.
	genCtx, cancel := context.WithTimeout(context.WithoutCancel(spanCtx), streamTimeout)

	turn := strategy.Turn{
		ChatID:     req.ChatID,
		UserID:     req.UserID,
		Messages:   history,
		Hints:      req.Hints,
		ModelAlias: req.ModelAlias,
	}
	result := strat.Run(genCtx, turn)

	onFinish := func(parts []models.Part, summary usage.Summary, streamErr error) {
		defer cancel()
		defer span.End()

		s.persistTurn(req.ChatID, parts, summary)

		elapsed := time.Since(started)
		metrics.TurnDuration.WithLabelValues(strat.Name()).Observe(elapsed.Seconds())
		s.obs.RecordTurnDuration(spanCtx, elapsed, strat.Name())
		if streamErr != nil {
			code := cerrors.AsChatError(streamErr).Code
			metrics.TurnsFailed.WithLabelValues(strat.Name(), string(code)).Inc()
			s.obs.RecordTurnProcessed(spanCtx, strat.Name(), "failed")
			return
		}
		metrics.TurnsCompleted.WithLabelValues(strat.Name()).Inc()
		s.obs.RecordTurnProcessed(spanCtx, strat.Name(), "completed")
	}

	return s.merger.Merge(ctx, result, strat.Model(turn), onFinish), nil
}

// prepareChat loads or creates the chat, enforces ownership and returns
// the existing history.
func (s *Service) prepareChat(ctx context.Context, req *TurnRequest) ([]models.Message, error) {
	chat, err := s.chats.GetChat(ctx, req.ChatID)
	if err != nil {
		return nil, cerrors.NewInternalError(err)
	}

	if chat == nil {
		visibility := req.Visibility
		if visibility == "" {
			visibility = models.VisibilityPrivate
		}
		title := s.titler.GenerateTitle(ctx, req.Message)
		if err := s.chats.CreateChat(ctx, &models.Chat{
			ID:         req.ChatID,
			UserID:     req.UserID,
			Title:      title,
			Visibility: visibility,
		}); err != nil {
			return nil, cerrors.NewInternalError(err)
		}
		return nil, nil
	}

	if chat.UserID != req.UserID {
		return nil, cerrors.NewForbiddenError("chat belongs to another user")
	}

	history, err := s.chats.GetMessages(ctx, req.ChatID)
	if err != nil {
		return nil, cerrors.NewInternalError(err)
	}
	return history, nil
}

// selectStrategy classifies the turn and resolves the strategy. A failed
// classification routes to the default strategy; it is never mapped to
// the "others" label.
func (s *Service) selectStrategy(ctx context.Context, history []models.Message) strategy.Strategy {
	cls, err := s.classifier.Classify(ctx, history)
	if err != nil {
		metrics.ClassifierFailures.Inc()
		s.logger.Warn("classification failed, using default strategy", map[string]interface{}{
			"error": err.Error(),
		})
		return s.registry.Default()
	}
	s.logger.Debug("turn classified", map[string]interface{}{
		"intent":     string(cls.Intent),
		"confidence": cls.Confidence,
	})
	return s.registry.Dispatch(cls.Intent)
}

// persistTurn writes the assistant message and the chat's last usage
// context. Failures here degrade durability only and are logged, never
// surfaced to the stream.
func (s *Service) persistTurn(chatID string, parts []models.Part, summary usage.Summary) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if len(parts) > 0 {
		msg := models.Message{
			ID:        uuid.NewString(),
			ChatID:    chatID,
			Role:      models.RoleAssistant,
			Parts:     parts,
			CreatedAt: time.Now(),
		}
		if err := s.chats.SaveMessages(ctx, []models.Message{msg}); err != nil {
			chatErr := cerrors.NewPersistenceDegradedError("save assistant message", err)
			s.logger.Error("assistant message not persisted", map[string]interface{}{
				"chatId": chatID,
				"error":  chatErr.Error(),
			})
		}
	}

	lastContext, err := json.Marshal(summary)
	if err == nil {
		err = s.chats.UpdateChatLastContext(ctx, chatID, lastContext)
	}
	if err != nil {
		chatErr := cerrors.NewPersistenceDegradedError("update last context", err)
		s.logger.Error("usage context not persisted", map[string]interface{}{
			"chatId": chatID,
			"error":  chatErr.Error(),
		})
	}
}

// Usage reports the caller's API-call quota state.
func (s *Service) Usage(ctx context.Context, userID string, class models.UserClass) (models.APICallsUsage, error) {
	return s.gate.Usage(ctx, userID, class)
}

// DeleteChat removes a chat and its messages after an ownership check.
func (s *Service) DeleteChat(ctx context.Context, chatID, userID string) error {
	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return cerrors.NewInternalError(err)
	}
	if chat == nil {
		return cerrors.NewNotFoundError(chatID)
	}
	if chat.UserID != userID {
		return cerrors.NewForbiddenError("chat belongs to another user")
	}
	if err := s.chats.DeleteChat(ctx, chatID); err != nil {
		return cerrors.NewInternalError(err)
	}
	return nil
}
