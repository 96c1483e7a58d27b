// Package quota implements the admission gate run before any generation
// work begins.
package quota

import (
	"context"
	"fmt"
	"time"

	"interview-agent/internal/common/config"
	cerrors "interview-agent/internal/common/errors"
	"interview-agent/internal/common/logger"
	"interview-agent/internal/common/metrics"
	"interview-agent/internal/models"
	"interview-agent/internal/store"
)

// Window is the rolling lookback used for all quota counters.
const Window = 24 * time.Hour

// Gate decides admit/reject for one turn against the externally owned
// counters. A single synchronous decision per turn; no retries.
type Gate struct {
	counters     store.CounterStore
	chats        store.ChatStore
	entitlements map[string]config.Entitlements
	logger       logger.Logger
}

func NewGate(counters store.CounterStore, chats store.ChatStore, ents map[string]config.Entitlements, log logger.Logger) *Gate {
	return &Gate{
		counters:     counters,
		chats:        chats,
		entitlements: ents,
		logger:       log.With(map[string]interface{}{"component": "quota"}),
	}
}

// Entitlement returns the configuration for a user class; unknown classes
// fall back to guest limits.
func (g *Gate) Entitlement(class models.UserClass) config.Entitlements {
	if ent, ok := g.entitlements[string(class)]; ok {
		return ent
	}
	return g.entitlements[string(models.UserClassGuest)]
}

// Admit runs the two-phase admission check. On acceptance of the API-call
// check it records one API-call unit immediately; the message-count check
// then runs with the charge already spent, so a message-count rejection
// still consumes quota for the turn.
func (g *Gate) Admit(ctx context.Context, userID string, class models.UserClass) error {
	ent := g.Entitlement(class)

	apiCalls, err := g.counters.GetAPICallCount(ctx, userID, Window)
	if err != nil {
		return cerrors.NewInternalError(err)
	}
	if apiCalls >= ent.MaxChatAPICallsPerDay {
		metrics.QuotaRejections.WithLabelValues("api_calls").Inc()
		g.logger.Info("turn rejected by api-call limit", map[string]interface{}{
			"userId": userID,
			"used":   apiCalls,
			"limit":  ent.MaxChatAPICallsPerDay,
		})
		return cerrors.NewAPICallLimitError(g.limitMessage(class, ent), ent.MaxChatAPICallsPerDay)
	}

	if err := g.counters.RecordAPICall(ctx, userID, Window); err != nil {
		return cerrors.NewInternalError(err)
	}

	messageCount, err := g.chats.GetMessageCount(ctx, userID, Window)
	if err != nil {
		return cerrors.NewInternalError(err)
	}
	if messageCount >= ent.MaxMessagesPerDay {
		metrics.QuotaRejections.WithLabelValues("messages").Inc()
		g.logger.Info("turn rejected by message limit", map[string]interface{}{
			"userId": userID,
			"used":   messageCount,
			"limit":  ent.MaxMessagesPerDay,
		})
		return cerrors.NewMessageLimitError(ent.MaxMessagesPerDay)
	}

	return nil
}

// Usage reports the API-call quota state for the companion read endpoint.
func (g *Gate) Usage(ctx context.Context, userID string, class models.UserClass) (models.APICallsUsage, error) {
	used, err := g.counters.GetAPICallCount(ctx, userID, Window)
	if err != nil {
		return models.APICallsUsage{}, cerrors.NewInternalError(err)
	}
	return models.APICallsUsage{
		Used:      used,
		Max:       g.Entitlement(class).MaxChatAPICallsPerDay,
		UserClass: class,
	}, nil
}

// limitMessage builds the caller-visible rejection text. Guests also see
// the higher limit available to registered users.
func (g *Gate) limitMessage(class models.UserClass, ent config.Entitlements) string {
	if class == models.UserClassGuest {
		regular := g.entitlements[string(models.UserClassRegular)]
		return fmt.Sprintf(
			"You have used up today's chat requests (%d/day). Please try again tomorrow, or register an account for a higher limit (%d/day).",
			ent.MaxChatAPICallsPerDay, regular.MaxChatAPICallsPerDay)
	}
	return fmt.Sprintf(
		"You have used up today's chat requests (%d/day). Please try again tomorrow.",
		ent.MaxChatAPICallsPerDay)
}
