// Package strategy holds the generation strategies the router dispatches
// to, one per classified intent.
package strategy

import (
	"context"

	"interview-agent/internal/genai"
	"interview-agent/internal/intent"
	"interview-agent/internal/models"
)

// RequestHints are opaque request-scoped hints forwarded into a strategy's
// system prompt. Geolocation lookup happens outside the pipeline.
type RequestHints struct {
	City      string
	Country   string
	Latitude  string
	Longitude string
}

// Turn is the per-request context a strategy generates against.
// ModelAlias is the caller's requested model; only strategies that allow
// model selection honor it.
type Turn struct {
	ChatID     string
	UserID     string
	Messages   []models.Message
	Hints      RequestHints
	ModelAlias string
}

// Strategy is a self-contained generation policy: its own system prompt,
// tool set and budgets. Run returns a cancellable handle over the
// generation stream; the router treats everything behind it as a black
// box. Model reports the concrete model id a turn will run on.
type Strategy interface {
	Name() string
	Model(turn Turn) string
	Run(ctx context.Context, turn Turn) *genai.StreamResult
}

// Registry maps an intent label to its strategy. Exactly one strategy
// runs per turn; there is no fallback chaining.
type Registry struct {
	defaultStrategy Strategy
	byIntent        map[intent.Intent]Strategy
}

func NewRegistry(def, resumeOpt, mockInterview Strategy) *Registry {
	return &Registry{
		defaultStrategy: def,
		byIntent: map[intent.Intent]Strategy{
			intent.IntentResumeOpt:     resumeOpt,
			intent.IntentMockInterview: mockInterview,
			intent.IntentRelatedTopics: def,
			intent.IntentOthers:        def,
		},
	}
}

// Dispatch selects the strategy for an intent. Unknown labels route to
// the default strategy so a new classifier enum value cannot strand a
// turn.
func (r *Registry) Dispatch(label intent.Intent) Strategy {
	if s, ok := r.byIntent[label]; ok {
		return s
	}
	return r.defaultStrategy
}

// Default returns the default strategy, used as the documented fallback
// when classification itself fails.
func (r *Registry) Default() Strategy {
	return r.defaultStrategy
}
