// internal/strategy/strategy_test.go
package strategy

import (
	"context"
	"testing"

	"interview-agent/internal/common/config"
	"interview-agent/internal/genai"
	"interview-agent/internal/intent"

	"github.com/stretchr/testify/assert"
)

type namedStrategy struct {
	name string
}

func (s *namedStrategy) Name() string      { return s.name }
func (s *namedStrategy) Model(Turn) string { return "test-model" }
func (s *namedStrategy) Run(ctx context.Context, turn Turn) *genai.StreamResult {
	return nil
}

func TestRegistry_Dispatch(t *testing.T) {
	def := &namedStrategy{name: "default"}
	resume := &namedStrategy{name: "resume_opt"}
	mock := &namedStrategy{name: "mock_interview"}
	r := NewRegistry(def, resume, mock)

	tests := []struct {
		label    intent.Intent
		expected string
	}{
		{label: intent.IntentResumeOpt, expected: "resume_opt"},
		{label: intent.IntentMockInterview, expected: "mock_interview"},
		{label: intent.IntentRelatedTopics, expected: "default"},
		{label: intent.IntentOthers, expected: "default"},
		// A label the classifier enum does not know yet must not strand
		// the turn.
		{label: intent.Intent("future_label"), expected: "default"},
		{label: intent.Intent(""), expected: "default"},
	}

	for _, tt := range tests {
		t.Run(string(tt.label), func(t *testing.T) {
			assert.Equal(t, tt.expected, r.Dispatch(tt.label).Name())
		})
	}
}

func TestRegistry_Default(t *testing.T) {
	def := &namedStrategy{name: "default"}
	r := NewRegistry(def, &namedStrategy{name: "r"}, &namedStrategy{name: "m"})

	assert.Same(t, def, r.Default())
}

func TestDefaultStrategy_ModelSelection(t *testing.T) {
	genCfg := config.GenAIConfig{Models: map[string]string{
		"chat-model":           "deepseek-chat",
		"chat-model-reasoning": "deepseek-reasoner",
	}}
	s := NewDefault(nil, genCfg, config.StrategyConfig{Model: "chat-model"})

	assert.Equal(t, "deepseek-chat", s.Model(Turn{}))
	assert.Equal(t, "deepseek-reasoner", s.Model(Turn{ModelAlias: "chat-model-reasoning"}))
	// Unknown aliases pass through so the backend decides.
	assert.Equal(t, "custom-model", s.Model(Turn{ModelAlias: "custom-model"}))
}
