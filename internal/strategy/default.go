package strategy

import (
	"context"
	"fmt"

	"interview-agent/internal/common/config"
	"interview-agent/internal/genai"
)

const defaultSystemPrompt = `You are a friendly programming-interview assistant. Keep your responses concise and helpful.`

// DefaultStrategy handles related_topics and others intents: plain chat
// with no active tools, a small output budget and a bounded step count.
// It is the only strategy that honors the caller's model selection.
type DefaultStrategy struct {
	client *genai.Client
	genCfg config.GenAIConfig
	cfg    config.StrategyConfig
}

func NewDefault(client *genai.Client, genCfg config.GenAIConfig, cfg config.StrategyConfig) *DefaultStrategy {
	return &DefaultStrategy{client: client, genCfg: genCfg, cfg: cfg}
}

func (s *DefaultStrategy) Name() string { return "default" }

func (s *DefaultStrategy) Model(turn Turn) string {
	if turn.ModelAlias != "" {
		return s.genCfg.ModelID(turn.ModelAlias)
	}
	return s.genCfg.ModelID(s.cfg.Model)
}

func (s *DefaultStrategy) Run(ctx context.Context, turn Turn) *genai.StreamResult {
	return s.client.StreamChat(ctx, genai.StreamRequest{
		Model:           s.Model(turn),
		System:          systemPromptWithHints(defaultSystemPrompt, turn.Hints),
		Messages:        genai.ConvertMessages(turn.Messages),
		MaxOutputTokens: s.cfg.MaxOutputTokens,
		StepLimit:       s.cfg.StepLimit,
	})
}

func systemPromptWithHints(base string, hints RequestHints) string {
	if hints.City == "" && hints.Country == "" {
		return base
	}
	return base + fmt.Sprintf(
		"\n\nAbout the origin of the user's request:\n- city: %s\n- country: %s\n- lat: %s\n- lon: %s",
		hints.City, hints.Country, hints.Latitude, hints.Longitude)
}
