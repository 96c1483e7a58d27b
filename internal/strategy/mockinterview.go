package strategy

import (
	"context"

	"interview-agent/internal/common/config"
	"interview-agent/internal/genai"
)

const mockInterviewSystemPrompt = `You are a rigorous but supportive technical interviewer at a large tech company, running a mock frontend interview.

Rules:
- Ask one question at a time and wait for the candidate's answer.
- Start with the candidate's background, then move from fundamentals (HTML/CSS/JavaScript) to framework and system questions, raising difficulty based on their answers.
- After each answer, give short feedback: what was good, what was missing, and the model answer in two or three sentences.
- At the candidate's request, or after eight questions, close the interview with an overall evaluation and concrete areas to improve.`

// MockInterviewStrategy drives an interactive interview session. The
// router treats its internals as opaque; like every strategy it reports
// raw usage through the stream handle on completion.
type MockInterviewStrategy struct {
	client *genai.Client
	model  string
	cfg    config.StrategyConfig
}

func NewMockInterview(client *genai.Client, modelID string, cfg config.StrategyConfig) *MockInterviewStrategy {
	return &MockInterviewStrategy{client: client, model: modelID, cfg: cfg}
}

func (s *MockInterviewStrategy) Name() string  { return "mock_interview" }
func (s *MockInterviewStrategy) Model(Turn) string { return s.model }

func (s *MockInterviewStrategy) Run(ctx context.Context, turn Turn) *genai.StreamResult {
	return s.client.StreamChat(ctx, genai.StreamRequest{
		Model:           s.model,
		System:          mockInterviewSystemPrompt,
		Messages:        genai.ConvertMessages(turn.Messages),
		MaxOutputTokens: s.cfg.MaxOutputTokens,
	})
}
