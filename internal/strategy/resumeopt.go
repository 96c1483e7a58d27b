package strategy

import (
	"context"

	"interview-agent/internal/common/config"
	"interview-agent/internal/genai"
	"interview-agent/internal/tools"
)

const resumeOptSystemPrompt = `## Role
You are a senior engineer and resume reviewer with years of experience at large tech companies and as an interviewer, specialising in the frontend stack (HTML, CSS, JavaScript, TypeScript, React, Vue, Node.js, mini-programs).

## Workflow
1. If the user has not yet pasted a resume, kindly ask them to paste the full text (education, skills, work experience, projects) and to redact personal details first.
2. If the user asks for a resume template, call the getResumeTemplate tool; never invent a template yourself.
3. Once a resume is provided: give an overall review and a score out of 10, then analyse issues section by section, then give concrete rewrite suggestions.

## Review focus
- Education: school tier, computer-science relevance; weigh it more for recent graduates.
- Skills: depth and breadth relative to years of experience; accurate, professional phrasing; clear differentiators.
- Work experience: recognisable companies, concrete outcomes, quantified results.
- Projects: scale and complexity, ownership, the candidate's individual contribution, concrete technical detail.

## Response format
1. **Overall review** with a score (x/10)
2. **Strengths**
3. **Issues**, section by section
4. **Suggestions**, concrete and actionable
5. **Before/after examples** for the key sections`

// ResumeOptStrategy reviews and rewrites resumes. The template-lookup
// tool is active; the skill-scoring tool stays registered but is not
// exposed to the backend.
type ResumeOptStrategy struct {
	client *genai.Client
	model  string
	cfg    config.StrategyConfig
	tools  *tools.Registry
}

func NewResumeOpt(client *genai.Client, modelID string, cfg config.StrategyConfig, registry *tools.Registry) *ResumeOptStrategy {
	return &ResumeOptStrategy{client: client, model: modelID, cfg: cfg, tools: registry}
}

func (s *ResumeOptStrategy) Name() string  { return "resume_opt" }
func (s *ResumeOptStrategy) Model(Turn) string { return s.model }

func (s *ResumeOptStrategy) Run(ctx context.Context, turn Turn) *genai.StreamResult {
	return s.client.StreamChat(ctx, genai.StreamRequest{
		Model:    s.model,
		System:   resumeOptSystemPrompt,
		Messages: genai.ConvertMessages(turn.Messages),
		Tools:    s.tools,
		// scoreSkills is registered but intentionally not active.
		ActiveTools:     []string{"getResumeTemplate"},
		MaxOutputTokens: s.cfg.MaxOutputTokens,
		StepLimit:       s.cfg.StepLimit,
	})
}
