// internal/tools/scoreskills_test.go
package tools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(year int) func() time.Time {
	return func() time.Time {
		return time.Date(year, time.June, 1, 0, 0, 0, 0, time.UTC)
	}
}

func scoreWith(t *testing.T, year int, in ScoreSkillsInput) ScoreSkillsOutput {
	t.Helper()
	tool := NewScoreSkills()
	tool.Now = fixedClock(year)

	raw, err := json.Marshal(in)
	require.NoError(t, err)

	out, err := tool.Execute(context.Background(), raw)
	require.NoError(t, err)
	return out.(ScoreSkillsOutput)
}

func TestScoreSkills_Score(t *testing.T) {
	tests := []struct {
		name          string
		year          int
		input         ScoreSkillsInput
		expectedScore int
		positive      bool
	}{
		{
			name: "five years with only the seven core skills",
			year: 2026,
			input: ScoreSkillsInput{
				GraduationYear: 2021,
				Skills:         []string{"JavaScript", "TypeScript", "React", "Vue", "Node.js", "HTML", "CSS"},
			},
			// Count tier misses (7 of 20 expected), core tier maxes (+2),
			// no advanced skills: 5 + 0 + 2 + 0.
			expectedScore: 7,
		},
		{
			name: "senior with broad coverage hits the ceiling",
			year: 2026,
			input: ScoreSkillsInput{
				GraduationYear: 2019,
				Skills: []string{
					"JavaScript", "TypeScript", "React", "Vue", "Node.js", "HTML", "CSS",
					"Webpack", "Vite", "Docker", "GraphQL", "CI/CD", "unit testing",
					"e2e testing", "SSR", "performance optimization", "micro-frontend",
					"Redux", "Next.js", "Tailwind",
				},
			},
			expectedScore: 10,
			positive:      true,
		},
		{
			name: "new grad with no core skills stays at the floor",
			year: 2026,
			input: ScoreSkillsInput{
				GraduationYear: 2026,
				Skills:         []string{"Excel", "Photoshop"},
			},
			expectedScore: 5,
		},
		{
			name: "partial count tier adds one",
			year: 2026,
			input: ScoreSkillsInput{
				GraduationYear: 2026,
				// Expected count is 5; four skills clears the 70% tier.
				Skills: []string{"JavaScript", "TypeScript", "React", "HTML"},
			},
			// 5 + 1 (count tier) + 1 (core tier, 4 matches).
			expectedScore: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := scoreWith(t, tt.year, tt.input)

			assert.Equal(t, tt.expectedScore, out.Score)
			assert.GreaterOrEqual(t, out.Score, 5)
			assert.LessOrEqual(t, out.Score, 10)
			if tt.positive {
				assert.Contains(t, out.Suggestion, "comprehensive")
			} else {
				assert.NotEmpty(t, out.Suggestion)
			}
		})
	}
}

func TestScoreSkills_SuggestionsNameTheGaps(t *testing.T) {
	out := scoreWith(t, 2026, ScoreSkillsInput{
		GraduationYear: 2021,
		Skills:         []string{"JavaScript", "TypeScript", "React", "Vue", "Node.js", "HTML", "CSS"},
	})

	assert.Contains(t, out.Suggestion, "skill count is low")
	assert.Contains(t, out.Suggestion, "advanced skills")
	assert.NotContains(t, out.Suggestion, "core frontend")
}

func TestScoreSkills_MatchingIsCaseInsensitiveSubstring(t *testing.T) {
	out := scoreWith(t, 2026, ScoreSkillsInput{
		GraduationYear: 2026,
		Skills:         []string{"react.js", "TYPESCRIPT", "node.js express", "html5", "css3"},
	})

	// All five entries match core skills by substring.
	assert.NotContains(t, out.Suggestion, "core frontend")
}

func TestScoreSkills_Deterministic(t *testing.T) {
	in := ScoreSkillsInput{
		GraduationYear: 2020,
		Skills:         []string{"JavaScript", "React", "Docker"},
	}

	first := scoreWith(t, 2026, in)
	second := scoreWith(t, 2026, in)

	assert.Equal(t, first, second)
}

func TestScoreSkills_RejectsMalformedInput(t *testing.T) {
	tool := NewScoreSkills()
	_, err := tool.Execute(context.Background(), json.RawMessage(`{"graduationYear": "not a year"}`))
	require.Error(t, err)
}
