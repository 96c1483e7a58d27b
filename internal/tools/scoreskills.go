package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

var coreSkills = []string{"JavaScript", "TypeScript", "React", "Vue", "Node.js", "HTML", "CSS"}

var advancedSkills = []string{
	"Webpack", "Vite", "performance optimization", "micro-frontend", "SSR",
	"GraphQL", "Docker", "CI/CD", "unit testing", "e2e testing",
}

// ScoreSkillsInput is the typed input of the skill-scoring tool.
type ScoreSkillsInput struct {
	GraduationYear int      `json:"graduationYear"`
	Skills         []string `json:"skills"`
}

// ScoreSkillsOutput carries the score in [5,10] and a human-readable
// suggestion assembled from whichever sub-criteria were not met.
type ScoreSkillsOutput struct {
	Score      int    `json:"score"`
	Suggestion string `json:"suggestion"`
}

// ScoreSkills rates the skill section of a resume against the candidate's
// years of experience.
type ScoreSkills struct {
	// Now is injectable so scoring stays a pure function under test.
	Now func() time.Time
}

func NewScoreSkills() *ScoreSkills {
	return &ScoreSkills{Now: time.Now}
}

func (s *ScoreSkills) Name() string { return "scoreSkills" }

func (s *ScoreSkills) Description() string {
	return "Score the skill section of a resume based on graduation year and the listed skills"
}

func (s *ScoreSkills) InputSchema() string {
	return `{
		"type": "object",
		"properties": {
			"graduationYear": {
				"type": "integer",
				"description": "Graduation year, e.g. 2020"
			},
			"skills": {
				"type": "array",
				"items": {"type": "string"},
				"description": "Skill list, e.g. ['JavaScript', 'React', 'Node.js']"
			}
		},
		"required": ["graduationYear", "skills"],
		"additionalProperties": false
	}`
}

func (s *ScoreSkills) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var in ScoreSkillsInput
	if err := json.Unmarshal(input, &in); err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}
	return s.score(in), nil
}

func (s *ScoreSkills) score(in ScoreSkillsInput) ScoreSkillsOutput {
	currentYear := s.Now().Year()
	yearsOfExperience := currentYear - in.GraduationYear
	skillCount := len(in.Skills)

	score := 5
	var suggestions []string

	// Expected skill count grows with experience, capped at 20.
	expectedSkillCount := yearsOfExperience*3 + 5
	if expectedSkillCount > 20 {
		expectedSkillCount = 20
	}

	switch {
	case skillCount >= expectedSkillCount:
		score += 2
	case float64(skillCount) >= float64(expectedSkillCount)*0.7:
		score++
		suggestions = append(suggestions, fmt.Sprintf(
			"consider adding more skills: %d years of experience suggests %d or more",
			yearsOfExperience, expectedSkillCount))
	default:
		suggestions = append(suggestions, fmt.Sprintf(
			"skill count is low: %d years of experience suggests %d or more",
			yearsOfExperience, expectedSkillCount))
	}

	coreMatches := countMatches(in.Skills, coreSkills)
	switch {
	case coreMatches >= 5:
		score += 2
	case coreMatches >= 3:
		score++
		suggestions = append(suggestions,
			"consider adding more core frontend skills (React/Vue/TypeScript etc.)")
	default:
		suggestions = append(suggestions,
			"core frontend skill coverage is weak; add JavaScript, TypeScript, React/Vue etc.")
	}

	if yearsOfExperience >= 3 {
		if countMatches(in.Skills, advancedSkills) >= 3 {
			score++
		} else {
			suggestions = append(suggestions, fmt.Sprintf(
				"%d years of experience should include advanced skills such as build tooling, performance optimization and testing",
				yearsOfExperience))
		}
	}

	if score < 5 {
		score = 5
	}
	if score > 10 {
		score = 10
	}

	suggestion := "skill coverage is comprehensive and matches the years of experience well"
	if len(suggestions) > 0 {
		suggestion = strings.Join(suggestions, "; ")
	}

	return ScoreSkillsOutput{Score: score, Suggestion: suggestion}
}

// countMatches counts how many wanted skills appear in the candidate list,
// matched case-insensitively by substring.
func countMatches(skills, wanted []string) int {
	n := 0
	for _, w := range wanted {
		lw := strings.ToLower(w)
		for _, s := range skills {
			if strings.Contains(strings.ToLower(s), lw) {
				n++
				break
			}
		}
	}
	return n
}
