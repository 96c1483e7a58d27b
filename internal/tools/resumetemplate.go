package tools

import (
	"context"
	"encoding/json"
)

// ResumeTemplateOutput carries the canned resume skeleton.
type ResumeTemplateOutput struct {
	Template string `json:"template"`
}

// ResumeTemplate returns a fixed resume skeleton so the model does not
// improvise its own structure.
type ResumeTemplate struct{}

func NewResumeTemplate() *ResumeTemplate { return &ResumeTemplate{} }

func (t *ResumeTemplate) Name() string { return "getResumeTemplate" }

func (t *ResumeTemplate) Description() string {
	return "Fetch the standard developer resume template; always use this instead of generating one"
}

func (t *ResumeTemplate) InputSchema() string {
	return `{
		"type": "object",
		"properties": {},
		"additionalProperties": false
	}`
}

const resumeTemplate = `# [Name]

## Basic Information
- Role sought: [Frontend Engineer]
- Years of experience: [N years]

## Education
- [Start–End] [School] [Major] [Degree]

## Skills
- Proficient in [core skill], with production experience in [scenario]
- Familiar with [skill], used for [scenario]

## Work Experience
### [Company] — [Title] ([Start–End])
- Used [technology] to deliver [feature], achieving [result]
- Improved [metric] by [number]% through [approach]

## Projects
### [Project Name] ([Start–End])
- Role: [owner / core developer]
- Stack: [technologies]
- Highlights: [measurable outcome with concrete numbers]
`

func (t *ResumeTemplate) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	return ResumeTemplateOutput{Template: resumeTemplate}, nil
}
