// Package intent classifies the user's intent for one conversational turn.
package intent

import (
	"context"
	"encoding/json"

	cerrors "interview-agent/internal/common/errors"
	"interview-agent/internal/common/logger"
	"interview-agent/internal/genai"
	"interview-agent/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

// Intent is the discrete routing key produced by classification.
type Intent string

const (
	IntentResumeOpt     Intent = "resume_opt"
	IntentMockInterview Intent = "mock_interview"
	IntentRelatedTopics Intent = "related_topics"
	IntentOthers        Intent = "others"
)

// Classification is the structured classifier output. Intent is the sole
// routing key; confidence and reason are informational only.
type Classification struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

const classifierSchema = `{
	"type": "object",
	"properties": {
		"intent": {
			"type": "string",
			"enum": ["resume_opt", "mock_interview", "related_topics", "others"]
		},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1},
		"reason": {"type": "string"}
	},
	"required": ["intent", "confidence", "reason"]
}`

const classifySystemPrompt = `You are a senior engineer and interviewer at a large tech company, with deep expertise in the frontend stack: HTML, CSS, JavaScript, TypeScript, React, Vue, Node.js and mini-programs.
Classify the user's latest input into exactly one of these categories:

- resume_opt: the user wants their resume reviewed, improved or rewritten
- mock_interview: the user wants to practice or simulate an interview
- related_topics: programming, interview or resume related topics, such as technical questions or interview techniques
- others: anything unrelated to programming interviews

Analyze the intent carefully and respond with a JSON object containing "intent", "confidence" (0-1) and "reason".`

const classifyMaxOutputTokens = 256

// Backend is the structured-output capability the classifier consumes.
type Backend interface {
	GenerateObject(ctx context.Context, model, system string, messages []genai.ChatMessage, maxTokens int, out interface{}) error
}

type Classifier struct {
	backend Backend
	model   string
	schema  *gojsonschema.Schema
	logger  logger.Logger
}

func NewClassifier(backend Backend, model string, log logger.Logger) (*Classifier, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(classifierSchema))
	if err != nil {
		return nil, err
	}
	return &Classifier{
		backend: backend,
		model:   model,
		schema:  schema,
		logger:  log.With(map[string]interface{}{"component": "classifier"}),
	}, nil
}

// Classify makes one blocking structured-output call over the history.
// Any backend error, malformed JSON or schema violation is returned as a
// classification failure, never silently mapped to "others" — the caller
// owns the fallback policy.
func (c *Classifier) Classify(ctx context.Context, history []models.Message) (Classification, error) {
	var out Classification
	err := c.backend.GenerateObject(ctx, c.model, classifySystemPrompt,
		genai.ConvertMessages(history), classifyMaxOutputTokens, &out)
	if err != nil {
		return Classification{}, cerrors.NewClassificationFailedError(err)
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return Classification{}, cerrors.NewClassificationFailedError(err)
	}
	result, err := c.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil || !result.Valid() {
		details := "schema validation failed"
		if err != nil {
			details = err.Error()
		} else if len(result.Errors()) > 0 {
			details = result.Errors()[0].String()
		}
		c.logger.Warn("classifier returned invalid structured output", map[string]interface{}{
			"details": details,
		})
		return Classification{}, cerrors.NewClassificationFailedError(genai.ErrMalformedResponse)
	}

	c.logger.Info("intent classified", map[string]interface{}{
		"intent":     string(out.Intent),
		"confidence": out.Confidence,
	})
	return out, nil
}
