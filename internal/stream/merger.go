// Package stream merges a strategy's generation stream with the usage
// summary into the single ordered sequence delivered to the caller.
package stream

import (
	"context"
	"encoding/json"

	"interview-agent/internal/common/logger"
	"interview-agent/internal/common/metrics"
	"interview-agent/internal/genai"
	"interview-agent/internal/models"
	"interview-agent/internal/usage"
)

// genericErrorText is the only failure detail a caller ever sees
// mid-stream; internal diagnostics stay in the logs.
const genericErrorText = "Oops, an error occurred!"

// OutputEvent is one tagged element of the transport-facing sequence.
type OutputEvent struct {
	Type string `json:"type"`

	Text string `json:"text,omitempty"`

	ToolCallID string `json:"toolCallId,omitempty"`
	ToolName   string `json:"toolName,omitempty"`
	Input      any    `json:"input,omitempty"`
	Output     any    `json:"output,omitempty"`

	Usage *usage.Summary `json:"usage,omitempty"`

	ErrorText string `json:"errorText,omitempty"`
}

const (
	EventDataUsage = "data-usage"
	EventError     = "error"
)

// Source is the strategy-result contract the merger consumes.
type Source interface {
	Events() <-chan genai.Event
	Wait() (usage.Raw, error)
}

// FinishFunc receives the accumulated assistant message parts and the
// final usage summary once the upstream stream has been fully consumed.
type FinishFunc func(parts []models.Part, summary usage.Summary, streamErr error)

type Merger struct {
	normalizer *usage.Normalizer
	logger     logger.Logger
}

func NewMerger(normalizer *usage.Normalizer, log logger.Logger) *Merger {
	return &Merger{
		normalizer: normalizer,
		logger:     log.With(map[string]interface{}{"component": "stream"}),
	}
}

// Merge returns the ordered output sequence for one turn. Content events
// pass through in backend order; exactly one usage event is appended
// last, with normalized or raw-fallback usage. Consumption of the
// upstream stream is decoupled from forwarding: tearing down clientCtx
// stops delivery to the caller but the drain continues to completion so
// the terminal callback always fires.
func (m *Merger) Merge(clientCtx context.Context, src Source, modelID string, onFinish FinishFunc) <-chan OutputEvent {
	out := make(chan OutputEvent)

	go func() {
		defer close(out)

		var acc partAccumulator
		forwarding := true

		forward := func(ev OutputEvent) {
			if !forwarding {
				return
			}
			select {
			case out <- ev:
			case <-clientCtx.Done():
				forwarding = false
				metrics.ClientDisconnects.Inc()
				m.logger.Info("client disconnected, draining stream for persistence", nil)
			}
		}

		for ev := range src.Events() {
			acc.add(ev)
			forward(toOutputEvent(ev))
		}

		raw, streamErr := src.Wait()

		// Normalization never raises; a degraded summary is the raw
		// counters unchanged.
		summary := m.normalizer.Normalize(context.Background(), raw, modelID)

		if streamErr != nil {
			m.logger.Error("generation stream failed", map[string]interface{}{
				"error":   streamErr.Error(),
				"modelId": modelID,
			})
			forward(OutputEvent{Type: EventError, ErrorText: genericErrorText})
		} else {
			forward(OutputEvent{Type: EventDataUsage, Usage: &summary})
		}

		onFinish(acc.parts, summary, streamErr)
	}()

	return out
}

func toOutputEvent(ev genai.Event) OutputEvent {
	return OutputEvent{
		Type:       string(ev.Type),
		Text:       ev.Text,
		ToolCallID: ev.ToolCallID,
		ToolName:   ev.ToolName,
		Input:      rawOrNil(ev.Input),
		Output:     rawOrNil(ev.Output),
	}
}

func rawOrNil(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return json.RawMessage(raw)
}

// partAccumulator folds stream events into assistant message parts,
// coalescing consecutive deltas of the same kind.
type partAccumulator struct {
	parts []models.Part
}

func (a *partAccumulator) add(ev genai.Event) {
	switch ev.Type {
	case genai.EventTextDelta:
		a.appendText(models.PartText, ev.Text)
	case genai.EventReasoningDelta:
		a.appendText(models.PartReasoning, ev.Text)
	case genai.EventToolCall:
		a.parts = append(a.parts, models.Part{
			Type:       models.PartToolCall,
			ToolCallID: ev.ToolCallID,
			ToolName:   ev.ToolName,
			Input:      ev.Input,
		})
	case genai.EventToolResult:
		a.parts = append(a.parts, models.Part{
			Type:       models.PartToolResult,
			ToolCallID: ev.ToolCallID,
			ToolName:   ev.ToolName,
			Output:     ev.Output,
		})
	}
}

func (a *partAccumulator) appendText(kind models.PartType, text string) {
	if n := len(a.parts); n > 0 && a.parts[n-1].Type == kind {
		a.parts[n-1].Text += text
		return
	}
	a.parts = append(a.parts, models.Part{Type: kind, Text: text})
}
