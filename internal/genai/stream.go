package genai

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"interview-agent/internal/tools"
	"interview-agent/internal/usage"
)

// hardStepCap bounds strategies with no configured step limit so a backend
// that never stops requesting tools cannot spin the loop forever.
const hardStepCap = 32

// StreamRequest parameterizes one generation stream. Tools lists the
// registered capability table; ActiveTools names the subset actually
// exposed to the backend for this call.
type StreamRequest struct {
	Model           string
	System          string
	Messages        []ChatMessage
	Tools           *tools.Registry
	ActiveTools     []string
	MaxOutputTokens int
	StepLimit       int
}

// StreamResult is the cancellable generation handle a strategy returns:
// a lazy, finite sequence of events plus final raw usage counters once
// generation completes or aborts.
type StreamResult struct {
	events chan Event
	done   chan struct{}
	usage  usage.Raw
	err    error
}

// Events returns the output event sequence. The channel is closed when
// generation finishes, after which Wait returns immediately.
func (r *StreamResult) Events() <-chan Event { return r.events }

// Wait blocks until generation completes and returns the accumulated raw
// usage counters. This is the only channel by which usage leaves a
// strategy.
func (r *StreamResult) Wait() (usage.Raw, error) {
	<-r.done
	return r.usage, r.err
}

func (r *StreamResult) finish(u usage.Raw, err error) {
	r.usage = u
	r.err = err
	close(r.events)
	close(r.done)
}

// StreamChat runs the multi-step generation loop: stream one completion,
// execute any requested tools, feed results back, repeat until the
// backend produces a final answer or the step limit is reached. The loop
// runs on its own goroutine; callers consume Events then Wait.
func (c *Client) StreamChat(ctx context.Context, req StreamRequest) *StreamResult {
	r := &StreamResult{
		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}
	go c.runStream(ctx, req, r)
	return r
}

func (c *Client) runStream(ctx context.Context, req StreamRequest, r *StreamResult) {
	messages := withSystem(req.System, req.Messages)

	var specs []toolSpec
	if req.Tools != nil {
		for _, s := range req.Tools.Specs(req.ActiveTools) {
			specs = append(specs, toolSpec{
				Type: "function",
				Function: toolFunction{
					Name:        s.Name,
					Description: s.Description,
					Parameters:  s.Parameters,
				},
			})
		}
	}

	stepLimit := req.StepLimit
	if stepLimit <= 0 || stepLimit > hardStepCap {
		stepLimit = hardStepCap
	}

	var total usage.Raw
	for step := 0; step < stepLimit; step++ {
		out, err := c.streamStep(ctx, req.Model, messages, specs, req.MaxOutputTokens, r)
		if err != nil {
			r.finish(total, err)
			return
		}
		total.Add(out.usage)

		if len(out.toolCalls) == 0 {
			r.finish(total, nil)
			return
		}

		messages = append(messages, ChatMessage{
			Role:      "assistant",
			Content:   out.content,
			ToolCalls: out.toolCalls,
		})
		for _, call := range out.toolCalls {
			result := c.executeTool(ctx, req.Tools, call, r)
			messages = append(messages, ChatMessage{
				Role:       "tool",
				ToolCallID: call.ID,
				Content:    string(result),
			})
		}
	}

	// Step budget exhausted mid tool loop; whatever was streamed stands.
	r.finish(total, nil)
}

func (c *Client) executeTool(ctx context.Context, registry *tools.Registry, call ToolCall, r *StreamResult) json.RawMessage {
	input := json.RawMessage(call.Function.Arguments)
	r.events <- Event{
		Type:       EventToolCall,
		ToolCallID: call.ID,
		ToolName:   call.Function.Name,
		Input:      input,
	}

	var output json.RawMessage
	result, err := registry.Execute(ctx, call.Function.Name, input)
	if err != nil {
		// The backend sees the failure as the tool result and can recover
		// in its next step; the executor never retries.
		output, _ = json.Marshal(map[string]string{"error": err.Error()})
	} else {
		output, err = json.Marshal(result)
		if err != nil {
			output, _ = json.Marshal(map[string]string{"error": err.Error()})
		}
	}

	r.events <- Event{
		Type:       EventToolResult,
		ToolCallID: call.ID,
		ToolName:   call.Function.Name,
		Output:     output,
	}
	return output
}

// streamChunk mirrors one SSE data payload of a streaming completion.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content          string `json:"content"`
			ReasoningContent string `json:"reasoning_content"`
			ToolCalls        []struct {
				Index    int    `json:"index"`
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens            int `json:"prompt_tokens"`
		CompletionTokens        int `json:"completion_tokens"`
		TotalTokens             int `json:"total_tokens"`
		CompletionTokensDetails struct {
			ReasoningTokens int `json:"reasoning_tokens"`
		} `json:"completion_tokens_details"`
	} `json:"usage"`
}

type stepOutput struct {
	content   string
	toolCalls []ToolCall
	usage     usage.Raw
}

// streamStep streams one completion call, forwarding deltas as events and
// assembling tool-call fragments by index.
func (c *Client) streamStep(ctx context.Context, model string, messages []ChatMessage, specs []toolSpec, maxTokens int, r *StreamResult) (*stepOutput, error) {
	body := completionRequest{
		Model:         model,
		Messages:      messages,
		MaxTokens:     maxTokens,
		Stream:        true,
		StreamOptions: &streamOptions{IncludeUsage: true},
		Tools:         specs,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	resp, err := c.post(ctx, c.streamClient, payload, true)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ErrBackendTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	out := &stepOutput{}
	pending := map[int]*ToolCall{}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" || data == "[DONE]" {
			continue
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}

		if chunk.Usage != nil {
			out.usage = usage.Raw{
				InputTokens:     chunk.Usage.PromptTokens,
				OutputTokens:    chunk.Usage.CompletionTokens,
				ReasoningTokens: chunk.Usage.CompletionTokensDetails.ReasoningTokens,
				TotalTokens:     chunk.Usage.TotalTokens,
			}
		}

		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta

		if delta.ReasoningContent != "" {
			r.events <- Event{Type: EventReasoningDelta, Text: delta.ReasoningContent}
		}
		if delta.Content != "" {
			out.content += delta.Content
			r.events <- Event{Type: EventTextDelta, Text: delta.Content}
		}
		for _, tc := range delta.ToolCalls {
			call, ok := pending[tc.Index]
			if !ok {
				call = &ToolCall{Type: "function"}
				pending[tc.Index] = call
			}
			if tc.ID != "" {
				call.ID = tc.ID
			}
			if tc.Function.Name != "" {
				call.Function.Name = tc.Function.Name
			}
			call.Function.Arguments += tc.Function.Arguments
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return nil, ErrBackendTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	indexes := make([]int, 0, len(pending))
	for i := range pending {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	for _, i := range indexes {
		out.toolCalls = append(out.toolCalls, *pending[i])
	}

	return out, nil
}
